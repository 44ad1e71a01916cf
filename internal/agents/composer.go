package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// Defaults applied when the runtime settings store has no override.
const (
	DefaultResponseStyle     = "concisa"
	DefaultMaxResponseTokens = 150
)

// composerKnowledgeCap limits how many knowledge lines enter the prompt.
const composerKnowledgeCap = 5

// composerHistoryWindow is the number of recent turns shown to the persona.
const composerHistoryWindow = 3

// ComposeFallback is returned to the customer when generation fails.
const ComposeFallback = "Lo siento, tuve un problema al procesar tu solicitud. ¿Puedes reformular tu pregunta?"

// styleInstructions maps the response_style setting to a length directive.
var styleInstructions = map[string]string{
	"concisa":   "IMPORTANTE: Sé MUY BREVE y DIRECTO. Máximo 2-3 oraciones. Ve al grano.",
	"normal":    "Sé claro y conciso. Respuestas de longitud media.",
	"detallada": "Proporciona respuestas completas y detalladas cuando sea necesario.",
}

// Generator produces free-form completions.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Composer generates persona replies grounded on retrieved knowledge and the
// conversation so far. Response length is steered by the response_style and
// max_response_tokens settings.
type Composer struct {
	gen   Generator
	store store.Store
}

// NewComposer creates a composer backed by the given generator and settings
// store.
func NewComposer(gen Generator, s store.Store) *Composer {
	return &Composer{gen: gen, store: s}
}

// Compose generates a reply as the given persona. It never fails: generation
// errors degrade to a polite Spanish fallback so the customer always gets an
// answer.
func (c *Composer) Compose(ctx context.Context, agent models.AgentProfile, message string, history []models.ChatMessage, knowledge []string) string {
	system := c.buildSystemPrompt(agent, history, knowledge)

	resp, err := c.gen.Generate(ctx, system, message, agent.Temperature, c.maxTokens(agent))
	if err != nil {
		slog.Error("Composer Compose failed", "error", err, "agent", agent.Name)
		return ComposeFallback
	}
	slog.Debug("Composer Compose succeeded", "agent", agent.Name)
	return strings.TrimSpace(resp)
}

func (c *Composer) buildSystemPrompt(agent models.AgentProfile, history []models.ChatMessage, knowledge []string) string {
	knowledgeContext := ""
	if len(knowledge) > 0 {
		if len(knowledge) > composerKnowledgeCap {
			knowledge = knowledge[:composerKnowledgeCap]
		}
		lines := make([]string, 0, len(knowledge))
		for _, k := range knowledge {
			lines = append(lines, "- "+k)
		}
		knowledgeContext = "\n\nKnowledge Base:\n" + strings.Join(lines, "\n")
	}

	conversation := historyLines(history, composerHistoryWindow, "Assistant")
	if conversation == "" {
		conversation = "Starting new conversation"
	}

	return fmt.Sprintf(`%s

You are %s, specialized in %s.

Company: IA Club - Club de inteligencias artificiales que vende paquetes de IA
Product: MEGAPACK - Más de 40 IAs premium (ChatGPT Plus, Claude, Sora 2, Veo 3.1, Midjourney, etc.)
%s

Previous conversation:
%s

%s

Respond naturally, helpfully, and stay within your specialization. If the question is outside your area, politely redirect to appropriate support.`,
		agent.Instructions, agent.Name, agent.Role, knowledgeContext, conversation, c.styleInstruction())
}

func (c *Composer) styleInstruction() string {
	style := DefaultResponseStyle
	if v, err := c.store.GetSetting(models.SettingResponseStyle); err == nil && v != "" {
		style = v
	}
	if instruction, ok := styleInstructions[style]; ok {
		return instruction
	}
	return styleInstructions[DefaultResponseStyle]
}

func (c *Composer) maxTokens(agent models.AgentProfile) int {
	if agent.MaxTokens > 0 {
		return agent.MaxTokens
	}
	if v, err := c.store.GetSetting(models.SettingMaxResponseTokens); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		slog.Warn("Composer maxTokens ignoring invalid setting", "value", v)
	}
	return DefaultMaxResponseTokens
}

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iaclub/salesbot/internal/models"
)

// classifierTemperature keeps intent classification near-deterministic.
const classifierTemperature = 0.3

// classifierHistoryWindow is the number of recent turns included as context.
const classifierHistoryWindow = 3

// intentOrder fixes the order intents are listed in the classification prompt.
var intentOrder = []string{
	models.IntentSales,
	models.IntentDesign,
	models.IntentOrderTracking,
	models.IntentSupport,
	models.IntentGeneral,
}

// intentDescriptions describes each routable intent for the classifier model.
var intentDescriptions = map[string]string{
	models.IntentSales:         "Consultas sobre ventas, productos, precios, cotizaciones",
	models.IntentDesign:        "Ayuda con diseño, personalización, colores, estilos",
	models.IntentOrderTracking: "Seguimiento de pedidos, estado de órdenes",
	models.IntentSupport:       "Problemas técnicos, quejas, devoluciones",
	models.IntentGeneral:       "Saludos, información general, otras consultas",
}

// StructuredGenerator produces JSON-mode completions.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Classification is the parsed result of intent classification.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier labels inbound messages with one of the routable intents.
type Classifier struct {
	gen StructuredGenerator
}

// NewClassifier creates a classifier backed by the given generator.
func NewClassifier(gen StructuredGenerator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify determines the intent of a message given recent history. It never
// fails: classification errors or unknown labels degrade to the general
// intent at 0.5 confidence so the pipeline always has a route.
func (c *Classifier) Classify(ctx context.Context, message string, history []models.ChatMessage) Classification {
	fallback := Classification{
		Intent:     models.IntentGeneral,
		Confidence: 0.5,
		Reasoning:  "Error in classification, defaulting to general",
	}

	raw, err := c.gen.GenerateStructured(ctx, classifierSystemPrompt, c.buildPrompt(message, history), classifierTemperature, 0)
	if err != nil {
		slog.Error("Classifier Classify failed", "error", err)
		return fallback
	}

	var result Classification
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		slog.Error("Classifier Classify returned invalid JSON", "error", err)
		return fallback
	}
	if _, known := intentDescriptions[result.Intent]; !known {
		result.Intent = models.IntentGeneral
	}
	slog.Info("Classifier Classify succeeded", "intent", result.Intent, "confidence", result.Confidence)
	return result
}

const classifierSystemPrompt = "You are an intent classification assistant. Always respond with valid JSON."

func (c *Classifier) buildPrompt(message string, history []models.ChatMessage) string {
	intents := make([]string, 0, len(intentOrder))
	for _, intent := range intentOrder {
		intents = append(intents, fmt.Sprintf("- %s: %s", intent, intentDescriptions[intent]))
	}

	context := historyLines(history, classifierHistoryWindow, "Bot")
	if context == "" {
		context = "No previous context"
	}

	return fmt.Sprintf(`You are an intent classifier for IA Club, a club that sells AI packages and services.

Available intents:
%s

Previous conversation context:
%s

Current user message: %q

Classify the intent of the current message. Respond in JSON format:
{
    "intent": "intent_name",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation"
}`, strings.Join(intents, "\n"), context, message)
}

// historyLines renders the last n turns as "User: ..." / "<botLabel>: ..."
// lines. Returns "" when there is no history.
func historyLines(history []models.ChatMessage, n int, botLabel string) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		label := botLabel
		if msg.Role == models.RoleUser {
			label = "User"
		}
		lines = append(lines, label+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

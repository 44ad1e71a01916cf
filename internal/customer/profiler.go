package customer

import (
	"strings"

	"github.com/iaclub/salesbot/internal/models"
)

// ProfileGeneral is the fallback persona when no keywords match.
const ProfileGeneral = "general"

// ProfileRule pairs a persona with its trigger keywords. Rule order is
// semantic: on a score tie, the earlier persona wins.
type ProfileRule struct {
	Profile  string
	Keywords []string
}

// Persona describes the product recommendation data for one customer type.
type Persona struct {
	RecommendedAIs []string
	Highlight      string
	Benefits       []string
}

// ProfileResult is the outcome of persona detection.
type ProfileResult struct {
	Profile        string
	Confidence     float64
	KeywordsFound  []string
	RecommendedAIs []string
}

// Profiler classifies customers into personas from their vocabulary.
type Profiler struct {
	rules    []ProfileRule
	personas map[string]Persona
}

// NewProfiler creates a profiler with the default IA Club personas.
func NewProfiler() *Profiler {
	return &Profiler{rules: DefaultProfileRules(), personas: defaultPersonas()}
}

// NewProfilerWithRules creates a profiler with custom keyword rules. Personas
// without recommendation data yield an empty pitch.
func NewProfilerWithRules(rules []ProfileRule) *Profiler {
	return &Profiler{rules: rules, personas: defaultPersonas()}
}

// historyWindow is how many trailing history turns contribute to detection.
const historyWindow = 5

// Detect scores the message plus recent history against each persona's
// keywords. Confidence is the winner's matches over all matches across
// personas; no matches at all yields the general persona with zero
// confidence.
func (p *Profiler) Detect(message string, history []models.ChatMessage) ProfileResult {
	text := strings.ToLower(message)
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		text += " " + strings.ToLower(turn.Content)
	}

	var winner *ProfileRule
	var winnerFound []string
	total := 0
	for i := range p.rules {
		var found []string
		for _, kw := range p.rules[i].Keywords {
			if strings.Contains(text, kw) {
				found = append(found, kw)
			}
		}
		total += len(found)
		if len(found) > len(winnerFound) {
			winner = &p.rules[i]
			winnerFound = found
		}
	}
	if winner == nil {
		return ProfileResult{Profile: ProfileGeneral, Confidence: 0.0}
	}

	return ProfileResult{
		Profile:        winner.Profile,
		Confidence:     float64(len(winnerFound)) / float64(total),
		KeywordsFound:  winnerFound,
		RecommendedAIs: p.RecommendedAIs(winner.Profile),
	}
}

// PersonalizedPitch renders the persona's highlight plus its benefit list,
// or "" for unknown personas.
func (p *Profiler) PersonalizedPitch(profile string) string {
	persona, ok := p.personas[profile]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(persona.Highlight)
	b.WriteString("\n\n")
	b.WriteString("**Beneficios principales**:\n")
	for _, benefit := range persona.Benefits {
		b.WriteString("✅ " + benefit + "\n")
	}
	return b.String()
}

// RecommendedAIs returns the persona's recommended tools.
func (p *Profiler) RecommendedAIs(profile string) []string {
	if persona, ok := p.personas[profile]; ok {
		return persona.RecommendedAIs
	}
	return nil
}

// DefaultProfileRules returns the built-in persona keyword tables.
func DefaultProfileRules() []ProfileRule {
	return []ProfileRule{
		{
			Profile: "academico",
			Keywords: []string{
				"tesis", "investigación", "paper", "artículo", "universidad",
				"estudiante", "profesor", "académico", "turnitin", "plagio",
				"referencias", "bibliografía", "ensayo", "reporte", "estudio",
			},
		},
		{
			Profile: "creativo",
			Keywords: []string{
				"video", "diseño", "contenido", "youtube", "tiktok", "instagram",
				"redes sociales", "marketing", "publicidad", "imagen", "arte",
				"creativo", "edición", "animación", "sora", "veo", "midjourney",
			},
		},
		{
			Profile: "desarrollador",
			Keywords: []string{
				"código", "programar", "desarrollo", "app", "software", "web",
				"api", "backend", "frontend", "debug", "error", "copilot",
				"github", "python", "javascript", "programación",
			},
		},
		{
			Profile: "empresario",
			Keywords: []string{
				"negocio", "empresa", "ventas", "cliente", "equipo", "productividad",
				"automatización", "eficiencia", "ahorro", "tiempo", "gestión",
			},
		},
	}
}

func defaultPersonas() map[string]Persona {
	return map[string]Persona{
		"academico": {
			RecommendedAIs: []string{"ChatGPT Plus", "Claude", "Perplexity", "Consensus"},
			Highlight:      "🎓 **Para académicos**: ChatGPT Plus y Claude son perfectos para investigación, redacción de papers y análisis de datos.",
			Benefits: []string{
				"Análisis profundo de literatura académica",
				"Redacción y corrección de textos",
				"Generación de referencias bibliográficas",
				"Compatible con herramientas antiplagio",
			},
		},
		"creativo": {
			RecommendedAIs: []string{"Sora 2", "Veo 3.1 Ultra", "Midjourney", "CapCut PRO", "Runway"},
			Highlight:      "🎨 **Para creadores**: Sora 2 y Veo 3.1 son las IAs de video más avanzadas del mercado, junto con Midjourney para diseño.",
			Benefits: []string{
				"Generación de videos con sonido (Sora 2)",
				"Calidad cinematográfica (Veo 3.1 Ultra)",
				"Diseños profesionales (Midjourney)",
				"Edición avanzada (CapCut PRO)",
			},
		},
		"desarrollador": {
			RecommendedAIs: []string{"ChatGPT Plus", "Claude", "GitHub Copilot", "Cursor AI"},
			Highlight:      "💻 **Para developers**: ChatGPT Plus y Claude son ideales para debugging, code review y arquitectura de software.",
			Benefits: []string{
				"Generación de código optimizado",
				"Debugging inteligente",
				"Documentación automática",
				"Code reviews y mejores prácticas",
			},
		},
		"empresario": {
			RecommendedAIs: []string{"ChatGPT Plus", "Claude", "Jasper", "Copy.ai"},
			Highlight:      "💼 **Para negocios**: Automatiza tareas, mejora productividad y escala tu operación con IA.",
			Benefits: []string{
				"Automatización de tareas repetitivas",
				"Análisis de datos y tendencias",
				"Generación de contenido marketing",
				"Atención al cliente 24/7",
			},
		},
	}
}

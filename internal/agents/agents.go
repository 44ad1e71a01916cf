// Package agents routes classified messages to specialized response personas
// and composes replies through the GenAI client.
//
// Each persona carries its own instructions and specialization; the registry
// maps intent labels to personas with a general-purpose fallback.
package agents

import (
	"log/slog"

	"github.com/iaclub/salesbot/internal/models"
)

// DefaultTemperature is used for persona completions.
const DefaultTemperature = 0.7

// Registry holds the configured response personas keyed by intent.
type Registry struct {
	profiles map[string]models.AgentProfile
}

// NewRegistry returns a registry preloaded with the built-in personas.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]models.AgentProfile)}
	for _, p := range builtinProfiles() {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the persona for its intent.
func (r *Registry) Register(p models.AgentProfile) {
	r.profiles[p.Intent] = p
}

// Get returns the persona for the given intent, falling back to the general
// persona for unknown intents.
func (r *Registry) Get(intent string) models.AgentProfile {
	if p, ok := r.profiles[intent]; ok {
		return p
	}
	slog.Debug("Registry Get falling back to general persona", "intent", intent)
	return r.profiles[models.IntentGeneral]
}

func builtinProfiles() []models.AgentProfile {
	return []models.AgentProfile{
		{
			Intent:      models.IntentSales,
			Name:        "Sales Agent",
			Role:        "sales and product inquiries",
			Temperature: DefaultTemperature,
			Instructions: `You are a sales specialist for IA Club.

Your expertise:
- MEGAPACK: 40+ premium IAs in one package
- Pricing and plans (1, 2, 3 months)
- VIP services (VIP 1, VIP 2, VIP 3)
- Featured AIs: ChatGPT Plus, Claude, Sora 2, Veo 3.1 Ultra, Midjourney
- Personal accounts, unlimited usage

Always be friendly, professional, and help customers find the best solution for their needs.
Provide clear pricing when available, suggest options, and guide toward purchase.`,
		},
		{
			Intent:      models.IntentDesign,
			Name:        "Design Agent",
			Role:        "creative AI assistance",
			Temperature: DefaultTemperature,
			Instructions: `You are a creative AI specialist for IA Club.

Your expertise:
- Video generation AIs: Sora 2, Veo 3.1 Ultra, Kling AI
- Image generation AIs: Midjourney, DALL-E
- Video and audio editors: CapCut PRO, Runway, Higgsfield
- Creative project assistance
- AI recommendations based on customer needs

Help customers leverage the creative AIs in the MEGAPACK. Be enthusiastic and explain each AI's capabilities clearly.`,
		},
		{
			Intent:      models.IntentOrderTracking,
			Name:        "Order Tracking Agent",
			Role:        "order status and delivery tracking",
			Temperature: DefaultTemperature,
			Instructions: `You are an order management specialist for IA Club.

Your expertise:
- Login/access delivery process for MEGAPACK
- Delivery times (fast, usually same day)
- Personal account activation
- Order tracking
- Payment confirmation

Be reassuring, provide clear timelines, and keep customers informed about their order progress.`,
		},
		{
			Intent:      models.IntentSupport,
			Name:        "Support Agent",
			Role:        "technical support and issue resolution",
			Temperature: DefaultTemperature,
			Instructions: `You are a customer support specialist for IA Club.

Your expertise:
- Technical issues with AI access
- Account functionality questions
- Login or credential problems
- AI feature questions
- Complaint handling and problem solving

Be empathetic, solution-oriented, and professional. Always try to resolve issues or escalate appropriately.`,
		},
		{
			Intent:      models.IntentGeneral,
			Name:        "General Agent",
			Role:        "general assistance",
			Temperature: DefaultTemperature,
			Instructions: `You are a general assistant for IA Club.

Your role:
- Answer general questions about the company
- Provide basic information
- Route complex queries to specialists
- Handle greetings and small talk

Be friendly, helpful, and guide users to the right specialist when needed.`,
		},
	}
}

package agents

import (
	"math/rand/v2"
	"strings"
	"time"
)

// CTA pool labels.
const (
	CTASales   = "ventas"
	CTADesign  = "diseño"
	CTASupport = "soporte"
)

// Editable copy pools appended around generated replies.
var (
	salesCTAs = []string{
		"¿Te gustaría que te reserve el plan de {duration}?",
		"¿Prefieres empezar con {option1} o aprovechar el descuento de {option2}?",
		"¿Listo para unirte al club? 🚀",
		"¿Quieres que te envíe el link de pago?",
		"¿Te animas a probar el club este mes?",
	}

	designCTAs = []string{
		"¿Qué tipo de contenido quieres crear?",
		"¿Te gustaría ver ejemplos de lo que puedes hacer con estas IAs?",
		"¿Necesitas ayuda para elegir la mejor IA para tu proyecto?",
	}

	supportCTAs = []string{
		"¿Esto resuelve tu duda?",
		"¿Necesitas que te ayude con algo más?",
		"¿Todo claro? Aquí estoy si necesitas más ayuda 🤖",
	}

	socialProof = []string{
		"Más de 500 miembros ya disfrutan del MEGAPACK 🚀",
		"Únete a nuestra comunidad de creadores y académicos 🎓",
		"Miles de proyectos creados con nuestras IAs ✨",
		"Grupo de referencias: https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi",
	}

	urgency = []string{
		"⏰ Promoción válida hasta fin de mes",
		"🔥 Últimos días de la promoción especial",
		"⚡ Aprovecha el precio de lanzamiento",
		"💎 Precio especial por tiempo limitado",
	}

	greetings = []string{
		"¡Hola! Soy Tío IA 🤖",
		"¡Hey! Aquí Tío IA, bienvenido al club 🚀",
		"¡Saludos! Soy Tío IA, tu guía en el club de IAs 💬",
		"¡Qué tal! Tío IA por aquí 👋",
	}

	priceIntros = []string{
		"¡Claro! Te detallo nuestros planes para el MEGAPACK:",
		"¡Perfecto! Déjame mostrarte los precios del MEGAPACK:",
		"¡Excelente pregunta! Estos son nuestros planes:",
		"¡Por supuesto! Mira nuestras opciones:",
	}
)

// MegapackPrices is the centrally editable MEGAPACK price block.
const MegapackPrices = `
**PLANES MEGAPACK** 💰

1. **1 mes**: 💰 **30 soles**
2. **2 meses**: 💰 **50 soles** (ahorro vs mensual)
3. **3 meses**: 💰 **70 soles** ⭐ (mejor precio)

**INCLUYE**:
✅ 40+ IAs premium
✅ ChatGPT Plus, Claude, Sora 2, Veo 3.1, Midjourney
✅ Cuentas personales, uso ilimitado
✅ 3 combos completos de IAs
✅ 3 regalos extras
`

// VIPPrices is the centrally editable VIP plan price block.
const VIPPrices = `
**PLANES VIP** 💎

💎 **VIP** (40 soles/mes):
- Todo el MEGAPACK incluido
- IAs más sofisticadas
- Cursos especiales
- Networking exclusivo
- Migración disponible pagando diferencia
`

// ctaPlaceholders fills the plan placeholders some sales CTAs carry so they
// never reach the customer as raw braces.
var ctaPlaceholders = strings.NewReplacer(
	"{duration}", "3 meses",
	"{option1}", "1 mes",
	"{option2}", "3 meses",
)

// Templates hands out randomized copy variations. Inject a seeded source for
// deterministic tests.
type Templates struct {
	rng *rand.Rand
}

// TemplatesOption configures a Templates instance.
type TemplatesOption func(*Templates)

// WithTemplatesRand sets the random source used to pick variations.
func WithTemplatesRand(rng *rand.Rand) TemplatesOption {
	return func(t *Templates) { t.rng = rng }
}

// NewTemplates creates a template pool with a time-seeded random source.
func NewTemplates(opts ...TemplatesOption) *Templates {
	t := &Templates{}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		now := uint64(time.Now().UnixNano())
		t.rng = rand.New(rand.NewPCG(now, now>>32))
	}
	return t
}

// RandomGreeting picks an opening line.
func (t *Templates) RandomGreeting() string {
	return greetings[t.rng.IntN(len(greetings))]
}

// RandomPriceIntro picks an introduction for a pricing reply.
func (t *Templates) RandomPriceIntro() string {
	return priceIntros[t.rng.IntN(len(priceIntros))]
}

// RandomCTA picks a call to action for the given pool, defaulting to the
// sales pool for unknown labels.
func (t *Templates) RandomCTA(kind string) string {
	pool := salesCTAs
	switch kind {
	case CTADesign:
		pool = designCTAs
	case CTASupport:
		pool = supportCTAs
	}
	return ctaPlaceholders.Replace(pool[t.rng.IntN(len(pool))])
}

// RandomSocialProof picks a social proof line.
func (t *Templates) RandomSocialProof() string {
	return socialProof[t.rng.IntN(len(socialProof))]
}

// RandomUrgency picks an urgency line.
func (t *Templates) RandomUrgency() string {
	return urgency[t.rng.IntN(len(urgency))]
}

// BuildPriceResponse assembles a full pricing reply with intro, the MEGAPACK
// price block, optionally the VIP plans and an urgency line, social proof,
// and a closing CTA.
func (t *Templates) BuildPriceResponse(includeVIP, includeUrgency bool) string {
	parts := []string{t.RandomPriceIntro(), "", MegapackPrices}
	if includeVIP {
		parts = append(parts, VIPPrices)
	}
	if includeUrgency {
		parts = append(parts, t.RandomUrgency(), "")
	}
	parts = append(parts, t.RandomSocialProof(), "", t.RandomCTA(CTASales))
	return strings.Join(parts, "\n")
}

// AddCTA appends a call to action to an existing reply.
func (t *Templates) AddCTA(response, kind string) string {
	return response + "\n\n" + t.RandomCTA(kind)
}

// AddSocialProof appends a social proof line to an existing reply.
func (t *Templates) AddSocialProof(response string) string {
	return response + "\n\n" + t.RandomSocialProof()
}

package customer

import (
	"math/rand/v2"
	"strings"
)

// ObjectionRule pairs an objection type with its trigger keywords and the
// canned responses that counter it. Rule order is semantic: on a score tie,
// the earlier rule wins.
type ObjectionRule struct {
	Type      string
	Keywords  []string
	Responses []string
}

// Objection is a detected sales objection.
type Objection struct {
	Type              string
	Confidence        float64
	KeywordsFound     []string
	SuggestedResponse string
}

// ObjectionDetectorOpts holds configuration for an ObjectionDetector.
type ObjectionDetectorOpts struct {
	Rules []ObjectionRule
	Rand  *rand.Rand
}

// ObjectionDetectorOption configures an ObjectionDetector.
type ObjectionDetectorOption func(*ObjectionDetectorOpts)

// WithObjectionRules replaces the default rule set.
func WithObjectionRules(rules []ObjectionRule) ObjectionDetectorOption {
	return func(o *ObjectionDetectorOpts) { o.Rules = rules }
}

// WithObjectionRand sets the random source used to pick among responses.
func WithObjectionRand(r *rand.Rand) ObjectionDetectorOption {
	return func(o *ObjectionDetectorOpts) { o.Rand = r }
}

// ObjectionDetector matches customer messages against objection rules.
type ObjectionDetector struct {
	rules []ObjectionRule
	rng   *rand.Rand
}

// NewObjectionDetector creates a detector with the default IA Club rules.
func NewObjectionDetector(opts ...ObjectionDetectorOption) *ObjectionDetector {
	cfg := ObjectionDetectorOpts{Rules: DefaultObjectionRules()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &ObjectionDetector{rules: cfg.Rules, rng: cfg.Rand}
}

// Detect scans the message for objection keywords and returns the
// highest-scoring objection, or nil when nothing matches. Confidence is the
// keyword count normalized against three, capped at 1.0.
func (d *ObjectionDetector) Detect(message string) *Objection {
	lower := strings.ToLower(message)

	var best *ObjectionRule
	var bestFound []string
	for i := range d.rules {
		var found []string
		for _, kw := range d.rules[i].Keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) > len(bestFound) {
			best = &d.rules[i]
			bestFound = found
		}
	}
	if best == nil {
		return nil
	}

	confidence := float64(len(bestFound)) / 3
	if confidence > 1.0 {
		confidence = 1.0
	}
	return &Objection{
		Type:              best.Type,
		Confidence:        confidence,
		KeywordsFound:     bestFound,
		SuggestedResponse: best.Responses[d.rng.IntN(len(best.Responses))],
	}
}

// Types returns the configured objection types in rule order.
func (d *ObjectionDetector) Types() []string {
	types := make([]string, len(d.rules))
	for i, r := range d.rules {
		types[i] = r.Type
	}
	return types
}

// DefaultObjectionRules returns the built-in IA Club objection rules.
func DefaultObjectionRules() []ObjectionRule {
	return []ObjectionRule{
		{
			Type: "precio_alto",
			Keywords: []string{
				"caro", "costoso", "mucho dinero", "muy caro", "precio alto",
				"no tengo", "no puedo pagar", "es mucho",
			},
			Responses: []string{
				`Entiendo tu preocupación por el precio. Déjame mostrarte por qué vale la pena:

**Si compraras las IAs individualmente**:
💰 ChatGPT Plus: $20/mes = ~75 soles
💰 Midjourney: $30/mes = ~110 soles
💰 Claude Pro: $20/mes = ~75 soles
💰 Sora: No disponible individualmente
**Total**: Más de 260 soles/mes

**Con el MEGAPACK**: Solo 30 soles/mes
✅ Ahorras más del 88%
✅ Obtienes 40+ IAs en lugar de 3
✅ Incluye Sora 2 y Veo 3.1 (no disponibles solos)

¿Tiene más sentido ahora? 🤔`,
				`Te entiendo perfectamente. Por eso tenemos el **plan de 1 mes por solo 30 soles** 💰

Es menos que:
- Una cena 🍕
- Una entrada al cine 🎬
- Un día de delivery 🚚

Y obtienes:
✅ 40+ IAs premium durante 30 días completos
✅ Sin límites de uso
✅ Acceso a Sora 2, ChatGPT Plus, Claude, Midjourney...

Puedes probarlo 1 mes y si no te convence, no renuevas. ¿Qué te parece? 😊`,
			},
		},
		{
			Type: "no_usar_todo",
			Keywords: []string{
				"no usaré", "no lo uso", "no necesito", "solo quiero",
				"no uso todo", "demasiadas", "muchas ias",
			},
			Responses: []string{
				`¡Perfecto! Nadie usa las 40+ IAs todos los días 😄

Lo importante es que **cuando necesites una IA específica, ya la tienes**:

📅 **Hoy**: Necesitas ChatGPT para trabajo
📅 **Mañana**: Quieres crear un video con Sora
📅 **Próxima semana**: Diseñar algo con Midjourney

Por solo 30 soles/mes tienes todo el arsenal disponible 24/7.

**La mayoría de nuestros miembros**:
- Usan 5-7 IAs regularmente
- Descubren nuevas IAs útiles cada semana
- Agradecen tener acceso cuando las necesitan

¿Prefieres tenerlas y no usarlas, o necesitarlas y no tenerlas? 🤔`,
				`Entiendo tu punto. Por eso el MEGAPACK es perfecto:

**No vendemos IAs sueltas** porque:
1. La mayoría cuesta más de 30 soles cada una
2. Sora 2 y Veo 3.1 NO están disponibles individualmente
3. Terminarías pagando mucho más por menos

**Con el MEGAPACK**:
✅ Pagas el precio de 1 IA y llevas 40+
✅ Descubres IAs que no sabías que necesitabas
✅ Flexibilidad total para cualquier proyecto

Es como Netflix: pagas por la plataforma completa, no por cada película 🎬`,
			},
		},
		{
			Type: "cuentas_compartidas",
			Keywords: []string{
				"compartida", "compartido", "varias personas", "saturado",
				"lento", "muchos usuarios", "personal",
			},
			Responses: []string{
				`¡Excelente pregunta! 👏

**❌ NO son cuentas compartidas**
**✅ SON cuentas 100% PERSONALES**

**¿Qué significa esto?**:
- Tu usuario y contraseña únicos
- Sin saturación ni lentitud
- Uso ilimitado, cuando quieras
- Licencias oficiales premium

**¿Por qué puedo confiar?**:
📱 Únete a nuestro grupo de referencias: https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi
👥 Más de 500 miembros satisfechos
⭐ Testimonios reales de usuarios activos

¿Quieres hablar con alguien del grupo antes de decidir? 😊`,
			},
		},
		{
			Type: "seguridad_confianza",
			Keywords: []string{
				"seguro", "confiable", "estafa", "real", "verdad",
				"funciona", "legítimo", "referencias",
			},
			Responses: []string{
				`¡Me alegra que preguntes! La confianza es súper importante 🤝

**Pruebas de que somos reales**:

1. **Grupo de Referencias WhatsApp** 📱
   https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi
   - Habla directamente con miembros activos
   - Ve testimonios y casos reales
   - Pregunta lo que quieras

2. **Más de 500 miembros activos** 👥
   - Uso diario de las IAs
   - Comunidad establecida
   - Soporte constante

3. **Prueba sin riesgo** ✅
   - Empieza con 1 mes (30 soles)
   - Si no funciona, simplemente no renuevas
   - Entrega inmediata después del pago

¿Quieres entrar al grupo para ver por ti mismo? 🚀`,
				`Perfecto que seas cauteloso. Te doy 3 formas de verificarnos:

**1. Grupo de WhatsApp (público)** 📱
https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi
- Entra y pregunta a miembros reales
- Sin compromiso

**2. Redes sociales** 📲
- Instagram: @iaclub
- TikTok: @iaclub
- Contenido y testimonios diarios

**3. Prueba de 1 mes** 💰
- Solo 30 soles
- Bajo riesgo
- Alta recompensa

No te pido que confíes a ciegas. Verifica tú mismo 😊`,
			},
		},
		{
			Type: "pensarlo",
			Keywords: []string{
				"pensarlo", "después", "luego", "más tarde",
				"no sé", "dudas", "tiempo",
			},
			Responses: []string{
				`¡Por supuesto! Tómate tu tiempo 😊

**Mientras lo piensas, recuerda**:
⏰ La promoción de 30 soles termina este mes
💰 El precio regular será de 50 soles/mes
🎁 Los regalos extras son solo en promoción

**Te recomiendo**:
1. Únete al grupo de referencias: https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi
2. Habla con miembros actuales
3. Ve casos de uso reales
4. Decide con información completa

¿Tienes alguna duda específica que pueda resolver para ayudarte a decidir? 🤔`,
				`¡Entiendo perfectamente! Es una decisión importante 👍

**Para ayudarte a decidir**:

✅ **Lo que obtienes**: 40+ IAs premium
💰 **Inversión**: 30 soles (menos que una pizza)
⏰ **Duración**: 30 días completos
🔄 **Compromiso**: Ninguno (cancelas cuando quieras)

**¿Qué te frena?**
- ¿El precio?
- ¿Dudas sobre las cuentas?
- ¿No sabes si lo usarás?

Dime tu preocupación y la resolvemos juntos 😊`,
			},
		},
	}
}

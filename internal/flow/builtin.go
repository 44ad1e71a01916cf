package flow

// Built-in flow definitions for IA Club: the onboarding funnel and the
// abandoned-cart recovery sequence.

// OnboardingFlow builds the welcome and plan-selection flow.
func OnboardingFlow() *Definition {
	return &Definition{
		ID:          "onboarding",
		Name:        "Onboarding IA Club",
		Description: "Flujo de bienvenida y selección de plan",
		EntryPoint:  "welcome",
		Steps: []Step{
			{
				ID: "welcome",
				Message: `¡Bienvenido a IA Club! 🤖✨

Soy Tío IA, tu asistente personal. Estoy aquí para ayudarte a descubrir el poder de la inteligencia artificial.

**¿Cuál es tu principal objetivo?**

1️⃣ Crear contenido (videos, imágenes, diseño)
2️⃣ Trabajo académico (tesis, investigación)
3️⃣ Desarrollo y programación
4️⃣ Mejorar productividad empresarial

Escribe el número de tu opción (1-4) 👇`,
				Transitions: []Transition{
					{Trigger: "1", Next: "creative_path"},
					{Trigger: "2", Next: "academic_path"},
					{Trigger: "3", Next: "developer_path"},
					{Trigger: "4", Next: "business_path"},
					{Trigger: "crear", Next: "creative_path"},
					{Trigger: "contenido", Next: "creative_path"},
					{Trigger: "académico", Next: "academic_path"},
					{Trigger: "tesis", Next: "academic_path"},
					{Trigger: "desarrollo", Next: "developer_path"},
					{Trigger: "programación", Next: "developer_path"},
					{Trigger: "empresa", Next: "business_path"},
					{Trigger: "productividad", Next: "business_path"},
				},
				SaveToContext: "objetivo",
			},
			{
				ID: "creative_path",
				Message: `🎨 ¡Perfecto para creativos!

El **MEGAPACK** incluye las mejores IAs para creación de contenido:

🎥 **Sora 2** - Videos con sonido
🎬 **Veo 3.1 Ultra** - Video cinematográfico
🖼️ **Midjourney** - Diseño de imágenes
✂️ **CapCut PRO** - Edición profesional

**Precio:** Solo 30 soles/mes (40+ IAs incluidas)

**¿Te interesa probarlo?**
✅ Sí, quiero el MEGAPACK
⏰ Más tarde
❓ Tengo dudas

Responde con "sí", "más tarde" o "dudas" 👇`,
				Transitions: []Transition{
					{Trigger: "sí", Next: "plan_selection"},
					{Trigger: "si", Next: "plan_selection"},
					{Trigger: "quiero", Next: "plan_selection"},
					{Trigger: "interesa", Next: "plan_selection"},
					{Trigger: "más tarde", Next: "followup_reminder"},
					{Trigger: "luego", Next: "followup_reminder"},
					{Trigger: "dudas", Next: "objection_handler"},
					{Trigger: "pregunta", Next: "objection_handler"},
				},
			},
			{
				ID: "academic_path",
				Message: `🎓 ¡Ideal para académicos!

El **MEGAPACK** te ayuda con:

📚 **ChatGPT Plus** - Análisis y redacción
🤖 **Claude** - Investigación profunda
🔍 **Perplexity** - Búsqueda académica
✍️ **Jasper** - Redacción profesional

**Precio:** Solo 30 soles/mes (40+ IAs incluidas)

**¿Te gustaría empezar?**
✅ Sí, quiero el MEGAPACK
⏰ Más tarde
❓ Tengo dudas`,
				Transitions: []Transition{
					{Trigger: "sí", Next: "plan_selection"},
					{Trigger: "si", Next: "plan_selection"},
					{Trigger: "quiero", Next: "plan_selection"},
					{Trigger: "más tarde", Next: "followup_reminder"},
					{Trigger: "dudas", Next: "objection_handler"},
				},
			},
			{
				ID: "developer_path",
				Message: `💻 ¡Perfecto para developers!

El **MEGAPACK** incluye:

⚡ **ChatGPT Plus** - Code generation
🤖 **Claude** - Code review y debugging
🚀 **GitHub Copilot** - Autocompletado IA
📝 **Cursor AI** - Editor con IA

**Precio:** Solo 30 soles/mes (40+ IAs incluidas)

**¿Listo para mejorar tu workflow?**
✅ Sí, quiero el MEGAPACK
⏰ Más tarde
❓ Tengo dudas`,
				Transitions: []Transition{
					{Trigger: "sí", Next: "plan_selection"},
					{Trigger: "si", Next: "plan_selection"},
					{Trigger: "más tarde", Next: "followup_reminder"},
					{Trigger: "dudas", Next: "objection_handler"},
				},
			},
			{
				ID: "business_path",
				Message: `💼 ¡Ideal para negocios!

El **MEGAPACK** automatiza:

📊 **ChatGPT Plus** - Análisis de datos
📧 **Jasper** - Marketing y emails
🤖 **Claude** - Atención al cliente
⚡ **Copy.ai** - Contenido rápido

**Precio:** Solo 30 soles/mes (40+ IAs incluidas)

**¿Quieres aumentar tu productividad?**
✅ Sí, quiero el MEGAPACK
⏰ Más tarde
❓ Tengo dudas`,
				Transitions: []Transition{
					{Trigger: "sí", Next: "plan_selection"},
					{Trigger: "más tarde", Next: "followup_reminder"},
					{Trigger: "dudas", Next: "objection_handler"},
				},
			},
			{
				ID: "plan_selection",
				Message: `💰 **PLANES MEGAPACK**

Elige tu plan:

1️⃣ **1 mes** - 30 soles
2️⃣ **2 meses** - 50 soles (ahorro de 10 soles)
3️⃣ **3 meses** - 70 soles ⭐ (ahorro de 20 soles)

⏰ **Promoción válida hasta fin de mes**

Todos incluyen:
✅ 40+ IAs premium
✅ Uso ilimitado
✅ Cuentas personales
✅ 3 regalos extras

**¿Cuál plan prefieres? (1, 2 o 3)** 👇`,
				Transitions: []Transition{
					{Trigger: "1", Next: "collect_contact"},
					{Trigger: "2", Next: "collect_contact"},
					{Trigger: "3", Next: "collect_contact"},
					{Trigger: "un mes", Next: "collect_contact"},
					{Trigger: "dos meses", Next: "collect_contact"},
					{Trigger: "tres meses", Next: "collect_contact"},
				},
				SaveToContext: "plan",
			},
			{
				ID: "collect_contact",
				Message: `¡Excelente elección! 🎉

Para completar tu registro, necesito tu información de contacto.

**Por favor, compárteme tu WhatsApp o email:** 📱

(Ej: 987654321 o email@ejemplo.com)`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: "payment_info"},
				},
				SaveToContext: "contacto",
				Validate:      ValidateContact,
			},
			{
				ID: "payment_info",
				Message: `✅ ¡Perfecto, {contacto}!

**PLAN SELECCIONADO:** {plan}

**PROCESO DE PAGO:**

1️⃣ Transferencia bancaria o Yape
2️⃣ Envía tu comprobante
3️⃣ Recibes tu acceso en minutos

📱 **Únete a nuestro grupo de referencias:**
https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi

Un asesor te contactará en breve para completar tu compra.

**¿Tienes alguna pregunta antes de proceder?** 💬`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: EndStep},
				},
			},
			{
				ID: "followup_reminder",
				Message: `⏰ ¡Sin problema!

Te entiendo perfectamente. Recuerda que:

🔥 La promoción de 30 soles termina pronto
💎 Los regalos extras son solo en promoción
📱 Puedes unirte al grupo para ver referencias:
https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi

**Cuando estés listo, escríbeme y retomamos** 😊

¿Te gustaría que te recuerde en unos días?`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: EndStep},
				},
			},
			{
				ID: "objection_handler",
				Message: `❓ **¿Qué duda tienes?**

Puedo ayudarte con:

💰 Precios y planes
🔒 Seguridad y confianza
📱 Cómo funcionan las cuentas
⚡ Qué IAs incluye exactamente
🎁 Regalos y promociones

**Escribe tu duda y te ayudo** 👇`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: "plan_selection"},
				},
			},
		},
	}
}

// RecoveryFlow builds the abandoned-cart recovery flow.
func RecoveryFlow() *Definition {
	return &Definition{
		ID:          "recovery",
		Name:        "Recuperación de Abandono",
		Description: "Recupera clientes que abandonaron el proceso",
		EntryPoint:  "start",
		Steps: []Step{
			{
				ID: "start",
				Message: `👋 ¡Hola! Veo que estuviste interesado en el MEGAPACK.

¿Puedo ayudarte a resolver alguna duda para que puedas unirte al club? 🤖

**Las dudas más comunes son:**
💰 Sobre el precio
🔒 Sobre la seguridad
📱 Sobre cómo funciona

**¿Cuál es tu principal preocupación?** 👇`,
				Transitions: []Transition{
					{Trigger: "precio", Next: "price_objection"},
					{Trigger: "caro", Next: "price_objection"},
					{Trigger: "seguridad", Next: "price_objection"},
					{Trigger: "confianza", Next: "price_objection"},
					{Trigger: "funciona", Next: "price_objection"},
					{Trigger: DefaultTrigger, Next: "price_objection"},
				},
			},
			{
				ID: "price_objection",
				Message: `💰 **Entiendo tu preocupación por el precio.**

Déjame mostrarte el valor real:

**Si compraras las IAs por separado:**
- ChatGPT Plus: $20/mes = 75 soles
- Midjourney: $30/mes = 110 soles
- Claude Pro: $20/mes = 75 soles
**Total: 260+ soles/mes**

**Con IA Club: Solo 30 soles/mes**
✅ Ahorras más del 88%
✅ 40+ IAs en lugar de 3
✅ Incluye Sora 2 (no disponible solo)

**¿Tiene más sentido ahora?** 🤔`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: "offer_trial"},
				},
			},
			{
				ID: "offer_trial",
				Message: `🎁 **OFERTA ESPECIAL PARA TI:**

Como vi que estabas interesado, te ofrezco:

⭐ **Plan de 1 mes por 25 soles** (5 soles de descuento)
⏰ **Válido solo por 24 horas**

Es menos que una pizza 🍕 y tienes acceso completo por 30 días.

**¿Aprovechas esta oferta?**
✅ Sí, quiero aprovechar
❌ No, gracias`,
				Transitions: []Transition{
					{Trigger: "sí", Next: "collect_contact_recovery"},
					{Trigger: "si", Next: "collect_contact_recovery"},
					{Trigger: "quiero", Next: "collect_contact_recovery"},
					{Trigger: "no", Next: "final_attempt"},
				},
			},
			{
				ID: "collect_contact_recovery",
				Message: `🎉 ¡Excelente decisión!

**Tu descuento:** 5 soles OFF
**Precio final:** 25 soles por 1 mes

Por favor, compárteme tu WhatsApp para procesar tu pedido especial: 📱`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: EndStep},
				},
				SaveToContext: "contacto",
			},
			{
				ID: "final_attempt",
				Message: `😊 Lo entiendo perfectamente.

Antes de que te vayas, déjame ofrecerte algo:

📱 **Únete a nuestro grupo de referencias GRATIS:**
https://chat.whatsapp.com/IumSWrpFzSsCOMdpqIdwoi

Ahí puedes:
✅ Ver testimonios reales
✅ Hablar con miembros activos
✅ Resolver todas tus dudas
✅ Sin compromiso

**¿Te parece?** 🤝`,
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: EndStep},
				},
			},
		},
	}
}

package agents

import (
	"strings"

	"github.com/iaclub/salesbot/internal/customer"
)

// pitchConfidenceThreshold gates the personalized pitch on profile certainty.
const pitchConfidenceThreshold = 0.5

// ctaTailWindow is how far back from the end a question mark counts as an
// existing call to action.
const ctaTailWindow = 100

// Enhancer decorates sales replies with a personalized pitch, social proof,
// and a closing call to action.
type Enhancer struct {
	templates *Templates
	profiler  *customer.Profiler
}

// NewEnhancer creates an enhancer over the given template pool and profiler.
func NewEnhancer(t *Templates, p *customer.Profiler) *Enhancer {
	return &Enhancer{templates: t, profiler: p}
}

// EnhanceSales augments a sales reply. The pitch is appended only for a
// confidently detected non-general profile and only if the reply does not
// already contain it; social proof is skipped when the reply already mentions
// the group or WhatsApp; pushSale adds an urgency line for conversations warm
// enough to close; a CTA is added unless the reply already ends with a
// question.
func (e *Enhancer) EnhanceSales(response string, profile customer.ProfileResult, pushSale bool) string {
	if profile.Profile != customer.ProfileGeneral && profile.Confidence > pitchConfidenceThreshold {
		pitch := e.profiler.PersonalizedPitch(profile.Profile)
		if pitch != "" && !strings.Contains(response, pitch) {
			response = response + "\n\n" + pitch
		}
	}

	lower := strings.ToLower(response)
	if !strings.Contains(lower, "grupo") && !strings.Contains(lower, "whatsapp") {
		response = e.templates.AddSocialProof(response)
	}

	if pushSale {
		response = response + "\n\n" + e.templates.RandomUrgency()
	}

	if !strings.Contains(tail(response, ctaTailWindow), "?") {
		response = e.templates.AddCTA(response, CTASales)
	}
	return response
}

func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

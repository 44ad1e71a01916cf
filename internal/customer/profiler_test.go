package customer

import (
	"strings"
	"testing"

	"github.com/iaclub/salesbot/internal/models"
)

func TestDetectProfileFromMessage(t *testing.T) {
	p := NewProfiler()
	res := p.Detect("necesito ayuda con mi tesis para la universidad", nil)
	if res.Profile != "academico" {
		t.Errorf("profile = %q; want academico", res.Profile)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %f; want 1.0 (all matches in one persona)", res.Confidence)
	}
	if len(res.RecommendedAIs) == 0 {
		t.Error("expected recommended AIs for academico")
	}
}

func TestDetectProfileNoMatch(t *testing.T) {
	p := NewProfiler()
	res := p.Detect("hola, buenos días", nil)
	if res.Profile != ProfileGeneral {
		t.Errorf("profile = %q; want general", res.Profile)
	}
	if res.Confidence != 0.0 {
		t.Errorf("confidence = %f; want 0.0", res.Confidence)
	}
}

func TestDetectProfileConfidenceSplit(t *testing.T) {
	p := NewProfiler()
	// two creative keywords vs one developer keyword
	res := p.Detect("quiero video y diseño, también algo de código", nil)
	if res.Profile != "creativo" {
		t.Fatalf("profile = %q; want creativo", res.Profile)
	}
	want := 2.0 / 3.0
	if res.Confidence < want-0.01 || res.Confidence > want+0.01 {
		t.Errorf("confidence = %f; want ~%f", res.Confidence, want)
	}
}

func TestDetectProfileUsesRecentHistory(t *testing.T) {
	p := NewProfiler()
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "estoy programando una app"},
		{Role: models.RoleAssistant, Content: "¡Qué interesante!"},
	}
	res := p.Detect("¿me sirve el MEGAPACK?", history)
	if res.Profile != "desarrollador" {
		t.Errorf("profile = %q; want desarrollador from history", res.Profile)
	}
}

func TestDetectProfileHistoryWindowIsLimited(t *testing.T) {
	p := NewProfiler()
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "mi tesis de la universidad"},
	}
	// pad history so the academic turn falls outside the window
	for i := 0; i < historyWindow; i++ {
		history = append(history, models.ChatMessage{Role: models.RoleUser, Content: "ok"})
	}
	res := p.Detect("hola", history)
	if res.Profile != ProfileGeneral {
		t.Errorf("old history should not influence detection, got %q", res.Profile)
	}
}

func TestPersonalizedPitch(t *testing.T) {
	p := NewProfiler()
	pitch := p.PersonalizedPitch("creativo")
	if !strings.Contains(pitch, "Para creadores") {
		t.Errorf("pitch missing highlight: %q", pitch)
	}
	if !strings.Contains(pitch, "**Beneficios principales**:\n") {
		t.Errorf("pitch missing benefits header: %q", pitch)
	}
	if !strings.Contains(pitch, "✅ Generación de videos con sonido (Sora 2)\n") {
		t.Errorf("pitch missing benefit line: %q", pitch)
	}
	if p.PersonalizedPitch(ProfileGeneral) != "" {
		t.Error("general persona should yield an empty pitch")
	}
}

func TestProfileTieKeepsEarlierRule(t *testing.T) {
	rules := []ProfileRule{
		{Profile: "uno", Keywords: []string{"alfa"}},
		{Profile: "dos", Keywords: []string{"beta"}},
	}
	p := NewProfilerWithRules(rules)
	res := p.Detect("alfa beta", nil)
	if res.Profile != "uno" {
		t.Errorf("tie should keep the earlier persona, got %q", res.Profile)
	}
	if res.Confidence != 0.5 {
		t.Errorf("confidence = %f; want 0.5", res.Confidence)
	}
}

func TestLoadProfileRulesYAML(t *testing.T) {
	data := `
profiles:
  - profile: gamer
    keywords: ["juego", "stream"]
`
	rules, err := LoadProfileRules(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadProfileRules failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Profile != "gamer" {
		t.Fatalf("unexpected rules: %+v", rules)
	}

	p := NewProfilerWithRules(rules)
	res := p.Detect("me gusta el stream de juegos", nil)
	if res.Profile != "gamer" {
		t.Errorf("expected gamer profile, got %q", res.Profile)
	}
}

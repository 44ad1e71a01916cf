package customer

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func seededDetector() *ObjectionDetector {
	return NewObjectionDetector(WithObjectionRand(rand.New(rand.NewPCG(1, 2))))
}

func TestDetectPriceObjection(t *testing.T) {
	d := seededDetector()
	obj := d.Detect("Está muy caro, es mucho dinero")
	if obj == nil {
		t.Fatal("expected an objection")
	}
	if obj.Type != "precio_alto" {
		t.Errorf("type = %q; want precio_alto", obj.Type)
	}
	if obj.SuggestedResponse == "" {
		t.Error("expected a suggested response")
	}
}

func TestDetectNoObjection(t *testing.T) {
	d := seededDetector()
	if obj := d.Detect("hola, quiero información"); obj != nil {
		t.Errorf("expected nil, got %+v", obj)
	}
}

func TestObjectionConfidenceNormalization(t *testing.T) {
	d := seededDetector()

	// one keyword -> 1/3
	obj := d.Detect("me parece caro")
	if obj == nil {
		t.Fatal("expected an objection")
	}
	if got := obj.Confidence; got < 0.33 || got > 0.34 {
		t.Errorf("confidence = %f; want ~0.333", got)
	}

	// three keywords -> capped at 1.0
	obj = d.Detect("es muy caro, costoso, mucho dinero")
	if obj == nil {
		t.Fatal("expected an objection")
	}
	if obj.Confidence != 1.0 {
		t.Errorf("confidence = %f; want 1.0", obj.Confidence)
	}
	// "caro", "costoso", "mucho dinero", "muy caro" all match but the cap holds
	if len(obj.KeywordsFound) < 3 {
		t.Errorf("expected at least 3 keywords found, got %v", obj.KeywordsFound)
	}
}

func TestObjectionTieKeepsEarlierRule(t *testing.T) {
	rules := []ObjectionRule{
		{Type: "primera", Keywords: []string{"alfa"}, Responses: []string{"r1"}},
		{Type: "segunda", Keywords: []string{"beta"}, Responses: []string{"r2"}},
	}
	d := NewObjectionDetector(
		WithObjectionRules(rules),
		WithObjectionRand(rand.New(rand.NewPCG(1, 2))),
	)
	obj := d.Detect("alfa y beta a la vez")
	if obj == nil {
		t.Fatal("expected an objection")
	}
	if obj.Type != "primera" {
		t.Errorf("tie should keep the earlier rule, got %q", obj.Type)
	}
}

func TestObjectionHighestScoreWins(t *testing.T) {
	d := seededDetector()
	// two pensarlo keywords vs one precio keyword
	obj := d.Detect("caro... déjame pensarlo, no sé")
	if obj == nil {
		t.Fatal("expected an objection")
	}
	if obj.Type != "pensarlo" {
		t.Errorf("expected pensarlo to win with more keywords, got %q", obj.Type)
	}
}

func TestObjectionDeterministicResponseWithSeed(t *testing.T) {
	first := NewObjectionDetector(WithObjectionRand(rand.New(rand.NewPCG(7, 7)))).Detect("es muy caro")
	second := NewObjectionDetector(WithObjectionRand(rand.New(rand.NewPCG(7, 7)))).Detect("es muy caro")
	if first.SuggestedResponse != second.SuggestedResponse {
		t.Error("same seed should select the same response")
	}
}

func TestObjectionTypes(t *testing.T) {
	d := seededDetector()
	want := []string{"precio_alto", "no_usar_todo", "cuentas_compartidas", "seguridad_confianza", "pensarlo"}
	got := d.Types()
	if len(got) != len(want) {
		t.Fatalf("types = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("types[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestLoadObjectionRulesYAML(t *testing.T) {
	data := `
objections:
  - type: envio
    keywords: ["demora", "envío"]
    responses: ["La entrega es inmediata tras el pago."]
`
	rules, err := LoadObjectionRules(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadObjectionRules failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Type != "envio" {
		t.Fatalf("unexpected rules: %+v", rules)
	}

	d := NewObjectionDetector(
		WithObjectionRules(rules),
		WithObjectionRand(rand.New(rand.NewPCG(1, 2))),
	)
	if obj := d.Detect("¿cuánto demora el envío?"); obj == nil || obj.Type != "envio" {
		t.Errorf("expected envio objection, got %+v", obj)
	}
}

func TestLoadObjectionRulesRejectsIncomplete(t *testing.T) {
	data := `
objections:
  - type: rota
    keywords: []
    responses: []
`
	if _, err := LoadObjectionRules(strings.NewReader(data)); err == nil {
		t.Error("expected error for rule without keywords")
	}
}

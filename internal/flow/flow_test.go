package flow

import (
	"strings"
	"testing"
)

func testDefinition() *Definition {
	return &Definition{
		ID:         "demo",
		Name:       "Demo",
		EntryPoint: "a",
		Steps: []Step{
			{
				ID:      "a",
				Message: "Paso A: elige 1 o 2",
				Transitions: []Transition{
					{Trigger: "1", Next: "b"},
					{Trigger: "2", Next: "c"},
					{Trigger: DefaultTrigger, Next: "c"},
				},
				SaveToContext: "eleccion",
			},
			{
				ID:      "b",
				Message: "Paso B: elegiste {eleccion}",
				Transitions: []Transition{
					{Trigger: DefaultTrigger, Next: "end"},
				},
			},
			{
				ID:      "c",
				Message: "Paso C",
			},
		},
	}
}

func TestFlowStart(t *testing.T) {
	f := NewInstance(testDefinition())
	if f.State() != StateNotStarted {
		t.Errorf("expected not_started, got %s", f.State())
	}
	msg := f.Start()
	if msg != "Paso A: elige 1 o 2" {
		t.Errorf("unexpected start message: %q", msg)
	}
	if f.State() != StateInProgress {
		t.Errorf("expected in_progress, got %s", f.State())
	}
}

func TestFlowDeterministicRouting(t *testing.T) {
	// The same inputs always take the same path.
	for i := 0; i < 3; i++ {
		f := NewInstance(testDefinition())
		f.Start()
		res := f.Process("1 please")
		if res.CurrentStep != "b" {
			t.Fatalf("input '1 please' should route to step b, got %s", res.CurrentStep)
		}
	}
	f := NewInstance(testDefinition())
	f.Start()
	res := f.Process("xyz")
	if res.CurrentStep != "c" {
		t.Errorf("unmatched input should take the default transition to c, got %s", res.CurrentStep)
	}
}

func TestFlowTriggerOrder(t *testing.T) {
	// "1" is declared before "2"; input containing both matches the first.
	f := NewInstance(testDefinition())
	f.Start()
	res := f.Process("1 2")
	if res.CurrentStep != "b" {
		t.Errorf("expected first declared trigger to win, got step %s", res.CurrentStep)
	}
}

func TestFlowContextInterpolation(t *testing.T) {
	f := NewInstance(testDefinition())
	f.Start()
	res := f.Process("1")
	if res.Message != "Paso B: elegiste 1" {
		t.Errorf("expected interpolated message, got %q", res.Message)
	}
}

func TestFlowMissingPlaceholderFallsBackToRawText(t *testing.T) {
	def := testDefinition()
	def.Steps[1].Message = "Paso B: {no_definido}"
	f := NewInstance(def)
	f.Start()
	res := f.Process("1")
	if res.Message != "Paso B: {no_definido}" {
		t.Errorf("expected raw template when placeholder missing, got %q", res.Message)
	}
}

func TestFlowCompletion(t *testing.T) {
	f := NewInstance(testDefinition())
	f.Start()
	f.Process("1") // a -> b
	res := f.Process("cualquier cosa")
	if !res.Completed {
		t.Fatal("expected flow to complete when transition target does not exist")
	}
	if res.Message != MsgFlowCompleted {
		t.Errorf("unexpected completion message: %q", res.Message)
	}
	if f.State() != StateCompleted {
		t.Errorf("expected completed state, got %s", f.State())
	}
	if res.Context["eleccion"] != "1" {
		t.Errorf("expected saved context, got %v", res.Context)
	}
}

func TestFlowNoTransitionsCompletes(t *testing.T) {
	f := NewInstance(testDefinition())
	f.Start()
	f.Process("2") // a -> c, which has no transitions
	res := f.Process("lo que sea")
	if !res.Completed {
		t.Error("step without transitions should complete the flow on next input")
	}
}

func TestFlowInvalidInputReRendersStep(t *testing.T) {
	def := testDefinition()
	def.Steps[0].Validate = ValidateNumber
	f := NewInstance(def)
	f.Start()
	res := f.Process("sin numeros")
	if res.Completed {
		t.Fatal("invalid input must not complete the flow")
	}
	if !strings.HasPrefix(res.Message, MsgInvalidInput) {
		t.Errorf("expected invalid input prefix, got %q", res.Message)
	}
	if !strings.Contains(res.Message, "Paso A") {
		t.Errorf("expected step re-render after rejection, got %q", res.Message)
	}
	if !res.RequiresInput {
		t.Error("expected requires_input after rejection")
	}
	// valid input still advances from the same step
	res = f.Process("1")
	if res.CurrentStep != "b" {
		t.Errorf("expected advance to b after valid retry, got %s", res.CurrentStep)
	}
}

func TestFlowProcessWhenNotActive(t *testing.T) {
	f := NewInstance(testDefinition())
	res := f.Process("hola")
	if !res.Completed || res.Message != MsgFlowNotActive || res.Err == nil {
		t.Errorf("expected inactive flow error result, got %+v", res)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	m.Register("demo", testDefinition)

	if m.HasActiveFlow("conv1") {
		t.Fatal("no flow should be active before StartFlow")
	}
	start, err := m.StartFlow("conv1", "demo")
	if err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	if !start.Started || start.FlowID != "demo" {
		t.Errorf("unexpected start result: %+v", start)
	}
	if !m.HasActiveFlow("conv1") {
		t.Fatal("expected active flow after StartFlow")
	}

	res, handled := m.ProcessMessage("conv1", "1")
	if !handled || res.CurrentStep != "b" {
		t.Fatalf("expected flow to handle message, got handled=%v res=%+v", handled, res)
	}

	// completion removes the flow
	m.ProcessMessage("conv1", "seguir")
	if m.HasActiveFlow("conv1") {
		t.Error("completed flow should be removed from manager")
	}
	if _, handled := m.ProcessMessage("conv1", "hola"); handled {
		t.Error("no flow should handle messages after completion")
	}
}

func TestManagerStartReplacesActiveFlow(t *testing.T) {
	m := NewManager()
	m.Register("demo", testDefinition)

	m.StartFlow("conv1", "demo")
	m.ProcessMessage("conv1", "1")
	// restarting resets to the entry step
	start, err := m.StartFlow("conv1", "demo")
	if err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	if start.Progress.CurrentStep != "a" {
		t.Errorf("expected restart at entry point, got %s", start.Progress.CurrentStep)
	}
}

func TestManagerUnknownFlow(t *testing.T) {
	m := NewManager()
	if _, err := m.StartFlow("conv1", "no_existe"); err == nil {
		t.Error("expected error for unknown flow id")
	}
}

func TestManagerAbandonFlow(t *testing.T) {
	m := NewManager()
	m.Register("demo", testDefinition)
	m.StartFlow("conv1", "demo")
	m.AbandonFlow("conv1")
	if m.HasActiveFlow("conv1") {
		t.Error("abandoned flow should be removed")
	}
}

func TestBuiltinFlowsAreValid(t *testing.T) {
	for _, def := range []*Definition{OnboardingFlow(), RecoveryFlow()} {
		if err := def.Validate(); err != nil {
			t.Errorf("builtin flow %s invalid: %v", def.ID, err)
		}
	}
}

func TestOnboardingFlowPath(t *testing.T) {
	f := NewInstance(OnboardingFlow())
	f.Start()

	res := f.Process("1")
	if res.CurrentStep != "creative_path" {
		t.Fatalf("expected creative_path, got %s", res.CurrentStep)
	}
	res = f.Process("sí, quiero el MEGAPACK")
	if res.CurrentStep != "plan_selection" {
		t.Fatalf("expected plan_selection, got %s", res.CurrentStep)
	}
	res = f.Process("2")
	if res.CurrentStep != "collect_contact" {
		t.Fatalf("expected collect_contact, got %s", res.CurrentStep)
	}
	res = f.Process("987654321")
	if res.CurrentStep != "payment_info" {
		t.Fatalf("expected payment_info, got %s", res.CurrentStep)
	}
	if !strings.Contains(res.Message, "¡Perfecto, 987654321!") {
		t.Errorf("expected contact interpolated into payment step, got %q", res.Message)
	}
	if !strings.Contains(res.Message, "**PLAN SELECCIONADO:** 2") {
		t.Errorf("expected plan interpolated into payment step, got %q", res.Message)
	}
}

func TestOnboardingContactValidation(t *testing.T) {
	f := NewInstance(OnboardingFlow())
	f.Start()
	f.Process("3")  // developer_path
	f.Process("sí") // plan_selection
	f.Process("1")  // collect_contact
	res := f.Process("no te lo doy")
	if !strings.HasPrefix(res.Message, MsgInvalidInput) {
		t.Errorf("expected contact rejection, got %q", res.Message)
	}
	res = f.Process("email@ejemplo.com")
	if res.CurrentStep != "payment_info" {
		t.Errorf("expected payment_info after valid email, got %s", res.CurrentStep)
	}
}

func TestLoadDefinitionsYAML(t *testing.T) {
	data := `
flows:
  - id: encuesta
    name: Encuesta rápida
    entry_point: pregunta
    steps:
      - id: pregunta
        message: "¿Te gustó el servicio?"
        save_to_context: opinion
        transitions:
          - trigger: "sí"
            next: gracias
          - trigger: default
            next: gracias
      - id: gracias
        message: "Gracias, {opinion}"
`
	defs, err := LoadDefinitions(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "encuesta" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}

	f := NewInstance(defs[0])
	f.Start()
	res := f.Process("sí, mucho")
	if res.CurrentStep != "gracias" {
		t.Errorf("expected transition to gracias, got %s", res.CurrentStep)
	}
	if res.Message != "Gracias, sí, mucho" {
		t.Errorf("expected interpolated message, got %q", res.Message)
	}
}

func TestLoadDefinitionsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "entry point does not exist",
			data: `
flows:
  - id: rota
    entry_point: no_existe
    steps:
      - id: unico
        message: hola
`,
		},
		{
			name: "transition targets unknown step",
			data: `
flows:
  - id: rota
    entry_point: pregunta
    steps:
      - id: pregunta
        message: "¿Te interesa?"
        transitions:
          - trigger: "sí"
            next: no_existe
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadDefinitions(strings.NewReader(tt.data)); err == nil {
				t.Error("expected a load-time rejection")
			}
		})
	}
}

func TestLoadDefinitionsAllowsEndTarget(t *testing.T) {
	data := `
flows:
  - id: despedida
    entry_point: pregunta
    steps:
      - id: pregunta
        message: "¿Todo claro?"
        transitions:
          - trigger: "sí"
            next: end
`
	defs, err := LoadDefinitions(strings.NewReader(data))
	if err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}

	f := NewInstance(defs[0])
	f.Start()
	res := f.Process("sí")
	if !res.Completed {
		t.Errorf("transition to end should complete the flow, got %+v", res)
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		validator func(string) bool
		input     string
		expected  bool
	}{
		{ValidateNonEmpty, "hola", true},
		{ValidateNonEmpty, "   ", false},
		{ValidateNumber, "opción 2", true},
		{ValidateNumber, "ninguna", false},
		{ValidateContact, "987654321", true},
		{ValidateContact, "email@ejemplo.com", true},
		{ValidateContact, "mañana te digo", false},
	}
	for _, tt := range tests {
		if got := tt.validator(tt.input); got != tt.expected {
			t.Errorf("validator(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}

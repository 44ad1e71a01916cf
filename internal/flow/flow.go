// Package flow implements structured conversation flows for salesbot.
//
// A flow is a graph of steps with keyword-triggered transitions. Flows guide a
// customer through a scripted sequence (onboarding, plan selection, abandoned
// cart recovery) while the rest of the pipeline stays out of the way.
package flow

import (
	"fmt"
	"regexp"
	"strings"
)

// State represents the lifecycle state of a flow instance.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

// DefaultTrigger is the fallback transition trigger, taken when no other
// trigger matches the input.
const DefaultTrigger = "default"

// EndStep is the transition target that completes the flow instead of
// advancing to another step.
const EndStep = "end"

// Messages shown for flow edge cases.
const (
	MsgFlowNotActive = "El flujo no está activo."
	MsgInvalidInput  = "❌ Respuesta no válida. Por favor, intenta de nuevo."
	MsgFlowCompleted = "✅ ¡Flujo completado! Gracias."
)

// Transition maps a trigger keyword to the next step id. Transition order is
// semantic: the first trigger contained in the input wins.
type Transition struct {
	Trigger string
	Next    string
}

// Step is a single step in a flow definition.
type Step struct {
	ID          string
	Message     string
	Transitions []Transition
	// Validate rejects input before any transition is considered. Nil accepts
	// everything.
	Validate func(input string) bool
	// SaveToContext stores the raw input under this key when set.
	SaveToContext string
	// AutoAdvance marks steps that do not wait for customer input.
	AutoAdvance bool
}

// nextStep returns the id of the step the input transitions to, or "" when no
// trigger matches and no default exists.
func (s *Step) nextStep(input string) string {
	lower := strings.ToLower(input)
	for _, tr := range s.Transitions {
		if tr.Trigger == DefaultTrigger {
			continue
		}
		if strings.Contains(lower, strings.ToLower(tr.Trigger)) {
			return tr.Next
		}
	}
	for _, tr := range s.Transitions {
		if tr.Trigger == DefaultTrigger {
			return tr.Next
		}
	}
	return ""
}

// Definition describes a complete conversation flow.
type Definition struct {
	ID          string
	Name        string
	Description string
	EntryPoint  string
	Steps       []Step
}

// step looks up a step by id.
func (d *Definition) step(id string) *Step {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

// Validate checks that the definition is internally consistent: the entry
// point exists and step ids are unique.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("flow %s has no steps", d.ID)
	}
	seen := make(map[string]bool, len(d.Steps))
	for i := range d.Steps {
		if d.Steps[i].ID == "" {
			return fmt.Errorf("flow %s has a step with an empty id", d.ID)
		}
		if seen[d.Steps[i].ID] {
			return fmt.Errorf("flow %s has duplicate step id %s", d.ID, d.Steps[i].ID)
		}
		seen[d.Steps[i].ID] = true
	}
	if !seen[d.EntryPoint] {
		return fmt.Errorf("flow %s entry point %s not found", d.ID, d.EntryPoint)
	}
	for i := range d.Steps {
		for _, tr := range d.Steps[i].Transitions {
			if tr.Next == EndStep {
				continue
			}
			if !seen[tr.Next] {
				return fmt.Errorf("flow %s step %s transition %q targets unknown step %s", d.ID, d.Steps[i].ID, tr.Trigger, tr.Next)
			}
		}
	}
	return nil
}

// Result is the outcome of processing one customer input within a flow.
type Result struct {
	Message       string
	Completed     bool
	CurrentStep   string
	RequiresInput bool
	Context       map[string]string
	Err           error
}

// Progress summarizes how far a flow instance has advanced.
type Progress struct {
	FlowID         string            `json:"flow_id"`
	State          State             `json:"state"`
	CurrentStep    string            `json:"current_step"`
	StepsCompleted int               `json:"steps_completed"`
	TotalSteps     int               `json:"total_steps"`
	Context        map[string]string `json:"context"`
}

// Instance is one conversation's live traversal of a flow definition.
type Instance struct {
	def         *Definition
	state       State
	currentStep string
	context     map[string]string
	history     []string
}

// NewInstance creates a fresh instance of a flow definition.
func NewInstance(def *Definition) *Instance {
	return &Instance{
		def:         def,
		state:       StateNotStarted,
		currentStep: def.EntryPoint,
		context:     make(map[string]string),
	}
}

// State returns the instance's lifecycle state.
func (f *Instance) State() State {
	return f.state
}

// Start activates the flow and returns the entry step's message.
func (f *Instance) Start() string {
	f.state = StateInProgress
	f.currentStep = f.def.EntryPoint
	f.history = append(f.history, f.def.EntryPoint)
	return renderMessage(f.def.step(f.currentStep).Message, f.context)
}

// Process advances the flow with one customer input.
func (f *Instance) Process(input string) Result {
	if f.state != StateInProgress {
		return Result{
			Message:   MsgFlowNotActive,
			Completed: true,
			Err:       fmt.Errorf("flow %s not in progress", f.def.ID),
		}
	}

	current := f.def.step(f.currentStep)

	if current.Validate != nil && !current.Validate(input) {
		return Result{
			Message:       MsgInvalidInput + "\n\n" + renderMessage(current.Message, f.context),
			Completed:     false,
			CurrentStep:   f.currentStep,
			RequiresInput: true,
		}
	}

	if current.SaveToContext != "" {
		f.context[current.SaveToContext] = input
	}

	nextID := current.nextStep(input)
	next := f.def.step(nextID)
	if nextID == "" || nextID == EndStep || next == nil {
		f.state = StateCompleted
		return Result{
			Message:   MsgFlowCompleted,
			Completed: true,
			Context:   f.context,
		}
	}

	f.currentStep = nextID
	f.history = append(f.history, nextID)

	return Result{
		Message:       renderMessage(next.Message, f.context),
		Completed:     false,
		CurrentStep:   nextID,
		RequiresInput: !next.AutoAdvance,
	}
}

// Abandon marks the flow as abandoned.
func (f *Instance) Abandon() {
	f.state = StateAbandoned
}

// Progress reports the instance's current position.
func (f *Instance) Progress() Progress {
	return Progress{
		FlowID:         f.def.ID,
		State:          f.state,
		CurrentStep:    f.currentStep,
		StepsCompleted: len(f.history),
		TotalSteps:     len(f.def.Steps),
		Context:        f.context,
	}
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// renderMessage interpolates {var} placeholders from the accumulated context.
// If any placeholder has no value, the raw template is returned unchanged.
func renderMessage(msg string, ctx map[string]string) string {
	matches := placeholderRe.FindAllStringSubmatch(msg, -1)
	if len(matches) == 0 {
		return msg
	}
	for _, m := range matches {
		if _, ok := ctx[m[1]]; !ok {
			return msg
		}
	}
	return placeholderRe.ReplaceAllStringFunc(msg, func(p string) string {
		return ctx[strings.Trim(p, "{}")]
	})
}

package flow

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Declarative flow definitions. Flows are data: beyond the built-ins, new
// sequences can be added from a YAML file without touching code.

type yamlFile struct {
	Flows []yamlFlow `yaml:"flows"`
}

type yamlFlow struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	EntryPoint  string     `yaml:"entry_point"`
	Steps       []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	ID            string           `yaml:"id"`
	Message       string           `yaml:"message"`
	Transitions   []yamlTransition `yaml:"transitions"`
	SaveToContext string           `yaml:"save_to_context"`
	AutoAdvance   bool             `yaml:"auto_advance"`
	Validation    string           `yaml:"validation"`
}

type yamlTransition struct {
	Trigger string `yaml:"trigger"`
	Next    string `yaml:"next"`
}

// LoadDefinitions parses flow definitions from YAML.
func LoadDefinitions(r io.Reader) ([]*Definition, error) {
	var file yamlFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode flow definitions: %w", err)
	}

	defs := make([]*Definition, 0, len(file.Flows))
	for _, yf := range file.Flows {
		def := &Definition{
			ID:          yf.ID,
			Name:        yf.Name,
			Description: yf.Description,
			EntryPoint:  yf.EntryPoint,
		}
		for _, ys := range yf.Steps {
			step := Step{
				ID:            ys.ID,
				Message:       ys.Message,
				SaveToContext: ys.SaveToContext,
				AutoAdvance:   ys.AutoAdvance,
				Validate:      validatorByName(ys.Validation),
			}
			for _, yt := range ys.Transitions {
				step.Transitions = append(step.Transitions, Transition{Trigger: yt.Trigger, Next: yt.Next})
			}
			def.Steps = append(def.Steps, step)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flow definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadDefinitionsFile reads flow definitions from a YAML file and registers
// them with the manager.
func LoadDefinitionsFile(m *Manager, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open flow definitions file: %w", err)
	}
	defer f.Close()

	defs, err := LoadDefinitions(f)
	if err != nil {
		return err
	}
	for _, def := range defs {
		d := def
		m.Register(d.ID, func() *Definition { return d })
	}
	slog.Info("Flow definitions loaded", "path", path, "count", len(defs))
	return nil
}

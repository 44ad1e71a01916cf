package customer

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Declarative rule loading. Objection rules and persona keyword tables are
// editable data; operators can replace the built-ins from YAML files.

type objectionRulesFile struct {
	Objections []struct {
		Type      string   `yaml:"type"`
		Keywords  []string `yaml:"keywords"`
		Responses []string `yaml:"responses"`
	} `yaml:"objections"`
}

// LoadObjectionRules parses an ordered objection rule set from YAML.
func LoadObjectionRules(r io.Reader) ([]ObjectionRule, error) {
	var file objectionRulesFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode objection rules: %w", err)
	}
	rules := make([]ObjectionRule, 0, len(file.Objections))
	for _, o := range file.Objections {
		if o.Type == "" {
			return nil, fmt.Errorf("objection rule with empty type")
		}
		if len(o.Keywords) == 0 || len(o.Responses) == 0 {
			return nil, fmt.Errorf("objection rule %s needs keywords and responses", o.Type)
		}
		rules = append(rules, ObjectionRule{Type: o.Type, Keywords: o.Keywords, Responses: o.Responses})
	}
	return rules, nil
}

type profileRulesFile struct {
	Profiles []struct {
		Profile  string   `yaml:"profile"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"profiles"`
}

// LoadProfileRules parses an ordered persona keyword table from YAML.
func LoadProfileRules(r io.Reader) ([]ProfileRule, error) {
	var file profileRulesFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode profile rules: %w", err)
	}
	rules := make([]ProfileRule, 0, len(file.Profiles))
	for _, p := range file.Profiles {
		if p.Profile == "" {
			return nil, fmt.Errorf("profile rule with empty profile name")
		}
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("profile rule %s needs keywords", p.Profile)
		}
		rules = append(rules, ProfileRule{Profile: p.Profile, Keywords: p.Keywords})
	}
	return rules, nil
}

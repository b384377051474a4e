// Package oml parses and validates Osiris Markup Language pipeline
// documents (§3 OML Pipeline, §4.5 OML Validator).
package oml

import "github.com/keboola/osiris/pkg/registry"

// Step is one node of a pipeline's step DAG.
type Step struct {
	ID         string         `yaml:"id"`
	Component  string         `yaml:"component"`
	Mode       registry.Mode  `yaml:"mode"`
	Config     map[string]any `yaml:"config"`
	DependsOn  []string       `yaml:"depends_on,omitempty"`
}

// Pipeline is a parsed OML document (§3 OML Pipeline).
type Pipeline struct {
	OMLVersion string  `yaml:"oml_version"`
	Name       string  `yaml:"name"`
	Steps      []Step  `yaml:"steps"`

	// sourceBytes is retained so the compiler can fingerprint the
	// exact bytes that were parsed, not a re-serialization of them.
	sourceBytes []byte
}

// SourceBytes returns the raw OML bytes this Pipeline was parsed from.
func (p *Pipeline) SourceBytes() []byte { return p.sourceBytes }

// StepByID returns the step with the given id, or false if absent.
func (p *Pipeline) StepByID(id string) (Step, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

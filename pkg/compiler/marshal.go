package compiler

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// manifestYAMLDoc mirrors Manifest's field order for serialization;
// Hash/Short are appended at the top level since callers (LATEST
// pointer, CLI output) read them off the written file too.
type manifestYAMLDoc struct {
	Meta           Meta     `yaml:"meta"`
	Pipeline       Pipeline `yaml:"pipeline"`
	Metadata       Metadata `yaml:"metadata"`
	ManifestHash   string   `yaml:"manifest_hash"`
	ManifestShort  string   `yaml:"manifest_short"`
}

func marshalManifestYAML(m *Manifest) ([]byte, error) {
	doc := manifestYAMLDoc{
		Meta:          m.Meta,
		Pipeline:      m.Pipeline,
		Metadata:      m.Metadata,
		ManifestHash:  m.Hash,
		ManifestShort: m.Short,
	}
	return yaml.Marshal(doc)
}

// planStep is one entry of plan.json: the execution order the
// execution adapter walks, independent of the manifest's YAML
// encoding.
type planStep struct {
	ID        string   `json:"id"`
	Component string   `json:"component"`
	Mode      string   `json:"mode"`
	DependsOn []string `json:"depends_on"`
}

func buildPlan(steps []ManifestStep) ([]byte, error) {
	plan := make([]planStep, 0, len(steps))
	for _, s := range steps {
		plan = append(plan, planStep{ID: s.ID, Component: s.Component, Mode: s.Mode, DependsOn: s.DependsOn})
	}
	return json.MarshalIndent(map[string]any{"steps": plan}, "", "  ")
}

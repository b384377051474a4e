// Package registry discovers, validates, caches, and serves component
// specs (§4.3): the declarative records describing what a driver
// accepts and which of its config fields carry secrets.
package registry

import "strings"

// Mode is one of the operations a component can perform.
type Mode string

const (
	ModeExtract   Mode = "extract"
	ModeWrite     Mode = "write"
	ModeDiscover  Mode = "discover"
	ModeTransform Mode = "transform"
)

// Redaction names extra JSON-Pointer paths to redact beyond Secrets,
// e.g. free-text fields known to sometimes carry credentials.
type Redaction struct {
	Extras []string `yaml:"extras" json:"extras"`
}

// Example pairs a human label with a config snippet that must itself
// validate against the component's ConfigSchema (enhanced level).
type Example struct {
	Name   string         `yaml:"name" json:"name"`
	Config map[string]any `yaml:"config" json:"config"`
}

// LLMHints carries optional guidance for LLM-assisted pipeline
// authoring; InputAliases maps a friendlier name to a real config
// schema property (strict level requires every key to resolve).
type LLMHints struct {
	InputAliases map[string]string `yaml:"inputAliases" json:"inputAliases"`
}

// DoctorCapability declares that a component's connections can be
// live-probed by `osiris connections doctor`. Protocol picks the probe
// strategy; HostField/PortField name the resolved-config keys the
// probe dials (defaulting to "host"/"port" when empty).
type DoctorCapability struct {
	Protocol  string `yaml:"protocol" json:"protocol"` // "tcp" or "http"
	HostField string `yaml:"hostField" json:"hostField"`
	PortField string `yaml:"portField" json:"portField"`
	URLField  string `yaml:"urlField" json:"urlField"`
}

// Spec is a declarative component record (§3 Component Spec).
type Spec struct {
	Name          string            `yaml:"name" json:"name"`
	Version       string            `yaml:"version" json:"version"`
	Modes         []Mode            `yaml:"modes" json:"modes"`
	ConfigSchema  map[string]any    `yaml:"configSchema" json:"configSchema"`
	Secrets       []string          `yaml:"secrets" json:"secrets"`
	Redaction     Redaction         `yaml:"redaction" json:"redaction"`
	Examples      []Example         `yaml:"examples" json:"examples"`
	LLMHints      LLMHints          `yaml:"llmHints" json:"llmHints"`
	Doctor        *DoctorCapability `yaml:"doctor" json:"doctor,omitempty"`

	// sourcePath is the absolute path to the spec.yaml this Spec was
	// parsed from, used for mtime-based cache invalidation.
	sourcePath string
}

// SourcePath returns the spec.yaml path this Spec was loaded from.
func (s *Spec) SourcePath() string { return s.sourcePath }

// Family returns the connection family a component belongs to: the
// segment of its dotted name before the first ".", e.g. "mysql" for
// "mysql.extractor". Connection references (@family.alias) are
// resolved against this, not against the full component name.
func (s *Spec) Family() string {
	if i := strings.IndexByte(s.Name, '.'); i >= 0 {
		return s.Name[:i]
	}
	return s.Name
}

// SupportsMode reports whether the spec declares support for mode.
func (s *Spec) SupportsMode(mode Mode) bool {
	for _, m := range s.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// SecretMap is the result of secret_map(name) (§4.3): the set of
// JSON-Pointer paths a caller must treat as secret when reading,
// logging, or exporting this component's config.
type SecretMap struct {
	Secrets          []string `json:"secrets"`
	RedactionExtras  []string `json:"redaction_extras"`
}

// Level is a Component Registry validation strictness tier.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelEnhanced Level = "enhanced"
	LevelStrict   Level = "strict"
)

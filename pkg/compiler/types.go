// Package compiler turns an OML document into a canonical,
// content-addressed build artifact (§4.4).
package compiler

import "github.com/keboola/osiris/pkg/oml"

// Fingerprints are the sha256 hex digests computed over each
// canonicalized input (§4.4 step 3).
type Fingerprints struct {
	OmlFP      string `json:"oml_fp" yaml:"oml_fp"`
	ParamsFP   string `json:"params_fp" yaml:"params_fp"`
	RegistryFP string `json:"registry_fp" yaml:"registry_fp"`
	CompilerFP string `json:"compiler_fp" yaml:"compiler_fp"`
	ManifestFP string `json:"manifest_fp" yaml:"manifest_fp"`
}

// Meta is the manifest's meta block. GeneratedAt is masked to the
// zero value before hashing (§4.4: "the timestamp field is masked
// during hashing so the hash is time-independent").
type Meta struct {
	GeneratedAt       string   `json:"generated_at" yaml:"generated_at"`
	OMLVersion        string   `json:"oml_version" yaml:"oml_version"`
	Profile           string   `json:"profile" yaml:"profile"`
	RunIDPlaceholder  string   `json:"run_id_placeholder" yaml:"run_id_placeholder"`
	ToolchainVersions []string `json:"toolchain_versions" yaml:"toolchain_versions"`
}

// ManifestStep is one topologically-ordered step entry in the
// manifest (§4.4 step 3).
type ManifestStep struct {
	ID        string   `json:"id" yaml:"id"`
	Component string   `json:"component" yaml:"component"`
	Mode      string   `json:"mode" yaml:"mode"`
	DependsOn []string `json:"depends_on" yaml:"depends_on"`
	CfgPath   string   `json:"cfg_path" yaml:"cfg_path"`
}

// Pipeline is the manifest's pipeline block.
type Pipeline struct {
	Fingerprints Fingerprints   `json:"fingerprints" yaml:"fingerprints"`
	Steps        []ManifestStep `json:"steps" yaml:"steps"`
}

// Metadata is the manifest's metadata block.
type Metadata struct {
	SourceManifestPath string `json:"source_manifest_path" yaml:"source_manifest_path"`
}

// Manifest is the canonical, content-addressed compilation of one OML
// document (§3 Manifest (compiled)).
type Manifest struct {
	Meta     Meta     `json:"meta" yaml:"meta"`
	Pipeline Pipeline `json:"pipeline" yaml:"pipeline"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	// Hash and Short are computed, not serialized as manifest fields —
	// they are derived from (and would otherwise make circular) the
	// manifest bytes themselves.
	Hash  string `json:"-" yaml:"-"`
	Short string `json:"-" yaml:"-"`
}

// Result is everything Compile produces for one OML document.
type Result struct {
	Manifest     *Manifest
	ManifestYAML []byte
	StepConfigs  map[string][]byte // step id -> sorted-key JSON bytes
	Plan         []byte            // plan.json bytes
	Pipeline     *oml.Pipeline
}

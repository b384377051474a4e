// Package aiop assembles the AIOP export for one completed run
// (§4.9): a size-bounded JSON-LD "core" document built from three
// content layers — narrative (rule-based prose), semantic (DAG and
// component relations under osiris:// URIs), and evidence (timeline,
// metrics, artifact references) — plus a stub control layer (§3 AIOP
// Package), an optional Markdown run-card, and NDJSON annex shards for
// whatever the core's size budget cannot hold.
package aiop

import (
	"github.com/keboola/osiris/pkg/compiler"
	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/registry"
	"github.com/keboola/osiris/pkg/runindex"
)

// Options configures an Exporter for the lifetime of the process; it
// does not vary per run.
type Options struct {
	Contract      *fsx.Contract
	Registry      *registry.Registry // may be nil if no component carries secrets
	Config        config.AIOPConfig
	OsirisVersion string
	Env           string // deployment/profile label folded into run_fingerprint
}

// BuildInput is everything specific to the one run being exported.
type BuildInput struct {
	SessionID     string
	PipelineSlug  string
	Profile       string
	Manifest      *compiler.Manifest
	RunLogPaths   fsx.RunLogPaths
	AIOPPaths     fsx.AIOPPaths
	StepComponent map[string]string // step id -> component name, from the manifest
	Status        runindex.Status
	Totals        runindex.Totals
	StartMS       int64
	EndMS         int64
}

// BuildResult is what Build produces: the paths it wrote and whether
// truncation kicked in, for the caller (typically `osiris run` or
// `osiris logs aiop`) to report.
type BuildResult struct {
	CorePath    string
	RunCardPath string
	Truncated   bool
	SizeBytes   int
}

package config

import "github.com/keboola/osiris/pkg/fsx"

// Config is the umbrella configuration object loaded from osiris.yaml.
// It is the primary object returned by Initialize() and threaded
// through the compiler, execution adapter, AIOP exporter, retention
// engine, and CLI.
type Config struct {
	configPath string

	// Filesystem is handed to fsx.New to build the active Contract.
	Filesystem fsx.Config `yaml:"filesystem"`

	IDs       IDsConfig       `yaml:"ids"`
	AIOP      AIOPConfig      `yaml:"aiop"`
	Execution ExecutionConfig `yaml:"execution"`
}

// ConfigPath returns the path osiris.yaml was loaded from.
func (c *Config) ConfigPath() string { return c.configPath }

// IDsConfig controls run-id and manifest-hash generation strategy.
// It has the same fields as fsx.IDsConfig; osiris.yaml's top-level
// ids section decodes into this copy, which Initialize validates.
// The run-id allocator in pkg/runid reads neither.
type IDsConfig struct {
	RunIDFormat      []fsx.RunIDFormat `yaml:"run_id_format"`
	ManifestHashAlgo string            `yaml:"manifest_hash_algo"`
}

// AIOPTimelineDensity controls how aggressively the timeline layer is
// filtered (§4.9).
type AIOPTimelineDensity string

const (
	TimelineDensityLow    AIOPTimelineDensity = "low"
	TimelineDensityMedium AIOPTimelineDensity = "medium"
	TimelineDensityHigh   AIOPTimelineDensity = "high"
)

// AIOPSchemaMode controls the verbosity of the semantic layer.
type AIOPSchemaMode string

const (
	SchemaModeSummary  AIOPSchemaMode = "summary"
	SchemaModeDetailed AIOPSchemaMode = "detailed"
)

// AIOPDeltaMode controls whether the exporter computes a comparison
// against the previous completed run.
type AIOPDeltaMode string

const (
	DeltaModePrevious AIOPDeltaMode = "previous"
	DeltaModeNone     AIOPDeltaMode = "none"
)

// AIOPPolicy controls where the export is written.
type AIOPPolicy string

const (
	AIOPPolicyCore   AIOPPolicy = "core"
	AIOPPolicyAnnex  AIOPPolicy = "annex"
	AIOPPolicyCustom AIOPPolicy = "custom"
)

// AnnexCompress names a supported annex compression codec.
type AnnexCompress string

const (
	AnnexCompressNone AnnexCompress = "none"
	AnnexCompressGzip AnnexCompress = "gzip"
	AnnexCompressZstd AnnexCompress = "zstd"
)

// AIOPOutputConfig overrides the contract-resolved core/run-card paths.
// Empty values mean "use the filesystem contract".
type AIOPOutputConfig struct {
	CorePath    string `yaml:"core_path"`
	RunCardPath string `yaml:"run_card_path"`
}

// AIOPAnnexConfig controls overflow storage (§4.9 step 7).
type AIOPAnnexConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Dir      string        `yaml:"dir"`
	Compress AnnexCompress `yaml:"compress"`
}

// AIOPRetentionConfig holds the aiop.retention keys of osiris.yaml.
// pkg/retention does not read it: the retention engine takes its
// run-log age, AIOP keep count and annex age from fsx.RetentionConfig.
type AIOPRetentionConfig struct {
	KeepRuns      int `yaml:"keep_runs"`
	AnnexKeepDays int `yaml:"annex_keep_days"`
}

// AIOPConfig is the full set of inputs to the AIOP Exporter (§4.9).
type AIOPConfig struct {
	Enabled         bool                `yaml:"enabled"`
	Policy          AIOPPolicy          `yaml:"policy"`
	MaxCoreBytes    int64               `yaml:"max_core_bytes"`
	TimelineDensity AIOPTimelineDensity `yaml:"timeline_density"`
	MetricsTopK     int                 `yaml:"metrics_topk"`
	SchemaMode      AIOPSchemaMode      `yaml:"schema_mode"`
	Delta           AIOPDeltaMode       `yaml:"delta"`
	RunCard         bool                `yaml:"run_card"`
	Output          AIOPOutputConfig    `yaml:"output"`
	Annex           AIOPAnnexConfig     `yaml:"annex"`
	Retention       AIOPRetentionConfig `yaml:"retention"`
}

// DefaultAIOPConfig returns the built-in AIOP defaults, merged with
// any user-supplied osiris.yaml `aiop:` section by Initialize.
func DefaultAIOPConfig() *AIOPConfig {
	return &AIOPConfig{
		Enabled:         true,
		Policy:          AIOPPolicyCore,
		MaxCoreBytes:    5 * 1024 * 1024,
		TimelineDensity: TimelineDensityMedium,
		MetricsTopK:     20,
		SchemaMode:      SchemaModeSummary,
		Delta:           DeltaModePrevious,
		RunCard:         true,
		Annex: AIOPAnnexConfig{
			Enabled:  true,
			Dir:      "annex",
			Compress: AnnexCompressNone,
		},
		Retention: AIOPRetentionConfig{
			KeepRuns:      20,
			AnnexKeepDays: 90,
		},
	}
}

// ExecutionEngine selects which execution adapter runs a manifest's
// steps (§4.8).
type ExecutionEngine string

const (
	ExecutionEngineLocal  ExecutionEngine = "local"
	ExecutionEngineRemote ExecutionEngine = "remote"
)

// ExecutionRemoteConfig configures the remote (sandboxed proxy worker)
// adapter. WorkerCmd is the argv used to launch the proxy worker
// process; it is opaque to pkg/exec, which only ever talks to it over
// stdin/stdout.
type ExecutionRemoteConfig struct {
	WorkerCmd             []string `yaml:"worker_cmd"`
	BringUpTimeoutSeconds int      `yaml:"bring_up_timeout_seconds"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
}

// ExecutionConfig is the full set of inputs to the Execution Adapter
// (§4.8).
type ExecutionConfig struct {
	Engine                  ExecutionEngine       `yaml:"engine"`
	StepTimeoutSeconds      int                   `yaml:"step_timeout_seconds"`
	CLIBridgeTimeoutSeconds int                   `yaml:"cli_bridge_timeout_seconds"`
	Remote                  ExecutionRemoteConfig `yaml:"remote"`
}

// DefaultExecutionConfig returns the built-in execution defaults,
// merged with any user-supplied osiris.yaml `execution:` section by
// Initialize.
func DefaultExecutionConfig() *ExecutionConfig {
	return &ExecutionConfig{
		Engine:                  ExecutionEngineLocal,
		StepTimeoutSeconds:      900,
		CLIBridgeTimeoutSeconds: 30,
		Remote: ExecutionRemoteConfig{
			BringUpTimeoutSeconds: 60,
			RequestTimeoutSeconds: 30,
		},
	}
}

package fsx

import "time"

// NamingConfig controls the directory/file name templates used to
// render build and run-log paths. Tokens available to each template
// are documented on the corresponding Contract method.
type NamingConfig struct {
	ManifestDirTemplate string `yaml:"manifest_dir_template"`
	RunDirTemplate      string `yaml:"run_dir_template"`
	AIOPRunDirTemplate  string `yaml:"aiop_run_dir_template"`
	RunTSFormat         string `yaml:"run_ts_format"`
	ManifestShortLen    int    `yaml:"manifest_short_len"`
}

// ArtifactsConfig names the well-known files written under a build or
// run-log directory.
type ArtifactsConfig struct {
	Manifest      string `yaml:"manifest"`
	Plan          string `yaml:"plan"`
	Fingerprints  string `yaml:"fingerprints"`
	RunSummary    string `yaml:"run_summary"`
	Cfg           string `yaml:"cfg"`
	SaveEventsTail int   `yaml:"save_events_tail"`
}

// ProfilesConfig enumerates the allowed profile labels.
type ProfilesConfig struct {
	Enabled bool     `yaml:"enabled"`
	Values  []string `yaml:"values"`
	Default string   `yaml:"default"`
}

// RetentionConfig controls the retention engine (§4.10).
type RetentionConfig struct {
	RunLogsDays            int `yaml:"run_logs_days"`
	AIOPKeepRunsPerPipeline int `yaml:"aiop_keep_runs_per_pipeline"`
	AnnexKeepDays          int `yaml:"annex_keep_days"`
}

// OutputsConfig controls where CLI-rendered outputs (not part of the
// contract tree) are written.
type OutputsConfig struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"`
}

// RunIDFormat enumerates supported run-id generation strategies.
type RunIDFormat string

const (
	RunIDFormatIncremental RunIDFormat = "incremental"
	RunIDFormatULID        RunIDFormat = "ulid"
)

// IDsConfig controls run-id and manifest-hash generation.
type IDsConfig struct {
	RunIDFormat       []RunIDFormat `yaml:"run_id_format"`
	ManifestHashAlgo  string        `yaml:"manifest_hash_algo"`
}

// Config is the full set of inputs the filesystem contract resolves
// from (§4.1). It is the subset of osiris.yaml the contract needs;
// pkg/config.Config embeds this verbatim as its Filesystem field.
type Config struct {
	BasePath string `yaml:"base_path"`

	PipelinesDir string `yaml:"pipelines_dir"`
	BuildDir     string `yaml:"build_dir"`
	AIOPDir      string `yaml:"aiop_dir"`
	RunLogsDir   string `yaml:"run_logs_dir"`
	SessionsDir  string `yaml:"sessions_dir"`
	CacheDir     string `yaml:"cache_dir"`
	IndexDir     string `yaml:"index_dir"`
	MCPLogsDir   string `yaml:"mcp_logs_dir"`

	Profiles  ProfilesConfig  `yaml:"profiles"`
	Naming    NamingConfig    `yaml:"naming"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Retention RetentionConfig `yaml:"retention"`
	Outputs   OutputsConfig   `yaml:"outputs"`
	IDs       IDsConfig       `yaml:"ids"`
}

// Default returns the built-in filesystem contract defaults, rooted at
// basePath. Callers merge a loaded osiris.yaml on top of this with
// dario.cat/mergo, as pkg/config's Initialize does.
func Default(basePath string) Config {
	return Config{
		BasePath:     basePath,
		PipelinesDir: "pipelines",
		BuildDir:     "build",
		AIOPDir:      "aiop",
		RunLogsDir:   "run_logs",
		SessionsDir:  "sessions",
		CacheDir:     ".osiris/cache",
		IndexDir:     ".osiris/index",
		MCPLogsDir:   ".osiris/mcp_logs",
		Profiles: ProfilesConfig{
			Enabled: true,
			Values:  []string{"dev", "staging", "prod"},
			Default: "dev",
		},
		Naming: NamingConfig{
			ManifestDirTemplate: "pipelines/{profile}/{pipeline_slug}/{manifest_short}-{manifest_hash}",
			RunDirTemplate:      "{run_ts}_{run_id}-{manifest_short}",
			AIOPRunDirTemplate:  "{manifest_short}-{manifest_hash}/{run_id}",
			RunTSFormat:         "iso_basic_z",
			ManifestShortLen:    7,
		},
		Artifacts: ArtifactsConfig{
			Manifest:       "manifest.yaml",
			Plan:           "plan.json",
			Fingerprints:   "fingerprints.json",
			RunSummary:     "run_summary.json",
			Cfg:            "cfg",
			SaveEventsTail: 200,
		},
		Retention: RetentionConfig{
			RunLogsDays:             30,
			AIOPKeepRunsPerPipeline: 20,
			AnnexKeepDays:           90,
		},
		Outputs: OutputsConfig{
			Directory: "output",
			Format:    "table",
		},
		IDs: IDsConfig{
			RunIDFormat:      []RunIDFormat{RunIDFormatIncremental, RunIDFormatULID},
			ManifestHashAlgo: "sha256_slug",
		},
	}
}

// DefaultRetentionLoopInterval is not part of the on-disk contract: it
// is a six-hour cadence for repeated retention runs. Nothing in this
// module reads it.
const DefaultRetentionLoopInterval = 6 * time.Hour

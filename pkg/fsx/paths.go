package fsx

import "path/filepath"

// ManifestPaths is the set of locations under build/ for one compiled
// manifest (§4.1).
type ManifestPaths struct {
	Dir          string
	Manifest     string
	Plan         string
	Fingerprints string
	RunSummary   string
	CfgDir       string
	LatestPtr    string
}

// RunLogPaths is the set of locations under run_logs/ for one run
// (§4.1).
type RunLogPaths struct {
	Dir          string
	Events       string
	Metrics      string
	Log          string
	Status       string
	ManifestCopy string
	ArtifactsDir string
	CfgDir       string
}

// AIOPPaths is the set of locations under aiop/ for one run's
// observability export (§4.1, §4.9).
type AIOPPaths struct {
	Dir      string
	Core     string
	RunCard  string
	AnnexDir string
}

// IndexPaths is the set of process-wide index locations under
// index/ (§4.1, §4.6).
type IndexPaths struct {
	RunsJSONL     string
	ByPipelineDir string
	LatestDir     string
	LastCompile   string
	CountersDB    string
}

func (c *Contract) abs(parts ...string) string {
	return filepath.Join(append([]string{c.cfg.BasePath}, parts...)...)
}

// ManifestPaths resolves the paths for one compiled manifest identity.
// short must already be slugify-safe and exactly ManifestShortLen hex
// characters; callers obtain it from the compiler's fingerprinting
// step, not from user input.
func (c *Contract) ManifestPaths(pipelineSlug, profile, short, hash string) (ManifestPaths, error) {
	rel, err := Render(c.cfg.Naming.ManifestDirTemplate, map[string]string{
		"pipeline_slug":  pipelineSlug,
		"profile":        profile,
		"manifest_short": short,
		"manifest_hash":  hash,
	})
	if err != nil {
		return ManifestPaths{}, err
	}
	dir := c.abs(c.cfg.BuildDir, rel)
	return ManifestPaths{
		Dir:          dir,
		Manifest:     filepath.Join(dir, c.cfg.Artifacts.Manifest),
		Plan:         filepath.Join(dir, c.cfg.Artifacts.Plan),
		Fingerprints: filepath.Join(dir, c.cfg.Artifacts.Fingerprints),
		RunSummary:   filepath.Join(dir, c.cfg.Artifacts.RunSummary),
		CfgDir:       filepath.Join(dir, c.cfg.Artifacts.Cfg),
		LatestPtr:    c.abs(c.cfg.BuildDir, "pipelines", profile, pipelineSlug, "LATEST"),
	}, nil
}

// RunLogPaths resolves the paths for one run's session log directory.
// runTS must already be formatted per Naming.RunTSFormat (pkg/clock
// produces this).
func (c *Contract) RunLogPaths(pipelineSlug, profile, runTS, runID, short string) (RunLogPaths, error) {
	rel, err := Render(c.cfg.Naming.RunDirTemplate, map[string]string{
		"pipeline_slug":  pipelineSlug,
		"profile":        profile,
		"run_ts":         runTS,
		"run_id":         runID,
		"manifest_short": short,
	})
	if err != nil {
		return RunLogPaths{}, err
	}
	dir := c.abs(c.cfg.RunLogsDir, profile, pipelineSlug, rel)
	return RunLogPaths{
		Dir:          dir,
		Events:       filepath.Join(dir, "events.jsonl"),
		Metrics:      filepath.Join(dir, "metrics.jsonl"),
		Log:          filepath.Join(dir, "osiris.log"),
		Status:       filepath.Join(dir, "status.json"),
		ManifestCopy: filepath.Join(dir, c.cfg.Artifacts.Manifest),
		ArtifactsDir: filepath.Join(dir, "artifacts"),
		CfgDir:       filepath.Join(dir, c.cfg.Artifacts.Cfg),
	}, nil
}

// AIOPCoreFile, AIOPRunCardFile, AIOPAnnexSubdir are the well-known
// file/subdirectory names under one run's AIOP directory. Exported so
// the retention engine can locate them when it walks AIOPRoot() by
// hand rather than through a single run's resolved AIOPPaths.
const (
	AIOPCoreFile    = "core.json"
	AIOPRunCardFile = "run-card.md"
	AIOPAnnexSubdir = "annex"
)

// AIOPPaths resolves the paths for one run's AIOP export.
func (c *Contract) AIOPPaths(pipelineSlug, profile, short, hash, runID string) (AIOPPaths, error) {
	rel, err := Render(c.cfg.Naming.AIOPRunDirTemplate, map[string]string{
		"manifest_short": short,
		"manifest_hash":  hash,
		"run_id":         runID,
	})
	if err != nil {
		return AIOPPaths{}, err
	}
	dir := c.abs(c.cfg.AIOPDir, profile, pipelineSlug, rel)
	return AIOPPaths{
		Dir:      dir,
		Core:     filepath.Join(dir, AIOPCoreFile),
		RunCard:  filepath.Join(dir, AIOPRunCardFile),
		AnnexDir: filepath.Join(dir, AIOPAnnexSubdir),
	}, nil
}

// PipelinePath resolves the OML source file for a pipeline slug,
// under pipelines_dir. This is the file `osiris compile` reads from
// and the MCP server's oml_save tool writes to.
func (c *Contract) PipelinePath(pipelineSlug string) string {
	return c.abs(c.cfg.PipelinesDir, pipelineSlug+".oml.yaml")
}

// PipelinesRoot returns the directory every pipeline's OML source
// lives under.
func (c *Contract) PipelinesRoot() string {
	return c.abs(c.cfg.PipelinesDir)
}

// RunLogsRoot returns the directory under which every pipeline's
// run-log directories live. Used by the retention engine to walk the
// whole tree rather than one run's identity.
func (c *Contract) RunLogsRoot() string {
	return c.abs(c.cfg.RunLogsDir)
}

// AIOPRoot returns the directory under which every pipeline's AIOP
// exports live.
func (c *Contract) AIOPRoot() string {
	return c.abs(c.cfg.AIOPDir)
}

// RetentionConfig returns the filesystem-contract retention policy
// (run-log age, AIOP cores kept per pipeline, annex shard age).
func (c *Contract) RetentionConfig() RetentionConfig {
	return c.cfg.Retention
}

// SessionPath resolves the memory file for one MCP session id, under
// sessions_dir. memory_capture is the only writer.
func (c *Contract) SessionPath(sessionID string) string {
	return c.abs(c.cfg.SessionsDir, sessionID+".jsonl")
}

// SessionsRoot returns the directory every session's captured memory
// lives under.
func (c *Contract) SessionsRoot() string {
	return c.abs(c.cfg.SessionsDir)
}

// IndexPaths resolves the process-wide index locations. These do not
// depend on pipeline/profile/run identity.
func (c *Contract) IndexPaths() IndexPaths {
	return IndexPaths{
		RunsJSONL:     c.abs(c.cfg.IndexDir, "runs.jsonl"),
		ByPipelineDir: c.abs(c.cfg.IndexDir, "by_pipeline"),
		LatestDir:     c.abs(c.cfg.IndexDir, "latest"),
		LastCompile:   c.abs(c.cfg.IndexDir, "last_compile.txt"),
		CountersDB:    c.abs(c.cfg.IndexDir, "counters.sqlite"),
	}
}

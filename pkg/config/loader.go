package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/keboola/osiris/pkg/fsx"
)

// osirisYAMLConfig mirrors the on-disk osiris.yaml structure (§316 of
// the filesystem/config spec). Pointer fields distinguish "absent from
// YAML" from "zero value", so merge-over-defaults only overrides what
// the user actually set.
type osirisYAMLConfig struct {
	Filesystem *fsx.Config      `yaml:"filesystem"`
	IDs        *IDsConfig       `yaml:"ids"`
	AIOP       *AIOPConfig      `yaml:"aiop"`
	Execution  *ExecutionConfig `yaml:"execution"`
}

// Initialize loads osiris.yaml from configPath, merges it over the
// built-in defaults, and returns a ready-to-use Config.
//
// Steps:
//  1. Read osiris.yaml (missing file is not an error — pure defaults).
//  2. Parse YAML.
//  3. Merge onto Default(basePath) with mergo (user overrides default).
//  4. Apply explicit OSIRIS_* environment overrides (§A of the
//     expanded ambient stack — never ${VAR} template substitution,
//     which belongs exclusively to pkg/connection).
//  5. Validate.
func Initialize(configPath, basePath string) (*Config, error) {
	log := slog.With("config_path", configPath)

	raw, err := loadYAML(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		configPath: configPath,
		Filesystem: fsx.Default(basePath),
		IDs: IDsConfig{
			RunIDFormat:      []fsx.RunIDFormat{fsx.RunIDFormatIncremental, fsx.RunIDFormatULID},
			ManifestHashAlgo: "sha256_slug",
		},
		AIOP:      *DefaultAIOPConfig(),
		Execution: *DefaultExecutionConfig(),
	}

	if raw.Filesystem != nil {
		if err := mergo.Merge(&cfg.Filesystem, raw.Filesystem, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge filesystem config: %w", err)
		}
	}
	if raw.IDs != nil {
		if err := mergo.Merge(&cfg.IDs, raw.IDs, mergo.WithOverride, mergo.WithOverrideEmptySlice); err != nil {
			return nil, fmt.Errorf("failed to merge ids config: %w", err)
		}
	}
	if raw.AIOP != nil {
		if err := mergo.Merge(&cfg.AIOP, raw.AIOP, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge aiop config: %w", err)
		}
	}
	if raw.Execution != nil {
		if err := mergo.Merge(&cfg.Execution, raw.Execution, mergo.WithOverride, mergo.WithOverrideEmptySlice); err != nil {
			return nil, fmt.Errorf("failed to merge execution config: %w", err)
		}
	}

	// mergo skips zero-valued source fields, so an explicit false or 0
	// in osiris.yaml would be lost; decoding the file once more over the
	// merged result lets every value the user wrote win.
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"base_path", cfg.Filesystem.BasePath,
		"aiop_enabled", cfg.AIOP.Enabled,
		"profiles_enabled", cfg.Filesystem.Profiles.Enabled)

	return cfg, nil
}

func loadYAML(path string) (*osirisYAMLConfig, error) {
	cfg := &osirisYAMLConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, NewLoadError(path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return cfg, nil
}

// envPrefix is the only form of environment-variable coupling the
// core config loader performs: explicit OSIRIS_<PATH> overrides for a
// fixed set of fields. Arbitrary ${VAR} template substitution inside
// connection config is handled exclusively by pkg/connection, invoked
// only from CLI subprocesses (§4.11 security invariant).
const envPrefix = "OSIRIS_"

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnv("BASE_PATH"); ok {
		cfg.Filesystem.BasePath = v
	}
	if v, ok := lookupEnv("PROFILE"); ok {
		cfg.Filesystem.Profiles.Default = v
	}
	if v, ok := lookupEnv("AIOP_ENABLED"); ok {
		cfg.AIOP.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v, ok := lookupEnv("EXECUTION_ENGINE"); ok {
		cfg.Execution.Engine = ExecutionEngine(v)
	}
}

func lookupEnv(suffix string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + suffix)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// validate performs startup-time validation of the merged config,
// returning a *fsx.ConfigError wrapped with the CONFIG error family on
// the first failure (§7: CONFIG failures are fatal at startup).
func validate(cfg *Config) error {
	if _, err := fsx.New(cfg.Filesystem); err != nil {
		return err
	}
	if cfg.AIOP.MaxCoreBytes <= 0 {
		return NewValidationError("aiop", "max_core_bytes", "", ErrInvalidValue)
	}
	if cfg.AIOP.MetricsTopK < 0 {
		return NewValidationError("aiop", "metrics_topk", "", ErrInvalidValue)
	}
	switch cfg.AIOP.TimelineDensity {
	case TimelineDensityLow, TimelineDensityMedium, TimelineDensityHigh:
	default:
		return NewValidationError("aiop", "timeline_density", "", ErrInvalidValue)
	}
	switch cfg.AIOP.SchemaMode {
	case SchemaModeSummary, SchemaModeDetailed:
	default:
		return NewValidationError("aiop", "schema_mode", "", ErrInvalidValue)
	}
	switch cfg.AIOP.Annex.Compress {
	case AnnexCompressNone, AnnexCompressGzip:
	case AnnexCompressZstd:
		return NewValidationError("aiop", "annex.compress", "", fmt.Errorf("%w: zstd annex compression has no wired codec", ErrInvalidValue))
	default:
		return NewValidationError("aiop", "annex.compress", "", ErrInvalidValue)
	}
	if len(cfg.IDs.RunIDFormat) == 0 {
		return NewValidationError("ids", "run_id_format", "", ErrMissingRequiredField)
	}
	switch cfg.Execution.Engine {
	case ExecutionEngineLocal, ExecutionEngineRemote:
	default:
		return NewValidationError("execution", "engine", "", ErrInvalidValue)
	}
	if cfg.Execution.StepTimeoutSeconds <= 0 {
		return NewValidationError("execution", "step_timeout_seconds", "", ErrInvalidValue)
	}
	if cfg.Execution.Engine == ExecutionEngineRemote && len(cfg.Execution.Remote.WorkerCmd) == 0 {
		return NewValidationError("execution", "remote.worker_cmd", "", ErrMissingRequiredField)
	}
	return nil
}

// DefaultConfigPath returns the conventional osiris.yaml location
// under dir (typically the current working directory).
func DefaultConfigPath(dir string) string {
	return filepath.Join(dir, "osiris.yaml")
}

// Exists reports whether a config file is already present at path,
// used by `osiris init` to decide whether --force is required.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

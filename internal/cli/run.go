package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keboola/osiris/pkg/aiop"
	"github.com/keboola/osiris/pkg/clock"
	"github.com/keboola/osiris/pkg/compiler"
	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/connection"
	"github.com/keboola/osiris/pkg/exec"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/runid"
	"github.com/keboola/osiris/pkg/runindex"
	"github.com/keboola/osiris/pkg/session"
)

// newRunCommand returns "osiris run --last-compile [--profile P]
// [--engine local|e2b]" / "osiris run <manifest-or-dir>" (§6: "executes;
// creates run-log dir; appends run index record").
func newRunCommand() *cobra.Command {
	var lastCompile bool
	var profile string
	var engine string

	cmd := &cobra.Command{
		Use:   "run [manifest-or-dir]",
		Short: "Execute a compiled manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			manifestPath, pointerProfile, err := resolveManifestPath(app.Contract, lastCompile, args)
			if err != nil {
				return &CLIError{Code: ExitRun, Err: err}
			}
			resolvedProfile := profile
			if resolvedProfile == "" {
				resolvedProfile = pointerProfile
			}
			resolvedProfile, err = app.Contract.ResolveProfile(resolvedProfile)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			manifest, err := loadManifest(manifestPath)
			if err != nil {
				return &CLIError{Code: ExitRun, Err: err}
			}

			pipelineSlug := slugFromManifestPath(manifestPath)
			cfgDir := filepath.Join(filepath.Dir(manifestPath), app.Config.Filesystem.Artifacts.Cfg)

			result, err := executeManifest(cmd, app, pipelineSlug, resolvedProfile, engine, manifest, cfgDir)
			if err != nil {
				return &CLIError{Code: ExitRun, Err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session_id: %s\n", result.sessionID)
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", result.execResult.Status)
			if result.aiop != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "aiop_core: %s\n", result.aiop.CorePath)
			}
			if result.execResult.Status != exec.StatusCompleted {
				return &CLIError{Code: ExitRun, Err: fmt.Errorf("run %s: %s", result.execResult.Status, result.execResult.FailedStep)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&lastCompile, "last-compile", false, "run the most recently compiled manifest")
	cmd.Flags().StringVar(&profile, "profile", "", "profile label (default: the manifest's own compiled profile)")
	cmd.Flags().StringVar(&engine, "engine", "", "execution engine: local or e2b (default: execution.engine from osiris.yaml)")
	return cmd
}

// resolveManifestPath picks the manifest.yaml path to run: either the
// process-wide last_compile.txt pointer, or a user-supplied manifest
// file or build-artifact directory.
func resolveManifestPath(contract *fsx.Contract, lastCompile bool, args []string) (path, profile string, err error) {
	if lastCompile {
		pointer, err := runindex.LastCompile(contract)
		if err != nil {
			return "", "", err
		}
		return pointer.ManifestPath, pointer.Profile, nil
	}
	if len(args) == 0 {
		return "", "", fmt.Errorf("either --last-compile or a manifest path is required")
	}
	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return "", "", err
	}
	if info.IsDir() {
		return filepath.Join(target, "manifest.yaml"), "", nil
	}
	return target, "", nil
}

// slugFromManifestPath recovers the pipeline slug from the default
// build-artifact layout ".../<slug>/<short>-<hash>/manifest.yaml" (the
// slug is always the hash directory's parent, regardless of how many
// segments — build_dir, "pipelines", profile — precede it; see
// fsx.NamingConfig.ManifestDirTemplate). A project that customizes the
// template to omit the slug segment is out of scope for this recovery;
// such a project should prefer --last-compile, which never needs to
// parse a path back into its components.
func slugFromManifestPath(manifestPath string) string {
	hashDir := filepath.Dir(manifestPath)
	return filepath.Base(filepath.Dir(hashDir))
}

// manifestYAMLDoc mirrors compiler's own (unexported) on-disk shape,
// since manifest.yaml has no importable decoder: the compiler package
// only ever writes manifests, never reads them back, because
// compilation is the only place a Manifest is constructed in-process.
type manifestYAMLDoc struct {
	Meta          compiler.Meta     `yaml:"meta"`
	Pipeline      compiler.Pipeline `yaml:"pipeline"`
	Metadata      compiler.Metadata `yaml:"metadata"`
	ManifestHash  string            `yaml:"manifest_hash"`
	ManifestShort string            `yaml:"manifest_short"`
}

func loadManifest(path string) (*compiler.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var doc manifestYAMLDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &compiler.Manifest{
		Meta:     doc.Meta,
		Pipeline: doc.Pipeline,
		Metadata: doc.Metadata,
		Hash:     doc.ManifestHash,
		Short:    doc.ManifestShort,
	}, nil
}

// runOutcome is everything the run command reports after execution.
type runOutcome struct {
	sessionID  string
	execResult *exec.ExecutionResult
	aiop       *aiop.BuildResult
}

// executeManifest drives one full run: allocate a run id, open the
// session context, pick an adapter, execute, record the outcome in
// the run index, and export AIOP if enabled. Grounded on tarsy's
// RealSessionExecutor.Execute, which threads the same
// allocate-run-open-session-execute-record sequence end to end.
func executeManifest(cmd *cobra.Command, app *appContext, pipelineSlug, profile, engine string, manifest *compiler.Manifest, cfgDir string) (*runOutcome, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = cmd.Root().Context()
	}

	allocator, err := runid.Open(app.Contract.IndexPaths().CountersDB)
	if err != nil {
		return nil, err
	}
	defer allocator.Close()

	runID, err := allocator.Next(ctx, pipelineSlug, profile)
	if err != nil {
		return nil, err
	}

	sessionID := runid.SessionID(runID, manifest.Short)
	startMS := clock.NowMS()
	runTS := clock.RunTSIsoBasic(startMS)

	runLogPaths, err := app.Contract.RunLogPaths(pipelineSlug, profile, runTS, strconv.FormatUint(runID, 10), manifest.Short)
	if err != nil {
		return nil, err
	}

	stepComponent := make(map[string]string, len(manifest.Pipeline.Steps))
	for _, step := range manifest.Pipeline.Steps {
		stepComponent[step.ID] = step.Component
	}

	sessionCtx, err := session.New(session.Options{
		Paths:         runLogPaths,
		SessionID:     sessionID,
		PipelineSlug:  pipelineSlug,
		Profile:       profile,
		Registry:      app.Registry,
		StepComponent: stepComponent,
	})
	if err != nil {
		return nil, err
	}
	defer sessionCtx.Close()

	cancelled := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(cancelled)
	}()
	rtx := exec.NewSessionRunContext(sessionCtx, cancelled)

	opts := execOptionsFor(app.Config, app.Connections)
	adapter := adapterFor(engine, app.Config, opts)

	execResult, err := adapter.Execute(ctx, sessionID, manifest, cfgDir, rtx)
	if err != nil {
		return nil, err
	}

	endMS := clock.NowMS()
	totals := session.Totals{RowsIn: execResult.Totals.RowsIn, RowsOut: execResult.Totals.RowsOut, DurationMS: execResult.Totals.DurationMS}
	status := session.Status(execResult.Status)
	if err := sessionCtx.WriteStatus(status, totals); err != nil {
		return nil, err
	}

	record := runindex.Record{
		RunID:         runID,
		SessionID:     sessionID,
		PipelineSlug:  pipelineSlug,
		Profile:       profile,
		ManifestHash:  manifest.Hash,
		ManifestShort: manifest.Short,
		StartedAt:     clock.FormatRFC3339Milli(startMS),
		EndedAt:       clock.FormatRFC3339Milli(endMS),
		Status:        runindex.Status(execResult.Status),
		Totals:        runindex.Totals(totals),
		RunLogDir:     runLogPaths.Dir,
	}

	outcome := &runOutcome{sessionID: sessionID, execResult: execResult}

	if app.Config.AIOP.Enabled {
		aiopPaths, err := app.Contract.AIOPPaths(pipelineSlug, profile, manifest.Short, manifest.Hash, strconv.FormatUint(runID, 10))
		if err != nil {
			return nil, err
		}
		exporter := aiop.New(aiop.Options{
			Contract:      app.Contract,
			Registry:      app.Registry,
			Config:        app.Config.AIOP,
			OsirisVersion: osirisVersion,
			Env:           profile,
		})
		buildResult, err := exporter.Build(aiop.BuildInput{
			SessionID:     sessionID,
			PipelineSlug:  pipelineSlug,
			Profile:       profile,
			Manifest:      manifest,
			RunLogPaths:   runLogPaths,
			AIOPPaths:     aiopPaths,
			StepComponent: stepComponent,
			Status:        runindex.Status(execResult.Status),
			Totals:        runindex.Totals(totals),
			StartMS:       startMS,
			EndMS:         endMS,
		})
		if err != nil {
			return nil, err
		}
		outcome.aiop = buildResult
		if buildResult != nil {
			record.AIOPPath = buildResult.CorePath
		}
	}

	if err := runindex.Append(app.Contract, record); err != nil {
		return nil, err
	}

	return outcome, nil
}

// execOptionsFor builds the shared exec.Options both adapters read,
// from the merged execution config (§4.8).
func execOptionsFor(cfg *config.Config, conns *connection.Store) exec.Options {
	return exec.Options{
		Factory:        unregisteredDriverFactory{},
		Connections:    connection.Resolver{Store: conns},
		StepTimeout:    time.Duration(cfg.Execution.StepTimeoutSeconds) * time.Second,
		WorkerCmd:      cfg.Execution.Remote.WorkerCmd,
		RequestTimeout: time.Duration(cfg.Execution.Remote.RequestTimeoutSeconds) * time.Second,
		BringUpTimeout: time.Duration(cfg.Execution.Remote.BringUpTimeoutSeconds) * time.Second,
	}
}

// adapterFor selects the local or remote adapter. The --engine flag
// overrides osiris.yaml's execution.engine when set; "e2b" is §6's
// name for the remote sandboxed adapter.
func adapterFor(engineFlag string, cfg *config.Config, opts exec.Options) exec.Adapter {
	engine := string(cfg.Execution.Engine)
	if engineFlag != "" {
		engine = engineFlag
	}
	if engine == "e2b" || engine == string(config.ExecutionEngineRemote) {
		return exec.NewRemote(opts)
	}
	return exec.NewLocal(opts)
}

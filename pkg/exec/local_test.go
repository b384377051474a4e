package exec

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/compiler"
)

// fakeRunContext records every call a Driver makes so tests can assert
// on event/metric ordering without standing up a real session.Context.
type fakeRunContext struct {
	events    []map[string]any
	metrics   []map[string]any
	cancelled chan struct{}
}

func newFakeRunContext() *fakeRunContext {
	return &fakeRunContext{cancelled: make(chan struct{})}
}

func (f *fakeRunContext) LogEvent(name string, fields map[string]any) error {
	rec := map[string]any{"event": name}
	for k, v := range fields {
		rec[k] = v
	}
	f.events = append(f.events, rec)
	return nil
}

func (f *fakeRunContext) LogMetric(stepID, metric string, value float64, tags map[string]any) error {
	f.metrics = append(f.metrics, map[string]any{"step_id": stepID, "metric": metric, "value": value})
	return nil
}

func (f *fakeRunContext) ArtifactPath(stepID, name string) (string, error) {
	return filepath.Join(stepID, name), nil
}

func (f *fakeRunContext) Cancelled() <-chan struct{} { return f.cancelled }

// fakeDriver runs a canned function per call, letting each test vary
// success/failure per invocation.
type fakeDriver struct {
	run func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error)
}

func (d *fakeDriver) Run(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
	return d.run(ctx, stepID, config, inputs, rctx)
}

type fakeFactory struct {
	drivers map[string]Driver
}

func (f *fakeFactory) Driver(component string) (Driver, error) {
	d, ok := f.drivers[component]
	if !ok {
		return nil, ErrDriverNotFound
	}
	return d, nil
}

func writeStepConfig(t *testing.T, dir, stepID string, cfg map[string]any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, stepID+".json"), data, 0o644))
}

func twoStepManifest() *compiler.Manifest {
	return &compiler.Manifest{
		Pipeline: compiler.Pipeline{
			Steps: []compiler.ManifestStep{
				{ID: "extract", Component: "mysql.extractor", CfgPath: "cfg/extract.json"},
				{ID: "load", Component: "fs.writer", CfgPath: "cfg/load.json", DependsOn: []string{"extract"}},
			},
		},
	}
}

func TestLocalExecuteRunsStepsInOrderAndPropagatesOutputs(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})
	writeStepConfig(t, dir, "load", map[string]any{"path": "out.csv"})

	var seenInputs map[string]any
	factory := &fakeFactory{drivers: map[string]Driver{
		"mysql.extractor": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			return RunResult{Rows: 10, Outputs: map[string]any{"path": "/tmp/extract.csv"}}, nil
		}},
		"fs.writer": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			seenInputs = inputs
			return RunResult{Rows: 10}, nil
		}},
	}}

	adapter := NewLocal(Options{Factory: factory})
	rtx := newFakeRunContext()

	result, err := adapter.Execute(context.Background(), "sess1", twoStepManifest(), dir, rtx)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, int64(20), result.Totals.RowsOut)

	extractOutputs, ok := seenInputs["extract"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/tmp/extract.csv", extractOutputs["path"])

	assert.Equal(t, "step_start", rtx.events[0]["event"])
	assert.Equal(t, "step_complete", rtx.events[1]["event"])
}

func TestLocalExecuteFailFastStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})
	writeStepConfig(t, dir, "load", map[string]any{"path": "out.csv"})

	loadCalled := false
	factory := &fakeFactory{drivers: map[string]Driver{
		"mysql.extractor": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			return RunResult{}, &DriverError{Kind: "connection", Message: "refused"}
		}},
		"fs.writer": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			loadCalled = true
			return RunResult{}, nil
		}},
	}}

	adapter := NewLocal(Options{Factory: factory})
	rtx := newFakeRunContext()

	result, err := adapter.Execute(context.Background(), "sess1", twoStepManifest(), dir, rtx)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "extract", result.FailedStep)
	assert.False(t, loadCalled)

	var failedEvent map[string]any
	for _, e := range rtx.events {
		if e["event"] == "step_failed" {
			failedEvent = e
		}
	}
	require.NotNil(t, failedEvent)
	assert.Equal(t, "connection", failedEvent["kind"])
}

func TestLocalExecuteResolvesConnectionReference(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"connection": "@mysql.default", "table": "orders"})

	var seenConfig map[string]any
	factory := &fakeFactory{drivers: map[string]Driver{
		"mysql.extractor": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			seenConfig = config
			return RunResult{Rows: 1}, nil
		}},
	}}

	resolver := stubResolver{result: map[string]any{"host": "db.internal", "password": "hunter2"}}
	manifest := &compiler.Manifest{Pipeline: compiler.Pipeline{Steps: []compiler.ManifestStep{
		{ID: "extract", Component: "mysql.extractor", CfgPath: "cfg/extract.json"},
	}}}

	adapter := NewLocal(Options{Factory: factory, Connections: resolver})
	_, err := adapter.Execute(context.Background(), "sess1", manifest, dir, newFakeRunContext())
	require.NoError(t, err)

	connCfg, ok := seenConfig["connection"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db.internal", connCfg["host"])
	assert.Equal(t, "orders", seenConfig["table"])
}

type stubResolver struct {
	result map[string]any
	err    error
}

func (s stubResolver) ResolveToken(token string) (map[string]any, error) {
	return s.result, s.err
}

func TestLocalExecuteCancelledBeforeStep(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{})

	factory := &fakeFactory{drivers: map[string]Driver{
		"mysql.extractor": &fakeDriver{run: func(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error) {
			t.Fatal("driver must not run once cancelled")
			return RunResult{}, nil
		}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewLocal(Options{Factory: factory})
	manifest := &compiler.Manifest{Pipeline: compiler.Pipeline{Steps: []compiler.ManifestStep{
		{ID: "extract", Component: "mysql.extractor", CfgPath: "cfg/extract.json"},
	}}}

	result, err := adapter.Execute(ctx, "sess1", manifest, dir, newFakeRunContext())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, result.Status)
}

func TestCheckTopologicalOrderDetectsOutOfOrderDependency(t *testing.T) {
	steps := []compiler.ManifestStep{
		{ID: "load", DependsOn: []string{"extract"}},
		{ID: "extract"},
	}
	err := checkTopologicalOrder(steps)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

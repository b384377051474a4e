package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/registry"
)

const mysqlSpec = `
name: mysql.extractor
version: "1.0.0"
modes: [extract]
configSchema:
  type: object
  properties:
    host: {type: string}
    auth:
      type: object
      properties:
        password: {type: string}
secrets:
  - /auth/password
`

func testRunLogPaths(t *testing.T) fsx.RunLogPaths {
	t.Helper()
	contract, err := fsx.New(fsx.Default(t.TempDir()))
	require.NoError(t, err)
	paths, err := contract.RunLogPaths("orders", "dev", "20260729T100000Z", "1", "abc1234")
	require.NoError(t, err)
	return paths
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "mysql.extractor")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.yaml"), []byte(mysqlSpec), 0o644))
	reg, err := registry.Load(root)
	require.NoError(t, err)
	return reg
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := New(Options{
		Paths:         testRunLogPaths(t),
		SessionID:     "run-000001-01HZZZZZZZZZZZZZZZZZZZZZZZ-abc1234",
		PipelineSlug:  "orders",
		Profile:       "dev",
		Registry:      testRegistry(t),
		StepComponent: map[string]string{"extract_orders": "mysql.extractor"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestNewCreatesDirAndFiles(t *testing.T) {
	paths := testRunLogPaths(t)
	ctx, err := New(Options{Paths: paths, SessionID: "s1", PipelineSlug: "orders", Profile: "dev"})
	require.NoError(t, err)
	defer ctx.Close()

	assert.DirExists(t, paths.Dir)
	assert.FileExists(t, paths.Events)
	assert.FileExists(t, paths.Metrics)
	assert.FileExists(t, paths.Log)
}

func TestLogEventWritesSortedFields(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.LogEvent("step_start", map[string]any{"step_id": "extract_orders"}))

	lines := readLines(t, ctx.paths.Events)
	require.Len(t, lines, 1)
	assert.Equal(t, "step_start", lines[0]["event"])
	assert.Equal(t, "extract_orders", lines[0]["step_id"])
	assert.NotNil(t, lines[0]["ts"])
	assert.NotEmpty(t, lines[0]["session"])
}

func TestLogEventRedactsConfigBySecretPointer(t *testing.T) {
	ctx := newTestContext(t)
	err := ctx.LogEvent("step_config", map[string]any{
		"step_id": "extract_orders",
		"config": map[string]any{
			"host": "db.internal",
			"auth": map[string]any{"password": "hunter2hunter"},
		},
	})
	require.NoError(t, err)

	lines := readLines(t, ctx.paths.Events)
	require.Len(t, lines, 1)
	cfg := lines[0]["config"].(map[string]any)
	auth := cfg["auth"].(map[string]any)
	assert.Equal(t, "[REDACTED]", auth["password"])
	assert.Equal(t, "db.internal", cfg["host"])
}

func TestLogEventRedactsByDenylistRegardlessOfStep(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.LogEvent("note", map[string]any{"api_key": "abc123xyz"}))

	lines := readLines(t, ctx.paths.Events)
	assert.Equal(t, "[REDACTED]", lines[0]["api_key"])
}

func TestLogMetricWritesLine(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.LogMetric("extract_orders", "rows_written", 42, map[string]any{"batch": "1"}))

	lines := readLines(t, ctx.paths.Metrics)
	require.Len(t, lines, 1)
	assert.Equal(t, "rows_written", lines[0]["metric"])
	assert.Equal(t, float64(42), lines[0]["value"])
	assert.Equal(t, "extract_orders", lines[0]["step_id"])
}

func TestArtifactPathCreatesDirLazily(t *testing.T) {
	ctx := newTestContext(t)
	path, err := ctx.ArtifactPath("extract_orders", "sample.csv")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Dir(path))
	assert.Equal(t, "sample.csv", filepath.Base(path))

	// second call for the same step is a no-op, not an error
	_, err = ctx.ArtifactPath("extract_orders", "other.csv")
	require.NoError(t, err)
}

func TestWriteStatusAtomicReplace(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.WriteStatus(StatusCompleted, Totals{RowsOut: 10, DurationMS: 500}))

	data, err := os.ReadFile(ctx.paths.Status)
	require.NoError(t, err)
	var doc StatusDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, StatusCompleted, doc.Status)
	assert.Equal(t, int64(10), doc.Totals.RowsOut)
}

func TestCloseEmitsRunEndAndIsIdempotent(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.LogEvent("step_start", nil))
	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close()) // idempotent

	lines := readLines(t, ctx.paths.Events)
	require.Len(t, lines, 2)
	assert.Equal(t, "run_end", lines[1]["event"])
}

func TestOperationsAfterCloseFail(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.Close())

	assert.ErrorIs(t, ctx.LogEvent("x", nil), ErrClosed)
	assert.ErrorIs(t, ctx.LogMetric("s", "m", 1, nil), ErrClosed)
	_, err := ctx.ArtifactPath("s", "f")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, ctx.WriteStatus(StatusFailed, Totals{}), ErrClosed)
}

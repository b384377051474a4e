package exec

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/compiler"
)

// TestHelperProcess is not a real test: it is re-executed as a
// subprocess standing in for the proxy worker, the same
// self-exec-the-test-binary idiom os/exec's own tests use for a fake
// child process. It is gated on an env var so `go test` running
// normally never enters this branch.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("OSIRIS_EXEC_TEST_HELPER") != "1" {
		return
	}
	runFakeWorker(os.Getenv("OSIRIS_EXEC_TEST_SCENARIO"))
	os.Exit(0)
}

func fakeWorkerCommand(scenario string) []string {
	return []string{os.Args[0], "-test.run=TestHelperProcess"}
}

func fakeWorkerEnv(scenario string) []string {
	return append(os.Environ(),
		"OSIRIS_EXEC_TEST_HELPER=1",
		"OSIRIS_EXEC_TEST_SCENARIO="+scenario,
	)
}

// runFakeWorker plays a scripted worker for one of a handful of test
// scenarios: it never parses exec_step's config, only step_id, which
// is all the host-side protocol plumbing needs to exercise.
func runFakeWorker(scenario string) {
	out := bufio.NewWriter(os.Stdout)
	emit := func(v any) {
		data, _ := json.Marshal(v)
		out.Write(data)
		out.WriteByte('\n')
		out.Flush()
	}

	switch scenario {
	case "no_ready":
		time.Sleep(time.Second)
		return
	case "crash_before_ready":
		return
	}

	emit(workerMessage{Type: msgTypeReady})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var cmd workerCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}
		switch cmd.Cmd {
		case "exec_step":
			switch scenario {
			case "crash_mid_step":
				return
			case "fail_step":
				emit(workerMessage{Type: msgTypeError, StepID: cmd.StepID, Kind: "driver", Message: "boom"})
			default:
				emit(workerMessage{Type: msgTypeEvent, Name: "row_read", Data: map[string]any{"n": 1}})
				emit(workerMessage{Type: msgTypeMetric, StepID: cmd.StepID, Name: "row_count", Value: 5})
				emit(workerMessage{Type: msgTypeStepComplete, StepID: cmd.StepID, Rows: 5, DurationMS: 3})
			}
		case "cleanup":
			return
		}
	}
}

func oneStepManifest() *compiler.Manifest {
	return &compiler.Manifest{Pipeline: compiler.Pipeline{Steps: []compiler.ManifestStep{
		{ID: "extract", Component: "mysql.extractor", CfgPath: "cfg/extract.json"},
	}}}
}

func newRemoteAdapterForTest(scenario string) *RemoteAdapter {
	return &RemoteAdapter{opts: Options{
		WorkerCmd:      fakeWorkerCommand(scenario),
		BringUpTimeout: 2 * time.Second,
		RequestTimeout: 2 * time.Second,
	}}
}

// withHelperEnv runs fn with the scenario env vars set for the
// duration of the call, via t.Setenv so they're cleared afterward.
// fakeWorkerCommand's argv re-execs this same test binary, which reads
// these vars in TestHelperProcess to decide which script to play.
func withHelperEnv(t *testing.T, scenario string, fn func()) {
	t.Helper()
	t.Setenv("OSIRIS_EXEC_TEST_HELPER", "1")
	t.Setenv("OSIRIS_EXEC_TEST_SCENARIO", scenario)
	fn()
}

func TestRemoteExecuteHappyPath(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})

	withHelperEnv(t, "happy", func() {
		adapter := newRemoteAdapterForTest("happy")
		rtx := newFakeRunContext()

		result, err := adapter.Execute(context.Background(), "sess1", oneStepManifest(), dir, rtx)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, int64(5), result.Totals.RowsOut)
		assert.Equal(t, int64(3), result.Totals.DurationMS)
		assert.Len(t, rtx.metrics, 1)
		assert.Equal(t, "row_count", rtx.metrics[0]["metric"])
	})
}

func TestRemoteExecuteStepError(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})

	withHelperEnv(t, "fail_step", func() {
		adapter := newRemoteAdapterForTest("fail_step")
		rtx := newFakeRunContext()

		result, err := adapter.Execute(context.Background(), "sess1", oneStepManifest(), dir, rtx)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.Equal(t, "extract", result.FailedStep)
	})
}

func TestRemoteExecuteWorkerCrashMidStep(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})

	withHelperEnv(t, "crash_mid_step", func() {
		adapter := newRemoteAdapterForTest("crash_mid_step")
		rtx := newFakeRunContext()

		result, err := adapter.Execute(context.Background(), "sess1", oneStepManifest(), dir, rtx)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.ErrorIs(t, result.Err, ErrRemoteCrashed)
	})
}

func TestRemoteExecuteWorkerCrashBeforeReady(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})

	withHelperEnv(t, "crash_before_ready", func() {
		adapter := newRemoteAdapterForTest("crash_before_ready")
		rtx := newFakeRunContext()

		result, err := adapter.Execute(context.Background(), "sess1", oneStepManifest(), dir, rtx)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.ErrorIs(t, result.Err, ErrSandboxUnavailable)
	})
}

func TestRemoteExecuteSandboxUnavailable(t *testing.T) {
	dir := t.TempDir()
	writeStepConfig(t, dir, "extract", map[string]any{"table": "orders"})

	withHelperEnv(t, "no_ready", func() {
		adapter := &RemoteAdapter{opts: Options{
			WorkerCmd:      fakeWorkerCommand("no_ready"),
			BringUpTimeout: 200 * time.Millisecond,
			RequestTimeout: time.Second,
		}}
		rtx := newFakeRunContext()

		result, err := adapter.Execute(context.Background(), "sess1", oneStepManifest(), dir, rtx)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.ErrorIs(t, result.Err, ErrSandboxUnavailable)
	})
}

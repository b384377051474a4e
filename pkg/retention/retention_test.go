package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/fsx"
)

func newTestContract(t *testing.T, cfg fsx.Config) *fsx.Contract {
	t.Helper()
	c, err := fsx.New(cfg)
	require.NoError(t, err)
	return c
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestPlanRunLogsDeletesOldDirs(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.RunLogsDays = 30
	contract := newTestContract(t, cfg)

	oldRun := filepath.Join(contract.RunLogsRoot(), "dev", "orders-etl", "20260101T000000Z_000001-abc1234")
	newRun := filepath.Join(contract.RunLogsRoot(), "dev", "orders-etl", "20260729T000000Z_000002-abc1234")
	touch(t, filepath.Join(oldRun, "events.jsonl"))
	touch(t, filepath.Join(newRun, "events.jsonl"))
	backdate(t, oldRun, 60*24*time.Hour)

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)

	require.Len(t, plan.RunLogs, 1)
	assert.Equal(t, oldRun, plan.RunLogs[0].Path)
	assert.Equal(t, ActionDeleteDir, plan.RunLogs[0].Kind)
}

func TestPlanRunLogsDisabledWhenDaysZero(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.RunLogsDays = 0
	contract := newTestContract(t, cfg)

	oldRun := filepath.Join(contract.RunLogsRoot(), "dev", "orders-etl", "20260101T000000Z_000001-abc1234")
	touch(t, filepath.Join(oldRun, "events.jsonl"))
	backdate(t, oldRun, 365*24*time.Hour)

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)
	assert.Empty(t, plan.RunLogs)
}

func TestPlanAIOPKeepsNewestPerPipeline(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.AIOPKeepRunsPerPipeline = 2
	cfg.Retention.AnnexKeepDays = 0
	contract := newTestContract(t, cfg)

	root := contract.AIOPRoot()
	run1 := filepath.Join(root, "dev", "orders-etl", "abc1234-deadbeef", "000001")
	run2 := filepath.Join(root, "dev", "orders-etl", "abc1234-deadbeef", "000002")
	run3 := filepath.Join(root, "dev", "orders-etl", "abc1234-deadbeef", "000003")
	for i, dir := range []string{run1, run2, run3} {
		touch(t, filepath.Join(dir, fsx.AIOPCoreFile))
		backdate(t, dir, time.Duration(10-i)*time.Hour)
	}

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)

	require.Len(t, plan.AIOP, 1)
	assert.Equal(t, run1, plan.AIOP[0].Path)
}

func TestPlanAnnexDeletesOldShardsUnderKeptRuns(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.AIOPKeepRunsPerPipeline = 10
	cfg.Retention.AnnexKeepDays = 7
	contract := newTestContract(t, cfg)

	run := filepath.Join(contract.AIOPRoot(), "dev", "orders-etl", "abc1234-deadbeef", "000001")
	touch(t, filepath.Join(run, fsx.AIOPCoreFile))

	oldShard := filepath.Join(run, fsx.AIOPAnnexSubdir, "timeline-1.jsonl")
	newShard := filepath.Join(run, fsx.AIOPAnnexSubdir, "timeline-2.jsonl")
	touch(t, oldShard)
	touch(t, newShard)
	backdate(t, oldShard, 30*24*time.Hour)

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)

	require.Len(t, plan.Annex, 1)
	assert.Equal(t, oldShard, plan.Annex[0].Path)
	assert.Equal(t, ActionDeleteFile, plan.Annex[0].Kind)
}

func TestPlanSkipsSymlinks(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.RunLogsDays = 1
	contract := newTestContract(t, cfg)

	outside := t.TempDir()
	outsideRun := filepath.Join(outside, "escaped-run")
	touch(t, filepath.Join(outsideRun, "events.jsonl"))
	backdate(t, outsideRun, 365*24*time.Hour)

	profileDir := filepath.Join(contract.RunLogsRoot(), "dev", "orders-etl")
	require.NoError(t, os.MkdirAll(profileDir, 0o755))
	require.NoError(t, os.Symlink(outsideRun, filepath.Join(profileDir, "escaped-run")))

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)
	assert.Empty(t, plan.RunLogs)
}

func TestApplyThenPlanIsIdempotent(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	cfg.Retention.RunLogsDays = 30
	contract := newTestContract(t, cfg)

	oldRun := filepath.Join(contract.RunLogsRoot(), "dev", "orders-etl", "20260101T000000Z_000001-abc1234")
	touch(t, filepath.Join(oldRun, "events.jsonl"))
	backdate(t, oldRun, 60*24*time.Hour)

	engine := New(contract)
	plan, err := engine.Plan(time.Now())
	require.NoError(t, err)
	require.False(t, plan.Empty())

	report := engine.Apply(plan)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Failed)
	assert.NoDirExists(t, oldRun)

	plan2, err := engine.Plan(time.Now())
	require.NoError(t, err)
	assert.True(t, plan2.Empty())
}

func TestApplyCountsAlreadyRemovedPathAsApplied(t *testing.T) {
	base := t.TempDir()
	cfg := fsx.Default(base)
	contract := newTestContract(t, cfg)
	engine := New(contract)

	plan := Plan{RunLogs: []Action{
		{Kind: ActionDeleteDir, Path: filepath.Join(base, "does-not-exist-but-removeall-is-noop")},
	}}
	report := engine.Apply(plan)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Failed)
}

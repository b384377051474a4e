package runindex

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/fsx"
)

func testContract(t *testing.T) *fsx.Contract {
	t.Helper()
	c, err := fsx.New(fsx.Default(t.TempDir()))
	require.NoError(t, err)
	return c
}

func sampleRecord(sessionID, status string, startedAt string) Record {
	return Record{
		RunID:         1,
		SessionID:     sessionID,
		PipelineSlug:  "orders",
		Profile:       "dev",
		ManifestHash:  "deadbeef",
		ManifestShort: "deadbee",
		StartedAt:     startedAt,
		EndedAt:       startedAt,
		Status:        Status(status),
		RunLogDir:     "/run_logs/dev/orders/x",
	}
}

func TestAppendWritesBothFiles(t *testing.T) {
	contract := testContract(t)
	rec := sampleRecord("sess-1", "completed", "2026-07-29T10:00:00.000Z")

	require.NoError(t, Append(contract, rec))

	all, err := List(contract, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, rec.SessionID, all[0].SessionID)

	prev, err := FindPreviousCompleted(contract, "orders", "", "sess-other")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "sess-1", prev.SessionID)
}

func TestListAppliesFilters(t *testing.T) {
	contract := testContract(t)
	require.NoError(t, Append(contract, sampleRecord("s1", "completed", "2026-07-29T10:00:00.000Z")))
	require.NoError(t, Append(contract, sampleRecord("s2", "failed", "2026-07-29T11:00:00.000Z")))

	completed, err := List(contract, Filter{Status: StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "s1", completed[0].SessionID)

	failed, err := List(contract, Filter{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "s2", failed[0].SessionID)
}

func TestListLimit(t *testing.T) {
	contract := testContract(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, Append(contract, sampleRecord("s", "completed", "2026-07-29T10:00:00.000Z")))
	}
	limited, err := List(contract, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFindPreviousCompletedExcludesCurrentSession(t *testing.T) {
	contract := testContract(t)
	require.NoError(t, Append(contract, sampleRecord("sess-1", "completed", "2026-07-29T10:00:00.000Z")))

	prev, err := FindPreviousCompleted(contract, "orders", "", "sess-1")
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestFindPreviousCompletedPicksGreatestStartedAt(t *testing.T) {
	contract := testContract(t)
	require.NoError(t, Append(contract, sampleRecord("older", "completed", "2026-07-29T09:00:00.000Z")))
	require.NoError(t, Append(contract, sampleRecord("newer", "completed", "2026-07-29T11:00:00.000Z")))
	require.NoError(t, Append(contract, sampleRecord("failed-run", "failed", "2026-07-29T12:00:00.000Z")))

	prev, err := FindPreviousCompleted(contract, "orders", "", "someone-else")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "newer", prev.SessionID)
}

func TestFindPreviousCompletedNoQualifyingRun(t *testing.T) {
	contract := testContract(t)
	prev, err := FindPreviousCompleted(contract, "orders", "", "sess-1")
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestLatestPointerNotFound(t *testing.T) {
	contract := testContract(t)
	_, err := Latest(contract, "orders")
	assert.ErrorIs(t, err, ErrPointerNotFound)
}

func TestLatestPointerRoundTrip(t *testing.T) {
	contract := testContract(t)
	paths := contract.IndexPaths()
	require.NoError(t, fsx.EnsureDir(paths.LatestDir))

	content := []byte("/build/pipelines/dev/orders/abc1234-deadbeef/manifest.yaml\ndeadbeef\ndev\n")
	require.NoError(t, os.WriteFile(paths.LatestDir+"/orders.txt", content, 0o644))

	ptr, err := Latest(contract, "orders")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", ptr.ManifestHash)
	assert.Equal(t, "dev", ptr.Profile)
}

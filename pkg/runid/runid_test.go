package runid

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counters.sqlite")
	a, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNextStartsAtOne(t *testing.T) {
	a := openTestAllocator(t)
	id, err := a.Next(context.Background(), "orders", "dev")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestNextIsMonotonicPerKey(t *testing.T) {
	a := openTestAllocator(t)
	ctx := context.Background()

	id1, err := a.Next(ctx, "orders", "dev")
	require.NoError(t, err)
	id2, err := a.Next(ctx, "orders", "dev")
	require.NoError(t, err)
	id3, err := a.Next(ctx, "orders", "dev")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)
	assert.Equal(t, uint64(3), id3)
}

func TestNextIsIndependentPerProfile(t *testing.T) {
	a := openTestAllocator(t)
	ctx := context.Background()

	devID, err := a.Next(ctx, "orders", "dev")
	require.NoError(t, err)
	prodID, err := a.Next(ctx, "orders", "prod")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), devID)
	assert.Equal(t, uint64(1), prodID)
}

func TestNextConcurrentCallsProduceNoGapsNoDuplicates(t *testing.T) {
	a := openTestAllocator(t)
	ctx := context.Background()

	const n = 20
	results := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := a.Next(ctx, "orders", "dev")
			require.NoError(t, err)
			results[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range results {
		assert.False(t, seen[id], "duplicate run_id %d", id)
		seen[id] = true
		assert.GreaterOrEqual(t, id, uint64(1))
		assert.LessOrEqual(t, id, uint64(n))
	}
	assert.Len(t, seen, n)
}

func TestULIDLength(t *testing.T) {
	id := ULID()
	assert.Len(t, id, 26)
}

func TestULIDMonotonicWithinProcess(t *testing.T) {
	a := ULID()
	b := ULID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestSessionIDFormat(t *testing.T) {
	sid := SessionID(42, "abc1234")
	assert.Regexp(t, `^run-000042-[0-9A-Z]{26}-abc1234$`, sid)
}

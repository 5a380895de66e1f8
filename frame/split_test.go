package frame

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intFrame(t *testing.T, n int) *Frame {
	t.Helper()
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		rows[i] = []any{int64(i)}
	}
	f, err := New(Schema{{Name: "id", Type: Int64Type}}, rows)
	require.NoError(t, err)
	return f
}

func rowIDs(f *Frame) map[int64]bool {
	ids := make(map[int64]bool)
	for _, row := range f.Rows {
		ids[row[0].(int64)] = true
	}
	return ids
}

func TestSplitPartitionsAreDisjointAndComplete(t *testing.T) {
	const n = 100
	for _, ratio := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		t.Run(fmt.Sprintf("ratio=%v", ratio), func(t *testing.T) {
			store := NewMemStore()
			parts, err := Split(intFrame(t, n), ratio, store)
			require.NoError(t, err)
			require.Len(t, parts, 2)

			train, valid := parts[0].Frame, parts[1].Frame
			assert.Equal(t, n, train.NumRows()+valid.NumRows())

			trainIDs := rowIDs(train)
			for id := range rowIDs(valid) {
				assert.False(t, trainIDs[id], "row %d appears in both partitions", id)
			}

			// Both partitions are published before Split returns.
			for _, p := range parts {
				got, err := store.Get(p.Key)
				require.NoError(t, err)
				assert.Same(t, p.Frame, got)
			}
		})
	}
}

func TestSplitSinglePartitionAtFullRatio(t *testing.T) {
	store := NewMemStore()
	parts, err := Split(intFrame(t, 10), 1.0, store)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 10, parts[0].Frame.NumRows())
}

func TestSplitSinglePartitionWhenRoundingConsumesAllRows(t *testing.T) {
	// round(0.99*10) == 10: the rule yields one non-empty subset, so only
	// the train handle is returned.
	store := NewMemStore()
	parts, err := Split(intFrame(t, 10), 0.99, store)
	require.NoError(t, err)
	assert.Len(t, parts, 1)
}

func TestSplitIsDeterministic(t *testing.T) {
	a, err := Split(intFrame(t, 20), 0.7, NewMemStore())
	require.NoError(t, err)
	b, err := Split(intFrame(t, 20), 0.7, NewMemStore())
	require.NoError(t, err)

	assert.Equal(t, a[0].Frame.Rows, b[0].Frame.Rows)
	assert.Equal(t, a[1].Frame.Rows, b[1].Frame.Rows)
}

func TestSplitRejectsBadRatio(t *testing.T) {
	store := NewMemStore()
	for _, ratio := range []float64{0, -0.5, 1.5} {
		_, err := Split(intFrame(t, 5), ratio, store)
		assert.Error(t, err, "ratio %v must be rejected", ratio)
	}
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	f := intFrame(t, 3)

	require.NoError(t, store.Put("k", f))
	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, 1, store.Len())

	// Puts are idempotent replacements.
	require.NoError(t, store.Put("k", f))
	assert.Equal(t, 1, store.Len())

	_, err = store.Get("missing")
	assert.Error(t, err)
	assert.Error(t, store.Put("", f))
}

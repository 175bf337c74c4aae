package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func vec(dims int, lead float32) []float32 {
	v := make([]float32, dims)
	v[0] = lead
	return v
}

func TestAddBatchIdempotentOnKey(t *testing.T) {
	idx, err := Open("", 4, zap.NewNop(), nil)
	require.NoError(t, err)

	ids1, err := idx.AddBatch([]Entry{{Key: "a", Embedding: vec(4, 1)}})
	require.NoError(t, err)

	ids2, err := idx.AddBatch([]Entry{{Key: "a", Embedding: vec(4, 99)}})
	require.NoError(t, err)

	assert.Equal(t, ids1, ids2, "re-adding an existing key must reuse its id")
	assert.Equal(t, 1, idx.Len())
}

func TestSearchReturnsClosestFirst(t *testing.T) {
	idx, err := Open("", 2, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = idx.AddBatch([]Entry{
		{Key: "near", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{"uri": "http://synapse.os/near"}},
		{Key: "far", Embedding: []float32{10, 0}, Metadata: map[string]interface{}{"uri": "http://synapse.os/far"}},
	})
	require.NoError(t, err)

	results := idx.Search(context.Background(), []float32{1.1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Key)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRemoveThenCompact(t *testing.T) {
	idx, err := Open("", 2, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = idx.AddBatch([]Entry{
		{Key: "a", Embedding: []float32{1, 0}},
		{Key: "b", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	assert.True(t, idx.Remove("a"))
	assert.False(t, idx.Remove("a"), "second remove of the same key is a no-op")

	active, stale, total := idx.Stats()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, stale)
	assert.Equal(t, 2, total)

	removed, err := idx.Compact()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, _, total = idx.Stats()
	assert.Equal(t, 1, total)
}

func TestCompactRefusesWhenLiveSetEmptyButCatalogueNot(t *testing.T) {
	idx, err := Open("", 2, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = idx.AddBatch([]Entry{
		{Key: "a", Embedding: []float32{1, 0}},
		{Key: "b", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	assert.True(t, idx.Remove("a"))
	assert.True(t, idx.Remove("b"))

	_, _, total := idx.Stats()
	require.Equal(t, 2, total, "removed entries stay in the catalogue until compact")

	removed, err := idx.Compact()
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "compact must refuse to run against an empty live set")

	_, _, total = idx.Stats()
	assert.Equal(t, 2, total, "catalogue must be untouched by the refused compact")
}

func TestAddBatchRejectsWrongDimension(t *testing.T) {
	idx, err := Open("", 4, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = idx.AddBatch([]Entry{{Key: "bad", Embedding: []float32{1, 2}}})
	assert.Error(t, err)
}

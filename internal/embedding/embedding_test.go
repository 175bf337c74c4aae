package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder("", 384, zap.NewNop())

	a, err := e.Embed("the quick brown fox")
	require.NoError(t, err)
	b, err := e.Embed("the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, a, b, "same text must produce the same vector")
	assert.Len(t, a, 384)
}

func TestLocalEmbedderDistinguishesText(t *testing.T) {
	e := NewLocalEmbedder("", 384, zap.NewNop())

	a, _ := e.Embed("alpha")
	b, _ := e.Embed("beta")

	assert.NotEqual(t, a, b)
}

func TestMockEmbedderZeroVector(t *testing.T) {
	e := NewMockEmbedder(16)
	vec, err := e.Embed("anything")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 0.0001)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001)
	assert.Equal(t, float32(0), CosineSimilarity([]float32{1}, []float32{1, 2}))
}

func TestNewSelectsProvider(t *testing.T) {
	e, err := New(Config{Provider: "mock", Dim: 8}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 8, e.Dim())

	_, err = New(Config{Provider: "remote"}, zap.NewNop())
	assert.Error(t, err, "remote provider requires an API URL")

	_, err = New(Config{Provider: "bogus"}, zap.NewNop())
	assert.Error(t, err)
}

package hybridstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synapseos/hybridstore/internal/embedding"
	"github.com/synapseos/hybridstore/internal/quadstore"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T, emb embedding.Embedder) *Store {
	t.Helper()
	if emb == nil {
		emb = embedding.NewLocalEmbedder("", 32, zap.NewNop())
	}
	s, err := Open(t.TempDir(), 32, emb, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestAddsQuadAndVector(t *testing.T) {
	s := openTestStore(t, nil)

	added, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "alice", Predicate: "knows", Object: "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, s.Quads.Len())
	assert.Equal(t, 1, s.Vectors.Len())
}

func TestIngestDedupe(t *testing.T) {
	s := openTestStore(t, nil)

	triples := []quadstore.IngestTriple{{Subject: "alice", Predicate: "knows", Object: "bob"}}

	added, err := s.Ingest(triples)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = s.Ingest(triples)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "re-ingesting the same triple adds nothing")
}

func TestIngestProvenanceCreatesBatchGraph(t *testing.T) {
	s := openTestStore(t, nil)

	prov := &quadstore.Provenance{Source: "crawler", Timestamp: "2026-01-01T00:00:00Z", Method: "http"}
	_, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "alice", Predicate: "knows", Object: "bob", Provenance: prov},
	})
	require.NoError(t, err)

	quads := s.Quads.Iter()
	var contentGraph string
	provenanceTriples := 0
	for _, q := range quads {
		if q.Predicate.Value == "http://synapse.os/knows" {
			contentGraph = q.Graph
		}
		if strings.HasPrefix(q.Predicate.Value, "http://www.w3.org/ns/prov#") {
			provenanceTriples++
			assert.Equal(t, "", q.Graph, "provenance triples live in the default graph")
		}
	}
	assert.True(t, strings.HasPrefix(contentGraph, "urn:batch:"), "content triple should be graphed under urn:batch:<uuid>")
	assert.Equal(t, 3, provenanceTriples)
}

type failingEmbedder struct{ dim int }

func (f *failingEmbedder) Embed(text string) ([]float32, error) {
	return nil, errors.New("embedder unavailable")
}
func (f *failingEmbedder) EmbedBatch(texts []string) ([][]float32, error) { return nil, nil }
func (f *failingEmbedder) Dim() int                                      { return f.dim }
func (f *failingEmbedder) Close() error                                  { return nil }

func TestIngestRollsBackQuadOnEmbedFailure(t *testing.T) {
	s := openTestStore(t, &failingEmbedder{dim: 32})

	added, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "alice", Predicate: "knows", Object: "bob"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, s.Quads.Len(), "the quad must not survive a failed vector insert")
}

func TestHybridSearchNoDuplicateURIsAndMonotonicScore(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "root", Predicate: "rel", Object: "child1"},
		{Subject: "child1", Predicate: "rel", Object: "grandchild"},
		{Subject: "root", Predicate: "rel2", Object: "child1"},
	})
	require.NoError(t, err)

	results, err := s.HybridSearch(context.Background(), "root rel child1", 5, 2)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i, r := range results {
		assert.False(t, seen[r.URI], "duplicate uri %s in hybrid search results", r.URI)
		seen[r.URI] = true
		if i > 0 {
			assert.LessOrEqual(t, r.Score, results[i-1].Score, "scores must be non-increasing")
		}
	}
}

func TestNeighborsBFSDepthAndScore(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "A", Predicate: "rel", Object: "http://synapse.os/B"},
		{Subject: "A", Predicate: "rel", Object: "http://synapse.os/C"},
		{Subject: "B", Predicate: "rel", Object: "http://synapse.os/D"},
	})
	require.NoError(t, err)

	startID, err := s.URIs.GetOrCreateID("http://synapse.os/A")
	require.NoError(t, err)

	neighbors, err := s.Neighbors(startID, NeighborOptions{Direction: Outgoing, Depth: 2})
	require.NoError(t, err)

	byURI := make(map[string]Neighbor, len(neighbors))
	for _, n := range neighbors {
		byURI[n.URI] = n
	}

	b, ok := byURI["http://synapse.os/B"]
	require.True(t, ok)
	assert.Equal(t, 1, b.Depth)
	assert.InDelta(t, 1.0, b.Score, 0.0001)

	c, ok := byURI["http://synapse.os/C"]
	require.True(t, ok)
	assert.Equal(t, 1, c.Depth)

	d, ok := byURI["http://synapse.os/D"]
	require.True(t, ok)
	assert.Equal(t, 2, d.Depth)
	assert.InDelta(t, 0.5, d.Score, 0.0001)
}

func TestNeighborsLimitPerLayerBoundsWholeLayer(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "A", Predicate: "rel", Object: "http://synapse.os/B"},
		{Subject: "A", Predicate: "rel", Object: "http://synapse.os/C"},
		{Subject: "B", Predicate: "rel", Object: "http://synapse.os/D"},
		{Subject: "B", Predicate: "rel", Object: "http://synapse.os/E"},
		{Subject: "C", Predicate: "rel", Object: "http://synapse.os/F"},
		{Subject: "C", Predicate: "rel", Object: "http://synapse.os/G"},
	})
	require.NoError(t, err)

	startID, err := s.URIs.GetOrCreateID("http://synapse.os/A")
	require.NoError(t, err)

	neighbors, err := s.Neighbors(startID, NeighborOptions{
		Direction:     Outgoing,
		Depth:         2,
		LimitPerLayer: 2,
	})
	require.NoError(t, err)

	depth2 := 0
	for _, n := range neighbors {
		if n.Depth == 2 {
			depth2++
		}
	}
	// B and C each expose two depth-2 edges; a per-layer cap of 2 must bound
	// the combined total across both frontier nodes, not allow 2 per node.
	assert.Equal(t, 2, depth2, "limit_per_layer must cap the whole BFS layer, not each frontier node independently")
}

func TestDegreeDelegatesToQuadStore(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.Ingest([]quadstore.IngestTriple{
		{Subject: "A", Predicate: "rel", Object: "http://synapse.os/B"},
		{Subject: "C", Predicate: "rel", Object: "http://synapse.os/A"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Degree("http://synapse.os/A"))
}

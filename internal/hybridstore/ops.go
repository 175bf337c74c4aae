package hybridstore

import (
	"context"

	"github.com/synapseos/hybridstore/internal/quadstore"
	"github.com/synapseos/hybridstore/internal/reasoner"
	"github.com/synapseos/hybridstore/internal/vectorindex"
)

// Search embeds query and returns its nearest vector-index neighbors,
// ungraphed (the vector-only counterpart of HybridSearch). Returns nil
// when no vector index is attached.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]vectorindex.SearchResult, error) {
	if s.Vectors == nil || s.embedder == nil {
		return nil, nil
	}
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	return s.Vectors.Search(ctx, vec, limit), nil
}

// ResolveID returns the stable integer id for uri, allocating one on first
// sight.
func (s *Store) ResolveID(uri string) (uint32, error) {
	return s.URIs.GetOrCreateID(uri)
}

// GetAllTriples returns every quad currently in the store.
func (s *Store) GetAllTriples() []quadstore.Quad {
	return s.Quads.Iter()
}

// ApplyReasoning runs strategy's inference rules over the store. When
// materialize is true, derived triples are inserted (deduped against
// existing ones) and the inserted count is returned; otherwise the derived
// triples are returned without mutating the store.
func (s *Store) ApplyReasoning(strategy reasoner.Strategy, materialize bool) ([]reasoner.Inferred, int, error) {
	r := reasoner.New(strategy)
	if !materialize {
		return r.Apply(s.Quads), 0, nil
	}
	n, err := r.Materialize(s.Quads)
	return nil, n, err
}

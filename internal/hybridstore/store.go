// Package hybridstore wires a namespace's quad store, vector index and uri
// dictionary together into the one consistent unit that ingest and search
// operate on, grounded on original_source/store.rs's HybridStore.
package hybridstore

import (
	"fmt"
	"path/filepath"

	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/embedding"
	"github.com/synapseos/hybridstore/internal/quadstore"
	"github.com/synapseos/hybridstore/internal/uridict"
	"github.com/synapseos/hybridstore/internal/vectorindex"
	"go.uber.org/zap"
)

// Store is one namespace's hybrid knowledge store: an RDF quad store, an
// optional ANN vector index (absent when it failed to open or the caller
// configured none), and the uri<->id dictionary shared by both.
type Store struct {
	Namespace string

	Quads   *quadstore.Store
	Vectors *vectorindex.Index // nil disables vector operations
	URIs    *uridict.Dict

	embedder embedding.Embedder
	logger   *zap.Logger
}

// Open opens (or creates) a namespace's hybrid store rooted at dir.
// A failure constructing the vector index is non-fatal: the returned Store
// simply carries a nil Vectors, and vector-dependent operations silently
// no-op, matching the namespace manager's stated fallback behavior.
func Open(dir string, dims int, emb embedding.Embedder, hot *cache.Cache, logger *zap.Logger) (*Store, error) {
	logger = logger.Named("hybridstore")

	quads, err := quadstore.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("hybridstore: open quad store: %w", err)
	}

	uris, err := uridict.Open(dir, hot)
	if err != nil {
		quads.Close()
		return nil, fmt.Errorf("hybridstore: open uri dictionary: %w", err)
	}

	vectors, err := vectorindex.Open(filepath.Join(dir, "vectors"), dims, logger, hot)
	if err != nil {
		logger.Warn("vector index unavailable, vector operations will no-op", zap.Error(err))
		vectors = nil
	}

	return &Store{
		Quads:    quads,
		Vectors:  vectors,
		URIs:     uris,
		embedder: emb,
		logger:   logger,
	}, nil
}

// Close releases the store's underlying durable handles.
func (s *Store) Close() error {
	var firstErr error
	if err := s.Quads.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.URIs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.Vectors != nil {
		if err := s.Vectors.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// QuerySPARQL delegates to the quad store's SPARQL subset evaluator.
func (s *Store) QuerySPARQL(query string) (string, error) {
	return s.Quads.QuerySPARQL(query)
}

// Degree returns the number of quads where uri appears as subject or object.
func (s *Store) Degree(uri string) int {
	return s.Quads.Degree(uri)
}

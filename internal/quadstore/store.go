package quadstore

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/synerr"
	"go.etcd.io/bbolt"
)

var quadsBucket = []byte("quads")

// Store is a namespace's RDF quad store. All quads live in a single bbolt
// bucket for durability; pattern-scan indexes are rebuilt in memory at
// Open time and maintained incrementally thereafter, since bbolt itself
// has no notion of a secondary index.
type Store struct {
	db *bbolt.DB

	mu          sync.RWMutex
	quads       map[string]Quad
	bySubject   map[string]map[string]bool
	byPredicate map[string]map[string]bool
	byObject    map[string]map[string]bool
	byGraph     map[string]map[string]bool
}

// Open opens (creating if necessary) a bbolt-backed quad store at
// <dir>/quads.db.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "quads.db")
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", synerr.ErrStorage, path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(quadsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	s := &Store{
		db:          db,
		quads:       make(map[string]Quad),
		bySubject:   make(map[string]map[string]bool),
		byPredicate: make(map[string]map[string]bool),
		byObject:    make(map[string]map[string]bool),
		byGraph:     make(map[string]map[string]bool),
	}

	if err := s.rebuildIndexes(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) rebuildIndexes() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(quadsBucket)
		return b.ForEach(func(k, v []byte) error {
			var q Quad
			if err := jsonx.Unmarshal(v, &q); err != nil {
				return fmt.Errorf("%w: decode quad: %v", synerr.ErrStorage, err)
			}
			s.indexLocked(string(k), q)
			return nil
		})
	})
}

func encodeKey(q Quad) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s",
		q.Subject.Value, litFlag(q.Subject.IsLiteral),
		q.Predicate.Value, litFlag(q.Predicate.IsLiteral),
		q.Object.Value, litFlag(q.Object.IsLiteral),
		q.Graph)
}

func litFlag(b bool) string {
	if b {
		return "L"
	}
	return "I"
}

// indexLocked adds key/q to the in-memory pattern indexes. Caller must
// hold s.mu for writing.
func (s *Store) indexLocked(key string, q Quad) {
	s.quads[key] = q
	addToIndex(s.bySubject, q.Subject.Value, key)
	addToIndex(s.byPredicate, q.Predicate.Value, key)
	addToIndex(s.byObject, q.Object.Value, key)
	addToIndex(s.byGraph, q.Graph, key)
}

func (s *Store) unindexLocked(key string, q Quad) {
	delete(s.quads, key)
	removeFromIndex(s.bySubject, q.Subject.Value, key)
	removeFromIndex(s.byPredicate, q.Predicate.Value, key)
	removeFromIndex(s.byObject, q.Object.Value, key)
	removeFromIndex(s.byGraph, q.Graph, key)
}

func addToIndex(idx map[string]map[string]bool, field, key string) {
	set, ok := idx[field]
	if !ok {
		set = make(map[string]bool)
		idx[field] = set
	}
	set[key] = true
}

func removeFromIndex(idx map[string]map[string]bool, field, key string) {
	set, ok := idx[field]
	if !ok {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(idx, field)
	}
}

// Insert adds q to the store, returning true if it was not already present.
func (s *Store) Insert(q Quad) (bool, error) {
	key := encodeKey(q)

	s.mu.Lock()
	if _, exists := s.quads[key]; exists {
		s.mu.Unlock()
		return false, nil
	}
	s.indexLocked(key, q)
	s.mu.Unlock()

	data, err := jsonx.Marshal(q)
	if err != nil {
		return false, fmt.Errorf("%w: encode quad: %v", synerr.ErrInvalidInput, err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(quadsBucket).Put([]byte(key), data)
	}); err != nil {
		s.mu.Lock()
		s.unindexLocked(key, q)
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	return true, nil
}

// Remove deletes q from the store, returning true if it was present.
func (s *Store) Remove(q Quad) (bool, error) {
	key := encodeKey(q)

	s.mu.Lock()
	if _, exists := s.quads[key]; !exists {
		s.mu.Unlock()
		return false, nil
	}
	s.unindexLocked(key, q)
	s.mu.Unlock()

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(quadsBucket).Delete([]byte(key))
	}); err != nil {
		return false, fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	return true, nil
}

// Contains reports whether q is present.
func (s *Store) Contains(q Quad) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.quads[encodeKey(q)]
	return ok
}

// Len returns the total number of quads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quads)
}

// Pattern selects quads by optional subject/predicate/object/graph
// filters; a nil *Term or nil graph pointer is a wildcard.
type Pattern struct {
	Subject   *Term
	Predicate *Term
	Object    *Term
	Graph     *string
}

// QuadsForPattern returns all quads matching pat, choosing the smallest
// matching index to scan when at least one field is bound.
func (s *Store) QuadsForPattern(pat Pattern) []Quad {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates, scanAll := s.candidateKeysLocked(pat)

	var out []Quad
	if scanAll {
		for key, q := range s.quads {
			if matchesLocked(q, pat) {
				out = append(out, q)
			}
			_ = key
		}
		return out
	}

	for key := range candidates {
		q := s.quads[key]
		if matchesLocked(q, pat) {
			out = append(out, q)
		}
	}
	return out
}

// candidateKeysLocked returns the smallest index bucket covering at least
// one bound field of pat, or scanAll=true if no field is bound.
func (s *Store) candidateKeysLocked(pat Pattern) (map[string]bool, bool) {
	var sets []map[string]bool
	if pat.Subject != nil {
		sets = append(sets, s.bySubject[pat.Subject.Value])
	}
	if pat.Predicate != nil {
		sets = append(sets, s.byPredicate[pat.Predicate.Value])
	}
	if pat.Object != nil {
		sets = append(sets, s.byObject[pat.Object.Value])
	}
	if pat.Graph != nil {
		sets = append(sets, s.byGraph[*pat.Graph])
	}
	if len(sets) == 0 {
		return nil, true
	}

	smallest := sets[0]
	for _, set := range sets[1:] {
		if len(set) < len(smallest) {
			smallest = set
		}
	}
	return smallest, false
}

func matchesLocked(q Quad, pat Pattern) bool {
	if pat.Subject != nil && (q.Subject.Value != pat.Subject.Value || q.Subject.IsLiteral != pat.Subject.IsLiteral) {
		return false
	}
	if pat.Predicate != nil && (q.Predicate.Value != pat.Predicate.Value || q.Predicate.IsLiteral != pat.Predicate.IsLiteral) {
		return false
	}
	if pat.Object != nil && (q.Object.Value != pat.Object.Value || q.Object.IsLiteral != pat.Object.IsLiteral) {
		return false
	}
	if pat.Graph != nil && q.Graph != *pat.Graph {
		return false
	}
	return true
}

// Iter returns a snapshot slice of every quad in the store.
func (s *Store) Iter() []Quad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Quad, 0, len(s.quads))
	for _, q := range s.quads {
		out = append(out, q)
	}
	return out
}

// Degree returns the number of quads where uri appears as subject or
// object, matching original_source/store.rs::get_degree.
func (s *Store) Degree(uri string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySubject[uri]) + len(s.byObject[uri])
}

// Close releases the underlying bbolt handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package uridict provides the bijective uri<->uint32 id mapping shared by
// a namespace's quad store and vector index, backed by bbolt for
// durability with a ristretto hot-read cache in front of it.
package uridict

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/synerr"
	"go.etcd.io/bbolt"
)

var mappingsBucket = []byte("uri_mappings")

// Dict is a namespace's uri<->id dictionary. Reads use an optimistic
// read-lock-only lookup; a miss promotes to a write lock with a
// double-checked second lookup before allocating, matching
// original_source/store.rs::get_or_create_id.
type Dict struct {
	db           *bbolt.DB
	snapshotPath string

	mu      sync.RWMutex
	uriToID map[string]uint32
	idToURI map[uint32]string
	nextID  atomic.Uint32

	cache *cache.Cache
}

// Open opens (or creates) a namespace's uri dictionary at
// <dir>/uri_mappings.db. hot may be nil to disable the read cache.
func Open(dir string, hot *cache.Cache) (*Dict, error) {
	path := filepath.Join(dir, "uri_mappings.db")
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", synerr.ErrStorage, path, err)
	}

	d := &Dict{
		db:           db,
		snapshotPath: filepath.Join(dir, "uri_mappings.json"),
		uriToID:      make(map[string]uint32),
		idToURI:      make(map[uint32]string),
		cache:        hot,
	}
	d.nextID.Store(1)

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(mappingsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	if err := d.load(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

type entry struct {
	URI string `json:"uri"`
	ID  uint32 `json:"id"`
}

func (d *Dict) load() error {
	var maxID uint32
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(mappingsBucket)
		return b.ForEach(func(k, v []byte) error {
			var e entry
			if err := jsonx.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("%w: decode mapping: %v", synerr.ErrStorage, err)
			}
			d.uriToID[e.URI] = e.ID
			d.idToURI[e.ID] = e.URI
			if e.ID >= maxID {
				maxID = e.ID
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	if maxID > 0 {
		d.nextID.Store(maxID + 1)
	}
	return nil
}

// snapshot mirrors original_source/store.rs's UriMappings: the whole
// uri->id table plus the next id to allocate, written out as a single
// JSON document alongside the bbolt store.
type snapshot struct {
	URIToID map[string]uint32 `json:"uri_to_id"`
	NextID  uint32            `json:"next_id"`
}

// writeSnapshot rewrites uri_mappings.json in full, matching the
// original's save_mappings, which serializes the entire map on every
// allocation rather than appending.
func (d *Dict) writeSnapshot() error {
	d.mu.RLock()
	snap := snapshot{
		URIToID: make(map[string]uint32, len(d.uriToID)),
		NextID:  d.nextID.Load(),
	}
	for uri, id := range d.uriToID {
		snap.URIToID[uri] = id
	}
	d.mu.RUnlock()

	data, err := jsonx.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", synerr.ErrInvalidInput, err)
	}
	if err := os.WriteFile(d.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", synerr.ErrStorage, d.snapshotPath, err)
	}
	return nil
}

func (d *Dict) persist(uri string, id uint32) error {
	data, err := jsonx.Marshal(entry{URI: uri, ID: id})
	if err != nil {
		return fmt.Errorf("%w: encode mapping: %v", synerr.ErrInvalidInput, err)
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(mappingsBucket).Put(fmt.Appendf(nil, "%d", id), data)
	})
}

// GetOrCreateID returns the id for uri, allocating and persisting a new one
// on first sight. A failure to write the new mapping to bbolt is returned
// as an error. The uri_mappings.json rewrite that follows is best-effort:
// its failure is ignored and the id is still returned.
func (d *Dict) GetOrCreateID(uri string) (uint32, error) {
	d.mu.RLock()
	if id, ok := d.uriToID[uri]; ok {
		d.mu.RUnlock()
		return id, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	if id, ok := d.uriToID[uri]; ok {
		d.mu.Unlock()
		return id, nil
	}

	id := d.nextID.Add(1) - 1
	d.uriToID[uri] = id
	d.idToURI[id] = uri
	d.mu.Unlock()

	if err := d.persist(uri, id); err != nil {
		return 0, fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}
	_ = d.writeSnapshot()
	if d.cache != nil {
		d.cache.Set(cacheKeyURI(uri), fmt.Appendf(nil, "%d", id))
	}
	return id, nil
}

// GetURI resolves id back to its uri, if known.
func (d *Dict) GetURI(id uint32) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	uri, ok := d.idToURI[id]
	return uri, ok
}

// GetID looks up uri without allocating on miss.
func (d *Dict) GetID(uri string) (uint32, bool) {
	if d.cache != nil {
		if cached, found := d.cache.Get(cacheKeyURI(uri)); found {
			var id uint32
			fmt.Sscanf(string(cached), "%d", &id)
			return id, true
		}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.uriToID[uri]
	return id, ok
}

// Len returns the number of registered uris.
func (d *Dict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.uriToID)
}

func cacheKeyURI(uri string) string {
	return "uri:" + uri
}

// Close releases the underlying bbolt handle.
func (d *Dict) Close() error {
	return d.db.Close()
}

// Package vectorindex implements a namespace-scoped approximate nearest
// neighbor index: a hand-built single-layer navigable-small-world graph
// ordered by a fixed-point squared-Euclidean distance metric, with
// best-effort JSON persistence and roaring-bitmap-tracked live handles for
// compaction.
package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/jsonx"
	"github.com/synapseos/hybridstore/internal/synerr"
	"go.uber.org/zap"
)

const autoSaveThreshold = 100

// Entry is a single vector record as persisted to vectors.json.
type Entry struct {
	Key       string                 `json:"key"`
	Embedding []float32              `json:"embedding"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is a single hit returned by Search.
type SearchResult struct {
	Key      string                 `json:"key"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	URI      string                 `json:"uri"`
}

// Index is a namespace's vector store. mapMu guards the key/id maps, the
// metadata map, the live bitmap and the catalogue together; the graph has
// its own mutex. Where both are needed (AddBatch, Compact, loading), the
// graph is updated while mapMu is held, so mapMu is acquired first.
type Index struct {
	graph *ann

	mapMu     sync.RWMutex
	keyToID   map[string]uint64
	idToKey   map[uint64]string
	metadata  map[string]map[string]interface{}
	live      *roaring.Bitmap
	catalogue []Entry
	nextID    uint64

	dirtyCount    atomic.Int64
	dimensions    int
	storageDir    string
	logger        *zap.Logger
	cache         *cache.Cache
	persistenceMu sync.Mutex
}

// Open creates or loads a namespace's vector index. storageDir may be empty,
// in which case the index is memory-only.
func Open(storageDir string, dimensions int, logger *zap.Logger, hot *cache.Cache) (*Index, error) {
	idx := &Index{
		graph:      newANN(16, 64),
		keyToID:    make(map[string]uint64),
		idToKey:    make(map[uint64]string),
		metadata:   make(map[string]map[string]interface{}),
		live:       roaring.New(),
		dimensions: dimensions,
		storageDir: storageDir,
		logger:     logger.Named("vectorindex"),
		cache:      hot,
		nextID:     1,
	}

	if storageDir != "" {
		if err := idx.loadFromDisk(); err != nil {
			return nil, fmt.Errorf("vectorindex: load %s: %w", storageDir, err)
		}
	}

	return idx, nil
}

func (idx *Index) vectorsPath() string {
	return filepath.Join(idx.storageDir, "vectors.json")
}

func (idx *Index) loadFromDisk() error {
	path := idx.vectorsPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	var entries []Entry
	if err := jsonx.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	idx.mapMu.Lock()
	defer idx.mapMu.Unlock()

	for _, e := range entries {
		if len(e.Embedding) != idx.dimensions {
			continue
		}
		id := idx.nextID
		idx.nextID++
		idx.graph.insert(id, e.Embedding)
		idx.keyToID[e.Key] = id
		idx.idToKey[id] = e.Key
		idx.metadata[e.Key] = e.Metadata
		idx.live.Add(uint32(id))
		idx.catalogue = append(idx.catalogue, e)
	}

	idx.logger.Info("loaded vectors from disk",
		zap.Int("count", len(idx.catalogue)), zap.Int("dimensions", idx.dimensions))
	return nil
}

// saveVectors persists the catalogue to disk, best-effort.
func (idx *Index) saveVectors() error {
	if idx.storageDir == "" {
		return nil
	}
	idx.persistenceMu.Lock()
	defer idx.persistenceMu.Unlock()

	if err := os.MkdirAll(idx.storageDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}

	idx.mapMu.RLock()
	entries := make([]Entry, len(idx.catalogue))
	copy(entries, idx.catalogue)
	idx.mapMu.RUnlock()

	data, err := jsonx.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}
	if err := os.WriteFile(idx.vectorsPath(), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", synerr.ErrStorage, err)
	}
	idx.dirtyCount.Store(0)
	return nil
}

// Flush forces a synchronous save to disk.
func (idx *Index) Flush() error {
	return idx.saveVectors()
}

// AddBatch inserts or reuses ids for a batch of (key, embedding, metadata)
// items, returning their ids in item order. Keys already present reuse
// their existing id; this makes ingest idempotent.
func (idx *Index) AddBatch(items []Entry) ([]uint64, error) {
	result := make([]uint64, len(items))
	var toInsert []int

	idx.mapMu.RLock()
	for i, item := range items {
		if id, ok := idx.keyToID[item.Key]; ok {
			result[i] = id
		} else {
			toInsert = append(toInsert, i)
		}
	}
	idx.mapMu.RUnlock()

	if len(toInsert) == 0 {
		return result, nil
	}

	for _, i := range toInsert {
		item := items[i]
		if len(item.Embedding) != idx.dimensions {
			return nil, fmt.Errorf("%w: expected %d dimensions, got %d",
				synerr.ErrInvalidInput, idx.dimensions, len(item.Embedding))
		}
	}

	idx.mapMu.Lock()
	inserted := 0
	for _, i := range toInsert {
		item := items[i]
		if id, ok := idx.keyToID[item.Key]; ok {
			// Raced with a concurrent AddBatch for the same key.
			result[i] = id
			continue
		}
		id := idx.nextID
		idx.nextID++
		idx.graph.insert(id, item.Embedding)
		idx.keyToID[item.Key] = id
		idx.idToKey[id] = item.Key
		idx.metadata[item.Key] = item.Metadata
		idx.live.Add(uint32(id))
		idx.catalogue = append(idx.catalogue, item)
		result[i] = id
		inserted++
	}
	idx.mapMu.Unlock()

	if inserted > 0 {
		if idx.dirtyCount.Add(int64(inserted)) >= autoSaveThreshold {
			if err := idx.saveVectors(); err != nil {
				idx.logger.Warn("auto-save failed", zap.Error(err))
			}
		}
	}

	return result, nil
}

// Add is a single-item convenience wrapper over AddBatch.
func (idx *Index) Add(key string, embedding []float32, metadata map[string]interface{}) (uint64, error) {
	ids, err := idx.AddBatch([]Entry{{Key: key, Embedding: embedding, Metadata: metadata}})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// Search returns up to k nearest neighbors of query, scored as
// 1 / (1 + distance/1_000_000), matching the teacher's original fixed-point
// distance-to-similarity conversion (higher is more similar, max 1.0).
func (idx *Index) Search(ctx context.Context, query []float32, k int) []SearchResult {
	if k <= 0 {
		return nil
	}
	neighbors := idx.graph.search(query, k)

	idx.mapMu.RLock()
	defer idx.mapMu.RUnlock()

	out := make([]SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		if !idx.live.Contains(uint32(n.id)) {
			continue
		}
		key, ok := idx.idToKey[n.id]
		if !ok {
			continue
		}
		meta := idx.metadata[key]
		uri := key
		if v, ok := meta["uri"].(string); ok && v != "" {
			uri = v
		}
		scoreF := float32(n.dist) / 1_000_000.0
		out = append(out, SearchResult{
			Key:      key,
			Score:    1.0 / (1.0 + scoreF),
			Metadata: meta,
			URI:      uri,
		})
	}
	return out
}

// Remove drops key from the active maps and the live bitmap. The backing
// embedding stays in the graph and catalogue until the next Compact; this
// matches the original's no-tombstone-in-catalogue behavior.
func (idx *Index) Remove(key string) bool {
	idx.mapMu.Lock()
	defer idx.mapMu.Unlock()

	id, ok := idx.keyToID[key]
	if !ok {
		return false
	}
	delete(idx.keyToID, key)
	delete(idx.idToKey, id)
	delete(idx.metadata, key)
	idx.live.Remove(uint32(id))
	return true
}

// GetID returns the internal id for key, if present.
func (idx *Index) GetID(key string) (uint64, bool) {
	idx.mapMu.RLock()
	defer idx.mapMu.RUnlock()
	id, ok := idx.keyToID[key]
	return id, ok
}

// Metadata returns the metadata blob stored for key, serving from the hot
// cache when available to avoid repeated JSON marshaling of large
// metadata maps on read-heavy hybrid-search expansion paths.
func (idx *Index) Metadata(key string) (map[string]interface{}, bool) {
	if idx.cache != nil {
		if cached, found := idx.cache.Get("vecmeta:" + key); found {
			var meta map[string]interface{}
			if err := jsonx.Unmarshal(cached, &meta); err == nil {
				return meta, true
			}
		}
	}

	idx.mapMu.RLock()
	meta, ok := idx.metadata[key]
	idx.mapMu.RUnlock()
	if !ok {
		return nil, false
	}

	if idx.cache != nil {
		if data, err := jsonx.Marshal(meta); err == nil {
			idx.cache.Set("vecmeta:"+key, data)
		}
	}
	return meta, true
}

// Len reports the number of currently-active (non-removed) entries.
func (idx *Index) Len() int {
	idx.mapMu.RLock()
	defer idx.mapMu.RUnlock()
	return len(idx.keyToID)
}

// Stats reports (active, stale, total) counts, mirroring the original's
// (active_count, stale_count, embeddings_count) tuple.
func (idx *Index) Stats() (active, stale, total int) {
	idx.mapMu.RLock()
	defer idx.mapMu.RUnlock()
	active = len(idx.keyToID)
	total = len(idx.catalogue)
	if total > active {
		stale = total - active
	}
	return active, stale, total
}

// Compact rebuilds the graph and catalogue from only the currently-live
// entries, discarding removed ones, and returns the number discarded.
func (idx *Index) Compact() (int, error) {
	idx.mapMu.Lock()

	if len(idx.keyToID) == 0 && len(idx.catalogue) > 0 {
		idx.mapMu.Unlock()
		return 0, nil
	}

	liveKeys := make(map[string]bool, len(idx.keyToID))
	for k := range idx.keyToID {
		liveKeys[k] = true
	}

	var activeEntries []Entry
	for _, e := range idx.catalogue {
		if liveKeys[e.Key] {
			activeEntries = append(activeEntries, e)
		}
	}
	removed := len(idx.catalogue) - len(activeEntries)
	if removed == 0 {
		idx.mapMu.Unlock()
		return 0, nil
	}

	newGraph := newANN(16, 64)
	newKeyToID := make(map[string]uint64, len(activeEntries))
	newIDToKey := make(map[uint64]string, len(activeEntries))
	newMetadata := make(map[string]map[string]interface{}, len(activeEntries))
	newLive := roaring.New()
	var nextID uint64 = 1

	for _, e := range activeEntries {
		if len(e.Embedding) != idx.dimensions {
			continue
		}
		id := nextID
		nextID++
		newGraph.insert(id, e.Embedding)
		newKeyToID[e.Key] = id
		newIDToKey[id] = e.Key
		newMetadata[e.Key] = e.Metadata
		newLive.Add(uint32(id))
	}

	idx.graph = newGraph
	idx.keyToID = newKeyToID
	idx.idToKey = newIDToKey
	idx.metadata = newMetadata
	idx.live = newLive
	idx.catalogue = activeEntries
	idx.nextID = nextID

	idx.mapMu.Unlock()

	if err := idx.saveVectors(); err != nil {
		idx.logger.Warn("compact: save failed", zap.Error(err))
	}

	return removed, nil
}

// Package namespace manages the lifecycle of per-namespace hybrid stores:
// lazy open on first access, directory-per-namespace storage, and a pooled
// background compaction sweep over their vector indexes.
package namespace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/synapseos/hybridstore/internal/cache"
	"github.com/synapseos/hybridstore/internal/embedding"
	"github.com/synapseos/hybridstore/internal/events"
	"github.com/synapseos/hybridstore/internal/hybridstore"
	"go.uber.org/zap"
)

const defaultNamespace = "default"

// Manager holds a concurrent namespace -> hybrid store handle map, opening
// stores lazily and rooting each at <storagePath>/<name>, per spec.md §4.5.
type Manager struct {
	storagePath string
	dims        int
	embedderCfg embedding.Config
	logger      *zap.Logger
	cache       *cache.Cache
	events      *events.Publisher

	stores sync.Map // string -> *hybridstore.Store

	pool *ants.Pool
}

// New creates a namespace manager. A nil cache or events Publisher is
// tolerated (cache disables the hot-read layer, a no-op Publisher from
// events.Connect("", ...) disables event emission).
func New(storagePath string, dims int, embedderCfg embedding.Config, hot *cache.Cache, pub *events.Publisher, logger *zap.Logger) (*Manager, error) {
	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, fmt.Errorf("namespace: create worker pool: %w", err)
	}

	return &Manager{
		storagePath: storagePath,
		dims:        dims,
		embedderCfg: embedderCfg,
		logger:      logger.Named("namespace"),
		cache:       hot,
		events:      pub,
		pool:        pool,
	}, nil
}

// GetStore returns the shared hybrid store handle for name, opening it on
// first access. An empty name is treated as "default". Concurrent callers
// racing to open the same namespace converge on one winner; losers close
// their half-built store.
func (m *Manager) GetStore(name string) (*hybridstore.Store, error) {
	if name == "" {
		name = defaultNamespace
	}

	if v, ok := m.stores.Load(name); ok {
		return v.(*hybridstore.Store), nil
	}

	dir := filepath.Join(m.storagePath, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("namespace: create directory for %q: %w", name, err)
	}

	emb, err := embedding.New(m.embedderCfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("namespace: construct embedder for %q: %w", name, err)
	}

	store, err := hybridstore.Open(dir, m.dims, emb, m.cache, m.logger)
	if err != nil {
		emb.Close()
		return nil, fmt.Errorf("namespace: open store %q: %w", name, err)
	}

	actual, loaded := m.stores.LoadOrStore(name, store)
	if loaded {
		store.Close()
		return actual.(*hybridstore.Store), nil
	}

	if m.events != nil {
		m.events.Publish(events.Event{Type: "namespace_opened", Namespace: name})
	}
	return store, nil
}

// DeleteNamespace drops name's store handle and removes its storage
// directory from disk. A missing directory is success.
func (m *Manager) DeleteNamespace(name string) error {
	if name == "" {
		name = defaultNamespace
	}

	if v, ok := m.stores.LoadAndDelete(name); ok {
		if err := v.(*hybridstore.Store).Close(); err != nil {
			m.logger.Warn("error closing store before delete", zap.String("namespace", name), zap.Error(err))
		}
	}

	dir := filepath.Join(m.storagePath, name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("namespace: remove directory for %q: %w", name, err)
	}

	if m.events != nil {
		m.events.Publish(events.Event{Type: "namespace_closed", Namespace: name})
	}
	return nil
}

// StartCompactionSweep runs a background loop that compacts every open
// namespace's vector index every interval, using the pooled worker set so
// compactions across namespaces run concurrently without spawning one
// goroutine per namespace per tick. The loop stops when ctx is cancelled.
func (m *Manager) StartCompactionSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.compactAll()
			}
		}
	}()
}

func (m *Manager) compactAll() {
	m.stores.Range(func(key, value interface{}) bool {
		name := key.(string)
		store := value.(*hybridstore.Store)
		if store.Vectors == nil {
			return true
		}
		err := m.pool.Submit(func() {
			removed, err := store.Vectors.Compact()
			if err != nil {
				m.logger.Warn("compaction failed", zap.String("namespace", name), zap.Error(err))
				return
			}
			if removed > 0 {
				m.logger.Info("compacted namespace", zap.String("namespace", name), zap.Int("removed", removed))
				if m.events != nil {
					m.events.Publish(events.Event{Type: "namespace_compacted", Namespace: name})
				}
			}
		})
		if err != nil {
			m.logger.Warn("failed to submit compaction task", zap.String("namespace", name), zap.Error(err))
		}
		return true
	})
}

// Close releases every open store handle and the worker pool.
func (m *Manager) Close() error {
	var firstErr error
	m.stores.Range(func(_, value interface{}) bool {
		if err := value.(*hybridstore.Store).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	m.pool.Release()
	return firstErr
}

package providers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chatrelay/internal/adapter"
	"chatrelay/internal/cache"
	"chatrelay/internal/core"
)

// Registry maps caller-facing model keys to their adapters. Registration
// happens at startup; lookups afterward are read-only. The registry also
// maintains the advertised model snapshot, optionally enriched with upstream
// metadata and persisted through a cache backend.
type Registry struct {
	mu       sync.RWMutex
	adapters []*adapter.Adapter
	byAlias  map[string]*adapter.Adapter
	snapshot *cache.Snapshot
	store    cache.Cache
	logger   *slog.Logger
}

// NewRegistry creates a registry. The cache store is optional.
func NewRegistry(store cache.Cache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byAlias: make(map[string]*adapter.Adapter),
		store:   store,
		logger:  logger,
	}
}

// Register adds an adapter. The first registration of an alias wins, so
// catalog order decides conflicts.
func (r *Registry) Register(a *adapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters = append(r.adapters, a)
	for _, alias := range a.Aliases() {
		if _, exists := r.byAlias[alias]; exists {
			r.logger.Warn("duplicate model alias ignored", "alias", alias, "provider", a.Name())
			continue
		}
		r.byAlias[alias] = a
	}
}

// Lookup returns the adapter serving the given model alias.
func (r *Registry) Lookup(model string) (*adapter.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byAlias[model]
	return a, ok
}

// Supports reports whether any adapter serves the given model alias.
func (r *Registry) Supports(model string) bool {
	_, ok := r.Lookup(model)
	return ok
}

// Models returns the advertised model catalog. When a snapshot exists it is
// served directly; otherwise the catalog is synthesized from the registered
// alias tables.
func (r *Registry) Models() *core.ModelsResponse {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.snapshot != nil {
		return &core.ModelsResponse{Object: "list", Data: r.snapshot.Models}
	}
	return &core.ModelsResponse{Object: "list", Data: r.aliasModelsLocked()}
}

func (r *Registry) aliasModelsLocked() []core.Model {
	var out []core.Model
	for _, a := range r.adapters {
		for _, alias := range a.Aliases() {
			out = append(out, core.Model{
				ID:      alias,
				Object:  "model",
				OwnedBy: a.Name(),
			})
		}
	}
	return out
}

// LoadFromCache restores the model snapshot from the cache store, giving
// instant startup without touching upstreams. Returns true when a snapshot
// was restored.
func (r *Registry) LoadFromCache(ctx context.Context) (bool, error) {
	if r.store == nil {
		return false, nil
	}

	snap, err := r.store.Get(ctx)
	if err != nil || snap == nil {
		return false, err
	}

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	r.logger.Info("model snapshot restored from cache",
		"models", len(snap.Models),
		"updated_at", snap.UpdatedAt,
	)
	return true, nil
}

// Refresh rebuilds the model snapshot, enriching each alias with upstream
// metadata where the provider exposes a models endpoint, then persists it.
// Providers that fail to answer keep their static alias entries.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.RLock()
	adapters := make([]*adapter.Adapter, len(r.adapters))
	copy(adapters, r.adapters)
	r.mu.RUnlock()

	var models []core.Model
	for _, a := range adapters {
		models = append(models, r.enrich(ctx, a)...)
	}

	snap := &cache.Snapshot{
		Version:   cache.SnapshotVersion,
		UpdatedAt: time.Now().UTC(),
		Models:    models,
	}

	r.mu.Lock()
	previous := r.snapshot
	r.snapshot = snap
	r.mu.Unlock()

	return r.persist(ctx, previous, snap)
}

// enrich merges upstream model metadata into the adapter's alias entries.
// Upstream lists carry provider-native identifiers, so matching goes through
// each alias's resolved target.
func (r *Registry) enrich(ctx context.Context, a *adapter.Adapter) []core.Model {
	upstream := map[string]core.Model{}
	if resp, err := a.ListModels(ctx); err == nil {
		for _, m := range resp.Data {
			upstream[m.ID] = m
		}
	} else {
		r.logger.Warn("model enrichment skipped", "provider", a.Name(), "error", err)
	}

	var out []core.Model
	for _, entry := range a.Models() {
		model := core.Model{ID: entry.Alias, Object: "model", OwnedBy: a.Name()}
		if meta, ok := upstream[entry.Target]; ok {
			model.Created = meta.Created
			if meta.OwnedBy != "" {
				model.OwnedBy = meta.OwnedBy
			}
		}
		out = append(out, model)
	}
	return out
}

// persist writes the snapshot unless its digest matches what was already
// stored, avoiding redundant writes on unchanged catalogs.
func (r *Registry) persist(ctx context.Context, previous, snap *cache.Snapshot) error {
	if r.store == nil {
		return nil
	}
	if previous != nil && previous.Digest() == snap.Digest() {
		r.logger.Debug("model snapshot unchanged, skipping cache write")
		return nil
	}
	if err := r.store.Set(ctx, snap); err != nil {
		return err
	}
	r.logger.Info("model snapshot persisted", "models", len(snap.Models))
	return nil
}

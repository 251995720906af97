// Package cache stores the advertised model snapshot so restarts and
// additional instances can serve /v1/models without re-polling upstreams.
// Supports a local file backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cespare/xxhash/v2"

	"chatrelay/internal/core"
)

// SnapshotVersion guards against reading snapshots written by incompatible
// builds.
const SnapshotVersion = 1

// Snapshot is the cached model catalog.
type Snapshot struct {
	Version   int          `json:"version"`
	UpdatedAt time.Time    `json:"updated_at"`
	Models    []core.Model `json:"models"`
}

// Digest fingerprints the model list so writers can skip redundant Sets when
// nothing changed. UpdatedAt is deliberately excluded.
func (s *Snapshot) Digest() uint64 {
	if s == nil {
		return 0
	}
	data, err := json.Marshal(s.Models)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

// Cache defines the snapshot storage interface.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the snapshot. Returns nil, nil if none exists yet.
	Get(ctx context.Context) (*Snapshot, error)

	// Set stores the snapshot.
	Set(ctx context.Context, snap *Snapshot) error

	// Close releases any resources held by the cache.
	Close() error
}

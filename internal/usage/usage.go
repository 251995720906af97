// Package usage provides token usage accounting for the gateway.
// Entries are extracted from completed responses and written asynchronously
// to a store for later analysis.
package usage

import (
	"context"
	"time"
)

// Store defines the usage storage backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// WriteBatch writes multiple usage entries. Called by the Logger when
	// flushing buffered entries.
	WriteBatch(ctx context.Context, entries []*Entry) error

	// Close releases resources and flushes pending writes.
	Close() error
}

// Entry is a single token usage record.
type Entry struct {
	// ID is a unique identifier for this entry (UUID).
	ID string `json:"id"`

	// RequestID is the gateway request ID that correlates log lines.
	RequestID string `json:"request_id"`

	// ProviderID is the provider's response ID (e.g. "chatcmpl-abc123").
	ProviderID string `json:"provider_id"`

	// Timestamp is when the request completed.
	Timestamp time.Time `json:"timestamp"`

	Model    string `json:"model"`
	Provider string `json:"provider"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`

	// RawData carries provider-specific extended usage counters,
	// e.g. cached_tokens or reasoning_tokens.
	RawData map[string]any `json:"raw_data,omitempty"`
}

// Config holds usage tracking configuration.
type Config struct {
	Enabled       bool
	BufferSize    int
	FlushInterval time.Duration
	RetentionDays int
}

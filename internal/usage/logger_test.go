package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu      sync.Mutex
	entries []*Entry
	closed  bool
}

func (m *mockStore) WriteBatch(_ context.Context, entries []*Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestLoggerFlushOnClose(t *testing.T) {
	store := &mockStore{}
	logger := NewLogger(store, Config{BufferSize: 10, FlushInterval: time.Hour})

	logger.Write(testEntry("req-1"))
	logger.Write(testEntry("req-2"))

	require.NoError(t, logger.Close())

	assert.Equal(t, 2, store.count(), "close must drain buffered entries")
	assert.True(t, store.closed)
}

func TestLoggerFlushOnInterval(t *testing.T) {
	store := &mockStore{}
	logger := NewLogger(store, Config{BufferSize: 10, FlushInterval: 20 * time.Millisecond})
	defer func() {
		_ = logger.Close()
	}()

	logger.Write(testEntry("req-1"))

	assert.Eventually(t, func() bool {
		return store.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLoggerIgnoresNilAndAfterClose(t *testing.T) {
	store := &mockStore{}
	logger := NewLogger(store, Config{BufferSize: 10, FlushInterval: time.Hour})

	logger.Write(nil)
	require.NoError(t, logger.Close())

	logger.Write(testEntry("req-late"))
	assert.Equal(t, 0, store.count())
}

func TestLoggerCloseIdempotent(t *testing.T) {
	logger := NewLogger(&mockStore{}, Config{})
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Logger provides async buffered usage logging with batch writes. Entries
// are collected in a channel and flushed to the store when the batch fills
// or at the flush interval.
type Logger struct {
	store         Store
	buffer        chan *Entry
	done          chan struct{}
	wg            sync.WaitGroup
	writes        sync.WaitGroup
	flushInterval time.Duration
	closed        atomic.Bool
}

const flushBatchSize = 64

// NewLogger creates the logger and starts its background flush goroutine.
func NewLogger(store Store, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	l := &Logger{
		store:         store,
		buffer:        make(chan *Entry, cfg.BufferSize),
		done:          make(chan struct{}),
		flushInterval: cfg.FlushInterval,
	}

	l.wg.Add(1)
	go l.flushLoop()

	return l
}

// Write queues an entry without blocking. If the buffer is full or the
// logger is closed, the entry is dropped with a warning.
func (l *Logger) Write(entry *Entry) {
	if entry == nil || l.closed.Load() {
		return
	}

	// Track in-flight writes so Close cannot tear down the buffer under us.
	l.writes.Add(1)
	defer l.writes.Done()
	if l.closed.Load() {
		return
	}

	select {
	case l.buffer <- entry:
	default:
		slog.Warn("usage buffer full, dropping entry",
			"request_id", entry.RequestID,
			"model", entry.Model,
		)
	}
}

// Close stops the logger and flushes remaining entries. Idempotent.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	l.writes.Wait()
	close(l.done)
	l.wg.Wait()

	return l.store.Close()
}

func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	var batch []*Entry
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := l.store.WriteBatch(ctx, batch); err != nil {
			slog.Error("usage batch write failed", "entries", len(batch), "error", err)
		}
		cancel()
		batch = nil
	}

	for {
		select {
		case entry := <-l.buffer:
			batch = append(batch, entry)
			if len(batch) >= flushBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-l.done:
			// Drain whatever is left before shutting down.
			for {
				select {
				case entry := <-l.buffer:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

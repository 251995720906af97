package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatrelay/internal/core"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		UpdatedAt: time.Now().UTC(),
		Models: []core.Model{
			{ID: "gpt-4o-mini", Object: "model", OwnedBy: "OpenAI", Created: 1700000000},
			{ID: "llama-3.3-70b", Object: "model", OwnedBy: "Groq"},
		},
	}
}

func TestLocalCacheRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	c := NewLocalCache(path)
	ctx := context.Background()

	if err := c.Set(ctx, testSnapshot()); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if len(got.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(got.Models))
	}
	if got.Models[0].ID != "gpt-4o-mini" {
		t.Errorf("Models[0].ID = %q", got.Models[0].ID)
	}
}

func TestLocalCacheMissingFile(t *testing.T) {
	c := NewLocalCache(filepath.Join(t.TempDir(), "nope.json"))

	got, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil snapshot, got %+v", got)
	}
}

func TestLocalCacheVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "models": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewLocalCache(path)
	got, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("incompatible snapshot versions must be ignored")
	}
}

func TestLocalCacheCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewLocalCache(path)
	if _, err := c.Get(context.Background()); err == nil {
		t.Error("corrupt file must surface an error")
	}
}

func TestLocalCacheEmptyPath(t *testing.T) {
	c := NewLocalCache("")
	ctx := context.Background()

	if err := c.Set(ctx, testSnapshot()); err != nil {
		t.Fatalf("Set with empty path must be a no-op, got %v", err)
	}
	got, err := c.Get(ctx)
	if err != nil || got != nil {
		t.Errorf("Get with empty path = %v, %v", got, err)
	}
}

func TestSnapshotDigest(t *testing.T) {
	a := testSnapshot()
	b := testSnapshot()
	b.UpdatedAt = a.UpdatedAt.Add(time.Hour)

	if a.Digest() != b.Digest() {
		t.Error("digest must ignore UpdatedAt")
	}

	b.Models[0].ID = "changed"
	if a.Digest() == b.Digest() {
		t.Error("digest must change when the model list changes")
	}

	var nilSnap *Snapshot
	if nilSnap.Digest() != 0 {
		t.Error("nil snapshot digest must be 0")
	}
}

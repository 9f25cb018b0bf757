package file

import (
	"context"
	"errors"
	"testing"

	"github.com/yaroph/connect/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Get(ctx, "missing.json"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}

	if err := store.Set(ctx, "doc.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err := store.Get(ctx, "doc.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("data = %s", data)
	}

	// Overwrite through the temp-and-rename path.
	if err := store.Set(ctx, "doc.json", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, _ = store.Get(ctx, "doc.json")
	if string(data) != `{"a":2}` {
		t.Fatalf("data after overwrite = %s", data)
	}
}

func TestStoreIgnoresPathTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Set(ctx, "../escape.json", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	// The write must land inside the store directory.
	if _, err := store.Get(ctx, "escape.json"); err != nil {
		t.Fatalf("expected traversal key to be flattened: %v", err)
	}
}

func TestImageStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("new image store: %v", err)
	}

	if err := store.Put(ctx, "a.png", []byte{1, 2, 3}, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, _, err := store.Fetch(ctx, "a.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("data = %v", data)
	}

	if _, _, err := store.Fetch(ctx, "missing.png"); !errors.Is(err, domain.ErrImageNotFound) {
		t.Fatalf("expected image not found, got %v", err)
	}
}

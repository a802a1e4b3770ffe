package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spese/internal/storage"
)

func TestMemoryStoreReadWrite(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.ReadSnapshot(ctx, "k"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	payload := []byte("[1]")
	if err := s.WriteSnapshot(ctx, "k", payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	payload[1] = '9' // caller mutation must not leak into the store

	got, err := s.ReadSnapshot(ctx, "k")
	if err != nil || string(got) != "[1]" {
		t.Fatalf("unexpected read %q (err=%v)", got, err)
	}
	got[1] = '7'
	again, _ := s.ReadSnapshot(ctx, "k")
	if string(again) != "[1]" {
		t.Fatalf("read returned shared buffer")
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFile("k", filepath.Join(dir, "missing.json")); s == nil {
		t.Fatalf("expected empty store for missing file")
	}

	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s := NewFromFile("k", path)
	got, err := s.ReadSnapshot(context.Background(), "k")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected seeded snapshot %q (err=%v)", got, err)
	}
}

package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spese/internal/config"
	"spese/internal/log"
	"spese/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		DataDir:      "/var/lib/spese",
		SQLiteDBPath: "/var/lib/spese/spese.db",
		SnapshotKey:  "transactions",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != cfg.SQLiteDBPath || got.DataDirectory != cfg.DataDir {
		t.Errorf("unexpected config: %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected an error for a nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"file", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without directory", Config{Type: FileBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	factory := NewFactory(log.Discard())

	configs := map[string]Config{
		"file":   {Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		"sqlite": {Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "spese.db")},
		"memory": {Type: MemoryBackend},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			res, err := factory.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()

			if _, err := res.Backend.ReadSnapshot(ctx, storage.DefaultKey); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("fresh backend should report ErrNotFound, got %v", err)
			}
			if err := res.Backend.WriteSnapshot(ctx, storage.DefaultKey, []byte("[]")); err != nil {
				t.Fatalf("WriteSnapshot() error = %v", err)
			}
			data, err := res.Backend.ReadSnapshot(ctx, storage.DefaultKey)
			if err != nil || string(data) != "[]" {
				t.Fatalf("ReadSnapshot() = %q, %v", data, err)
			}
		})
	}
}

func TestFactory_MemoryBackendSeedsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	data, err := res.Backend.ReadSnapshot(context.Background(), storage.DefaultKey)
	if err != nil || string(data) != "[]" {
		t.Fatalf("seeded snapshot = %q, %v", data, err)
	}
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected an error")
	}
}

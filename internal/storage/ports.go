package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot is stored under a key.
var ErrNotFound = errors.New("snapshot not found")

// DefaultKey is the name the ledger snapshot is stored under.
const DefaultKey = "transactions"

// Ports implemented by every snapshot backend. A snapshot is an opaque
// payload; writes always replace the previous value as a whole.
type (
	SnapshotReader interface {
		ReadSnapshot(ctx context.Context, key string) ([]byte, error)
	}

	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, key string, data []byte) error
	}

	SnapshotStore interface {
		SnapshotReader
		SnapshotWriter
	}
)

package ledger

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by reads and mutations issued before the
// startup load has completed.
var ErrNotReady = errors.New("ledger is still loading")

// PersistenceError wraps a failure of the snapshot backend. Op is "read"
// or "write". Both are recoverable: reads fall back to an empty ledger and
// writes leave the in-memory ledger authoritative.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

package ledger

import (
	"context"
	"time"

	"spese/internal/core"
)

// EventType names a committed ledger mutation.
type EventType string

const (
	EventAdded   EventType = "transaction.added"
	EventRemoved EventType = "transaction.removed"
)

// Event describes one committed mutation.
type Event struct {
	Type        EventType
	Transaction core.Transaction
	OccurredAt  time.Time
}

// Notifier receives events after a mutation has been applied and saved.
// Errors are logged and never undo the mutation.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

func (f NotifierFunc) Notify(ctx context.Context, e Event) error { return f(ctx, e) }

// Package ledger owns the transaction ledger: it restores it from a
// snapshot backend at startup, applies the two mutations (add and remove)
// and persists the whole snapshot after each of them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spese/internal/clock"
	"spese/internal/core"
	"spese/internal/log"
	"spese/internal/snapshot"
	"spese/internal/storage"
)

// maxIDAttempts bounds id regeneration when a generator repeats itself.
const maxIDAttempts = 8

// IDFunc generates transaction ids.
type IDFunc func() string

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	Key          string          // snapshot key, storage.DefaultKey if empty
	Clock        clock.Clock     // clock.System if nil
	Formatter    clock.Formatter // date label formatter
	NewID        IDFunc          // uuid.NewString if nil
	StartupDelay time.Duration   // wait before the initial load
	Logger       *log.Logger
	Notifier     Notifier // optional
}

// Change is the outcome of a mutation: the new ledger and the transaction
// that was added or removed. SaveErr is a non-fatal warning set when the
// snapshot could not be written; the mutation is kept in memory regardless.
type Change struct {
	Ledger      core.Ledger
	Transaction core.Transaction
	Removed     bool
	SaveErr     error
}

// Store holds the ledger. All methods are safe for concurrent use; calls
// are serialized so each one runs to completion before the next starts.
type Store struct {
	backend storage.SnapshotStore
	key     string
	clock   clock.Clock
	format  clock.Formatter
	newID   IDFunc
	delay   time.Duration
	logger  *log.Logger
	notify  Notifier

	mu       sync.Mutex
	ledger   core.Ledger
	loaded   bool
	revision uint64 // bumped by every load and mutation

	ready     chan struct{}
	readyOnce sync.Once
}

func New(backend storage.SnapshotStore, opts Options) *Store {
	s := &Store{
		backend: backend,
		key:     opts.Key,
		clock:   opts.Clock,
		format:  opts.Formatter,
		newID:   opts.NewID,
		delay:   opts.StartupDelay,
		logger:  opts.Logger,
		notify:  opts.Notifier,
		ledger:  core.Ledger{},
		ready:   make(chan struct{}),
	}
	if s.key == "" {
		s.key = storage.DefaultKey
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.format == nil {
		s.format = clock.LayoutFormatter{Layout: clock.DefaultLayout}
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s
}

// Open waits for the startup delay and performs the initial load. Until it
// returns, Transactions, Summary and the mutators report ErrNotReady.
// Cancelling ctx abandons the wait and leaves the store unloaded.
func (s *Store) Open(ctx context.Context) error {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	l := s.Load(ctx)
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldSnapshotKey, s.key,
		log.FieldCount, len(l))
	return nil
}

// Ready is closed once the first load has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether the first load has completed.
func (s *Store) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Now returns the store's reference time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Load reads the snapshot and replaces the in-memory ledger with it.
// A missing snapshot gives an empty ledger; so does an unreadable or
// malformed one, after logging a warning. Load never fails.
func (s *Store) Load(ctx context.Context) core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = s.read(ctx)
	s.loaded = true
	s.revision++
	s.readyOnce.Do(func() { close(s.ready) })
	return s.ledger.Clone()
}

func (s *Store) read(ctx context.Context) core.Ledger {
	data, err := s.backend.ReadSnapshot(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Ledger{}
	}
	if err != nil {
		perr := &PersistenceError{Op: "read", Key: s.key, Err: err}
		s.logger.WarnContext(ctx, "Snapshot unreadable, starting with an empty ledger",
			log.FieldError, perr.Error(),
			log.FieldOperation, log.OpLoad)
		return core.Ledger{}
	}

	l, err := snapshot.Decode(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot malformed, starting with an empty ledger",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpLoad,
			log.FieldSnapshotKey, s.key)
		return core.Ledger{}
	}
	return l
}

// Save overwrites the persisted snapshot with l. It does not touch the
// in-memory ledger. Failures are returned as *PersistenceError.
func (s *Store) Save(ctx context.Context, l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, l)
}

func (s *Store) save(ctx context.Context, l core.Ledger) error {
	// a caller going away must not abort the write
	ctx = context.WithoutCancel(ctx)

	data, err := snapshot.Encode(l)
	if err == nil {
		err = s.backend.WriteSnapshot(ctx, s.key, data)
	}
	if err != nil {
		perr := &PersistenceError{Op: "write", Key: s.key, Err: err}
		s.logger.WarnContext(ctx, "Snapshot not saved, keeping in-memory ledger",
			log.FieldError, perr.Error(),
			log.FieldOperation, log.OpSave,
			log.FieldCount, len(l))
		return perr
	}

	s.logger.DebugContext(ctx, "Snapshot saved",
		log.FieldSnapshotKey, s.key,
		log.FieldCount, len(l))
	return nil
}

// Transactions returns a copy of the ledger, newest first.
func (s *Store) Transactions() (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotReady
	}
	return s.ledger.Clone(), nil
}

// Snapshot returns a copy of the ledger together with its revision. The
// revision changes whenever the ledger may have changed, so it can key
// caches of derived data.
func (s *Store) Snapshot() (core.Ledger, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, 0, ErrNotReady
	}
	return s.ledger.Clone(), s.revision, nil
}

// Summary derives the summary figures for the current ledger at ref.
func (s *Store) Summary(ref time.Time) (core.Summary, error) {
	l, err := s.Transactions()
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(l, ref), nil
}

// Add records a new expense created now, according to the store's clock.
func (s *Store) Add(ctx context.Context, d core.Draft) (Change, error) {
	return s.AddAt(ctx, d, s.clock.Now())
}

// AddAt validates d, creates the transaction at now and prepends it.
// Validation failures leave the ledger untouched.
func (s *Store) AddAt(ctx context.Context, d core.Draft, now time.Time) (Change, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return Change{}, ErrNotReady
	}
	if err := d.Validate(); err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	id, err := s.uniqueID()
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}

	t := core.Transaction{
		ID:        id,
		Title:     strings.TrimSpace(d.Title),
		Amount:    d.Amount,
		Category:  d.Category,
		DateLabel: s.format.Format(now),
		Timestamp: now.UnixMilli(),
	}
	s.ledger = s.ledger.Prepend(t)
	s.revision++
	change := Change{
		Ledger:      s.ledger.Clone(),
		Transaction: t,
		SaveErr:     s.save(ctx, s.ledger),
	}
	s.mu.Unlock()

	log.NewStructuredLogger(s.logger).LogTransactionAdded(ctx,
		t.ID, t.Title, core.FormatAmount(t.Amount), t.Category.String())
	s.publish(ctx, EventAdded, t)
	return change, nil
}

// Remove deletes the transaction with the given id. An unknown id is not
// an error; the snapshot is saved either way.
func (s *Store) Remove(ctx context.Context, id string) (Change, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return Change{}, ErrNotReady
	}
	next, removed, ok := s.ledger.Without(id)
	s.ledger = next
	s.revision++
	change := Change{
		Ledger:      s.ledger.Clone(),
		Transaction: removed,
		Removed:     ok,
		SaveErr:     s.save(ctx, s.ledger),
	}
	s.mu.Unlock()

	if ok {
		s.logger.InfoContext(ctx, "Transaction removed",
			log.FieldTransactionID, id,
			log.FieldOperation, log.OpRemove)
		s.publish(ctx, EventRemoved, removed)
	} else {
		s.logger.DebugContext(ctx, "Remove of unknown transaction ignored",
			log.FieldTransactionID, id)
	}
	return change, nil
}

// uniqueID must be called with s.mu held.
func (s *Store) uniqueID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && !s.ledger.Contains(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate transaction id: no unique id after %d attempts", maxIDAttempts)
}

func (s *Store) publish(ctx context.Context, typ EventType, t core.Transaction) {
	if s.notify == nil {
		return
	}
	ev := Event{Type: typ, Transaction: t, OccurredAt: s.clock.Now()}
	if err := s.notify.Notify(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.WarnContext(ctx, "Change notification failed",
			log.FieldError, err.Error(),
			log.FieldTransactionID, t.ID,
			log.FieldOperation, log.OpPublish)
	}
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spese/internal/clock"
	"spese/internal/core"
	"spese/internal/log"
	"spese/internal/snapshot"
	"spese/internal/storage"
	"spese/internal/storage/memory"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

// flakyBackend fails writes while failWrites is set.
type flakyBackend struct {
	*memory.Store
	mu         sync.Mutex
	failWrites bool
	failReads  bool
	writes     int
}

func (b *flakyBackend) ReadSnapshot(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	fail := b.failReads
	b.mu.Unlock()
	if fail {
		return nil, errors.New("disk on fire")
	}
	return b.Store.ReadSnapshot(ctx, key)
}

func (b *flakyBackend) WriteSnapshot(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	b.writes++
	fail := b.failWrites
	b.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return b.Store.WriteSnapshot(ctx, key, data)
}

func newBackend() *flakyBackend {
	return &flakyBackend{Store: memory.New()}
}

func sequentialIDs() IDFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newStore(t *testing.T, backend storage.SnapshotStore, opts Options) *Store {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = clock.Fixed(now)
	}
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	opts.Logger = log.Discard()
	s := New(backend, opts)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func draft(title, amount string, c core.Category) core.Draft {
	return core.Draft{Title: title, Amount: decimal.RequireFromString(amount), Category: c}
}

func TestStore_LoadMissingSnapshotIsEmpty(t *testing.T) {
	s := newStore(t, memory.New(), Options{})
	l, err := s.Transactions()
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if l == nil || len(l) != 0 {
		t.Fatalf("expected empty non-nil ledger, got %#v", l)
	}
}

func TestStore_LoadMalformedSnapshotRecovers(t *testing.T) {
	cases := map[string]string{
		"not json":     "not json at all",
		"object":       `{"id":"a"}`,
		"bad category": `[{"id":"a","title":"x","amount":1,"category":"pets","dateLabel":"","timestamp":1}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			backend := memory.New()
			_ = backend.WriteSnapshot(context.Background(), storage.DefaultKey, []byte(payload))
			s := newStore(t, backend, Options{})

			l, err := s.Transactions()
			if err != nil {
				t.Fatalf("Transactions: %v", err)
			}
			if len(l) != 0 {
				t.Fatalf("expected empty ledger, got %d entries", len(l))
			}

			// the app stays usable and the next save replaces the bad payload
			if _, err := s.Add(context.Background(), draft("Lunch", "10", core.Food)); err != nil {
				t.Fatalf("Add: %v", err)
			}
			data, _ := backend.ReadSnapshot(context.Background(), storage.DefaultKey)
			if _, err := snapshot.Decode(data); err != nil {
				t.Fatalf("saved snapshot should decode: %v", err)
			}
		})
	}
}

func TestStore_LoadReadFailureRecovers(t *testing.T) {
	backend := newBackend()
	backend.failReads = true
	s := newStore(t, backend, Options{})
	l, err := s.Transactions()
	if err != nil || len(l) != 0 {
		t.Fatalf("expected empty ledger, got %v, %v", l, err)
	}
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend, Options{})
	ctx := context.Background()
	_, _ = s.Add(ctx, draft("Lunch", "12.5", core.Food))
	_, _ = s.Add(ctx, draft("Taxi", "30", core.Transport))

	first := s.Load(ctx)
	second := s.Load(ctx)
	if !first.Equal(second) || len(first) != 2 {
		t.Fatalf("consecutive loads differ: %v vs %v", first, second)
	}
}

func TestStore_SaveThenLoadRoundTrip(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend, Options{})
	ctx := context.Background()

	l := core.Ledger{
		{ID: "b", Title: "Taxi", Amount: decimal.RequireFromString("30"), Category: core.Transport, DateLabel: "15 mar, 10:00", Timestamp: 2},
		{ID: "a", Title: "Lunch", Amount: decimal.RequireFromString("12.50"), Category: core.Food, DateLabel: "14 mar, 13:00", Timestamp: 1},
	}
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := newStore(t, backend, Options{})
	got, _ := other.Transactions()
	if !got.Equal(l) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, l)
	}
}

func TestStore_AddPrependsAndPersists(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend, Options{Formatter: clock.LayoutFormatter{Layout: clock.DefaultLayout}})
	ctx := context.Background()

	first, err := s.Add(ctx, draft("Lunch", "12.5", core.Food))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.SaveErr != nil {
		t.Fatalf("unexpected save error: %v", first.SaveErr)
	}
	tr := first.Transaction
	if tr.ID != "id-1" || tr.Title != "Lunch" || tr.Category != core.Food {
		t.Fatalf("unexpected transaction: %+v", tr)
	}
	if tr.Timestamp != now.UnixMilli() {
		t.Errorf("timestamp = %d, want %d", tr.Timestamp, now.UnixMilli())
	}
	if tr.DateLabel != "15 Mar, 12:00" {
		t.Errorf("date label = %q", tr.DateLabel)
	}

	second, _ := s.Add(ctx, draft("  Taxi  ", "30", core.Transport))
	if second.Transaction.Title != "Taxi" {
		t.Errorf("title should be trimmed, got %q", second.Transaction.Title)
	}
	if len(second.Ledger) != 2 || second.Ledger[0].ID != "id-2" || second.Ledger[1].ID != "id-1" {
		t.Fatalf("expected newest first, got %+v", second.Ledger)
	}

	reloaded := newStore(t, backend, Options{})
	got, _ := reloaded.Transactions()
	if !got.Equal(second.Ledger) {
		t.Fatalf("persisted ledger differs from returned one")
	}
}

func TestStore_AddedTitlesSurviveReload(t *testing.T) {
	backend := memory.New()
	s := newStore(t, backend, Options{})
	ctx := context.Background()

	for _, title := range []string{"café", "Ölwechsel", "寿司", "tab\tinside"} {
		if _, err := s.Add(ctx, draft(title, "3", core.Food)); err != nil {
			t.Fatalf("Add(%q): %v", title, err)
		}
	}
	want, _ := s.Transactions()

	got, _ := newStore(t, backend, Options{}).Transactions()
	if !got.Equal(want) {
		t.Fatalf("reloaded ledger differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestStore_AddRejectsInvalidDraft(t *testing.T) {
	backend := newBackend()
	s := newStore(t, backend, Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		draft core.Draft
		want  error
	}{
		{"empty title", draft("   ", "1", core.Food), core.ErrEmptyTitle},
		{"title not utf-8", draft("caf\xe9", "3", core.Food), core.ErrTitleEncoding},
		{"zero amount", core.Draft{Title: "x", Amount: decimal.Zero, Category: core.Food}, core.ErrInvalidAmount},
		{"negative amount", draft("x", "-3", core.Food), core.ErrInvalidAmount},
		{"unknown category", draft("x", "3", core.Category("pets")), core.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(ctx, tt.draft)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *core.ValidationError, got %T", err)
			}
		})
	}

	l, _ := s.Transactions()
	if len(l) != 0 {
		t.Fatalf("rejected drafts must not change the ledger")
	}
	if backend.writes != 0 {
		t.Fatalf("rejected drafts must not save, got %d writes", backend.writes)
	}
}

func TestStore_AddRegeneratesCollidingIDs(t *testing.T) {
	ids := []string{"dup", "dup", "dup", "fresh"}
	var i int
	s := newStore(t, memory.New(), Options{NewID: func() string {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}})
	ctx := context.Background()

	a, _ := s.Add(ctx, draft("a", "1", core.Food))
	b, _ := s.Add(ctx, draft("b", "1", core.Food))
	if a.Transaction.ID != "dup" || b.Transaction.ID != "fresh" {
		t.Fatalf("ids = %q, %q", a.Transaction.ID, b.Transaction.ID)
	}
	if !b.Ledger.UniqueIDs() {
		t.Fatalf("ledger ids should be unique")
	}
}

func TestStore_AddFailsWhenIDsRepeatForever(t *testing.T) {
	s := newStore(t, memory.New(), Options{NewID: func() string { return "same" }})
	ctx := context.Background()
	if _, err := s.Add(ctx, draft("a", "1", core.Food)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := s.Add(ctx, draft("b", "1", core.Food)); err == nil {
		t.Fatalf("expected an error when no unique id can be produced")
	}
	l, _ := s.Transactions()
	if len(l) != 1 {
		t.Fatalf("failed add must not change the ledger, got %d entries", len(l))
	}
}

func TestStore_RemoveDeletesAndPersists(t *testing.T) {
	backend := newBackend()
	s := newStore(t, backend, Options{})
	ctx := context.Background()

	before, _ := s.Transactions()
	added, _ := s.Add(ctx, draft("Lunch", "12.5", core.Food))

	change, err := s.Remove(ctx, added.Transaction.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !change.Removed || change.Transaction.ID != added.Transaction.ID {
		t.Fatalf("unexpected change: %+v", change)
	}
	if !change.Ledger.Equal(before) {
		t.Fatalf("add then remove should restore the ledger")
	}

	reloaded := newStore(t, backend, Options{})
	got, _ := reloaded.Transactions()
	if len(got) != 0 {
		t.Fatalf("removal not persisted: %+v", got)
	}
}

func TestStore_RemoveUnknownIDIsNoop(t *testing.T) {
	backend := newBackend()
	s := newStore(t, backend, Options{})
	ctx := context.Background()
	_, _ = s.Add(ctx, draft("Lunch", "12.5", core.Food))
	writes := backend.writes

	change, err := s.Remove(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if change.Removed || len(change.Ledger) != 1 {
		t.Fatalf("unexpected change: %+v", change)
	}
	if backend.writes != writes+1 {
		t.Fatalf("remove should save even when nothing matched")
	}
}

func TestStore_SaveFailureKeepsMutationAndRetries(t *testing.T) {
	backend := newBackend()
	s := newStore(t, backend, Options{})
	ctx := context.Background()

	backend.failWrites = true
	change, err := s.Add(ctx, draft("Lunch", "12.5", core.Food))
	if err != nil {
		t.Fatalf("Add should succeed despite the save failure: %v", err)
	}
	var perr *PersistenceError
	if !errors.As(change.SaveErr, &perr) || perr.Op != "write" {
		t.Fatalf("expected write PersistenceError, got %v", change.SaveErr)
	}
	l, _ := s.Transactions()
	if len(l) != 1 {
		t.Fatalf("in-memory ledger should keep the transaction")
	}

	backend.failWrites = false
	change, _ = s.Add(ctx, draft("Taxi", "30", core.Transport))
	if change.SaveErr != nil {
		t.Fatalf("unexpected save error: %v", change.SaveErr)
	}

	reloaded := newStore(t, backend, Options{})
	got, _ := reloaded.Transactions()
	if len(got) != 2 {
		t.Fatalf("next successful save should persist the full ledger, got %d", len(got))
	}
}

func TestStore_NotReadyBeforeOpen(t *testing.T) {
	s := New(memory.New(), Options{Logger: log.Discard()})
	ctx := context.Background()

	if s.IsReady() {
		t.Fatalf("store should not be ready before Open")
	}
	if _, err := s.Transactions(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Transactions err = %v", err)
	}
	if _, err := s.Summary(now); !errors.Is(err, ErrNotReady) {
		t.Errorf("Summary err = %v", err)
	}
	if _, err := s.Add(ctx, draft("x", "1", core.Food)); !errors.Is(err, ErrNotReady) {
		t.Errorf("Add err = %v", err)
	}
	if _, err := s.Remove(ctx, "x"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Remove err = %v", err)
	}

	if err := s.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	select {
	case <-s.Ready():
	default:
		t.Fatalf("Ready should be closed after Open")
	}
}

func TestStore_OpenHonoursStartupDelay(t *testing.T) {
	s := New(memory.New(), Options{Logger: log.Discard(), StartupDelay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Open(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Open err = %v, want deadline exceeded", err)
	}
	if s.IsReady() {
		t.Fatalf("store must stay unloaded when the wait is abandoned")
	}
}

func TestStore_ScenarioAddTwoAndSummarize(t *testing.T) {
	s := newStore(t, memory.New(), Options{})
	ctx := context.Background()

	_, _ = s.AddAt(ctx, draft("Lunch", "12.50", core.Food), now.Add(-2*time.Hour))
	_, _ = s.AddAt(ctx, draft("Taxi", "30", core.Transport), now.Add(-time.Hour))

	sum, err := s.Summary(now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got := core.FormatAmount(sum.TotalBalance); got != "42.50" {
		t.Errorf("total = %s", got)
	}
	if got := core.FormatAmount(sum.WeeklyTotal); got != "42.50" {
		t.Errorf("weekly = %s", got)
	}
	if got := core.FormatAmount(sum.MonthlyTotal); got != "42.50" {
		t.Errorf("monthly = %s", got)
	}
	if sum.Top == nil || sum.Top.Category != core.Transport {
		t.Errorf("top = %+v, want transport", sum.Top)
	}
}

func TestStore_ScenarioOldTransactionOnlyInTotal(t *testing.T) {
	s := newStore(t, memory.New(), Options{})
	ctx := context.Background()

	_, _ = s.AddAt(ctx, draft("Rent", "500", core.Home), now.AddDate(0, -2, 0))
	_, _ = s.AddAt(ctx, draft("Coffee", "2", core.Food), now)

	sum, _ := s.Summary(now)
	if got := core.FormatAmount(sum.TotalBalance); got != "502.00" {
		t.Errorf("total = %s", got)
	}
	if got := core.FormatAmount(sum.WeeklyTotal); got != "2.00" {
		t.Errorf("weekly = %s", got)
	}
	if got := core.FormatAmount(sum.MonthlyTotal); got != "2.00" {
		t.Errorf("monthly = %s", got)
	}
	if sum.Top == nil || sum.Top.Category != core.Home {
		t.Errorf("top = %+v, want home", sum.Top)
	}
}

func TestStore_NotifiesCommittedChanges(t *testing.T) {
	var events []Event
	notifier := NotifierFunc(func(_ context.Context, e Event) error {
		events = append(events, e)
		return nil
	})
	s := newStore(t, memory.New(), Options{Notifier: notifier})
	ctx := context.Background()

	_, _ = s.Add(ctx, draft("", "1", core.Food)) // rejected, no event
	added, _ := s.Add(ctx, draft("Lunch", "12.5", core.Food))
	_, _ = s.Remove(ctx, "unknown") // no-op, no event
	_, _ = s.Remove(ctx, added.Transaction.ID)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != EventAdded || events[1].Type != EventRemoved {
		t.Fatalf("unexpected event types: %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Transaction.ID != added.Transaction.ID {
		t.Fatalf("removed event carries %q", events[1].Transaction.ID)
	}
}

func TestStore_NotifierFailureDoesNotUndoMutation(t *testing.T) {
	notifier := NotifierFunc(func(context.Context, Event) error { return errors.New("broker down") })
	s := newStore(t, memory.New(), Options{Notifier: notifier})

	change, err := s.Add(context.Background(), draft("Lunch", "12.5", core.Food))
	if err != nil || change.SaveErr != nil {
		t.Fatalf("Add: %v / %v", err, change.SaveErr)
	}
	l, _ := s.Transactions()
	if len(l) != 1 {
		t.Fatalf("mutation should survive a notifier failure")
	}
}

func TestStore_ConcurrentAddsKeepUniqueIDs(t *testing.T) {
	s := newStore(t, memory.New(), Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(ctx, draft("x", "1", core.Other))
		}()
	}
	wg.Wait()

	l, _ := s.Transactions()
	if len(l) != 50 {
		t.Fatalf("expected 50 transactions, got %d", len(l))
	}
	if !l.UniqueIDs() {
		t.Fatalf("ids should be unique")
	}
}

func TestStore_SnapshotRevisionTracksChanges(t *testing.T) {
	s := newStore(t, memory.New(), Options{})
	ctx := context.Background()

	_, rev0, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	added, _ := s.Add(ctx, draft("Lunch", "12.5", core.Food))
	l, rev1, _ := s.Snapshot()
	if rev1 == rev0 || len(l) != 1 {
		t.Fatalf("add should bump the revision: %d -> %d", rev0, rev1)
	}
	_, _ = s.Remove(ctx, added.Transaction.ID)
	if _, rev2, _ := s.Snapshot(); rev2 == rev1 {
		t.Fatalf("remove should bump the revision")
	}
}

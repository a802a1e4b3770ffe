package core

// Ledger is the ordered collection of recorded transactions, newest first.
// It is the only source of truth: summary figures are always derived.
type Ledger []Transaction

// Clone returns an independent copy of the ledger.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return Ledger{}
	}
	return append(Ledger(nil), l...)
}

// Prepend returns a new ledger with t in front of the existing entries.
func (l Ledger) Prepend(t Transaction) Ledger {
	out := make(Ledger, 0, len(l)+1)
	out = append(out, t)
	return append(out, l...)
}

// Without returns a new ledger lacking the transaction with the given id,
// together with the removed transaction. ok is false when id is absent.
func (l Ledger) Without(id string) (out Ledger, removed Transaction, ok bool) {
	out = make(Ledger, 0, len(l))
	for _, t := range l {
		if t.ID == id && !ok {
			removed, ok = t, true
			continue
		}
		out = append(out, t)
	}
	return out, removed, ok
}

// Find returns the transaction with the given id.
func (l Ledger) Find(id string) (Transaction, bool) {
	for _, t := range l {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// Contains reports whether a transaction with the given id exists.
func (l Ledger) Contains(id string) bool {
	_, ok := l.Find(id)
	return ok
}

// UniqueIDs reports whether all transaction ids are pairwise distinct.
func (l Ledger) UniqueIDs() bool {
	seen := make(map[string]struct{}, len(l))
	for _, t := range l {
		if _, dup := seen[t.ID]; dup {
			return false
		}
		seen[t.ID] = struct{}{}
	}
	return true
}

// Equal compares two ledgers field for field, in order.
func (l Ledger) Equal(o Ledger) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

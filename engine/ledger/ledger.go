// Package ledger is the append-only record of unlock ids that have fired.
package ledger

import "sort"

// Ledger records achieved unlock ids in the order they fired.
type Ledger struct {
	order []string
	seen  map[string]bool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{seen: map[string]bool{}}
}

// Append records id. Returns false if id was already present.
func (l *Ledger) Append(id string) bool {
	if l.seen[id] {
		return false
	}
	l.seen[id] = true
	l.order = append(l.order, id)
	return true
}

// Contains reports whether id has fired.
func (l *Ledger) Contains(id string) bool {
	return l.seen[id]
}

// Len returns the number of recorded ids.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Entries returns ids in firing order.
func (l *Ledger) Entries() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Snapshot returns the achieved ids in ascending order, the form persisted
// across restarts.
func (l *Ledger) Snapshot() []string {
	out := l.Entries()
	sort.Strings(out)
	return out
}

// Retain drops every id for which keep returns false and returns the
// dropped ids. Only used when content is rebuilt.
func (l *Ledger) Retain(keep func(id string) bool) []string {
	var kept, dropped []string
	for _, id := range l.order {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		dropped = append(dropped, id)
		delete(l.seen, id)
	}
	l.order = kept
	return dropped
}

// Reset empties the ledger.
func (l *Ledger) Reset() {
	l.order = nil
	l.seen = map[string]bool{}
}

// Package registry owns the loaded unlock definitions, their runtime state,
// and the topic index used to find candidates for a signal.
package registry

import (
	"fmt"
	"sort"

	"github.com/nathoo/unlockcore/engine/condition"
	"github.com/nathoo/unlockcore/types"
)

// DuplicateIDError is returned by Load when two definitions share an id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate unlock id %q", e.ID)
}

// AlreadyAchievedError signals a caller bug: MarkAchieved called twice.
type AlreadyAchievedError struct {
	ID string
}

func (e *AlreadyAchievedError) Error() string {
	return fmt.Sprintf("unlock %q is already achieved", e.ID)
}

// UnknownUnlockError is returned for ids not present in the registry.
type UnknownUnlockError struct {
	ID string
}

func (e *UnknownUnlockError) Error() string {
	return fmt.Sprintf("unknown unlock %q", e.ID)
}

type entry struct {
	def   types.UnlockDef
	state types.UnlockState
}

// Registry holds definitions and the inverted topic index. Each index list
// is kept sorted by id and only contains Pending entries.
type Registry struct {
	entries map[string]*entry
	ids     []string
	index   map[types.Topic][]string
}

// Load builds a registry from defs. Definitions are immutable afterwards.
func Load(defs []types.UnlockDef) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*entry, len(defs)),
		index:   map[types.Topic][]string{},
	}
	for _, def := range defs {
		if _, ok := r.entries[def.ID]; ok {
			return nil, &DuplicateIDError{ID: def.ID}
		}
		r.entries[def.ID] = &entry{def: def, state: types.Pending}
		r.ids = append(r.ids, def.ID)
	}
	sort.Strings(r.ids)

	// Walk ids in order so every index list comes out sorted.
	for _, id := range r.ids {
		for _, topic := range condition.ReferencedTopics(r.entries[id].def.Condition) {
			r.index[topic] = append(r.index[topic], id)
		}
	}
	return r, nil
}

// CandidatesFor returns the Pending unlock ids whose condition references
// topic, in ascending id order. The slice is a copy.
func (r *Registry) CandidatesFor(topic types.Topic) []string {
	ids := r.index[topic]
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// MarkAchieved transitions id from Pending to Achieved and drops it from the
// topic index.
func (r *Registry) MarkAchieved(id string) error {
	e, ok := r.entries[id]
	if !ok {
		return &UnknownUnlockError{ID: id}
	}
	if e.state == types.Achieved {
		return &AlreadyAchievedError{ID: id}
	}
	e.state = types.Achieved
	for _, topic := range condition.ReferencedTopics(e.def.Condition) {
		r.index[topic] = removeSorted(r.index[topic], id)
		if len(r.index[topic]) == 0 {
			delete(r.index, topic)
		}
	}
	return nil
}

// Def returns the definition for id.
func (r *Registry) Def(id string) (types.UnlockDef, bool) {
	e, ok := r.entries[id]
	if !ok {
		return types.UnlockDef{}, false
	}
	return e.def, true
}

// State returns the runtime state for id.
func (r *Registry) State(id string) (types.UnlockState, bool) {
	e, ok := r.entries[id]
	if !ok {
		return types.Pending, false
	}
	return e.state, true
}

// IDs returns all unlock ids in ascending order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.ids)
}

// PendingCount returns how many definitions are still Pending.
func (r *Registry) PendingCount() int {
	n := 0
	for _, e := range r.entries {
		if e.state == types.Pending {
			n++
		}
	}
	return n
}

// Topics returns every indexed topic with at least one Pending listener.
func (r *Registry) Topics() []types.Topic {
	out := make([]types.Topic, 0, len(r.index))
	for t := range r.index {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func removeSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i >= len(ids) || ids[i] != id {
		return ids
	}
	return append(ids[:i], ids[i+1:]...)
}

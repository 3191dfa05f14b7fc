// Package signals holds the latest observed value per topic and the set of
// topics that have pulsed a completion. Pure data, no evaluation logic.
package signals

import (
	"sort"

	"github.com/nathoo/unlockcore/types"
)

// Store is the signal store. The zero value is not usable; call NewStore.
type Store struct {
	values    map[types.Topic]float64
	completed map[types.Topic]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		values:    map[types.Topic]float64{},
		completed: map[types.Topic]bool{},
	}
}

// RecordCompleted marks topic as having pulsed at least once. Returns true
// only the first time.
func (s *Store) RecordCompleted(topic types.Topic) bool {
	if s.completed[topic] {
		return false
	}
	s.completed[topic] = true
	return true
}

// RecordValue overwrites the latest value for topic. Previous values are not kept.
func (s *Store) RecordValue(topic types.Topic, value float64) {
	s.values[topic] = value
}

// Apply records sig and returns true if the store observed something new:
// always for value changes, only the first pulse for completions.
func (s *Store) Apply(sig types.Signal) bool {
	switch sig.Kind {
	case types.SignalCompleted:
		return s.RecordCompleted(sig.Topic)
	case types.SignalValueChanged:
		s.RecordValue(sig.Topic, sig.Value)
		return true
	default:
		return false
	}
}

// Value returns the latest value for topic and whether one was observed.
func (s *Store) Value(topic types.Topic) (float64, bool) {
	v, ok := s.values[topic]
	return v, ok
}

// IsCompleted returns true if topic has ever pulsed.
func (s *Store) IsCompleted(topic types.Topic) bool {
	return s.completed[topic]
}

// Values returns a copy of all latest values.
func (s *Store) Values() map[types.Topic]float64 {
	out := make(map[types.Topic]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// CompletedTopics returns the pulsed topics in ascending order.
func (s *Store) CompletedTopics() []types.Topic {
	out := make([]types.Topic, 0, len(s.completed))
	for t := range s.completed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct topics observed.
func (s *Store) Len() int {
	n := len(s.values)
	for t := range s.completed {
		if _, ok := s.values[t]; !ok {
			n++
		}
	}
	return n
}

// Reset forgets every observation.
func (s *Store) Reset() {
	s.values = map[types.Topic]float64{}
	s.completed = map[types.Topic]bool{}
}

// Package condition evaluates condition trees against a read-only view of
// the signal store. Evaluation is pure and side-effect free.
package condition

import (
	"sort"

	"github.com/nathoo/unlockcore/types"
)

// View is the read-only store surface conditions are evaluated against.
type View interface {
	Value(topic types.Topic) (float64, bool)
	IsCompleted(topic types.Topic) bool
}

// Evaluate reports whether c is satisfied by the current view. And stops at
// the first unsatisfied child, Or at the first satisfied one, in list order.
// An unknown kind is never satisfied.
func Evaluate(c types.Condition, v View) bool {
	switch c.Kind {
	case types.CondTrue:
		return true

	case types.CondCompleted:
		return v.IsCompleted(c.Topic)

	case types.CondThreshold:
		current, ok := v.Value(c.Topic)
		if !ok {
			return false
		}
		return Compare(current, c.Target, c.Op)

	case types.CondAnd:
		for _, child := range c.Children {
			if !Evaluate(child, v) {
				return false
			}
		}
		return true

	case types.CondOr:
		for _, child := range c.Children {
			if Evaluate(child, v) {
				return true
			}
		}
		return false

	case types.CondNot:
		if len(c.Children) != 1 {
			return false
		}
		return !Evaluate(c.Children[0], v)

	default:
		return false
	}
}

// Compare applies op to current and target. Eq is exact float64 equality.
func Compare(current, target float64, op types.CompareOp) bool {
	switch op {
	case types.OpEq:
		return current == target
	case types.OpGe:
		return current >= target
	case types.OpGt:
		return current > target
	case types.OpLe:
		return current <= target
	case types.OpLt:
		return current < target
	default:
		return false
	}
}

// ValidOp reports whether op is a known comparison operator.
func ValidOp(op types.CompareOp) bool {
	switch op {
	case types.OpEq, types.OpGe, types.OpGt, types.OpLe, types.OpLt:
		return true
	}
	return false
}

// ReferencedTopics returns every topic referenced by a leaf of c, each once,
// in ascending order.
func ReferencedTopics(c types.Condition) []types.Topic {
	seen := map[types.Topic]bool{}
	collectTopics(c, seen)
	topics := make([]types.Topic, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

func collectTopics(c types.Condition, seen map[types.Topic]bool) {
	switch c.Kind {
	case types.CondCompleted, types.CondThreshold:
		seen[c.Topic] = true
	}
	for _, child := range c.Children {
		collectTopics(child, seen)
	}
}

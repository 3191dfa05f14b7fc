// Package types defines the shared data structures for the unlock engine.
// This package contains only type definitions and constructors, no evaluation logic.
package types

// Topic identifies one signal stream, conventionally "domain:identifier"
// (e.g. "research:bone_crafting", "kills:goblin").
type Topic = string

// UnlockTopicPrefix namespaces the completion pulse emitted when an unlock
// is achieved.
const UnlockTopicPrefix = "unlock:"

// UnlockTopic returns the topic pulsed when the given unlock is achieved.
func UnlockTopic(unlockID string) Topic {
	return UnlockTopicPrefix + unlockID
}

// SignalKind distinguishes the two inbound signal shapes.
type SignalKind int

const (
	SignalCompleted SignalKind = iota
	SignalValueChanged
)

func (k SignalKind) String() string {
	switch k {
	case SignalCompleted:
		return "completed"
	case SignalValueChanged:
		return "value_changed"
	default:
		return "unknown"
	}
}

// Signal is an inbound fact about a topic.
type Signal struct {
	Kind  SignalKind
	Topic Topic
	Value float64 // only for SignalValueChanged
}

// StatusCompleted builds a one-shot completion pulse.
func StatusCompleted(topic Topic) Signal {
	return Signal{Kind: SignalCompleted, Topic: topic}
}

// ValueChanged builds a latest-value update.
func ValueChanged(topic Topic, value float64) Signal {
	return Signal{Kind: SignalValueChanged, Topic: topic, Value: value}
}

// CompareOp is a threshold comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "Eq"
	OpGe CompareOp = "Ge"
	OpGt CompareOp = "Gt"
	OpLe CompareOp = "Le"
	OpLt CompareOp = "Lt"
)

// ConditionKind tags a node of a condition tree.
type ConditionKind string

const (
	CondTrue      ConditionKind = "true"
	CondCompleted ConditionKind = "completed"
	CondThreshold ConditionKind = "threshold"
	CondAnd       ConditionKind = "and"
	CondOr        ConditionKind = "or"
	CondNot       ConditionKind = "not"
)

// Condition is a node of a recursive condition tree. Each node exclusively
// owns its children; trees are acyclic by construction.
type Condition struct {
	Kind     ConditionKind
	Topic    Topic       // completed, threshold
	Target   float64     // threshold
	Op       CompareOp   // threshold
	Children []Condition // and, or, not (exactly one child)
}

// Always returns a condition that is always satisfied.
func Always() Condition {
	return Condition{Kind: CondTrue}
}

// Completed returns a leaf satisfied once the topic has pulsed.
func Completed(topic Topic) Condition {
	return Condition{Kind: CondCompleted, Topic: topic}
}

// Threshold returns a leaf comparing the latest value of topic against target.
func Threshold(topic Topic, target float64, op CompareOp) Condition {
	return Condition{Kind: CondThreshold, Topic: topic, Target: target, Op: op}
}

// And returns a condition satisfied when every child is.
func And(children ...Condition) Condition {
	return Condition{Kind: CondAnd, Children: children}
}

// Or returns a condition satisfied when any child is.
func Or(children ...Condition) Condition {
	return Condition{Kind: CondOr, Children: children}
}

// Not returns a condition satisfied when child is not.
func Not(child Condition) Condition {
	return Condition{Kind: CondNot, Children: []Condition{child}}
}

// UnlockDef is a declarative rule pairing a condition with a reward id.
type UnlockDef struct {
	ID          string
	DisplayName string // optional
	RewardID    string
	Condition   Condition
}

// UnlockState is the runtime state of one definition.
type UnlockState int

const (
	Pending UnlockState = iota
	Achieved
)

func (s UnlockState) String() string {
	if s == Achieved {
		return "achieved"
	}
	return "pending"
}

// UnlockAchieved is the outbound notification produced exactly once per
// definition.
type UnlockAchieved struct {
	UnlockID    string
	RewardID    string
	DisplayName string
	Replayed    bool // true when emitted by Restore rather than evaluation
}

// Result is the output of processing one signal.
type Result struct {
	Signals       []Signal         // the inbound signal followed by chained unlock pulses
	Evaluated     []string         // candidate ids evaluated, in order
	Notifications []UnlockAchieved // newly achieved unlocks, in emission order
}

// UnlockStatus is one row of Engine.Status.
type UnlockStatus struct {
	ID          string
	DisplayName string
	RewardID    string
	State       UnlockState
}

// ContentMeta describes a loaded content pack.
type ContentMeta struct {
	Title   string
	Version string
}

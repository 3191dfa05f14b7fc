// Package engine provides the Engine that wires the signal store, the
// unlock registry and the completed ledger into a single evaluator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/nathoo/unlockcore/engine/condition"
	"github.com/nathoo/unlockcore/engine/ledger"
	"github.com/nathoo/unlockcore/engine/registry"
	"github.com/nathoo/unlockcore/engine/signals"
	"github.com/nathoo/unlockcore/types"
)

// ErrRestoreAfterSignal is returned when Restore is called after the engine
// has processed a live signal, or a second time.
var ErrRestoreAfterSignal = errors.New("restore must run once, before any signal is processed")

// Engine owns all unlock state. It is not safe for concurrent use; feed it
// from a single goroutine (see Run).
type Engine struct {
	defs   []types.UnlockDef
	store  *signals.Store
	reg    *registry.Registry
	ledger *ledger.Ledger
	log    *slog.Logger

	// retired holds achieved ids whose definitions a Reload removed. They
	// are re-applied silently if the content brings them back.
	retired map[string]bool

	chain    bool
	primed   bool
	started  bool
	restored bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithoutChaining disables the "unlock:<id>" completion pulse emitted when
// an unlock is achieved.
func WithoutChaining() Option {
	return func(e *Engine) {
		e.chain = false
	}
}

// New creates an engine from definitions. Fails on duplicate ids.
func New(defs []types.UnlockDef, opts ...Option) (*Engine, error) {
	reg, err := registry.Load(defs)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	e := &Engine{
		defs:    defs,
		store:   signals.NewStore(),
		reg:     reg,
		ledger:  ledger.New(),
		retired: map[string]bool{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		chain:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OnSignal processes one signal to completion and returns the notifications
// it produced. Candidates are evaluated in ascending id order; chained
// unlock pulses are processed after the candidates of the signal that
// caused them.
func (e *Engine) OnSignal(sig types.Signal) types.Result {
	var result types.Result
	e.started = true
	if !e.primed {
		e.prime(&result)
	}

	queue := []types.Signal{sig}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		result.Signals = append(result.Signals, s)

		// A repeated completion pulse changes nothing.
		if !e.store.Apply(s) {
			continue
		}

		candidates := e.reg.CandidatesFor(s.Topic)
		if len(candidates) == 0 {
			continue
		}
		e.log.Debug("evaluating candidates", "topic", s.Topic, "kind", s.Kind.String(), "count", len(candidates))

		for _, id := range candidates {
			def, _ := e.reg.Def(id)
			result.Evaluated = append(result.Evaluated, id)
			if !condition.Evaluate(def.Condition, e.store) {
				continue
			}
			n, ok := e.achieve(def)
			if !ok {
				continue
			}
			result.Notifications = append(result.Notifications, n)
			if e.chain {
				queue = append(queue, types.StatusCompleted(types.UnlockTopic(id)))
			}
		}
	}
	return result
}

// Completed is shorthand for OnSignal(types.StatusCompleted(topic)).
func (e *Engine) Completed(topic types.Topic) types.Result {
	return e.OnSignal(types.StatusCompleted(topic))
}

// SetValue is shorthand for OnSignal(types.ValueChanged(topic, value)).
func (e *Engine) SetValue(topic types.Topic, value float64) types.Result {
	return e.OnSignal(types.ValueChanged(topic, value))
}

// Hydrate processes signals in order and returns the combined result. Used
// after Restore to republish producer state.
func (e *Engine) Hydrate(sigs []types.Signal) types.Result {
	var combined types.Result
	if !e.primed {
		e.started = true
		e.prime(&combined)
	}
	for _, sig := range sigs {
		r := e.OnSignal(sig)
		combined.Signals = append(combined.Signals, r.Signals...)
		combined.Evaluated = append(combined.Evaluated, r.Evaluated...)
		combined.Notifications = append(combined.Notifications, r.Notifications...)
	}
	return combined
}

// Prime evaluates definitions that reference no topic, plus every Pending
// definition that references a topic already in the store, such as the
// dependents of restored unlocks or definitions added by Reload. It runs
// implicitly before the first signal; calling it directly lets a host
// collect those notifications at startup. Later calls are no-ops until
// content changes.
func (e *Engine) Prime() types.Result {
	var result types.Result
	e.started = true
	if !e.primed {
		e.prime(&result)
	}
	return result
}

func (e *Engine) prime(result *types.Result) {
	e.primed = true

	due := map[string]bool{}
	for _, id := range e.reg.IDs() {
		def, _ := e.reg.Def(id)
		if len(condition.ReferencedTopics(def.Condition)) == 0 {
			due[id] = true
		}
	}
	// Topics observed before priming (restored unlock pulses, or the whole
	// store after a reload) never pulse again for new candidates.
	observed := e.store.CompletedTopics()
	for topic := range e.store.Values() {
		observed = append(observed, topic)
	}
	for _, topic := range observed {
		for _, id := range e.reg.CandidatesFor(topic) {
			due[id] = true
		}
	}
	ids := make([]string, 0, len(due))
	for id := range due {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var chained []types.Signal
	for _, id := range ids {
		if st, _ := e.reg.State(id); st == types.Achieved {
			continue
		}
		def, _ := e.reg.Def(id)
		result.Evaluated = append(result.Evaluated, id)
		if !condition.Evaluate(def.Condition, e.store) {
			continue
		}
		n, ok := e.achieve(def)
		if !ok {
			continue
		}
		result.Notifications = append(result.Notifications, n)
		if e.chain {
			chained = append(chained, types.StatusCompleted(types.UnlockTopic(id)))
		}
	}
	for _, sig := range chained {
		r := e.OnSignal(sig)
		result.Signals = append(result.Signals, r.Signals...)
		result.Evaluated = append(result.Evaluated, r.Evaluated...)
		result.Notifications = append(result.Notifications, r.Notifications...)
	}
}

// achieve moves def into the Achieved state and the ledger.
func (e *Engine) achieve(def types.UnlockDef) (types.UnlockAchieved, bool) {
	if err := e.reg.MarkAchieved(def.ID); err != nil {
		// Unreachable: the candidate index only holds Pending ids.
		e.log.Error("mark achieved failed", "unlock_id", def.ID, "error", err)
		return types.UnlockAchieved{}, false
	}
	e.ledger.Append(def.ID)
	e.log.Info("unlock achieved", "unlock_id", def.ID, "reward_id", def.RewardID)
	return types.UnlockAchieved{
		UnlockID:    def.ID,
		RewardID:    def.RewardID,
		DisplayName: def.DisplayName,
	}, true
}

// Restore marks every id in the snapshot as Achieved without evaluating
// conditions and returns one replayed notification per id in ascending
// order. Ids missing from the registry are skipped with a warning.
func (e *Engine) Restore(ids []string) ([]types.UnlockAchieved, error) {
	if e.started || e.restored {
		return nil, ErrRestoreAfterSignal
	}
	e.restored = true

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var replayed []types.UnlockAchieved
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			continue
		}
		def, ok := e.reg.Def(id)
		if !ok {
			e.log.Warn("restored unlock not in registry, ignoring", "unlock_id", id)
			continue
		}
		if err := e.reg.MarkAchieved(id); err != nil {
			e.log.Error("restore mark achieved failed", "unlock_id", id, "error", err)
			continue
		}
		e.ledger.Append(id)
		if e.chain {
			e.store.RecordCompleted(types.UnlockTopic(id))
		}
		replayed = append(replayed, types.UnlockAchieved{
			UnlockID:    def.ID,
			RewardID:    def.RewardID,
			DisplayName: def.DisplayName,
			Replayed:    true,
		})
	}
	e.log.Info("ledger restored", "requested", len(ids), "replayed", len(replayed))
	return replayed, nil
}

// Snapshot returns the achieved unlock ids in ascending order.
func (e *Engine) Snapshot() []string {
	return e.ledger.Snapshot()
}

// Achieved returns the achieved ids in firing order.
func (e *Engine) Achieved() []string {
	return e.ledger.Entries()
}

// IsAchieved reports whether id has fired.
func (e *Engine) IsAchieved(id string) bool {
	return e.ledger.Contains(id)
}

// Reset discards all observations, states and the ledger. Definitions are kept.
func (e *Engine) Reset() {
	reg, err := registry.Load(e.defs)
	if err != nil {
		// defs were accepted by New; they cannot fail now.
		e.log.Error("reset registry failed", "error", err)
		return
	}
	e.reg = reg
	e.store.Reset()
	e.ledger.Reset()
	clear(e.retired)
	e.primed = false
	e.started = false
	e.restored = false
	e.log.Info("engine reset")
}

// Reload rebuilds the registry from defs. Pending state is discarded; ledger
// entries still defined are re-applied as Achieved without notification,
// the rest leave the ledger but are remembered, so a later Reload that
// defines them again re-applies them instead of firing twice. Observed
// signals are kept, and the next Prime evaluates every Pending definition
// that references an observed topic.
func (e *Engine) Reload(defs []types.UnlockDef) error {
	reg, err := registry.Load(defs)
	if err != nil {
		return fmt.Errorf("reloading registry: %w", err)
	}
	dropped := e.ledger.Retain(func(id string) bool {
		_, ok := reg.Def(id)
		return ok
	})
	for _, id := range dropped {
		e.log.Warn("achieved unlock removed from content", "unlock_id", id)
		e.retired[id] = true
	}
	for _, id := range sortedKeys(e.retired) {
		if _, ok := reg.Def(id); !ok {
			continue
		}
		e.log.Info("achieved unlock back in content", "unlock_id", id)
		e.ledger.Append(id)
		delete(e.retired, id)
	}
	for _, id := range e.ledger.Entries() {
		if err := reg.MarkAchieved(id); err != nil {
			return fmt.Errorf("reapplying %s: %w", id, err)
		}
	}
	e.defs = defs
	e.reg = reg
	e.primed = false
	e.log.Info("content reloaded", "unlocks", reg.Len(), "achieved", e.ledger.Len())
	return nil
}

// Run consumes signals from in until it is closed or ctx is done, passing
// each result to emit. It is the single consumer that serializes producers.
func (e *Engine) Run(ctx context.Context, in <-chan types.Signal, emit func(types.Result)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-in:
			if !ok {
				return nil
			}
			r := e.OnSignal(sig)
			if emit != nil {
				emit(r)
			}
		}
	}
}

// Status returns one row per definition in ascending id order.
func (e *Engine) Status() []types.UnlockStatus {
	ids := e.reg.IDs()
	rows := make([]types.UnlockStatus, 0, len(ids))
	for _, id := range ids {
		def, _ := e.reg.Def(id)
		st, _ := e.reg.State(id)
		rows = append(rows, types.UnlockStatus{
			ID:          id,
			DisplayName: def.DisplayName,
			RewardID:    def.RewardID,
			State:       st,
		})
	}
	return rows
}

// Def returns the definition for id.
func (e *Engine) Def(id string) (types.UnlockDef, bool) {
	return e.reg.Def(id)
}

// Total returns the number of loaded definitions.
func (e *Engine) Total() int {
	return e.reg.Len()
}

// Value returns the latest value observed for topic.
func (e *Engine) Value(topic types.Topic) (float64, bool) {
	return e.store.Value(topic)
}

// IsCompleted reports whether topic has pulsed.
func (e *Engine) IsCompleted(topic types.Topic) bool {
	return e.store.IsCompleted(topic)
}

// Values returns a copy of the latest observed values.
func (e *Engine) Values() map[types.Topic]float64 {
	return e.store.Values()
}

// CompletedTopics returns the pulsed topics in ascending order.
func (e *Engine) CompletedTopics() []types.Topic {
	return e.store.CompletedTopics()
}

// TopicsSeen returns the number of distinct topics observed.
func (e *Engine) TopicsSeen() int {
	return e.store.Len()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

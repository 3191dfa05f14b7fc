// Package rewards routes unlock notifications to reward consumers.
// Dispatch is a single pass: consumers never feed notifications back in.
package rewards

import (
	"fmt"

	"github.com/nathoo/unlockcore/types"
)

// Consumer reacts to one notification. How a reward is applied is entirely
// up to the consumer.
type Consumer func(n types.UnlockAchieved) error

type handler struct {
	rewardID string // empty matches every reward
	consume  Consumer
}

// Router holds consumers keyed by exact reward id.
type Router struct {
	handlers []handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Handle registers c for notifications carrying rewardID.
func (r *Router) Handle(rewardID string, c Consumer) {
	r.handlers = append(r.handlers, handler{rewardID: rewardID, consume: c})
}

// HandleAll registers c for every notification.
func (r *Router) HandleAll(c Consumer) {
	r.handlers = append(r.handlers, handler{consume: c})
}

// DispatchError collects consumer failures from one Dispatch call.
type DispatchError struct {
	Failures []Failure
}

// Failure pairs a notification with the error its consumer returned.
type Failure struct {
	UnlockID string
	RewardID string
	Err      error
}

func (e *DispatchError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("reward %s for unlock %s: %v", f.RewardID, f.UnlockID, f.Err)
	}
	return fmt.Sprintf("reward dispatch failed for %d notifications; first: %s: %v",
		len(e.Failures), e.Failures[0].RewardID, e.Failures[0].Err)
}

// Dispatch delivers notifications in order. Every matching consumer runs,
// in registration order, even when an earlier one fails. Returns the number
// of deliveries made and a *DispatchError if any consumer failed.
func (r *Router) Dispatch(notifications []types.UnlockAchieved) (int, error) {
	delivered := 0
	var failures []Failure

	for _, n := range notifications {
		for _, h := range r.handlers {
			if h.rewardID != "" && h.rewardID != n.RewardID {
				continue
			}
			delivered++
			if err := h.consume(n); err != nil {
				failures = append(failures, Failure{UnlockID: n.UnlockID, RewardID: n.RewardID, Err: err})
			}
		}
	}

	if len(failures) > 0 {
		return delivered, &DispatchError{Failures: failures}
	}
	return delivered, nil
}

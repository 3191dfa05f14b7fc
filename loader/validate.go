package loader

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/nathoo/unlockcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled content for unique ids and consistent
// references. Warnings are stored on c; errors abort loading.
func validate(c *Content) error {
	ve := &ValidationError{}

	ids := map[string]bool{}
	for i, def := range c.Unlocks {
		where := sourceOf(c, i)
		if def.ID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("unlock with empty id%s", where))
			continue
		}
		if ids[def.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate unlock id %q%s", def.ID, where))
		}
		ids[def.ID] = true

		if def.RewardID == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("unlock %q has no reward", def.ID))
		}
	}

	for _, def := range c.Unlocks {
		if def.ID == "" {
			continue
		}
		walkLeaves(def.Condition, func(topic types.Topic) {
			if strings.HasPrefix(topic, types.UnlockTopicPrefix) {
				target := strings.TrimPrefix(topic, types.UnlockTopicPrefix)
				if target == def.ID {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"unlock %q depends on its own completion", def.ID))
				} else if !ids[target] {
					ve.Warnings = append(ve.Warnings, fmt.Sprintf(
						"unlock %q waits for undefined unlock %q", def.ID, target))
				}
				return
			}
			if !strings.Contains(topic, ":") {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"unlock %q references topic %q without a domain prefix", def.ID, topic))
			}
		})
	}

	for _, cycle := range dependencyCycles(c.Unlocks, ids) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf(
			"unlocks wait for each other in a cycle: %s", strings.Join(cycle, " -> ")))
	}

	c.Warnings = append(c.Warnings, ve.Warnings...)
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// dependencyCycles finds cycles among unlocks linked by completion topics.
// A cycle can only fire if some member has another way in, such as an Or
// branch, so it is reported as a warning. Each cycle starts at its smallest
// id and closes on it; self-dependencies are reported elsewhere.
func dependencyCycles(defs []types.UnlockDef, defined map[string]bool) [][]string {
	deps := map[string][]string{}
	for _, def := range defs {
		if def.ID == "" {
			continue
		}
		walkLeaves(def.Condition, func(topic types.Topic) {
			target, ok := strings.CutPrefix(topic, types.UnlockTopicPrefix)
			if ok && target != def.ID && defined[target] && !slices.Contains(deps[def.ID], target) {
				deps[def.ID] = append(deps[def.ID], target)
			}
		})
	}
	for id := range deps {
		sort.Strings(deps[id])
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := map[string]int{}
	seen := map[string]bool{}
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		stack = append(stack, id)
		for _, next := range deps[id] {
			switch state[next] {
			case unvisited:
				visit(next)
			case onStack:
				start := slices.Index(stack, next)
				cycle := rotateToMin(stack[start:])
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, append(cycle, cycle[0]))
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	ids := make([]string, 0, len(deps))
	for id := range deps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}

// rotateToMin returns a copy of ids rotated so the smallest id comes first.
func rotateToMin(ids []string) []string {
	low := 0
	for i, id := range ids {
		if id < ids[low] {
			low = i
		}
	}
	out := make([]string, 0, len(ids))
	out = append(out, ids[low:]...)
	return append(out, ids[:low]...)
}

// walkLeaves calls fn for every leaf topic, duplicates included.
func walkLeaves(c types.Condition, fn func(types.Topic)) {
	switch c.Kind {
	case types.CondCompleted, types.CondThreshold:
		fn(c.Topic)
	}
	for _, child := range c.Children {
		walkLeaves(child, fn)
	}
}

func sourceOf(c *Content, i int) string {
	if i < len(c.Sources) && c.Sources[i] != "" {
		return " in " + c.Sources[i]
	}
	return ""
}

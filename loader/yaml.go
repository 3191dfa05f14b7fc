package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/unlockcore/engine/condition"
	"github.com/nathoo/unlockcore/types"
)

// yamlFile is the declarative YAML content format:
//
//	title: Village
//	unlocks:
//	  - id: unlock_b
//	    reward: research:bone_crafting
//	    condition:
//	      and:
//	        - completed: research:invaders
//	        - threshold: {topic: "resource:bones", op: Ge, target: 20}
type yamlFile struct {
	Title   string       `yaml:"title"`
	Version string       `yaml:"version"`
	Unlocks []yamlUnlock `yaml:"unlocks"`
}

type yamlUnlock struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Reward    string         `yaml:"reward"`
	Condition *yamlCondition `yaml:"condition"`
}

// yamlCondition is a tagged variant: exactly one field must be set.
type yamlCondition struct {
	Always    *bool            `yaml:"always"`
	Completed *string          `yaml:"completed"`
	After     *string          `yaml:"after"`
	Threshold *yamlThreshold   `yaml:"threshold"`
	And       *[]yamlCondition `yaml:"and"`
	Or        *[]yamlCondition `yaml:"or"`
	Not       *yamlCondition   `yaml:"not"`
}

type yamlThreshold struct {
	Topic  string   `yaml:"topic"`
	Op     string   `yaml:"op"`
	Target *float64 `yaml:"target"`
}

// parseYAML decodes one YAML content document.
func parseYAML(data []byte, source string) (*Content, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	c := &Content{Meta: types.ContentMeta{Title: f.Title, Version: f.Version}}
	for _, u := range f.Unlocks {
		def := types.UnlockDef{ID: u.ID, DisplayName: u.Name, RewardID: u.Reward}
		if u.Condition == nil {
			return nil, fmt.Errorf("compiling unlock %s (%s): %w", u.ID, source,
				&DanglingConditionError{UnlockID: u.ID, Reason: "missing condition"})
		}
		cond, err := u.Condition.compile()
		if err != nil {
			return nil, fmt.Errorf("compiling unlock %s (%s): %w", u.ID, source,
				&DanglingConditionError{UnlockID: u.ID, Reason: err.Error()})
		}
		def.Condition = cond
		c.Unlocks = append(c.Unlocks, def)
		c.Sources = append(c.Sources, source)
	}
	return c, nil
}

func (y *yamlCondition) compile() (types.Condition, error) {
	set := 0
	for _, present := range []bool{
		y.Always != nil, y.Completed != nil, y.After != nil, y.Threshold != nil,
		y.And != nil, y.Or != nil, y.Not != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return types.Condition{}, fmt.Errorf("condition node must have exactly one variant, got %d", set)
	}

	switch {
	case y.Always != nil:
		if !*y.Always {
			return types.Condition{}, fmt.Errorf("always must be true")
		}
		return types.Always(), nil

	case y.Completed != nil:
		if *y.Completed == "" {
			return types.Condition{}, fmt.Errorf("completed check without topic")
		}
		return types.Completed(*y.Completed), nil

	case y.After != nil:
		if *y.After == "" {
			return types.Condition{}, fmt.Errorf("after without unlock id")
		}
		return types.Completed(types.UnlockTopic(*y.After)), nil

	case y.Threshold != nil:
		t := y.Threshold
		if t.Topic == "" {
			return types.Condition{}, fmt.Errorf("threshold check without topic")
		}
		op := types.CompareOp(t.Op)
		if !condition.ValidOp(op) {
			return types.Condition{}, fmt.Errorf("unknown comparison operator %q", t.Op)
		}
		if t.Target == nil {
			return types.Condition{}, fmt.Errorf("threshold on %q has no numeric target", t.Topic)
		}
		return types.Threshold(t.Topic, *t.Target, op), nil

	case y.And != nil:
		children, err := compileYAMLChildren(*y.And)
		if err != nil {
			return types.Condition{}, err
		}
		return types.And(children...), nil

	case y.Or != nil:
		children, err := compileYAMLChildren(*y.Or)
		if err != nil {
			return types.Condition{}, err
		}
		return types.Or(children...), nil

	default:
		child, err := y.Not.compile()
		if err != nil {
			return types.Condition{}, err
		}
		return types.Not(child), nil
	}
}

func compileYAMLChildren(nodes []yamlCondition) ([]types.Condition, error) {
	var children []types.Condition
	for i := range nodes {
		child, err := nodes[i].compile()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

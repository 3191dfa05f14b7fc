package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/unlockcore/engine/condition"
	"github.com/nathoo/unlockcore/types"
)

// DanglingConditionError reports a structurally malformed condition tree:
// an unknown operator, an unknown node kind, or an unbalanced variant.
type DanglingConditionError struct {
	UnlockID string
	Reason   string
}

func (e *DanglingConditionError) Error() string {
	return fmt.Sprintf("unlock %q: malformed condition: %s", e.UnlockID, e.Reason)
}

// rawUnlock holds an unlock table before compilation.
type rawUnlock struct {
	id     string
	table  *lua.LTable
	source string
	order  int
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// compileLua converts the collected Lua data into content.
func compileLua(coll *collector) (*Content, error) {
	c := &Content{}
	if coll.content != nil {
		c.Meta = types.ContentMeta{
			Title:   getString(coll.content, "title"),
			Version: getString(coll.content, "version"),
		}
	}

	raws := append([]rawUnlock(nil), coll.unlocks...)
	sort.SliceStable(raws, func(i, j int) bool { return raws[i].order < raws[j].order })

	for _, raw := range raws {
		def, err := compileUnlock(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling unlock %s (%s): %w", raw.id, raw.source, err)
		}
		c.Unlocks = append(c.Unlocks, def)
		c.Sources = append(c.Sources, raw.source)
	}
	return c, nil
}

func compileUnlock(raw rawUnlock) (types.UnlockDef, error) {
	def := types.UnlockDef{
		ID:          raw.id,
		DisplayName: getString(raw.table, "name"),
		RewardID:    getString(raw.table, "reward"),
	}
	condTbl := getTable(raw.table, "condition")
	if condTbl == nil {
		return def, &DanglingConditionError{UnlockID: raw.id, Reason: "missing condition"}
	}
	cond, err := compileCondition(condTbl)
	if err != nil {
		return def, &DanglingConditionError{UnlockID: raw.id, Reason: err.Error()}
	}
	def.Condition = cond
	return def, nil
}

// compileCondition converts one condition table, recursively.
func compileCondition(tbl *lua.LTable) (types.Condition, error) {
	kind := types.ConditionKind(getString(tbl, "kind"))
	switch kind {
	case types.CondTrue:
		return types.Always(), nil

	case types.CondCompleted:
		topic := getString(tbl, "topic")
		if topic == "" {
			return types.Condition{}, fmt.Errorf("completed check without topic")
		}
		return types.Completed(topic), nil

	case types.CondThreshold:
		topic := getString(tbl, "topic")
		if topic == "" {
			return types.Condition{}, fmt.Errorf("threshold check without topic")
		}
		op := types.CompareOp(getString(tbl, "op"))
		if !condition.ValidOp(op) {
			return types.Condition{}, fmt.Errorf("unknown comparison operator %q", op)
		}
		target, ok := tbl.RawGetString("target").(lua.LNumber)
		if !ok {
			return types.Condition{}, fmt.Errorf("threshold on %q has no numeric target", topic)
		}
		return types.Threshold(topic, float64(target), op), nil

	case types.CondAnd, types.CondOr, types.CondNot:
		children, err := compileChildren(getTable(tbl, "children"))
		if err != nil {
			return types.Condition{}, err
		}
		if kind == types.CondNot && len(children) != 1 {
			return types.Condition{}, fmt.Errorf("not takes exactly one condition, got %d", len(children))
		}
		return types.Condition{Kind: kind, Children: children}, nil

	case "":
		return types.Condition{}, fmt.Errorf("condition node without kind")

	default:
		return types.Condition{}, fmt.Errorf("unknown condition kind %q", kind)
	}
}

func compileChildren(tbl *lua.LTable) ([]types.Condition, error) {
	var children []types.Condition
	if tbl == nil {
		return nil, nil
	}
	n := tbl.MaxN()
	listOnly := true
	tbl.ForEach(func(k, _ lua.LValue) {
		idx, ok := k.(lua.LNumber)
		if !ok || float64(idx) != float64(int(idx)) || int(idx) < 1 || int(idx) > n {
			listOnly = false
		}
	})
	if !listOnly {
		return nil, fmt.Errorf("children must be a list of conditions")
	}
	for i := 1; i <= n; i++ {
		childTbl, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("child %d is not a condition", i)
		}
		child, err := compileCondition(childTbl)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// sortedContentFiles returns content files with content.lua first and the
// rest sorted alphabetically.
func sortedContentFiles(files []string) []string {
	var head string
	var others []string
	for _, f := range files {
		if f == "content.lua" {
			head = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if head != "" {
		return append([]string{head}, others...)
	}
	return others
}

package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/unlockcore/types"
)

// registerAPI registers all Lua constructors and condition helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Content { title = "...", version = "..." }
	L.SetGlobal("Content", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.content = tbl
		return 0
	}))

	// Unlock "id" { name = "...", reward = "...", condition = ... } (curried)
	L.SetGlobal("Unlock", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.unlocks = append(coll.unlocks, rawUnlock{
				id:     id,
				table:  tbl,
				source: coll.file,
				order:  coll.nextSourceOrder(),
			})
			return 0
		}))
		return 1
	}))
}

func registerConditionHelpers(L *lua.LState) {
	// Always()
	L.SetGlobal("Always", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString(types.CondTrue))
		L.Push(tbl)
		return 1
	}))

	// Completed("research:bone_crafting")
	L.SetGlobal("Completed", L.NewFunction(func(L *lua.LState) int {
		topic := L.CheckString(1)
		L.Push(completedTable(L, topic))
		return 1
	}))

	// After("unlock_id"): satisfied once another unlock has been achieved.
	L.SetGlobal("After", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(completedTable(L, types.UnlockTopic(id)))
		return 1
	}))

	// Threshold("kills:goblin", "Ge", 10)
	L.SetGlobal("Threshold", L.NewFunction(func(L *lua.LState) int {
		topic := L.CheckString(1)
		op := L.CheckString(2)
		target := L.CheckNumber(3)
		L.Push(thresholdTable(L, topic, op, target))
		return 1
	}))

	// Shorthands: AtLeast("resource:bones", 20) etc.
	shorthands := map[string]types.CompareOp{
		"AtLeast": types.OpGe,
		"Above":   types.OpGt,
		"AtMost":  types.OpLe,
		"Below":   types.OpLt,
		"Equals":  types.OpEq,
	}
	for name, op := range shorthands {
		op := op
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			topic := L.CheckString(1)
			target := L.CheckNumber(2)
			L.Push(thresholdTable(L, topic, string(op), target))
			return 1
		}))
	}

	// And { c1, c2, ... } / Or { c1, c2, ... }, or And(c1, c2, ...)
	L.SetGlobal("And", L.NewFunction(func(L *lua.LState) int {
		L.Push(gateTable(L, types.CondAnd, gateChildren(L)))
		return 1
	}))
	L.SetGlobal("Or", L.NewFunction(func(L *lua.LState) int {
		L.Push(gateTable(L, types.CondOr, gateChildren(L)))
		return 1
	}))

	// Not(condition)
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		L.CheckTable(1)
		L.Push(gateTable(L, types.CondNot, argList(L)))
		return 1
	}))
}

// gateChildren returns the children of an And/Or call. A single argument
// without a kind is the list form; anything else is a list of conditions
// passed as arguments.
func gateChildren(L *lua.LState) *lua.LTable {
	if L.GetTop() == 0 {
		return L.NewTable()
	}
	first := L.CheckTable(1)
	if L.GetTop() == 1 && first.RawGetString("kind") == lua.LNil {
		return first
	}
	return argList(L)
}

// argList collects every call argument into an array table. Non-table
// arguments are rejected at compile time.
func argList(L *lua.LState) *lua.LTable {
	list := L.NewTable()
	for i := 1; i <= L.GetTop(); i++ {
		list.Append(L.Get(i))
	}
	return list
}

func completedTable(L *lua.LState, topic string) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(types.CondCompleted))
	tbl.RawSetString("topic", lua.LString(topic))
	return tbl
}

func thresholdTable(L *lua.LState, topic, op string, target lua.LNumber) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(types.CondThreshold))
	tbl.RawSetString("topic", lua.LString(topic))
	tbl.RawSetString("op", lua.LString(op))
	tbl.RawSetString("target", target)
	return tbl
}

func gateTable(L *lua.LState, kind types.ConditionKind, children *lua.LTable) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(kind))
	tbl.RawSetString("children", children)
	return tbl
}

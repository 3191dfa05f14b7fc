package condition

import (
	"reflect"
	"testing"

	"github.com/nathoo/unlockcore/types"
)

// fakeView is a map-backed View for tests.
type fakeView struct {
	values    map[types.Topic]float64
	completed map[types.Topic]bool
}

func (f fakeView) Value(topic types.Topic) (float64, bool) {
	v, ok := f.values[topic]
	return v, ok
}

func (f fakeView) IsCompleted(topic types.Topic) bool {
	return f.completed[topic]
}

func testView() fakeView {
	return fakeView{
		values: map[types.Topic]float64{
			"resource:bones": 20,
			"kills:goblin":   3,
		},
		completed: map[types.Topic]bool{
			"research:invaders": true,
		},
	}
}

func TestEvaluate(t *testing.T) {
	v := testView()

	tests := []struct {
		name string
		cond types.Condition
		want bool
	}{
		{"always", types.Always(), true},
		{"completed: pulsed", types.Completed("research:invaders"), true},
		{"completed: never pulsed", types.Completed("research:fire"), false},
		{"threshold: Ge at boundary", types.Threshold("resource:bones", 20, types.OpGe), true},
		{"threshold: Gt at boundary", types.Threshold("resource:bones", 20, types.OpGt), false},
		{"threshold: Le at boundary", types.Threshold("resource:bones", 20, types.OpLe), true},
		{"threshold: Lt at boundary", types.Threshold("resource:bones", 20, types.OpLt), false},
		{"threshold: Eq exact", types.Threshold("kills:goblin", 3, types.OpEq), true},
		{"threshold: Eq off by fraction", types.Threshold("kills:goblin", 3.0000001, types.OpEq), false},
		{"threshold: unobserved topic", types.Threshold("resource:wood", 0, types.OpGe), false},
		{"threshold: unknown op", types.Threshold("resource:bones", 0, "Ne"), false},
		{"and: empty", types.And(), true},
		{"or: empty", types.Or(), false},
		{"and: all hold", types.And(
			types.Completed("research:invaders"),
			types.Threshold("resource:bones", 20, types.OpGe),
		), true},
		{"and: one fails", types.And(
			types.Completed("research:invaders"),
			types.Threshold("resource:bones", 21, types.OpGe),
		), false},
		{"or: one holds", types.Or(
			types.Completed("research:fire"),
			types.Threshold("kills:goblin", 1, types.OpGt),
		), true},
		{"not: negates", types.Not(types.Completed("research:fire")), true},
		{"not: without child", types.Condition{Kind: types.CondNot}, false},
		{"unknown kind", types.Condition{Kind: "xor"}, false},
		{"nested", types.Or(
			types.And(types.Completed("research:fire"), types.Always()),
			types.And(types.Not(types.Completed("research:fire")), types.Threshold("kills:goblin", 3, types.OpLe)),
		), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.cond, v)
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// countingView counts lookups so short-circuiting can be observed.
type countingView struct {
	fakeView
	lookups int
}

func (c *countingView) IsCompleted(topic types.Topic) bool {
	c.lookups++
	return c.fakeView.IsCompleted(topic)
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	v := &countingView{fakeView: testView()}

	Evaluate(types.And(types.Completed("research:fire"), types.Completed("research:invaders")), v)
	if v.lookups != 1 {
		t.Errorf("And lookups = %d, want 1", v.lookups)
	}

	v.lookups = 0
	Evaluate(types.Or(types.Completed("research:invaders"), types.Completed("research:fire")), v)
	if v.lookups != 1 {
		t.Errorf("Or lookups = %d, want 1", v.lookups)
	}
}

func TestValidOp(t *testing.T) {
	for _, op := range []types.CompareOp{types.OpEq, types.OpGe, types.OpGt, types.OpLe, types.OpLt} {
		if !ValidOp(op) {
			t.Errorf("ValidOp(%q) = false", op)
		}
	}
	for _, op := range []types.CompareOp{"", "eq", "Ne", ">="} {
		if ValidOp(op) {
			t.Errorf("ValidOp(%q) = true", op)
		}
	}
}

func TestReferencedTopics(t *testing.T) {
	cond := types.And(
		types.Completed("research:invaders"),
		types.Or(
			types.Threshold("resource:bones", 20, types.OpGe),
			types.Not(types.Completed("research:invaders")),
		),
		types.Always(),
	)
	got := ReferencedTopics(cond)
	want := []types.Topic{"research:invaders", "resource:bones"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReferencedTopics() = %v, want %v", got, want)
	}

	if got := ReferencedTopics(types.Always()); len(got) != 0 {
		t.Errorf("Always references %v, want none", got)
	}
}

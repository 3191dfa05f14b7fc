package registry

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/unlockcore/types"
)

func testDefs() []types.UnlockDef {
	return []types.UnlockDef{
		{ID: "unlock_b", RewardID: "building:bone_wall", Condition: types.And(
			types.Completed("research:invaders"),
			types.Threshold("resource:bones", 20, types.OpGe),
		)},
		{ID: "unlock_a", RewardID: "research:bone_crafting", Condition: types.Completed("research:invaders")},
		{ID: "unlock_c", RewardID: "misc:start", Condition: types.Always()},
	}
}

func TestLoad_DuplicateID(t *testing.T) {
	defs := append(testDefs(), types.UnlockDef{ID: "unlock_a", Condition: types.Always()})
	_, err := Load(defs)

	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIDError, got %v", err)
	}
	if dup.ID != "unlock_a" {
		t.Errorf("dup.ID = %q", dup.ID)
	}
}

func TestCandidatesFor(t *testing.T) {
	r, err := Load(testDefs())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		topic types.Topic
		want  []string
	}{
		{"research:invaders", []string{"unlock_a", "unlock_b"}},
		{"resource:bones", []string{"unlock_b"}},
		{"resource:wood", nil},
	}
	for _, tt := range tests {
		got := r.CandidatesFor(tt.topic)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CandidatesFor(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestCandidatesFor_ReturnsCopy(t *testing.T) {
	r, _ := Load(testDefs())
	got := r.CandidatesFor("research:invaders")
	got[0] = "mutated"
	if r.CandidatesFor("research:invaders")[0] != "unlock_a" {
		t.Error("CandidatesFor must not expose the index")
	}
}

func TestMarkAchieved(t *testing.T) {
	r, _ := Load(testDefs())

	if err := r.MarkAchieved("unlock_a"); err != nil {
		t.Fatalf("MarkAchieved: %v", err)
	}
	if st, _ := r.State("unlock_a"); st != types.Achieved {
		t.Errorf("state = %v, want Achieved", st)
	}
	if got := r.CandidatesFor("research:invaders"); !reflect.DeepEqual(got, []string{"unlock_b"}) {
		t.Errorf("achieved id still indexed: %v", got)
	}
	if r.PendingCount() != 2 {
		t.Errorf("PendingCount() = %d, want 2", r.PendingCount())
	}

	var already *AlreadyAchievedError
	if err := r.MarkAchieved("unlock_a"); !errors.As(err, &already) {
		t.Errorf("second MarkAchieved = %v, want AlreadyAchievedError", err)
	}

	var unknown *UnknownUnlockError
	if err := r.MarkAchieved("nope"); !errors.As(err, &unknown) {
		t.Errorf("MarkAchieved(nope) = %v, want UnknownUnlockError", err)
	}
}

func TestTopicsDropEmptyLists(t *testing.T) {
	r, _ := Load(testDefs())
	if got := r.Topics(); !reflect.DeepEqual(got, []types.Topic{"research:invaders", "resource:bones"}) {
		t.Fatalf("Topics() = %v", got)
	}
	_ = r.MarkAchieved("unlock_b")
	if got := r.Topics(); !reflect.DeepEqual(got, []types.Topic{"research:invaders"}) {
		t.Errorf("Topics() after achieving unlock_b = %v", got)
	}
}

func TestAccessors(t *testing.T) {
	r, _ := Load(testDefs())

	if got := r.IDs(); !reflect.DeepEqual(got, []string{"unlock_a", "unlock_b", "unlock_c"}) {
		t.Errorf("IDs() = %v", got)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d", r.Len())
	}
	def, ok := r.Def("unlock_c")
	if !ok || def.RewardID != "misc:start" {
		t.Errorf("Def(unlock_c) = %+v, %v", def, ok)
	}
	if _, ok := r.Def("nope"); ok {
		t.Error("Def(nope) should miss")
	}
	if _, ok := r.State("nope"); ok {
		t.Error("State(nope) should miss")
	}
}

package signals

import (
	"reflect"
	"testing"

	"github.com/nathoo/unlockcore/types"
)

func TestStore_ValueOverwrites(t *testing.T) {
	s := NewStore()
	if _, ok := s.Value("resource:bones"); ok {
		t.Fatal("expected no value before first observation")
	}

	s.RecordValue("resource:bones", 5)
	s.RecordValue("resource:bones", 3)

	v, ok := s.Value("resource:bones")
	if !ok || v != 3 {
		t.Errorf("Value() = %v, %v; want 3, true", v, ok)
	}
}

func TestStore_CompletedIsSticky(t *testing.T) {
	s := NewStore()
	if !s.RecordCompleted("research:invaders") {
		t.Error("first pulse should report new")
	}
	if s.RecordCompleted("research:invaders") {
		t.Error("second pulse should not report new")
	}
	if !s.IsCompleted("research:invaders") {
		t.Error("topic should be completed")
	}
	if s.IsCompleted("research:fire") {
		t.Error("unpulsed topic should not be completed")
	}
}

func TestStore_Apply(t *testing.T) {
	s := NewStore()

	tests := []struct {
		name string
		sig  types.Signal
		want bool
	}{
		{"first pulse", types.StatusCompleted("research:invaders"), true},
		{"repeat pulse", types.StatusCompleted("research:invaders"), false},
		{"value", types.ValueChanged("resource:bones", 1), true},
		{"same value again", types.ValueChanged("resource:bones", 1), true},
		{"unknown kind", types.Signal{Kind: types.SignalKind(99), Topic: "x:y"}, false},
	}
	for _, tt := range tests {
		if got := s.Apply(tt.sig); got != tt.want {
			t.Errorf("%s: Apply() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStore_CompletedDoesNotSetValue(t *testing.T) {
	s := NewStore()
	s.RecordCompleted("research:invaders")
	if _, ok := s.Value("research:invaders"); ok {
		t.Error("a pulse must not create a value")
	}
}

func TestStore_CopiesAndCounts(t *testing.T) {
	s := NewStore()
	s.RecordValue("resource:bones", 2)
	s.RecordValue("resource:wood", 4)
	s.RecordCompleted("resource:wood")
	s.RecordCompleted("research:invaders")

	vals := s.Values()
	vals["resource:bones"] = 100
	if v, _ := s.Value("resource:bones"); v != 2 {
		t.Error("Values() must return a copy")
	}

	want := []types.Topic{"research:invaders", "resource:wood"}
	if got := s.CompletedTopics(); !reflect.DeepEqual(got, want) {
		t.Errorf("CompletedTopics() = %v, want %v", got, want)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	s.Reset()
	if s.Len() != 0 || s.IsCompleted("research:invaders") {
		t.Error("Reset should forget everything")
	}
}

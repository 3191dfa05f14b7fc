package types

import "testing"

func TestUnlockTopic(t *testing.T) {
	if got := UnlockTopic("unlock_b"); got != "unlock:unlock_b" {
		t.Errorf("UnlockTopic = %q", got)
	}
}

func TestSignalConstructors(t *testing.T) {
	s := StatusCompleted("research:invaders")
	if s.Kind != SignalCompleted || s.Topic != "research:invaders" || s.Value != 0 {
		t.Errorf("StatusCompleted = %+v", s)
	}
	v := ValueChanged("resource:bones", 20)
	if v.Kind != SignalValueChanged || v.Value != 20 {
		t.Errorf("ValueChanged = %+v", v)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SignalCompleted.String(), "completed"},
		{SignalValueChanged.String(), "value_changed"},
		{SignalKind(7).String(), "unknown"},
		{Pending.String(), "pending"},
		{Achieved.String(), "achieved"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNotHasOneChild(t *testing.T) {
	n := Not(Always())
	if n.Kind != CondNot || len(n.Children) != 1 || n.Children[0].Kind != CondTrue {
		t.Errorf("Not = %+v", n)
	}
}

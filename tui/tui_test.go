package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/unlockcore/cli"
	"github.com/nathoo/unlockcore/engine"
	"github.com/nathoo/unlockcore/loader"
	"github.com/nathoo/unlockcore/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"Unlocked: Bone Crafting -> research:bone_crafting", kindUnlocked},
		{"Restored: Bone Crafting -> research:bone_crafting", kindRestored},
		{"[x] Bone Crafting (research:bone_crafting)", kindAchievedRow},
		{"[ ] Bone Walls (building:bone_wall)", kindPlain},
		{"[Saved 1 unlocks to test.]", kindSystem},
		{"[trace] Signals: 2", kindTrace},
		{"[Load failed: open x: no such file]", kindError},
		{"[Unknown command: fly. Type /help for available commands.]", kindError},
		{"[Usage: done <topic>]", kindError},
		{"Nothing new.", kindPlain},
		{"", kindPlain},
	}
	for _, tt := range tests {
		got := classifyLine(tt.line)
		if got != tt.want {
			t.Errorf("classifyLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"Unlocked: Bone Walls -> building:bone_wall", 24,
			"Unlocked: Bone Walls ->\nbuilding:bone_wall"},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
	}
	for _, tt := range tests {
		got := wordWrap(tt.text, tt.width)
		if got != tt.want {
			t.Errorf("wordWrap(%q, %d) =\n  %q\nwant:\n  %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		achieved, total, width int
		want                   string
	}{
		{0, 4, 8, "--------"},
		{2, 4, 8, "####----"},
		{4, 4, 8, "########"},
		{1, 0, 4, "----"},
		{3, 3, 0, ""},
	}
	for _, tt := range tests {
		got := progressBar(tt.achieved, tt.total, tt.width)
		if got != tt.want {
			t.Errorf("progressBar(%d, %d, %d) = %q, want %q", tt.achieved, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("done research:invaders")
	h.Push("set resource:bones 20")
	h.Push("/state")

	for _, want := range []string{"/state", "set resource:bones 20", "done research:invaders", "done research:invaders"} {
		got, ok := h.Prev()
		if !ok || got != want {
			t.Errorf("Prev() = %q (ok=%v), want %q", got, ok, want)
		}
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")
	h.Prev()
	h.Prev()

	if next, ok := h.Next(); !ok || next != "b" {
		t.Errorf("Next() = %q (ok=%v), want b", next, ok)
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false when past newest entry")
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	h.Prev()
	if prev, _ := h.Prev(); prev != "b" {
		t.Errorf("oldest = %q, want b", prev)
	}
}

func TestHistory_ResubmitMovesToNewest(t *testing.T) {
	h := NewHistory(5)
	h.Push("a")
	h.Push("b")
	h.Push("a")
	h.Push("")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if prev, _ := h.Prev(); prev != "a" {
		t.Errorf("newest = %q, want a", prev)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	content := &loader.Content{
		Meta: types.ContentMeta{Title: "Test Village"},
		Unlocks: []types.UnlockDef{
			{ID: "unlock_a", DisplayName: "Bone Crafting", RewardID: "research:bone_crafting",
				Condition: types.Completed("research:invaders")},
			{ID: "unlock_b", RewardID: "building:bone_wall",
				Condition: types.Threshold("resource:bones", 20, types.OpGe)},
		},
	}
	eng, err := engine.New(content.Unlocks)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	s := cli.NewSession(eng, content)
	s.SaveDir = t.TempDir()

	m := New(s)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return updated.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.handleEnter()
	return updated.(Model), cmd
}

func TestModel_SubmitSignal(t *testing.T) {
	m := newTestModel(t)
	m, cmd := submit(t, m, "done research:invaders")
	if cmd != nil {
		t.Error("signal command should not return a tea command")
	}

	var found bool
	for _, rl := range m.rawLines {
		if rl.kind == kindUnlocked && strings.Contains(rl.text, "Bone Crafting") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unlocked line, got %+v", m.rawLines)
	}
	if m.rawLines[0].text != "> done research:invaders" || !m.rawLines[0].isInput {
		t.Errorf("expected echoed input first, got %+v", m.rawLines[0])
	}
	if m.history.Len() != 1 {
		t.Errorf("history len = %d, want 1", m.history.Len())
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	m, cmd := submit(t, m, "/quit")
	if !m.quitting {
		t.Error("expected quitting after /quit")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	if m.View() != "" {
		t.Error("view should be empty once quitting")
	}
}

func TestModel_StatusBar(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "done research:invaders")

	bar := m.renderStatusBar()
	if !strings.Contains(bar, "Test Village | 1/2 unlocked") {
		t.Errorf("status bar missing progress: %q", bar)
	}
	if !strings.Contains(bar, "Topics: 2") {
		t.Errorf("status bar missing topic count: %q", bar)
	}
}

func TestModel_HelpAddsNavigation(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "/help")

	var joined []string
	for _, rl := range m.rawLines {
		joined = append(joined, rl.text)
	}
	if !strings.Contains(strings.Join(joined, "\n"), "Up/Down for command history") {
		t.Error("expected navigation hint in help")
	}
}

func TestModel_EmptySubmitIgnored(t *testing.T) {
	m := newTestModel(t)
	m, _ = submit(t, m, "   ")
	if len(m.rawLines) != 0 {
		t.Errorf("expected no output, got %+v", m.rawLines)
	}
}

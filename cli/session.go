package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/unlockcore/engine"
	"github.com/nathoo/unlockcore/engine/rewards"
	"github.com/nathoo/unlockcore/engine/save"
	"github.com/nathoo/unlockcore/loader"
	"github.com/nathoo/unlockcore/types"
)

// LedgerStore is the durable side of the completed ledger.
type LedgerStore interface {
	Append(ids ...string) (int, error)
	Reset() error
}

// Session owns an engine plus everything a console needs around it: reward
// dispatch, save files, durable ledger and content reloads. The plain CLI
// and the TUI both drive one.
type Session struct {
	Engine     *engine.Engine
	Content    *loader.Content
	ContentDir string
	SaveDir    string
	Router     *rewards.Router
	Store      LedgerStore // optional, set with UseStore
	Log        *slog.Logger
	Options    []engine.Option
	Trace      bool
}

// NewSession creates a session around eng. The router starts empty.
func NewSession(eng *engine.Engine, content *loader.Content) *Session {
	home, _ := os.UserHomeDir()
	return &Session{
		Engine:  eng,
		Content: content,
		SaveDir: filepath.Join(home, ".unlockcore", "saves"),
		Router:  rewards.NewRouter(),
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Banner returns the greeting lines shown before the first prompt.
func (s *Session) Banner() []string {
	title := s.Content.Meta.Title
	if title == "" {
		title = "Unlocks"
	}
	if s.Content.Meta.Version != "" {
		title += " v" + s.Content.Meta.Version
	}
	return []string{
		title,
		fmt.Sprintf("%d unlocks loaded, %d achieved.", s.Engine.Total(), len(s.Engine.Snapshot())),
		"",
	}
}

// Replay formats and dispatches notifications produced by a restore.
func (s *Session) Replay(replayed []types.UnlockAchieved) []string {
	return s.deliver(replayed)
}

// Start primes the engine and returns the notifications for unlocks whose
// condition needs no signal.
func (s *Session) Start() []string {
	r := s.Engine.Prime()
	lines := s.deliver(r.Notifications)
	if s.Trace {
		lines = append(lines, FormatTrace(r)...)
	}
	return lines
}

// Exec runs one console line and returns its output. quit is true when the
// session should end.
func (s *Session) Exec(input string) (lines []string, quit bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false
	}
	if strings.HasPrefix(input, "/") {
		return s.meta(input)
	}

	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "done", "complete":
		if len(parts) != 2 {
			return []string{system("Usage: done <topic>")}, false
		}
		return s.signal(types.StatusCompleted(parts[1])), false

	case "set":
		if len(parts) != 3 {
			return []string{system("Usage: set <topic> <value>")}, false
		}
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return []string{system(fmt.Sprintf("Not a number: %s", parts[2]))}, false
		}
		return s.signal(types.ValueChanged(parts[1], v)), false

	case "add":
		if len(parts) != 3 {
			return []string{system("Usage: add <topic> <delta>")}, false
		}
		d, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return []string{system(fmt.Sprintf("Not a number: %s", parts[2]))}, false
		}
		cur, _ := s.Engine.Value(parts[1])
		return s.signal(types.ValueChanged(parts[1], cur+d)), false

	default:
		return []string{system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0]))}, false
	}
}

func (s *Session) signal(sig types.Signal) []string {
	r := s.Engine.OnSignal(sig)
	lines := s.deliver(r.Notifications)
	if len(lines) == 0 {
		lines = append(lines, "Nothing new.")
	}
	if s.Trace {
		lines = append(lines, FormatTrace(r)...)
	}
	return lines
}

// UseStore makes store the durable ledger. Live notifications reach it
// through a router consumer; /reset and /load rewrite it directly.
func (s *Session) UseStore(store LedgerStore) {
	if s.Router == nil {
		s.Router = rewards.NewRouter()
	}
	s.Store = store
	s.Router.HandleAll(PersistConsumer(store))
}

// PersistConsumer returns a reward consumer that appends the unlock id of
// every live notification to store. Replayed ones are already there.
func PersistConsumer(store LedgerStore) rewards.Consumer {
	return func(n types.UnlockAchieved) error {
		if n.Replayed {
			return nil
		}
		if _, err := store.Append(n.UnlockID); err != nil {
			return fmt.Errorf("persisting ledger: %w", err)
		}
		return nil
	}
}

// deliver formats notifications and routes all of them to reward consumers.
func (s *Session) deliver(ns []types.UnlockAchieved) []string {
	if len(ns) == 0 {
		return nil
	}
	var lines []string
	for _, n := range ns {
		lines = append(lines, FormatNotification(n))
	}
	if s.Router != nil {
		if _, err := s.Router.Dispatch(ns); err != nil {
			s.Log.Error("reward dispatch failed", "error", err)
			var de *rewards.DispatchError
			if errors.As(err, &de) {
				for _, f := range de.Failures {
					lines = append(lines, system(fmt.Sprintf("Reward %s failed: %v", f.RewardID, f.Err)))
				}
			} else {
				lines = append(lines, system(fmt.Sprintf("Reward dispatch failed: %v", err)))
			}
		}
	}
	return lines
}

func (s *Session) meta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{system("Goodbye.")}, true
	case "/save":
		return s.cmdSave(arg), false
	case "/load":
		return s.cmdLoad(arg), false
	case "/help":
		return helpLines(), false
	case "/state":
		return s.cmdState(), false
	case "/unlocks":
		return s.cmdUnlocks(), false
	case "/reset":
		return s.cmdReset(), false
	case "/reload":
		return s.cmdReload(), false
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			return []string{system("Trace output enabled.")}, false
		}
		return []string{system("Trace output disabled.")}, false
	default:
		return []string{system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))}, false
	}
}

func (s *Session) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	data, err := save.Save(s.Engine, s.Content.Meta)
	if err != nil {
		return []string{system(fmt.Sprintf("Save failed: %v", err))}
	}
	if err := os.MkdirAll(s.SaveDir, 0o755); err != nil {
		return []string{system(fmt.Sprintf("Save failed: %v", err))}
	}
	path := filepath.Join(s.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{system(fmt.Sprintf("Save failed: %v", err))}
	}
	return []string{system(fmt.Sprintf("Saved %d unlocks to %s.", len(s.Engine.Snapshot()), name))}
}

// cmdLoad replaces the engine with a fresh one restored from the save.
// Observed signal values are not part of a save and start empty.
func (s *Session) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	data, err := os.ReadFile(filepath.Join(s.SaveDir, name+".json"))
	if err != nil {
		return []string{system(fmt.Sprintf("Load failed: %v", err))}
	}
	sd, err := save.Load(data)
	if err != nil {
		return []string{system(fmt.Sprintf("Load failed: %v", err))}
	}

	eng, err := engine.New(s.Content.Unlocks, s.engineOptions()...)
	if err != nil {
		return []string{system(fmt.Sprintf("Load failed: %v", err))}
	}
	replayed, err := save.Apply(eng, sd)
	if err != nil {
		return []string{system(fmt.Sprintf("Load failed: %v", err))}
	}
	s.Engine = eng

	if s.Store != nil {
		if err := s.Store.Reset(); err != nil {
			s.Log.Error("resetting ledger store failed", "error", err)
		} else if _, err := s.Store.Append(eng.Snapshot()...); err != nil {
			s.Log.Error("rewriting ledger store failed", "error", err)
		}
	}

	lines := []string{system(fmt.Sprintf("Loaded %s (%d unlocks).", name, len(replayed)))}
	lines = append(lines, s.deliver(replayed)...)
	lines = append(lines, s.Start()...)
	return lines
}

func (s *Session) cmdState() []string {
	values := s.Engine.Values()
	topics := make([]string, 0, len(values))
	for t := range values {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	lines := []string{system(fmt.Sprintf("Achieved: %d/%d", len(s.Engine.Snapshot()), s.Engine.Total()))}
	if len(topics) > 0 {
		var parts []string
		for _, t := range topics {
			parts = append(parts, fmt.Sprintf("%s=%s", t, formatValue(values[t])))
		}
		lines = append(lines, system("Values: "+strings.Join(parts, ", ")))
	}
	if done := s.Engine.CompletedTopics(); len(done) > 0 {
		lines = append(lines, system("Completed: "+strings.Join(done, ", ")))
	}
	return lines
}

func (s *Session) cmdUnlocks() []string {
	var lines []string
	for _, st := range s.Engine.Status() {
		mark := " "
		if st.State == types.Achieved {
			mark = "x"
		}
		name := st.DisplayName
		if name == "" {
			name = st.ID
		}
		lines = append(lines, fmt.Sprintf("[%s] %s (%s)", mark, name, st.RewardID))
	}
	if len(lines) == 0 {
		lines = append(lines, system("No unlocks defined."))
	}
	return lines
}

func (s *Session) cmdReset() []string {
	s.Engine.Reset()
	if s.Store != nil {
		if err := s.Store.Reset(); err != nil {
			return []string{system(fmt.Sprintf("Reset failed: %v", err))}
		}
	}
	lines := []string{system("All progress cleared.")}
	return append(lines, s.Start()...)
}

func (s *Session) cmdReload() []string {
	if s.ContentDir == "" {
		return []string{system("Reload failed: no content directory.")}
	}
	content, err := loader.Load(s.ContentDir, s.Log)
	if err != nil {
		return []string{system(fmt.Sprintf("Reload failed: %v", err))}
	}
	if err := s.Engine.Reload(content.Unlocks); err != nil {
		return []string{system(fmt.Sprintf("Reload failed: %v", err))}
	}
	s.Content = content
	lines := []string{system(fmt.Sprintf("Reloaded %d unlocks.", s.Engine.Total()))}
	for _, w := range content.Warnings {
		lines = append(lines, system("Warning: "+w))
	}
	return append(lines, s.Start()...)
}

func (s *Session) engineOptions() []engine.Option {
	opts := append([]engine.Option{engine.WithLogger(s.Log)}, s.Options...)
	return opts
}

// FormatNotification renders one notification as a console line.
func FormatNotification(n types.UnlockAchieved) string {
	name := n.DisplayName
	if name == "" {
		name = n.UnlockID
	}
	if n.Replayed {
		return fmt.Sprintf("Restored: %s -> %s", name, n.RewardID)
	}
	return fmt.Sprintf("Unlocked: %s -> %s", name, n.RewardID)
}

// FormatTrace renders the signals and evaluations behind a result.
func FormatTrace(r types.Result) []string {
	var lines []string
	if len(r.Signals) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Signals: %d", len(r.Signals)))
		for _, sig := range r.Signals {
			if sig.Kind == types.SignalValueChanged {
				lines = append(lines, fmt.Sprintf("[trace]   %s %s=%s", sig.Kind, sig.Topic, formatValue(sig.Value)))
			} else {
				lines = append(lines, fmt.Sprintf("[trace]   %s %s", sig.Kind, sig.Topic))
			}
		}
	}
	if len(r.Evaluated) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Evaluated: %s", strings.Join(r.Evaluated, ", ")))
	}
	return lines
}

func helpLines() []string {
	return []string{
		"System:",
		"  /save [name]  Save achieved unlocks (default: quicksave)",
		"  /load [name]  Restore achieved unlocks (default: quicksave)",
		"  /unlocks      List unlocks and their state",
		"  /state        Dump observed values and completed topics",
		"  /reset        Clear all progress",
		"  /reload       Reload content from disk",
		"  /trace        Toggle trace output",
		"  /help         Show this help",
		"  /quit         Exit",
		"",
		"Signals:",
		"  done <topic>          Pulse a completion (alias: complete)",
		"  set <topic> <value>   Publish a new value",
		"  add <topic> <delta>   Publish current value plus delta",
	}
}

func system(text string) string {
	return "[" + text + "]"
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

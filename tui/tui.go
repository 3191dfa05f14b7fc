// Package tui provides a Bubble Tea terminal UI for driving an unlock
// engine interactively.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/unlockcore/cli"
)

// rawLine stores an unstyled output line so it can be re-wrapped and
// re-styled when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool
}

// Model is the Bubble Tea model for the console.
type Model struct {
	session *cli.Session
	startup []string // shown after the banner, e.g. restored unlocks

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	quitting bool
}

// outputMsg carries session output into the Update loop.
type outputMsg struct {
	input string
	lines []string
}

// New creates a TUI model wired to the given session. startup lines are
// shown after the banner.
func New(s *cli.Session, startup ...string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		session: s,
		startup: startup,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(s *cli.Session, startup ...string) error {
	p := tea.NewProgram(New(s, startup...), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init produces the banner and any unlocks that need no signal.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

// initialOutput primes the engine on the caller's goroutine; only the
// finished lines cross into the returned command.
func (m Model) initialOutput() tea.Cmd {
	lines := m.session.Banner()
	lines = append(lines, m.startup...)
	lines = append(lines, m.session.Start()...)
	return func() tea.Msg {
		return outputMsg{lines: lines}
	}
}

// Update handles key presses, window resizes and session output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // status bar + input line
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

// handleEnter runs the submitted line through the session.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}
	m.history.Push(input)

	lines, quit := m.session.Exec(input)
	if input == "/help" {
		lines = append(lines, "", "Navigation: PgUp/PgDn to scroll, Up/Down for command history")
	}
	m = m.appendOutput(outputMsg{input: input, lines: lines})
	if quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLine(line)})
	}
	m.rawLines = append(m.rawLines, rawLine{})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		if rl.isInput {
			styled = append(styled, stylePlayerInput.Render(wrapped))
			continue
		}
		styled = append(styled, renderLine(wrapped, rl.kind))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries to fit width.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			lineLen = len(word)
		default:
			b.WriteString(" ")
			lineLen += 1 + len(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the viewport, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap disables Up/Down on the viewport; they drive history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleUnlocked = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	styleRestored = lipgloss.NewStyle().
			Foreground(lipgloss.Color("179"))

	styleListAchieved = lipgloss.NewStyle().
				Foreground(lipgloss.Color("114"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindPlain lineKind = iota
	kindUnlocked
	kindRestored
	kindAchievedRow
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[x] "):
		return kindAchievedRow
	case strings.HasPrefix(line, "Unlocked: "):
		return kindUnlocked
	case strings.HasPrefix(line, "Restored: "):
		return kindRestored
	case isErrorLine(line):
		return kindError
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	default:
		return kindPlain
	}
}

func isErrorLine(line string) bool {
	for _, marker := range []string{"failed", "Unknown command", "Not a number", "Usage:"} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// renderLine applies the style for kind.
func renderLine(line string, kind lineKind) string {
	switch kind {
	case kindUnlocked:
		return styleUnlocked.Render(line)
	case kindRestored:
		return styleRestored.Render(line)
	case kindAchievedRow:
		return styleListAchieved.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return stylePlain.Render(line)
	}
}

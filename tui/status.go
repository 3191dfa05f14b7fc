package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// progressBar renders achieved/total as a fixed-width bar.
func progressBar(achieved, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = achieved * width / total
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

// renderStatusBar produces a full-width inverted status line showing the
// content title, unlock progress and how many topics have been observed.
func (m Model) renderStatusBar() string {
	eng := m.session.Engine
	achieved := len(eng.Snapshot())
	total := eng.Total()

	title := m.session.Content.Meta.Title
	if title == "" {
		title = "unlockcore"
	}
	left := fmt.Sprintf(" %s | %d/%d unlocked", title, achieved, total)
	right := fmt.Sprintf("Topics: %d ", eng.TopicsSeen())
	if m.session.Trace {
		right = "TRACE | " + right
	}

	// Show a bar when there is room for it.
	if bar := progressBar(achieved, total, 20); lipgloss.Width(left)+lipgloss.Width(bar)+lipgloss.Width(right)+4 < m.width {
		left += " [" + bar + "]"
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

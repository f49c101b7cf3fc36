// Package styles holds the lipgloss palette and text helpers of the terminal
// wizard.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	BgSurface = lipgloss.Color("#1a1f2e")

	AccentPrimary   = lipgloss.Color("#4fc1ff")
	AccentSecondary = lipgloss.Color("#39c5bb")
	AccentGold      = lipgloss.Color("#f5a623")

	StatusOK    = lipgloss.Color("#22c55e")
	StatusWarn  = lipgloss.Color("#f59e0b")
	StatusError = lipgloss.Color("#ef4444")

	TextPrimary   = lipgloss.Color("#e2e8f0")
	TextSecondary = lipgloss.Color("#94a3b8")
	TextMuted     = lipgloss.Color("#64748b")

	BorderNormal = lipgloss.Color("#2d3748")
)

// Box styles.
var (
	// Notice frames validation messages and fetch errors.
	Notice = lipgloss.NewStyle().
		Foreground(StatusWarn).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(StatusWarn).
		Padding(0, 1)

	// Summary frames the completion screen.
	Summary = lipgloss.NewStyle().
		Background(BgSurface).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(StatusOK).
		Padding(1, 2)

	// Cursor marks the focused row.
	Cursor = lipgloss.NewStyle().Foreground(AccentPrimary).Bold(true)
)

// Cyan renders s in the primary accent.
func Cyan(s string) string {
	return lipgloss.NewStyle().Foreground(AccentPrimary).Render(s)
}

// Teal renders s in the secondary accent.
func Teal(s string) string {
	return lipgloss.NewStyle().Foreground(AccentSecondary).Render(s)
}

// Gold renders s in AccentGold.
func Gold(s string) string {
	return lipgloss.NewStyle().Foreground(AccentGold).Render(s)
}

// Green renders s in StatusOK.
func Green(s string) string {
	return lipgloss.NewStyle().Foreground(StatusOK).Render(s)
}

// Red renders s in StatusError.
func Red(s string) string {
	return lipgloss.NewStyle().Foreground(StatusError).Render(s)
}

// Dim renders s in TextMuted.
func Dim(s string) string {
	return lipgloss.NewStyle().Foreground(TextMuted).Render(s)
}

// Secondary renders s in TextSecondary.
func Secondary(s string) string {
	return lipgloss.NewStyle().Foreground(TextSecondary).Render(s)
}

// Bold renders s in bold TextPrimary.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(TextPrimary).Render(s)
}

// Divider is a horizontal rule of width cells.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(BorderNormal).Render(strings.Repeat("─", width))
}

// Checkbox renders a multi-select marker.
func Checkbox(checked bool) string {
	if checked {
		return Green("[x]")
	}
	return Dim("[ ]")
}

// Radio renders a single-select marker.
func Radio(selected bool) string {
	if selected {
		return Green("(•)")
	}
	return Dim("( )")
}

// Truncate shortens s to max runes, appending "..." when it cuts.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 4 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

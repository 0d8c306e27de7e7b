package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette shared by every screen.
//
//nolint:gochecknoglobals // Read-only palette.
var (
	ColorHeader    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorLabel     = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	ColorValue     = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
)

//nolint:gochecknoglobals // Read-only styles.
var (
	titleStyle    = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true).Underline(true)
	labelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	detailStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)
)

// IsTTY reports whether both stdin and stdout are terminals.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3498DB")).
			Padding(0, 1)

	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C3E50")).Bold(true)
	errorStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#34495E"))
	itemStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#BDC3C7"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7F8C8D")).Italic(true)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498DB")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Bold(true)
	passStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#27AE60")).Bold(true)
	failStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#7F8C8D"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#34495E")).
			Padding(0, 1)
)

// verdictStyle colors a verdict by its conventional meaning.
func verdictStyle(verdict string) lipgloss.Style {
	switch strings.ToUpper(verdict) {
	case "PASS", "PASSED", "SUCCESS":
		return passStyle
	case "FAIL", "FAILED", "ERROR":
		return failStyle
	}
	return labelStyle
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hmans/larder/internal/ui"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#fff")).
			Background(ui.ColorPrimary).
			Padding(0, 1)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ui.ColorPrimary)

	helpKeyStyle = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(ui.ColorMuted)
)

// footerHelp renders "key desc" pairs separated by two spaces.
func footerHelp(pairs ...string) string {
	var out string
	for i := 0; i+1 < len(pairs); i += 2 {
		if out != "" {
			out += "  "
		}
		out += helpKeyStyle.Render(pairs[i]) + " " + helpStyle.Render(pairs[i+1])
	}
	return out
}

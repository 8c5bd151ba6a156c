package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmans/larder/internal/ui"
)

// closeHelpMsg is sent when the help overlay is closed
type closeHelpMsg struct{}

// helpOverlayModel displays keyboard shortcuts organized by context
type helpOverlayModel struct {
	width  int
	height int
}

func newHelpOverlayModel(width, height int) helpOverlayModel {
	return helpOverlayModel{
		width:  width,
		height: height,
	}
}

func (m helpOverlayModel) Init() tea.Cmd {
	return nil
}

func (m helpOverlayModel) Update(msg tea.Msg) (helpOverlayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "?", "esc":
			return m, func() tea.Msg {
				return closeHelpMsg{}
			}
		}
	}

	return m, nil
}

func (m helpOverlayModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	modalWidth := max(50, min(70, m.width*70/100))

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		Render("Keyboard Shortcuts")

	shortcut := func(key, desc string) string {
		keyStyle := lipgloss.NewStyle().
			Foreground(ui.ColorPrimary).
			Bold(true).
			Width(20).
			Render(key)
		return keyStyle + desc
	}

	sectionHeader := func(name string) string {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(ui.ColorBlue).
			Render(name)
	}

	var content strings.Builder
	content.WriteString(title + "\n\n")

	content.WriteString(sectionHeader("List View") + "\n")
	content.WriteString(shortcut("j/k, ↓/↑", "Navigate up/down") + "\n")
	content.WriteString(shortcut("enter", "View ingredient") + "\n")
	content.WriteString(shortcut("/", "Filter by name or origin") + "\n")
	content.WriteString(shortcut("r", "Reload from the database") + "\n")
	content.WriteString(shortcut("esc", "Clear filter") + "\n")
	content.WriteString(shortcut("q", "Quit") + "\n")
	content.WriteString("\n")

	content.WriteString(sectionHeader("Detail View") + "\n")
	content.WriteString(shortcut("j/k, ↓/↑", "Scroll up/down") + "\n")
	content.WriteString(shortcut("tab", "Switch focus (same origin/body)") + "\n")
	content.WriteString(shortcut("enter", "Open ingredient with same origin") + "\n")
	content.WriteString(shortcut("esc/backspace", "Back to list") + "\n")
	content.WriteString(shortcut("q", "Quit") + "\n")
	content.WriteString("\n")

	footer := helpKeyStyle.Render("?/esc") + " " + helpStyle.Render("close")

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, border.Render(content.String()+footer))
}

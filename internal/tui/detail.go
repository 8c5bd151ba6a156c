package tui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/ui"
)

// Cached glamour renderer
var (
	glamourRenderer     *glamour.TermRenderer
	glamourRendererOnce sync.Once
)

func getGlamourRenderer() *glamour.TermRenderer {
	glamourRendererOnce.Do(func() {
		var err error
		glamourRenderer, err = glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err != nil {
			glamourRenderer = nil
		}
	})
	return glamourRenderer
}

// backToListMsg signals navigation back to the list
type backToListMsg struct{}

// relatedItem is another ingredient sharing the selected one's origin.
type relatedItem struct {
	ingredient *food.Ingredient
}

func (i relatedItem) Title() string       { return i.ingredient.Name }
func (i relatedItem) Description() string { return strconv.FormatInt(i.ingredient.ID, 10) }
func (i relatedItem) FilterValue() string { return i.ingredient.Name }

type relatedDelegate struct{}

func (d relatedDelegate) Height() int                             { return 1 }
func (d relatedDelegate) Spacing() int                            { return 0 }
func (d relatedDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d relatedDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(relatedItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = ui.Primary.Render("▸ ")
	}
	idCol := lipgloss.NewStyle().Width(8).Render(ui.ID.Render(strconv.FormatInt(item.ingredient.ID, 10)))
	fmt.Fprint(w, cursor+idCol+item.ingredient.Name)
}

// detailModel displays a single ingredient
type detailModel struct {
	viewport      viewport.Model
	ingredient    *food.Ingredient
	width         int
	height        int
	ready         bool
	related       []*food.Ingredient
	relatedList   list.Model
	relatedActive bool
}

func newDetailModel(ing *food.Ingredient, all []*food.Ingredient, width, height int) detailModel {
	m := detailModel{
		ingredient: ing,
		width:      width,
		height:     height,
		ready:      true,
		related:    sameOrigin(ing, all),
	}
	m.relatedList = m.createRelatedList()
	m.relatedActive = len(m.related) > 0

	vpWidth := max(1, width-4)
	vpHeight := max(1, height-m.calculateHeaderHeight()-2)
	m.viewport = viewport.New(vpWidth, vpHeight)
	m.viewport.SetContent(m.renderBody())

	return m
}

// sameOrigin returns the other ingredients with the same non-empty origin,
// ordered by name.
func sameOrigin(ing *food.Ingredient, all []*food.Ingredient) []*food.Ingredient {
	if strings.TrimSpace(ing.Origin) == "" {
		return nil
	}
	var related []*food.Ingredient
	for _, other := range all {
		if other.ID != ing.ID && strings.EqualFold(other.Origin, ing.Origin) {
			related = append(related, other)
		}
	}
	sort.SliceStable(related, func(i, j int) bool {
		return strings.ToLower(related[i].Name) < strings.ToLower(related[j].Name)
	})
	return related
}

func (m detailModel) relatedListHeight() int {
	maxHeight := max(3, m.height/3)
	return min(len(m.related), maxHeight) + 2
}

func (m detailModel) createRelatedList() list.Model {
	items := make([]list.Item, len(m.related))
	for i, ing := range m.related {
		items[i] = relatedItem{ingredient: ing}
	}

	l := list.New(items, relatedDelegate{}, max(0, m.width-8), m.relatedListHeight())
	l.Title = "Same origin"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.OriginBadge.Bold(true)
	l.Styles.TitleBar = lipgloss.NewStyle().Padding(0, 0, 0, 1)
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(ui.ColorPrimary)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary)
	l.Styles.NoItems = lipgloss.NewStyle()
	return l
}

func (m detailModel) Init() tea.Cmd {
	return nil
}

func (m detailModel) Update(msg tea.Msg) (detailModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relatedList.SetSize(max(0, msg.Width-8), m.relatedListHeight())

		vpWidth := max(1, msg.Width-4)
		vpHeight := max(1, msg.Height-m.calculateHeaderHeight()-2)
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderBody())

	case tea.KeyMsg:
		// While the related list is filtering it gets every key
		if m.relatedActive && m.relatedList.FilterState() == list.Filtering {
			m.relatedList, cmd = m.relatedList.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc", "backspace":
			return m, func() tea.Msg {
				return backToListMsg{}
			}

		case "tab":
			if len(m.related) > 0 {
				m.relatedActive = !m.relatedActive
			}
			return m, nil

		case "enter":
			if m.relatedActive {
				if item, ok := m.relatedList.SelectedItem().(relatedItem); ok {
					target := item.ingredient
					return m, func() tea.Msg {
						return selectIngredientMsg{ingredient: target}
					}
				}
			}
		}
	}

	if m.relatedActive && len(m.related) > 0 {
		m.relatedList, cmd = m.relatedList.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m detailModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()

	var relatedSection string
	if len(m.related) > 0 {
		borderColor := ui.ColorMuted
		if m.relatedActive {
			borderColor = ui.ColorPrimary
		}
		relatedSection = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Width(m.width-4).
			Render(m.relatedList.View()) + "\n"
	}

	bodyBorderColor := ui.ColorMuted
	if !m.relatedActive {
		bodyBorderColor = ui.ColorPrimary
	}
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bodyBorderColor).
		Width(m.width - 4).
		Render(m.viewport.View())

	footer := helpStyle.Render(fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))) + "  "
	if len(m.related) > 0 {
		footer += footerHelp("tab", "switch", "enter", "go to") + "  "
	}
	footer += footerHelp("j/k", "scroll", "esc", "back", "q", "quit")

	return header + "\n" + relatedSection + body + "\n" + footer
}

func (m detailModel) calculateHeaderHeight() int {
	// title line, id line, borders
	height := 4
	if len(m.related) > 0 {
		height += m.relatedListHeight() + 3
	}
	return height
}

func (m detailModel) renderHeader() string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(m.ingredient.Name))
	b.WriteString("\n")
	b.WriteString(ui.ID.Render(strconv.FormatInt(m.ingredient.ID, 10)))
	if m.ingredient.Origin != "" {
		b.WriteString("  " + ui.OriginBadge.Render(m.ingredient.Origin))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1).
		Width(m.width - 4).
		Render(b.String())
}

func (m detailModel) renderBody() string {
	md := ui.IngredientMarkdown(m.ingredient)

	renderer := getGlamourRenderer()
	if renderer == nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(rendered)
}

package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/store"
	"github.com/hmans/larder/internal/ui"
)

// ingredientItem wraps an Ingredient to implement list.Item
type ingredientItem struct {
	ingredient *food.Ingredient
}

func (i ingredientItem) Title() string       { return i.ingredient.Name }
func (i ingredientItem) Description() string { return i.ingredient.Origin }
func (i ingredientItem) FilterValue() string {
	return i.ingredient.Name + " " + i.ingredient.Origin + " " + strconv.FormatInt(i.ingredient.ID, 10)
}

// itemDelegate handles rendering of list items
type itemDelegate struct {
	idWidth int
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(ingredientItem)
	if !ok {
		return
	}

	idWidth := max(d.idWidth, 4)
	originWidth := 20

	idCol := lipgloss.NewStyle().Width(idWidth).Render(ui.ID.Render(strconv.FormatInt(item.ingredient.ID, 10)))
	originCol := lipgloss.NewStyle().Width(originWidth).Render(ui.RenderOrigin(ui.Truncate(item.ingredient.Origin, originWidth-2)))

	name := item.ingredient.Name
	if maxNameWidth := m.Width() - idWidth - originWidth - 4; maxNameWidth > 0 {
		name = ui.Truncate(name, maxNameWidth)
	}

	var str string
	if index == m.Index() {
		cursor := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Render("▌")
		nameStyled := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary).Render(name)
		str = cursor + " " + idCol + originCol + nameStyled
	} else {
		str = "  " + idCol + originCol + name
	}

	fmt.Fprint(w, str)
}

// listModel is the model for the ingredient list view
type listModel struct {
	ctx         context.Context
	list        list.Model
	store       *store.Store
	ingredients []*food.Ingredient
	width       int
	height      int
	err         error
}

func newListModel(ctx context.Context, s *store.Store) listModel {
	l := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	l.Title = "Ingredients"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = listTitleStyle
	l.Styles.TitleBar = lipgloss.NewStyle().Padding(0, 0, 1, 2)
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(ui.ColorPrimary)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary)

	return listModel{
		ctx:   ctx,
		list:  l,
		store: s,
	}
}

// ingredientsLoadedMsg is sent when ingredients are loaded
type ingredientsLoadedMsg struct {
	ingredients []*food.Ingredient
}

// errMsg is sent when an error occurs
type errMsg struct {
	err error
}

// selectIngredientMsg is sent when an ingredient is selected
type selectIngredientMsg struct {
	ingredient *food.Ingredient
}

func (m listModel) Init() tea.Cmd {
	return m.loadIngredients
}

func (m listModel) loadIngredients() tea.Msg {
	ingredients, err := m.store.Ingredients(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return ingredientsLoadedMsg{ingredients}
}

func (m listModel) filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve space for border and footer
		m.list.SetSize(msg.Width-2, msg.Height-4)

	case ingredientsLoadedMsg:
		m.ingredients = msg.ingredients
		items := make([]list.Item, len(msg.ingredients))
		idWidth := 0
		for i, ing := range msg.ingredients {
			items[i] = ingredientItem{ingredient: ing}
			idWidth = max(idWidth, len(strconv.FormatInt(ing.ID, 10))+2)
		}
		m.list.SetDelegate(itemDelegate{idWidth: idWidth})
		cmd = m.list.SetItems(items)
		return m, cmd

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if !m.filtering() {
			switch msg.String() {
			case "enter":
				if item, ok := m.list.SelectedItem().(ingredientItem); ok {
					return m, func() tea.Msg {
						return selectIngredientMsg{ingredient: item.ingredient}
					}
				}
			case "r":
				return m, m.loadIngredients
			}
		}
	}

	// Always forward to the list component
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m listModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.width == 0 {
		return "Loading..."
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Width(m.width - 2).
		Height(m.height - 4)

	content := border.Render(m.list.View())
	help := footerHelp("enter", "view", "/", "filter", "r", "reload", "?", "help", "q", "quit")

	return content + "\n" + help
}

package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/store"
)

func setupTestStore(t *testing.T, ingredients ...*food.Ingredient) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	for _, ing := range ingredients {
		if err := s.CreateIngredient(ctx, ing); err != nil {
			t.Fatalf("failed to create ingredient: %v", err)
		}
	}
	return s
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and then every message its command produces, one level deep.
func send(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	if cmd == nil {
		return
	}
	if next := cmd(); next != nil {
		if _, ok := next.(tea.BatchMsg); ok {
			return
		}
		app.Update(next)
	}
}

func TestListSelectAndBack(t *testing.T) {
	s := setupTestStore(t,
		&food.Ingredient{Name: "saffron", Origin: "Iran"},
		&food.Ingredient{Name: "barberry", Origin: "Iran"},
		&food.Ingredient{Name: "vanilla", Origin: "Madagascar"},
	)
	app := New(context.Background(), s)

	send(app, tea.WindowSizeMsg{Width: 100, Height: 40})
	app.Update(app.Init()())

	if n := len(app.list.list.Items()); n != 3 {
		t.Fatalf("list has %d items, want 3", n)
	}
	if view := app.View(); !strings.Contains(view, "saffron") {
		t.Errorf("list view missing ingredient:\n%s", view)
	}

	send(app, key("enter"))
	if app.state != viewDetail {
		t.Fatalf("state = %v, want detail", app.state)
	}
	if app.detail.ingredient.Name != "saffron" {
		t.Errorf("detail ingredient = %q, want saffron", app.detail.ingredient.Name)
	}
	if len(app.detail.related) != 1 || app.detail.related[0].Name != "barberry" {
		t.Errorf("related = %v, want [barberry]", app.detail.related)
	}

	send(app, key("esc"))
	if app.state != viewList {
		t.Errorf("state = %v, want list", app.state)
	}
}

func TestHelpOverlay(t *testing.T) {
	app := New(context.Background(), setupTestStore(t))
	send(app, tea.WindowSizeMsg{Width: 100, Height: 40})

	send(app, key("?"))
	if app.state != viewHelp {
		t.Fatalf("state = %v, want help", app.state)
	}
	if !strings.Contains(app.View(), "Keyboard Shortcuts") {
		t.Error("help view missing title")
	}

	send(app, key("esc"))
	if app.state != viewList {
		t.Errorf("state = %v, want list", app.state)
	}
}

func TestSameOrigin(t *testing.T) {
	saffron := &food.Ingredient{ID: 1, Name: "saffron", Origin: "Iran"}
	all := []*food.Ingredient{
		saffron,
		{ID: 2, Name: "Pistachio", Origin: "iran"},
		{ID: 3, Name: "barberry", Origin: "Iran"},
		{ID: 4, Name: "vanilla", Origin: "Madagascar"},
		{ID: 5, Name: "water", Origin: ""},
	}

	got := sameOrigin(saffron, all)
	var names []string
	for _, ing := range got {
		names = append(names, ing.Name)
	}
	if strings.Join(names, ",") != "barberry,Pistachio" {
		t.Errorf("sameOrigin = %v, want [barberry Pistachio]", names)
	}

	if got := sameOrigin(all[4], all); got != nil {
		t.Errorf("empty origin matched %v", got)
	}
}

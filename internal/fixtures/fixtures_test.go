package fixtures

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/store"
)

var discardLog = logging.Component(logging.Discard(), "fixtures")

func setupTestStore(t *testing.T) *store.Store {
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
	return s
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func createIngredient(t *testing.T, s *store.Store, name, origin string) *food.Ingredient {
	t.Helper()
	ing := &food.Ingredient{Name: name, Origin: origin}
	if err := s.CreateIngredient(context.Background(), ing); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}
	return ing
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Fixture
		wantErr string
	}{
		{
			name:  "ingredient",
			input: "---\nmodel: ingredient\nid: 1\nname: Saffron\norigin: Iran\n---\nThe priciest spice.\n",
			want:  Fixture{Model: ModelIngredient, ID: 1, Name: "Saffron", Origin: "Iran"},
		},
		{
			name:  "cuisine with banner",
			input: "---\nmodel: Cuisine\nid: 7\nname: Thai\nbanner: thai.png\n---\n",
			want:  Fixture{Model: ModelCuisine, ID: 7, Name: "Thai", Banner: "thai.png"},
		},
		{
			name:    "missing model",
			input:   "---\nid: 1\nname: x\n---\n",
			wantErr: "missing model",
		},
		{
			name:    "unknown model",
			input:   "---\nmodel: recipe\nid: 1\n---\n",
			wantErr: "unknown model",
		},
		{
			name:    "non-positive id",
			input:   "---\nmodel: ingredient\nid: 0\nname: x\n---\n",
			wantErr: "id must be positive",
		},
		{
			name:    "banner on ingredient",
			input:   "---\nmodel: ingredient\nid: 1\nbanner: a.png\n---\n",
			wantErr: "cannot have a banner",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.md"), "---\nmodel: ingredient\nid: 2\nname: B\norigin: x\n---\n")
	writeFile(t, filepath.Join(dir, "a.md"), "---\nmodel: ingredient\nid: 1\nname: A\norigin: x\n---\n")
	writeFile(t, filepath.Join(dir, "cuisines", "thai.md"), "---\nmodel: cuisine\nid: 1\nname: Thai\n---\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	got, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(LoadDir()) = %d, want 3", len(got))
	}
	if got[0].Name != "A" || got[1].Name != "B" || got[2].Model != ModelCuisine {
		t.Errorf("LoadDir() order = %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}

	t.Run("duplicate record", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "c.md"), "---\nmodel: ingredient\nid: 1\nname: C\norigin: x\n---\n")
		if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "already defined") {
			t.Errorf("LoadDir() error = %v, want duplicate error", err)
		}
	})
}

func TestApply(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	storage := assets.NewFileSystem(filepath.Join(dir, "media"), "banners", "/media")

	writeFile(t, filepath.Join(dir, "fixtures", "saffron.md"), "---\nmodel: ingredient\nid: 10\nname: Saffron\norigin: Iran\n---\n")
	writeFile(t, filepath.Join(dir, "fixtures", "thai.md"), "---\nmodel: cuisine\nid: 3\nname: Thai\nbanner: img/thai.txt\n---\n")
	writeFile(t, filepath.Join(dir, "fixtures", "img", "thai.txt"), "banner")

	fixtures, err := LoadDir(filepath.Join(dir, "fixtures"))
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	applied, err := Apply(ctx, s, storage, fixtures, discardLog)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied.Ingredients) != 1 || len(applied.Cuisines) != 1 {
		t.Fatalf("Apply() = %d ingredients, %d cuisines", len(applied.Ingredients), len(applied.Cuisines))
	}

	ing, err := s.Ingredient(ctx, 10)
	if err != nil {
		t.Fatalf("Ingredient(10) error = %v", err)
	}
	if ing.Name != "Saffron" {
		t.Errorf("Name = %q, want Saffron", ing.Name)
	}

	c, err := s.Cuisine(ctx, 3)
	if err != nil {
		t.Fatalf("Cuisine(3) error = %v", err)
	}
	if !c.HasBanner() {
		t.Fatal("cuisine banner not set")
	}
	if _, err := os.Stat(filepath.Join(dir, "media", filepath.FromSlash(*c.Banner))); err != nil {
		t.Errorf("banner not stored: %v", err)
	}

	// Re-applying is an upsert, not a duplicate insert.
	if _, err := Apply(ctx, s, storage, fixtures[:1], discardLog); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	all, _ := s.Ingredients(ctx)
	if len(all) != 1 {
		t.Errorf("len(Ingredients()) = %d, want 1", len(all))
	}

	// New rows get IDs past the fixture IDs.
	ing2 := createIngredient(t, s, "Pepper", "India")
	if ing2.ID == 10 {
		t.Errorf("generated ID collides with fixture ID")
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	storage := assets.NewFileSystem(filepath.Join(t.TempDir(), "media"), "banners", "/media")

	fixtures := []*Fixture{
		{Path: "ok.md", Model: ModelIngredient, ID: 1, Name: "ok", Origin: "x"},
		{Path: "broken.md", Model: ModelCuisine, ID: 1, Name: "broken", Banner: "/does/not/exist.png"},
	}
	if _, err := Apply(ctx, s, storage, fixtures, discardLog); err == nil {
		t.Fatal("Apply() expected error for missing banner")
	}

	if _, err := s.Ingredient(ctx, 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Ingredient(1) after failed load error = %v, want ErrNotFound", err)
	}
}

// undeletable refuses to remove assets.
type undeletable struct {
	assets.Storage
}

func (undeletable) Delete(ctx context.Context, key string) error {
	return errors.New("read-only storage")
}

func TestApplyLogsFailedBannerCleanup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "thai.png"), "png")
	storage := undeletable{assets.NewFileSystem(filepath.Join(dir, "media"), "banners", "/media")}

	logger, hook := logrustest.NewNullLogger()
	fixtures := []*Fixture{
		{Path: filepath.Join(dir, "thai.md"), Model: ModelCuisine, ID: 1, Name: "Thai", Banner: "thai.png"},
		{Path: "broken.md", Model: ModelCuisine, ID: 2, Name: "broken", Banner: "/does/not/exist.png"},
	}
	if _, err := Apply(ctx, s, storage, fixtures, logrus.NewEntry(logger)); err == nil {
		t.Fatal("Apply() expected error for missing banner")
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry for the failed cleanup")
	}
	if entry.Level != logrus.WarnLevel || entry.Message != "failed to remove orphaned banner" {
		t.Errorf("log entry = %s %q", entry.Level, entry.Message)
	}
	if key, _ := entry.Data["key"].(string); !strings.HasPrefix(key, "banners/thai") {
		t.Errorf("logged key = %v, want banners/thai*", entry.Data["key"])
	}
}

func TestRemove(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	fx := &Fixture{Path: "x.md", Model: ModelIngredient, ID: 5, Name: "x", Origin: "y"}
	if _, err := Apply(ctx, s, nil, []*Fixture{fx}, discardLog); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := Remove(ctx, s, fx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := s.Ingredient(ctx, 5); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Ingredient(5) after Remove() error = %v, want ErrNotFound", err)
	}
	if err := Remove(ctx, s, fx); err != nil {
		t.Errorf("Remove() of missing record error = %v, want nil", err)
	}
}

func TestWatcher(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	w := NewWatcher(dir, s, nil, logging.Component(logging.Discard(), "fixtures"))
	events, unsubscribe := w.Subscribe()
	defer unsubscribe()

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "saffron.md")
	writeFile(t, path, "---\nmodel: ingredient\nid: 21\nname: Saffron\norigin: Iran\n---\n")

	got := waitForEvent(t, events, EventApplied)
	if got.Fixture.ID != 21 || len(got.Applied.Ingredients) != 1 {
		t.Errorf("applied event = %+v", got)
	}
	if _, err := s.Ingredient(ctx, 21); err != nil {
		t.Errorf("Ingredient(21) after write error = %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove fixture: %v", err)
	}
	got = waitForEvent(t, events, EventRemoved)
	if got.Fixture.ID != 21 {
		t.Errorf("removed event fixture ID = %d, want 21", got.Fixture.ID)
	}
	if _, err := s.Ingredient(ctx, 21); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Ingredient(21) after remove error = %v, want ErrNotFound", err)
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		e    EventType
		want string
	}{
		{EventApplied, "applied"},
		{EventRemoved, "removed"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func waitForEvent(t *testing.T, events <-chan []Event, want EventType) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case batch, ok := <-events:
			if !ok {
				t.Fatal("event channel closed")
			}
			for _, e := range batch {
				if e.Type == want {
					return e
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/logging"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(ctx, config.DriverSQLite, dsn, logging.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func createTestIngredient(t *testing.T, s *Store, name, origin string) *food.Ingredient {
	t.Helper()
	ing := &food.Ingredient{Name: name, Origin: origin}
	if err := s.CreateIngredient(context.Background(), ing); err != nil {
		t.Fatalf("CreateIngredient() error = %v", err)
	}
	return ing
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", logging.Discard())
	if err == nil {
		t.Fatal("Open() expected error for unknown driver")
	}
}

func TestCreateAndGetIngredient(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ing := createTestIngredient(t, s, "foo", "bar")
	if ing.ID == 0 {
		t.Fatal("CreateIngredient() did not set ID")
	}

	got, err := s.Ingredient(ctx, ing.ID)
	if err != nil {
		t.Fatalf("Ingredient() error = %v", err)
	}
	if got.Name != "foo" || got.Origin != "bar" {
		t.Errorf("Ingredient() = {%q, %q}, want {\"foo\", \"bar\"}", got.Name, got.Origin)
	}
}

func TestCreateIngredientGeneratesDistinctIDs(t *testing.T) {
	s := setupTestStore(t)

	a := createTestIngredient(t, s, "same", "same")
	b := createTestIngredient(t, s, "same", "same")
	if a.ID == b.ID {
		t.Errorf("duplicate name/origin got the same ID %d", a.ID)
	}
}

func TestCreateIngredientUnconstrainedText(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name, origin string
	}{
		{"", ""},
		{"Süßkartoffel", "Perú"},
		{"唐辛子", "日本"},
		{"it's \"quoted\"", "line\nbreak"},
	}
	for _, tt := range tests {
		ing := createTestIngredient(t, s, tt.name, tt.origin)
		got, err := s.Ingredient(ctx, ing.ID)
		if err != nil {
			t.Fatalf("Ingredient(%d) error = %v", ing.ID, err)
		}
		if got.Name != tt.name || got.Origin != tt.origin {
			t.Errorf("round trip = {%q, %q}, want {%q, %q}", got.Name, got.Origin, tt.name, tt.origin)
		}
	}
}

func TestIngredientNotFound(t *testing.T) {
	s := setupTestStore(t)

	for _, id := range []int64{-1, 0, 999} {
		_, err := s.Ingredient(context.Background(), id)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Ingredient(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestDeleteIngredient(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ing := createTestIngredient(t, s, "foo", "bar")

	if err := s.DeleteIngredient(ctx, ing.ID); err != nil {
		t.Fatalf("DeleteIngredient() error = %v", err)
	}

	if _, err := s.Ingredient(ctx, ing.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ingredient() after delete error = %v, want ErrNotFound", err)
	}

	// The row is gone, not soft-deleted.
	var count int64
	if err := s.DB().Unscoped().Model(&food.Ingredient{}).Where("id = ?", ing.ID).Count(&count).Error; err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("row count after delete = %d, want 0", count)
	}

	t.Run("nonexistent", func(t *testing.T) {
		if err := s.DeleteIngredient(ctx, ing.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteIngredient() twice error = %v, want ErrNotFound", err)
		}
	})
}

func TestIngredientsOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := createTestIngredient(t, s, "a", "x")
	b := createTestIngredient(t, s, "b", "y")
	c := createTestIngredient(t, s, "c", "z")

	all, err := s.Ingredients(ctx)
	if err != nil {
		t.Fatalf("Ingredients() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(Ingredients()) = %d, want 3", len(all))
	}
	if all[0].ID != a.ID || all[2].ID != c.ID {
		t.Errorf("Ingredients() not ordered by ID")
	}

	byID, err := s.IngredientsByID(ctx, []int64{c.ID, 12345, a.ID, b.ID})
	if err != nil {
		t.Fatalf("IngredientsByID() error = %v", err)
	}
	want := []int64{c.ID, a.ID, b.ID}
	if len(byID) != len(want) {
		t.Fatalf("len(IngredientsByID()) = %d, want %d", len(byID), len(want))
	}
	for i, id := range want {
		if byID[i].ID != id {
			t.Errorf("IngredientsByID()[%d].ID = %d, want %d", i, byID[i].ID, id)
		}
	}

	empty, err := s.IngredientsByID(ctx, nil)
	if err != nil {
		t.Fatalf("IngredientsByID(nil) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("IngredientsByID(nil) = %d items, want 0", len(empty))
	}
}

func TestSaveIngredientUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ing := &food.Ingredient{ID: 42, Name: "saffron", Origin: "Iran"}
	if err := s.SaveIngredient(ctx, ing); err != nil {
		t.Fatalf("SaveIngredient() insert error = %v", err)
	}

	ing2 := &food.Ingredient{ID: 42, Name: "saffron", Origin: "Spain"}
	if err := s.SaveIngredient(ctx, ing2); err != nil {
		t.Fatalf("SaveIngredient() update error = %v", err)
	}

	got, err := s.Ingredient(ctx, 42)
	if err != nil {
		t.Fatalf("Ingredient() error = %v", err)
	}
	if got.Origin != "Spain" {
		t.Errorf("Origin = %q, want \"Spain\"", got.Origin)
	}

	all, _ := s.Ingredients(ctx)
	if len(all) != 1 {
		t.Errorf("len(Ingredients()) = %d, want 1", len(all))
	}
}

func TestTransactionCommit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var id int64
	err := s.Transaction(ctx, func(tx *Store) error {
		ing := &food.Ingredient{Name: "foo", Origin: "bar"}
		if err := tx.CreateIngredient(ctx, ing); err != nil {
			return err
		}
		id = ing.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	if _, err := s.Ingredient(ctx, id); err != nil {
		t.Errorf("Ingredient() after commit error = %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.CreateIngredient(ctx, &food.Ingredient{Name: "orphan", Origin: "nowhere"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, want %v", err, boom)
	}

	all, err := s.Ingredients(ctx)
	if err != nil {
		t.Fatalf("Ingredients() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len(Ingredients()) after rollback = %d, want 0", len(all))
	}
}

func TestTransactionRollbackOnPanic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Transaction() swallowed the panic")
			}
		}()
		_ = s.Transaction(ctx, func(tx *Store) error {
			if err := tx.CreateIngredient(ctx, &food.Ingredient{Name: "orphan", Origin: "nowhere"}); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	all, err := s.Ingredients(ctx)
	if err != nil {
		t.Fatalf("Ingredients() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len(Ingredients()) after panic = %d, want 0", len(all))
	}
}

func TestCuisines(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	key := "banners/coconuts.txt"
	c := &food.Cuisine{Name: "foo", Banner: &key}
	if err := s.CreateCuisine(ctx, c); err != nil {
		t.Fatalf("CreateCuisine() error = %v", err)
	}
	plain := &food.Cuisine{Name: "plain"}
	if err := s.CreateCuisine(ctx, plain); err != nil {
		t.Fatalf("CreateCuisine() error = %v", err)
	}

	got, err := s.Cuisine(ctx, c.ID)
	if err != nil {
		t.Fatalf("Cuisine() error = %v", err)
	}
	if got.Name != "foo" {
		t.Errorf("Name = %q, want \"foo\"", got.Name)
	}
	if got.Banner == nil || *got.Banner != key {
		t.Errorf("Banner = %v, want %q", got.Banner, key)
	}

	gotPlain, err := s.Cuisine(ctx, plain.ID)
	if err != nil {
		t.Fatalf("Cuisine() error = %v", err)
	}
	if gotPlain.HasBanner() {
		t.Errorf("Banner = %v, want nil", gotPlain.Banner)
	}

	all, err := s.Cuisines(ctx)
	if err != nil {
		t.Fatalf("Cuisines() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(Cuisines()) = %d, want 2", len(all))
	}

	if err := s.DeleteCuisine(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCuisine() error = %v", err)
	}
	if _, err := s.Cuisine(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cuisine() after delete error = %v, want ErrNotFound", err)
	}
}

func TestPingAndResetSequences(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := s.ResetSequences(ctx); err != nil {
		t.Errorf("ResetSequences() on sqlite error = %v", err)
	}
}

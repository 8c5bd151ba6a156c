package search

import (
	"testing"

	"github.com/hmans/larder/internal/food"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex()
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	err = idx.IndexIngredients([]*food.Ingredient{
		{ID: 1, Name: "Black Pepper", Origin: "India"},
		{ID: 2, Name: "Saffron", Origin: "Iran"},
		{ID: 3, Name: "Cardamom", Origin: "India"},
		{ID: 4, Name: "Vanilla", Origin: "Madagascar"},
	})
	if err != nil {
		t.Fatalf("IndexIngredients() error = %v", err)
	}
	return idx
}

func TestSearch(t *testing.T) {
	idx := setupTestIndex(t)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"name term", "saffron", []int64{2}},
		{"case insensitive", "PEPPER", []int64{1}},
		{"origin field", "origin:india", []int64{1, 3}},
		{"wildcard", "carda*", []int64{3}},
		{"no match", "cinnamon", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(tt.query, 0)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			if !sameIDs(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearchLimit(t *testing.T) {
	idx := setupTestIndex(t)

	got, err := idx.Search("origin:india", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(Search()) = %d, want 1", len(got))
	}
}

func TestIndexAndDeleteIngredient(t *testing.T) {
	idx := setupTestIndex(t)

	if err := idx.IndexIngredient(&food.Ingredient{ID: 2, Name: "Saffron", Origin: "Spain"}); err != nil {
		t.Fatalf("IndexIngredient() error = %v", err)
	}
	got, _ := idx.Search("origin:spain", 0)
	if !sameIDs(got, []int64{2}) {
		t.Errorf("after update Search() = %v, want [2]", got)
	}
	got, _ = idx.Search("origin:iran", 0)
	if len(got) != 0 {
		t.Errorf("stale document still matches: %v", got)
	}

	if err := idx.DeleteIngredient(2); err != nil {
		t.Fatalf("DeleteIngredient() error = %v", err)
	}
	got, _ = idx.Search("saffron", 0)
	if len(got) != 0 {
		t.Errorf("after delete Search() = %v, want none", got)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[int64]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
	}
	return true
}

package cmd

import (
	"testing"

	"github.com/hmans/larder/internal/fixtures"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/search"
)

func TestIndexFixtureEvents(t *testing.T) {
	idx, err := search.NewIndex()
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	defer idx.Close()

	sumac := &food.Ingredient{ID: 5, Name: "sumac", Origin: "Levant"}
	applied := []fixtures.Event{{
		Type:    fixtures.EventApplied,
		Path:    "sumac.md",
		Fixture: &fixtures.Fixture{Model: fixtures.ModelIngredient, ID: 5, Name: "sumac"},
		Applied: &fixtures.Applied{Ingredients: []*food.Ingredient{sumac}},
	}}
	if err := indexFixtureEvents(idx, applied); err != nil {
		t.Fatalf("indexFixtureEvents(applied) error = %v", err)
	}
	ids, err := idx.Search("levant", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 5 {
		t.Errorf("Search(levant) = %v, want [5]", ids)
	}

	removed := []fixtures.Event{
		// Cuisine removals leave the ingredient index alone.
		{Type: fixtures.EventRemoved, Fixture: &fixtures.Fixture{Model: fixtures.ModelCuisine, ID: 5}},
	}
	if err := indexFixtureEvents(idx, removed); err != nil {
		t.Fatalf("indexFixtureEvents(cuisine) error = %v", err)
	}
	if n, _ := idx.Count(); n != 1 {
		t.Errorf("Count() after cuisine removal = %d, want 1", n)
	}

	removed = []fixtures.Event{{Type: fixtures.EventRemoved, Fixture: applied[0].Fixture}}
	if err := indexFixtureEvents(idx, removed); err != nil {
		t.Fatalf("indexFixtureEvents(removed) error = %v", err)
	}
	if n, _ := idx.Count(); n != 0 {
		t.Errorf("Count() after removal = %d, want 0", n)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"-1", -1, false},
		{"abc", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestOpenUpload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"banner.png", "image/png"},
		{"notes.unknownext", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, f, err := openUpload(writeTemp(t, tt.name, "data"))
			if err != nil {
				t.Fatalf("openUpload() error = %v", err)
			}
			defer f.Close()
			if upload.Filename != tt.name || upload.Size != 4 || upload.ContentType != tt.contentType {
				t.Errorf("upload = %+v", upload)
			}
		})
	}

	if _, _, err := openUpload(t.TempDir()); err == nil {
		t.Error("openUpload(dir) succeeded, want error")
	}
}

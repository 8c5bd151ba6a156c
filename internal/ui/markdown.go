package ui

import (
	"fmt"
	"strings"

	"github.com/hmans/larder/internal/food"
)

// IngredientMarkdown renders an ingredient as a markdown document for glamour.
func IngredientMarkdown(ing *food.Ingredient) string {
	origin := ing.Origin
	if origin == "" {
		origin = "_unknown_"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", ing.Name)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | %d |\n", ing.ID)
	fmt.Fprintf(&b, "| Origin | %s |\n", origin)
	if !ing.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "| Created | %s |\n", ing.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !ing.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "| Updated | %s |\n", ing.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// Package search provides full-text search over ingredients using Bleve.
package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/hmans/larder/internal/food"
)

// DefaultSearchLimit is the default maximum number of search results.
const DefaultSearchLimit = 1000

// Index wraps a Bleve in-memory index for searching ingredients.
// The database stays authoritative; the index only maps text to IDs.
type Index struct {
	index bleve.Index
}

// ingredientDocument is the structure stored in the Bleve index.
type ingredientDocument struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

// NewIndex creates a new in-memory Bleve index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "standard"

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	ingredientMapping := bleve.NewDocumentMapping()
	ingredientMapping.AddFieldMappingsAt("id", keywordFieldMapping)
	ingredientMapping.AddFieldMappingsAt("name", textFieldMapping)
	ingredientMapping.AddFieldMappingsAt("origin", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = ingredientMapping
	indexMapping.DefaultAnalyzer = "standard"
	indexMapping.IndexDynamic = false
	indexMapping.StoreDynamic = false
	indexMapping.ScoringModel = "bm25"

	return indexMapping
}

// Close closes the index.
func (idx *Index) Close() error {
	return idx.index.Close()
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func newDocument(ing *food.Ingredient) ingredientDocument {
	return ingredientDocument{
		ID:     docID(ing.ID),
		Name:   ing.Name,
		Origin: ing.Origin,
	}
}

// IndexIngredient adds or updates an ingredient in the search index.
func (idx *Index) IndexIngredient(ing *food.Ingredient) error {
	return idx.index.Index(docID(ing.ID), newDocument(ing))
}

// IndexIngredients indexes multiple ingredients in one batch.
func (idx *Index) IndexIngredients(ingredients []*food.Ingredient) error {
	batch := idx.index.NewBatch()
	for _, ing := range ingredients {
		if err := batch.Index(docID(ing.ID), newDocument(ing)); err != nil {
			return err
		}
	}
	return idx.index.Batch(batch)
}

// DeleteIngredient removes an ingredient from the search index.
func (idx *Index) DeleteIngredient(id int64) error {
	return idx.index.Delete(docID(id))
}

// Count returns the number of indexed ingredients.
func (idx *Index) Count() (uint64, error) {
	return idx.index.DocCount()
}

// Search executes a query and returns matching ingredient IDs, best match first.
// The limit parameter controls the maximum number of results (0 uses DefaultSearchLimit).
//
// Query string syntax is supported:
//   - Simple terms: "pepper"
//   - Boolean operators: "+chili -sweet"
//   - Wildcards: "cardam*"
//   - Field-specific: "origin:india"
func (idx *Index) Search(queryStr string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	req := bleve.NewSearchRequest(bleve.NewQueryStringQuery(queryStr))
	req.Size = limit

	result, err := idx.index.Search(req)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt document id %q: %w", hit.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

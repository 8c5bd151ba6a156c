package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/hmans/larder/internal/food"
)

// CreateIngredient inserts a new ingredient and sets its generated ID.
func (s *Store) CreateIngredient(ctx context.Context, ing *food.Ingredient) error {
	ing.ID = 0
	if err := s.db.WithContext(ctx).Create(ing).Error; err != nil {
		return fmt.Errorf("creating ingredient: %w", err)
	}
	return nil
}

// SaveIngredient inserts the ingredient, or overwrites the row with the same ID.
func (s *Store) SaveIngredient(ctx context.Context, ing *food.Ingredient) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "origin", "updated_at"}),
		}).
		Create(ing).Error
	if err != nil {
		return fmt.Errorf("saving ingredient %d: %w", ing.ID, err)
	}
	return nil
}

// Ingredient returns the ingredient with the given ID.
func (s *Store) Ingredient(ctx context.Context, id int64) (*food.Ingredient, error) {
	var ing food.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ing, nil
}

// Ingredients returns all ingredients ordered by ID.
func (s *Store) Ingredients(ctx context.Context) ([]*food.Ingredient, error) {
	var list []*food.Ingredient
	if err := s.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return list, nil
}

// IngredientsByID returns the ingredients with the given IDs in the order the
// IDs were given. Unknown IDs are skipped.
func (s *Store) IngredientsByID(ctx context.Context, ids []int64) ([]*food.Ingredient, error) {
	if len(ids) == 0 {
		return []*food.Ingredient{}, nil
	}

	var found []*food.Ingredient
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("loading ingredients: %w", err)
	}

	byID := make(map[int64]*food.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}

	result := make([]*food.Ingredient, 0, len(found))
	for _, id := range ids {
		if ing, ok := byID[id]; ok {
			result = append(result, ing)
		}
	}
	return result, nil
}

// DeleteIngredient permanently removes the ingredient with the given ID.
// Returns ErrNotFound if no row was deleted.
func (s *Store) DeleteIngredient(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&food.Ingredient{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting ingredient %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

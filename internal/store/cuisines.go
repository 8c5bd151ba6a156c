package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/hmans/larder/internal/food"
)

// CreateCuisine inserts a new cuisine and sets its generated ID.
func (s *Store) CreateCuisine(ctx context.Context, c *food.Cuisine) error {
	c.ID = 0
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("creating cuisine: %w", err)
	}
	return nil
}

// SaveCuisine inserts the cuisine, or overwrites the row with the same ID.
func (s *Store) SaveCuisine(ctx context.Context, c *food.Cuisine) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "banner", "updated_at"}),
		}).
		Create(c).Error
	if err != nil {
		return fmt.Errorf("saving cuisine %d: %w", c.ID, err)
	}
	return nil
}

// Cuisine returns the cuisine with the given ID.
func (s *Store) Cuisine(ctx context.Context, id int64) (*food.Cuisine, error) {
	var c food.Cuisine
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Cuisines returns all cuisines ordered by ID.
func (s *Store) Cuisines(ctx context.Context) ([]*food.Cuisine, error) {
	var list []*food.Cuisine
	if err := s.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("listing cuisines: %w", err)
	}
	return list, nil
}

// DeleteCuisine permanently removes the cuisine with the given ID.
func (s *Store) DeleteCuisine(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&food.Cuisine{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting cuisine %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

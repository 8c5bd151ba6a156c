// Package food defines the catalog records persisted by larder.
package food

import "time"

// Ingredient is a named food item with an origin descriptor.
type Ingredient struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id" yaml:"id,omitempty"`
	Name      string    `gorm:"not null" json:"name" yaml:"name"`
	Origin    string    `gorm:"not null" json:"origin" yaml:"origin"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// TableName keeps the table name stable regardless of gorm's naming strategy.
func (Ingredient) TableName() string { return "food_ingredient" }

// Cuisine is a named category with an optional banner image.
type Cuisine struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id" yaml:"id,omitempty"`
	Name string `gorm:"not null" json:"name" yaml:"name"`
	// Banner is the storage key of the uploaded banner asset.
	Banner    *string   `gorm:"size:255" json:"banner,omitempty" yaml:"banner,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (Cuisine) TableName() string { return "food_cuisine" }

// HasBanner reports whether an asset is attached to the cuisine.
func (c *Cuisine) HasBanner() bool {
	return c.Banner != nil && *c.Banner != ""
}

// Models lists every persisted record type, in migration order.
func Models() []any {
	return []any{&Ingredient{}, &Cuisine{}}
}

// Package fixtures loads catalog records from markdown files with YAML front
// matter and applies them to the store.
//
// A fixture file looks like this:
//
//	---
//	model: cuisine
//	id: 3
//	name: Thai
//	banner: images/thai.png
//	---
//	Anything below the front matter is ignored.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/sirupsen/logrus"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/store"
)

// Models that fixtures can describe.
const (
	ModelIngredient = "ingredient"
	ModelCuisine    = "cuisine"
)

// Fixture is one record parsed from a fixture file.
type Fixture struct {
	Path   string
	Model  string
	ID     int64
	Name   string
	Origin string
	// Banner is a file path relative to the fixture file.
	Banner string
}

type frontMatter struct {
	Model  string `yaml:"model"`
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Origin string `yaml:"origin,omitempty"`
	Banner string `yaml:"banner,omitempty"`
}

// Parse reads a fixture from r. The markdown body is discarded.
func Parse(r io.Reader) (*Fixture, error) {
	var fm frontMatter
	if _, err := frontmatter.Parse(r, &fm); err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}

	fx := &Fixture{
		Model:  strings.ToLower(strings.TrimSpace(fm.Model)),
		ID:     fm.ID,
		Name:   fm.Name,
		Origin: fm.Origin,
		Banner: fm.Banner,
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return fx, nil
}

// Validate checks that the fixture names a known model and a positive ID.
func (fx *Fixture) Validate() error {
	switch fx.Model {
	case ModelIngredient:
		if fx.Banner != "" {
			return fmt.Errorf("ingredient fixtures cannot have a banner")
		}
	case ModelCuisine:
		if fx.Origin != "" {
			return fmt.Errorf("cuisine fixtures cannot have an origin")
		}
	case "":
		return fmt.Errorf("missing model")
	default:
		return fmt.Errorf("unknown model %q", fx.Model)
	}
	if fx.ID <= 0 {
		return fmt.Errorf("id must be positive, got %d", fx.ID)
	}
	return nil
}

// BannerPath returns the banner location resolved against the fixture file.
func (fx *Fixture) BannerPath() string {
	if fx.Banner == "" || filepath.IsAbs(fx.Banner) {
		return fx.Banner
	}
	return filepath.Join(filepath.Dir(fx.Path), fx.Banner)
}

// LoadFile parses the fixture file at path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fx.Path = path
	return fx, nil
}

// LoadDir parses every *.md file below dir, in lexical path order.
// Two files describing the same record are an error.
func LoadDir(dir string) ([]*Fixture, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	fixtures := make([]*Fixture, 0, len(paths))
	for _, path := range paths {
		fx, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%s/%d", fx.Model, fx.ID)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%s: %s %d is already defined in %s", path, fx.Model, fx.ID, prev)
		}
		seen[key] = path
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}

// Applied lists the records written by Apply.
type Applied struct {
	Ingredients []*food.Ingredient
	Cuisines    []*food.Cuisine
}

// Apply upserts all fixtures in a single transaction. Either every fixture is
// written or none is; banners uploaded for a failed load are removed again.
func Apply(ctx context.Context, s *store.Store, storage assets.Storage, fixtures []*Fixture, log *logrus.Entry) (*Applied, error) {
	applied := &Applied{}
	var uploaded []string

	err := s.Transaction(ctx, func(tx *store.Store) error {
		for _, fx := range fixtures {
			switch fx.Model {
			case ModelIngredient:
				ing := &food.Ingredient{ID: fx.ID, Name: fx.Name, Origin: fx.Origin}
				if err := tx.SaveIngredient(ctx, ing); err != nil {
					return fmt.Errorf("%s: %w", fx.Path, err)
				}
				applied.Ingredients = append(applied.Ingredients, ing)

			case ModelCuisine:
				c := &food.Cuisine{ID: fx.ID, Name: fx.Name}
				if fx.Banner != "" {
					key, err := uploadBanner(ctx, storage, fx.BannerPath())
					if err != nil {
						return fmt.Errorf("%s: %w", fx.Path, err)
					}
					uploaded = append(uploaded, key)
					c.Banner = &key
				}
				if err := tx.SaveCuisine(ctx, c); err != nil {
					return fmt.Errorf("%s: %w", fx.Path, err)
				}
				applied.Cuisines = append(applied.Cuisines, c)

			default:
				return fmt.Errorf("%s: unknown model %q", fx.Path, fx.Model)
			}
		}
		return nil
	})
	if err != nil {
		for _, key := range uploaded {
			if derr := storage.Delete(ctx, key); derr != nil {
				log.WithError(derr).WithField("key", key).Warn("failed to remove orphaned banner")
			}
		}
		return nil, err
	}

	if err := s.ResetSequences(ctx); err != nil {
		return applied, err
	}
	return applied, nil
}

// Remove deletes the record a fixture created. A record that is already gone
// is not an error.
func Remove(ctx context.Context, s *store.Store, fx *Fixture) error {
	var err error
	switch fx.Model {
	case ModelIngredient:
		err = s.DeleteIngredient(ctx, fx.ID)
	case ModelCuisine:
		err = s.DeleteCuisine(ctx, fx.ID)
	default:
		return fmt.Errorf("unknown model %q", fx.Model)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func uploadBanner(ctx context.Context, storage assets.Storage, path string) (string, error) {
	if storage == nil {
		return "", errors.New("asset storage is not configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening banner: %w", err)
	}
	defer f.Close()

	key, err := storage.Save(ctx, filepath.Base(path), f, mime.TypeByExtension(filepath.Ext(path)))
	if err != nil {
		return "", fmt.Errorf("saving banner: %w", err)
	}
	return key, nil
}

package graph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/99designs/gqlgen/graphql"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/graph/model"
	"github.com/hmans/larder/internal/store"
)

// Operation resolves a single root field from its coerced arguments.
type Operation interface {
	Resolve(ctx context.Context, args map[string]any) (any, error)
}

// registry maps "<Type>.<field>" to the operation that resolves it.
type registry map[string]Operation

func newRegistry(r *Resolver) registry {
	return registry{
		"Query.ingredient":          ingredientOp{r},
		"Query.ingredients":         ingredientsOp{r},
		"Query.searchIngredients":   searchIngredientsOp{r},
		"Query.cuisine":             cuisineOp{r},
		"Query.cuisines":            cuisinesOp{r},
		"Query.total":               totalOp{},
		"Mutation.createIngredient": createIngredientOp{r},
		"Mutation.deleteIngredient": deleteIngredientOp{r},
		"Mutation.createCuisine":    createCuisineOp{r},
	}
}

// dispatch resolves key through ops. A nil result yields the zero T.
func dispatch[T any](ctx context.Context, ops registry, key string, args map[string]any) (T, error) {
	var zero T
	op, ok := ops[key]
	if !ok {
		return zero, fmt.Errorf("no operation registered for %s", key)
	}
	res, err := op.Resolve(ctx, args)
	if err != nil || res == nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("operation %s returned %T", key, res)
	}
	return v, nil
}

type ingredientOp struct{ r *Resolver }

func (op ingredientOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	id, err := intArg(args, "ingredientId")
	if err != nil {
		return nil, err
	}
	ing, err := op.r.Store.Ingredient(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("ingredient %d %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

type ingredientsOp struct{ r *Resolver }

func (op ingredientsOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	return op.r.Store.Ingredients(ctx)
}

type searchIngredientsOp struct{ r *Resolver }

func (op searchIngredientsOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	limit, err := optionalIntArg(args, "limit")
	if err != nil {
		return nil, err
	}
	if op.r.Index == nil {
		return nil, errors.New("search index is not available")
	}

	n := 0
	if limit != nil {
		n = int(*limit)
	}
	ids, err := op.r.Index.Search(query, n)
	if err != nil {
		return nil, fmt.Errorf("searching ingredients: %w", err)
	}
	return op.r.Store.IngredientsByID(ctx, ids)
}

type cuisineOp struct{ r *Resolver }

func (op cuisineOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	id, err := intArg(args, "cuisineId")
	if err != nil {
		return nil, err
	}
	c, err := op.r.Store.Cuisine(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("cuisine %d %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

type cuisinesOp struct{ r *Resolver }

func (op cuisinesOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	return op.r.Store.Cuisines(ctx)
}

// totalOp resolves to null for NaN and the infinities, which JSON cannot carry.
type totalOp struct{}

func (totalOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	a, err := floatArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := floatArg(args, "b")
	if err != nil {
		return nil, err
	}
	total := food.GetTotal(a, b)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return (*float64)(nil), nil
	}
	return &total, nil
}

type createIngredientOp struct{ r *Resolver }

func (op createIngredientOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	origin, err := stringArg(args, "origin")
	if err != nil {
		return nil, err
	}

	ing := &food.Ingredient{Name: name, Origin: origin}
	err = op.r.Store.Transaction(ctx, func(tx *store.Store) error {
		return tx.CreateIngredient(ctx, ing)
	})
	if err != nil {
		return nil, err
	}

	if op.r.Index != nil {
		if err := op.r.Index.IndexIngredient(ing); err != nil {
			op.r.log().WithError(err).WithField("id", ing.ID).Warn("failed to index ingredient")
		}
	}
	return &model.CreateIngredientPayload{Ingredient: ing}, nil
}

type deleteIngredientOp struct{ r *Resolver }

func (op deleteIngredientOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	id, err := intArg(args, "id")
	if err != nil {
		return nil, err
	}

	err = op.r.Store.DeleteIngredient(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("ingredient %d %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if op.r.Index != nil {
		if err := op.r.Index.DeleteIngredient(id); err != nil {
			op.r.log().WithError(err).WithField("id", id).Warn("failed to remove ingredient from index")
		}
	}
	return &model.DeleteIngredientPayload{Status: true}, nil
}

// createCuisineOp stores the banner before inserting the row. If the row
// cannot be committed the stored asset is removed again.
type createCuisineOp struct{ r *Resolver }

func (op createCuisineOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	banner, err := uploadArg(args, "banner")
	if err != nil {
		return nil, err
	}

	c := &food.Cuisine{Name: name}
	err = op.r.Store.Transaction(ctx, func(tx *store.Store) error {
		if banner != nil {
			if op.r.Assets == nil {
				return errors.New("asset storage is not configured")
			}
			key, err := op.r.Assets.Save(ctx, banner.Filename, banner.File, banner.ContentType)
			if err != nil {
				return fmt.Errorf("saving banner: %w", err)
			}
			c.Banner = &key
		}
		return tx.CreateCuisine(ctx, c)
	})
	if err != nil {
		if c.Banner != nil {
			if derr := op.r.Assets.Delete(ctx, *c.Banner); derr != nil {
				op.r.log().WithError(derr).WithField("key", *c.Banner).Warn("failed to remove orphaned banner")
			}
		}
		return nil, err
	}
	return &model.CreateCuisinePayload{Cuisine: c}, nil
}

var errRequired = errors.New("is required")

// inputError marks argument coercion failures.
type inputError struct {
	arg string
	err error
}

func (e *inputError) Error() string {
	return fmt.Sprintf("argument %q: %v", e.arg, e.err)
}

func (e *inputError) Unwrap() error { return e.err }

func intArg(args map[string]any, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, &inputError{name, errRequired}
	}
	n, err := graphql.UnmarshalInt64(v)
	if err != nil {
		return 0, &inputError{name, err}
	}
	return n, nil
}

func optionalIntArg(args map[string]any, name string) (*int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := graphql.UnmarshalInt64(v)
	if err != nil {
		return nil, &inputError{name, err}
	}
	return &n, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", &inputError{name, errRequired}
	}
	s, err := graphql.UnmarshalString(v)
	if err != nil {
		return "", &inputError{name, err}
	}
	return s, nil
}

func floatArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, &inputError{name, errRequired}
	}
	f, err := graphql.UnmarshalFloat(v)
	if err != nil {
		return 0, &inputError{name, err}
	}
	return f, nil
}

func uploadArg(args map[string]any, name string) (*graphql.Upload, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	if u, ok := v.(*graphql.Upload); ok {
		return u, nil
	}
	u, err := graphql.UnmarshalUpload(v)
	if err != nil {
		return nil, &inputError{name, err}
	}
	return &u, nil
}

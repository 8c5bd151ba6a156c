package graph

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.84

import (
	"context"

	"github.com/99designs/gqlgen/graphql"

	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/graph/model"
)

// BannerURL is the resolver for the bannerUrl field.
func (r *cuisineResolver) BannerURL(ctx context.Context, obj *food.Cuisine) (*string, error) {
	if !obj.HasBanner() || r.Assets == nil {
		return nil, nil
	}
	url := r.Assets.URL(*obj.Banner)
	return &url, nil
}

// CreateIngredient is the resolver for the createIngredient field.
func (r *mutationResolver) CreateIngredient(ctx context.Context, name string, origin string) (*model.CreateIngredientPayload, error) {
	return dispatch[*model.CreateIngredientPayload](ctx, r.operations(), "Mutation.createIngredient", map[string]any{
		"name":   name,
		"origin": origin,
	})
}

// DeleteIngredient is the resolver for the deleteIngredient field.
func (r *mutationResolver) DeleteIngredient(ctx context.Context, id int64) (*model.DeleteIngredientPayload, error) {
	return dispatch[*model.DeleteIngredientPayload](ctx, r.operations(), "Mutation.deleteIngredient", map[string]any{
		"id": id,
	})
}

// CreateCuisine is the resolver for the createCuisine field.
func (r *mutationResolver) CreateCuisine(ctx context.Context, name string, banner *graphql.Upload) (*model.CreateCuisinePayload, error) {
	args := map[string]any{"name": name}
	if banner != nil {
		args["banner"] = banner
	}
	return dispatch[*model.CreateCuisinePayload](ctx, r.operations(), "Mutation.createCuisine", args)
}

// Ingredient is the resolver for the ingredient field.
func (r *queryResolver) Ingredient(ctx context.Context, ingredientID int64) (*food.Ingredient, error) {
	return dispatch[*food.Ingredient](ctx, r.operations(), "Query.ingredient", map[string]any{
		"ingredientId": ingredientID,
	})
}

// Ingredients is the resolver for the ingredients field.
func (r *queryResolver) Ingredients(ctx context.Context) ([]*food.Ingredient, error) {
	return dispatch[[]*food.Ingredient](ctx, r.operations(), "Query.ingredients", nil)
}

// SearchIngredients is the resolver for the searchIngredients field.
func (r *queryResolver) SearchIngredients(ctx context.Context, query string, limit *int64) ([]*food.Ingredient, error) {
	args := map[string]any{"query": query}
	if limit != nil {
		args["limit"] = *limit
	}
	return dispatch[[]*food.Ingredient](ctx, r.operations(), "Query.searchIngredients", args)
}

// Cuisine is the resolver for the cuisine field.
func (r *queryResolver) Cuisine(ctx context.Context, cuisineID int64) (*food.Cuisine, error) {
	return dispatch[*food.Cuisine](ctx, r.operations(), "Query.cuisine", map[string]any{
		"cuisineId": cuisineID,
	})
}

// Cuisines is the resolver for the cuisines field.
func (r *queryResolver) Cuisines(ctx context.Context) ([]*food.Cuisine, error) {
	return dispatch[[]*food.Cuisine](ctx, r.operations(), "Query.cuisines", nil)
}

// Total is the resolver for the total field.
func (r *queryResolver) Total(ctx context.Context, a float64, b float64) (*float64, error) {
	return dispatch[*float64](ctx, r.operations(), "Query.total", map[string]any{
		"a": a,
		"b": b,
	})
}

// Cuisine returns CuisineResolver implementation.
func (r *Resolver) Cuisine() CuisineResolver { return &cuisineResolver{r} }

// Mutation returns MutationResolver implementation.
func (r *Resolver) Mutation() MutationResolver { return &mutationResolver{r} }

// Query returns QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

type cuisineResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }

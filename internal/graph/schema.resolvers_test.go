package graph

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/gqlgen/graphql"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/food"
	"github.com/hmans/larder/internal/logging"
	"github.com/hmans/larder/internal/search"
	"github.com/hmans/larder/internal/store"
)

func setupTestResolver(t *testing.T) *Resolver {
	t.Helper()
	ctx := context.Background()
	tmpDir := t.TempDir()

	s, err := store.Open(ctx, config.DriverSQLite, filepath.Join(tmpDir, "test.db"), logging.Discard())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	idx, err := search.NewIndex()
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	return &Resolver{
		Store:  s,
		Assets: assets.NewFileSystem(filepath.Join(tmpDir, "media"), "banners", "/media"),
		Index:  idx,
		Log:    logging.Component(logging.Discard(), "graph"),
	}
}

func createTestIngredient(t *testing.T, r *Resolver, name, origin string) *food.Ingredient {
	t.Helper()
	payload, err := r.Mutation().CreateIngredient(context.Background(), name, origin)
	if err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return payload.Ingredient
}

// run executes a document and decodes the data portion.
func run(t *testing.T, r *Resolver, query string, vars map[string]any) (map[string]any, *graphql.Response) {
	t.Helper()
	resp := Execute(context.Background(), r, query, vars, "")
	if resp == nil {
		t.Fatal("Execute() returned nil response")
	}
	var data map[string]any
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("invalid response data %s: %v", resp.Data, err)
		}
	}
	return data, resp
}

func TestQueryIngredient(t *testing.T) {
	resolver := setupTestResolver(t)
	ctx := context.Background()

	ing := createTestIngredient(t, resolver, "foo", "bar")

	t.Run("found", func(t *testing.T) {
		got, err := resolver.Query().Ingredient(ctx, ing.ID)
		if err != nil {
			t.Fatalf("Ingredient() error = %v", err)
		}
		if got.Name != "foo" || got.Origin != "bar" {
			t.Errorf("Ingredient() = {%q, %q}, want {\"foo\", \"bar\"}", got.Name, got.Origin)
		}
	})

	t.Run("not found", func(t *testing.T) {
		got, err := resolver.Query().Ingredient(ctx, -1)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Ingredient(-1) error = %v, want ErrNotFound", err)
		}
		if got != nil {
			t.Errorf("Ingredient(-1) = %v, want nil", got)
		}
		if err.Error() != "ingredient -1 not found" {
			t.Errorf("error message = %q", err.Error())
		}
	})
}

func TestQueryTotal(t *testing.T) {
	resolver := setupTestResolver(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		a, b    float64
		want    float64
		wantNil bool
	}{
		{"integers", 1, 2, 3, false},
		{"fractions", 0.5, 0.25, 0.75, false},
		{"negative", -4, 1.5, -2.5, false},
		{"nan", math.NaN(), 1, 0, true},
		{"opposite infinities", math.Inf(1), math.Inf(-1), 0, true},
		{"overflow", math.MaxFloat64, math.MaxFloat64, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Query().Total(ctx, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Total() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("Total() = %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("Total() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMutationDeleteIngredient(t *testing.T) {
	resolver := setupTestResolver(t)
	ctx := context.Background()

	ing := createTestIngredient(t, resolver, "foo", "bar")

	payload, err := resolver.Mutation().DeleteIngredient(ctx, ing.ID)
	if err != nil {
		t.Fatalf("DeleteIngredient() error = %v", err)
	}
	if !payload.Status {
		t.Error("DeleteIngredient() status = false, want true")
	}

	if _, err := resolver.Query().Ingredient(ctx, ing.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ingredient() after delete error = %v, want ErrNotFound", err)
	}

	if _, err := resolver.Mutation().DeleteIngredient(ctx, ing.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteIngredient() twice error = %v, want ErrNotFound", err)
	}

	hits, err := resolver.Index.Search("foo", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("deleted ingredient still indexed: %v", hits)
	}
}

func TestMutationCreateCuisine(t *testing.T) {
	resolver := setupTestResolver(t)
	ctx := context.Background()

	t.Run("with banner", func(t *testing.T) {
		upload := &graphql.Upload{
			File:        strings.NewReader("coconuts"),
			Filename:    "coconuts.txt",
			Size:        8,
			ContentType: "text/plain",
		}
		payload, err := resolver.Mutation().CreateCuisine(ctx, "foo", upload)
		if err != nil {
			t.Fatalf("CreateCuisine() error = %v", err)
		}
		c := payload.Cuisine
		if c.Name != "foo" {
			t.Errorf("Name = %q, want \"foo\"", c.Name)
		}
		if !c.HasBanner() {
			t.Fatal("Banner = nil, want stored key")
		}

		r, err := resolver.Assets.Open(ctx, *c.Banner)
		if err != nil {
			t.Fatalf("banner not stored: %v", err)
		}
		r.Close()
	})

	t.Run("without banner", func(t *testing.T) {
		payload, err := resolver.Mutation().CreateCuisine(ctx, "plain", nil)
		if err != nil {
			t.Fatalf("CreateCuisine() error = %v", err)
		}
		c := payload.Cuisine
		if c.HasBanner() {
			t.Errorf("Banner = %q, want nil", *c.Banner)
		}
	})
}

func TestMutationCreateCuisineRemovesBannerOnFailure(t *testing.T) {
	resolver := setupTestResolver(t)
	ctx := context.Background()

	if err := resolver.Store.DB().Migrator().DropTable(&food.Cuisine{}); err != nil {
		t.Fatalf("DropTable() error = %v", err)
	}

	upload := &graphql.Upload{
		File:        strings.NewReader("coconuts"),
		Filename:    "coconuts.txt",
		Size:        8,
		ContentType: "text/plain",
	}
	payload, err := resolver.Mutation().CreateCuisine(ctx, "foo", upload)
	if err == nil {
		t.Fatalf("CreateCuisine() = %+v, want error", payload)
	}
	if strings.Count(err.Error(), "creating cuisine") != 1 {
		t.Errorf("error = %q, want a single \"creating cuisine\" prefix", err.Error())
	}

	dir := filepath.Join(resolver.Assets.(*assets.FileSystem).Root(), "banners")
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("orphaned banners left in %s: %v", dir, entries)
	}
}

func TestExecuteCreateAndQueryIngredient(t *testing.T) {
	resolver := setupTestResolver(t)

	data, resp := run(t, resolver, `mutation {
		createIngredient(name: "foo", origin: "bar") { ingredient { id name origin } }
	}`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("createIngredient errors = %v", resp.Errors)
	}

	ing := data["createIngredient"].(map[string]any)["ingredient"].(map[string]any)
	if ing["name"] != "foo" || ing["origin"] != "bar" {
		t.Errorf("created = %v, want name foo origin bar", ing)
	}
	id := ing["id"].(float64)
	if id <= 0 {
		t.Errorf("id = %v, want positive", id)
	}

	data, resp = run(t, resolver, `query GetIngredient($id: Int!) {
		ingredient(ingredientId: $id) { id name origin }
	}`, map[string]any{"id": int64(id)})
	if len(resp.Errors) > 0 {
		t.Fatalf("ingredient errors = %v", resp.Errors)
	}
	got := data["ingredient"].(map[string]any)
	if got["name"] != "foo" || got["origin"] != "bar" || got["id"].(float64) != id {
		t.Errorf("ingredient = %v", got)
	}
}

func TestExecuteIngredientNotFound(t *testing.T) {
	resolver := setupTestResolver(t)

	data, resp := run(t, resolver, `{ ingredient(ingredientId: -1) { id name origin } }`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", resp.Errors)
	}
	if code := ErrorCode(resp.Errors[0]); code != CodeNotFound {
		t.Errorf("error code = %q, want %q", code, CodeNotFound)
	}
	if resp.Errors[0].Path.String() != "ingredient" {
		t.Errorf("error path = %q, want \"ingredient\"", resp.Errors[0].Path.String())
	}
	if v, ok := data["ingredient"]; !ok || v != nil {
		t.Errorf("data.ingredient = %v (present %v), want null", v, ok)
	}
}

func TestExecuteDeleteIngredient(t *testing.T) {
	resolver := setupTestResolver(t)
	ing := createTestIngredient(t, resolver, "foo", "bar")

	data, resp := run(t, resolver, `mutation Delete($id: Int!) { deleteIngredient(id: $id) { status } }`,
		map[string]any{"id": ing.ID})
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}
	if status := data["deleteIngredient"].(map[string]any)["status"]; status != true {
		t.Errorf("status = %v, want true", status)
	}

	if _, err := resolver.Store.Ingredient(context.Background(), ing.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("row still present after delete: %v", err)
	}

	data, resp = run(t, resolver, `mutation Delete($id: Int!) { deleteIngredient(id: $id) { status } }`,
		map[string]any{"id": ing.ID})
	if len(resp.Errors) != 1 || ErrorCode(resp.Errors[0]) != CodeNotFound {
		t.Fatalf("second delete errors = %v, want one NOT_FOUND", resp.Errors)
	}
	if data["deleteIngredient"] != nil {
		t.Errorf("data.deleteIngredient = %v, want null", data["deleteIngredient"])
	}
}

func TestExecuteCreateCuisineUpload(t *testing.T) {
	resolver := setupTestResolver(t)

	upload := graphql.Upload{
		File:        strings.NewReader("coconuts"),
		Filename:    "coconuts.txt",
		Size:        8,
		ContentType: "text/plain",
	}
	data, resp := run(t, resolver, `mutation Create($name: String!, $banner: Upload) {
		createCuisine(name: $name, banner: $banner) { cuisine { name banner bannerUrl } }
	}`, map[string]any{"name": "foo", "banner": upload})
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}

	c := data["createCuisine"].(map[string]any)["cuisine"].(map[string]any)
	if c["name"] != "foo" {
		t.Errorf("name = %v, want foo", c["name"])
	}
	banner, ok := c["banner"].(string)
	if !ok || !strings.HasPrefix(banner, "banners/coconuts") {
		t.Errorf("banner = %v, want banners/coconuts*", c["banner"])
	}
	if c["bannerUrl"] != "/media/"+banner {
		t.Errorf("bannerUrl = %v, want /media/%s", c["bannerUrl"], banner)
	}

	data, resp = run(t, resolver, `mutation { createCuisine(name: "plain") { cuisine { name banner bannerUrl } } }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}
	c = data["createCuisine"].(map[string]any)["cuisine"].(map[string]any)
	if c["banner"] != nil || c["bannerUrl"] != nil {
		t.Errorf("cuisine without upload = %v, want null banner", c)
	}
}

func TestExecuteTotal(t *testing.T) {
	resolver := setupTestResolver(t)

	data, resp := run(t, resolver, `{ total(a: 1.5, b: 2) }`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}
	if data["total"] != 3.5 {
		t.Errorf("total = %v, want 3.5", data["total"])
	}
}

func TestExecuteListingsAndSearch(t *testing.T) {
	resolver := setupTestResolver(t)

	createTestIngredient(t, resolver, "Saffron", "Iran")
	createTestIngredient(t, resolver, "Cardamom", "India")
	createTestIngredient(t, resolver, "Black Pepper", "India")

	data, resp := run(t, resolver, `{
		ingredients { name }
		searchIngredients(query: "origin:india") { name }
		limited: searchIngredients(query: "origin:india", limit: 1) { name }
		cuisines { id }
	}`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}

	if n := len(data["ingredients"].([]any)); n != 3 {
		t.Errorf("len(ingredients) = %d, want 3", n)
	}
	if n := len(data["searchIngredients"].([]any)); n != 2 {
		t.Errorf("len(searchIngredients) = %d, want 2", n)
	}
	if n := len(data["limited"].([]any)); n != 1 {
		t.Errorf("len(limited) = %d, want 1", n)
	}
	if n := len(data["cuisines"].([]any)); n != 0 {
		t.Errorf("len(cuisines) = %d, want 0", n)
	}
}

func TestExecuteSelectionShape(t *testing.T) {
	resolver := setupTestResolver(t)
	ing := createTestIngredient(t, resolver, "foo", "bar")

	query := `query Shape($id: Int!, $withOrigin: Boolean!) {
		__typename
		first: ingredient(ingredientId: $id) { ...Parts __typename }
		second: ingredient(ingredientId: $id) { origin @include(if: $withOrigin) name }
	}
	fragment Parts on Ingredient { name id }`

	resp := Execute(context.Background(), resolver, query, map[string]any{"id": ing.ID, "withOrigin": false}, "")
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}

	want := `{"__typename":"Query","first":{"name":"foo","id":` + jsonInt(ing.ID) + `,"__typename":"Ingredient"},"second":{"name":"foo"}}`
	if string(resp.Data) != want {
		t.Errorf("data = %s\nwant   %s", resp.Data, want)
	}
}

func TestExecuteValidationErrors(t *testing.T) {
	resolver := setupTestResolver(t)

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"unknown field", `{ ingredient(ingredientId: 1) { calories } }`, "GRAPHQL_VALIDATION_FAILED"},
		{"missing argument", `{ ingredient { id } }`, "GRAPHQL_VALIDATION_FAILED"},
		{"wrong argument type", `{ ingredient(ingredientId: "one") { id } }`, "GRAPHQL_VALIDATION_FAILED"},
		{"syntax", `{ ingredient(`, "GRAPHQL_PARSE_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Execute(context.Background(), resolver, tt.query, nil, "")
			if len(resp.Errors) == 0 {
				t.Fatal("expected errors")
			}
			if code := ErrorCode(resp.Errors[0]); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if len(resp.Data) != 0 {
				t.Errorf("data = %s, want absent", resp.Data)
			}
		})
	}
}

type panicOp struct{}

func (panicOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	panic("boom")
}

func TestExecuteRootFieldIsolation(t *testing.T) {
	resolver := setupTestResolver(t)
	ops := newRegistry(resolver)
	resolver.ops = registry{
		"Query.total":               panicOp{},
		"Query.ingredients":         ops["Query.ingredients"],
		"Query.ingredient":          ops["Query.ingredient"],
		"Mutation.createIngredient": ops["Mutation.createIngredient"],
	}
	createTestIngredient(t, resolver, "foo", "bar")

	data, resp := run(t, resolver, `{ total(a: 1, b: 2) ingredient(ingredientId: 999) { id } ingredients { name } }`, nil)
	if len(resp.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", resp.Errors)
	}

	codes := map[string]string{}
	for _, e := range resp.Errors {
		codes[e.Path.String()] = ErrorCode(e)
	}
	if codes["total"] != CodeInternal {
		t.Errorf("total error code = %q, want %q", codes["total"], CodeInternal)
	}
	for _, e := range resp.Errors {
		if e.Path.String() == "total" && e.Message != "internal system error" {
			t.Errorf("panic message = %q, want \"internal system error\"", e.Message)
		}
	}
	if codes["ingredient"] != CodeNotFound {
		t.Errorf("ingredient error code = %q, want %q", codes["ingredient"], CodeNotFound)
	}

	if data["total"] != nil || data["ingredient"] != nil {
		t.Errorf("failed fields = %v / %v, want null", data["total"], data["ingredient"])
	}
	if n := len(data["ingredients"].([]any)); n != 1 {
		t.Errorf("len(ingredients) = %d, want 1", n)
	}
}

type staticOp struct{ v any }

func (op staticOp) Resolve(ctx context.Context, args map[string]any) (any, error) {
	return op.v, nil
}

func TestExecuteNonNullPropagation(t *testing.T) {
	resolver := setupTestResolver(t)
	resolver.ops = registry{
		"Query.ingredients": staticOp{[]*food.Ingredient{{ID: 1, Name: "foo"}, nil}},
		"Query.total":       newRegistry(resolver)["Query.total"],
	}

	resp := Execute(context.Background(), resolver, `{ total(a: 1, b: 2) ingredients { id name } }`, nil, "")
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", resp.Errors)
	}
	if got := resp.Errors[0].Path.String(); got != "ingredients[1]" {
		t.Errorf("error path = %q, want \"ingredients[1]\"", got)
	}
	if code := ErrorCode(resp.Errors[0]); code != CodeInternal {
		t.Errorf("error code = %q, want %q", code, CodeInternal)
	}
	if string(resp.Data) != "null" {
		t.Errorf("data = %s, want null", resp.Data)
	}
}

func TestExecuteIntrospection(t *testing.T) {
	resolver := setupTestResolver(t)

	data, resp := run(t, resolver, `{
		__schema { queryType { name } mutationType { name } }
		__type(name: "Ingredient") { name kind fields { name } }
	}`, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}

	schema := data["__schema"].(map[string]any)
	if name := schema["queryType"].(map[string]any)["name"]; name != "Query" {
		t.Errorf("queryType.name = %v, want Query", name)
	}
	if name := schema["mutationType"].(map[string]any)["name"]; name != "Mutation" {
		t.Errorf("mutationType.name = %v, want Mutation", name)
	}

	typ := data["__type"].(map[string]any)
	if typ["name"] != "Ingredient" || typ["kind"] != "OBJECT" {
		t.Errorf("__type = %v, want Ingredient OBJECT", typ)
	}
	if n := len(typ["fields"].([]any)); n != 3 {
		t.Errorf("len(Ingredient.fields) = %d, want 3", n)
	}
}

func TestExecuteInternalErrorIsMasked(t *testing.T) {
	resolver := setupTestResolver(t)
	if err := resolver.Store.DB().Migrator().DropTable(&food.Cuisine{}); err != nil {
		t.Fatalf("DropTable() error = %v", err)
	}

	data, resp := run(t, resolver, `mutation { createCuisine(name: "foo") { cuisine { id } } }`, nil)
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", resp.Errors)
	}
	e := resp.Errors[0]
	if e.Message != "internal system error" {
		t.Errorf("message = %q, want \"internal system error\"", e.Message)
	}
	if code := ErrorCode(e); code != CodeInternal {
		t.Errorf("code = %q, want %q", code, CodeInternal)
	}
	if e.Path.String() != "createCuisine" {
		t.Errorf("path = %q, want \"createCuisine\"", e.Path.String())
	}
	if data["createCuisine"] != nil {
		t.Errorf("data.createCuisine = %v, want null", data["createCuisine"])
	}
}

func TestExecuteBadUpload(t *testing.T) {
	resolver := setupTestResolver(t)

	data, resp := run(t, resolver, `mutation Create($banner: Upload) {
		createCuisine(name: "foo", banner: $banner) { cuisine { id } }
	}`, map[string]any{"banner": "not a file"})
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", resp.Errors)
	}
	if code := ErrorCode(resp.Errors[0]); code != CodeBadUserInput {
		t.Errorf("code = %q, want %q", code, CodeBadUserInput)
	}
	if data["createCuisine"] != nil {
		t.Errorf("data.createCuisine = %v, want null", data["createCuisine"])
	}

	cuisines, err := resolver.Store.Cuisines(context.Background())
	if err != nil {
		t.Fatalf("Cuisines() error = %v", err)
	}
	if len(cuisines) != 0 {
		t.Errorf("cuisines = %d, want none created", len(cuisines))
	}
}

func TestSchemaSDL(t *testing.T) {
	sdl := SchemaSDL()
	for _, want := range []string{
		"scalar Upload",
		"type Ingredient",
		"createCuisine(name: String!, banner: Upload): CreateCuisinePayload",
		"total(a: Float!, b: Float!): Float",
	} {
		if !strings.Contains(sdl, want) {
			t.Errorf("SchemaSDL() missing %q", want)
		}
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

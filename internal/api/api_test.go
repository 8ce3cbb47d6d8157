package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/plateful/recipe-api/internal/api"
	"github.com/plateful/recipe-api/internal/auth"
	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/images"
	"github.com/plateful/recipe-api/internal/logger"
	"github.com/plateful/recipe-api/internal/service"
	"github.com/plateful/recipe-api/internal/storage/memory"
)

// onePixelPNG is a valid 1x1 PNG, base64 encoded.
const onePixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAIAAACQd1PeAAAADElEQVR4nGP4z8AAAAMBAQDJ/pLvAAAAAElFTkSuQmCC"

const testBaseURL = "http://localhost:8080"

// testServer creates a test server with in-memory storage.
type testServer struct {
	handler http.Handler
	store   *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.New()
	imageStore, err := images.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create image store: %v", err)
	}

	tokens := auth.NewTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour)

	userService := service.NewUserService(store, imageStore)
	services := api.Services{
		Users:         userService,
		Recipes:       service.NewRecipeService(store, userService, imageStore),
		Relations:     service.NewRelationService(store),
		Subscriptions: service.NewSubscriptionService(store, userService),
		ShoppingList:  service.NewShoppingListService(store),
	}

	handler := api.NewRouter(store, services, tokens, imageStore, testBaseURL, logger.New("error"))

	return &testServer{handler: handler, store: store}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// registerAndLogin creates an account and returns its id and a bearer token.
func (ts *testServer) registerAndLogin(t *testing.T, email, username string) (string, string) {
	t.Helper()

	rr := ts.request("POST", "/api/users/", map[string]string{
		"email":      email,
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "supersecret",
	}, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("Register: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var profile domain.Profile
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Register: invalid response: %v", err)
	}

	rr = ts.request("POST", "/api/auth/token/login/", map[string]string{
		"email":    email,
		"password": "supersecret",
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Login: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var tok domain.TokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &tok); err != nil {
		t.Fatalf("Login: invalid response: %v", err)
	}
	return profile.ID, tok.AuthToken
}

// seedCatalog inserts a tag and two ingredients directly into the store and
// returns the tag id plus both ingredient ids.
func (ts *testServer) seedCatalog(t *testing.T) (string, string, string) {
	t.Helper()
	ctx := context.Background()

	tag := &domain.Tag{ID: "tag-breakfast", Name: "Breakfast", Slug: "breakfast"}
	if err := ts.store.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	flour := &domain.Ingredient{ID: "ing-flour", Name: "flour", MeasurementUnit: "g"}
	if err := ts.store.CreateIngredient(ctx, flour); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	salt := &domain.Ingredient{ID: "ing-salt", Name: "salt", MeasurementUnit: "g"}
	if err := ts.store.CreateIngredient(ctx, salt); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}
	return tag.ID, flour.ID, salt.ID
}

func recipePayload(name string, lines ...map[string]any) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Cook it well.",
		"image":        "data:image/png;base64," + onePixelPNG,
		"cooking_time": 20,
		"tags":         []string{"tag-breakfast"},
		"ingredients":  lines,
	}
}

func (ts *testServer) createRecipe(t *testing.T, token string, payload map[string]any) *domain.RecipeView {
	t.Helper()

	rr := ts.request("POST", "/api/recipes/", payload, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Create recipe: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var view domain.RecipeView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("Create recipe: invalid response: %v", err)
	}
	return &view
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("GET", "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", resp["status"])
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/api/users/", map[string]string{
		"email":      "not-an-email",
		"username":   "ok",
		"first_name": "A",
		"last_name":  "B",
		"password":   "supersecret",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	var fields map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &fields); err != nil {
		t.Fatalf("Invalid error body: %v", err)
	}
	if len(fields["email"]) == 0 {
		t.Errorf("Expected an email field error, got %v", fields)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("POST", "/api/users/", map[string]string{
		"email":      "cook@example.com",
		"username":   "othercook",
		"first_name": "Other",
		"last_name":  "Cook",
		"password":   "supersecret",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate email, got %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/users/me/"},
		{"POST", "/api/recipes/"},
		{"GET", "/api/users/subscriptions/"},
		{"GET", "/api/recipes/download_shopping_cart/"},
	}
	for _, ep := range endpoints {
		rr := ts.request(ep.method, ep.path, nil, "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", ep.method, ep.path, rr.Code)
		}
	}
}

func TestLoginBadPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("POST", "/api/auth/token/login/", map[string]string{
		"email":    "cook@example.com",
		"password": "wrongwrong",
	}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad password, got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("GET", "/api/users/me/", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var profile domain.Profile
	_ = json.Unmarshal(rr.Body.Bytes(), &profile)
	if profile.ID != id || profile.Username != "cook" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}

func TestRecipeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	created := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))
	if created.Name != "Pancakes" || created.CookingTime != 20 {
		t.Errorf("Unexpected recipe: %+v", created)
	}
	if !strings.HasPrefix(created.Image, "/media/recipes/") {
		t.Errorf("Expected a media image URL, got %q", created.Image)
	}
	if len(created.Tags) != 1 || created.Tags[0].Slug != "breakfast" {
		t.Errorf("Unexpected tags: %+v", created.Tags)
	}
	if len(created.Ingredients) != 1 || created.Ingredients[0].Name != "flour" {
		t.Errorf("Unexpected ingredients: %+v", created.Ingredients)
	}

	// Patch without image: the stored image must survive.
	patch := recipePayload("Thin Pancakes",
		map[string]any{"id": "ing-flour", "amount": 150},
	)
	delete(patch, "image")
	rr := ts.request("PATCH", "/api/recipes/"+created.ID+"/", patch, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Patch: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated domain.RecipeView
	_ = json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Name != "Thin Pancakes" {
		t.Errorf("Expected updated name, got %q", updated.Name)
	}
	if updated.Image != created.Image {
		t.Errorf("Expected image %q to survive the update, got %q", created.Image, updated.Image)
	}
	if updated.Ingredients[0].Amount != 150 {
		t.Errorf("Expected replaced ingredient amount 150, got %d", updated.Ingredients[0].Amount)
	}

	rr = ts.request("DELETE", "/api/recipes/"+created.ID+"/", nil, token)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Delete: expected status 204, got %d", rr.Code)
	}
	rr = ts.request("GET", "/api/recipes/"+created.ID+"/", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Get after delete: expected status 404, got %d", rr.Code)
	}
}

func TestRecipeUnknownReferences(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	payload := recipePayload("Mystery",
		map[string]any{"id": "ing-unknown", "amount": 10},
	)
	rr := ts.request("POST", "/api/recipes/", payload, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown ingredient, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRecipeDuplicateIngredientRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	payload := recipePayload("Double Flour",
		map[string]any{"id": "ing-flour", "amount": 100},
		map[string]any{"id": "ing-flour", "amount": 50},
	)
	rr := ts.request("POST", "/api/recipes/", payload, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate ingredient, got %d", rr.Code)
	}
}

func TestRecipeAuthorOnlyMutations(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, authorToken := ts.registerAndLogin(t, "author@example.com", "author")
	_, otherToken := ts.registerAndLogin(t, "other@example.com", "other")

	created := ts.createRecipe(t, authorToken, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))

	rr := ts.request("PATCH", "/api/recipes/"+created.ID+"/", recipePayload("Hijacked",
		map[string]any{"id": "ing-flour", "amount": 1},
	), otherToken)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Patch by non-author: expected status 403, got %d", rr.Code)
	}

	rr = ts.request("DELETE", "/api/recipes/"+created.ID+"/", nil, otherToken)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Delete by non-author: expected status 403, got %d", rr.Code)
	}
}

func TestFavoriteAddRemove(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	created := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))

	rr := ts.request("POST", "/api/recipes/"+created.ID+"/favorite/", nil, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Favorite: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary domain.RecipeSummary
	_ = json.Unmarshal(rr.Body.Bytes(), &summary)
	if summary.ID != created.ID || summary.Name != "Pancakes" {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	// Second add is a client error, not a second row.
	rr = ts.request("POST", "/api/recipes/"+created.ID+"/favorite/", nil, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Duplicate favorite: expected status 400, got %d", rr.Code)
	}

	rr = ts.request("GET", "/api/recipes/"+created.ID+"/", nil, token)
	var view domain.RecipeView
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if !view.IsFavorited {
		t.Errorf("Expected is_favorited true after add")
	}

	rr = ts.request("DELETE", "/api/recipes/"+created.ID+"/favorite/", nil, token)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Unfavorite: expected status 204, got %d", rr.Code)
	}
	rr = ts.request("DELETE", "/api/recipes/"+created.ID+"/favorite/", nil, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Double unfavorite: expected status 400, got %d", rr.Code)
	}
}

func TestShoppingCartIndependentOfFavorites(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	created := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))

	rr := ts.request("POST", "/api/recipes/"+created.ID+"/shopping_cart/", nil, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Cart add: expected status 201, got %d", rr.Code)
	}

	rr = ts.request("GET", "/api/recipes/"+created.ID+"/", nil, token)
	var view domain.RecipeView
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.IsFavorited {
		t.Errorf("Cart membership must not imply favorite")
	}
	if !view.IsInShoppingCart {
		t.Errorf("Expected is_in_shopping_cart true after add")
	}
}

func TestAnonymousFlagsFalse(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	created := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))
	ts.request("POST", "/api/recipes/"+created.ID+"/favorite/", nil, token)

	rr := ts.request("GET", "/api/recipes/"+created.ID+"/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Anonymous get: expected status 200, got %d", rr.Code)
	}
	var view domain.RecipeView
	_ = json.Unmarshal(rr.Body.Bytes(), &view)
	if view.IsFavorited || view.IsInShoppingCart {
		t.Errorf("Anonymous view must have false flags: %+v", view)
	}
}

func TestRecipeFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	if err := ts.store.CreateTag(context.Background(), &domain.Tag{ID: "tag-dinner", Name: "Dinner", Slug: "dinner"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))
	dinner := recipePayload("Soup",
		map[string]any{"id": "ing-salt", "amount": 5},
	)
	dinner["tags"] = []string{"tag-dinner"}
	ts.createRecipe(t, token, dinner)

	var page struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}

	rr := ts.request("GET", "/api/recipes/?tags=dinner", nil, "")
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 1 {
		t.Errorf("tags=dinner: expected count 1, got %d", page.Count)
	}

	rr = ts.request("GET", "/api/recipes/?tags=dinner&tags=breakfast", nil, "")
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 2 {
		t.Errorf("two tag slugs: expected count 2, got %d", page.Count)
	}

	// The favorited filter restricts to the actor; anonymous gets nothing.
	rr = ts.request("GET", "/api/recipes/?is_favorited=1", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Anonymous favorited filter: expected status 200, got %d", rr.Code)
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 0 {
		t.Errorf("Anonymous favorited filter: expected count 0, got %d", page.Count)
	}
}

func TestRecipeFiltersAuthorAndRelations(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	cookID, cookToken := ts.registerAndLogin(t, "cook@example.com", "cook")
	_, readerToken := ts.registerAndLogin(t, "reader@example.com", "reader")

	pancakes := ts.createRecipe(t, cookToken, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))
	soup := ts.createRecipe(t, readerToken, recipePayload("Soup",
		map[string]any{"id": "ing-salt", "amount": 5},
	))

	var page struct {
		Count   int                  `json:"count"`
		Results []*domain.RecipeView `json:"results"`
	}

	rr := ts.request("GET", "/api/recipes/?author="+cookID, nil, "")
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 1 || len(page.Results) != 1 || page.Results[0].ID != pancakes.ID {
		t.Errorf("Author filter: expected only %q, got %+v", pancakes.ID, page)
	}

	rr = ts.request("POST", "/api/recipes/"+soup.ID+"/favorite/", nil, readerToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Favorite: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = ts.request("POST", "/api/recipes/"+pancakes.ID+"/shopping_cart/", nil, readerToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Add to cart: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = ts.request("GET", "/api/recipes/?is_favorited=1", nil, readerToken)
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 1 || len(page.Results) != 1 || page.Results[0].ID != soup.ID {
		t.Errorf("Favorited filter: expected only %q, got %+v", soup.ID, page)
	}

	rr = ts.request("GET", "/api/recipes/?is_in_shopping_cart=true", nil, readerToken)
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 1 || len(page.Results) != 1 || page.Results[0].ID != pancakes.ID {
		t.Errorf("Cart filter: expected only %q, got %+v", pancakes.ID, page)
	}

	// The relation filters are scoped to the actor, not to everyone's rows.
	rr = ts.request("GET", "/api/recipes/?is_favorited=1", nil, cookToken)
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 0 {
		t.Errorf("Favorited filter for cook: expected count 0, got %d", page.Count)
	}
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	authorID, authorToken := ts.registerAndLogin(t, "author@example.com", "author")
	_, readerToken := ts.registerAndLogin(t, "reader@example.com", "reader")

	ts.createRecipe(t, authorToken, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))

	rr := ts.request("POST", "/api/users/"+authorID+"/subscribe/", nil, readerToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Subscribe: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var sub domain.ProfileWithRecipes
	_ = json.Unmarshal(rr.Body.Bytes(), &sub)
	if !sub.IsSubscribed || sub.Username != "author" {
		t.Errorf("Unexpected subscription view: %+v", sub)
	}
	if sub.RecipesCount != 1 || len(sub.Recipes) != 1 {
		t.Errorf("Expected one recipe in subscription view, got %+v", sub)
	}

	rr = ts.request("POST", "/api/users/"+authorID+"/subscribe/", nil, readerToken)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Duplicate subscribe: expected status 400, got %d", rr.Code)
	}

	rr = ts.request("GET", "/api/users/subscriptions/", nil, readerToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("List subscriptions: expected status 200, got %d", rr.Code)
	}
	var page struct {
		Count   int                          `json:"count"`
		Results []*domain.ProfileWithRecipes `json:"results"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 1 || len(page.Results) != 1 {
		t.Errorf("Expected one subscription, got %+v", page)
	}

	rr = ts.request("DELETE", "/api/users/"+authorID+"/subscribe/", nil, readerToken)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Unsubscribe: expected status 204, got %d", rr.Code)
	}
	rr = ts.request("DELETE", "/api/users/"+authorID+"/subscribe/", nil, readerToken)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Double unsubscribe: expected status 400, got %d", rr.Code)
	}
}

func TestSubscriptionRecipesLimit(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	authorID, authorToken := ts.registerAndLogin(t, "author@example.com", "author")
	_, readerToken := ts.registerAndLogin(t, "reader@example.com", "reader")

	ts.createRecipe(t, authorToken, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))
	ts.createRecipe(t, authorToken, recipePayload("Soup",
		map[string]any{"id": "ing-salt", "amount": 5},
	))

	rr := ts.request("POST", "/api/users/"+authorID+"/subscribe/?recipes_limit=1", nil, readerToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Subscribe: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var sub domain.ProfileWithRecipes
	_ = json.Unmarshal(rr.Body.Bytes(), &sub)
	if len(sub.Recipes) != 1 {
		t.Errorf("recipes_limit=1: expected 1 recipe, got %d", len(sub.Recipes))
	}
	// The count reflects the author's total, not the truncated window.
	if sub.RecipesCount != 2 {
		t.Errorf("recipes_limit=1: expected recipes_count 2, got %d", sub.RecipesCount)
	}

	var page struct {
		Results []*domain.ProfileWithRecipes `json:"results"`
	}

	rr = ts.request("GET", "/api/users/subscriptions/?recipes_limit=1", nil, readerToken)
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if len(page.Results) != 1 || len(page.Results[0].Recipes) != 1 {
		t.Errorf("List with recipes_limit=1: expected one truncated profile, got %+v", page)
	}
	if page.Results[0].RecipesCount != 2 {
		t.Errorf("List with recipes_limit=1: expected recipes_count 2, got %d", page.Results[0].RecipesCount)
	}

	// A non-numeric value means unlimited.
	rr = ts.request("GET", "/api/users/subscriptions/?recipes_limit=all", nil, readerToken)
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if len(page.Results) != 1 || len(page.Results[0].Recipes) != 2 {
		t.Errorf("Non-numeric recipes_limit: expected 2 recipes, got %+v", page)
	}
}

func TestSelfSubscriptionRejected(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("POST", "/api/users/"+id+"/subscribe/", nil, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Self-subscribe: expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestShoppingListDownload(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	first := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
		map[string]any{"id": "ing-salt", "amount": 5},
	))
	second := ts.createRecipe(t, token, recipePayload("Flatbread",
		map[string]any{"id": "ing-flour", "amount": 50},
	))
	ts.request("POST", "/api/recipes/"+first.ID+"/shopping_cart/", nil, token)
	ts.request("POST", "/api/recipes/"+second.ID+"/shopping_cart/", nil, token)

	rr := ts.request("GET", "/api/recipes/download_shopping_cart/", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Download: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain content type, got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Expected attachment disposition, got %q", cd)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "Recipes total: 2") {
		t.Errorf("Expected two recipes in report:\n%s", body)
	}
	if !strings.Contains(body, "Flour - 150 g") {
		t.Errorf("Expected flour summed to 150 g:\n%s", body)
	}
	if !strings.Contains(body, "Salt - 5 g") {
		t.Errorf("Expected salt line:\n%s", body)
	}
	if !strings.Contains(body, "- Pancakes (author: cook)") {
		t.Errorf("Expected recipe attribution:\n%s", body)
	}
}

func TestShoppingListEmptyCart(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("GET", "/api/recipes/download_shopping_cart/", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Empty cart download: expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Recipes total: 0") || !strings.Contains(body, "Ingredients total: 0") {
		t.Errorf("Expected zero counts in empty report:\n%s", body)
	}
}

func TestShortLink(t *testing.T) {
	ts := newTestServer(t)
	ts.seedCatalog(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	created := ts.createRecipe(t, token, recipePayload("Pancakes",
		map[string]any{"id": "ing-flour", "amount": 100},
	))

	rr := ts.request("GET", "/api/recipes/"+created.ID+"/get-link/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Get link: expected status 200, got %d", rr.Code)
	}
	var link map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &link)
	want := testBaseURL + "/s/" + created.ID
	if link["short-link"] != want {
		t.Errorf("Expected short link %q, got %q", want, link["short-link"])
	}

	rr = ts.request("GET", "/s/"+created.ID, nil, "")
	if rr.Code != http.StatusFound {
		t.Fatalf("Resolve: expected status 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != testBaseURL+"/recipes/"+created.ID {
		t.Errorf("Unexpected redirect target %q", loc)
	}

	rr = ts.request("GET", "/s/nonexistent", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Resolve missing: expected status 404, got %d", rr.Code)
	}
}

func TestAvatarLifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	rr := ts.request("PUT", "/api/users/me/avatar/", map[string]string{
		"avatar": "data:image/png;base64," + onePixelPNG,
	}, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("Set avatar: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp domain.SetAvatarRequest
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.Avatar, "/media/avatars/") {
		t.Errorf("Expected a media avatar URL, got %q", resp.Avatar)
	}

	rr = ts.request("GET", "/api/users/me/", nil, token)
	var profile domain.Profile
	_ = json.Unmarshal(rr.Body.Bytes(), &profile)
	if profile.Avatar != resp.Avatar {
		t.Errorf("Expected profile avatar %q, got %q", resp.Avatar, profile.Avatar)
	}

	rr = ts.request("DELETE", "/api/users/me/avatar/", nil, token)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Delete avatar: expected status 204, got %d", rr.Code)
	}
}

func TestUserListPagination(t *testing.T) {
	ts := newTestServer(t)
	ts.registerAndLogin(t, "a@example.com", "usera")
	ts.registerAndLogin(t, "b@example.com", "userb")
	ts.registerAndLogin(t, "c@example.com", "userc")

	rr := ts.request("GET", "/api/users/?limit=2&page=1", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("List users: expected status 200, got %d", rr.Code)
	}
	var page struct {
		Count    int               `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []*domain.Profile `json:"results"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &page)
	if page.Count != 3 || len(page.Results) != 2 {
		t.Errorf("Expected count 3 with 2 results, got %+v", page)
	}
	if page.Next == nil || page.Previous != nil {
		t.Errorf("Expected next link only on first page, got next=%v previous=%v", page.Next, page.Previous)
	}
}

func TestAdminOnlyCatalogWrites(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t, "cook@example.com", "cook")

	tag := map[string]string{"name": "Dinner", "slug": "dinner"}
	rr := ts.request("POST", "/api/tags/", tag, token)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("Tag create by non-admin: expected status 403, got %d", rr.Code)
	}

	// Promote to admin and retry.
	user, err := ts.store.GetUserByEmail(context.Background(), "cook@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	user.IsAdmin = true
	if err := ts.store.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	rr = ts.request("POST", "/api/tags/", tag, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Tag create by admin: expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = ts.request("POST", "/api/ingredients/", map[string]string{
		"name": "flour", "measurement_unit": "g",
	}, token)
	if rr.Code != http.StatusCreated {
		t.Errorf("Ingredient create by admin: expected status 201, got %d", rr.Code)
	}
}

func TestIngredientPrefixSearch(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for _, ing := range []*domain.Ingredient{
		{ID: "ing-1", Name: "flour", MeasurementUnit: "g"},
		{ID: "ing-2", Name: "flaxseed", MeasurementUnit: "g"},
		{ID: "ing-3", Name: "salt", MeasurementUnit: "g"},
	} {
		if err := ts.store.CreateIngredient(ctx, ing); err != nil {
			t.Fatalf("CreateIngredient: %v", err)
		}
	}

	rr := ts.request("GET", "/api/ingredients/?name=fl", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Search: expected status 200, got %d", rr.Code)
	}
	var ingredients []*domain.Ingredient
	_ = json.Unmarshal(rr.Body.Bytes(), &ingredients)
	if len(ingredients) != 2 {
		t.Errorf("Expected 2 matches for prefix fl, got %d", len(ingredients))
	}
}

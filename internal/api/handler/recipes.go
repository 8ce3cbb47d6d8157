package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/recipe-api/internal/api/middleware"
	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/pagination"
	"github.com/plateful/recipe-api/internal/service"
	"github.com/plateful/recipe-api/internal/storage"
)

// RecipeHandler handles recipe endpoints.
type RecipeHandler struct {
	store   storage.Storage
	recipes *service.RecipeService
	baseURL string
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(store storage.Storage, recipes *service.RecipeService, baseURL string) *RecipeHandler {
	return &RecipeHandler{store: store, recipes: recipes, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// boolParam reports whether a query flag is set truthy ("1" or "true").
func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "1" || v == "true"
}

// List returns a paginated, filtered page of recipes.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	params := pagination.Parse(r)

	opts := service.ListOptions{
		AuthorID:      r.URL.Query().Get("author"),
		TagSlugs:      r.URL.Query()["tags"],
		OnlyFavorited: boolParam(r, "is_favorited"),
		OnlyInCart:    boolParam(r, "is_in_shopping_cart"),
		Limit:         params.Limit,
		Offset:        params.Offset(),
	}

	views, total, err := h.recipes.List(r.Context(), actor, opts)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pagination.NewPage(r, params, total, views))
}

// Create creates a new recipe owned by the acting user.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var payload domain.RecipePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.recipes.Create(r.Context(), actor, &payload)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// Get returns one recipe in full.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	view, err := h.recipes.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Update replaces a recipe's fields, tag set, and ingredient lines from the
// payload; the stored image survives when the payload omits one. Author only.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var payload domain.RecipePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.recipes.Update(r.Context(), actor, chi.URLParam(r, "id"), &payload)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Delete deletes a recipe. Author only.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	if err := h.recipes.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLink returns the stable short link for a recipe.
func (h *RecipeHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetRecipe(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"short-link": h.baseURL + "/s/" + id,
	})
}

// Resolve redirects a short link to the recipe page.
func (h *RecipeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetRecipe(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	http.Redirect(w, r, h.baseURL+"/recipes/"+id, http.StatusFound)
}

// RelationHandler handles the favorite and shopping cart toggles. One
// handler per relation kind, both backed by the same service.
type RelationHandler struct {
	relations *service.RelationService
	kind      domain.RelationKind
}

// NewRelationHandler creates a RelationHandler for the given kind.
func NewRelationHandler(relations *service.RelationService, kind domain.RelationKind) *RelationHandler {
	return &RelationHandler{relations: relations, kind: kind}
}

// Add adds the recipe to the acting user's relation set.
func (h *RelationHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	summary, err := h.relations.Add(r.Context(), actor, h.kind, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, summary)
}

// Remove removes the recipe from the acting user's relation set.
func (h *RelationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	if err := h.relations.Remove(r.Context(), actor, h.kind, chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

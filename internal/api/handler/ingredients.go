package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
	"github.com/plateful/recipe-api/internal/validation"
)

// IngredientHandler handles ingredient reference endpoints.
type IngredientHandler struct {
	store storage.Storage
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(store storage.Storage) *IngredientHandler {
	return &IngredientHandler{store: store}
}

// Create creates a new ingredient. Admin only, enforced by the router.
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var errs validation.ValidationErrors
	if req.Name == "" {
		errs.Add("name", req.Name, "name is required")
	}
	if req.MeasurementUnit == "" {
		errs.Add("measurement_unit", req.MeasurementUnit, "measurement_unit is required")
	}
	if errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	ingredient := &domain.Ingredient{
		ID:              generateID(),
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	}
	if err := h.store.CreateIngredient(r.Context(), ingredient); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ingredient)
}

// List lists ingredients, optionally filtered by a case-insensitive
// name prefix.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredients)
}

// Get returns one ingredient.
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.store.GetIngredient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ingredient)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/recipe-api/internal/api/middleware"
	"github.com/plateful/recipe-api/internal/pagination"
	"github.com/plateful/recipe-api/internal/service"
)

// SubscriptionHandler handles user subscription endpoints.
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptions *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// Subscribe subscribes the acting user to the target user.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	recipesLimit := service.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))

	view, err := h.subscriptions.Subscribe(r.Context(), actor, chi.URLParam(r, "id"), recipesLimit)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// Unsubscribe removes the acting user's subscription to the target user.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	if err := h.subscriptions.Unsubscribe(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List returns a paginated page of the acting user's subscription targets.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	params := pagination.Parse(r)
	recipesLimit := service.ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))

	views, total, err := h.subscriptions.List(r.Context(), actor, recipesLimit, params)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pagination.NewPage(r, params, total, views))
}

package handler

import (
	"net/http"

	"github.com/plateful/recipe-api/internal/api/middleware"
	"github.com/plateful/recipe-api/internal/service"
)

// ShoppingListHandler serves the aggregated shopping list download.
type ShoppingListHandler struct {
	shopping *service.ShoppingListService
}

// NewShoppingListHandler creates a new ShoppingListHandler.
func NewShoppingListHandler(shopping *service.ShoppingListService) *ShoppingListHandler {
	return &ShoppingListHandler{shopping: shopping}
}

// Download compiles the acting user's shopping list and returns it as a
// plain-text attachment. An empty cart yields a report with zero counts.
func (h *ShoppingListHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	report, err := h.shopping.Compile(r.Context(), actor)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report.Content))
}

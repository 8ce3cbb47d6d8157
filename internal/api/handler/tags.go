package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
	"github.com/plateful/recipe-api/internal/validation"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	store storage.Storage
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(store storage.Storage) *TagHandler {
	return &TagHandler{store: store}
}

// Create creates a new tag. Admin only, enforced by the router.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var errs validation.ValidationErrors
	if req.Name == "" {
		errs.Add("name", req.Name, "name is required")
	}
	if err := validation.ValidateSlug(req.Slug); err != nil {
		errs.Add("slug", req.Slug, err.Error())
	}
	if errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	tag := &domain.Tag{
		ID:   generateID(),
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := h.store.CreateTag(r.Context(), tag); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tag)
}

// List lists all tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

// Get returns one tag.
func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	tag, err := h.store.GetTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tag)
}

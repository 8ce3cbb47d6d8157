package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateful/recipe-api/internal/api/middleware"
	"github.com/plateful/recipe-api/internal/auth"
	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/pagination"
	"github.com/plateful/recipe-api/internal/service"
)

// UserHandler handles account and profile endpoints.
type UserHandler struct {
	users  *service.UserService
	tokens *auth.Tokens
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, tokens *auth.Tokens) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

// Register creates a new account.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, &domain.Profile{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// List returns a paginated page of public profiles.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())
	params := pagination.Parse(r)

	profiles, total, err := h.users.ListProfiles(r.Context(), actor, params.Limit, params.Offset())
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pagination.NewPage(r, params, total, profiles))
}

// Get returns one public profile.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Me returns the acting user's own profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), actor, actor.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// SetPassword changes the acting user's password.
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req domain.SetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.SetPassword(r.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAvatar replaces the acting user's avatar from a base64 data URI.
func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	var req domain.SetAvatarRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.users.SetAvatar(r.Context(), actor, req.Avatar)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &domain.SetAvatarRequest{Avatar: url})
}

// DeleteAvatar removes the acting user's avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFromContext(r.Context())

	if err := h.users.ClearAvatar(r.Context(), actor); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login exchanges email/password for a bearer token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &domain.TokenResponse{AuthToken: token})
}

// Logout acknowledges a logout. Tokens are stateless, so the client simply
// discards its copy.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

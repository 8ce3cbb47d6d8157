package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/plateful/recipe-api/internal/auth"
	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
)

type contextKey string

const UserContextKey contextKey = "user"

// Authenticate resolves a bearer token to its account and stores it in the
// request context. Requests without a valid token stay anonymous; use
// RequireUser on routes that need an authenticated actor.
func Authenticate(store storage.Storage, tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(authHeader, "Bearer ")
			userID, err := tokens.Parse(raw)
			if err != nil {
				http.Error(w, `{"code":401,"message":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			user, err := store.GetUser(r.Context(), userID)
			if err != nil {
				if err == domain.ErrNotFound {
					http.Error(w, `{"code":401,"message":"invalid token"}`, http.StatusUnauthorized)
					return
				}
				http.Error(w, `{"code":500,"message":"internal server error"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Error(w, `{"code":401,"message":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose actor is not an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			http.Error(w, `{"code":401,"message":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			http.Error(w, `{"code":403,"message":"administrator access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext retrieves the authenticated user from the request context,
// or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(UserContextKey).(*domain.User)
	return user
}

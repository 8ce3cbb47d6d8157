package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/plateful/recipe-api/internal/api/handler"
	"github.com/plateful/recipe-api/internal/api/middleware"
	"github.com/plateful/recipe-api/internal/auth"
	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/images"
	"github.com/plateful/recipe-api/internal/service"
	"github.com/plateful/recipe-api/internal/storage"
)

// Services bundles the application services the router dispatches to.
type Services struct {
	Users         *service.UserService
	Recipes       *service.RecipeService
	Relations     *service.RelationService
	Subscriptions *service.SubscriptionService
	ShoppingList  *service.ShoppingListService
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(
	store storage.Storage,
	svc Services,
	tokens *auth.Tokens,
	imageStore *images.Store,
	baseURL string,
	log *logrus.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Stored media (avatars, recipe images)
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(imageStore.Root())))
	r.Get("/media/*", fileServer.ServeHTTP)

	recipeHandler := handler.NewRecipeHandler(store, svc.Recipes, baseURL)

	// Short links resolve outside the API prefix
	r.Get("/s/{id}", recipeHandler.Resolve)

	// API routes (JSON Content-Type, bearer token resolved when present)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Authenticate(store, tokens))

		userHandler := handler.NewUserHandler(svc.Users, tokens)
		subscriptionHandler := handler.NewSubscriptionHandler(svc.Subscriptions)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Register)
			r.Get("/", userHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/me", userHandler.Me)
				r.Put("/me/avatar", userHandler.SetAvatar)
				r.Delete("/me/avatar", userHandler.DeleteAvatar)
				r.Post("/set_password", userHandler.SetPassword)
				r.Get("/subscriptions", subscriptionHandler.List)
				r.Post("/{id}/subscribe", subscriptionHandler.Subscribe)
				r.Delete("/{id}/subscribe", subscriptionHandler.Unsubscribe)
			})

			r.Get("/{id}", userHandler.Get)
		})

		r.Route("/auth/token", func(r chi.Router) {
			r.Post("/login", userHandler.Login)
			r.With(middleware.RequireUser).Post("/logout", userHandler.Logout)
		})

		tagHandler := handler.NewTagHandler(store)
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tagHandler.List)
			r.Get("/{id}", tagHandler.Get)
			r.With(middleware.RequireAdmin).Post("/", tagHandler.Create)
		})

		ingredientHandler := handler.NewIngredientHandler(store)
		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", ingredientHandler.List)
			r.Get("/{id}", ingredientHandler.Get)
			r.With(middleware.RequireAdmin).Post("/", ingredientHandler.Create)
		})

		favoriteHandler := handler.NewRelationHandler(svc.Relations, domain.RelationFavorite)
		cartHandler := handler.NewRelationHandler(svc.Relations, domain.RelationShoppingCart)
		shoppingHandler := handler.NewShoppingListHandler(svc.ShoppingList)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.With(middleware.RequireUser).Post("/", recipeHandler.Create)
			r.With(middleware.RequireUser).Get("/download_shopping_cart", shoppingHandler.Download)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.Get)
				r.Get("/get-link", recipeHandler.GetLink)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireUser)
					r.Patch("/", recipeHandler.Update)
					r.Delete("/", recipeHandler.Delete)
					r.Post("/favorite", favoriteHandler.Add)
					r.Delete("/favorite", favoriteHandler.Remove)
					r.Post("/shopping_cart", cartHandler.Add)
					r.Delete("/shopping_cart", cartHandler.Remove)
				})
			})
		})
	})

	return r
}

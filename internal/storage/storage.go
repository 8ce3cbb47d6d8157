package storage

import (
	"context"

	"github.com/plateful/recipe-api/internal/domain"
)

// Storage defines the interface for the storage layer.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Close closes the storage connection.
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)

	// Ingredients
	CreateIngredient(ctx context.Context, ing *domain.Ingredient) error
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]*domain.Ingredient, error)

	// Recipes. GetRecipe and ListRecipes return recipes hydrated with
	// their tag set and ingredient lines.
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error)
	CountRecipes(ctx context.Context, filter domain.RecipeFilter) (int, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error
	ReplaceIngredientLines(ctx context.Context, recipeID string, lines []domain.IngredientLineInput) error

	// Favorite / shopping-cart relations, parameterized by kind.
	// AddRelation returns domain.ErrAlreadyExists for a duplicate pair;
	// RemoveRelation returns domain.ErrNotFound when no row matches.
	AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error
	RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error
	HasRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error)

	// Subscriptions
	AddSubscription(ctx context.Context, subscriberID, targetID string) error
	RemoveSubscription(ctx context.Context, subscriberID, targetID string) error
	IsSubscribed(ctx context.Context, subscriberID, targetID string) (bool, error)
	ListSubscriptionTargets(ctx context.Context, subscriberID string) ([]*domain.User, error)

	// Shopping list
	ListCartRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error)
	SumCartIngredients(ctx context.Context, userID string) ([]*domain.AggregatedIngredient, error)

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Storage
	Commit() error
	Rollback() error
}

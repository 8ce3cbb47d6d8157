package service

import (
	"context"
	"fmt"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
)

// RelationService is the uniqueness-guarded add/remove logic shared by
// favorites and the shopping cart. One implementation, parameterized by
// relation kind, so both behave identically.
type RelationService struct {
	store storage.Storage
}

// NewRelationService creates a new RelationService.
func NewRelationService(store storage.Storage) *RelationService {
	return &RelationService{store: store}
}

// Add inserts the (user, recipe) row for the given kind and returns the
// compact recipe summary. A duplicate pair reports a conflict naming the
// relation; the store's unique constraint is the arbiter under races.
func (s *RelationService) Add(ctx context.Context, actor *domain.User, kind domain.RelationKind, recipeID string) (*domain.RecipeSummary, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddRelation(ctx, kind, actor.ID, recipeID); err != nil {
		if err == domain.ErrAlreadyExists {
			return nil, fmt.Errorf("%w: recipe %q is already in %s", domain.ErrAlreadyExists, recipe.Name, kind.Label())
		}
		return nil, err
	}

	return &domain.RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       mediaURL(recipe.Image),
		CookingTime: recipe.CookingTime,
	}, nil
}

// Remove deletes the (user, recipe) row for the given kind. A missing row
// is a bad request naming the relation; it never succeeds by accident.
func (s *RelationService) Remove(ctx context.Context, actor *domain.User, kind domain.RelationKind, recipeID string) error {
	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return err
	}
	if err := s.store.RemoveRelation(ctx, kind, actor.ID, recipeID); err != nil {
		if err == domain.ErrNotFound {
			return fmt.Errorf("%w: recipe not in %s", domain.ErrInvalidInput, kind.Label())
		}
		return err
	}
	return nil
}

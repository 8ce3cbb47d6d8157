package service

import (
	"context"
	"fmt"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/pagination"
	"github.com/plateful/recipe-api/internal/storage"
	"github.com/plateful/recipe-api/internal/validation"
)

// SubscriptionService handles user-to-user subscriptions.
type SubscriptionService struct {
	store storage.Storage
	users *UserService
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(store storage.Storage, users *UserService) *SubscriptionService {
	return &SubscriptionService{store: store, users: users}
}

// Subscribe adds a subscription from actor to targetID and returns the
// target's profile with its recipes truncated to recipesLimit (0 means
// unlimited). Self-subscription and duplicates are per-field validation
// failures; the CHECK and unique constraints back both up in the store.
func (s *SubscriptionService) Subscribe(ctx context.Context, actor *domain.User, targetID string, recipesLimit int) (*domain.ProfileWithRecipes, error) {
	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddSubscription(ctx, actor.ID, target.ID); err != nil {
		var errs validation.ValidationErrors
		switch err {
		case domain.ErrSelfSubscription:
			errs.Add("subscribed_to", targetID, "cannot subscribe to yourself")
			return nil, errs
		case domain.ErrAlreadyExists:
			errs.Add("subscribed_to", targetID, "already subscribed to this user")
			return nil, errs
		}
		return nil, err
	}

	return s.users.renderProfileWithRecipes(ctx, actor, target, profileOptions{
		withRecipes:  true,
		recipesLimit: recipesLimit,
	})
}

// Unsubscribe removes the subscription from actor to targetID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, actor *domain.User, targetID string) error {
	if _, err := s.store.GetUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.store.RemoveSubscription(ctx, actor.ID, targetID); err != nil {
		if err == domain.ErrNotFound {
			return fmt.Errorf("%w: not subscribed to this user", domain.ErrInvalidInput)
		}
		return err
	}
	return nil
}

// List renders a window of the actor's subscription targets plus the total
// count, each with recipes truncated to recipesLimit.
func (s *SubscriptionService) List(ctx context.Context, actor *domain.User, recipesLimit int, params pagination.Params) ([]*domain.ProfileWithRecipes, int, error) {
	targets, err := s.store.ListSubscriptionTargets(ctx, actor.ID)
	if err != nil {
		return nil, 0, err
	}
	total := len(targets)
	window := pagination.Window(targets, params)

	views := make([]*domain.ProfileWithRecipes, 0, len(window))
	for _, target := range window {
		view, err := s.users.renderProfileWithRecipes(ctx, actor, target, profileOptions{
			withRecipes:  true,
			recipesLimit: recipesLimit,
		})
		if err != nil {
			return nil, 0, err
		}
		views = append(views, view)
	}
	return views, total, nil
}

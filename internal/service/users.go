package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/images"
	"github.com/plateful/recipe-api/internal/storage"
	"github.com/plateful/recipe-api/internal/validation"
)

// UserService handles accounts and public profile rendering.
type UserService struct {
	store  storage.Storage
	images *images.Store
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Storage, imageStore *images.Store) *UserService {
	return &UserService{store: store, images: imageStore}
}

// Register creates a new account. Email and username collisions surface as
// per-field validation errors.
func (s *UserService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if errs := validation.ValidateCreateUser(req); errs.HasErrors() {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if err == domain.ErrAlreadyExists {
			var errs validation.ValidationErrors
			errs.Add("email", req.Email, "a user with this email or username already exists")
			return nil, errs
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the email/password pair and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrInvalidPassword
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidPassword
	}
	return user, nil
}

// SetPassword changes the actor's password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, actor *domain.User, current, next string) error {
	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidPassword
	}
	if len(next) < 8 {
		var errs validation.ValidationErrors
		errs.Add("new_password", "", "password must be at least 8 characters")
		return errs
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	actor.PasswordHash = string(hash)
	return s.store.UpdateUser(ctx, actor)
}

// SetAvatar decodes the submitted image and makes it the actor's avatar.
// The previous avatar file is removed once the new one is recorded.
func (s *UserService) SetAvatar(ctx context.Context, actor *domain.User, dataURI string) (string, error) {
	if dataURI == "" {
		var errs validation.ValidationErrors
		errs.Add("avatar", "", "this field is required")
		return "", errs
	}
	ref, err := s.images.SaveDataURI(dataURI, "avatars")
	if err != nil {
		return "", err
	}
	previous := actor.Avatar
	actor.Avatar = ref
	if err := s.store.UpdateUser(ctx, actor); err != nil {
		s.images.Delete(ref)
		return "", err
	}
	if previous != "" {
		s.images.Delete(previous)
	}
	return mediaURL(ref), nil
}

// ClearAvatar removes the actor's avatar, deleting the stored file.
func (s *UserService) ClearAvatar(ctx context.Context, actor *domain.User) error {
	previous := actor.Avatar
	actor.Avatar = ""
	if err := s.store.UpdateUser(ctx, actor); err != nil {
		return err
	}
	if previous != "" {
		s.images.Delete(previous)
	}
	return nil
}

// profileOptions configures the optional sections of a rendered profile.
type profileOptions struct {
	withRecipes  bool
	recipesLimit int // 0 = unlimited, only meaningful with withRecipes
}

// renderProfile builds the public representation of user as seen by actor.
// actor may be nil (anonymous); is_subscribed is then always false.
func (s *UserService) renderProfile(ctx context.Context, actor, user *domain.User) (*domain.Profile, error) {
	subscribed := false
	if actor != nil && actor.ID != user.ID {
		var err error
		subscribed, err = s.store.IsSubscribed(ctx, actor.ID, user.ID)
		if err != nil {
			return nil, err
		}
	}
	return &domain.Profile{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       mediaURL(user.Avatar),
	}, nil
}

// renderProfileWithRecipes augments the profile with the user's recipes,
// truncated to opts.recipesLimit, and the untruncated total count.
func (s *UserService) renderProfileWithRecipes(ctx context.Context, actor, user *domain.User, opts profileOptions) (*domain.ProfileWithRecipes, error) {
	profile, err := s.renderProfile(ctx, actor, user)
	if err != nil {
		return nil, err
	}
	view := &domain.ProfileWithRecipes{Profile: *profile, Recipes: []*domain.RecipeSummary{}}
	if !opts.withRecipes {
		return view, nil
	}

	filter := domain.RecipeFilter{AuthorID: user.ID}
	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, err
	}
	view.RecipesCount = len(recipes)
	if opts.recipesLimit > 0 && opts.recipesLimit < len(recipes) {
		recipes = recipes[:opts.recipesLimit]
	}
	for _, recipe := range recipes {
		view.Recipes = append(view.Recipes, &domain.RecipeSummary{
			ID:          recipe.ID,
			Name:        recipe.Name,
			Image:       mediaURL(recipe.Image),
			CookingTime: recipe.CookingTime,
		})
	}
	return view, nil
}

// Profile renders the public profile of userID as seen by actor.
func (s *UserService) Profile(ctx context.Context, actor *domain.User, userID string) (*domain.Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.renderProfile(ctx, actor, user)
}

// ListProfiles renders a window of all accounts plus the total count.
func (s *UserService) ListProfiles(ctx context.Context, actor *domain.User, limit, offset int) ([]*domain.Profile, int, error) {
	users, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, 0, err
	}
	profiles := make([]*domain.Profile, 0, len(users))
	for _, user := range users {
		profile, err := s.renderProfile(ctx, actor, user)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, total, nil
}

// ParseRecipesLimit interprets the advisory recipes_limit query value.
// Non-numeric or absent means unlimited.
func ParseRecipesLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

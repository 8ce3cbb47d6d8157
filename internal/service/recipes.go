package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/images"
	"github.com/plateful/recipe-api/internal/storage"
	"github.com/plateful/recipe-api/internal/validation"
)

// RecipeService owns the recipe aggregate: validation, transactional
// persistence of the recipe row with its tag set and ingredient lines,
// and read rendering.
type RecipeService struct {
	store  storage.Storage
	users  *UserService
	images *images.Store
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(store storage.Storage, users *UserService, imageStore *images.Store) *RecipeService {
	return &RecipeService{store: store, users: users, images: imageStore}
}

// checkReferences verifies that every submitted tag and ingredient id exists,
// reporting unknown ids as per-field validation errors.
func (s *RecipeService) checkReferences(ctx context.Context, payload *domain.RecipePayload) validation.ValidationErrors {
	var errs validation.ValidationErrors
	for _, tagID := range payload.Tags {
		if _, err := s.store.GetTag(ctx, tagID); err != nil {
			errs.Add("tags", tagID, "unknown tag")
		}
	}
	for _, line := range payload.Ingredients {
		if _, err := s.store.GetIngredient(ctx, line.ID); err != nil {
			errs.Add("ingredients", line.ID, "unknown ingredient")
		}
	}
	return errs
}

// Create validates the payload and persists a new recipe. The recipe row,
// its tag set, and its ingredient lines are written in one transaction;
// the image is decoded and stored only after validation passes.
func (s *RecipeService) Create(ctx context.Context, author *domain.User, payload *domain.RecipePayload) (*domain.RecipeView, error) {
	if errs := validation.ValidateRecipePayload(payload, true); errs.HasErrors() {
		return nil, errs
	}
	if errs := s.checkReferences(ctx, payload); errs.HasErrors() {
		return nil, errs
	}

	image, err := s.images.SaveDataURI(*payload.Image, "recipes")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:          uuid.New().String(),
		AuthorID:    author.ID,
		Name:        payload.Name,
		Text:        payload.Text,
		Image:       image,
		CookingTime: payload.CookingTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	if err := tx.SetRecipeTags(ctx, recipe.ID, payload.Tags); err != nil {
		return nil, err
	}
	if err := tx.ReplaceIngredientLines(ctx, recipe.ID, payload.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.Get(ctx, author, recipe.ID)
}

// Update validates the payload and replaces the recipe's scalar fields, tag
// set, and ingredient lines in one transaction. Only the author may update.
// An omitted image keeps the stored one.
func (s *RecipeService) Update(ctx context.Context, actor *domain.User, recipeID string, payload *domain.RecipePayload) (*domain.RecipeView, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actor.ID {
		return nil, domain.ErrForbidden
	}

	if errs := validation.ValidateRecipePayload(payload, false); errs.HasErrors() {
		return nil, errs
	}
	if errs := s.checkReferences(ctx, payload); errs.HasErrors() {
		return nil, errs
	}

	recipe.Name = payload.Name
	recipe.Text = payload.Text
	recipe.CookingTime = payload.CookingTime
	recipe.UpdatedAt = time.Now().UTC()
	previousImage := ""
	if payload.Image != nil && *payload.Image != "" {
		image, err := s.images.SaveDataURI(*payload.Image, "recipes")
		if err != nil {
			return nil, err
		}
		previousImage = recipe.Image
		recipe.Image = image
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.UpdateRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	if err := tx.SetRecipeTags(ctx, recipe.ID, payload.Tags); err != nil {
		return nil, err
	}
	if err := tx.ReplaceIngredientLines(ctx, recipe.ID, payload.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if previousImage != "" {
		// The replaced blob is unreferenced now; a leftover file is harmless.
		_ = s.images.Delete(previousImage)
	}

	return s.Get(ctx, actor, recipe.ID)
}

// Delete removes a recipe. Only the author may delete; favorites, cart
// entries, and ingredient lines cascade in the store.
func (s *RecipeService) Delete(ctx context.Context, actor *domain.User, recipeID string) error {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != actor.ID {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}
	_ = s.images.Delete(recipe.Image)
	return nil
}

// render builds the read representation of recipe as seen by actor.
// actor may be nil; is_favorited and is_in_shopping_cart are then false.
func (s *RecipeService) render(ctx context.Context, actor *domain.User, recipe *domain.Recipe) (*domain.RecipeView, error) {
	author, err := s.store.GetUser(ctx, recipe.AuthorID)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.renderProfile(ctx, actor, author)
	if err != nil {
		return nil, err
	}

	view := &domain.RecipeView{
		ID:          recipe.ID,
		Author:      profile,
		Tags:        recipe.Tags,
		Ingredients: recipe.Ingredients,
		Name:        recipe.Name,
		Image:       mediaURL(recipe.Image),
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
	}
	if actor != nil {
		if view.IsFavorited, err = s.store.HasRelation(ctx, domain.RelationFavorite, actor.ID, recipe.ID); err != nil {
			return nil, err
		}
		if view.IsInShoppingCart, err = s.store.HasRelation(ctx, domain.RelationShoppingCart, actor.ID, recipe.ID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// Get renders a single recipe as seen by actor (nil for anonymous).
func (s *RecipeService) Get(ctx context.Context, actor *domain.User, recipeID string) (*domain.RecipeView, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, actor, recipe)
}

// ListOptions narrows a recipe listing at the request boundary.
type ListOptions struct {
	AuthorID      string
	TagSlugs      []string
	OnlyFavorited bool
	OnlyInCart    bool
	Limit, Offset int
}

// List renders a filtered window of recipes plus the total matching count.
// The favorited and cart filters restrict to the actor's rows; when either
// is requested by an anonymous actor the result is empty, not an error.
func (s *RecipeService) List(ctx context.Context, actor *domain.User, opts ListOptions) ([]*domain.RecipeView, int, error) {
	if (opts.OnlyFavorited || opts.OnlyInCart) && actor == nil {
		return []*domain.RecipeView{}, 0, nil
	}

	filter := domain.RecipeFilter{
		AuthorID: opts.AuthorID,
		TagSlugs: opts.TagSlugs,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	if opts.OnlyFavorited {
		filter.FavoritedBy = actor.ID
	}
	if opts.OnlyInCart {
		filter.InCartOf = actor.ID
	}

	recipes, err := s.store.ListRecipes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountRecipes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*domain.RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		view, err := s.render(ctx, actor, recipe)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, view)
	}
	return views, total, nil
}

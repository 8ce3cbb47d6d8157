package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
)

// Store is an in-memory implementation of the storage interface for testing.
// It enforces the same uniqueness rules as the SQL schema.
type Store struct {
	mu sync.RWMutex

	users         map[string]*domain.User
	tags          map[string]*domain.Tag
	ingredients   map[string]*domain.Ingredient
	recipes       map[string]*domain.Recipe
	recipeTags    map[string][]string                     // recipeID -> tag ids
	recipeLines   map[string][]domain.IngredientLineInput // recipeID -> lines
	relations     map[domain.RelationKind]map[string]bool // key: userID:recipeID
	subscriptions map[string]bool                         // key: subscriberID:targetID
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		tags:        make(map[string]*domain.Tag),
		ingredients: make(map[string]*domain.Ingredient),
		recipes:     make(map[string]*domain.Recipe),
		recipeTags:  make(map[string][]string),
		recipeLines: make(map[string][]domain.IngredientLineInput),
		relations: map[domain.RelationKind]map[string]bool{
			domain.RelationFavorite:     make(map[string]bool),
			domain.RelationShoppingCart: make(map[string]bool),
		},
		subscriptions: make(map[string]bool),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return &Tx{store: s}, nil
}

func pairKey(a, b string) string {
	return a + ":" + b
}

// ============================================
// Users
// ============================================

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrAlreadyExists
		}
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		u := *user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return window(users, limit, offset), nil
}

// window applies limit/offset truncation to an already-sorted slice.
func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrAlreadyExists
		}
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

// ============================================
// Tags
// ============================================

func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tags {
		if existing.Name == tag.Name || existing.Slug == tag.Slug {
			return domain.ErrAlreadyExists
		}
	}
	t := *tag
	s.tags[tag.ID] = &t
	return nil
}

func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := *tag
	return &t, nil
}

func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := make([]*domain.Tag, 0, len(s.tags))
	for _, tag := range s.tags {
		t := *tag
		tags = append(tags, &t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// ============================================
// Ingredients
// ============================================

func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ingredients {
		if existing.Name == ing.Name && existing.MeasurementUnit == ing.MeasurementUnit {
			return domain.ErrAlreadyExists
		}
	}
	i := *ing
	s.ingredients[ing.ID] = &i
	return nil
}

func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.ingredients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	i := *ing
	return &i, nil
}

func (s *Store) ListIngredients(ctx context.Context, namePrefix string) ([]*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := strings.ToLower(namePrefix)
	ings := []*domain.Ingredient{}
	for _, ing := range s.ingredients {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(ing.Name), prefix) {
			continue
		}
		i := *ing
		ings = append(ings, &i)
	}
	sort.Slice(ings, func(i, j int) bool { return ings[i].Name < ings[j].Name })
	return ings, nil
}

// ============================================
// Recipes
// ============================================

func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[recipe.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r := *recipe
	r.Tags = nil
	r.Ingredients = nil
	s.recipes[recipe.ID] = &r
	return nil
}

// hydrate returns a copy of the stored recipe with tags and lines attached.
// Callers must hold at least a read lock.
func (s *Store) hydrate(recipe *domain.Recipe) *domain.Recipe {
	r := *recipe
	r.Tags = []*domain.Tag{}
	for _, tagID := range s.recipeTags[recipe.ID] {
		if tag, ok := s.tags[tagID]; ok {
			t := *tag
			r.Tags = append(r.Tags, &t)
		}
	}
	sort.Slice(r.Tags, func(i, j int) bool { return r.Tags[i].Name < r.Tags[j].Name })

	r.Ingredients = []*domain.IngredientLine{}
	for _, line := range s.recipeLines[recipe.ID] {
		ing, ok := s.ingredients[line.ID]
		if !ok {
			continue
		}
		r.Ingredients = append(r.Ingredients, &domain.IngredientLine{
			IngredientID:    ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	sort.Slice(r.Ingredients, func(i, j int) bool { return r.Ingredients[i].Name < r.Ingredients[j].Name })
	return &r
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recipe, ok := s.recipes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.hydrate(recipe), nil
}

func (s *Store) matchesFilter(recipe *domain.Recipe, filter domain.RecipeFilter) bool {
	if filter.AuthorID != "" && recipe.AuthorID != filter.AuthorID {
		return false
	}
	if len(filter.TagSlugs) > 0 {
		matched := false
		for _, tagID := range s.recipeTags[recipe.ID] {
			tag, ok := s.tags[tagID]
			if !ok {
				continue
			}
			for _, slug := range filter.TagSlugs {
				if tag.Slug == slug {
					matched = true
				}
			}
		}
		if !matched {
			return false
		}
	}
	if filter.FavoritedBy != "" && !s.relations[domain.RelationFavorite][pairKey(filter.FavoritedBy, recipe.ID)] {
		return false
	}
	if filter.InCartOf != "" && !s.relations[domain.RelationShoppingCart][pairKey(filter.InCartOf, recipe.ID)] {
		return false
	}
	return true
}

func (s *Store) listFiltered(filter domain.RecipeFilter) []*domain.Recipe {
	recipes := []*domain.Recipe{}
	for _, recipe := range s.recipes {
		if s.matchesFilter(recipe, filter) {
			recipes = append(recipes, s.hydrate(recipe))
		}
	}
	// Newest first, id as a tie-break for a stable order.
	sort.Slice(recipes, func(i, j int) bool {
		if !recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
		}
		return recipes[i].ID < recipes[j].ID
	})
	return recipes
}

func (s *Store) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.listFiltered(filter), filter.Limit, filter.Offset), nil
}

func (s *Store) CountRecipes(ctx context.Context, filter domain.RecipeFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, recipe := range s.recipes {
		if s.matchesFilter(recipe, filter) {
			count++
		}
	}
	return count, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recipes[recipe.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Name = recipe.Name
	existing.Text = recipe.Text
	existing.Image = recipe.Image
	existing.CookingTime = recipe.CookingTime
	existing.UpdatedAt = recipe.UpdatedAt
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.recipes, id)
	delete(s.recipeTags, id)
	delete(s.recipeLines, id)
	// Cascade to favorites and cart entries.
	for _, rel := range s.relations {
		for key := range rel {
			if strings.HasSuffix(key, ":"+id) {
				delete(rel, key)
			}
		}
	}
	return nil
}

func (s *Store) SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[recipeID]; !ok {
		return domain.ErrNotFound
	}
	s.recipeTags[recipeID] = append([]string{}, tagIDs...)
	return nil
}

func (s *Store) ReplaceIngredientLines(ctx context.Context, recipeID string, lines []domain.IngredientLineInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[recipeID]; !ok {
		return domain.ErrNotFound
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if seen[line.ID] {
			return domain.ErrAlreadyExists
		}
		seen[line.ID] = true
	}
	s.recipeLines[recipeID] = append([]domain.IngredientLineInput{}, lines...)
	return nil
}

// ============================================
// Favorite / shopping-cart relations
// ============================================

func (s *Store) AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(userID, recipeID)
	if s.relations[kind][key] {
		return domain.ErrAlreadyExists
	}
	s.relations[kind][key] = true
	return nil
}

func (s *Store) RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(userID, recipeID)
	if !s.relations[kind][key] {
		return domain.ErrNotFound
	}
	delete(s.relations[kind], key)
	return nil
}

func (s *Store) HasRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relations[kind][pairKey(userID, recipeID)], nil
}

// ============================================
// Subscriptions
// ============================================

func (s *Store) AddSubscription(ctx context.Context, subscriberID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subscriberID == targetID {
		return domain.ErrSelfSubscription
	}
	key := pairKey(subscriberID, targetID)
	if s.subscriptions[key] {
		return domain.ErrAlreadyExists
	}
	s.subscriptions[key] = true
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, subscriberID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(subscriberID, targetID)
	if !s.subscriptions[key] {
		return domain.ErrNotFound
	}
	delete(s.subscriptions, key)
	return nil
}

func (s *Store) IsSubscribed(ctx context.Context, subscriberID, targetID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscriptions[pairKey(subscriberID, targetID)], nil
}

func (s *Store) ListSubscriptionTargets(ctx context.Context, subscriberID string) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := []*domain.User{}
	for key := range s.subscriptions {
		if strings.HasPrefix(key, subscriberID+":") {
			targetID := strings.TrimPrefix(key, subscriberID+":")
			if user, ok := s.users[targetID]; ok {
				u := *user
				users = append(users, &u)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// ============================================
// Shopping list
// ============================================

func (s *Store) ListCartRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFiltered(domain.RecipeFilter{InCartOf: userID}), nil
}

func (s *Store) SumCartIngredients(ctx context.Context, userID string) ([]*domain.AggregatedIngredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[string]*domain.AggregatedIngredient)
	for _, recipe := range s.recipes {
		if !s.relations[domain.RelationShoppingCart][pairKey(userID, recipe.ID)] {
			continue
		}
		for _, line := range s.recipeLines[recipe.ID] {
			ing, ok := s.ingredients[line.ID]
			if !ok {
				continue
			}
			key := ing.Name + "/" + ing.MeasurementUnit
			if agg, ok := totals[key]; ok {
				agg.Total += line.Amount
			} else {
				totals[key] = &domain.AggregatedIngredient{
					Name:            ing.Name,
					MeasurementUnit: ing.MeasurementUnit,
					Total:           line.Amount,
				}
			}
		}
	}
	sums := make([]*domain.AggregatedIngredient, 0, len(totals))
	for _, agg := range totals {
		sums = append(sums, agg)
	}
	sort.Slice(sums, func(i, j int) bool {
		return strings.ToLower(sums[i].Name) < strings.ToLower(sums[j].Name)
	})
	return sums, nil
}

// Tx is a no-op transaction for the in-memory store.
type Tx struct {
	store *Store
}

func (t *Tx) Commit() error   { return nil }
func (t *Tx) Rollback() error { return nil }
func (t *Tx) Close() error    { return nil }
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, domain.ErrInvalidInput
}

// Forward all Tx methods to the underlying store
func (t *Tx) CreateUser(ctx context.Context, user *domain.User) error {
	return t.store.CreateUser(ctx, user)
}
func (t *Tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return t.store.GetUser(ctx, id)
}
func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return t.store.GetUserByEmail(ctx, email)
}
func (t *Tx) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return t.store.ListUsers(ctx, limit, offset)
}
func (t *Tx) CountUsers(ctx context.Context) (int, error) {
	return t.store.CountUsers(ctx)
}
func (t *Tx) UpdateUser(ctx context.Context, user *domain.User) error {
	return t.store.UpdateUser(ctx, user)
}
func (t *Tx) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return t.store.CreateTag(ctx, tag)
}
func (t *Tx) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	return t.store.GetTag(ctx, id)
}
func (t *Tx) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return t.store.ListTags(ctx)
}
func (t *Tx) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	return t.store.CreateIngredient(ctx, ing)
}
func (t *Tx) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	return t.store.GetIngredient(ctx, id)
}
func (t *Tx) ListIngredients(ctx context.Context, namePrefix string) ([]*domain.Ingredient, error) {
	return t.store.ListIngredients(ctx, namePrefix)
}
func (t *Tx) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return t.store.CreateRecipe(ctx, recipe)
}
func (t *Tx) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return t.store.GetRecipe(ctx, id)
}
func (t *Tx) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	return t.store.ListRecipes(ctx, filter)
}
func (t *Tx) CountRecipes(ctx context.Context, filter domain.RecipeFilter) (int, error) {
	return t.store.CountRecipes(ctx, filter)
}
func (t *Tx) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return t.store.UpdateRecipe(ctx, recipe)
}
func (t *Tx) DeleteRecipe(ctx context.Context, id string) error {
	return t.store.DeleteRecipe(ctx, id)
}
func (t *Tx) SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error {
	return t.store.SetRecipeTags(ctx, recipeID, tagIDs)
}
func (t *Tx) ReplaceIngredientLines(ctx context.Context, recipeID string, lines []domain.IngredientLineInput) error {
	return t.store.ReplaceIngredientLines(ctx, recipeID, lines)
}
func (t *Tx) AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return t.store.AddRelation(ctx, kind, userID, recipeID)
}
func (t *Tx) RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return t.store.RemoveRelation(ctx, kind, userID, recipeID)
}
func (t *Tx) HasRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	return t.store.HasRelation(ctx, kind, userID, recipeID)
}
func (t *Tx) AddSubscription(ctx context.Context, subscriberID, targetID string) error {
	return t.store.AddSubscription(ctx, subscriberID, targetID)
}
func (t *Tx) RemoveSubscription(ctx context.Context, subscriberID, targetID string) error {
	return t.store.RemoveSubscription(ctx, subscriberID, targetID)
}
func (t *Tx) IsSubscribed(ctx context.Context, subscriberID, targetID string) (bool, error) {
	return t.store.IsSubscribed(ctx, subscriberID, targetID)
}
func (t *Tx) ListSubscriptionTargets(ctx context.Context, subscriberID string) ([]*domain.User, error) {
	return t.store.ListSubscriptionTargets(ctx, subscriberID)
}
func (t *Tx) ListCartRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	return t.store.ListCartRecipes(ctx, userID)
}
func (t *Tx) SumCartIngredients(ctx context.Context, userID string) ([]*domain.AggregatedIngredient, error) {
	return t.store.SumCartIngredients(ctx, userID)
}

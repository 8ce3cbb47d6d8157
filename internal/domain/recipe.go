package domain

import "time"

// Recipe is the aggregate root: the recipe row plus its tag set and
// ingredient lines, persisted as one transactional unit.
type Recipe struct {
	ID          string    `json:"id" db:"id"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	Name        string    `json:"name" db:"name"`
	Text        string    `json:"text" db:"text"`
	Image       string    `json:"image" db:"image"` // media-relative path
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`

	// Loaded by the store on read.
	Tags        []*Tag            `json:"tags" db:"-"`
	Ingredients []*IngredientLine `json:"ingredients" db:"-"`
}

// IngredientLine is one (ingredient, amount) pairing scoped to a recipe.
// The (recipe, ingredient) pair is unique.
type IngredientLine struct {
	IngredientID    string `json:"id" db:"ingredient_id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
	Amount          int    `json:"amount" db:"amount"`
}

// IngredientLineInput is one submitted (ingredient id, amount) pair.
type IngredientLineInput struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

// RecipePayload is the write body for create and update.
// On update a nil Image keeps the stored image.
type RecipePayload struct {
	Name        string                `json:"name"`
	Text        string                `json:"text"`
	Image       *string               `json:"image"`
	CookingTime int                   `json:"cooking_time"`
	Tags        []string              `json:"tags"`
	Ingredients []IngredientLineInput `json:"ingredients"`
}

// RecipeSummary is the compact representation returned by the
// favorite/shopping-cart endpoints and embedded in subscription payloads.
type RecipeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// RecipeView is the full read representation of a recipe.
type RecipeView struct {
	ID                string            `json:"id"`
	Author            *Profile          `json:"author"`
	Tags              []*Tag            `json:"tags"`
	Ingredients       []*IngredientLine `json:"ingredients"`
	Name              string            `json:"name"`
	Image             string            `json:"image"`
	Text              string            `json:"text"`
	CookingTime       int               `json:"cooking_time"`
	IsFavorited       bool              `json:"is_favorited"`
	IsInShoppingCart  bool              `json:"is_in_shopping_cart"`
}

// RecipeFilter narrows recipe listings. Zero values exclude nothing.
type RecipeFilter struct {
	AuthorID    string
	TagSlugs    []string // ANY-of union
	FavoritedBy string   // user id whose favorites to restrict to
	InCartOf    string   // user id whose cart to restrict to
	Limit       int      // 0 = unlimited
	Offset      int
}

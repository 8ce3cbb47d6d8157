package domain

import "time"

// RelationKind selects which user-to-recipe relation a guard operation
// targets. Favorite and shopping cart share one implementation.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
)

// Valid reports whether k is a known relation kind.
func (k RelationKind) Valid() bool {
	return k == RelationFavorite || k == RelationShoppingCart
}

// Label is the human-readable name used in error messages.
func (k RelationKind) Label() string {
	switch k {
	case RelationFavorite:
		return "favorites"
	case RelationShoppingCart:
		return "shopping cart"
	}
	return string(k)
}

// RecipeRelation is a single (user, recipe) membership row.
// The pair is unique per relation kind.
type RecipeRelation struct {
	UserID    string    `json:"user_id" db:"user_id"`
	RecipeID  string    `json:"recipe_id" db:"recipe_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// AggregatedIngredient is one summed shopping-list line, grouped by the
// ingredient's (name, measurement_unit) identity across cart recipes.
type AggregatedIngredient struct {
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	Total           int    `db:"total"`
}

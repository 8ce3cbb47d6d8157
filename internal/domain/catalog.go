package domain

// Tag is reference data attached to recipes. Name and Slug are unique.
type Tag struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Ingredient is reference data. The (Name, MeasurementUnit) pair is unique;
// the same name may repeat under a different unit.
type Ingredient struct {
	ID              string `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

// CreateTagRequest is the request body for creating a tag (admin only).
type CreateTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CreateIngredientRequest is the request body for creating an ingredient (admin only).
type CreateIngredientRequest struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

package validation

import (
	"testing"

	"github.com/plateful/recipe-api/internal/domain"
)

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"valid simple slug", "breakfast", false},
		{"valid slug with hyphen", "quick-dinner", false},
		{"valid slug with digits", "5-minute", false},
		{"empty slug", "", true},
		{"uppercase letters", "Breakfast", true},
		{"leading hyphen", "-breakfast", true},
		{"contains underscore", "quick_dinner", true},
		{"contains space", "quick dinner", true},
		{"contains dot", "quick.dinner", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlug(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "cook@example.com", false},
		{"valid email with plus", "cook+tag@example.com", false},
		{"missing at", "cookexample.com", true},
		{"missing local part", "@example.com", true},
		{"missing domain", "cook@", true},
		{"domain without dot", "cook@example", true},
		{"contains space", "cook me@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple username", "chef", false},
		{"valid with digits", "chef42", false},
		{"valid with allowed symbols", "chef.le-grand_II+@", false},
		{"empty username", "", true},
		{"contains space", "chef le grand", true},
		{"contains hash", "chef#1", true},
		{"too long", string(make([]byte, 151)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func validPayload() *domain.RecipePayload {
	image := "data:image/png;base64,xxxx"
	return &domain.RecipePayload{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       &image,
		CookingTime: 15,
		Tags:        []string{"tag-1"},
		Ingredients: []domain.IngredientLineInput{
			{ID: "ing-1", Amount: 200},
		},
	}
}

func TestValidateRecipePayload(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(p *domain.RecipePayload)
		requireImage bool
		wantField    string
	}{
		{"valid create", func(p *domain.RecipePayload) {}, true, ""},
		{"empty tags", func(p *domain.RecipePayload) { p.Tags = nil }, true, "tags"},
		{"duplicate tags", func(p *domain.RecipePayload) { p.Tags = []string{"tag-1", "tag-1"} }, true, "tags"},
		{"empty ingredients", func(p *domain.RecipePayload) { p.Ingredients = nil }, true, "ingredients"},
		{"duplicate ingredients", func(p *domain.RecipePayload) {
			p.Ingredients = append(p.Ingredients, domain.IngredientLineInput{ID: "ing-1", Amount: 5})
		}, true, "ingredients"},
		{"missing image on create", func(p *domain.RecipePayload) { p.Image = nil }, true, "image"},
		{"missing image allowed on update", func(p *domain.RecipePayload) { p.Image = nil }, false, ""},
		{"zero cooking time", func(p *domain.RecipePayload) { p.CookingTime = 0 }, true, "cooking_time"},
		{"zero amount", func(p *domain.RecipePayload) { p.Ingredients[0].Amount = 0 }, true, "ingredients"},
		{"empty name", func(p *domain.RecipePayload) { p.Name = "" }, true, "name"},
		{"empty text", func(p *domain.RecipePayload) { p.Text = "" }, true, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)
			errs := ValidateRecipePayload(p, tt.requireImage)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Errorf("ValidateRecipePayload() = %v, want no errors", errs)
				}
				return
			}
			if !errs.HasErrors() {
				t.Fatalf("ValidateRecipePayload() passed, want error on field %q", tt.wantField)
			}
			if _, ok := errs.ByField()[tt.wantField]; !ok {
				t.Errorf("ValidateRecipePayload() errors = %v, want field %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateCreateUser(t *testing.T) {
	valid := domain.CreateUserRequest{
		Email:     "cook@example.com",
		Username:  "chef",
		FirstName: "Ann",
		LastName:  "Lee",
		Password:  "longenough",
	}

	tests := []struct {
		name      string
		mutate    func(r *domain.CreateUserRequest)
		wantField string
	}{
		{"valid", func(r *domain.CreateUserRequest) {}, ""},
		{"bad email", func(r *domain.CreateUserRequest) { r.Email = "nope" }, "email"},
		{"bad username", func(r *domain.CreateUserRequest) { r.Username = "no way" }, "username"},
		{"missing first name", func(r *domain.CreateUserRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *domain.CreateUserRequest) { r.LastName = "" }, "last_name"},
		{"short password", func(r *domain.CreateUserRequest) { r.Password = "short" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			errs := ValidateCreateUser(&req)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Errorf("ValidateCreateUser() = %v, want no errors", errs)
				}
				return
			}
			if _, ok := errs.ByField()[tt.wantField]; !ok {
				t.Errorf("ValidateCreateUser() errors = %v, want field %q", errs, tt.wantField)
			}
		})
	}
}

// Package validation provides payload validation for recipes, catalog
// entries, and user accounts.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plateful/recipe-api/internal/domain"
)

// isAlpha returns true if the byte is an ASCII letter.
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

// ValidateSlug validates a tag slug: lowercase letters, digits, or hyphens,
// starting with a letter or digit.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if !isAlpha(slug[0]) && !isNum(slug[0]) {
		return fmt.Errorf("slug must start with a letter or digit")
	}
	for _, b := range []byte(slug) {
		if b >= 'A' && b <= 'Z' {
			return fmt.Errorf("slug must be lowercase")
		}
		if !isAlpha(b) && !isNum(b) && b != '-' {
			return fmt.Errorf("slug can only contain letters, digits, or hyphens")
		}
	}
	return nil
}

// ValidateEmail performs a structural check on an email address.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	if strings.ContainsAny(email, " \t") {
		return fmt.Errorf("email must not contain whitespace")
	}
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("invalid email domain")
	}
	return nil
}

// ValidateUsername validates an account username: letters, digits, and the
// characters . @ + - _ only.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must be at most 150 characters")
	}
	for _, b := range []byte(username) {
		if isAlpha(b) || isNum(b) {
			continue
		}
		switch b {
		case '.', '@', '+', '-', '_':
		default:
			return fmt.Errorf("username can only contain letters, digits, and .@+-_")
		}
	}
	return nil
}

// ValidateRecipePayload checks a recipe write payload. requireImage is true
// on create; on update an omitted image keeps the stored one and is allowed.
// Rules are checked in a fixed order and reported per field; a duplicate tag
// or ingredient id is a hard failure, never silently merged.
func ValidateRecipePayload(p *domain.RecipePayload, requireImage bool) ValidationErrors {
	var errs ValidationErrors

	if len(p.Tags) == 0 {
		errs.Add("tags", "", "tags must not be empty")
	} else {
		seen := make(map[string]bool, len(p.Tags))
		for _, tagID := range p.Tags {
			if seen[tagID] {
				errs.Add("tags", tagID, "duplicate tag")
				break
			}
			seen[tagID] = true
		}
	}

	if len(p.Ingredients) == 0 {
		errs.Add("ingredients", "", "ingredients must not be empty")
	} else {
		seen := make(map[string]bool, len(p.Ingredients))
		for _, line := range p.Ingredients {
			if seen[line.ID] {
				errs.Add("ingredients", line.ID, "duplicate ingredient")
				break
			}
			seen[line.ID] = true
		}
	}

	if requireImage && (p.Image == nil || *p.Image == "") {
		errs.Add("image", "", "image must not be empty")
	}

	if p.CookingTime < 1 {
		errs.Add("cooking_time", strconv.Itoa(p.CookingTime), "cooking_time must be at least 1")
	}

	for _, line := range p.Ingredients {
		if line.Amount < 1 {
			errs.Add("ingredients", line.ID, "amount must be at least 1")
		}
	}

	if p.Name == "" {
		errs.Add("name", "", "name must not be empty")
	}
	if p.Text == "" {
		errs.Add("text", "", "text must not be empty")
	}

	return errs
}

// ValidateCreateUser checks a registration payload.
func ValidateCreateUser(req *domain.CreateUserRequest) ValidationErrors {
	var errs ValidationErrors
	if err := ValidateEmail(req.Email); err != nil {
		errs.Add("email", req.Email, err.Error())
	}
	if err := ValidateUsername(req.Username); err != nil {
		errs.Add("username", req.Username, err.Error())
	}
	if req.FirstName == "" {
		errs.Add("first_name", "", "first_name must not be empty")
	}
	if req.LastName == "" {
		errs.Add("last_name", "", "last_name must not be empty")
	}
	if len(req.Password) < 8 {
		errs.Add("password", "", "password must be at least 8 characters")
	}
	return errs
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
)

// ShoppingListService compiles the text report for a user's cart: every
// ingredient line of every cart recipe, summed per (name, unit) identity.
type ShoppingListService struct {
	store storage.Storage
}

// NewShoppingListService creates a new ShoppingListService.
func NewShoppingListService(store storage.Storage) *ShoppingListService {
	return &ShoppingListService{store: store}
}

// ShoppingListReport is a rendered, downloadable shopping list.
type ShoppingListReport struct {
	Filename string
	Content  string
}

var titleCaser = cases.Title(language.Und)

// Compile builds the report for the actor's cart. An empty cart yields a
// report with zero counts, not an error.
func (s *ShoppingListService) Compile(ctx context.Context, actor *domain.User) (*ShoppingListReport, error) {
	recipes, err := s.store.ListCartRecipes(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	sums, err := s.store.SumCartIngredients(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	date := time.Now().Format("20060102")
	lines := []string{
		"Shopping list",
		"Generated: " + date,
		fmt.Sprintf("Recipes total: %d", len(recipes)),
		fmt.Sprintf("Ingredients total: %d", len(sums)),
		"",
		"Products:",
	}
	for i, sum := range sums {
		lines = append(lines, fmt.Sprintf("%d. %s - %d %s",
			i+1, titleCaser.String(sum.Name), sum.Total, sum.MeasurementUnit))
	}
	lines = append(lines, "", "Recipes:")
	for _, recipe := range recipes {
		author, err := s.store.GetUser(ctx, recipe.AuthorID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("- %s (author: %s)", recipe.Name, author.Username))
	}

	return &ShoppingListReport{
		Filename: "shopping_list_" + date + ".txt",
		Content:  strings.Join(lines, "\n"),
	}, nil
}

package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/plateful/recipe-api/internal/domain"
	"github.com/plateful/recipe-api/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// isCheckViolation checks if an error is a CHECK constraint violation.
func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if strings.Contains(errStr, "CHECK constraint failed") {
		return true
	}
	if strings.Contains(errStr, "violates check constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New creates a new SQL store.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if driver == "sqlite3" {
		// Relation and line deletions cascade from recipes and users.
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, driver: s.driver}, nil
}

// Tx wraps a database transaction.
type Tx struct {
	tx     *sqlx.Tx
	driver string
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Close is a no-op for transactions (they should be committed or rolled back).
func (t *Tx) Close() error {
	return nil
}

// BeginTx is not supported within a transaction.
func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ============================================
// Users
// ============================================

func createUser(ctx context.Context, db dbInterface, user *domain.User) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name, password_hash, avatar, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Username, user.FirstName, user.LastName,
		user.PasswordHash, user.Avatar, user.IsAdmin, user.CreatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (t *Tx) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, t.tx, user)
}

func getUser(ctx context.Context, db dbInterface, id string) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user,
		`SELECT id, email, username, first_name, last_name, password_hash, avatar, is_admin, created_at
		 FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (t *Tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, t.tx, id)
}

func getUserByEmail(ctx context.Context, db dbInterface, email string) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user,
		`SELECT id, email, username, first_name, last_name, password_hash, avatar, is_admin, created_at
		 FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (t *Tx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, t.tx, email)
}

func listUsers(ctx context.Context, db dbInterface, limit, offset int) ([]*domain.User, error) {
	users := []*domain.User{}
	query := `SELECT id, email, username, first_name, last_name, password_hash, avatar, is_admin, created_at
		 FROM users ORDER BY email`
	var err error
	if limit > 0 {
		err = db.SelectContext(ctx, &users, query+` LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		err = db.SelectContext(ctx, &users, query)
	}
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return listUsers(ctx, s.db, limit, offset)
}

func (t *Tx) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return listUsers(ctx, t.tx, limit, offset)
}

func countUsers(ctx context.Context, db dbInterface) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, s.db)
}

func (t *Tx) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, t.tx)
}

func updateUser(ctx context.Context, db dbInterface, user *domain.User) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET email = $1, username = $2, first_name = $3, last_name = $4,
		 password_hash = $5, avatar = $6, is_admin = $7 WHERE id = $8`,
		user.Email, user.Username, user.FirstName, user.LastName,
		user.PasswordHash, user.Avatar, user.IsAdmin, user.ID)
	if err != nil {
		return wrapUniqueError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.db, user)
}

func (t *Tx) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, t.tx, user)
}

// ============================================
// Tags
// ============================================

func createTag(ctx context.Context, db dbInterface, tag *domain.Tag) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO tags (id, name, slug) VALUES ($1, $2, $3)`,
		tag.ID, tag.Name, tag.Slug)
	return wrapUniqueError(err)
}

func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, s.db, tag)
}

func (t *Tx) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, t.tx, tag)
}

func getTag(ctx context.Context, db dbInterface, id string) (*domain.Tag, error) {
	var tag domain.Tag
	err := db.GetContext(ctx, &tag, `SELECT id, name, slug FROM tags WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	return getTag(ctx, s.db, id)
}

func (t *Tx) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	return getTag(ctx, t.tx, id)
}

func listTags(ctx context.Context, db dbInterface) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	err := db.SelectContext(ctx, &tags, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return listTags(ctx, s.db)
}

func (t *Tx) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return listTags(ctx, t.tx)
}

// ============================================
// Ingredients
// ============================================

func createIngredient(ctx context.Context, db dbInterface, ing *domain.Ingredient) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES ($1, $2, $3)`,
		ing.ID, ing.Name, ing.MeasurementUnit)
	return wrapUniqueError(err)
}

func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	return createIngredient(ctx, s.db, ing)
}

func (t *Tx) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	return createIngredient(ctx, t.tx, ing)
}

func getIngredient(ctx context.Context, db dbInterface, id string) (*domain.Ingredient, error) {
	var ing domain.Ingredient
	err := db.GetContext(ctx, &ing,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (s *Store) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	return getIngredient(ctx, s.db, id)
}

func (t *Tx) GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	return getIngredient(ctx, t.tx, id)
}

func listIngredients(ctx context.Context, db dbInterface, namePrefix string) ([]*domain.Ingredient, error) {
	ings := []*domain.Ingredient{}
	query := `SELECT id, name, measurement_unit FROM ingredients`
	var err error
	if namePrefix != "" {
		// Case-insensitive prefix match.
		err = db.SelectContext(ctx, &ings,
			query+` WHERE LOWER(name) LIKE LOWER($1) ESCAPE '\' ORDER BY name`,
			escapeLike(namePrefix)+"%")
	} else {
		err = db.SelectContext(ctx, &ings, query+` ORDER BY name`)
	}
	if err != nil {
		return nil, err
	}
	return ings, nil
}

// escapeLike escapes LIKE metacharacters in a user-supplied prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (s *Store) ListIngredients(ctx context.Context, namePrefix string) ([]*domain.Ingredient, error) {
	return listIngredients(ctx, s.db, namePrefix)
}

func (t *Tx) ListIngredients(ctx context.Context, namePrefix string) ([]*domain.Ingredient, error) {
	return listIngredients(ctx, t.tx, namePrefix)
}

// ============================================
// Recipes
// ============================================

func createRecipe(ctx context.Context, db dbInterface, recipe *domain.Recipe) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO recipes (id, author_id, name, text, image, cooking_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recipe.ID, recipe.AuthorID, recipe.Name, recipe.Text, recipe.Image,
		recipe.CookingTime, recipe.CreatedAt, recipe.UpdatedAt)
	return wrapUniqueError(err)
}

func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return createRecipe(ctx, s.db, recipe)
}

func (t *Tx) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return createRecipe(ctx, t.tx, recipe)
}

func loadRecipeTags(ctx context.Context, db dbInterface, recipeID string) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	err := db.SelectContext(ctx, &tags,
		`SELECT t.id, t.name, t.slug FROM tags t
		 JOIN recipe_tags rt ON rt.tag_id = t.id
		 WHERE rt.recipe_id = $1 ORDER BY t.name`, recipeID)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func loadIngredientLines(ctx context.Context, db dbInterface, recipeID string) ([]*domain.IngredientLine, error) {
	lines := []*domain.IngredientLine{}
	err := db.SelectContext(ctx, &lines,
		`SELECT ri.ingredient_id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = $1 ORDER BY i.name`, recipeID)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func hydrateRecipe(ctx context.Context, db dbInterface, recipe *domain.Recipe) error {
	tags, err := loadRecipeTags(ctx, db, recipe.ID)
	if err != nil {
		return err
	}
	lines, err := loadIngredientLines(ctx, db, recipe.ID)
	if err != nil {
		return err
	}
	recipe.Tags = tags
	recipe.Ingredients = lines
	return nil
}

func getRecipe(ctx context.Context, db dbInterface, id string) (*domain.Recipe, error) {
	var recipe domain.Recipe
	err := db.GetContext(ctx, &recipe,
		`SELECT id, author_id, name, text, image, cooking_time, created_at, updated_at
		 FROM recipes WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := hydrateRecipe(ctx, db, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return getRecipe(ctx, s.db, id)
}

func (t *Tx) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return getRecipe(ctx, t.tx, id)
}

// recipeFilterClauses builds WHERE conditions for a recipe filter using
// ? placeholders; callers rebind for the active driver.
func recipeFilterClauses(filter domain.RecipeFilter) (conds []string, args []any) {
	if filter.AuthorID != "" {
		conds = append(conds, `author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.TagSlugs)), ", ")
		conds = append(conds,
			`id IN (SELECT rt.recipe_id FROM recipe_tags rt
			 JOIN tags t ON t.id = rt.tag_id WHERE t.slug IN (`+placeholders+`))`)
		for _, slug := range filter.TagSlugs {
			args = append(args, slug)
		}
	}
	if filter.FavoritedBy != "" {
		conds = append(conds, `id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.InCartOf != "" {
		conds = append(conds, `id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)`)
		args = append(args, filter.InCartOf)
	}
	return conds, args
}

func listRecipes(ctx context.Context, db dbInterface, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT id, author_id, name, text, image, cooking_time, created_at, updated_at FROM recipes`
	conds, args := recipeFilterClauses(filter)
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	recipes := []*domain.Recipe{}
	if err := db.SelectContext(ctx, &recipes, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, recipe := range recipes {
		if err := hydrateRecipe(ctx, db, recipe); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

func (s *Store) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	return listRecipes(ctx, s.db, filter)
}

func (t *Tx) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	return listRecipes(ctx, t.tx, filter)
}

func countRecipes(ctx context.Context, db dbInterface, filter domain.RecipeFilter) (int, error) {
	query := `SELECT COUNT(*) FROM recipes`
	conds, args := recipeFilterClauses(filter)
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(query), args...)
	return count, err
}

func (s *Store) CountRecipes(ctx context.Context, filter domain.RecipeFilter) (int, error) {
	return countRecipes(ctx, s.db, filter)
}

func (t *Tx) CountRecipes(ctx context.Context, filter domain.RecipeFilter) (int, error) {
	return countRecipes(ctx, t.tx, filter)
}

func updateRecipe(ctx context.Context, db dbInterface, recipe *domain.Recipe) error {
	result, err := db.ExecContext(ctx,
		`UPDATE recipes SET name = $1, text = $2, image = $3, cooking_time = $4, updated_at = $5
		 WHERE id = $6`,
		recipe.Name, recipe.Text, recipe.Image, recipe.CookingTime, recipe.UpdatedAt, recipe.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return updateRecipe(ctx, s.db, recipe)
}

func (t *Tx) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return updateRecipe(ctx, t.tx, recipe)
}

func deleteRecipe(ctx context.Context, db dbInterface, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	return deleteRecipe(ctx, s.db, id)
}

func (t *Tx) DeleteRecipe(ctx context.Context, id string) error {
	return deleteRecipe(ctx, t.tx, id)
}

func setRecipeTags(ctx context.Context, db dbInterface, recipeID string, tagIDs []string) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`,
			recipeID, tagID); err != nil {
			return wrapUniqueError(err)
		}
	}
	return nil
}

func (s *Store) SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error {
	return setRecipeTags(ctx, s.db, recipeID, tagIDs)
}

func (t *Tx) SetRecipeTags(ctx context.Context, recipeID string, tagIDs []string) error {
	return setRecipeTags(ctx, t.tx, recipeID, tagIDs)
}

func replaceIngredientLines(ctx context.Context, db dbInterface, recipeID string, lines []domain.IngredientLineInput) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)`,
			recipeID, line.ID, line.Amount); err != nil {
			return wrapUniqueError(err)
		}
	}
	return nil
}

func (s *Store) ReplaceIngredientLines(ctx context.Context, recipeID string, lines []domain.IngredientLineInput) error {
	return replaceIngredientLines(ctx, s.db, recipeID, lines)
}

func (t *Tx) ReplaceIngredientLines(ctx context.Context, recipeID string, lines []domain.IngredientLineInput) error {
	return replaceIngredientLines(ctx, t.tx, recipeID, lines)
}

// ============================================
// Favorite / shopping-cart relations
// ============================================

// relationTable maps a relation kind to its table. Both tables share the
// same (user_id, recipe_id) primary key, which is the race arbiter.
func relationTable(kind domain.RelationKind) string {
	if kind == domain.RelationShoppingCart {
		return "shopping_cart"
	}
	return "favorites"
}

func addRelation(ctx context.Context, db dbInterface, kind domain.RelationKind, userID, recipeID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO `+relationTable(kind)+` (user_id, recipe_id, created_at) VALUES ($1, $2, $3)`,
		userID, recipeID, time.Now().UTC())
	return wrapUniqueError(err)
}

func (s *Store) AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return addRelation(ctx, s.db, kind, userID, recipeID)
}

func (t *Tx) AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return addRelation(ctx, t.tx, kind, userID, recipeID)
}

func removeRelation(ctx context.Context, db dbInterface, kind domain.RelationKind, userID, recipeID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM `+relationTable(kind)+` WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return removeRelation(ctx, s.db, kind, userID, recipeID)
}

func (t *Tx) RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	return removeRelation(ctx, t.tx, kind, userID, recipeID)
}

func hasRelation(ctx context.Context, db dbInterface, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM `+relationTable(kind)+` WHERE user_id = $1 AND recipe_id = $2`,
		userID, recipeID)
	return count > 0, err
}

func (s *Store) HasRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	return hasRelation(ctx, s.db, kind, userID, recipeID)
}

func (t *Tx) HasRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	return hasRelation(ctx, t.tx, kind, userID, recipeID)
}

// ============================================
// Subscriptions
// ============================================

func addSubscription(ctx context.Context, db dbInterface, subscriberID, targetID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO subscriptions (subscriber_id, target_id, created_at) VALUES ($1, $2, $3)`,
		subscriberID, targetID, time.Now().UTC())
	if isCheckViolation(err) {
		return domain.ErrSelfSubscription
	}
	return wrapUniqueError(err)
}

func (s *Store) AddSubscription(ctx context.Context, subscriberID, targetID string) error {
	return addSubscription(ctx, s.db, subscriberID, targetID)
}

func (t *Tx) AddSubscription(ctx context.Context, subscriberID, targetID string) error {
	return addSubscription(ctx, t.tx, subscriberID, targetID)
}

func removeSubscription(ctx context.Context, db dbInterface, subscriberID, targetID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND target_id = $2`,
		subscriberID, targetID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveSubscription(ctx context.Context, subscriberID, targetID string) error {
	return removeSubscription(ctx, s.db, subscriberID, targetID)
}

func (t *Tx) RemoveSubscription(ctx context.Context, subscriberID, targetID string) error {
	return removeSubscription(ctx, t.tx, subscriberID, targetID)
}

func isSubscribed(ctx context.Context, db dbInterface, subscriberID, targetID string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1 AND target_id = $2`,
		subscriberID, targetID)
	return count > 0, err
}

func (s *Store) IsSubscribed(ctx context.Context, subscriberID, targetID string) (bool, error) {
	return isSubscribed(ctx, s.db, subscriberID, targetID)
}

func (t *Tx) IsSubscribed(ctx context.Context, subscriberID, targetID string) (bool, error) {
	return isSubscribed(ctx, t.tx, subscriberID, targetID)
}

func listSubscriptionTargets(ctx context.Context, db dbInterface, subscriberID string) ([]*domain.User, error) {
	users := []*domain.User{}
	err := db.SelectContext(ctx, &users,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar, u.is_admin, u.created_at
		 FROM users u
		 JOIN subscriptions s ON s.target_id = u.id
		 WHERE s.subscriber_id = $1 ORDER BY u.email`, subscriberID)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListSubscriptionTargets(ctx context.Context, subscriberID string) ([]*domain.User, error) {
	return listSubscriptionTargets(ctx, s.db, subscriberID)
}

func (t *Tx) ListSubscriptionTargets(ctx context.Context, subscriberID string) ([]*domain.User, error) {
	return listSubscriptionTargets(ctx, t.tx, subscriberID)
}

// ============================================
// Shopping list
// ============================================

func listCartRecipes(ctx context.Context, db dbInterface, userID string) ([]*domain.Recipe, error) {
	return listRecipes(ctx, db, domain.RecipeFilter{InCartOf: userID})
}

func (s *Store) ListCartRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	return listCartRecipes(ctx, s.db, userID)
}

func (t *Tx) ListCartRecipes(ctx context.Context, userID string) ([]*domain.Recipe, error) {
	return listCartRecipes(ctx, t.tx, userID)
}

func sumCartIngredients(ctx context.Context, db dbInterface, userID string) ([]*domain.AggregatedIngredient, error) {
	sums := []*domain.AggregatedIngredient{}
	err := db.SelectContext(ctx, &sums,
		`SELECT i.name, i.measurement_unit, SUM(ri.amount) AS total
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = $1)
		 GROUP BY i.name, i.measurement_unit
		 ORDER BY LOWER(i.name)`, userID)
	if err != nil {
		return nil, err
	}
	return sums, nil
}

func (s *Store) SumCartIngredients(ctx context.Context, userID string) ([]*domain.AggregatedIngredient, error) {
	return sumCartIngredients(ctx, s.db, userID)
}

func (t *Tx) SumCartIngredients(ctx context.Context, userID string) ([]*domain.AggregatedIngredient, error) {
	return sumCartIngredients(ctx, t.tx, userID)
}

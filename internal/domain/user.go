package domain

import "time"

// User is a registered account. Email and Username are unique.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Avatar       string    `json:"avatar" db:"avatar"` // media-relative path, empty if unset
	IsAdmin      bool      `json:"-" db:"is_admin"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// Subscription links a subscriber to an author they follow.
// The pair is unique and subscriber != target is enforced by the store.
type Subscription struct {
	SubscriberID string    `json:"subscriber_id" db:"subscriber_id"`
	TargetID     string    `json:"target_id" db:"target_id"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// SetPasswordRequest is the request body for a password change.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SetAvatarRequest carries a base64 data-URI avatar payload.
type SetAvatarRequest struct {
	Avatar string `json:"avatar"`
}

// LoginRequest is the request body for token issuance.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful login.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Profile is the public read representation of a user.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

// ProfileWithRecipes augments Profile with the user's recipes,
// as rendered on subscription endpoints.
type ProfileWithRecipes struct {
	Profile
	Recipes      []*RecipeSummary `json:"recipes"`
	RecipesCount int              `json:"recipes_count"`
}

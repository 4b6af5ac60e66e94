// Package auth owns user accounts, password hashing, JWT issuance and
// the bearer-token middleware.
package auth

import "time"

// User is a stored account. The hashed password never leaves the store.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	AgeGroup    string    `json:"age_group,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Location    string    `json:"location,omitempty"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	AgeGroup    string `json:"age_group"`
	Gender      string `json:"gender"`
	Location    string `json:"location"`
	Language    string `json:"language"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned on successful register or login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

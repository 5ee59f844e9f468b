package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the privilege level resolved for an authenticated identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents an authenticated account. The ID is immutable; the display
// name may change. Email is stored normalized (lowercase, trimmed).
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail lowercases and trims an email address. Admin grants and user
// lookups are keyed by the normalized form, so "Bob@X.com " and "bob@x.com"
// resolve to the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupRequest is the payload for creating a new account.
type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// AuthResponse is returned after successful signup or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
	Role  Role   `json:"role"`
}

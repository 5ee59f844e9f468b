package model

import (
	"time"

	"github.com/google/uuid"
)

// AdminGrant marks an email address as holding admin privilege. The record is
// keyed by normalized email; its existence alone confers the privilege.
type AdminGrant struct {
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// StudentProfile holds the submitter details attached to a user. It is
// created at signup and upserted on every pass submission so the latest
// roll/department stick for the next form prefill. Profiles are never deleted.
type StudentProfile struct {
	UserID     uuid.UUID `json:"userId"`
	Name       string    `json:"name"`
	Roll       string    `json:"roll"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// GrantAdminRequest is the payload for adding an admin grant.
type GrantAdminRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

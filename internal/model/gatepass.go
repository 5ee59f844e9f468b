package model

import (
	"time"

	"github.com/google/uuid"
)

// PassStatus enumerates the states of a gate pass. Pending is the only
// initial state; Approved and Rejected are terminal. There is no transition
// back to Pending; a resubmission is a new record.
type PassStatus string

const (
	PassStatusPending  PassStatus = "Pending"
	PassStatusApproved PassStatus = "Approved"
	PassStatusRejected PassStatus = "Rejected"
)

// Valid reports whether s is a known status value.
func (s PassStatus) Valid() bool {
	switch s {
	case PassStatusPending, PassStatusApproved, PassStatusRejected:
		return true
	}
	return false
}

// Decided reports whether s is a terminal status.
func (s PassStatus) Decided() bool {
	return s == PassStatusApproved || s == PassStatusRejected
}

// GatePass represents a time-boxed leave request. Field names follow the
// persisted document schema, so stored records stay readable by existing
// consumers of the store.
type GatePass struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"userId"`
	CreatedByEmail string     `json:"createdByEmail"`
	Name           string     `json:"name"`
	Roll           string     `json:"roll"`
	Department     string     `json:"department"`
	Destination    string     `json:"destination"`
	Reason         string     `json:"reason"`
	DepartureTime  time.Time  `json:"departureTime"`
	ReturnTime     time.Time  `json:"returnTime"`
	Status         PassStatus `json:"status"`
	AdminNotes     string     `json:"adminNotes"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// SubmitPassRequest is the payload for requesting a new gate pass.
type SubmitPassRequest struct {
	Name          string    `json:"name" binding:"required,min=2,max=100"`
	Roll          string    `json:"roll" binding:"required,min=1,max=50"`
	Department    string    `json:"department" binding:"required,min=1,max=100"`
	Destination   string    `json:"destination" binding:"required,min=1,max=200"`
	Reason        string    `json:"reason" binding:"required,min=1,max=1000"`
	DepartureTime time.Time `json:"departureTime" binding:"required"`
	ReturnTime    time.Time `json:"returnTime" binding:"required"`
}

// DecidePassRequest is the admin payload for approving or rejecting a pass.
type DecidePassRequest struct {
	Status PassStatus `json:"status" binding:"required,oneof=Approved Rejected"`
	Notes  string     `json:"notes" binding:"omitempty,max=1000"`
}

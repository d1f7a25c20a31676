package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a profile role in the platform.
type Role string

const (
	RoleRegisseur    Role = "regisseur"
	RoleIntermittent Role = "intermittent"
	RoleAdmin        Role = "admin"
)

// ParseRole returns the Role for s, or false if s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleRegisseur, RoleIntermittent, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// AvailabilityStatus is the self-declared availability of an intermittent.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityBusy        AvailabilityStatus = "busy"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// Profile represents an authenticated identity. One profile per user.
type Profile struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"-"`
	FullName           string             `json:"full_name"`
	Role               Role               `json:"role"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	Phone              string             `json:"phone,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

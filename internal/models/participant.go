package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantStatus is the state of an invitation.
type ParticipantStatus string

const (
	ParticipantInvited   ParticipantStatus = "invited"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantDeclined  ParticipantStatus = "declined"
	ParticipantCancelled ParticipantStatus = "cancelled"
)

// EventParticipant links an intermittent to an event through an invitation.
type EventParticipant struct {
	ID          uuid.UUID         `json:"id"`
	EventID     uuid.UUID         `json:"event_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      ParticipantStatus `json:"status"`
	InvitedAt   time.Time         `json:"invited_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
}

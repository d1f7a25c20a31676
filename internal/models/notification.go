package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationInvitation     NotificationType = "invitation"
	NotificationSystem         NotificationType = "system"
	NotificationEventPublished NotificationType = "event_published"
	NotificationEventCancelled NotificationType = "event_cancelled"
	NotificationProposalVote   NotificationType = "proposal_vote"
)

// RelatedType names the entity a notification payload refers to.
type RelatedType string

const (
	RelatedEvent       RelatedType = "event"
	RelatedParticipant RelatedType = "participant"
	RelatedProposal    RelatedType = "proposal"
)

// Notification is a message delivered to one user, optionally carrying a
// typed payload describing the related entity.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	RelatedType RelatedType      `json:"related_type,omitempty"`
	RelatedID   *uuid.UUID       `json:"related_id,omitempty"`
	Payload     json.RawMessage  `json:"payload,omitempty"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

package notifications

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/planner-suite/backend/internal/models"
)

// Payload is the decoded form of a notification's related-entity payload.
// Exactly one of the variant fields is set, matching the related_type; a
// payload whose related_type is not recognized decodes to the Unknown
// variant rather than being treated as free-form data.
type Payload struct {
	Event       *EventPayload       `json:"event,omitempty"`
	Participant *ParticipantPayload `json:"participant,omitempty"`
	Proposal    *ProposalPayload    `json:"proposal,omitempty"`
	Unknown     *UnknownPayload     `json:"unknown,omitempty"`
}

// EventPayload refers to an event.
type EventPayload struct {
	EventID uuid.UUID `json:"event_id"`
	Title   string    `json:"title,omitempty"`
}

// ParticipantPayload refers to an invitation.
type ParticipantPayload struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	EventID       uuid.UUID `json:"event_id,omitempty"`
}

// ProposalPayload refers to a date proposal.
type ProposalPayload struct {
	ProposalID uuid.UUID `json:"proposal_id"`
	EventID    uuid.UUID `json:"event_id,omitempty"`
}

// UnknownPayload preserves an unrecognized related_type and its raw body.
type UnknownPayload struct {
	RelatedType string          `json:"related_type"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// DecodePayload turns a stored notification into its typed payload. A
// notification without a related entity returns an empty Payload.
func DecodePayload(n *models.Notification) Payload {
	if n.RelatedType == "" && n.RelatedID == nil {
		return Payload{}
	}
	switch n.RelatedType {
	case models.RelatedEvent:
		p := &EventPayload{}
		if n.RelatedID != nil {
			p.EventID = *n.RelatedID
		}
		decodeInto(n.Payload, p)
		return Payload{Event: p}
	case models.RelatedParticipant:
		p := &ParticipantPayload{}
		if n.RelatedID != nil {
			p.ParticipantID = *n.RelatedID
		}
		decodeInto(n.Payload, p)
		return Payload{Participant: p}
	case models.RelatedProposal:
		p := &ProposalPayload{}
		if n.RelatedID != nil {
			p.ProposalID = *n.RelatedID
		}
		decodeInto(n.Payload, p)
		return Payload{Proposal: p}
	}
	return Payload{Unknown: &UnknownPayload{RelatedType: string(n.RelatedType), Raw: n.Payload}}
}

func decodeInto(raw json.RawMessage, v interface{}) {
	if len(raw) == 0 {
		return
	}
	// Best effort; the identifying IDs come from the row columns.
	_ = json.Unmarshal(raw, v)
}

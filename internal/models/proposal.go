package models

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus is the state of a date proposal.
type ProposalStatus string

const (
	ProposalOpen     ProposalStatus = "open"
	ProposalRetained ProposalStatus = "retained"
	ProposalRejected ProposalStatus = "rejected"
)

// DateProposal is a candidate date range for an event, voted on by
// participants before the regisseur retains or rejects it.
type DateProposal struct {
	ID            uuid.UUID      `json:"id"`
	EventID       uuid.UUID      `json:"event_id"`
	ProposedStart string         `json:"proposed_start"` // ISO date
	ProposedEnd   string         `json:"proposed_end"`
	ProposedBy    uuid.UUID      `json:"proposed_by"`
	VotesFor      int            `json:"votes_for"`
	VotesAgainst  int            `json:"votes_against"`
	Status        ProposalStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

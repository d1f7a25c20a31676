package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// TargetGroup classifies who an event or schedule entry is for.
type TargetGroup string

const (
	GroupArtistes   TargetGroup = "artistes"
	GroupTechniques TargetGroup = "techniques"
	GroupBoth       TargetGroup = "both"
)

// Event represents a production event with a date range and a lifecycle.
// Events are created as draft; published_at is set only on the transition
// to published and never cleared. version is bumped on every update.
type Event struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Status          EventStatus `json:"status"`
	TargetGroup     TargetGroup `json:"target_group"`
	StartDate       string      `json:"start_date"` // ISO date, e.g. 2024-06-01
	EndDate         string      `json:"end_date"`
	Location        string      `json:"location,omitempty"`
	Budget          *int64      `json:"budget,omitempty"` // cents
	MaxParticipants *int        `json:"max_participants,omitempty"`
	CreatedBy       uuid.UUID   `json:"created_by"`
	Version         int         `json:"version"`
	PublishedAt     *time.Time  `json:"published_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HistoryAction identifies an entry in an event's audit trail.
type HistoryAction string

const (
	HistoryCreated   HistoryAction = "created"
	HistoryUpdated   HistoryAction = "updated"
	HistoryPublished HistoryAction = "published"
	HistoryCancelled HistoryAction = "cancelled"
)

// EventHistory is one audit row, written in the same transaction as the
// mutation it records.
type EventHistory struct {
	ID        uuid.UUID     `json:"id"`
	EventID   uuid.UUID     `json:"event_id"`
	Action    HistoryAction `json:"action"`
	ActorID   uuid.UUID     `json:"actor_id"`
	Detail    string        `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

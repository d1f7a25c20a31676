package models

import (
	"time"

	"github.com/google/uuid"
)

// DailySchedule is one entry of an event's day-by-day planning.
// Display order is schedule_date then insertion order.
type DailySchedule struct {
	ID                uuid.UUID     `json:"id"`
	EventID           uuid.UUID     `json:"event_id"`
	ScheduleDate      string        `json:"schedule_date"` // ISO date
	StartTime         string        `json:"start_time"`    // HH:MM
	EndTime           string        `json:"end_time"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	TargetGroups      []TargetGroup `json:"target_groups"`
	Location          string        `json:"location,omitempty"`
	RequiredSkills    []string      `json:"required_skills,omitempty"`
	IsMandatory       bool          `json:"is_mandatory"`
	ResponsiblePerson string        `json:"responsible_person,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// HasGroup reports whether the schedule targets the given group, either
// explicitly or via the "both" tag.
func (s *DailySchedule) HasGroup(g TargetGroup) bool {
	for _, tg := range s.TargetGroups {
		if tg == g || tg == GroupBoth {
			return true
		}
	}
	return false
}

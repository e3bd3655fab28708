package db

import "time"

// Member is a team member as stored by the member directory
type Member struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	AvailabilityToken string `json:"-"`
	Active            bool   `json:"active"`
}

// Period is an availability collection window
type Period struct {
	ID            string     `json:"id"`
	Label         string     `json:"label"`
	StartsOn      string     `json:"starts_on"`
	EndsOn        string     `json:"ends_on"`
	Deadline      *string    `json:"deadline"`
	ClosedAt      *time.Time `json:"closed_at"`
	CreatedBy     *string    `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	ResponseCount int        `json:"response_count"`
}

// IsOpen reports whether the period has not been closed
func (p *Period) IsOpen() bool {
	return p.ClosedAt == nil
}

// AvailabilityDateEntry records whether a member can serve on one date
type AvailabilityDateEntry struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// AvailabilityResponse is one member's answer for one period
type AvailabilityResponse struct {
	ID          string                  `json:"id"`
	PeriodID    string                  `json:"period_id"`
	MemberID    string                  `json:"member_id"`
	Notes       string                  `json:"notes"`
	Dates       []AvailabilityDateEntry `json:"dates"`
	SubmittedAt time.Time               `json:"submitted_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// SetlistSlot is one song at one position of a service date's setlist
type SetlistSlot struct {
	ID         string    `json:"id"`
	SundayDate string    `json:"sunday_date"`
	SongID     string    `json:"song_id"`
	Position   int       `json:"position"`
	ChosenKey  *string   `json:"chosen_key"`
	Status     string    `json:"status"`
	CreatedBy  *string   `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RosterAssignment places a member in a roster role on a service date
type RosterAssignment struct {
	ID         string `json:"id"`
	SundayDate string `json:"sunday_date"`
	Role       string `json:"role"`
	MemberID   string `json:"member_id"`
}

// AuditEntry is an append-only record of a successful mutation
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    *string   `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
}

package db

import (
	"context"
	"time"
)

// MemberStore reads the member directory. Lookups return nil, nil when no row matches.
type MemberStore interface {
	GetMemberByEmail(ctx context.Context, email string) (*Member, error)
	GetMemberByToken(ctx context.Context, token string) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
}

// PeriodStore defines the database operations for availability periods and their responses
type PeriodStore interface {
	ListPeriods(ctx context.Context) ([]Period, error)
	GetPeriod(ctx context.Context, id string) (*Period, error)
	InsertPeriod(ctx context.Context, period *Period) error
	UpdatePeriod(ctx context.Context, period *Period) error
	ClosePeriod(ctx context.Context, id string, closedAt time.Time) error
	DeletePeriod(ctx context.Context, id string) error
	CountResponses(ctx context.Context, periodID string) (int, error)
	ListResponses(ctx context.Context, periodID string) ([]AvailabilityResponse, error)
	GetResponse(ctx context.Context, periodID, memberID string) (*AvailabilityResponse, error)
	UpsertResponse(ctx context.Context, response *AvailabilityResponse) error
}

// SetlistStore defines the database operations for setlist slots
type SetlistStore interface {
	ListSlots(ctx context.Context, sundayDate string) ([]SetlistSlot, error)
	GetSlot(ctx context.Context, id string) (*SetlistSlot, error)
	// UpsertSlot inserts or updates the slot keyed by (sunday_date, song_id)
	// and returns the stored row.
	UpsertSlot(ctx context.Context, slot *SetlistSlot) (*SetlistSlot, error)
	DeleteSlot(ctx context.Context, id string) error
	SetSlotPosition(ctx context.Context, id string, position int) error
	SetSlotStatus(ctx context.Context, sundayDate string, status string) (int, error)
}

// RosterStore defines the database operations for roster assignments
type RosterStore interface {
	ListAssignments(ctx context.Context, sundayDate string) ([]RosterAssignment, error)
	ReplaceAssignments(ctx context.Context, sundayDate string, assignments []RosterAssignment) error
}

// AuditStore appends and lists audit entries
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	MemberStore
	PeriodStore
	SetlistStore
	RosterStore
	AuditStore
	Close()
}

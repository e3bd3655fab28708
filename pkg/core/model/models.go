package model

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleCoordinator      Role = "coordinator"
	RoleMusicCoordinator Role = "music_coordinator"
	RoleWorshipLeader    Role = "worship_leader"
	RoleMusician         Role = "musician"
)

// Roles lists every role in a stable order
var Roles = []Role{RoleAdmin, RoleCoordinator, RoleMusicCoordinator, RoleWorshipLeader, RoleMusician}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleMusicCoordinator, RoleWorshipLeader, RoleMusician:
		return true
	}
	return false
}

// Actor is the resolved identity of the caller. ID is nil only for the
// development bypass actor.
type Actor struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
	Role Role    `json:"role"`
}

// IDString returns the actor id or "" for the bypass actor
func (a *Actor) IDString() string {
	if a == nil || a.ID == nil {
		return ""
	}
	return *a.ID
}

// DevAdmin is the synthetic actor used by the development bypass cookie
func DevAdmin() *Actor {
	return &Actor{ID: nil, Name: "Dev Admin", Role: RoleAdmin}
}

type SlotStatus string

const (
	SlotDraft     SlotStatus = "DRAFT"
	SlotPublished SlotStatus = "PUBLISHED"
)

// RosterRoleWorshipLead is the roster role whose holder may edit that date's setlist
const RosterRoleWorshipLead = "worship_lead"

const DateLayout = "2006-01-02"
const MonthLayout = "2006-01"

// ParseDate parses a strict ISO calendar date (YYYY-MM-DD)
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMonth parses YYYY-MM into the first day of that month (UTC)
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/permissions"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// RosterService reads and replaces who serves in which role on a date
type RosterService struct {
	store    db.RosterStore
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewRosterService creates a RosterService. A nil store makes every
// operation fail with errs.ErrUnconfigured.
func NewRosterService(store db.RosterStore, recorder *audit.Recorder, logger *zap.Logger) *RosterService {
	return &RosterService{store: store, recorder: recorder, logger: logger}
}

// AssignmentInput places a member in a roster role
type AssignmentInput struct {
	Role     string `json:"role"`
	MemberID string `json:"member_id"`
}

// GetRoster returns the assignments of date
func (s *RosterService) GetRoster(ctx context.Context, actor *model.Actor, date string) ([]db.RosterAssignment, error) {
	if err := authorize(actor, permissions.ActionViewRoster, false); err != nil {
		return nil, err
	}
	if err := validateDate("date", date); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errs.ErrUnconfigured
	}

	assignments, err := s.store.ListAssignments(ctx, date)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch roster: %w", err))
	}
	return assignments, nil
}

// SaveRoster replaces every assignment of date
func (s *RosterService) SaveRoster(ctx context.Context, actor *model.Actor, date string, in []AssignmentInput) ([]db.RosterAssignment, error) {
	if err := authorize(actor, permissions.ActionManageRoster, true); err != nil {
		return nil, err
	}
	if err := validateDate("date", date); err != nil {
		return nil, err
	}

	assignments := make([]db.RosterAssignment, 0, len(in))
	seen := make(map[string]bool, len(in))
	for i, a := range in {
		role := strings.TrimSpace(a.Role)
		memberID := strings.TrimSpace(a.MemberID)
		if role == "" {
			return nil, errs.Validation("assignments[%d].role is required", i)
		}
		if memberID == "" {
			return nil, errs.Validation("assignments[%d].member_id is required", i)
		}
		key := role + "\x00" + memberID
		if seen[key] {
			return nil, errs.Validation("assignments[%d] repeats %s for member %s", i, role, memberID)
		}
		seen[key] = true
		assignments = append(assignments, db.RosterAssignment{
			ID:         uuid.New().String(),
			SundayDate: date,
			Role:       role,
			MemberID:   memberID,
		})
	}

	if s.store == nil {
		return nil, errs.ErrUnconfigured
	}
	if err := s.store.ReplaceAssignments(ctx, date, assignments); err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to save roster: %w", err))
	}

	s.logger.Info("Saved roster", zap.String("sunday_date", date), zap.Int("assignments", len(assignments)))
	s.recorder.Record(ctx, audit.ActionRosterSave, audit.EntityRoster, date, actor,
		fmt.Sprintf("Saved %s for %s", audit.Plural(len(assignments), "assignment"), date))

	return assignments, nil
}

// IsAssignedWorshipLead reports whether actorID holds the worship lead role on date
func (s *RosterService) IsAssignedWorshipLead(ctx context.Context, date, actorID string) (bool, error) {
	if s.store == nil {
		return false, errs.ErrUnconfigured
	}
	assignments, err := s.store.ListAssignments(ctx, date)
	if err != nil {
		return false, fmt.Errorf("failed to fetch roster: %w", err)
	}
	for _, a := range assignments {
		if a.Role == model.RosterRoleWorshipLead && a.MemberID == actorID {
			return true, nil
		}
	}
	return false, nil
}

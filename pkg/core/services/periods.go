package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/permissions"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// PeriodActionClose is the only PATCH action understood by UpdatePeriod
const PeriodActionClose = "close"

// PeriodManagerStore defines the database operations needed to manage periods
type PeriodManagerStore interface {
	db.PeriodStore
	ListMembers(ctx context.Context) ([]db.Member, error)
}

// PeriodManager creates, edits, closes and deletes availability periods
type PeriodManager struct {
	store        PeriodManagerStore
	recorder     *audit.Recorder
	clock        clock.Clock
	serviceRRule string
	logger       *zap.Logger
}

// NewPeriodManager creates a PeriodManager. A nil store makes every
// operation fail with errs.ErrUnconfigured.
func NewPeriodManager(store PeriodManagerStore, recorder *audit.Recorder, c clock.Clock, serviceRRule string, logger *zap.Logger) *PeriodManager {
	return &PeriodManager{store: store, recorder: recorder, clock: c, serviceRRule: serviceRRule, logger: logger}
}

// CreatePeriodInput holds the fields of a new period
type CreatePeriodInput struct {
	Label    string  `json:"label"`
	StartsOn string  `json:"starts_on"`
	EndsOn   string  `json:"ends_on"`
	Deadline *string `json:"deadline"`
}

// UpdatePeriodInput is either a close action or a set of edits.
// An empty Deadline string clears the deadline.
type UpdatePeriodInput struct {
	Action   *string `json:"action"`
	Label    *string `json:"label"`
	Deadline *string `json:"deadline"`
	StartsOn *string `json:"starts_on"`
	EndsOn   *string `json:"ends_on"`
}

func (in UpdatePeriodInput) hasEdits() bool {
	return in.Label != nil || in.Deadline != nil || in.StartsOn != nil || in.EndsOn != nil
}

// UpdatePeriodResult reports what UpdatePeriod did
type UpdatePeriodResult struct {
	Closed bool
	Period *db.Period
}

// MemberAvailability is one member's row in a period detail
type MemberAvailability struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Email       string                     `json:"email"`
	Role        string                     `json:"role"`
	Responded   bool                       `json:"responded"`
	Notes       string                     `json:"notes"`
	Dates       []db.AvailabilityDateEntry `json:"dates"`
	SubmittedAt *time.Time                 `json:"submitted_at"`
}

// SundayCount is the number of members available on one service day
type SundayCount struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
}

// PeriodDetail is a period with every member's response and per-day totals
type PeriodDetail struct {
	Period  db.Period            `json:"period"`
	Members []MemberAvailability `json:"members"`
	Sundays []SundayCount        `json:"sundays"`
}

// ListPeriods returns every period, newest first
func (m *PeriodManager) ListPeriods(ctx context.Context, actor *model.Actor) ([]db.Period, error) {
	if err := authorize(actor, permissions.ActionViewPeriods, false); err != nil {
		return nil, err
	}
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	m.logger.Debug("Listing periods")
	periods, err := m.store.ListPeriods(ctx)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch periods: %w", err))
	}

	if periods == nil {
		periods = []db.Period{}
	}

	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartsOn > periods[j].StartsOn
	})
	return periods, nil
}

// CreatePeriod validates and inserts a new period. It is rejected when the
// range overlaps any open period.
func (m *PeriodManager) CreatePeriod(ctx context.Context, actor *model.Actor, in CreatePeriodInput) (*db.Period, error) {
	if err := authorize(actor, permissions.ActionManagePeriods, true); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, errs.Validation("label is required")
	}
	if err := validateRange(in.StartsOn, in.EndsOn); err != nil {
		return nil, err
	}
	deadline, err := normalizeDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}

	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	m.logger.Debug("Creating period",
		zap.String("label", label),
		zap.String("starts_on", in.StartsOn),
		zap.String("ends_on", in.EndsOn))

	existing, err := m.store.ListPeriods(ctx)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch periods: %w", err))
	}
	if other := findOverlap(existing, in.StartsOn, in.EndsOn, ""); other != nil {
		m.logger.Warn("Rejected overlapping period", zap.String("overlaps", other.ID))
		return nil, errs.Conflict("period overlaps open period %q (%s to %s)", other.Label, other.StartsOn, other.EndsOn)
	}

	period := &db.Period{
		ID:        uuid.New().String(),
		Label:     label,
		StartsOn:  in.StartsOn,
		EndsOn:    in.EndsOn,
		Deadline:  deadline,
		CreatedBy: actor.ID,
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.InsertPeriod(ctx, period); err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to insert period: %w", err))
	}

	m.logger.Info("Created period", zap.String("id", period.ID), zap.String("label", label))
	m.recorder.Record(ctx, audit.ActionPeriodCreate, audit.EntityPeriod, period.ID, actor,
		fmt.Sprintf("Created period %q (%s to %s)", label, period.StartsOn, period.EndsOn))

	return period, nil
}

// GetPeriod returns a period together with every active member's response
// and the number of members available on each service day
func (m *PeriodManager) GetPeriod(ctx context.Context, actor *model.Actor, id string) (*PeriodDetail, error) {
	if err := authorize(actor, permissions.ActionViewPeriods, false); err != nil {
		return nil, err
	}
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	period, err := m.fetchPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := m.store.ListMembers(ctx)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch members: %w", err))
	}
	responses, err := m.store.ListResponses(ctx, id)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch responses: %w", err))
	}

	byMember := make(map[string]db.AvailabilityResponse, len(responses))
	for _, r := range responses {
		byMember[r.MemberID] = r
	}

	detail := &PeriodDetail{Period: *period, Members: []MemberAvailability{}, Sundays: []SundayCount{}}
	for _, member := range members {
		r, responded := byMember[member.ID]
		if !member.Active && !responded {
			continue
		}
		row := MemberAvailability{
			ID:        member.ID,
			Name:      member.Name,
			Email:     member.Email,
			Role:      member.Role,
			Responded: responded,
			Dates:     []db.AvailabilityDateEntry{},
		}
		if responded {
			row.Notes = r.Notes
			row.Dates = r.Dates
			submitted := r.SubmittedAt
			row.SubmittedAt = &submitted
		}
		detail.Members = append(detail.Members, row)
	}

	start, _ := model.ParseDate(period.StartsOn)
	end, _ := model.ParseDate(period.EndsOn)
	days, err := ServiceDays(m.serviceRRule, start, end)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range responses {
		for _, entry := range r.Dates {
			if entry.Available {
				counts[entry.Date]++
			}
		}
	}
	for _, day := range formatDates(days) {
		detail.Sundays = append(detail.Sundays, SundayCount{Date: day, Available: counts[day]})
	}

	return detail, nil
}

// UpdatePeriod closes a period or applies edits to it. Dates are locked
// once any member has responded.
func (m *PeriodManager) UpdatePeriod(ctx context.Context, actor *model.Actor, id string, in UpdatePeriodInput) (*UpdatePeriodResult, error) {
	if err := authorize(actor, permissions.ActionManagePeriods, true); err != nil {
		return nil, err
	}

	if in.Action != nil {
		if *in.Action != PeriodActionClose {
			return nil, errs.Validation("unknown action %q: expected %q", *in.Action, PeriodActionClose)
		}
		return m.closePeriod(ctx, actor, id)
	}
	if !in.hasEdits() {
		return nil, errs.Validation("missing action")
	}

	var label string
	if in.Label != nil {
		label = strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, errs.Validation("label is required")
		}
	}
	var deadline *string
	if in.Deadline != nil {
		var err error
		if deadline, err = normalizeDeadline(in.Deadline); err != nil {
			return nil, err
		}
	}

	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	period, err := m.fetchPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	startsOn, endsOn := period.StartsOn, period.EndsOn
	if in.StartsOn != nil {
		startsOn = *in.StartsOn
	}
	if in.EndsOn != nil {
		endsOn = *in.EndsOn
	}
	datesChanged := startsOn != period.StartsOn || endsOn != period.EndsOn

	if datesChanged {
		if err := validateRange(startsOn, endsOn); err != nil {
			return nil, err
		}
		count, err := m.store.CountResponses(ctx, id)
		if err != nil {
			return nil, errs.Upstream(fmt.Errorf("failed to count responses: %w", err))
		}
		if count > 0 {
			return nil, errs.Validation("period dates are locked: %s already recorded", audit.Plural(count, "response"))
		}
		if period.IsOpen() {
			existing, err := m.store.ListPeriods(ctx)
			if err != nil {
				return nil, errs.Upstream(fmt.Errorf("failed to fetch periods: %w", err))
			}
			if other := findOverlap(existing, startsOn, endsOn, id); other != nil {
				return nil, errs.Conflict("period overlaps open period %q (%s to %s)", other.Label, other.StartsOn, other.EndsOn)
			}
		}
	}

	if in.Label != nil {
		period.Label = label
	}
	if in.Deadline != nil {
		period.Deadline = deadline
	}
	period.StartsOn, period.EndsOn = startsOn, endsOn

	if err := m.store.UpdatePeriod(ctx, period); err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to update period: %w", err))
	}

	m.logger.Info("Updated period", zap.String("id", id))
	m.recorder.Record(ctx, audit.ActionPeriodUpdate, audit.EntityPeriod, id, actor,
		fmt.Sprintf("Updated period %q (%s to %s)", period.Label, period.StartsOn, period.EndsOn))

	return &UpdatePeriodResult{Period: period}, nil
}

func (m *PeriodManager) closePeriod(ctx context.Context, actor *model.Actor, id string) (*UpdatePeriodResult, error) {
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	period, err := m.fetchPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	closedAt := m.clock.Now()
	if err := m.store.ClosePeriod(ctx, id, closedAt); err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to close period: %w", err))
	}
	period.ClosedAt = &closedAt

	m.logger.Info("Closed period", zap.String("id", id))
	m.recorder.Record(ctx, audit.ActionPeriodClose, audit.EntityPeriod, id, actor,
		fmt.Sprintf("Closed period %q", period.Label))

	return &UpdatePeriodResult{Closed: true, Period: period}, nil
}

// DeletePeriod removes a period that has no responses
func (m *PeriodManager) DeletePeriod(ctx context.Context, actor *model.Actor, id string) error {
	if err := authorize(actor, permissions.ActionManagePeriods, true); err != nil {
		return err
	}
	if m.store == nil {
		return errs.ErrUnconfigured
	}

	period, err := m.fetchPeriod(ctx, id)
	if err != nil {
		return err
	}

	count, err := m.store.CountResponses(ctx, id)
	if err != nil {
		return errs.Upstream(fmt.Errorf("failed to count responses: %w", err))
	}
	if count > 0 {
		return errs.Conflict("cannot delete period %q: %s already recorded", period.Label, audit.Plural(count, "response"))
	}

	if err := m.store.DeletePeriod(ctx, id); err != nil {
		return errs.Upstream(fmt.Errorf("failed to delete period: %w", err))
	}

	m.logger.Info("Deleted period", zap.String("id", id))
	m.recorder.Record(ctx, audit.ActionPeriodDelete, audit.EntityPeriod, id, actor,
		fmt.Sprintf("Deleted period %q (%s to %s)", period.Label, period.StartsOn, period.EndsOn))

	return nil
}

func (m *PeriodManager) fetchPeriod(ctx context.Context, id string) (*db.Period, error) {
	period, err := m.store.GetPeriod(ctx, id)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch period: %w", err))
	}
	if period == nil {
		return nil, errs.NotFound("period not found")
	}
	return period, nil
}

func validateRange(startsOn, endsOn string) error {
	start, err := model.ParseDate(startsOn)
	if err != nil {
		return errs.Validation("starts_on must be an ISO date (YYYY-MM-DD)")
	}
	end, err := model.ParseDate(endsOn)
	if err != nil {
		return errs.Validation("ends_on must be an ISO date (YYYY-MM-DD)")
	}
	if end.Before(start) {
		return errs.Validation("starts_on must be on or before ends_on")
	}
	return nil
}

func normalizeDeadline(deadline *string) (*string, error) {
	if deadline == nil || strings.TrimSpace(*deadline) == "" {
		return nil, nil
	}
	d := strings.TrimSpace(*deadline)
	if _, err := model.ParseDate(d); err != nil {
		return nil, errs.Validation("deadline must be an ISO date (YYYY-MM-DD)")
	}
	return &d, nil
}

// findOverlap returns the first open period, other than excludeID, whose
// range intersects [startsOn, endsOn]. ISO dates compare lexically.
func findOverlap(periods []db.Period, startsOn, endsOn, excludeID string) *db.Period {
	for i := range periods {
		p := &periods[i]
		if p.ID == excludeID || !p.IsOpen() {
			continue
		}
		if startsOn <= p.EndsOn && endsOn >= p.StartsOn {
			return p
		}
	}
	return nil
}

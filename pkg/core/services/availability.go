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
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// AvailabilityStore defines the database operations needed by the per-member availability endpoint
type AvailabilityStore interface {
	GetMemberByToken(ctx context.Context, token string) (*db.Member, error)
	ListPeriods(ctx context.Context) ([]db.Period, error)
	GetResponse(ctx context.Context, periodID, memberID string) (*db.AvailabilityResponse, error)
	UpsertResponse(ctx context.Context, response *db.AvailabilityResponse) error
}

// AvailabilityService reads and records a member's availability for next month
type AvailabilityService struct {
	store        AvailabilityStore
	recorder     *audit.Recorder
	clock        clock.Clock
	serviceRRule string
	logger       *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService. A nil store makes
// every operation fail with errs.ErrUnconfigured.
func NewAvailabilityService(store AvailabilityStore, recorder *audit.Recorder, c clock.Clock, serviceRRule string, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{store: store, recorder: recorder, clock: c, serviceRRule: serviceRRule, logger: logger}
}

// MemberSummary is the public view of the member owning a token
type MemberSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailabilityView is what a member sees for a target month
type AvailabilityView struct {
	Member       MemberSummary              `json:"member"`
	Sundays      []string                   `json:"sundays"`
	Availability []db.AvailabilityDateEntry `json:"availability"`
	Notes        string                     `json:"notes"`
	Lockout      bool                       `json:"lockout"`
	LockoutFrom  string                     `json:"lockout_from"`
	Period       *db.Period                 `json:"period"`
}

// SubmitAvailabilityInput is a member's answer for a target month
type SubmitAvailabilityInput struct {
	Notes        string                     `json:"notes"`
	Availability []db.AvailabilityDateEntry `json:"availability"`
}

// monthContext is everything derived from a validated target month
type monthContext struct {
	member  *db.Member
	target  time.Time
	month   string
	sundays []time.Time
	period  *db.Period
}

// GetAvailability returns the member's current answer for targetMonth and
// whether submissions are locked. Reads stay allowed during lockout.
func (s *AvailabilityService) GetAvailability(ctx context.Context, token, targetMonth string) (*AvailabilityView, error) {
	mc, err := s.resolve(ctx, token, targetMonth)
	if err != nil {
		return nil, err
	}

	view := &AvailabilityView{
		Member:       MemberSummary{ID: mc.member.ID, Name: mc.member.Name},
		Sundays:      formatDates(mc.sundays),
		Availability: []db.AvailabilityDateEntry{},
		Lockout:      IsLockedOut(clock.Today(s.clock), mc.target),
		LockoutFrom:  model.FormatDate(LockoutStart(mc.target)),
		Period:       mc.period,
	}

	if mc.period != nil {
		response, err := s.store.GetResponse(ctx, mc.period.ID, mc.member.ID)
		if err != nil {
			return nil, errs.Upstream(fmt.Errorf("failed to fetch response: %w", err))
		}
		if response != nil {
			view.Notes = response.Notes
			view.Availability = entriesWithin(response.Dates, view.Sundays)
		}
	}

	return view, nil
}

// SubmitAvailability records the member's answer for targetMonth. The
// monthly lockout and the period deadline are checked independently.
func (s *AvailabilityService) SubmitAvailability(ctx context.Context, token, targetMonth string, in SubmitAvailabilityInput) error {
	mc, err := s.resolve(ctx, token, targetMonth)
	if err != nil {
		return err
	}

	today := clock.Today(s.clock)
	if IsLockedOut(today, mc.target) {
		s.logger.Warn("Rejected availability during lockout",
			zap.String("member_id", mc.member.ID),
			zap.String("target_month", mc.month))
		return errs.Locked("availability for %s is locked since %s", mc.month, model.FormatDate(LockoutStart(mc.target)))
	}

	if mc.period == nil {
		return errs.Validation("no open availability period covers %s", mc.month)
	}
	if mc.period.Deadline != nil {
		deadline, err := model.ParseDate(*mc.period.Deadline)
		if err == nil && today.After(deadline) {
			return errs.Locked("the deadline for %q passed on %s", mc.period.Label, *mc.period.Deadline)
		}
	}

	entries, err := validateEntries(in.Availability, formatDates(mc.sundays), mc.month)
	if err != nil {
		return err
	}

	// A period may span several months; answers for other months are kept.
	existing, err := s.store.GetResponse(ctx, mc.period.ID, mc.member.ID)
	if err != nil {
		return errs.Upstream(fmt.Errorf("failed to fetch response: %w", err))
	}
	dates := entries
	if existing != nil {
		dates = mergeEntries(existing.Dates, entries, formatDates(mc.sundays))
	}

	now := s.clock.Now()
	response := &db.AvailabilityResponse{
		ID:          uuid.New().String(),
		PeriodID:    mc.period.ID,
		MemberID:    mc.member.ID,
		Notes:       strings.TrimSpace(in.Notes),
		Dates:       dates,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertResponse(ctx, response); err != nil {
		return errs.Upstream(fmt.Errorf("failed to save availability: %w", err))
	}

	available := 0
	for _, e := range entries {
		if e.Available {
			available++
		}
	}

	s.logger.Info("Recorded availability",
		zap.String("member_id", mc.member.ID),
		zap.String("target_month", mc.month),
		zap.Int("available", available))

	memberID := mc.member.ID
	submitter := &model.Actor{ID: &memberID, Name: mc.member.Name, Role: model.Role(mc.member.Role)}
	s.recorder.Record(ctx, audit.ActionAvailabilitySubmit, audit.EntityAvailability, response.ID, submitter,
		fmt.Sprintf("%s marked available for %s in %s", mc.member.Name, audit.Plural(available, "Sunday"), mc.month))

	return nil
}

// resolve validates the month, finds the member and the covering open period
func (s *AvailabilityService) resolve(ctx context.Context, token, targetMonth string) (*monthContext, error) {
	if s.store == nil {
		return nil, errs.ErrUnconfigured
	}

	if targetMonth == "" {
		return nil, errs.Validation("targetMonth is required (YYYY-MM)")
	}
	target, err := model.ParseMonth(targetMonth)
	if err != nil {
		return nil, errs.Validation("targetMonth must be YYYY-MM")
	}
	expected := NextMonth(clock.Today(s.clock))
	if !target.Equal(expected) {
		return nil, errs.Validation("targetMonth must be %s", expected.Format(model.MonthLayout))
	}

	if strings.TrimSpace(token) == "" {
		return nil, errs.NotFound("availability link not found")
	}
	member, err := s.store.GetMemberByToken(ctx, token)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch member: %w", err))
	}
	if member == nil || !member.Active {
		return nil, errs.NotFound("availability link not found")
	}

	sundays, err := ServiceDaysInMonth(s.serviceRRule, target)
	if err != nil {
		return nil, err
	}

	periods, err := s.store.ListPeriods(ctx)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch periods: %w", err))
	}

	return &monthContext{
		member:  member,
		target:  target,
		month:   targetMonth,
		sundays: sundays,
		period:  coveringPeriod(periods, target),
	}, nil
}

// coveringPeriod returns the earliest-starting open period intersecting the month
func coveringPeriod(periods []db.Period, monthStart time.Time) *db.Period {
	first := model.FormatDate(monthStart)
	last := model.FormatDate(monthStart.AddDate(0, 1, -1))

	var found *db.Period
	for i := range periods {
		p := &periods[i]
		if !p.IsOpen() || p.StartsOn > last || p.EndsOn < first {
			continue
		}
		if found == nil || p.StartsOn < found.StartsOn {
			found = p
		}
	}
	return found
}

func validateEntries(entries []db.AvailabilityDateEntry, sundays []string, month string) ([]db.AvailabilityDateEntry, error) {
	allowed := make(map[string]bool, len(sundays))
	for _, d := range sundays {
		allowed[d] = true
	}

	seen := make(map[string]bool, len(entries))
	out := make([]db.AvailabilityDateEntry, 0, len(entries))
	for i, e := range entries {
		if _, err := model.ParseDate(e.Date); err != nil {
			return nil, errs.Validation("availability[%d].date must be an ISO date (YYYY-MM-DD)", i)
		}
		if !allowed[e.Date] {
			return nil, errs.Validation("availability[%d].date %s is not a service day in %s", i, e.Date, month)
		}
		if seen[e.Date] {
			return nil, errs.Validation("availability[%d].date %s is listed twice", i, e.Date)
		}
		seen[e.Date] = true
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func entriesWithin(entries []db.AvailabilityDateEntry, dates []string) []db.AvailabilityDateEntry {
	keep := make(map[string]bool, len(dates))
	for _, d := range dates {
		keep[d] = true
	}
	out := []db.AvailabilityDateEntry{}
	for _, e := range entries {
		if keep[e.Date] {
			out = append(out, e)
		}
	}
	return out
}

// mergeEntries replaces the entries for the given month's dates and keeps the rest
func mergeEntries(existing, submitted []db.AvailabilityDateEntry, monthDates []string) []db.AvailabilityDateEntry {
	replaced := make(map[string]bool, len(monthDates))
	for _, d := range monthDates {
		replaced[d] = true
	}
	out := make([]db.AvailabilityDateEntry, 0, len(existing)+len(submitted))
	for _, e := range existing {
		if !replaced[e.Date] {
			out = append(out, e)
		}
	}
	out = append(out, submitted...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

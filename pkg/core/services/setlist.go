package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/permissions"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// parkedPosition is the temporary position used to break reorder cycles
const parkedPosition = 0

// WorshipLeadLookup answers whether a member leads worship on a date
type WorshipLeadLookup interface {
	IsAssignedWorshipLead(ctx context.Context, date, actorID string) (bool, error)
}

// SetlistManager drives the EMPTY -> DRAFT -> PUBLISHED -> DRAFT lifecycle of a date's setlist
type SetlistManager struct {
	store    db.SetlistStore
	leads    WorshipLeadLookup
	recorder *audit.Recorder
	clock    clock.Clock
	maxSlots int
	logger   *zap.Logger
}

// NewSetlistManager creates a SetlistManager. A nil store makes every
// operation fail with errs.ErrUnconfigured; a nil leads lookup treats
// nobody as an assigned worship lead.
func NewSetlistManager(store db.SetlistStore, leads WorshipLeadLookup, recorder *audit.Recorder, c clock.Clock, maxSlots int, logger *zap.Logger) *SetlistManager {
	return &SetlistManager{store: store, leads: leads, recorder: recorder, clock: c, maxSlots: maxSlots, logger: logger}
}

// UpsertSlotInput places a song at a position. Position is a pointer so a
// missing value can be told apart from zero.
type UpsertSlotInput struct {
	SundayDate string  `json:"sunday_date"`
	SongID     string  `json:"song_id"`
	Position   *int    `json:"position"`
	ChosenKey  *string `json:"chosen_key"`
}

// positionWrite is one position rewrite issued by a reorder
type positionWrite struct {
	ID       string
	Position int
}

// ReadSetlist returns the slots of date ordered by position. Roles that may
// only see published setlists get published slots only.
func (m *SetlistManager) ReadSetlist(ctx context.Context, actor *model.Actor, date string) ([]db.SetlistSlot, error) {
	if actor == nil {
		return nil, errs.Unauthenticated("authentication required")
	}
	if err := validateDate("date", date); err != nil {
		return nil, err
	}
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}

	slots, err := m.store.ListSlots(ctx, date)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch setlist: %w", err))
	}

	publishedOnly := !permissions.CanReadAllSetlist(actor.Role)
	out := make([]db.SetlistSlot, 0, len(slots))
	for _, s := range slots {
		if publishedOnly && s.Status != string(model.SlotPublished) {
			continue
		}
		out = append(out, s)
	}
	sortByPosition(out)
	return out, nil
}

// UpsertSlot adds a song to a date or moves it when already present.
// ChosenKey is stored exactly as given.
func (m *SetlistManager) UpsertSlot(ctx context.Context, actor *model.Actor, in UpsertSlotInput) (*db.SetlistSlot, error) {
	if actor == nil {
		return nil, errs.Forbidden("authentication required")
	}
	if strings.TrimSpace(in.SundayDate) == "" {
		return nil, errs.Validation("sunday_date is required")
	}
	if err := validateDate("sunday_date", in.SundayDate); err != nil {
		return nil, err
	}
	songID := strings.TrimSpace(in.SongID)
	if songID == "" {
		return nil, errs.Validation("song_id is required")
	}
	if in.Position == nil {
		return nil, errs.Validation("position is required")
	}
	if *in.Position < 1 || *in.Position > m.maxSlots {
		return nil, errs.Validation("position must be between 1 and %d", m.maxSlots)
	}
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}
	if err := m.authorizeMutation(ctx, actor, in.SundayDate); err != nil {
		return nil, err
	}

	existing, err := m.store.ListSlots(ctx, in.SundayDate)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch setlist: %w", err))
	}
	for _, s := range existing {
		if s.Position == *in.Position && s.SongID != songID {
			return nil, errs.Conflict("position %d is already taken on %s", *in.Position, in.SundayDate)
		}
	}

	// every slot of a date shares one status
	status := string(model.SlotDraft)
	if len(existing) > 0 && existing[0].Status != "" {
		status = existing[0].Status
	}

	now := m.clock.Now()
	slot := &db.SetlistSlot{
		ID:         uuid.New().String(),
		SundayDate: in.SundayDate,
		SongID:     songID,
		Position:   *in.Position,
		ChosenKey:  in.ChosenKey,
		Status:     status,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	stored, err := m.store.UpsertSlot(ctx, slot)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to save setlist slot: %w", err))
	}

	m.logger.Info("Saved setlist slot",
		zap.String("sunday_date", stored.SundayDate),
		zap.String("song_id", stored.SongID),
		zap.Int("position", stored.Position))
	m.recorder.Record(ctx, audit.ActionSlotUpsert, audit.EntitySetlistSlot, stored.ID, actor,
		fmt.Sprintf("Set song %s at position %d for %s", stored.SongID, stored.Position, stored.SundayDate))

	return stored, nil
}

// DeleteSlot removes one slot by id
func (m *SetlistManager) DeleteSlot(ctx context.Context, actor *model.Actor, id string) error {
	if actor == nil {
		return errs.Forbidden("authentication required")
	}
	if m.store == nil {
		return errs.ErrUnconfigured
	}

	slot, err := m.store.GetSlot(ctx, id)
	if err != nil {
		return errs.Upstream(fmt.Errorf("failed to fetch setlist slot: %w", err))
	}
	if slot == nil {
		return errs.NotFound("setlist slot not found")
	}
	if err := m.authorizeMutation(ctx, actor, slot.SundayDate); err != nil {
		return err
	}

	if err := m.store.DeleteSlot(ctx, id); err != nil {
		return errs.Upstream(fmt.Errorf("failed to delete setlist slot: %w", err))
	}

	m.logger.Info("Deleted setlist slot", zap.String("id", id), zap.String("sunday_date", slot.SundayDate))
	m.recorder.Record(ctx, audit.ActionSlotDelete, audit.EntitySetlistSlot, id, actor,
		fmt.Sprintf("Removed song %s from %s", slot.SongID, slot.SundayDate))

	return nil
}

// ClearSetlist deletes every slot of date. Deletes run concurrently and a
// failure may leave some slots deleted.
func (m *SetlistManager) ClearSetlist(ctx context.Context, actor *model.Actor, date string) (int, error) {
	if actor == nil {
		return 0, errs.Forbidden("authentication required")
	}
	if err := validateDate("date", date); err != nil {
		return 0, err
	}
	if m.store == nil {
		return 0, errs.ErrUnconfigured
	}
	if err := m.authorizeMutation(ctx, actor, date); err != nil {
		return 0, err
	}

	slots, err := m.store.ListSlots(ctx, date)
	if err != nil {
		return 0, errs.Upstream(fmt.Errorf("failed to fetch setlist: %w", err))
	}
	if len(slots) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range slots {
		g.Go(func() error {
			return m.store.DeleteSlot(gctx, s.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, errs.Upstream(fmt.Errorf("failed to clear setlist: %w", err))
	}

	m.logger.Info("Cleared setlist", zap.String("sunday_date", date), zap.Int("slots", len(slots)))
	m.recorder.Record(ctx, audit.ActionSetlistClear, audit.EntitySetlist, date, actor,
		fmt.Sprintf("Cleared %s from %s", audit.Plural(len(slots), "song"), date))

	return len(slots), nil
}

// ReorderSetlist applies the full desired ordering of date's slots. Only
// slots whose position changes are written, in an order that never puts two
// slots on the same position.
func (m *SetlistManager) ReorderSetlist(ctx context.Context, actor *model.Actor, date string, order []string) ([]db.SetlistSlot, error) {
	if actor == nil {
		return nil, errs.Forbidden("authentication required")
	}
	if err := validateDate("date", date); err != nil {
		return nil, err
	}
	if len(order) > m.maxSlots {
		return nil, errs.Validation("order lists %s but a setlist holds at most %d", audit.Plural(len(order), "slot"), m.maxSlots)
	}
	if m.store == nil {
		return nil, errs.ErrUnconfigured
	}
	if err := m.authorizeMutation(ctx, actor, date); err != nil {
		return nil, err
	}

	slots, err := m.store.ListSlots(ctx, date)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch setlist: %w", err))
	}

	writes, err := planReorder(slots, order)
	if err != nil {
		return nil, err
	}

	for _, w := range writes {
		if err := m.store.SetSlotPosition(ctx, w.ID, w.Position); err != nil {
			return nil, errs.Upstream(fmt.Errorf("failed to move setlist slot: %w", err))
		}
	}

	positions := make(map[string]int, len(order))
	for i, id := range order {
		positions[id] = i + 1
	}
	for i := range slots {
		slots[i].Position = positions[slots[i].ID]
	}
	sortByPosition(slots)

	if len(writes) == 0 {
		return slots, nil
	}

	m.logger.Info("Reordered setlist", zap.String("sunday_date", date), zap.Int("writes", len(writes)))
	m.recorder.Record(ctx, audit.ActionSetlistReorder, audit.EntitySetlist, date, actor,
		fmt.Sprintf("Reordered %s for %s", audit.Plural(len(slots), "song"), date))

	return slots, nil
}

// PublishSetlist marks every slot of date as published
func (m *SetlistManager) PublishSetlist(ctx context.Context, actor *model.Actor, date string) (int, error) {
	return m.setStatus(ctx, actor, date, model.SlotPublished)
}

// RevertSetlist returns every slot of date to draft
func (m *SetlistManager) RevertSetlist(ctx context.Context, actor *model.Actor, date string) (int, error) {
	return m.setStatus(ctx, actor, date, model.SlotDraft)
}

func (m *SetlistManager) setStatus(ctx context.Context, actor *model.Actor, date string, status model.SlotStatus) (int, error) {
	if actor == nil {
		return 0, errs.Forbidden("authentication required")
	}
	if err := validateDate("date", date); err != nil {
		return 0, err
	}
	if m.store == nil {
		return 0, errs.ErrUnconfigured
	}
	if err := m.authorizeMutation(ctx, actor, date); err != nil {
		return 0, err
	}

	count, err := m.store.SetSlotStatus(ctx, date, string(status))
	if err != nil {
		return 0, errs.Upstream(fmt.Errorf("failed to update setlist status: %w", err))
	}

	m.logger.Info("Changed setlist status",
		zap.String("sunday_date", date),
		zap.String("status", string(status)),
		zap.Int("slots", count))
	if count == 0 {
		return 0, nil
	}

	action, verb := audit.ActionSetlistPublish, "Published"
	if status == model.SlotDraft {
		action, verb = audit.ActionSetlistRevert, "Reverted to draft"
	}

	m.recorder.Record(ctx, action, audit.EntitySetlist, date, actor,
		fmt.Sprintf("%s setlist for %s (%s)", verb, date, audit.Plural(count, "song")))

	return count, nil
}

// authorizeMutation consults the permission table, looking up the worship
// lead assignment only for roles whose access depends on it
func (m *SetlistManager) authorizeMutation(ctx context.Context, actor *model.Actor, date string) error {
	assigned := false
	if permissions.RequiresAssignment(actor.Role, permissions.ActionMutateSetlist) && actor.ID != nil && m.leads != nil {
		var err error
		assigned, err = m.leads.IsAssignedWorshipLead(ctx, date, *actor.ID)
		if err != nil {
			return errs.Upstream(fmt.Errorf("failed to check worship lead assignment: %w", err))
		}
	}
	if !permissions.CanMutateSetlist(actor.Role, assigned) {
		m.logger.Warn("Rejected setlist mutation",
			zap.String("actor", actor.IDString()),
			zap.String("role", string(actor.Role)),
			zap.String("sunday_date", date))
		return errs.Forbidden(fmt.Sprintf("not allowed to change the setlist for %s", date))
	}
	return nil
}

// planReorder computes the position writes that move slots into order.
// A slot is only moved onto a free position; when every pending slot is
// blocked by a cycle, one slot is parked on parkedPosition to break it.
func planReorder(slots []db.SetlistSlot, order []string) ([]positionWrite, error) {
	if len(order) != len(slots) {
		return nil, errs.Validation("order must list all %s of the setlist", audit.Plural(len(slots), "slot"))
	}

	current := make(map[string]int, len(slots))
	for _, s := range slots {
		current[s.ID] = s.Position
	}

	desired := make(map[string]int, len(order))
	for i, id := range order {
		if _, ok := current[id]; !ok {
			return nil, errs.Validation("order contains unknown slot %s", id)
		}
		if _, dup := desired[id]; dup {
			return nil, errs.Validation("order lists slot %s twice", id)
		}
		desired[id] = i + 1
	}

	occupied := make(map[int]string, len(slots))
	for id, pos := range current {
		occupied[pos] = id
	}

	var pending []string
	for _, id := range order {
		if current[id] != desired[id] {
			pending = append(pending, id)
		}
	}

	var writes []positionWrite
	move := func(id string, to int) {
		delete(occupied, current[id])
		occupied[to] = id
		current[id] = to
		writes = append(writes, positionWrite{ID: id, Position: to})
	}

	for len(pending) > 0 {
		remaining := pending[:0]
		progressed := false
		for _, id := range pending {
			if _, taken := occupied[desired[id]]; taken {
				remaining = append(remaining, id)
				continue
			}
			move(id, desired[id])
			progressed = true
		}
		pending = remaining

		if progressed || len(pending) == 0 {
			continue
		}
		if _, taken := occupied[parkedPosition]; taken {
			return nil, errs.Upstream(fmt.Errorf("cannot reorder: position %d is already in use", parkedPosition))
		}
		move(pending[0], parkedPosition)
	}

	return writes, nil
}

func validateDate(field, value string) error {
	if _, err := model.ParseDate(value); err != nil {
		return errs.Validation("%s must be an ISO date (YYYY-MM-DD)", field)
	}
	return nil
}

func sortByPosition(slots []db.SetlistSlot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })
}

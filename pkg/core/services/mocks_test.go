package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// mockStore is an in-memory implementation of every store interface used by the services.
// Set errs[method] to make that method fail.
type mockStore struct {
	mu          sync.Mutex
	members     []db.Member
	periods     []db.Period
	responses   []db.AvailabilityResponse
	slots       []db.SetlistSlot
	assignments map[string][]db.RosterAssignment
	errs        map[string]error

	positionWrites []positionWrite
	deletedSlots   []string
	closedAt       map[string]time.Time
}

func newMockStore() *mockStore {
	return &mockStore{
		assignments: map[string][]db.RosterAssignment{},
		errs:        map[string]error{},
		closedAt:    map[string]time.Time{},
	}
}

func (m *mockStore) fail(method string) error {
	return m.errs[method]
}

func (m *mockStore) GetMemberByEmail(ctx context.Context, email string) (*db.Member, error) {
	for _, mem := range m.members {
		if mem.Email == email {
			return &mem, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetMemberByToken(ctx context.Context, token string) (*db.Member, error) {
	if err := m.fail("GetMemberByToken"); err != nil {
		return nil, err
	}
	for _, mem := range m.members {
		if mem.AvailabilityToken == token {
			return &mem, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListMembers(ctx context.Context) ([]db.Member, error) {
	if err := m.fail("ListMembers"); err != nil {
		return nil, err
	}
	return m.members, nil
}

func (m *mockStore) ListPeriods(ctx context.Context) ([]db.Period, error) {
	if err := m.fail("ListPeriods"); err != nil {
		return nil, err
	}
	out := make([]db.Period, len(m.periods))
	copy(out, m.periods)
	return out, nil
}

func (m *mockStore) GetPeriod(ctx context.Context, id string) (*db.Period, error) {
	if err := m.fail("GetPeriod"); err != nil {
		return nil, err
	}
	for _, p := range m.periods {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockStore) InsertPeriod(ctx context.Context, period *db.Period) error {
	if err := m.fail("InsertPeriod"); err != nil {
		return err
	}
	m.periods = append(m.periods, *period)
	return nil
}

func (m *mockStore) UpdatePeriod(ctx context.Context, period *db.Period) error {
	if err := m.fail("UpdatePeriod"); err != nil {
		return err
	}
	for i := range m.periods {
		if m.periods[i].ID == period.ID {
			m.periods[i] = *period
			return nil
		}
	}
	return fmt.Errorf("period %s not found", period.ID)
}

func (m *mockStore) ClosePeriod(ctx context.Context, id string, closedAt time.Time) error {
	if err := m.fail("ClosePeriod"); err != nil {
		return err
	}
	for i := range m.periods {
		if m.periods[i].ID == id {
			m.periods[i].ClosedAt = &closedAt
			m.closedAt[id] = closedAt
		}
	}
	return nil
}

func (m *mockStore) DeletePeriod(ctx context.Context, id string) error {
	if err := m.fail("DeletePeriod"); err != nil {
		return err
	}
	kept := m.periods[:0]
	for _, p := range m.periods {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.periods = kept
	return nil
}

func (m *mockStore) CountResponses(ctx context.Context, periodID string) (int, error) {
	if err := m.fail("CountResponses"); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range m.responses {
		if r.PeriodID == periodID {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) ListResponses(ctx context.Context, periodID string) ([]db.AvailabilityResponse, error) {
	if err := m.fail("ListResponses"); err != nil {
		return nil, err
	}
	out := []db.AvailabilityResponse{}
	for _, r := range m.responses {
		if r.PeriodID == periodID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) GetResponse(ctx context.Context, periodID, memberID string) (*db.AvailabilityResponse, error) {
	if err := m.fail("GetResponse"); err != nil {
		return nil, err
	}
	for _, r := range m.responses {
		if r.PeriodID == periodID && r.MemberID == memberID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpsertResponse(ctx context.Context, response *db.AvailabilityResponse) error {
	if err := m.fail("UpsertResponse"); err != nil {
		return err
	}
	for i, r := range m.responses {
		if r.PeriodID == response.PeriodID && r.MemberID == response.MemberID {
			response.ID = r.ID
			response.SubmittedAt = r.SubmittedAt
			m.responses[i] = *response
			return nil
		}
	}
	m.responses = append(m.responses, *response)
	return nil
}

func (m *mockStore) ListSlots(ctx context.Context, sundayDate string) ([]db.SetlistSlot, error) {
	if err := m.fail("ListSlots"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []db.SetlistSlot{}
	for _, s := range m.slots {
		if s.SundayDate == sundayDate {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockStore) GetSlot(ctx context.Context, id string) (*db.SetlistSlot, error) {
	if err := m.fail("GetSlot"); err != nil {
		return nil, err
	}
	for _, s := range m.slots {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpsertSlot(ctx context.Context, slot *db.SetlistSlot) (*db.SetlistSlot, error) {
	if err := m.fail("UpsertSlot"); err != nil {
		return nil, err
	}
	for i, s := range m.slots {
		if s.SundayDate == slot.SundayDate && s.SongID == slot.SongID {
			m.slots[i].Position = slot.Position
			m.slots[i].ChosenKey = slot.ChosenKey
			stored := m.slots[i]
			return &stored, nil
		}
	}
	m.slots = append(m.slots, *slot)
	stored := *slot
	return &stored, nil
}

func (m *mockStore) DeleteSlot(ctx context.Context, id string) error {
	if err := m.fail("DeleteSlot"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.slots[:0]
	for _, s := range m.slots {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	m.slots = kept
	m.deletedSlots = append(m.deletedSlots, id)
	return nil
}

// SetSlotPosition enforces the (sunday_date, position) unique constraint
func (m *mockStore) SetSlotPosition(ctx context.Context, id string, position int) error {
	if err := m.fail("SetSlotPosition"); err != nil {
		return err
	}
	idx := -1
	for i, s := range m.slots {
		if s.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("slot %s not found", id)
	}
	for _, s := range m.slots {
		if s.ID != id && s.SundayDate == m.slots[idx].SundayDate && s.Position == position {
			return fmt.Errorf("duplicate key value violates unique constraint: position %d", position)
		}
	}
	m.slots[idx].Position = position
	m.positionWrites = append(m.positionWrites, positionWrite{ID: id, Position: position})
	return nil
}

func (m *mockStore) SetSlotStatus(ctx context.Context, sundayDate string, status string) (int, error) {
	if err := m.fail("SetSlotStatus"); err != nil {
		return 0, err
	}
	n := 0
	for i := range m.slots {
		if m.slots[i].SundayDate == sundayDate {
			m.slots[i].Status = status
			n++
		}
	}
	return n, nil
}

func (m *mockStore) ListAssignments(ctx context.Context, sundayDate string) ([]db.RosterAssignment, error) {
	if err := m.fail("ListAssignments"); err != nil {
		return nil, err
	}
	return m.assignments[sundayDate], nil
}

func (m *mockStore) ReplaceAssignments(ctx context.Context, sundayDate string, assignments []db.RosterAssignment) error {
	if err := m.fail("ReplaceAssignments"); err != nil {
		return err
	}
	m.assignments[sundayDate] = assignments
	return nil
}

// mockAuditStore captures audit entries written by the recorder
type mockAuditStore struct {
	mu      sync.Mutex
	entries []db.AuditEntry
	err     error
}

func (m *mockAuditStore) InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditStore) ListAuditEntries(ctx context.Context, limit int) ([]db.AuditEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.entries
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// testEnv bundles a store, a recorder backed by an audit store and a fixed clock
type testEnv struct {
	store    *mockStore
	audits   *mockAuditStore
	recorder *audit.Recorder
	clock    *clock.FixedClock
}

func newTestEnv(now time.Time) *testEnv {
	audits := &mockAuditStore{}
	c := clock.Fixed(now)
	return &testEnv{
		store:    newMockStore(),
		audits:   audits,
		recorder: audit.NewRecorder(audits, c, zap.NewNop()),
		clock:    c,
	}
}

// auditEntries waits for pending audit writes and returns them
func (e *testEnv) auditEntries() []db.AuditEntry {
	e.recorder.Wait()
	e.audits.mu.Lock()
	defer e.audits.mu.Unlock()
	return append([]db.AuditEntry(nil), e.audits.entries...)
}

func actorWithRole(id string, role model.Role) *model.Actor {
	return &model.Actor{ID: &id, Name: "Test " + string(role), Role: role}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// sydneyTime returns the given wall clock time in Australia/Sydney
func sydneyTime(year int, month time.Month, day, hour int) time.Time {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		panic(err)
	}
	return time.Date(year, month, day, hour, 0, 0, 0, loc)
}

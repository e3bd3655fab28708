package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/actor"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/audit"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/services"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// fakeDB is an in-memory db.Database
type fakeDB struct {
	mu          sync.Mutex
	members     []db.Member
	periods     []db.Period
	responses   []db.AvailabilityResponse
	slots       []db.SetlistSlot
	assignments map[string][]db.RosterAssignment
	audit       []db.AuditEntry
	auditErr    error
}

var _ db.Database = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{
		members: []db.Member{
			{ID: "m-admin", Name: "Ada Admin", Email: "admin@example.com", Role: "admin", Active: true},
			{ID: "m-coord", Name: "Cole Coord", Email: "coord@example.com", Role: "coordinator", Active: true},
			{ID: "m-lead", Name: "Lee Lead", Email: "lead@example.com", Role: "worship_leader", Active: true},
			{ID: "m-music", Name: "Mo Musician", Email: "music@example.com", Role: "musician", AvailabilityToken: "tok-mo", Active: true},
		},
		assignments: map[string][]db.RosterAssignment{},
	}
}

func (f *fakeDB) Close() {}

func (f *fakeDB) GetMemberByEmail(ctx context.Context, email string) (*db.Member, error) {
	for _, m := range f.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetMemberByToken(ctx context.Context, token string) (*db.Member, error) {
	for _, m := range f.members {
		if m.AvailabilityToken != "" && m.AvailabilityToken == token {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) ListMembers(ctx context.Context) ([]db.Member, error) {
	return f.members, nil
}

func (f *fakeDB) ListPeriods(ctx context.Context) ([]db.Period, error) {
	return append([]db.Period{}, f.periods...), nil
}

func (f *fakeDB) GetPeriod(ctx context.Context, id string) (*db.Period, error) {
	for _, p := range f.periods {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) InsertPeriod(ctx context.Context, period *db.Period) error {
	f.periods = append(f.periods, *period)
	return nil
}

func (f *fakeDB) UpdatePeriod(ctx context.Context, period *db.Period) error {
	for i := range f.periods {
		if f.periods[i].ID == period.ID {
			f.periods[i] = *period
		}
	}
	return nil
}

func (f *fakeDB) ClosePeriod(ctx context.Context, id string, closedAt time.Time) error {
	for i := range f.periods {
		if f.periods[i].ID == id {
			f.periods[i].ClosedAt = &closedAt
		}
	}
	return nil
}

func (f *fakeDB) DeletePeriod(ctx context.Context, id string) error {
	kept := f.periods[:0]
	for _, p := range f.periods {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.periods = kept
	return nil
}

func (f *fakeDB) CountResponses(ctx context.Context, periodID string) (int, error) {
	n := 0
	for _, r := range f.responses {
		if r.PeriodID == periodID {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) ListResponses(ctx context.Context, periodID string) ([]db.AvailabilityResponse, error) {
	var out []db.AvailabilityResponse
	for _, r := range f.responses {
		if r.PeriodID == periodID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeDB) GetResponse(ctx context.Context, periodID, memberID string) (*db.AvailabilityResponse, error) {
	for _, r := range f.responses {
		if r.PeriodID == periodID && r.MemberID == memberID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) UpsertResponse(ctx context.Context, response *db.AvailabilityResponse) error {
	for i, r := range f.responses {
		if r.PeriodID == response.PeriodID && r.MemberID == response.MemberID {
			f.responses[i] = *response
			return nil
		}
	}
	f.responses = append(f.responses, *response)
	return nil
}

func (f *fakeDB) ListSlots(ctx context.Context, sundayDate string) ([]db.SetlistSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []db.SetlistSlot{}
	for _, s := range f.slots {
		if s.SundayDate == sundayDate {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeDB) GetSlot(ctx context.Context, id string) (*db.SetlistSlot, error) {
	for _, s := range f.slots {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) UpsertSlot(ctx context.Context, slot *db.SetlistSlot) (*db.SetlistSlot, error) {
	for i, s := range f.slots {
		if s.SundayDate == slot.SundayDate && s.SongID == slot.SongID {
			f.slots[i].Position = slot.Position
			f.slots[i].ChosenKey = slot.ChosenKey
			stored := f.slots[i]
			return &stored, nil
		}
	}
	f.slots = append(f.slots, *slot)
	stored := *slot
	return &stored, nil
}

func (f *fakeDB) DeleteSlot(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.slots[:0]
	for _, s := range f.slots {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.slots = kept
	return nil
}

func (f *fakeDB) SetSlotPosition(ctx context.Context, id string, position int) error {
	for i := range f.slots {
		if f.slots[i].ID == id {
			f.slots[i].Position = position
			return nil
		}
	}
	return fmt.Errorf("slot %s not found", id)
}

func (f *fakeDB) SetSlotStatus(ctx context.Context, sundayDate string, status string) (int, error) {
	n := 0
	for i := range f.slots {
		if f.slots[i].SundayDate == sundayDate {
			f.slots[i].Status = status
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) ListAssignments(ctx context.Context, sundayDate string) ([]db.RosterAssignment, error) {
	return f.assignments[sundayDate], nil
}

func (f *fakeDB) ReplaceAssignments(ctx context.Context, sundayDate string, assignments []db.RosterAssignment) error {
	f.assignments[sundayDate] = assignments
	return nil
}

func (f *fakeDB) InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audit = append(f.audit, *entry)
	return nil
}

func (f *fakeDB) ListAuditEntries(ctx context.Context, limit int) ([]db.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]db.AuditEntry(nil), f.audit...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// testServer wires the real services over fakeDB
type testServer struct {
	db       *fakeDB
	recorder *audit.Recorder
	clock    *clock.FixedClock
	handler  http.Handler
}

func newTestServer(now time.Time) *testServer {
	cfg := config.Default()
	cfg.Environment = config.EnvDevelopment
	cfg.DatabaseURL = "postgres://test"

	store := newFakeDB()
	c := clock.Fixed(now)
	logger := zap.NewNop()
	recorder := audit.NewRecorder(store, c, logger)
	roster := services.NewRosterService(store, recorder, logger)

	handler := NewRouter(Deps{
		Config:       cfg,
		Logger:       logger,
		Resolver:     actor.NewResolver(cfg, store, logger),
		Periods:      services.NewPeriodManager(store, recorder, c, cfg.ServiceRRule, logger),
		Availability: services.NewAvailabilityService(store, recorder, c, cfg.ServiceRRule, logger),
		Setlist:      services.NewSetlistManager(store, roster, recorder, c, cfg.MaxSetlistSlots, logger),
		Roster:       roster,
		AuditLog:     store,
	})

	return &testServer{db: store, recorder: recorder, clock: c, handler: handler}
}

// sessionFor builds a session cookie whose payload carries email
func sessionFor(email string) *http.Cookie {
	enc := base64.RawURLEncoding
	payload := fmt.Sprintf(`{"email":%q}`, email)
	token := enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".c2ln"
	return &http.Cookie{Name: "session", Value: token}
}

func devBypass() *http.Cookie {
	return &http.Cookie{Name: "dev_bypass", Value: "1"}
}

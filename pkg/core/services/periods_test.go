package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/internal/config"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

var periodNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newPeriodManager(env *testEnv) *PeriodManager {
	return NewPeriodManager(env.store, env.recorder, env.clock, config.DefaultServiceRRule, zap.NewNop())
}

func openPeriod(id, startsOn, endsOn string) db.Period {
	return db.Period{ID: id, Label: "Period " + id, StartsOn: startsOn, EndsOn: endsOn}
}

func TestCreatePeriod_OverlapRules(t *testing.T) {
	closed := periodNow

	tests := []struct {
		name     string
		existing db.Period
		startsOn string
		endsOn   string
		wantKind errs.Kind
		wantErr  bool
	}{
		{
			name:     "overlapping open period conflicts",
			existing: openPeriod("p-1", "2026-04-05", "2026-05-31"),
			startsOn: "2026-05-01",
			endsOn:   "2026-06-30",
			wantErr:  true,
			wantKind: errs.KindConflict,
		},
		{
			name:     "adjacent range is allowed",
			existing: openPeriod("p-1", "2026-04-05", "2026-05-31"),
			startsOn: "2026-06-01",
			endsOn:   "2026-07-31",
		},
		{
			name: "closed period never blocks",
			existing: db.Period{
				ID: "p-1", Label: "Old", StartsOn: "2026-04-05", EndsOn: "2026-05-31", ClosedAt: &closed,
			},
			startsOn: "2026-05-01",
			endsOn:   "2026-06-30",
		},
		{
			name:     "touching on a single day conflicts",
			existing: openPeriod("p-1", "2026-04-05", "2026-05-31"),
			startsOn: "2026-05-31",
			endsOn:   "2026-06-30",
			wantErr:  true,
			wantKind: errs.KindConflict,
		},
		{
			name:     "range enclosing the open period conflicts",
			existing: openPeriod("p-1", "2026-04-05", "2026-05-31"),
			startsOn: "2026-01-01",
			endsOn:   "2026-12-31",
			wantErr:  true,
			wantKind: errs.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(periodNow)
			env.store.periods = []db.Period{tt.existing}
			admin := actorWithRole("m-admin", model.RoleAdmin)

			period, err := newPeriodManager(env).CreatePeriod(context.Background(), admin, CreatePeriodInput{
				Label: "Winter", StartsOn: tt.startsOn, EndsOn: tt.endsOn,
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, errs.KindOf(err))
				assert.Contains(t, err.Error(), "overlap")
				assert.Len(t, env.store.periods, 1)
				assert.Empty(t, env.auditEntries())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.startsOn, period.StartsOn)
			assert.Len(t, env.store.periods, 2)
			assert.Len(t, env.auditEntries(), 1)
		})
	}
}

func TestCreatePeriod_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreatePeriodInput
		wantMsg string
	}{
		{"blank label", CreatePeriodInput{Label: "   ", StartsOn: "2026-04-01", EndsOn: "2026-04-30"}, "label"},
		{"bad starts_on", CreatePeriodInput{Label: "x", StartsOn: "2026-4-1", EndsOn: "2026-04-30"}, "starts_on"},
		{"bad ends_on", CreatePeriodInput{Label: "x", StartsOn: "2026-04-01", EndsOn: "soon"}, "ends_on"},
		{"reversed range", CreatePeriodInput{Label: "x", StartsOn: "2026-05-01", EndsOn: "2026-04-30"}, "starts_on"},
		{"bad deadline", CreatePeriodInput{Label: "x", StartsOn: "2026-04-01", EndsOn: "2026-04-30", Deadline: strPtr("Friday")}, "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(periodNow)
			_, err := newPeriodManager(env).CreatePeriod(context.Background(), actorWithRole("m-1", model.RoleCoordinator), tt.input)

			require.Error(t, err)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, env.store.periods)
			assert.Empty(t, env.auditEntries())
		})
	}
}

func TestCreatePeriod_TrimsLabelAndDefaultsDeadline(t *testing.T) {
	env := newTestEnv(periodNow)
	admin := actorWithRole("m-admin", model.RoleAdmin)
	pm := newPeriodManager(env)

	created, err := pm.CreatePeriod(context.Background(), admin, CreatePeriodInput{
		Label: "  April and May  ", StartsOn: "2026-04-05", EndsOn: "2026-05-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "April and May", created.Label)
	assert.Nil(t, created.Deadline)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, "m-admin", *created.CreatedBy)

	detail, err := pm.GetPeriod(context.Background(), admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Label, detail.Period.Label)
	assert.Equal(t, created.StartsOn, detail.Period.StartsOn)
	assert.Equal(t, created.EndsOn, detail.Period.EndsOn)

	entries := env.auditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "period.create", entries[0].Action)
	assert.Equal(t, created.ID, entries[0].EntityID)
	assert.Contains(t, entries[0].Summary, "April and May")
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, "m-admin", *entries[0].ActorID)
}

func TestCreatePeriod_StoreFailureSkipsAudit(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.errs["InsertPeriod"] = errors.New("connection refused")

	_, err := newPeriodManager(env).CreatePeriod(context.Background(), actorWithRole("m-1", model.RoleAdmin), CreatePeriodInput{
		Label: "x", StartsOn: "2026-04-01", EndsOn: "2026-04-30",
	})

	require.Error(t, err)
	assert.Equal(t, errs.KindUpstream, errs.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, env.auditEntries())
}

func TestPeriods_RoleGates(t *testing.T) {
	ctx := context.Background()
	input := CreatePeriodInput{Label: "x", StartsOn: "2026-04-01", EndsOn: "2026-04-30"}

	for _, role := range []model.Role{model.RoleMusicCoordinator, model.RoleWorshipLeader, model.RoleMusician} {
		t.Run(string(role), func(t *testing.T) {
			env := newTestEnv(periodNow)
			pm := newPeriodManager(env)
			a := actorWithRole("m-1", role)

			_, err := pm.ListPeriods(ctx, a)
			assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

			_, err = pm.CreatePeriod(ctx, a, input)
			assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
			assert.Empty(t, env.auditEntries())
		})
	}

	env := newTestEnv(periodNow)
	pm := newPeriodManager(env)

	_, err := pm.ListPeriods(ctx, nil)
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	_, err = pm.CreatePeriod(ctx, nil, input)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	err = pm.DeletePeriod(ctx, nil, "p-1")
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	assert.Empty(t, env.auditEntries())
}

func TestListPeriods_NewestFirst(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{
		openPeriod("a", "2026-01-01", "2026-01-31"),
		openPeriod("c", "2026-06-01", "2026-06-30"),
		openPeriod("b", "2026-03-01", "2026-03-31"),
	}

	periods, err := newPeriodManager(env).ListPeriods(context.Background(), actorWithRole("m-1", model.RoleCoordinator))

	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{periods[0].ID, periods[1].ID, periods[2].ID})
}

// nilPeriodsStore reports no periods as a nil slice
type nilPeriodsStore struct {
	*mockStore
}

func (nilPeriodsStore) ListPeriods(ctx context.Context) ([]db.Period, error) {
	return nil, nil
}

func TestListPeriods_EmptyIsList(t *testing.T) {
	env := newTestEnv(periodNow)
	pm := NewPeriodManager(nilPeriodsStore{env.store}, env.recorder, env.clock, config.DefaultServiceRRule, zap.NewNop())

	periods, err := pm.ListPeriods(context.Background(), actorWithRole("m-admin", model.RoleAdmin))

	require.NoError(t, err)
	assert.NotNil(t, periods)
	assert.Empty(t, periods)
}

func TestGetPeriod_DetailAggregatesResponses(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{openPeriod("p-1", "2026-04-01", "2026-04-30")}
	env.store.members = []db.Member{
		{ID: "m-1", Name: "Ana", Email: "ana@example.com", Role: "musician", Active: true},
		{ID: "m-2", Name: "Ben", Email: "ben@example.com", Role: "worship_leader", Active: true},
		{ID: "m-3", Name: "Cy", Email: "cy@example.com", Role: "musician", Active: false},
	}
	env.store.responses = []db.AvailabilityResponse{
		{ID: "r-1", PeriodID: "p-1", MemberID: "m-1", Notes: "away at Easter", Dates: []db.AvailabilityDateEntry{
			{Date: "2026-04-05", Available: false},
			{Date: "2026-04-12", Available: true},
		}},
		{ID: "r-2", PeriodID: "p-1", MemberID: "m-2", Dates: []db.AvailabilityDateEntry{
			{Date: "2026-04-12", Available: true},
			{Date: "2026-04-19", Available: true},
		}},
	}

	detail, err := newPeriodManager(env).GetPeriod(context.Background(), actorWithRole("m-9", model.RoleAdmin), "p-1")

	require.NoError(t, err)
	require.Len(t, detail.Members, 2)
	assert.Equal(t, "Ana", detail.Members[0].Name)
	assert.True(t, detail.Members[0].Responded)
	assert.Equal(t, "away at Easter", detail.Members[0].Notes)
	assert.Len(t, detail.Members[0].Dates, 2)

	assert.Equal(t, []SundayCount{
		{Date: "2026-04-05", Available: 0},
		{Date: "2026-04-12", Available: 2},
		{Date: "2026-04-19", Available: 1},
		{Date: "2026-04-26", Available: 0},
	}, detail.Sundays)
}

func TestGetPeriod_NotFound(t *testing.T) {
	env := newTestEnv(periodNow)
	_, err := newPeriodManager(env).GetPeriod(context.Background(), actorWithRole("m-1", model.RoleAdmin), "missing")

	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestUpdatePeriod_Close(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{openPeriod("p-1", "2026-04-01", "2026-04-30")}

	result, err := newPeriodManager(env).UpdatePeriod(context.Background(), actorWithRole("m-1", model.RoleCoordinator), "p-1",
		UpdatePeriodInput{Action: strPtr("close")})

	require.NoError(t, err)
	assert.True(t, result.Closed)
	assert.Equal(t, periodNow, env.store.closedAt["p-1"])

	entries := env.auditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "period.close", entries[0].Action)
	assert.Contains(t, entries[0].Summary, "Period p-1")
}

func TestUpdatePeriod_ActionValidation(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{openPeriod("p-1", "2026-04-01", "2026-04-30")}
	pm := newPeriodManager(env)
	a := actorWithRole("m-1", model.RoleAdmin)

	_, err := pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{Action: strPtr("archive")})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), "action")

	_, err = pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), "missing action")

	assert.Empty(t, env.auditEntries())
}

func TestUpdatePeriod_DatesLockedOnceResponsesExist(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{openPeriod("p-1", "2026-04-01", "2026-04-30")}
	env.store.responses = []db.AvailabilityResponse{{ID: "r-1", PeriodID: "p-1", MemberID: "m-2"}}
	pm := newPeriodManager(env)
	a := actorWithRole("m-1", model.RoleAdmin)

	_, err := pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{EndsOn: strPtr("2026-05-31")})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Contains(t, err.Error(), "locked")
	assert.Equal(t, "2026-04-30", env.store.periods[0].EndsOn)

	result, err := pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{
		Label:    strPtr(" April roster "),
		Deadline: strPtr("2026-03-25"),
		EndsOn:   strPtr("2026-04-30"),
	})
	require.NoError(t, err)
	assert.False(t, result.Closed)
	assert.Equal(t, "April roster", result.Period.Label)
	require.NotNil(t, result.Period.Deadline)
	assert.Equal(t, "2026-03-25", *result.Period.Deadline)

	assert.Len(t, env.auditEntries(), 1)
}

func TestUpdatePeriod_DatesEditableWithoutResponses(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{
		openPeriod("p-1", "2026-04-01", "2026-04-30"),
		openPeriod("p-2", "2026-06-01", "2026-06-30"),
	}
	pm := newPeriodManager(env)
	a := actorWithRole("m-1", model.RoleAdmin)

	result, err := pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{EndsOn: strPtr("2026-05-31")})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-31", result.Period.EndsOn)

	_, err = pm.UpdatePeriod(context.Background(), a, "p-1", UpdatePeriodInput{EndsOn: strPtr("2026-06-15")})
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestDeletePeriod(t *testing.T) {
	env := newTestEnv(periodNow)
	env.store.periods = []db.Period{
		openPeriod("p-1", "2026-04-01", "2026-04-30"),
		openPeriod("p-2", "2026-06-01", "2026-06-30"),
	}
	env.store.responses = []db.AvailabilityResponse{{ID: "r-1", PeriodID: "p-2", MemberID: "m-2"}}
	pm := newPeriodManager(env)
	a := actorWithRole("m-1", model.RoleCoordinator)

	err := pm.DeletePeriod(context.Background(), a, "p-2")
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Contains(t, err.Error(), "1 response ")

	require.NoError(t, pm.DeletePeriod(context.Background(), a, "p-1"))
	require.Len(t, env.store.periods, 1)
	assert.Equal(t, "p-2", env.store.periods[0].ID)

	err = pm.DeletePeriod(context.Background(), a, "p-1")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	entries := env.auditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "period.delete", entries[0].Action)
}

func TestPeriodManager_Unconfigured(t *testing.T) {
	pm := NewPeriodManager(nil, nil, nil, config.DefaultServiceRRule, zap.NewNop())

	_, err := pm.ListPeriods(context.Background(), actorWithRole("m-1", model.RoleAdmin))
	assert.ErrorIs(t, err, errs.ErrUnconfigured)
	assert.Equal(t, errs.KindUnconfigured, errs.KindOf(err))
}

package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
)

func TestCanMutateSetlist_Matrix(t *testing.T) {
	for _, role := range model.Roles {
		for _, assigned := range []bool{false, true} {
			expected := role == model.RoleAdmin || role == model.RoleCoordinator ||
				((role == model.RoleWorshipLeader || role == model.RoleMusicCoordinator) && assigned)
			assert.Equal(t, expected, CanMutateSetlist(role, assigned), "role=%s assigned=%v", role, assigned)
		}
	}
}

func TestPeriods_AdminAndCoordinatorOnly(t *testing.T) {
	tests := []struct {
		role    model.Role
		allowed bool
	}{
		{model.RoleAdmin, true},
		{model.RoleCoordinator, true},
		{model.RoleMusicCoordinator, false},
		{model.RoleWorshipLeader, false},
		{model.RoleMusician, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.allowed, Allowed(tt.role, ActionViewPeriods))
			assert.Equal(t, tt.allowed, Allowed(tt.role, ActionManagePeriods))
			// assignment never widens period rights
			assert.Equal(t, tt.allowed, AllowedFor(tt.role, ActionManagePeriods, true))
		})
	}
}

func TestSetlistRead(t *testing.T) {
	for _, role := range model.Roles {
		assert.True(t, Allowed(role, ActionReadPublishedSetlist), string(role))
	}
	assert.True(t, CanReadAllSetlist(model.RoleAdmin))
	assert.True(t, CanReadAllSetlist(model.RoleCoordinator))
	assert.True(t, CanReadAllSetlist(model.RoleMusicCoordinator))
	assert.True(t, CanReadAllSetlist(model.RoleWorshipLeader))
	assert.False(t, CanReadAllSetlist(model.RoleMusician))
}

func TestUnknownRoleAndAction(t *testing.T) {
	assert.False(t, Allowed(model.Role("owner"), ActionViewPeriods))
	assert.False(t, Allowed(model.RoleAdmin, Action("nope")))
}

func TestActorAllowed_NilActorDenied(t *testing.T) {
	assert.False(t, ActorAllowed(nil, ActionReadPublishedSetlist))
	assert.True(t, ActorAllowed(model.DevAdmin(), ActionViewAudit))
}

func TestRequiresAssignment(t *testing.T) {
	assert.False(t, RequiresAssignment(model.RoleAdmin, ActionMutateSetlist))
	assert.True(t, RequiresAssignment(model.RoleWorshipLeader, ActionMutateSetlist))
	assert.True(t, RequiresAssignment(model.RoleMusicCoordinator, ActionMutateSetlist))
	assert.False(t, RequiresAssignment(model.RoleMusician, ActionMutateSetlist))
}

// Package permissions holds the single declarative table that decides
// which role may perform which action. Handlers consult it instead of
// comparing role strings inline.
package permissions

import "github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"

type Action string

const (
	ActionViewPeriods          Action = "periods/view"
	ActionManagePeriods        Action = "periods/manage"
	ActionReadPublishedSetlist Action = "setlist/read-published"
	ActionReadAllSetlist       Action = "setlist/read-all"
	ActionMutateSetlist        Action = "setlist/mutate"
	ActionViewRoster           Action = "roster/view"
	ActionManageRoster         Action = "roster/manage"
	ActionViewAudit            Action = "audit/view"
)

// rule describes who may perform an action. Conditional roles are
// allowed only when the caller is the assigned worship lead for the
// date being acted on.
type rule struct {
	allow       []model.Role
	conditional []model.Role
}

var table = map[Action]rule{
	ActionViewPeriods: {
		allow: []model.Role{model.RoleAdmin, model.RoleCoordinator},
	},
	ActionManagePeriods: {
		allow: []model.Role{model.RoleAdmin, model.RoleCoordinator},
	},
	ActionReadPublishedSetlist: {
		allow: model.Roles,
	},
	ActionReadAllSetlist: {
		allow: []model.Role{model.RoleAdmin, model.RoleCoordinator, model.RoleMusicCoordinator, model.RoleWorshipLeader},
	},
	ActionMutateSetlist: {
		allow:       []model.Role{model.RoleAdmin, model.RoleCoordinator},
		conditional: []model.Role{model.RoleMusicCoordinator, model.RoleWorshipLeader},
	},
	ActionViewRoster: {
		allow: model.Roles,
	},
	ActionManageRoster: {
		allow: []model.Role{model.RoleAdmin, model.RoleCoordinator},
	},
	ActionViewAudit: {
		allow: []model.Role{model.RoleAdmin},
	},
}

// Allowed reports whether role may perform action unconditionally
func Allowed(role model.Role, action Action) bool {
	return AllowedFor(role, action, false)
}

// AllowedFor reports whether role may perform action, given whether the
// caller is the assigned worship lead for the date in question.
func AllowedFor(role model.Role, action Action, assignedWorshipLead bool) bool {
	r, ok := table[action]
	if !ok {
		return false
	}
	if contains(r.allow, role) {
		return true
	}
	return assignedWorshipLead && contains(r.conditional, role)
}

// RequiresAssignment reports whether role's access to action depends on
// the worship-lead assignment, so callers only pay for the roster lookup
// when it can change the answer.
func RequiresAssignment(role model.Role, action Action) bool {
	r, ok := table[action]
	return ok && !contains(r.allow, role) && contains(r.conditional, role)
}

// ActorAllowed is Allowed for a possibly nil actor. Nil actors are always denied.
func ActorAllowed(actor *model.Actor, action Action) bool {
	return actor != nil && Allowed(actor.Role, action)
}

// CanMutateSetlist is the setlist edit rule
func CanMutateSetlist(role model.Role, assignedWorshipLead bool) bool {
	return AllowedFor(role, ActionMutateSetlist, assignedWorshipLead)
}

// CanReadAllSetlist reports whether role sees draft slots as well as published ones
func CanReadAllSetlist(role model.Role) bool {
	return Allowed(role, ActionReadAllSetlist)
}

func contains(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

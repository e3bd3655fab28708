package services

import (
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/permissions"
)

// authorize checks the permission table for an unconditional action.
// A missing actor is unauthenticated on reads and forbidden on mutations.
func authorize(actor *model.Actor, action permissions.Action, mutation bool) error {
	if actor == nil {
		if mutation {
			return errs.Forbidden("authentication required")
		}
		return errs.Unauthenticated("authentication required")
	}
	if !permissions.Allowed(actor.Role, action) {
		return errs.Forbidden("forbidden")
	}
	return nil
}

package services

import (
	"context"
	"fmt"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/permissions"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// ListAudit returns the most recent audit entries, newest first.
// A limit of zero means DefaultAuditLimit.
func ListAudit(ctx context.Context, store db.AuditStore, actor *model.Actor, limit int) ([]db.AuditEntry, error) {
	if err := authorize(actor, permissions.ActionViewAudit, false); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultAuditLimit
	}
	if limit < 0 || limit > MaxAuditLimit {
		return nil, errs.Validation("limit must be between 1 and %d", MaxAuditLimit)
	}
	if store == nil {
		return nil, errs.ErrUnconfigured
	}

	entries, err := store.ListAuditEntries(ctx, limit)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("failed to fetch audit log: %w", err))
	}
	return entries, nil
}

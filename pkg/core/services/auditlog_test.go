package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/errs"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

func TestListAudit(t *testing.T) {
	store := &mockAuditStore{entries: make([]db.AuditEntry, 60)}
	admin := actorWithRole("m-1", model.RoleAdmin)
	ctx := context.Background()

	entries, err := ListAudit(ctx, store, admin, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultAuditLimit)

	entries, err = ListAudit(ctx, store, admin, 5)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	_, err = ListAudit(ctx, store, admin, MaxAuditLimit+1)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = ListAudit(ctx, store, actorWithRole("m-2", model.RoleCoordinator), 5)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, err = ListAudit(ctx, store, nil, 5)
	assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))

	_, err = ListAudit(ctx, nil, admin, 5)
	assert.ErrorIs(t, err, errs.ErrUnconfigured)

	store.err = errors.New("boom")
	_, err = ListAudit(ctx, store, admin, 5)
	assert.Equal(t, errs.KindUpstream, errs.KindOf(err))
}

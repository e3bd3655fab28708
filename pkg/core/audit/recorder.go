// Package audit records who changed what after a mutation has succeeded.
//
// Recording is best-effort. The write runs in the background, detached from
// the request context, and any failure is logged and dropped so the
// response already decided by the caller is never affected.
package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/clock"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/core/model"
	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const (
	ActionPeriodCreate       = "period.create"
	ActionPeriodUpdate       = "period.update"
	ActionPeriodClose        = "period.close"
	ActionPeriodDelete       = "period.delete"
	ActionAvailabilitySubmit = "availability.submit"
	ActionSlotUpsert         = "setlist.upsert"
	ActionSlotDelete         = "setlist.delete"
	ActionSetlistClear       = "setlist.clear"
	ActionSetlistReorder     = "setlist.reorder"
	ActionSetlistPublish     = "setlist.publish"
	ActionSetlistRevert      = "setlist.revert"
	ActionRosterSave         = "roster.save"
)

const (
	EntityPeriod       = "period"
	EntityAvailability = "availability_response"
	EntitySetlistSlot  = "setlist_slot"
	EntitySetlist      = "setlist"
	EntityRoster       = "roster"
)

// Recorder writes audit entries without blocking or failing the caller
type Recorder struct {
	store  db.AuditStore
	clock  clock.Clock
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder. A nil store disables recording.
func NewRecorder(store db.AuditStore, c clock.Clock, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, clock: c, logger: logger}
}

// Record queues an audit entry. It is a no-op for a nil actor or a nil store.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID string, actor *model.Actor, summary string) {
	if r == nil || actor == nil || r.store == nil {
		return
	}

	entry := &db.AuditEntry{
		ID:         uuid.New().String(),
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  string(actor.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Summary:    summary,
		CreatedAt:  r.clock.Now(),
	}

	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Warn("Audit write panicked", zap.String("action", action), zap.Any("panic", p))
			}
		}()

		if err := r.store.InsertAuditEntry(ctx, entry); err != nil {
			r.logger.Warn("Failed to record audit entry",
				zap.String("action", action),
				zap.String("entity_id", entityID),
				zap.Error(err))
			return
		}
		r.logger.Debug("Recorded audit entry", zap.String("action", action), zap.String("entity_id", entityID))
	}()
}

// Wait blocks until every queued audit write has finished
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

// Plural formats a count with its noun, adding "s" unless n is exactly 1
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

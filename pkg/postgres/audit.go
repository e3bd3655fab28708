package postgres

import (
	"context"
	"fmt"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// InsertAuditEntry appends an audit record
func (d *DB) InsertAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_name, actor_role, action, entity_type, entity_id, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, entry.ActorID, entry.ActorName, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Summary, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns the most recent audit records, newest first
func (d *DB) ListAuditEntries(ctx context.Context, limit int) ([]db.AuditEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, actor_id, actor_name, actor_role, action, entity_type, entity_id, summary, created_at
		FROM audit_log ORDER BY created_at DESC, id LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []db.AuditEntry{}
	for rows.Next() {
		var e db.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.ActorRole, &e.Action, &e.EntityType, &e.EntityID, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

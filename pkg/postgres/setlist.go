package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const slotColumns = `id, sunday_date, song_id, position, chosen_key, status, created_by, created_at, updated_at`

func scanSlot(row pgx.Row) (*db.SetlistSlot, error) {
	var s db.SetlistSlot
	var sunday time.Time
	if err := row.Scan(&s.ID, &sunday, &s.SongID, &s.Position, &s.ChosenKey, &s.Status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.SundayDate = sunday.Format(dateLayout)
	return &s, nil
}

// ListSlots retrieves the slots of a service date ordered by position
func (d *DB) ListSlots(ctx context.Context, sundayDate string) ([]db.SetlistSlot, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+slotColumns+` FROM setlist_slot WHERE sunday_date = $1 ORDER BY position
	`, sundayDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query setlist slots: %w", err)
	}
	defer rows.Close()

	slots := []db.SetlistSlot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setlist slot: %w", err)
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setlist slots: %w", err)
	}
	return slots, nil
}

// GetSlot retrieves one slot, returning nil when it does not exist
func (d *DB) GetSlot(ctx context.Context, id string) (*db.SetlistSlot, error) {
	if !isUUID(id) {
		return nil, nil
	}
	s, err := scanSlot(d.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM setlist_slot WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setlist slot: %w", err)
	}
	return s, nil
}

// UpsertSlot inserts a slot or, when the song is already on that date,
// updates its position and key
func (d *DB) UpsertSlot(ctx context.Context, slot *db.SetlistSlot) (*db.SetlistSlot, error) {
	stored, err := scanSlot(d.pool.QueryRow(ctx, `
		INSERT INTO setlist_slot (id, sunday_date, song_id, position, chosen_key, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (sunday_date, song_id)
		DO UPDATE SET position = EXCLUDED.position, chosen_key = EXCLUDED.chosen_key, updated_at = EXCLUDED.updated_at
		RETURNING `+slotColumns,
		slot.ID, slot.SundayDate, slot.SongID, slot.Position, slot.ChosenKey, slot.Status, slot.CreatedBy, slot.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert setlist slot: %w", err)
	}
	return stored, nil
}

// DeleteSlot removes one slot
func (d *DB) DeleteSlot(ctx context.Context, id string) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM setlist_slot WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete setlist slot: %w", err)
	}
	return nil
}

// SetSlotPosition rewrites the position of one slot
func (d *DB) SetSlotPosition(ctx context.Context, id string, position int) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE setlist_slot SET position = $2, updated_at = NOW() WHERE id = $1
	`, id, position)
	if err != nil {
		return fmt.Errorf("failed to set slot position: %w", err)
	}
	return nil
}

// SetSlotStatus sets the status of every slot on a date and returns how many rows changed
func (d *DB) SetSlotStatus(ctx context.Context, sundayDate string, status string) (int, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE setlist_slot SET status = $2, updated_at = NOW() WHERE sunday_date = $1
	`, sundayDate, status)
	if err != nil {
		return 0, fmt.Errorf("failed to set setlist status: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

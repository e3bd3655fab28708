package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// ListResponses retrieves every response for a period together with its date entries
func (d *DB) ListResponses(ctx context.Context, periodID string) ([]db.AvailabilityResponse, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT r.id, r.period_id, r.member_id, r.notes, r.submitted_at, r.updated_at, a.date, a.available
		FROM availability_response r
		LEFT JOIN availability_date a ON a.response_id = r.id
		WHERE r.period_id = $1
		ORDER BY r.submitted_at, r.id, a.date
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability responses: %w", err)
	}
	defer rows.Close()

	responses := []db.AvailabilityResponse{}
	index := make(map[string]int)
	for rows.Next() {
		var r db.AvailabilityResponse
		var date *time.Time
		var available *bool
		if err := rows.Scan(&r.ID, &r.PeriodID, &r.MemberID, &r.Notes, &r.SubmittedAt, &r.UpdatedAt, &date, &available); err != nil {
			return nil, fmt.Errorf("failed to scan availability response: %w", err)
		}

		i, seen := index[r.ID]
		if !seen {
			r.Dates = []db.AvailabilityDateEntry{}
			responses = append(responses, r)
			i = len(responses) - 1
			index[r.ID] = i
		}
		if date != nil && available != nil {
			responses[i].Dates = append(responses[i].Dates, db.AvailabilityDateEntry{
				Date:      date.Format(dateLayout),
				Available: *available,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability responses: %w", err)
	}

	return responses, nil
}

// GetResponse retrieves one member's response for a period, or nil when none exists
func (d *DB) GetResponse(ctx context.Context, periodID, memberID string) (*db.AvailabilityResponse, error) {
	var r db.AvailabilityResponse
	err := d.pool.QueryRow(ctx, `
		SELECT id, period_id, member_id, notes, submitted_at, updated_at
		FROM availability_response WHERE period_id = $1 AND member_id = $2
	`, periodID, memberID).Scan(&r.ID, &r.PeriodID, &r.MemberID, &r.Notes, &r.SubmittedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query availability response: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT date, available FROM availability_date WHERE response_id = $1 ORDER BY date
	`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability dates: %w", err)
	}
	defer rows.Close()

	r.Dates = []db.AvailabilityDateEntry{}
	for rows.Next() {
		var date time.Time
		var entry db.AvailabilityDateEntry
		if err := rows.Scan(&date, &entry.Available); err != nil {
			return nil, fmt.Errorf("failed to scan availability date: %w", err)
		}
		entry.Date = date.Format(dateLayout)
		r.Dates = append(r.Dates, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability dates: %w", err)
	}

	return &r, nil
}

// UpsertResponse stores a member's response and replaces its date entries in one transaction
func (d *DB) UpsertResponse(ctx context.Context, response *db.AvailabilityResponse) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var responseID string
	err = tx.QueryRow(ctx, `
		INSERT INTO availability_response (id, period_id, member_id, notes, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (period_id, member_id)
		DO UPDATE SET notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
		RETURNING id
	`, response.ID, response.PeriodID, response.MemberID, response.Notes, response.UpdatedAt).Scan(&responseID)
	if err != nil {
		return fmt.Errorf("failed to upsert availability response: %w", err)
	}
	response.ID = responseID

	if _, err := tx.Exec(ctx, `DELETE FROM availability_date WHERE response_id = $1`, responseID); err != nil {
		return fmt.Errorf("failed to clear availability dates: %w", err)
	}

	for _, entry := range response.Dates {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_date (response_id, date, available) VALUES ($1, $2, $3)
		`, responseID, entry.Date, entry.Available)
		if err != nil {
			return fmt.Errorf("failed to insert availability date: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

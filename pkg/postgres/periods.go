package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const periodSelect = `
	SELECT p.id, p.label, p.starts_on, p.ends_on, p.deadline, p.closed_at, p.created_by, p.created_at,
		(SELECT count(*) FROM availability_response r WHERE r.period_id = p.id)
	FROM availability_period p
`

func scanPeriod(row pgx.Row) (*db.Period, error) {
	var p db.Period
	var startsOn, endsOn time.Time
	var deadline *time.Time
	if err := row.Scan(&p.ID, &p.Label, &startsOn, &endsOn, &deadline, &p.ClosedAt, &p.CreatedBy, &p.CreatedAt, &p.ResponseCount); err != nil {
		return nil, err
	}
	p.StartsOn = startsOn.Format(dateLayout)
	p.EndsOn = endsOn.Format(dateLayout)
	if deadline != nil {
		s := deadline.Format(dateLayout)
		p.Deadline = &s
	}
	return &p, nil
}

// ListPeriods retrieves all periods, newest start first
func (d *DB) ListPeriods(ctx context.Context) ([]db.Period, error) {
	rows, err := d.pool.Query(ctx, periodSelect+` ORDER BY p.starts_on DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := []db.Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating periods: %w", err)
	}
	return periods, nil
}

// GetPeriod retrieves one period, returning nil when it does not exist
func (d *DB) GetPeriod(ctx context.Context, id string) (*db.Period, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := scanPeriod(d.pool.QueryRow(ctx, periodSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query period: %w", err)
	}
	return p, nil
}

// InsertPeriod inserts a new period record
func (d *DB) InsertPeriod(ctx context.Context, period *db.Period) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO availability_period (id, label, starts_on, ends_on, deadline, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, period.ID, period.Label, period.StartsOn, period.EndsOn, period.Deadline, period.CreatedBy, period.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

// UpdatePeriod rewrites the editable columns of a period
func (d *DB) UpdatePeriod(ctx context.Context, period *db.Period) error {
	_, err := d.pool.Exec(ctx, `
		UPDATE availability_period SET label = $2, starts_on = $3, ends_on = $4, deadline = $5
		WHERE id = $1
	`, period.ID, period.Label, period.StartsOn, period.EndsOn, period.Deadline)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}
	return nil
}

// ClosePeriod sets closed_at for a period
func (d *DB) ClosePeriod(ctx context.Context, id string, closedAt time.Time) error {
	_, err := d.pool.Exec(ctx, `UPDATE availability_period SET closed_at = $2 WHERE id = $1`, id, closedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to close period: %w", err)
	}
	return nil
}

// DeletePeriod removes a period
func (d *DB) DeletePeriod(ctx context.Context, id string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM availability_period WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return nil
}

// CountResponses counts the responses collected for a period
func (d *DB) CountResponses(ctx context.Context, periodID string) (int, error) {
	var n int
	err := d.pool.QueryRow(ctx, `SELECT count(*) FROM availability_response WHERE period_id = $1`, periodID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

// ListAssignments retrieves the roster assignments for a service date
func (d *DB) ListAssignments(ctx context.Context, sundayDate string) ([]db.RosterAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, sunday_date, role, member_id FROM roster_assignment
		WHERE sunday_date = $1 ORDER BY role, member_id
	`, sundayDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster assignments: %w", err)
	}
	defer rows.Close()

	assignments := []db.RosterAssignment{}
	for rows.Next() {
		var a db.RosterAssignment
		var sunday time.Time
		if err := rows.Scan(&a.ID, &sunday, &a.Role, &a.MemberID); err != nil {
			return nil, fmt.Errorf("failed to scan roster assignment: %w", err)
		}
		a.SundayDate = sunday.Format(dateLayout)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceAssignments swaps the assignments of a date for the given set in one transaction
func (d *DB) ReplaceAssignments(ctx context.Context, sundayDate string, assignments []db.RosterAssignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM roster_assignment WHERE sunday_date = $1`, sundayDate); err != nil {
		return fmt.Errorf("failed to clear roster assignments: %w", err)
	}

	for _, a := range assignments {
		_, err := tx.Exec(ctx, `
			INSERT INTO roster_assignment (id, sunday_date, role, member_id) VALUES ($1, $2, $3, $4)
		`, a.ID, sundayDate, a.Role, a.MemberID)
		if err != nil {
			return fmt.Errorf("failed to insert roster assignment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

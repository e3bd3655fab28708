package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JiggerF/worship-ministry-app-sub000/pkg/db"
)

const memberColumns = `id, name, email, role, availability_token, active`

func scanMember(row pgx.Row) (*db.Member, error) {
	var m db.Member
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.AvailabilityToken, &m.Active); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMemberByEmail looks a member up by email, returning nil when none matches
func (d *DB) GetMemberByEmail(ctx context.Context, email string) (*db.Member, error) {
	m, err := scanMember(d.pool.QueryRow(ctx, `
		SELECT `+memberColumns+` FROM member WHERE lower(email) = lower($1)
	`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member by email: %w", err)
	}
	return m, nil
}

// GetMemberByToken looks a member up by their personal availability token
func (d *DB) GetMemberByToken(ctx context.Context, token string) (*db.Member, error) {
	m, err := scanMember(d.pool.QueryRow(ctx, `
		SELECT `+memberColumns+` FROM member WHERE availability_token = $1
	`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member by token: %w", err)
	}
	return m, nil
}

// ListMembers returns every member ordered by name
func (d *DB) ListMembers(ctx context.Context) ([]db.Member, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+memberColumns+` FROM member ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []db.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/association-planning/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository using SQLite.
type MemberRepository struct {
	pool *ConnectionPool
}

// NewMemberRepository creates a member repository.
func NewMemberRepository(pool *ConnectionPool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// CreateMember inserts a member. The (first name, last name) pair is unique.
func (r *MemberRepository) CreateMember(ctx context.Context, member persistence.Member) error {
	if member.ID == "" || member.FirstName == "" {
		return persistence.ErrConstraintViolation
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO members (id, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?)`,
		member.ID, member.FirstName, member.LastName, formatTimestamp(member.CreatedAt),
	)
	return mapError(err)
}

// GetMember returns the member with id.
func (r *MemberRepository) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	if id == "" {
		return persistence.Member{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `
		SELECT id, first_name, last_name, created_at
		FROM members
		WHERE id = ?`, id)

	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Member{}, persistence.ErrNotFound
		}
		return persistence.Member{}, mapError(err)
	}
	return member, nil
}

// ListMembers returns every member ordered by first then last name.
func (r *MemberRepository) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, first_name, last_name, created_at
		FROM members
		ORDER BY first_name COLLATE NOCASE, last_name COLLATE NOCASE, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	members := make([]persistence.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// DeleteMember removes a member; absences and assignments cascade.
func (r *MemberRepository) DeleteMember(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

func scanMember(s scanner) (persistence.Member, error) {
	var (
		member  persistence.Member
		created string
	)
	if err := s.Scan(&member.ID, &member.FirstName, &member.LastName, &created); err != nil {
		return persistence.Member{}, err
	}
	member.CreatedAt = parseTimestamp(created)
	return member, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/association-planning/internal/persistence"
)

const absenceColumns = `id, member_id, start_date, start_slot, end_date, end_slot, created_at`

// AbsenceRepository implements persistence.AbsenceRepository using SQLite.
type AbsenceRepository struct {
	pool *ConnectionPool
}

// NewAbsenceRepository creates an absence repository.
func NewAbsenceRepository(pool *ConnectionPool) *AbsenceRepository {
	return &AbsenceRepository{pool: pool}
}

// CreateAbsence inserts a single absence row.
func (r *AbsenceRepository) CreateAbsence(ctx context.Context, absence persistence.Absence) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertAbsence(ctx, tx, absence)
	})
}

// GetAbsence returns the absence with id.
func (r *AbsenceRepository) GetAbsence(ctx context.Context, id string) (persistence.Absence, error) {
	if id == "" {
		return persistence.Absence{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+absenceColumns+` FROM absences WHERE id = ?`, id)
	absence, err := scanAbsence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Absence{}, persistence.ErrNotFound
		}
		return persistence.Absence{}, mapError(err)
	}
	return absence, nil
}

// ListAbsences returns absences matching filter ordered by member and start.
func (r *AbsenceRepository) ListAbsences(ctx context.Context, filter persistence.AbsenceFilter) ([]persistence.Absence, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.MemberID != "" {
		clauses = append(clauses, "member_id = ?")
		args = append(args, filter.MemberID)
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "start_date <= ?")
		args = append(args, filter.To.String())
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "end_date >= ?")
		args = append(args, filter.From.String())
	}

	query := `SELECT ` + absenceColumns + ` FROM absences`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY member_id, start_date, CASE start_slot WHEN 'opening' THEN 1 ELSE 2 END, id`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	absences := make([]persistence.Absence, 0)
	for rows.Next() {
		absence, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		absences = append(absences, absence)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return absences, nil
}

// ListAbsentMemberIDs returns the ids of members holding at least one absence.
func (r *AbsenceRepository) ListAbsentMemberIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT DISTINCT member_id FROM absences ORDER BY member_id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

// DeleteAbsence removes the absence with id.
func (r *AbsenceRepository) DeleteAbsence(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM absences WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ReplaceAbsences deletes removeIDs and inserts replacement in one
// transaction. A missing id aborts the whole replacement with ErrNotFound.
func (r *AbsenceRepository) ReplaceAbsences(ctx context.Context, removeIDs []string, replacement persistence.Absence) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if len(removeIDs) > 0 {
			args := make([]any, 0, len(removeIDs))
			for _, id := range removeIDs {
				args = append(args, id)
			}
			result, err := tx.ExecContext(ctx,
				`DELETE FROM absences WHERE id IN (`+placeholders(len(removeIDs))+`)`, args...)
			if err != nil {
				return mapError(err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if int(affected) != len(removeIDs) {
				return fmt.Errorf("%w: %d of %d absences to replace are gone", persistence.ErrNotFound, len(removeIDs)-int(affected), len(removeIDs))
			}
		}
		return insertAbsence(ctx, tx, replacement)
	})
}

func insertAbsence(ctx context.Context, tx *sql.Tx, absence persistence.Absence) error {
	if absence.ID == "" || absence.MemberID == "" {
		return persistence.ErrConstraintViolation
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO absences (`+absenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		absence.ID,
		absence.MemberID,
		absence.StartDate.String(),
		absence.StartSlot.String(),
		absence.EndDate.String(),
		absence.EndSlot.String(),
		formatTimestamp(absence.CreatedAt),
	)
	return mapError(err)
}

func scanAbsence(s scanner) (persistence.Absence, error) {
	var (
		absence                                persistence.Absence
		startDate, startSlot, endDate, endSlot string
		created                                string
	)
	if err := s.Scan(&absence.ID, &absence.MemberID, &startDate, &startSlot, &endDate, &endSlot, &created); err != nil {
		return persistence.Absence{}, err
	}

	var err error
	if absence.StartDate, err = parseDateColumn("start_date", startDate); err != nil {
		return persistence.Absence{}, err
	}
	if absence.StartSlot, err = parseSlotColumn("start_slot", startSlot); err != nil {
		return persistence.Absence{}, err
	}
	if absence.EndDate, err = parseDateColumn("end_date", endDate); err != nil {
		return persistence.Absence{}, err
	}
	if absence.EndSlot, err = parseSlotColumn("end_slot", endSlot); err != nil {
		return persistence.Absence{}, err
	}
	absence.CreatedAt = parseTimestamp(created)
	return absence, nil
}

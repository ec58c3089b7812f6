package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/association-planning/internal/calendar"
	"github.com/example/association-planning/internal/persistence"
)

// RecurringAssignmentRepository implements persistence.RecurringAssignmentRepository using SQLite.
type RecurringAssignmentRepository struct {
	pool *ConnectionPool
}

// NewRecurringAssignmentRepository creates a recurring assignment repository.
func NewRecurringAssignmentRepository(pool *ConnectionPool) *RecurringAssignmentRepository {
	return &RecurringAssignmentRepository{pool: pool}
}

// CreateRecurringAssignment inserts a weekly roster row.
func (r *RecurringAssignmentRepository) CreateRecurringAssignment(ctx context.Context, assignment persistence.RecurringAssignment) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertRecurring(ctx, tx, assignment)
	})
}

// ListRecurringAssignments returns the weekly roster ordered by weekday and slot.
func (r *RecurringAssignmentRepository) ListRecurringAssignments(ctx context.Context) ([]persistence.RecurringAssignment, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, weekday, slot, member_id, created_at
		FROM recurring_assignments
		ORDER BY weekday, CASE slot WHEN 'opening' THEN 1 ELSE 2 END, created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	assignments := make([]persistence.RecurringAssignment, 0)
	for rows.Next() {
		var (
			a             persistence.RecurringAssignment
			slot, created string
		)
		if err := rows.Scan(&a.ID, &a.Weekday, &slot, &a.MemberID, &created); err != nil {
			return nil, fmt.Errorf("failed to scan recurring assignment: %w", err)
		}
		if a.Slot, err = parseSlotColumn("slot", slot); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(created)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return assignments, nil
}

// DeleteRecurringAssignment removes a weekly roster row.
func (r *RecurringAssignmentRepository) DeleteRecurringAssignment(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM recurring_assignments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ReplaceRecurringRoster swaps every row of (weekday, slot) for assignments.
func (r *RecurringAssignmentRepository) ReplaceRecurringRoster(ctx context.Context, weekday int, slot calendar.Slot, assignments []persistence.RecurringAssignment) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recurring_assignments WHERE weekday = ? AND slot = ?`,
			weekday, slot.String()); err != nil {
			return mapError(err)
		}
		for _, a := range assignments {
			if a.Weekday != weekday || a.Slot != slot {
				return fmt.Errorf("%w: assignment %s does not belong to weekday %d %s", persistence.ErrConstraintViolation, a.ID, weekday, slot)
			}
			if err := insertRecurring(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRecurring(ctx context.Context, tx *sql.Tx, a persistence.RecurringAssignment) error {
	if a.ID == "" || a.MemberID == "" {
		return persistence.ErrConstraintViolation
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO recurring_assignments (id, weekday, slot, member_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Weekday, a.Slot.String(), a.MemberID, formatTimestamp(a.CreatedAt),
	)
	return mapError(err)
}

// SpecificAssignmentRepository implements persistence.SpecificAssignmentRepository using SQLite.
type SpecificAssignmentRepository struct {
	pool *ConnectionPool
}

// NewSpecificAssignmentRepository creates a specific assignment repository.
func NewSpecificAssignmentRepository(pool *ConnectionPool) *SpecificAssignmentRepository {
	return &SpecificAssignmentRepository{pool: pool}
}

// CreateSpecificAssignment inserts a dated roster row.
func (r *SpecificAssignmentRepository) CreateSpecificAssignment(ctx context.Context, assignment persistence.SpecificAssignment) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertSpecific(ctx, tx, assignment)
	})
}

// ListSpecificAssignments returns dated roster rows matching filter.
func (r *SpecificAssignmentRepository) ListSpecificAssignments(ctx context.Context, filter persistence.SpecificAssignmentFilter) ([]persistence.SpecificAssignment, error) {
	var (
		clauses []string
		args    []any
	)
	if !filter.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, filter.Source)
	}

	query := `SELECT id, date, slot, member_id, source, created_at FROM specific_assignments`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY date, CASE slot WHEN 'opening' THEN 1 ELSE 2 END, created_at, id`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	assignments := make([]persistence.SpecificAssignment, 0)
	for rows.Next() {
		var (
			a                   persistence.SpecificAssignment
			date, slot, created string
		)
		if err := rows.Scan(&a.ID, &date, &slot, &a.MemberID, &a.Source, &created); err != nil {
			return nil, fmt.Errorf("failed to scan specific assignment: %w", err)
		}
		if a.Date, err = parseDateColumn("date", date); err != nil {
			return nil, err
		}
		if a.Slot, err = parseSlotColumn("slot", slot); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(created)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return assignments, nil
}

// DeleteSpecificAssignment removes a dated roster row.
func (r *SpecificAssignmentRepository) DeleteSpecificAssignment(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM specific_assignments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// ReplaceGeneratedAssignments deletes the generated rows dated within
// [from, to] and inserts assignments. Manual rows are kept; a generated row
// whose (date, slot, member) is already held is skipped inside the same
// transaction.
func (r *SpecificAssignmentRepository) ReplaceGeneratedAssignments(ctx context.Context, from, to calendar.Date, assignments []persistence.SpecificAssignment) (int, error) {
	inserted := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		inserted = 0
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM specific_assignments
			WHERE source = ? AND date >= ? AND date <= ?`,
			persistence.SourceGenerated, from.String(), to.String()); err != nil {
			return mapError(err)
		}
		for _, a := range assignments {
			if a.Date.Before(from) || a.Date.After(to) {
				return fmt.Errorf("%w: assignment %s dated %s is outside %s..%s", persistence.ErrConstraintViolation, a.ID, a.Date, from, to)
			}
			ok, err := insertGenerated(ctx, tx, a)
			if err != nil {
				return err
			}
			if ok {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertGenerated(ctx context.Context, tx *sql.Tx, a persistence.SpecificAssignment) (bool, error) {
	if a.ID == "" || a.MemberID == "" {
		return false, persistence.ErrConstraintViolation
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO specific_assignments (id, date, slot, member_id, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, slot, member_id) DO NOTHING`,
		a.ID, a.Date.String(), a.Slot.String(), a.MemberID, persistence.SourceGenerated, formatTimestamp(a.CreatedAt),
	)
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err)
	}
	return n == 1, nil
}

func insertSpecific(ctx context.Context, tx *sql.Tx, a persistence.SpecificAssignment) error {
	if a.ID == "" || a.MemberID == "" {
		return persistence.ErrConstraintViolation
	}
	if a.Source == "" {
		a.Source = persistence.SourceManual
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO specific_assignments (id, date, slot, member_id, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Date.String(), a.Slot.String(), a.MemberID, a.Source, formatTimestamp(a.CreatedAt),
	)
	return mapError(err)
}

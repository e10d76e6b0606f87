package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sarc/internal/models"
)

const reservationColumns = "id, resource_id, class_id, quantity, starts_at, created_at"

// Save inserts an admitted reservation inside its own transaction; the row
// is either fully committed or not written at all.
func (db *DB) Save(ctx context.Context, r *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.ResourceID.String(), r.ClassID.String(), r.Quantity,
		r.StartsAt.UTC().Format(timeLayout), r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

// ListForSlot returns the reservations committed for one resource at one
// slot timestamp, oldest first.
func (db *DB) ListForSlot(ctx context.Context, resourceID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE resource_id = ? AND starts_at = ?
		ORDER BY created_at`,
		resourceID.String(), startsAt.UTC().Format(timeLayout))
}

// ListByClass returns every reservation held by a class, oldest first.
func (db *DB) ListByClass(ctx context.Context, classID uuid.UUID) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE class_id = ?
		ORDER BY created_at`,
		classID.String())
}

// ListByClassAtSlot returns a class's reservations for one slot timestamp.
func (db *DB) ListByClassAtSlot(ctx context.Context, classID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE class_id = ? AND starts_at = ?
		ORDER BY created_at`,
		classID.String(), startsAt.UTC().Format(timeLayout))
}

// ListByResource returns a resource's full reservation history, oldest
// first. Used by the audit export.
func (db *DB) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]models.Reservation, error) {
	return db.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE resource_id = ?
		ORDER BY starts_at, created_at`,
		resourceID.String())
}

// DeleteReservation removes a reservation; its quantity immediately stops
// counting against the slot's capacity.
func (db *DB) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reservation %s not found", id)
	}
	return nil
}

func (db *DB) listReservations(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		var (
			r          models.Reservation
			rawID      string
			resourceID string
			classID    string
			startsAt   string
			createdAt  string
		)
		if err := rows.Scan(&rawID, &resourceID, &classID, &r.Quantity, &startsAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		if r.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("reservation id: %w", err)
		}
		if r.ResourceID, err = uuid.Parse(resourceID); err != nil {
			return nil, fmt.Errorf("reservation %s resource id: %w", rawID, err)
		}
		if r.ClassID, err = uuid.Parse(classID); err != nil {
			return nil, fmt.Errorf("reservation %s class id: %w", rawID, err)
		}
		if r.StartsAt, err = time.Parse(timeLayout, startsAt); err != nil {
			return nil, fmt.Errorf("reservation %s starts_at: %w", rawID, err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("reservation %s created_at: %w", rawID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sarc/internal/booking"
	"sarc/internal/models"
)

// CreateResource inserts a resource record.
func (db *DB) CreateResource(ctx context.Context, r *models.Resource) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO resources (id, name, type, quantity, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Name, r.Type, r.EffectiveQuantity(), r.Active,
		r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// GetResource loads a resource by id. Unknown ids yield
// booking.ErrResourceNotFound.
func (db *DB) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	var (
		r         models.Resource
		rawID     string
		rtype     sql.NullString
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, name, type, quantity, is_active, created_at
		FROM resources WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &r.Name, &rtype, &r.Quantity, &r.Active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select resource: %w", err)
	}

	if r.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("resource id: %w", err)
	}
	r.Type = rtype.String
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("resource %s created_at: %w", rawID, err)
	}
	return &r, nil
}

// ListActiveResources returns every resource still open for booking.
func (db *DB) ListActiveResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, type, quantity, is_active, created_at
		FROM resources WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select resources: %w", err)
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		var (
			r         models.Resource
			rawID     string
			rtype     sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rawID, &r.Name, &rtype, &r.Quantity, &r.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		if r.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("resource id: %w", err)
		}
		r.Type = rtype.String
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("resource %s created_at: %w", rawID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

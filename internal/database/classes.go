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

const timeLayout = time.RFC3339

// CreateClass inserts a class record.
func (db *DB) CreateClass(ctx context.Context, c *models.Class) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO classes (id, name, year, term, period, room, weekdays, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Year, string(c.Term), string(c.Period),
		c.Room, models.FormatWeekdays(c.Weekdays), c.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

// GetClass loads a class by id. Unknown ids yield booking.ErrClassNotFound.
func (db *DB) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	var (
		c         models.Class
		rawID     string
		term      string
		period    string
		room      sql.NullString
		weekdays  string
		createdAt string
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, name, year, term, period, room, weekdays, created_at
		FROM classes WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &c.Name, &c.Year, &term, &period, &room, &weekdays, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select class: %w", err)
	}

	if c.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("class id: %w", err)
	}
	if c.Term, err = models.ParseTerm(term); err != nil {
		return nil, fmt.Errorf("class %s: %w", rawID, err)
	}
	if c.Period, err = models.ParsePeriod(period); err != nil {
		return nil, fmt.Errorf("class %s: %w", rawID, err)
	}
	if c.Weekdays, err = models.ParseWeekdays(weekdays); err != nil {
		return nil, fmt.Errorf("class %s: %w", rawID, err)
	}
	c.Room = room.String
	if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("class %s created_at: %w", rawID, err)
	}
	return &c, nil
}

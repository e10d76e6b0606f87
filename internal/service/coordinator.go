// Package service orchestrates booking requests end to end: slot validation,
// capacity admission and persistence of admitted reservations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sarc/internal/booking"
	"sarc/internal/metrics"
	"sarc/internal/models"
	"sarc/internal/slots"
)

// ClassRepository looks up class records from the class catalog.
type ClassRepository interface {
	// GetClass returns booking.ErrClassNotFound when the id is unknown.
	GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error)
}

// ResourceRepository looks up bookable resources.
type ResourceRepository interface {
	// GetResource returns booking.ErrResourceNotFound when the id is unknown.
	GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error)
}

// ReservationStore persists and queries committed reservations.
type ReservationStore interface {
	ListForSlot(ctx context.Context, resourceID uuid.UUID, startsAt time.Time) ([]models.Reservation, error)
	Save(ctx context.Context, r *models.Reservation) error
	ListByClass(ctx context.Context, classID uuid.UUID) ([]models.Reservation, error)
	ListByClassAtSlot(ctx context.Context, classID uuid.UUID, startsAt time.Time) ([]models.Reservation, error)
}

// Coordinator processes booking requests and answers reservation queries.
type Coordinator struct {
	classes   ClassRepository
	resources ResourceRepository
	store     ReservationStore
	locks     *slotLocks
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewCoordinator wires a coordinator over the given repositories.
func NewCoordinator(classes ClassRepository, resources ResourceRepository, store ReservationStore, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		classes:   classes,
		resources: resources,
		store:     store,
		locks:     newSlotLocks(),
		logger:    logger,
		now:       time.Now,
	}
}

// Book runs the full admission decision for one request and persists the
// reservation when it is admitted. Refusals come back as booking errors;
// repository failures propagate unchanged and are never reported as
// refusals, so callers can tell a rejected request from a broken backend.
func (c *Coordinator) Book(ctx context.Context, classID, resourceID uuid.UUID, quantity int, date time.Time, period models.Period) (*models.Reservation, error) {
	class, err := c.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, c.refused(err, classID, resourceID)
	}

	if err := booking.ValidateSlot(class, date, period); err != nil {
		return nil, c.refused(err, classID, resourceID)
	}

	startsAt := slots.Timestamp(date, period)

	resource, err := c.resources.GetResource(ctx, resourceID)
	if err != nil {
		return nil, c.refused(err, classID, resourceID)
	}

	// Check-then-act over shared state: everything from reading the
	// existing reservations to inserting the new one must be serialized
	// per (resource, slot) or two concurrent requests can both admit.
	unlock := c.locks.lock(resourceID, startsAt)
	defer unlock()

	existing, err := c.store.ListForSlot(ctx, resourceID, startsAt)
	if err != nil {
		return nil, fmt.Errorf("list reservations for slot: %w", err)
	}

	if err := booking.AdmitResource(resource, existing, quantity); err != nil {
		return nil, c.refused(err, classID, resourceID)
	}

	reservation := &models.Reservation{
		ID:         uuid.New(),
		ResourceID: resourceID,
		ClassID:    classID,
		Quantity:   quantity,
		StartsAt:   startsAt,
		CreatedAt:  c.now().UTC(),
	}
	if err := c.store.Save(ctx, reservation); err != nil {
		return nil, fmt.Errorf("save reservation: %w", err)
	}

	metrics.IncAdmitted()
	c.logger.Info().
		Stringer("reservation_id", reservation.ID).
		Stringer("resource_id", resourceID).
		Stringer("class_id", classID).
		Time("starts_at", startsAt).
		Int("quantity", quantity).
		Msg("reservation admitted")
	return reservation, nil
}

// ReservationsForClass returns every reservation held by a class, in
// storage order.
func (c *Coordinator) ReservationsForClass(ctx context.Context, classID uuid.UUID) ([]models.Reservation, error) {
	return c.store.ListByClass(ctx, classID)
}

// ReservationsForClassAtSlot returns a class's reservations for one
// specific occurrence, identified by its date and period.
func (c *Coordinator) ReservationsForClassAtSlot(ctx context.Context, classID uuid.UUID, date time.Time, period models.Period) ([]models.Reservation, error) {
	return c.store.ListByClassAtSlot(ctx, classID, slots.Timestamp(date, period))
}

// refused records a refusal and hands the error back unchanged. Errors
// outside the booking taxonomy are repository failures and skip the
// rejection counter.
func (c *Coordinator) refused(err error, classID, resourceID uuid.UUID) error {
	reason := booking.Reason(err)
	if reason == "" {
		return err
	}
	metrics.IncRejected(reason)
	c.logger.Warn().
		Stringer("class_id", classID).
		Stringer("resource_id", resourceID).
		Str("reason", reason).
		Msg("booking refused")
	return err
}

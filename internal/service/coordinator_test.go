package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sarc/internal/booking"
	"sarc/internal/models"
	"sarc/internal/slots"
)

type mockClassRepo struct {
	mock.Mock
}

func (m *mockClassRepo) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Class), args.Error(1)
}

type mockResourceRepo struct {
	mock.Mock
}

func (m *mockResourceRepo) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListForSlot(ctx context.Context, resourceID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	args := m.Called(ctx, resourceID, startsAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) ListByClass(ctx context.Context, classID uuid.UUID) ([]models.Reservation, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) ListByClassAtSlot(ctx context.Context, classID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	args := m.Called(ctx, classID, startsAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

type fixture struct {
	classes     *mockClassRepo
	resources   *mockResourceRepo
	store       *mockStore
	coordinator *Coordinator
	class       *models.Class
	resource    *models.Resource
}

func newFixture() *fixture {
	classes := new(mockClassRepo)
	resources := new(mockResourceRepo)
	store := new(mockStore)
	logger := zerolog.New(io.Discard)

	return &fixture{
		classes:     classes,
		resources:   resources,
		store:       store,
		coordinator: NewCoordinator(classes, resources, store, &logger),
		class: &models.Class{
			ID:       uuid.New(),
			Name:     "Compilers",
			Year:     2025,
			Term:     models.TermFirst,
			Period:   models.PeriodA,
			Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		},
		resource: &models.Resource{
			ID:       uuid.New(),
			Name:     "Projector",
			Quantity: 1,
			Active:   true,
		},
	}
}

// 2025-01-01 is a Wednesday, a meeting day for the fixture class.
var wednesday = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestBookAdmits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	startsAt := slots.Timestamp(wednesday, models.PeriodA)

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil).Once()
	f.store.On("ListForSlot", ctx, f.resource.ID, startsAt).Return([]models.Reservation{}, nil).Once()
	f.store.On("Save", ctx, mock.AnythingOfType("*models.Reservation")).Return(nil).Once()

	reservation, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, reservation.ID)
	assert.Equal(t, f.resource.ID, reservation.ResourceID)
	assert.Equal(t, f.class.ID, reservation.ClassID)
	assert.Equal(t, 1, reservation.Quantity)
	assert.Equal(t, startsAt, reservation.StartsAt)
	assert.False(t, reservation.CreatedAt.IsZero())
	assert.NotEqual(t, reservation.StartsAt, reservation.CreatedAt)

	f.store.AssertExpectations(t)
}

func TestBookRefusesWhenSlotFull(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	startsAt := slots.Timestamp(wednesday, models.PeriodA)
	existing := []models.Reservation{{ID: uuid.New(), ResourceID: f.resource.ID, Quantity: 1, StartsAt: startsAt}}

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil).Once()
	f.store.On("ListForSlot", ctx, f.resource.ID, startsAt).Return(existing, nil).Once()

	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)

	var capErr *booking.InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Requested)
	assert.Equal(t, 0, capErr.Remaining)
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBookClassNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.classes.On("GetClass", ctx, f.class.ID).Return(nil, booking.ErrClassNotFound).Once()

	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)
	assert.ErrorIs(t, err, booking.ErrClassNotFound)
	f.resources.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything)
}

func TestBookResourceNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()
	f.resources.On("GetResource", ctx, f.resource.ID).Return(nil, booking.ErrResourceNotFound).Once()

	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)
	assert.ErrorIs(t, err, booking.ErrResourceNotFound)
}

func TestBookValidationStopsBeforeResourceLoad(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()

	// Period B is not the class's period; nothing downstream may run.
	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodB)

	var pmErr *booking.PeriodMismatchError
	assert.ErrorAs(t, err, &pmErr)
	f.resources.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "ListForSlot", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookInactiveResource(t *testing.T) {
	f := newFixture()
	f.resource.Active = false
	ctx := context.Background()
	startsAt := slots.Timestamp(wednesday, models.PeriodA)

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil).Once()
	f.store.On("ListForSlot", ctx, f.resource.ID, startsAt).Return([]models.Reservation{}, nil).Once()

	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)
	assert.ErrorIs(t, err, booking.ErrResourceInactive)
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBookStoreFailurePropagates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	startsAt := slots.Timestamp(wednesday, models.PeriodA)
	storeErr := errors.New("connection refused")

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil).Once()
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil).Once()
	f.store.On("ListForSlot", ctx, f.resource.ID, startsAt).Return(nil, storeErr).Once()

	_, err := f.coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)

	// An unreachable store is an infrastructure failure, never a refusal.
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, booking.Reason(err))
	f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestReservationsForClass(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	expected := []models.Reservation{{ID: uuid.New(), ClassID: f.class.ID, Quantity: 1}}

	f.store.On("ListByClass", ctx, f.class.ID).Return(expected, nil).Once()

	got, err := f.coordinator.ReservationsForClass(ctx, f.class.ID)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestReservationsForClassAtSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	startsAt := slots.Timestamp(wednesday, models.PeriodA)
	expected := []models.Reservation{{ID: uuid.New(), ClassID: f.class.ID, StartsAt: startsAt}}

	f.store.On("ListByClassAtSlot", ctx, f.class.ID, startsAt).Return(expected, nil).Once()

	got, err := f.coordinator.ReservationsForClassAtSlot(ctx, f.class.ID, wednesday, models.PeriodA)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

// memStore is an in-memory ReservationStore used for the concurrency test;
// mocks cannot model state shared across racing calls.
type memStore struct {
	mu           sync.Mutex
	reservations []models.Reservation
}

func (s *memStore) ListForSlot(_ context.Context, resourceID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.ResourceID == resourceID && r.StartsAt.Equal(startsAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = append(s.reservations, *r)
	return nil
}

func (s *memStore) ListByClass(_ context.Context, classID uuid.UUID) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ListByClassAtSlot(_ context.Context, classID uuid.UUID, startsAt time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.ClassID == classID && r.StartsAt.Equal(startsAt) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestBookNoOverbookingUnderConcurrency(t *testing.T) {
	const (
		quantity = 3
		requests = 20
	)

	f := newFixture()
	f.resource.Quantity = quantity
	store := &memStore{}
	logger := zerolog.New(io.Discard)
	coordinator := NewCoordinator(f.classes, f.resources, store, &logger)
	ctx := context.Background()

	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil)
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil)

	var wg sync.WaitGroup
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coordinator.Book(ctx, f.class.ID, f.resource.ID, 1, wednesday, models.PeriodA)
		}(i)
	}
	wg.Wait()

	admitted, refused := 0, 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		var capErr *booking.InsufficientCapacityError
		require.ErrorAs(t, err, &capErr)
		refused++
	}

	assert.Equal(t, quantity, admitted, "exactly the resource quantity must be admitted")
	assert.Equal(t, requests-quantity, refused)

	// Cross-check against the store itself.
	startsAt := slots.Timestamp(wednesday, models.PeriodA)
	committed, err := store.ListForSlot(ctx, f.resource.ID, startsAt)
	require.NoError(t, err)
	total := 0
	for _, r := range committed {
		total += r.Quantity
	}
	assert.Equal(t, quantity, total)
}

func TestBookDistinctSlotsDoNotBlock(t *testing.T) {
	f := newFixture()
	store := &memStore{}
	logger := zerolog.New(io.Discard)
	coordinator := NewCoordinator(f.classes, f.resources, store, &logger)
	ctx := context.Background()

	otherResource := &models.Resource{ID: uuid.New(), Name: "Whiteboard", Quantity: 1, Active: true}
	f.classes.On("GetClass", ctx, f.class.ID).Return(f.class, nil)
	f.resources.On("GetResource", ctx, f.resource.ID).Return(f.resource, nil)
	f.resources.On("GetResource", ctx, otherResource.ID).Return(otherResource, nil)

	// Same slot, two different resources: both single-unit requests admit.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	ids := []uuid.UUID{f.resource.ID, otherResource.ID}
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = coordinator.Book(ctx, f.class.ID, id, 1, wednesday, models.PeriodA)
		}(i, id)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"facility-booking-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrOverlap is returned when the database rejects an overlapping booking.
	ErrOverlap = errors.New("overlapping booking rejected by database")
)

// AdmitFunc decides, inside the admission transaction, whether a booking may be
// stored given the facility's bookings that still hold a slot.
type AdmitFunc func(existing []model.Booking) error

// GuardFunc decides, inside the update transaction, whether the current status may change.
type GuardFunc func(from model.BookingStatus) error

// Store defines the interface for all database operations.
type Store interface {
	Ping(ctx context.Context) error

	ListFacilities(ctx context.Context) ([]model.Facility, error)
	GetFacility(ctx context.Context, id string) (*model.Facility, error)
	UpdateFacility(ctx context.Context, id string, patch FacilityPatch) (*model.Facility, error)
	GetUser(ctx context.Context, id string) (*model.User, error)

	CreateBooking(ctx context.Context, b *model.Booking, admit AdmitFunc) error
	ActiveFacilityBookings(ctx context.Context, facilityID string) ([]model.Booking, error)
	BookingSnapshot(ctx context.Context, userID string) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, to model.BookingStatus, guard GuardFunc) (*model.Booking, model.BookingStatus, error)
	ListEndedApproved(ctx context.Context, before time.Time, limit int) ([]model.Booking, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db            *gorm.DB
	facilityLocks *keyedMutex
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, facilityLocks: newKeyedMutex()}
}

// Ping checks that the database is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) isPostgres() bool {
	return s.db.Dialector.Name() == "postgres"
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

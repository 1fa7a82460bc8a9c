package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"facility-booking-backend/internal/model"
)

// exclusionViolation is the postgres SQLSTATE for a violated EXCLUDE constraint.
const exclusionViolation = "23P01"

var releasedStatuses = []string{string(model.StatusRejected), string(model.StatusCompleted)}

// CreateBooking stores b if admit accepts the facility's current bookings.
// The read and the insert form one admission decision per facility: callers in
// this process are serialized by a per-facility mutex, and on postgres other
// processes are serialized by a transaction-scoped advisory lock.
func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking, admit AdmitFunc) error {
	unlock := s.facilityLocks.Lock(b.FacilityID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.isPostgres() {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", b.FacilityID).Error; err != nil {
				return fmt.Errorf("failed to lock facility %s: %w", b.FacilityID, err)
			}
		}

		existing, err := s.activeBookings(tx, b.FacilityID)
		if err != nil {
			return err
		}
		if err := admit(existing); err != nil {
			return err
		}

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create booking for facility %s: %w", b.FacilityID, err)
		}
		return nil
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return ErrOverlap
	}
	return err
}

// ActiveFacilityBookings returns the bookings of a facility that still hold a slot.
func (s *gormStore) ActiveFacilityBookings(ctx context.Context, facilityID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("facility_id = ? AND status NOT IN ?", facilityID, releasedStatuses).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for facility %s: %w", facilityID, err)
	}
	return bookings, nil
}

func (s *gormStore) activeBookings(tx *gorm.DB, facilityID string) ([]model.Booking, error) {
	q := tx.Where("facility_id = ? AND status NOT IN ?", facilityID, releasedStatuses)
	if s.isPostgres() {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var bookings []model.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for facility %s: %w", facilityID, err)
	}
	return bookings, nil
}

// BookingSnapshot reads bookings in a single query. With an empty userID every
// booking is returned; otherwise the user's bookings plus every pending booking,
// which is what the queue projection needs.
func (s *gormStore) BookingSnapshot(ctx context.Context, userID string) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{})
	if userID != "" {
		q = q.Where("user_id = ? OR status = ?", userID, string(model.StatusPending))
	}

	var bookings []model.Booking
	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

// GetBooking returns the booking with the given id or ErrNotFound.
func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// UpdateBookingStatus moves a booking to status to if guard accepts its current
// status. The read and the write happen in one transaction. It returns the
// updated booking and the status it had before.
func (s *gormStore) UpdateBookingStatus(ctx context.Context, id string, to model.BookingStatus, guard GuardFunc) (*model.Booking, model.BookingStatus, error) {
	var (
		b    model.Booking
		from model.BookingStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if s.isPostgres() {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&b, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		from = b.Status
		if guard != nil {
			if err := guard(from); err != nil {
				return err
			}
		}

		if err := tx.Model(&b).Update("status", string(to)).Error; err != nil {
			return fmt.Errorf("failed to update status of booking %s: %w", id, err)
		}
		b.Status = to
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &b, from, nil
}

// ListEndedApproved returns approved bookings whose window closed at or before before.
func (s *gormStore) ListEndedApproved(ctx context.Context, before time.Time, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	q := s.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", string(model.StatusApproved), before.UTC()).
		Order("end_time")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list ended bookings: %w", err)
	}
	return bookings, nil
}

package events

import (
	"context"
	"time"

	"facility-booking-backend/internal/model"
)

// Routing keys published on the booking exchange.
const (
	KeyBookingCreated       = "booking.created"
	KeyBookingStatusChanged = "booking.status_changed"
)

// BookingEvent describes a change to one booking.
type BookingEvent struct {
	BookingID      string              `json:"booking_id"`
	FacilityID     string              `json:"facility_id"`
	UserID         string              `json:"user_id"`
	Status         model.BookingStatus `json:"status"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// NewBookingEvent builds the event for b at the given instant.
func NewBookingEvent(b model.Booking, previous model.BookingStatus, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:      b.ID,
		FacilityID:     b.FacilityID,
		UserID:         b.UserID,
		Status:         b.Status,
		PreviousStatus: previous,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		OccurredAt:     at.UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishJSON does nothing.
func (NopPublisher) PublishJSON(context.Context, string, any) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

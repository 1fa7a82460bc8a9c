package model

import "time"

// BookingStatus is the review state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusInReview  BookingStatus = "IN_REVIEW"
	StatusApproved  BookingStatus = "APPROVED"
	StatusRejected  BookingStatus = "REJECTED"
	StatusCompleted BookingStatus = "COMPLETED"
)

// Booking is a request to reserve a facility for a time window.
// StartTime and EndTime form the half-open interval [StartTime, EndTime).
type Booking struct {
	ID               string        `gorm:"primaryKey;size:36" json:"id"`
	FacilityID       string        `gorm:"index:idx_bookings_facility_status,priority:1;size:64;not null" json:"facilityId"`
	UserID           string        `gorm:"index;size:64;not null" json:"userId"`
	UserName         string        `gorm:"size:256;not null" json:"userName"`
	EventName        string        `gorm:"size:256;not null" json:"eventName"`
	EventDescription string        `gorm:"type:text" json:"eventDescription"`
	StartTime        time.Time     `gorm:"not null" json:"startTime"`
	EndTime          time.Time     `gorm:"not null" json:"endTime"`
	Status           BookingStatus `gorm:"index:idx_bookings_facility_status,priority:2;size:16;not null" json:"status"`
	Attendees        int           `gorm:"not null" json:"attendees"`
	DocumentURL      string        `gorm:"type:text" json:"documentUrl,omitempty"`
	CreatedAt        time.Time     `gorm:"index;not null" json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`

	// Derived on read, never stored.
	QueuePosition             int        `gorm:"-" json:"queuePosition,omitempty"`
	EstimatedConfirmationDate *time.Time `gorm:"-" json:"estimatedConfirmationDate,omitempty"`
}

package booking

import "errors"

// Validation failures. Messages are shown to the requester verbatim.
var (
	ErrInvalidAttendees = errors.New("invalid attendee count")
	ErrInvalidDateTime  = errors.New("invalid date/time format")
	ErrEndBeforeStart   = errors.New("end time must be after start time")
	ErrStartInPast      = errors.New("cannot book a time in the past")
)

// Admission and lifecycle failures.
var (
	ErrConflict            = errors.New("facility already booked for that time")
	ErrNotFound            = errors.New("booking not found")
	ErrInvalidStatus       = errors.New("invalid booking status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDocumentUpload      = errors.New("failed to upload document")
	ErrFacilityNotFound    = errors.New("facility not found")
	ErrFacilityUnavailable = errors.New("facility is not available")
	ErrOverCapacity        = errors.New("attendees exceed facility capacity")
)

// IsValidation reports whether err was produced by request validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAttendees) ||
		errors.Is(err, ErrInvalidDateTime) ||
		errors.Is(err, ErrEndBeforeStart) ||
		errors.Is(err, ErrStartInPast)
}

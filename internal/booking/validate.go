package booking

import (
	"time"

	"facility-booking-backend/internal/parse"
)

// Request is a raw booking request as submitted by a client.
type Request struct {
	FacilityID       string
	UserID           string
	EventName        string
	EventDescription string
	Date             string
	StartTime        string
	EndTime          string
	Attendees        string
}

// Payload is a validated booking request with typed fields.
type Payload struct {
	FacilityID       string
	UserID           string
	EventName        string
	EventDescription string
	Start            time.Time
	End              time.Time
	Attendees        int
}

// Validator turns raw requests into payloads. It reads the clock but holds no other state.
type Validator struct {
	loc *time.Location
	now func() time.Time
}

// NewValidator creates a validator that reads dates and times in loc.
func NewValidator(loc *time.Location, now func() time.Time) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Validator{loc: loc, now: now}
}

// Validate applies the request rules in order and stops at the first failure.
func (v *Validator) Validate(req Request) (Payload, error) {
	attendees, err := parse.Attendees(req.Attendees)
	if err != nil {
		return Payload{}, ErrInvalidAttendees
	}

	start, err := parse.DateTime(req.Date, req.StartTime, v.loc)
	if err != nil {
		return Payload{}, ErrInvalidDateTime
	}
	end, err := parse.DateTime(req.Date, req.EndTime, v.loc)
	if err != nil {
		return Payload{}, ErrInvalidDateTime
	}

	if !end.After(start) {
		return Payload{}, ErrEndBeforeStart
	}
	if start.Before(v.now()) {
		return Payload{}, ErrStartInPast
	}

	return Payload{
		FacilityID:       req.FacilityID,
		UserID:           req.UserID,
		EventName:        req.EventName,
		EventDescription: req.EventDescription,
		Start:            start.UTC(),
		End:              end.UTC(),
		Attendees:        attendees,
	}, nil
}

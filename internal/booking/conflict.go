package booking

import (
	"time"

	"facility-booking-backend/internal/model"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2) intersect.
// Intervals that only share a boundary instant do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FindConflict returns the first booking in existing that holds an overlapping
// slot on the same facility.
func FindConflict(facilityID string, start, end time.Time, existing []model.Booking) (model.Booking, bool) {
	for _, b := range existing {
		if b.FacilityID != facilityID || !HoldsSlot(b.Status) {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// HasConflict reports whether the candidate window collides with an existing booking.
func HasConflict(facilityID string, start, end time.Time, existing []model.Booking) bool {
	_, found := FindConflict(facilityID, start, end, existing)
	return found
}

// Admission returns a check suitable for running inside the store's admission
// transaction. It fails with ErrConflict when the candidate collides.
func Admission(facilityID string, start, end time.Time) func(existing []model.Booking) error {
	return func(existing []model.Booking) error {
		if HasConflict(facilityID, start, end, existing) {
			return ErrConflict
		}
		return nil
	}
}

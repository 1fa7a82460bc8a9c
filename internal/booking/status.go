package booking

import (
	"fmt"
	"strings"

	"facility-booking-backend/internal/model"
)

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.StatusPending:   {model.StatusInReview, model.StatusApproved, model.StatusRejected},
	model.StatusInReview:  {model.StatusApproved, model.StatusRejected},
	model.StatusApproved:  {model.StatusCompleted},
	model.StatusRejected:  {},
	model.StatusCompleted: {},
}

// ParseStatus converts a wire value into a known status. Matching ignores case.
func ParseStatus(raw string) (model.BookingStatus, error) {
	s := model.BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition when from -> to is not allowed.
func CheckTransition(from, to model.BookingStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether no further transitions are defined.
func IsTerminal(s model.BookingStatus) bool {
	return len(transitions[s]) == 0
}

// HoldsSlot reports whether a booking in this status still occupies its time window.
func HoldsSlot(s model.BookingStatus) bool {
	return s != model.StatusRejected && s != model.StatusCompleted
}

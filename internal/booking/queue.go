package booking

import (
	"sort"
	"time"

	"facility-booking-backend/internal/model"
)

// DefaultPerItem is the assumed review time for one queued booking.
const DefaultPerItem = 30 * time.Minute

// QueueSlot is the derived queue state of one pending booking.
type QueueSlot struct {
	Position              int
	EstimatedConfirmation time.Time
}

// Projection maps pending booking ids to their queue slot at a single instant.
type Projection map[string]QueueSlot

// QueueEstimator ranks pending bookings in global FIFO order.
type QueueEstimator struct {
	perItem time.Duration
}

// NewQueueEstimator creates an estimator. A non-positive perItem falls back to DefaultPerItem.
func NewQueueEstimator(perItem time.Duration) QueueEstimator {
	if perItem <= 0 {
		perItem = DefaultPerItem
	}
	return QueueEstimator{perItem: perItem}
}

// PerItem returns the configured review time per queued booking.
func (q QueueEstimator) PerItem() time.Duration {
	return q.perItem
}

// PendingOrder returns the pending bookings of snapshot sorted by submission time.
// Equal submission times are ordered by id so the ranking is total.
func PendingOrder(snapshot []model.Booking) []model.Booking {
	pending := make([]model.Booking, 0, len(snapshot))
	for _, b := range snapshot {
		if b.Status == model.StatusPending {
			pending = append(pending, b)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}

// Project computes the queue slot of every pending booking in snapshot as of now.
func (q QueueEstimator) Project(snapshot []model.Booking, now time.Time) Projection {
	pending := PendingOrder(snapshot)
	proj := make(Projection, len(pending))
	for i, b := range pending {
		pos := i + 1
		proj[b.ID] = QueueSlot{
			Position:              pos,
			EstimatedConfirmation: now.Add(time.Duration(pos) * q.perItem),
		}
	}
	return proj
}

// Len returns the number of queued bookings.
func (p Projection) Len() int {
	return len(p)
}

// Apply sets the derived queue fields on b, clearing them for bookings that are not queued.
func (p Projection) Apply(b *model.Booking) {
	slot, ok := p[b.ID]
	if !ok || b.Status != model.StatusPending {
		b.QueuePosition = 0
		b.EstimatedConfirmationDate = nil
		return
	}
	eta := slot.EstimatedConfirmation
	b.QueuePosition = slot.Position
	b.EstimatedConfirmationDate = &eta
}

// SortNewestFirst orders bookings by submission time, most recent first.
func SortNewestFirst(bookings []model.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facility_booking",
			Name:      "booking_requests_total",
			Help:      "Count of booking requests by outcome.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facility_booking",
			Name:      "booking_status_transitions_total",
			Help:      "Count of applied booking status transitions.",
		},
		[]string{"from", "to"},
	)

	rejectedTransitions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facility_booking",
			Name:      "booking_rejected_transitions_total",
			Help:      "Count of status updates refused by the state machine.",
		},
	)

	pendingQueue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facility_booking",
			Name:      "booking_pending_queue_length",
			Help:      "Number of pending bookings seen by the latest read.",
		},
	)

	admissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facility_booking",
			Name:      "booking_admission_duration_seconds",
			Help:      "Time spent admitting a booking request.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Booking request outcomes.
const (
	OutcomeCreated    = "created"
	OutcomeValidation = "validation_error"
	OutcomeConflict   = "conflict"
	OutcomeFacility   = "facility_rejected"
	OutcomeDocument   = "document_error"
	OutcomeError      = "error"
)

// Register registers metrics (idempotent).
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(bookingRequests, statusTransitions, rejectedTransitions, pendingQueue, admissionDuration)
	})
}

func IncBookingRequest(outcome string) {
	bookingRequests.WithLabelValues(outcome).Inc()
}

func IncStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func IncRejectedTransition() {
	rejectedTransitions.Inc()
}

func SetPendingQueue(n int) {
	pendingQueue.Set(float64(n))
}

func ObserveAdmission(d time.Duration) {
	admissionDuration.Observe(d.Seconds())
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"facility-booking-backend/internal/booking"
	"facility-booking-backend/internal/document"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/metrics"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/store"
)

// UnknownUser is stored as the requester name when the user cannot be resolved.
const UnknownUser = "Unknown"

// Repository is the persistence surface the booking service needs.
type Repository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	CreateBooking(ctx context.Context, b *model.Booking, admit store.AdmitFunc) error
	ActiveFacilityBookings(ctx context.Context, facilityID string) ([]model.Booking, error)
	BookingSnapshot(ctx context.Context, userID string) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, to model.BookingStatus, guard store.GuardFunc) (*model.Booking, model.BookingStatus, error)
	ListEndedApproved(ctx context.Context, before time.Time, limit int) ([]model.Booking, error)
}

// FacilityLookup resolves facilities by id.
type FacilityLookup interface {
	GetFacility(ctx context.Context, id string) (*model.Facility, error)
}

// DocumentStore converts an uploaded file into a stored reference.
type DocumentStore interface {
	Store(ctx context.Context, f document.File) (string, error)
}

// Notifier is told about every applied status change.
type Notifier interface {
	Dispatch(b model.Booking)
}

// Options tunes the booking service.
type Options struct {
	Location        *time.Location
	PerItem         time.Duration
	EnforceFacility bool
	Now             func() time.Time
}

// CreateBookingInput is a raw booking request with an optional supporting document.
type CreateBookingInput struct {
	booking.Request
	Document *document.File
}

// BookingService implements booking admission, the review queue views and status updates.
type BookingService struct {
	repo            Repository
	facilities      FacilityLookup
	documents       DocumentStore
	publisher       events.Publisher
	notifier        Notifier
	validator       *booking.Validator
	queue           booking.QueueEstimator
	enforceFacility bool
	now             func() time.Time
	log             zerolog.Logger
}

// NewBookingService wires the service. publisher and notifier may be nil.
func NewBookingService(repo Repository, facilities FacilityLookup, documents DocumentStore, publisher events.Publisher, notifier Notifier, opts Options, log zerolog.Logger) *BookingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BookingService{
		repo:            repo,
		facilities:      facilities,
		documents:       documents,
		publisher:       publisher,
		notifier:        notifier,
		validator:       booking.NewValidator(opts.Location, opts.Now),
		queue:           booking.NewQueueEstimator(opts.PerItem),
		enforceFacility: opts.EnforceFacility,
		now:             opts.Now,
		log:             log,
	}
}

// CreateBooking validates the request, checks the facility's schedule, stores the
// document and admits the booking as PENDING. Nothing is written on failure.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	started := time.Now()
	defer func() { metrics.ObserveAdmission(time.Since(started)) }()

	payload, err := s.validator.Validate(in.Request)
	if err != nil {
		metrics.IncBookingRequest(metrics.OutcomeValidation)
		return nil, err
	}

	if s.enforceFacility {
		if err := s.checkFacility(ctx, payload); err != nil {
			metrics.IncBookingRequest(metrics.OutcomeFacility)
			return nil, err
		}
	}

	existing, err := s.repo.ActiveFacilityBookings(ctx, payload.FacilityID)
	if err != nil {
		metrics.IncBookingRequest(metrics.OutcomeError)
		return nil, fmt.Errorf("load schedule of facility %s: %w", payload.FacilityID, err)
	}
	if booking.HasConflict(payload.FacilityID, payload.Start, payload.End, existing) {
		metrics.IncBookingRequest(metrics.OutcomeConflict)
		return nil, booking.ErrConflict
	}

	var documentURL string
	if in.Document != nil {
		if s.documents == nil {
			metrics.IncBookingRequest(metrics.OutcomeDocument)
			return nil, booking.ErrDocumentUpload
		}
		documentURL, err = s.documents.Store(ctx, *in.Document)
		if err != nil {
			s.log.Warn().Err(err).Str("file", in.Document.Name).Msg("document intake failed")
			metrics.IncBookingRequest(metrics.OutcomeDocument)
			return nil, fmt.Errorf("%w: %w", booking.ErrDocumentUpload, err)
		}
	}

	now := s.now().UTC()
	b := &model.Booking{
		ID:               uuid.NewString(),
		FacilityID:       payload.FacilityID,
		UserID:           payload.UserID,
		UserName:         s.userName(ctx, payload.UserID),
		EventName:        payload.EventName,
		EventDescription: payload.EventDescription,
		StartTime:        payload.Start,
		EndTime:          payload.End,
		Status:           model.StatusPending,
		Attendees:        payload.Attendees,
		DocumentURL:      documentURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateBooking(ctx, b, booking.Admission(b.FacilityID, b.StartTime, b.EndTime)); err != nil {
		if errors.Is(err, booking.ErrConflict) || errors.Is(err, store.ErrOverlap) {
			metrics.IncBookingRequest(metrics.OutcomeConflict)
			return nil, booking.ErrConflict
		}
		metrics.IncBookingRequest(metrics.OutcomeError)
		return nil, fmt.Errorf("store booking: %w", err)
	}

	metrics.IncBookingRequest(metrics.OutcomeCreated)
	s.log.Info().
		Str("booking_id", b.ID).
		Str("facility_id", b.FacilityID).
		Str("user_id", b.UserID).
		Time("start", b.StartTime).
		Time("end", b.EndTime).
		Msg("booking created")
	s.publish(ctx, events.KeyBookingCreated, events.NewBookingEvent(*b, "", now))
	return b, nil
}

func (s *BookingService) checkFacility(ctx context.Context, p booking.Payload) error {
	if s.facilities == nil {
		return nil
	}
	f, err := s.facilities.GetFacility(ctx, p.FacilityID)
	if errors.Is(err, store.ErrNotFound) {
		return booking.ErrFacilityNotFound
	}
	if err != nil {
		return fmt.Errorf("look up facility %s: %w", p.FacilityID, err)
	}
	if !f.Bookable() {
		return booking.ErrFacilityUnavailable
	}
	if p.Attendees > f.Capacity {
		return booking.ErrOverCapacity
	}
	return nil
}

func (s *BookingService) userName(ctx context.Context, userID string) string {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("user lookup failed")
		}
		return UnknownUser
	}
	return u.Name
}

// GetUserBookings returns the user's bookings, newest first, with queue fields
// set on the pending ones. Positions are global across all users.
func (s *BookingService) GetUserBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	snapshot, err := s.repo.BookingSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read bookings of user %s: %w", userID, err)
	}

	proj := s.project(snapshot)
	out := make([]model.Booking, 0, len(snapshot))
	for _, b := range snapshot {
		if b.UserID != userID {
			continue
		}
		proj.Apply(&b)
		out = append(out, b)
	}
	booking.SortNewestFirst(out)
	return out, nil
}

// GetAllBookings returns every booking, newest first, with queue fields set on
// the pending ones.
func (s *BookingService) GetAllBookings(ctx context.Context) ([]model.Booking, error) {
	snapshot, err := s.repo.BookingSnapshot(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}

	proj := s.project(snapshot)
	for i := range snapshot {
		proj.Apply(&snapshot[i])
	}
	booking.SortNewestFirst(snapshot)
	return snapshot, nil
}

func (s *BookingService) project(snapshot []model.Booking) booking.Projection {
	proj := s.queue.Project(snapshot, s.now())
	metrics.SetPendingQueue(proj.Len())
	return proj
}

// UpdateBookingStatus moves a booking to status if the state machine allows it.
// A missing booking is reported before an unknown status.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	to, parseErr := booking.ParseStatus(string(status))

	b, from, err := s.repo.UpdateBookingStatus(ctx, id, to, func(from model.BookingStatus) error {
		if parseErr != nil {
			return parseErr
		}
		return booking.CheckTransition(from, to)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, booking.ErrNotFound
	case errors.Is(err, booking.ErrInvalidStatus):
		return nil, err
	case errors.Is(err, booking.ErrInvalidTransition):
		metrics.IncRejectedTransition()
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("update booking %s: %w", id, err)
	}

	metrics.IncStatusTransition(string(from), string(to))
	s.log.Info().
		Str("booking_id", b.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("booking status changed")

	s.publish(ctx, events.KeyBookingStatusChanged, events.NewBookingEvent(*b, from, s.now()))
	if s.notifier != nil {
		s.notifier.Dispatch(*b)
	}
	return b, nil
}

// CompleteEndedBookings moves up to limit approved bookings whose window has
// closed to COMPLETED and returns how many were moved.
func (s *BookingService) CompleteEndedBookings(ctx context.Context, limit int) (int, error) {
	ended, err := s.repo.ListEndedApproved(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range ended {
		if _, err := s.UpdateBookingStatus(ctx, b.ID, model.StatusCompleted); err != nil {
			if errors.Is(err, booking.ErrInvalidTransition) {
				// Changed by an admin since it was listed.
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (s *BookingService) publish(ctx context.Context, key string, ev events.BookingEvent) {
	if err := s.publisher.PublishJSON(ctx, key, ev); err != nil {
		s.log.Warn().Err(err).Str("event", key).Str("booking_id", ev.BookingID).Msg("failed to publish booking event")
	}
}

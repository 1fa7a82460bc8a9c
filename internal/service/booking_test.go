package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facility-booking-backend/internal/booking"
	"facility-booking-backend/internal/db"
	"facility-booking-backend/internal/document"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	evs  []events.BookingEvent
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if ev, ok := v.(events.BookingEvent); ok {
		p.evs = append(p.evs, ev)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingNotifier struct {
	dispatched []model.Booking
}

func (n *recordingNotifier) Dispatch(b model.Booking) {
	n.dispatched = append(n.dispatched, b)
}

type failingDocuments struct{}

func (failingDocuments) Store(ctx context.Context, f document.File) (string, error) {
	return "", errors.New("storage offline")
}

type fixture struct {
	svc       *BookingService
	store     store.Store
	clock     *testClock
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newFixture(t *testing.T, opts Options, docs DocumentStore) *fixture {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	require.NoError(t, db.Seed(context.Background(), gormDB))

	clock := &testClock{t: time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if docs == nil {
		docs = document.NewIntake(1<<20, []string{"application/pdf"})
	}

	s := store.NewGormStore(gormDB)
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}
	svc := NewBookingService(s, s, docs, pub, notifier, opts, zerolog.Nop())
	return &fixture{svc: svc, store: s, clock: clock, publisher: pub, notifier: notifier}
}

func request(facilityID, userID, date, start, end string) CreateBookingInput {
	return CreateBookingInput{Request: booking.Request{
		FacilityID: facilityID,
		UserID:     userID,
		EventName:  "Seminar",
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Attendees:  "100",
	}}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	in := request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00")
	in.EventDescription = "Annual seminar"
	in.Document = &document.File{Name: "proposal.pdf", Content: bytes.NewReader([]byte("%PDF-1.4\n%%EOF\n"))}

	b, err := f.svc.CreateBooking(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, "Mahasiswa Teladan", b.UserName)
	assert.Equal(t, 100, b.Attendees)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), b.StartTime)
	assert.Equal(t, f.clock.Now(), b.CreatedAt)
	assert.Contains(t, b.DocumentURL, "data:application/pdf;base64,")

	stored, err := f.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.DocumentURL, stored.DocumentURL)
	assert.Equal(t, []string{events.KeyBookingCreated}, f.publisher.keys)
}

func TestCreateBooking_UnknownUser(t *testing.T) {
	f := newFixture(t, Options{}, nil)

	b, err := f.svc.CreateBooking(context.Background(), request("f3", "ghost", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, UnknownUser, b.UserName)
}

func TestCreateBooking_ValidationLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	in := request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00")
	in.Attendees = "-5"
	_, err := f.svc.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, booking.ErrInvalidAttendees)

	_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-08", "09:00", "11:00"))
	assert.ErrorIs(t, err, booking.ErrStartInPast)

	all, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.publisher.keys)
}

func TestCreateBooking_ApprovedSlotScenario(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	existing, err := f.svc.CreateBooking(ctx, request("f1", "admin-1", "2024-01-10", "09:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(ctx, existing.ID, model.StatusApproved)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "10:00", "12:00"))
	assert.ErrorIs(t, err, booking.ErrConflict)
	assert.EqualError(t, err, "facility already booked for that time")

	_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "11:00", "12:00"))
	assert.NoError(t, err)
}

func TestCreateBooking_OverlapIsSymmetric(t *testing.T) {
	windows := [][2]string{{"09:00", "12:00"}, {"10:00", "11:00"}}

	for _, order := range [][2]int{{0, 1}, {1, 0}} {
		f := newFixture(t, Options{}, nil)
		ctx := context.Background()

		first, second := windows[order[0]], windows[order[1]]
		_, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", first[0], first[1]))
		require.NoError(t, err)
		_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", second[0], second[1]))
		assert.ErrorIs(t, err, booking.ErrConflict, "first %v then %v", first, second)
	}
}

func TestCreateBooking_ReleasedSlotsDoNotBlock(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	rejected, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00"))
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(ctx, rejected.ID, model.StatusRejected)
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:30", "10:30"))
	assert.NoError(t, err)
}

func TestCreateBooking_DocumentFailureLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t, Options{}, failingDocuments{})
	ctx := context.Background()

	in := request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00")
	in.Document = &document.File{Name: "proposal.pdf", Content: bytes.NewReader([]byte("%PDF-1.4"))}
	_, err := f.svc.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, booking.ErrDocumentUpload)
	assert.EqualError(t, err, "failed to upload document: storage offline")

	all, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateBooking_RejectedDocumentKeepsCause(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	in := request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00")
	in.Document = &document.File{Name: "notes.txt", Content: bytes.NewReader([]byte("just some plain text"))}
	_, err := f.svc.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, booking.ErrDocumentUpload)
	assert.ErrorIs(t, err, document.ErrUnsupportedType)

	all, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateBooking_ConflictCheckedBeforeDocument(t *testing.T) {
	f := newFixture(t, Options{}, failingDocuments{})
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:00", "11:00"))
	require.NoError(t, err)

	in := request("f1", "user-mock-1", "2024-01-10", "10:00", "12:00")
	in.Document = &document.File{Name: "proposal.pdf", Content: bytes.NewReader([]byte("%PDF-1.4"))}
	_, err = f.svc.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, booking.ErrConflict)
}

func TestCreateBooking_EnforceFacility(t *testing.T) {
	f := newFixture(t, Options{EnforceFacility: true}, nil)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("nope", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	assert.ErrorIs(t, err, booking.ErrFacilityNotFound)

	_, err = f.svc.CreateBooking(ctx, request("f2", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	assert.ErrorIs(t, err, booking.ErrFacilityUnavailable)

	_, err = f.svc.CreateBooking(ctx, request("f6", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	assert.ErrorIs(t, err, booking.ErrOverCapacity)

	_, err = f.svc.CreateBooking(ctx, request("f3", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	assert.ErrorIs(t, err, booking.ErrOverCapacity)

	in := request("f3", "user-mock-1", "2024-01-10", "09:00", "10:00")
	in.Attendees = "60"
	_, err = f.svc.CreateBooking(ctx, in)
	assert.NoError(t, err)
}

func TestCreateBooking_Concurrent(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateBooking(ctx, request("f5", "user-mock-1", "2024-01-10", "13:00", "15:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, booking.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
}

func TestQueue_SubmissionOrder(t *testing.T) {
	f := newFixture(t, Options{PerItem: 30 * time.Minute}, nil)
	ctx := context.Background()

	var ids []string
	for _, facility := range []string{"f5", "f1", "f3"} {
		b, err := f.svc.CreateBooking(ctx, request(facility, "user-mock-1", "2024-01-10", "09:00", "10:00"))
		require.NoError(t, err)
		ids = append(ids, b.ID)
		f.clock.Advance(10 * time.Second)
	}

	now := f.clock.Now()
	all, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Newest first.
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	byID := map[string]model.Booking{}
	for _, b := range all {
		byID[b.ID] = b
	}
	for i, id := range ids {
		b := byID[id]
		assert.Equal(t, i+1, b.QueuePosition)
		require.NotNil(t, b.EstimatedConfirmationDate)
		assert.Equal(t, now.Add(time.Duration(i+1)*30*time.Minute), *b.EstimatedConfirmationDate)
	}

	again, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	for i := range all {
		assert.Equal(t, all[i].ID, again[i].ID)
		assert.Equal(t, all[i].QueuePosition, again[i].QueuePosition)
	}
}

func TestQueue_TerminalBookingsAreNotCounted(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	first, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.svc.CreateBooking(ctx, request("f3", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	third, err := f.svc.CreateBooking(ctx, request("f5", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, first.ID, model.StatusApproved)
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(ctx, second.ID, model.StatusInReview)
	require.NoError(t, err)

	all, err := f.svc.GetAllBookings(ctx)
	require.NoError(t, err)
	for _, b := range all {
		if b.ID == third.ID {
			assert.Equal(t, 1, b.QueuePosition)
			assert.NotNil(t, b.EstimatedConfirmationDate)
		} else {
			assert.Zero(t, b.QueuePosition, b.Status)
			assert.Nil(t, b.EstimatedConfirmationDate)
		}
	}
}

func TestGetUserBookings_UsesGlobalQueue(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("f1", "admin-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	mine, err := f.svc.CreateBooking(ctx, request("f3", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)

	got, err := f.svc.GetUserBookings(ctx, "user-mock-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
	assert.Equal(t, 2, got[0].QueuePosition)

	none, err := f.svc.GetUserBookings(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateBookingStatus(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateBookingStatus(ctx, b.ID, model.StatusInReview)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, updated.Status)

	updated, err = f.svc.UpdateBookingStatus(ctx, b.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)

	_, err = f.svc.UpdateBookingStatus(ctx, b.ID, model.StatusPending)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = f.svc.UpdateBookingStatus(ctx, b.ID, "CANCELLED")
	assert.ErrorIs(t, err, booking.ErrInvalidStatus)

	_, err = f.svc.UpdateBookingStatus(ctx, "missing", model.StatusApproved)
	assert.ErrorIs(t, err, booking.ErrNotFound)
	assert.EqualError(t, err, "booking not found")

	_, err = f.svc.UpdateBookingStatus(ctx, "missing", "CANCELLED")
	assert.EqualError(t, err, "booking not found")

	require.Len(t, f.notifier.dispatched, 2)
	assert.Equal(t, model.StatusApproved, f.notifier.dispatched[1].Status)

	require.Len(t, f.publisher.evs, 3)
	assert.Equal(t, model.StatusInReview, f.publisher.evs[2].PreviousStatus)
	assert.Equal(t, model.StatusApproved, f.publisher.evs[2].Status)
}

func TestCompleteEndedBookings(t *testing.T) {
	f := newFixture(t, Options{}, nil)
	ctx := context.Background()

	ended, err := f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	running, err := f.svc.CreateBooking(ctx, request("f3", "user-mock-1", "2024-01-10", "09:00", "18:00"))
	require.NoError(t, err)
	pending, err := f.svc.CreateBooking(ctx, request("f5", "user-mock-1", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)

	for _, id := range []string{ended.ID, running.ID} {
		_, err := f.svc.UpdateBookingStatus(ctx, id, model.StatusApproved)
		require.NoError(t, err)
	}

	f.clock.Advance(26 * time.Hour)
	n, err := f.svc.CompleteEndedBookings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for id, want := range map[string]model.BookingStatus{
		ended.ID:   model.StatusCompleted,
		running.ID: model.StatusApproved,
		pending.ID: model.StatusPending,
	} {
		b, err := f.store.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Status)
	}

	_, err = f.svc.CreateBooking(ctx, request("f1", "user-mock-1", "2024-01-11", "09:00", "10:00"))
	assert.NoError(t, err)
}

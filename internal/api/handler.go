package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/service"
	"facility-booking-backend/internal/store"
)

// BookingService is the booking engine surface exposed over HTTP.
type BookingService interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*model.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]model.Booking, error)
	GetAllBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
}

// SubscriptionStore persists web push subscriptions.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps lists the collaborators of the API handlers.
type Deps struct {
	Bookings      BookingService
	Facilities    store.FacilityDirectory
	Subscriptions SubscriptionStore
	DB            Pinger
	WebPush       *webpush.Options
	Location      *time.Location
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	bookings      BookingService
	facilities    store.FacilityDirectory
	subscriptions SubscriptionStore
	db            Pinger
	webpush       *webpush.Options
	loc           *time.Location
	responses     *cache.Cache
	log           zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps, log zerolog.Logger) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		bookings:      d.Bookings,
		facilities:    d.Facilities,
		subscriptions: d.Subscriptions,
		db:            d.DB,
		webpush:       d.WebPush,
		loc:           loc,
		log:           log,
	}
}

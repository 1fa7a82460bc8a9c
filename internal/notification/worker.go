package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"facility-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the subset of the store the workers need.
type SubscriptionStore interface {
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Message is the JSON payload delivered to the browser.
type Message struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// WorkerPool manages a pool of workers for sending booking status notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.Booking
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	loc     *time.Location
	log     zerolog.Logger
}

// NewWorkerPool creates a new worker pool. queueSize bounds the pending jobs.
func NewWorkerPool(size, queueSize int, store SubscriptionStore, webpushOptions *webpush.Options, loc *time.Location, log zerolog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Booking, queueSize),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		loc:     loc,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case b := <-wp.jobs:
			wp.notifyOwner(ctx, b)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification for the booking's owner. When the queue is
// full the notification is dropped so callers never block.
func (wp *WorkerPool) Dispatch(b model.Booking) {
	select {
	case wp.jobs <- b:
	default:
		wp.log.Warn().Str("booking_id", b.ID).Msg("notification queue full; dropping status push")
	}
}

// BuildMessage renders the push payload for a booking's current status.
func BuildMessage(b model.Booking, loc *time.Location) Message {
	when := b.StartTime.In(loc).Format("02 Jan 2006 15:04")
	var body string
	switch b.Status {
	case model.StatusApproved:
		body = fmt.Sprintf("Your booking %q on %s was approved.", b.EventName, when)
	case model.StatusRejected:
		body = fmt.Sprintf("Your booking %q on %s was rejected.", b.EventName, when)
	case model.StatusInReview:
		body = fmt.Sprintf("Your booking %q on %s is being reviewed.", b.EventName, when)
	case model.StatusCompleted:
		body = fmt.Sprintf("Your booking %q on %s is completed.", b.EventName, when)
	default:
		body = fmt.Sprintf("Your booking %q on %s is now %s.", b.EventName, when, b.Status)
	}
	return Message{
		Title:     "Booking update",
		Body:      body,
		BookingID: b.ID,
		Status:    string(b.Status),
	}
}

func (wp *WorkerPool) notifyOwner(ctx context.Context, b model.Booking) {
	subscriptions, err := wp.store.SubscriptionsForUser(ctx, b.UserID)
	if err != nil {
		wp.log.Error().Err(err).Str("user_id", b.UserID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(BuildMessage(b, wp.loc))
	if err != nil {
		wp.log.Error().Err(err).Str("booking_id", b.ID).Msg("failed to encode push payload")
		return
	}

	wp.log.Debug().Str("booking_id", b.ID).Int("subscriptions", len(subscriptions)).Msg("sending status push")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send push")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired; deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}

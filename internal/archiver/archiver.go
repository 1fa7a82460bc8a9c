package archiver

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Completer moves finished bookings to their archival state.
type Completer interface {
	CompleteEndedBookings(ctx context.Context, limit int) (int, error)
}

// Service periodically completes approved bookings whose window has ended.
type Service struct {
	completer Completer
	interval  time.Duration
	batchSize int
	log       zerolog.Logger
}

// NewService creates a new archiver.
func NewService(completer Completer, interval time.Duration, batchSize int, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{completer: completer, interval: interval, batchSize: batchSize, log: log}
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("starting archiver")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("archiver shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce completes ended bookings in batches until none are left.
func (s *Service) SweepOnce(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := s.completer.CompleteEndedBookings(ctx, s.batchSize)
		total += n
		if err != nil {
			s.log.Error().Err(err).Msg("archive sweep failed")
			break
		}
		if n == 0 || s.batchSize <= 0 || n < s.batchSize {
			break
		}
	}
	if total > 0 {
		s.log.Info().Int("completed", total).Msg("archived finished bookings")
	}
	return total
}

package archiver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeCompleter struct {
	mu      sync.Mutex
	batches []int
	err     error
	calls   int
}

func (f *fakeCompleter) CompleteEndedBookings(ctx context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweepOnce_DrainsFullBatches(t *testing.T) {
	c := &fakeCompleter{batches: []int{2, 2, 1}}
	s := NewService(c, time.Minute, 2, zerolog.Nop())

	assert.Equal(t, 5, s.SweepOnce(context.Background()))
	assert.Equal(t, 3, c.callCount())
}

func TestSweepOnce_StopsOnError(t *testing.T) {
	c := &fakeCompleter{err: errors.New("db down")}
	s := NewService(c, time.Minute, 2, zerolog.Nop())

	assert.Equal(t, 0, s.SweepOnce(context.Background()))
	assert.Equal(t, 1, c.callCount())
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	c := &fakeCompleter{}
	s := NewService(c, 10*time.Millisecond, 10, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("archiver did not stop")
	}
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueueProcessesAndRetries(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("push", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Offer(Job{ID: "n-1", Type: "notification"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueOfferNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("push", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	var full error
	for i := 0; i < 5 && full == nil; i++ {
		full = q.Offer(Job{ID: "n"})
	}
	require.ErrorIs(t, full, ErrQueueFull)
}

func TestQueueOfferBeforeStart(t *testing.T) {
	q := NewQueue("push", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Offer(Job{ID: "n"}))
}

func TestQueueStopWaitsForScheduledRetries(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	failed := make(chan struct{}, 1)
	q := NewQueue("push", func(ctx context.Context, job Job) error {
		select {
		case failed <- struct{}{}:
		default:
		}
		return errors.New("gateway down")
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Hour})
	q.Start(context.Background())
	require.NoError(t, q.Offer(Job{ID: "n-1", Type: "notification"}))

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled")
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return while a retry was scheduled")
	}
	require.Zero(t, q.Len())
}

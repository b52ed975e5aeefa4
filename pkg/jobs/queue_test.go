package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("reconcile", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("store unavailable")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Submit("cascade.replay", "entry-1")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to completion")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	_, err := q.Submit("noop", nil)
	assert.Error(t, err)
}

func TestDelayGrowsExponentially(t *testing.T) {
	q := NewQueue("delays", func(ctx context.Context, job Job) error { return nil }, QueueConfig{RetryDelay: 100 * time.Millisecond, MaxRetryDelay: time.Second})
	assert.Equal(t, 100*time.Millisecond, q.delayFor(1))
	assert.Equal(t, 150*time.Millisecond, q.delayFor(2))
	assert.Equal(t, time.Second, q.delayFor(10))
}

func TestQueueKeyedJobsDoNotOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("reconcile", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.SubmitKeyed("cascade.reconcile", "all", nil)
	require.NoError(t, err)
	<-started

	_, err = q.SubmitKeyed("cascade.reconcile", "all", nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = q.SubmitKeyed("cascade.reconcile", "other", nil)
	require.NoError(t, err)
	<-started

	close(release)
	assert.Eventually(t, func() bool {
		_, err := q.SubmitKeyed("cascade.reconcile", "all", nil)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestQueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	q := NewQueue("tiny", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()

	var full error
	for i := 0; i < 4 && full == nil; i++ {
		_, full = q.Submit("noop", i)
	}
	assert.ErrorIs(t, full, ErrFull)
}

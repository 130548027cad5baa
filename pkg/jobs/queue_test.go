package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueProcessesJobs(t *testing.T) {
	var count int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&count, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		assert.NoError(t, q.Enqueue(Job{ID: "j", Type: "ping"}))
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) == 5
	}, time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt64(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	assert.NoError(t, q.Enqueue(Job{ID: "j", Type: "flaky"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 3
	}, time.Second, 10*time.Millisecond)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "j"}))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt64(&attempts, 1)
		return errors.New("permanent")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	assert.NoError(t, q.Enqueue(Job{ID: "j", Type: "doomed"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 3
	}, time.Second, 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 3, atomic.LoadInt64(&attempts))
}

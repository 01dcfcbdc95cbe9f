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

func TestQueueRunsJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		done <- j
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "noop"}))

	select {
	case j := <-done:
		assert.Equal(t, "1", j.ID)
		assert.False(t, j.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(_ context.Context, j Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "k"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed after retries")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRefusesDuplicateKeys(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "prune"}))
	<-started
	assert.ErrorIs(t, q.Enqueue(Job{ID: "2", Key: "prune"}), ErrJobPending)

	close(release)
	assert.Eventually(t, func() bool {
		return q.Enqueue(Job{ID: "3", Key: "prune"}) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueNotStarted(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}

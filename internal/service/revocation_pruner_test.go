package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-auth-api/pkg/jobs"
)

type countingPruneStore struct {
	calls   int32
	failFor int32
	block   chan struct{}
}

func (s *countingPruneStore) Prune(ctx context.Context) (int64, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if n <= s.failFor {
		return 0, errors.New("transient")
	}
	return 2, nil
}

func (s *countingPruneStore) count() int32 {
	return atomic.LoadInt32(&s.calls)
}

func TestRevocationPrunerRejectsBadSchedule(t *testing.T) {
	_, err := NewRevocationPruner(&countingPruneStore{}, "every hour please", 1, zap.NewNop())
	assert.Error(t, err)
}

func TestRevocationPrunerTriggerRunsPrune(t *testing.T) {
	store := &countingPruneStore{}
	pruner, err := NewRevocationPruner(store, "@every 1h", 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, pruner.Start(context.Background()))
	defer pruner.Stop()

	require.NoError(t, pruner.Trigger())
	assert.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRevocationPrunerDoesNotOverlap(t *testing.T) {
	store := &countingPruneStore{block: make(chan struct{})}
	pruner, err := NewRevocationPruner(store, "@every 1h", 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, pruner.Start(context.Background()))
	defer pruner.Stop()

	require.NoError(t, pruner.Trigger())
	assert.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, pruner.Trigger(), jobs.ErrJobPending)

	close(store.block)
	assert.Eventually(t, func() bool { return pruner.Trigger() == nil }, 2*time.Second, 10*time.Millisecond)
}

func TestRevocationPrunerStopCancelsRun(t *testing.T) {
	store := &countingPruneStore{block: make(chan struct{})}
	pruner, err := NewRevocationPruner(store, "@every 1h", 3, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, pruner.Start(context.Background()))

	require.NoError(t, pruner.Trigger())
	assert.Eventually(t, func() bool { return store.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pruner.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
	assert.Equal(t, int32(1), store.count())
}

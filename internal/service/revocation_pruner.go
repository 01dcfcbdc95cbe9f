package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-auth-api/pkg/jobs"
)

const pruneJobKey = "revocation-prune"

type pruneStore interface {
	Prune(ctx context.Context) (int64, error)
}

// RevocationPruner deletes revocation records whose tokens have expired. cron decides when
// a run is due; the job queue executes it with retries and keeps runs from overlapping.
type RevocationPruner struct {
	store    pruneStore
	schedule string
	cron     *cron.Cron
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewRevocationPruner validates schedule (standard cron or descriptors such as "@every 1h").
func NewRevocationPruner(store pruneStore, schedule string, retries int, logger *zap.Logger) (*RevocationPruner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	p := &RevocationPruner{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
	p.queue = jobs.NewQueue("revocation-pruner", p.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: retries,
		Logger:     logger,
	})
	return p, nil
}

// Start registers the schedule and starts the worker.
func (p *RevocationPruner) Start(ctx context.Context) error {
	p.queue.Start(ctx)
	if _, err := p.cron.AddFunc(p.schedule, func() {
		if err := p.Trigger(); err != nil {
			p.logger.Warn("prune run skipped", zap.Error(err))
		}
	}); err != nil {
		p.queue.Stop()
		return fmt.Errorf("schedule revocation prune: %w", err)
	}
	p.cron.Start()
	p.logger.Info("revocation pruner started", zap.String("schedule", p.schedule))
	return nil
}

// Trigger queues a prune run now. It returns jobs.ErrJobPending while a run is in flight.
func (p *RevocationPruner) Trigger() error {
	return p.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Key: pruneJobKey, Type: "revocation.prune"})
}

// Stop halts scheduling, waits for a running cron callback and stops the worker.
func (p *RevocationPruner) Stop() {
	<-p.cron.Stop().Done()
	p.queue.Stop()
}

func (p *RevocationPruner) handle(ctx context.Context, job jobs.Job) error {
	deleted, err := p.store.Prune(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	p.logger.Info("revocation records pruned", zap.String("job_id", job.ID), zap.Int64("deleted", deleted), zap.Int("attempt", job.Attempt))
	return nil
}

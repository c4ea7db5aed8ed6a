package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Dispatcher submits background work to the durable queue. Submission is
// fire-and-forget from the caller's point of view: callers enqueue only
// after their own database write has gone through, and an enqueue failure
// is logged rather than failing the request.
type Dispatcher struct {
	client   *asynq.Client
	maxRetry int
	logger   *logrus.Logger
}

func NewDispatcher(client *asynq.Client, maxRetry int, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger,
	}
}

// SubmitImageOptimize enqueues an image derivative job and returns its id.
func (d *Dispatcher) SubmitImageOptimize(ctx context.Context, payload ImageOptimizePayload) (string, error) {
	task, err := NewImageOptimizeTask(payload)
	if err != nil {
		return "", err
	}

	info, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(d.maxRetry))
	if err != nil {
		d.logger.WithError(err).WithField("source", payload.Source).Error("Failed to enqueue image optimize job")
		return "", err
	}

	d.logger.WithFields(logrus.Fields{
		"job_id": info.ID,
		"source": payload.Source,
		"output": payload.Output,
	}).Info("Enqueued image optimize job")

	return info.ID, nil
}

// SubmitCacheInvalidate enqueues a key-pattern invalidation job.
func (d *Dispatcher) SubmitCacheInvalidate(ctx context.Context, pattern string) (string, error) {
	task, err := NewCacheInvalidateTask(CacheInvalidatePayload{Pattern: pattern})
	if err != nil {
		return "", err
	}

	info, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(d.maxRetry))
	if err != nil {
		d.logger.WithError(err).WithField("pattern", pattern).Error("Failed to enqueue cache invalidate job")
		return "", err
	}

	d.logger.WithFields(logrus.Fields{
		"job_id":  info.ID,
		"pattern": pattern,
	}).Info("Enqueued cache invalidate job")

	return info.ID, nil
}

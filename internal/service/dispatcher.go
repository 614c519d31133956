package service

import (
	"context"

	"quizforge/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QueueDispatcher fans worker tasks out onto the durable queue, one
// independent message per task.
//
// Dispatch is not transactional: a failure partway through leaves some
// tasks sent and others not, and already-sent messages are not rolled
// back. The caller decides what to do with the quiz record.
type QueueDispatcher struct {
	queue  domain.TaskQueue
	logger *zap.Logger
}

// NewQueueDispatcher creates a new QueueDispatcher.
func NewQueueDispatcher(queue domain.TaskQueue, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, logger: logger}
}

// Dispatch sends every task concurrently and returns the first send
// error, if any.
func (d *QueueDispatcher) Dispatch(ctx context.Context, tasks []*domain.WorkerTask) error {
	if d.queue == nil {
		return domain.NewQueueUnavailableError(nil)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return d.queue.Send(ctx, task)
		})
	}

	if err := g.Wait(); err != nil {
		d.logger.Error("Task dispatch failed; already-sent tasks are not rolled back",
			zap.Int("task_count", len(tasks)),
			zap.Error(err),
		)
		return err
	}

	d.logger.Info("Dispatched worker tasks", zap.Int("task_count", len(tasks)))
	return nil
}

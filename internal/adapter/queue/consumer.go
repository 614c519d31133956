package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TaskHandler processes one delivered task. Returning an error leaves the
// message pending so the stream redelivers it, except for parse errors,
// which are terminal for the message.
type TaskHandler func(ctx context.Context, task *domain.WorkerTask) error

// Consumer reads worker tasks from a Redis stream consumer group.
//
// Delivery semantics: messages are acknowledged only after the handler
// returns nil or a non-retryable error. Unacknowledged entries idle longer
// than ClaimMinIdle are reclaimed from dead consumers via XAUTOCLAIM, so a
// crashed worker's tasks are retried elsewhere. The net effect is
// at-least-once processing.
type Consumer struct {
	client  redis.Cmdable
	cfg     config.QueueConfig
	handler TaskHandler
	logger  *zap.Logger
}

// NewConsumer creates a consumer bound to the configured stream and group.
func NewConsumer(client redis.Cmdable, cfg config.QueueConfig, handler TaskHandler, logger *zap.Logger) *Consumer {
	return &Consumer{client: client, cfg: cfg, handler: handler, logger: logger}
}

// Run consumes tasks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("Queue consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("group", c.cfg.Group),
		zap.String("consumer", c.cfg.Consumer),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Queue consumer stopping", zap.String("consumer", c.cfg.Consumer))
			return ctx.Err()
		default:
		}

		c.reclaimStale(ctx)

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    1,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if err == redis.Nil || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Error("Failed to read from stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// reclaimStale takes over pending entries abandoned by dead consumers.
func (c *Consumer) reclaimStale(ctx context.Context) {
	if c.cfg.ClaimMinIdle <= 0 {
		return
	}
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  c.cfg.ClaimMinIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("Failed to reclaim stale messages", zap.Error(err))
		return
	}
	for _, msg := range msgs {
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values[taskField].(string)
	if !ok {
		// Poison message with no task payload: acknowledge and drop.
		c.logger.Error("Message without task payload, dropping", zap.String("message_id", msg.ID))
		c.ack(ctx, msg.ID)
		return
	}

	var task domain.WorkerTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		c.logger.Error("Undecodable task payload, dropping",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		c.ack(ctx, msg.ID)
		return
	}

	err := c.handler(ctx, &task)
	switch {
	case err == nil:
		c.ack(ctx, msg.ID)
	case domain.IsParseError(err):
		// Terminal for this message: the worker's contribution is lost,
		// but redelivery would not help. Other workers still progress.
		c.logger.Error("Task failed with parse error, acknowledging",
			zap.String("message_id", msg.ID),
			zap.String("quiz_id", task.QuizID),
			zap.Int("worker_index", task.WorkerIndex),
			zap.Error(err),
		)
		c.ack(ctx, msg.ID)
	default:
		// Transient: leave pending so the group redelivers the task.
		c.logger.Warn("Task failed, leaving pending for redelivery",
			zap.String("message_id", msg.ID),
			zap.String("quiz_id", task.QuizID),
			zap.Int("worker_index", task.WorkerIndex),
			zap.Error(err),
		)
	}
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msgID).Err(); err != nil {
		c.logger.Error("Failed to ack message", zap.String("message_id", msgID), zap.Error(err))
	}
}

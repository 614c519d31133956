package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"quizforge/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const taskField = "task"

// RedisStreamQueue implements the domain.TaskQueue interface over a Redis
// stream. Each task is one XADD entry; consumer groups on the same stream
// give at-least-once delivery.
type RedisStreamQueue struct {
	client redis.Cmdable
	stream string
	logger *zap.Logger
}

// NewRedisStreamQueue creates a publisher for the given stream.
func NewRedisStreamQueue(client redis.Cmdable, stream string, logger *zap.Logger) *RedisStreamQueue {
	return &RedisStreamQueue{client: client, stream: stream, logger: logger}
}

// Send appends one task to the stream as an independent message.
func (q *RedisStreamQueue) Send(ctx context.Context, task *domain.WorkerTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal worker task: %w", err)
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{taskField: string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to enqueue worker task: %w", err)
	}

	q.logger.Debug("Enqueued worker task",
		zap.String("stream", q.stream),
		zap.String("message_id", id),
		zap.String("quiz_id", task.QuizID),
		zap.Int("worker_index", task.WorkerIndex),
	)
	return nil
}

var _ domain.TaskQueue = (*RedisStreamQueue)(nil)

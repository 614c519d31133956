package queue

import (
	"context"
	"encoding/json"
	"testing"

	"quizforge/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleTask() *domain.WorkerTask {
	return &domain.WorkerTask{
		QuizID:        "01HTESTQUIZID0000000000000",
		Chunks:        []domain.TaskChunk{{ID: "chunk-0", Text: "material"}},
		Difficulty:    domain.DifficultyMedium,
		QuestionCount: 4,
		WorkerIndex:   1,
	}
}

func TestSend_AppendsTaskToStream(t *testing.T) {
	client, mock := redismock.NewClientMock()
	task := sampleTask()

	payload, err := json.Marshal(task)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "quizforge:tasks",
		Values: map[string]interface{}{taskField: string(payload)},
	}).SetVal("1-0")

	q := NewRedisStreamQueue(client, "quizforge:tasks", zap.NewNop())
	err = q.Send(context.Background(), task)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_PropagatesStreamError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	task := sampleTask()

	payload, err := json.Marshal(task)
	require.NoError(t, err)

	mock.ExpectXAdd(&redis.XAddArgs{
		Stream: "quizforge:tasks",
		Values: map[string]interface{}{taskField: string(payload)},
	}).SetErr(redis.ErrClosed)

	q := NewRedisStreamQueue(client, "quizforge:tasks", zap.NewNop())
	err = q.Send(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, redis.ErrClosed)
}

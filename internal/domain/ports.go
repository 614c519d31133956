package domain

import (
	"context"
	"time"
)

// QuizRepository defines the persistence port for quiz records.
//
// AppendQuestions must be additive and order-independent: concurrent
// workers append without coordination. MarkReady is the single
// conditional transition the pipeline's idempotency depends on.
type QuizRepository interface {
	// CreateQuiz persists a new quiz in the processing state.
	CreateQuiz(ctx context.Context, quiz *Quiz) error

	// GetQuizByID returns the quiz or nil when no row exists.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// GetQuizzesByUser lists a user's quizzes, newest first.
	GetQuizzesByUser(ctx context.Context, userID string) ([]*Quiz, error)

	// DeleteQuiz removes a quiz owned by userID.
	DeleteQuiz(ctx context.Context, id, userID string) error

	// AppendQuestions adds a worker's validated questions to the quiz's
	// in-flight question list. It never overwrites existing entries.
	AppendQuestions(ctx context.Context, quizID string, workerIndex int, questions []Question) error

	// CountQuestions returns the number of in-flight questions persisted
	// so far. This count is the sole completion signal.
	CountQuestions(ctx context.Context, quizID string) (int, error)

	// GetPendingQuestions returns all in-flight questions for a quiz.
	GetPendingQuestions(ctx context.Context, quizID string) ([]Question, error)

	// MarkReady transitions the quiz from processing to ready, storing
	// the final question list and completion timestamp in the same
	// conditional update. It returns false when the quiz was no longer
	// in the processing state, which callers treat as a no-op.
	MarkReady(ctx context.Context, quizID string, questions []Question, completedAt time.Time) (bool, error)

	// MarkError transitions the quiz to the error state with a message.
	MarkError(ctx context.Context, quizID, message string) error
}

// SourceFileRepository exposes the user's uploaded files to the
// retriever. Upload and extraction live in another service.
type SourceFileRepository interface {
	// GetEnabledFileIDs returns the ids of files enabled for retrieval.
	GetEnabledFileIDs(ctx context.Context, userID string) ([]string, error)
}

// VectorIndex is the search port over embedded content chunks,
// partitioned per user.
type VectorIndex interface {
	// Search returns up to topK chunks ranked by similarity to the query
	// embedding, restricted to the given file ids.
	Search(ctx context.Context, embedding []float32, topK int, fileIDs []string, userID string) ([]RetrievedChunk, error)

	// RandomSample returns up to count unranked chunks across the given
	// file ids.
	RandomSample(ctx context.Context, fileIDs []string, count int, userID string) ([]RetrievedChunk, error)
}

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	// Generate creates an embedding vector of fixed dimensionality.
	Generate(ctx context.Context, text string) ([]float32, error)
}

// GenerationRequest carries the context for one model call.
type GenerationRequest struct {
	ChunkTexts    []string
	QuestionCount int
	Difficulty    Difficulty
	Topic         string
	Instructions  string
}

// QuestionGenerator is the language-model port. The raw response is
// opaque text; the response validator owns its interpretation. The
// implementation owns its own retry and backoff.
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// TaskQueue is the durable queue port. Delivery is at-least-once: a
// sent task may be processed more than once.
type TaskQueue interface {
	Send(ctx context.Context, task *WorkerTask) error
}

package service

import (
	"context"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// Worker processes a single generation task: call the model, validate
// its output, persist the questions and finalize the quiz if this task
// completed it.
//
// Each invocation is stateless. Task handling is idempotent enough for
// at-least-once delivery: question appends are additive and the
// finalizer deduplicates and compare-and-sets, so a redelivered task can
// at worst add duplicate rows that never reach the published quiz.
type Worker struct {
	repo      domain.QuizRepository
	generator domain.QuestionGenerator
	tracker   *CompletionTracker
	finalizer *Finalizer
	logger    *zap.Logger
}

// NewWorker creates a new Worker.
func NewWorker(
	repo domain.QuizRepository,
	generator domain.QuestionGenerator,
	tracker *CompletionTracker,
	finalizer *Finalizer,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		repo:      repo,
		generator: generator,
		tracker:   tracker,
		finalizer: finalizer,
		logger:    logger,
	}
}

// Consume handles one task. A nil return acknowledges the message; a
// parse error is terminal and also acknowledged by the consumer; any
// other error leaves the message pending for redelivery.
func (w *Worker) Consume(ctx context.Context, task *domain.WorkerTask) error {
	quiz, err := w.repo.GetQuizByID(ctx, task.QuizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		w.logger.Warn("Dropping task for unknown quiz", zap.String("quiz_id", task.QuizID))
		return nil
	}
	if quiz.Status != domain.StatusProcessing {
		w.logger.Info("Dropping task for settled quiz",
			zap.String("quiz_id", task.QuizID),
			zap.String("status", string(quiz.Status)),
		)
		return nil
	}

	questions, err := w.generate(ctx, task)
	if err != nil {
		return err
	}

	if err := w.repo.AppendQuestions(ctx, task.QuizID, task.WorkerIndex, questions); err != nil {
		return err
	}

	complete, err := w.tracker.IsComplete(ctx, task.QuizID, quiz.QuestionCount)
	if err != nil {
		return err
	}
	if !complete {
		w.logger.Debug("Task done, quiz still collecting",
			zap.String("quiz_id", task.QuizID),
			zap.Int("worker_index", task.WorkerIndex),
		)
		return nil
	}

	return w.finalizer.Finalize(ctx, quiz)
}

// generate calls the model and parses its output, retrying the call once
// when the first response fails validation. A second invalid response is
// a terminal parse error for this task only; retries and redeliveries of
// the other tasks proceed independently.
func (w *Worker) generate(ctx context.Context, task *domain.WorkerTask) ([]domain.Question, error) {
	req := domain.GenerationRequest{
		ChunkTexts:    chunkTexts(task.Chunks),
		QuestionCount: task.QuestionCount,
		Difficulty:    task.Difficulty,
		Topic:         task.Topic,
		Instructions:  task.Instructions,
	}

	var parseErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := w.generator.Generate(ctx, req)
		if err != nil {
			return nil, domain.NewLLMServiceError(err)
		}

		questions, err := ParseQuestions(raw, task.QuestionCount, w.logger)
		if err == nil {
			return questions, nil
		}
		if !domain.IsParseError(err) {
			return nil, err
		}

		parseErr = err
		w.logger.Warn("Model response failed validation",
			zap.String("quiz_id", task.QuizID),
			zap.Int("worker_index", task.WorkerIndex),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, parseErr
}

func chunkTexts(chunks []domain.TaskChunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return texts
}

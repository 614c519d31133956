package service

import (
	"context"
	"math/rand"
	"time"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// Finalizer assembles the persisted question pool into the finished quiz.
//
// Finalization must run exactly once per quiz even though several workers
// may detect completion at the same time. The repository's MarkReady is a
// compare-and-set on the processing status; whichever caller wins the race
// publishes its assembled set, and every loser treats the lost race as a
// successful no-op.
type Finalizer struct {
	repo   domain.QuizRepository
	logger *zap.Logger
}

// NewFinalizer creates a new Finalizer.
func NewFinalizer(repo domain.QuizRepository, logger *zap.Logger) *Finalizer {
	return &Finalizer{repo: repo, logger: logger}
}

// Finalize loads the quiz's pending questions, deduplicates them by
// normalized text, shuffles, truncates to the requested count and
// transitions the quiz to ready.
func (f *Finalizer) Finalize(ctx context.Context, quiz *domain.Quiz) error {
	pending, err := f.repo.GetPendingQuestions(ctx, quiz.ID)
	if err != nil {
		return domain.NewFinalizationError(quiz.ID, err)
	}

	if len(pending) == 0 {
		failure := domain.NewFinalizationError(quiz.ID, nil)
		if markErr := f.repo.MarkError(ctx, quiz.ID, "No questions were produced for this quiz"); markErr != nil {
			f.logger.Error("Failed to mark quiz as errored",
				zap.String("quiz_id", quiz.ID),
				zap.Error(markErr),
			)
		}
		return failure
	}

	questions := dedupeQuestions(pending)

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	if len(questions) > quiz.QuestionCount {
		questions = questions[:quiz.QuestionCount]
	}
	if len(questions) < quiz.QuestionCount {
		// Deduplication can leave the set short; publish what survived
		// rather than failing a quiz whose content is otherwise sound.
		f.logger.Warn("Finalizing with fewer questions than requested",
			zap.String("quiz_id", quiz.ID),
			zap.Int("requested", quiz.QuestionCount),
			zap.Int("available", len(questions)),
		)
	}

	completedAt := time.Now()
	ok, err := f.repo.MarkReady(ctx, quiz.ID, questions, completedAt)
	if err != nil {
		return domain.NewFinalizationError(quiz.ID, err)
	}
	if !ok {
		f.logger.Info("Quiz already finalized by a concurrent worker",
			zap.String("quiz_id", quiz.ID),
		)
		return nil
	}

	f.logger.Info("Quiz finalized",
		zap.String("quiz_id", quiz.ID),
		zap.Int("question_count", len(questions)),
	)
	return nil
}

// dedupeQuestions removes questions whose normalized text collides,
// keeping the first occurrence in persisted order.
func dedupeQuestions(questions []domain.Question) []domain.Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		key := q.NormalizedText()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

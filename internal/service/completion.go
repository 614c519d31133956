package service

import (
	"context"

	"quizforge/internal/domain"
)

// CompletionTracker decides when all fanned-out work for a quiz is done.
//
// Workers are independent, stateless invocations with no shared memory,
// so the only safe signal is persisted state: the quiz is complete once
// the number of questions persisted so far reaches the expected total.
// Counting distinct worker completions in a process-local map would
// silently lose signals across invocations and must not be used.
//
// Multiple workers may observe completion simultaneously; the finalizer
// is idempotent instead of this tracker attempting mutual exclusion.
type CompletionTracker struct {
	repo domain.QuizRepository
}

// NewCompletionTracker creates a new CompletionTracker.
func NewCompletionTracker(repo domain.QuizRepository) *CompletionTracker {
	return &CompletionTracker{repo: repo}
}

// IsComplete reports whether the quiz has collected at least the
// expected number of questions.
func (t *CompletionTracker) IsComplete(ctx context.Context, quizID string, expectedCount int) (bool, error) {
	count, err := t.repo.CountQuestions(ctx, quizID)
	if err != nil {
		return false, err
	}
	return count >= expectedCount, nil
}

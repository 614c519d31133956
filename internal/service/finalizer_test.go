package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func makeQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, domain.Question{
			Text:         fmt.Sprintf("Question %d?", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Explanation:  "because",
			Difficulty:   domain.DifficultyMedium,
		})
	}
	return questions
}

func processingQuiz(count int) *domain.Quiz {
	return domain.NewQuiz("01HTESTQUIZID0000000000000", "user-1", "test", domain.DifficultyMedium, "", count, 30)
}

func TestFinalize_TruncatesToRequestedCount(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(makeQuestions(13), nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.MatchedBy(func(qs []domain.Question) bool {
		return len(qs) == 10
	}), mock.Anything).Return(true, nil)

	f := NewFinalizer(repo, zap.NewNop())
	err := f.Finalize(context.Background(), quiz)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFinalize_DeduplicatesByNormalizedText(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	pending := makeQuestions(10)
	// Same question re-phrased only by case and whitespace.
	pending = append(pending, domain.Question{
		Text:         "  QUESTION 0?  ",
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: 1,
		Explanation:  "duplicate",
		Difficulty:   domain.DifficultyMedium,
	})

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(pending, nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.MatchedBy(func(qs []domain.Question) bool {
		seen := make(map[string]struct{})
		for _, q := range qs {
			key := q.NormalizedText()
			if _, dup := seen[key]; dup {
				return false
			}
			seen[key] = struct{}{}
		}
		return len(qs) == 10
	}), mock.Anything).Return(true, nil)

	f := NewFinalizer(repo, zap.NewNop())
	require.NoError(t, f.Finalize(context.Background(), quiz))
	repo.AssertExpectations(t)
}

func TestFinalize_DedupeCanLeaveFewerThanRequested(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	// Ten rows but only six distinct questions survive deduplication.
	pending := append(makeQuestions(6), makeQuestions(4)...)

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(pending, nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.MatchedBy(func(qs []domain.Question) bool {
		return len(qs) == 6
	}), mock.Anything).Return(true, nil)

	f := NewFinalizer(repo, zap.NewNop())
	require.NoError(t, f.Finalize(context.Background(), quiz))
	repo.AssertExpectations(t)
}

func TestFinalize_LostRaceIsNoOp(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(makeQuestions(10), nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.Anything, mock.Anything).Return(false, nil)

	f := NewFinalizer(repo, zap.NewNop())
	err := f.Finalize(context.Background(), quiz)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "MarkError")
}

func TestFinalize_NoQuestionsMarksQuizErrored(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return([]domain.Question{}, nil)
	repo.On("MarkError", mock.Anything, quiz.ID, mock.Anything).Return(nil)

	f := NewFinalizer(repo, zap.NewNop())
	err := f.Finalize(context.Background(), quiz)

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeFinalizationError, de.Code)
	repo.AssertExpectations(t)
}

func TestFinalize_StorageFailure(t *testing.T) {
	repo := new(MockQuizRepository)
	quiz := processingQuiz(10)

	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(makeQuestions(10), nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.Anything, mock.Anything).
		Return(false, errors.New("db down"))

	f := NewFinalizer(repo, zap.NewNop())
	err := f.Finalize(context.Background(), quiz)

	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeFinalizationError, de.Code)
}

func TestCompletionTracker(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		expected int
		want     bool
	}{
		{"under target", 15, 20, false},
		{"exactly at target", 20, 20, true},
		{"over target", 23, 20, true},
		{"nothing persisted", 0, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockQuizRepository)
			repo.On("CountQuestions", mock.Anything, "quiz-1").Return(tt.count, nil)

			tracker := NewCompletionTracker(repo)
			complete, err := tracker.IsComplete(context.Background(), "quiz-1", tt.expected)

			require.NoError(t, err)
			assert.Equal(t, tt.want, complete)
		})
	}
}

func TestCompletionTracker_CountFailure(t *testing.T) {
	repo := new(MockQuizRepository)
	repo.On("CountQuestions", mock.Anything, "quiz-1").Return(0, errors.New("db down"))

	tracker := NewCompletionTracker(repo)
	complete, err := tracker.IsComplete(context.Background(), "quiz-1", 20)

	require.Error(t, err)
	assert.False(t, complete)
}

package service

import (
	"context"
	"errors"
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorker(repo *MockQuizRepository, generator *MockQuestionGenerator) *Worker {
	logger := zap.NewNop()
	return NewWorker(repo, generator, NewCompletionTracker(repo), NewFinalizer(repo, logger), logger)
}

func workerTask(quizID string, questionCount int) *domain.WorkerTask {
	return &domain.WorkerTask{
		QuizID:        quizID,
		Chunks:        []domain.TaskChunk{{ID: "chunk-0", Text: "some study material"}},
		Difficulty:    domain.DifficultyMedium,
		QuestionCount: questionCount,
		WorkerIndex:   0,
	}
}

func TestConsume_HappyPathWithoutCompletion(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	task := workerTask(quiz.ID, 3)

	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return(validQuestionsJSON(3), nil)
	repo.On("AppendQuestions", mock.Anything, quiz.ID, 0, mock.MatchedBy(func(qs []domain.Question) bool {
		return len(qs) == 3
	})).Return(nil)
	repo.On("CountQuestions", mock.Anything, quiz.ID).Return(3, nil)

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), task)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "GetPendingQuestions")
	repo.AssertExpectations(t)
}

func TestConsume_LastTaskFinalizes(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	task := workerTask(quiz.ID, 4)

	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return(validQuestionsJSON(4), nil)
	repo.On("AppendQuestions", mock.Anything, quiz.ID, 0, mock.Anything).Return(nil)
	repo.On("CountQuestions", mock.Anything, quiz.ID).Return(10, nil)
	repo.On("GetPendingQuestions", mock.Anything, quiz.ID).Return(makeQuestions(10), nil)
	repo.On("MarkReady", mock.Anything, quiz.ID, mock.Anything, mock.Anything).Return(true, nil)

	w := newTestWorker(repo, generator)
	require.NoError(t, w.Consume(context.Background(), task))
	repo.AssertExpectations(t)
}

func TestConsume_UnknownQuizDropsTask(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	repo.On("GetQuizByID", mock.Anything, "gone").Return(nil, nil)

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), workerTask("gone", 3))

	assert.NoError(t, err)
	generator.AssertNotCalled(t, "Generate")
}

func TestConsume_SettledQuizDropsTask(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	quiz.Status = domain.StatusReady
	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), workerTask(quiz.ID, 3))

	assert.NoError(t, err)
	generator.AssertNotCalled(t, "Generate")
}

func TestConsume_RetriesOnceOnInvalidResponse(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	task := workerTask(quiz.ID, 3)

	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return("not json at all", nil).Once()
	generator.On("Generate", mock.Anything, mock.Anything).Return(validQuestionsJSON(3), nil).Once()
	repo.On("AppendQuestions", mock.Anything, quiz.ID, 0, mock.Anything).Return(nil)
	repo.On("CountQuestions", mock.Anything, quiz.ID).Return(3, nil)

	w := newTestWorker(repo, generator)
	require.NoError(t, w.Consume(context.Background(), task))
	generator.AssertNumberOfCalls(t, "Generate", 2)
}

func TestConsume_SecondInvalidResponseIsTerminal(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return("still not json", nil)

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), workerTask(quiz.ID, 3))

	require.Error(t, err)
	assert.True(t, domain.IsParseError(err))
	generator.AssertNumberOfCalls(t, "Generate", 2)
	repo.AssertNotCalled(t, "AppendQuestions")
	repo.AssertNotCalled(t, "MarkError")
}

func TestConsume_LLMFailureIsTransient(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), workerTask(quiz.ID, 3))

	require.Error(t, err)
	assert.False(t, domain.IsParseError(err))
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeLLMServiceError, de.Code)
}

func TestConsume_AppendFailureIsTransient(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.Anything).Return(validQuestionsJSON(3), nil)
	repo.On("AppendQuestions", mock.Anything, quiz.ID, 0, mock.Anything).Return(errors.New("db down"))

	w := newTestWorker(repo, generator)
	err := w.Consume(context.Background(), workerTask(quiz.ID, 3))

	require.Error(t, err)
	assert.False(t, domain.IsParseError(err))
}

func TestConsume_PassesTaskParametersToGenerator(t *testing.T) {
	repo := new(MockQuizRepository)
	generator := new(MockQuestionGenerator)

	quiz := processingQuiz(10)
	task := workerTask(quiz.ID, 3)
	task.Topic = "operating systems"
	task.Difficulty = domain.DifficultyHard

	repo.On("GetQuizByID", mock.Anything, quiz.ID).Return(quiz, nil)
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(req domain.GenerationRequest) bool {
		return req.QuestionCount == 3 &&
			req.Topic == "operating systems" &&
			req.Difficulty == domain.DifficultyHard &&
			len(req.ChunkTexts) == 1
	})).Return(validQuestionsJSON(3), nil)
	repo.On("AppendQuestions", mock.Anything, quiz.ID, 0, mock.Anything).Return(nil)
	repo.On("CountQuestions", mock.Anything, quiz.ID).Return(3, nil)

	w := newTestWorker(repo, generator)
	require.NoError(t, w.Consume(context.Background(), task))
	generator.AssertExpectations(t)
}

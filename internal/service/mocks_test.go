package service

import (
	"context"
	"time"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockQuizRepository is a mock implementation of domain.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetQuizzesByUser(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) DeleteQuiz(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockQuizRepository) AppendQuestions(ctx context.Context, quizID string, workerIndex int, questions []domain.Question) error {
	args := m.Called(ctx, quizID, workerIndex, questions)
	return args.Error(0)
}

func (m *MockQuizRepository) CountQuestions(ctx context.Context, quizID string) (int, error) {
	args := m.Called(ctx, quizID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuizRepository) GetPendingQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuizRepository) MarkReady(ctx context.Context, quizID string, questions []domain.Question, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, quizID, questions, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuizRepository) MarkError(ctx context.Context, quizID, message string) error {
	args := m.Called(ctx, quizID, message)
	return args.Error(0)
}

// MockSourceFileRepository is a mock implementation of domain.SourceFileRepository
type MockSourceFileRepository struct {
	mock.Mock
}

func (m *MockSourceFileRepository) GetEnabledFileIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockVectorIndex is a mock implementation of domain.VectorIndex
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, topK int, fileIDs []string, userID string) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, embedding, topK, fileIDs, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func (m *MockVectorIndex) RandomSample(ctx context.Context, fileIDs []string, count int, userID string) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, fileIDs, count, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

// MockEmbeddingService is a mock implementation of domain.EmbeddingService
type MockEmbeddingService struct {
	mock.Mock
}

func (m *MockEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockQuestionGenerator is a mock implementation of domain.QuestionGenerator
type MockQuestionGenerator struct {
	mock.Mock
}

func (m *MockQuestionGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockTaskQueue is a mock implementation of domain.TaskQueue
type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Send(ctx context.Context, task *domain.WorkerTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

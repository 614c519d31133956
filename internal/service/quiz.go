package service

import (
	"context"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/util"

	"go.uber.org/zap"
)

// QuizService is the synchronous front of the generation pipeline. It
// validates and persists the quiz, retrieves content, splits the work and
// dispatches it; everything after dispatch happens in worker processes.
type QuizService struct {
	repo       domain.QuizRepository
	retriever  *ChunkRetriever
	dispatcher *QueueDispatcher
	logger     *zap.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	repo domain.QuizRepository,
	retriever *ChunkRetriever,
	dispatcher *QueueDispatcher,
	logger *zap.Logger,
) *QuizService {
	return &QuizService{
		repo:       repo,
		retriever:  retriever,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateQuiz starts generation for a new quiz and returns once all worker
// tasks are on the queue. Retrieval failures surface to the caller before
// any record exists; dispatch failures mark the already-created quiz as
// errored because some tasks may have been sent and cannot be recalled.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, req dto.CreateQuizRequest) (*dto.CreateQuizResponse, error) {
	difficulty, _ := domain.ParseDifficulty(req.Difficulty)

	chunks, err := s.retriever.Retrieve(ctx, req.Topic, req.QuestionCount, userID)
	if err != nil {
		return nil, err
	}

	quiz := domain.NewQuiz(util.NewULID(), userID, req.Name, difficulty, req.Topic, req.QuestionCount, req.TimeLimitMinutes)
	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, domain.NewInternalError("Failed to create quiz record", err)
	}

	dist := CalculateDistribution(quiz.QuestionCount)
	tasks := CreateTasks(chunks, quiz, dist, req.AdditionalInstructions)

	s.logger.Info("Created quiz, dispatching generation tasks",
		zap.String("quiz_id", quiz.ID),
		zap.String("user_id", userID),
		zap.Int("question_count", quiz.QuestionCount),
		zap.Int("worker_count", dist.WorkerCount),
		zap.Int("chunk_count", len(chunks)),
	)

	if err := s.dispatcher.Dispatch(ctx, tasks); err != nil {
		if markErr := s.repo.MarkError(ctx, quiz.ID, "Failed to dispatch generation tasks"); markErr != nil {
			s.logger.Error("Failed to mark quiz as errored after dispatch failure",
				zap.String("quiz_id", quiz.ID),
				zap.Error(markErr),
			)
		}
		return nil, err
	}

	return &dto.CreateQuizResponse{
		QuizID: quiz.ID,
		Status: string(quiz.Status),
	}, nil
}

// GetQuiz returns a user's quiz with its generation progress. Questions
// are included only once the quiz is ready. A quiz owned by another user
// is reported as not found.
func (s *QuizService) GetQuiz(ctx context.Context, userID, quizID string) (*dto.QuizResponse, error) {
	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	resp := &dto.QuizResponse{
		ID:               quiz.ID,
		Name:             quiz.Name,
		Difficulty:       string(quiz.Difficulty),
		Topic:            quiz.Topic,
		QuestionCount:    quiz.QuestionCount,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		Status:           string(quiz.Status),
		ErrorMessage:     quiz.ErrorMessage,
		CreatedAt:        quiz.CreatedAt,
		CompletedAt:      quiz.CompletedAt,
	}

	switch quiz.Status {
	case domain.StatusReady:
		resp.Progress = 100
		resp.Questions = toQuestionResponses(quiz.Questions)
	case domain.StatusProcessing:
		count, err := s.repo.CountQuestions(ctx, quizID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to count questions", err)
		}
		progress := count * 100 / quiz.QuestionCount
		if progress > 100 {
			progress = 100
		}
		resp.Progress = progress
	}

	return resp, nil
}

// ListQuizzes returns the user's quizzes, newest first, without question
// payloads.
func (s *QuizService) ListQuizzes(ctx context.Context, userID string) (*dto.QuizListResponse, error) {
	quizzes, err := s.repo.GetQuizzesByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}

	summaries := make([]dto.QuizSummaryResponse, 0, len(quizzes))
	for _, q := range quizzes {
		summaries = append(summaries, dto.QuizSummaryResponse{
			ID:            q.ID,
			Name:          q.Name,
			Difficulty:    string(q.Difficulty),
			QuestionCount: q.QuestionCount,
			Status:        string(q.Status),
			CreatedAt:     q.CreatedAt,
		})
	}

	return &dto.QuizListResponse{Quizzes: summaries}, nil
}

// DeleteQuiz removes a user's quiz. In-flight tasks for a deleted quiz
// are dropped by workers when the record no longer exists.
func (s *QuizService) DeleteQuiz(ctx context.Context, userID, quizID string) error {
	return s.repo.DeleteQuiz(ctx, quizID, userID)
}

func toQuestionResponses(questions []domain.Question) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, dto.QuestionResponse{
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
			Difficulty:   string(q.Difficulty),
		})
	}
	return out
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/util"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB.
//
// Workers share no memory; all coordination runs through this table.
// Question appends are plain INSERTs into quiz_questions (additive and
// order-independent), and the one-shot ready transition is a conditional
// UPDATE guarded on the current status.
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

type quizModel struct {
	ID               string         `db:"id"`
	UserID           string         `db:"user_id"`
	Name             string         `db:"name"`
	Difficulty       string         `db:"difficulty"`
	Topic            sql.NullString `db:"topic"`
	QuestionCount    int            `db:"question_count"`
	TimeLimitMinutes int            `db:"time_limit_minutes"`
	Status           string         `db:"status"`
	Questions        []byte         `db:"questions"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	CompletedAt      sql.NullTime   `db:"completed_at"`
}

const quizColumns = `id, user_id, name, difficulty, topic, question_count,
	time_limit_minutes, status, questions, error_message,
	created_at, updated_at, completed_at`

// CreateQuiz implements domain.QuizRepository
func (a *QuizDatabaseAdapter) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	model, err := toQuizModel(quiz)
	if err != nil {
		return err
	}

	query := `INSERT INTO quizzes (
		id, user_id, name, difficulty, topic, question_count,
		time_limit_minutes, status, questions, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)`

	_, err = a.db.ExecContext(ctx, query,
		model.ID,
		model.UserID,
		model.Name,
		model.Difficulty,
		model.Topic,
		model.QuestionCount,
		model.TimeLimitMinutes,
		model.Status,
		model.Questions,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetQuizByID implements domain.QuizRepository. It returns nil when no
// row exists.
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var model quizModel
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`

	err := a.db.GetContext(ctx, &model, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}
	return toDomainQuiz(&model)
}

// GetQuizzesByUser implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetQuizzesByUser(ctx context.Context, userID string) ([]*domain.Quiz, error) {
	var models []quizModel
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`

	if err := a.db.SelectContext(ctx, &models, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes for user %s: %w", userID, err)
	}

	quizzes := make([]*domain.Quiz, 0, len(models))
	for i := range models {
		quiz, err := toDomainQuiz(&models[i])
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// DeleteQuiz implements domain.QuizRepository
func (a *QuizDatabaseAdapter) DeleteQuiz(ctx context.Context, id, userID string) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM quizzes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewQuizNotFoundError(id)
	}
	return nil
}

// AppendQuestions implements domain.QuizRepository. Each question becomes
// one quiz_questions row; nothing existing is touched, so concurrent
// workers never conflict.
func (a *QuizDatabaseAdapter) AppendQuestions(ctx context.Context, quizID string, workerIndex int, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO quiz_questions (id, quiz_id, worker_index, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now()
	for i := range questions {
		payload, err := json.Marshal(questions[i])
		if err != nil {
			return fmt.Errorf("failed to marshal question: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, util.NewULID(), quizID, workerIndex, payload, now); err != nil {
			return fmt.Errorf("failed to append question to quiz %s: %w", quizID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit question append: %w", err)
	}
	return nil
}

// CountQuestions implements domain.QuizRepository
func (a *QuizDatabaseAdapter) CountQuestions(ctx context.Context, quizID string) (int, error) {
	var count int
	err := a.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM quiz_questions WHERE quiz_id = $1`, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions for quiz %s: %w", quizID, err)
	}
	return count, nil
}

// GetPendingQuestions implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetPendingQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var payloads [][]byte
	err := a.db.SelectContext(ctx, &payloads,
		`SELECT payload FROM quiz_questions WHERE quiz_id = $1 ORDER BY created_at, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending questions for quiz %s: %w", quizID, err)
	}

	questions := make([]domain.Question, 0, len(payloads))
	for _, p := range payloads {
		var q domain.Question
		if err := json.Unmarshal(p, &q); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// MarkReady implements domain.QuizRepository. The WHERE clause on the
// current status makes the processing -> ready transition happen at most
// once; a second caller sees zero rows affected.
func (a *QuizDatabaseAdapter) MarkReady(ctx context.Context, quizID string, questions []domain.Question, completedAt time.Time) (bool, error) {
	payload, err := json.Marshal(questions)
	if err != nil {
		return false, fmt.Errorf("failed to marshal final questions: %w", err)
	}

	query := `UPDATE quizzes SET
		status = $1,
		questions = $2,
		completed_at = $3,
		updated_at = $4
	WHERE id = $5
	  AND status = $6`

	result, err := a.db.ExecContext(ctx, query,
		string(domain.StatusReady),
		payload,
		completedAt,
		time.Now(),
		quizID,
		string(domain.StatusProcessing),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark quiz %s ready: %w", quizID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkError implements domain.QuizRepository
func (a *QuizDatabaseAdapter) MarkError(ctx context.Context, quizID, message string) error {
	query := `UPDATE quizzes SET
		status = $1,
		error_message = $2,
		updated_at = $3
	WHERE id = $4
	  AND status = $5`

	_, err := a.db.ExecContext(ctx, query,
		string(domain.StatusError),
		message,
		time.Now(),
		quizID,
		string(domain.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("failed to mark quiz %s as error: %w", quizID, err)
	}
	return nil
}

func toQuizModel(quiz *domain.Quiz) (*quizModel, error) {
	if quiz == nil {
		return nil, fmt.Errorf("cannot map nil quiz")
	}
	questions := quiz.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	return &quizModel{
		ID:               quiz.ID,
		UserID:           quiz.UserID,
		Name:             quiz.Name,
		Difficulty:       string(quiz.Difficulty),
		Topic:            util.StringToNullString(quiz.Topic),
		QuestionCount:    quiz.QuestionCount,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		Status:           string(quiz.Status),
		Questions:        payload,
		ErrorMessage:     util.StringToNullString(quiz.ErrorMessage),
		CreatedAt:        quiz.CreatedAt,
		UpdatedAt:        quiz.UpdatedAt,
	}, nil
}

func toDomainQuiz(model *quizModel) (*domain.Quiz, error) {
	var questions []domain.Question
	if len(model.Questions) > 0 {
		if err := json.Unmarshal(model.Questions, &questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions for quiz %s: %w", model.ID, err)
		}
	}

	quiz := &domain.Quiz{
		ID:               model.ID,
		UserID:           model.UserID,
		Name:             model.Name,
		Difficulty:       domain.Difficulty(model.Difficulty),
		Topic:            model.Topic.String,
		QuestionCount:    model.QuestionCount,
		TimeLimitMinutes: model.TimeLimitMinutes,
		Status:           domain.QuizStatus(model.Status),
		Questions:        questions,
		ErrorMessage:     model.ErrorMessage.String,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if model.CompletedAt.Valid {
		t := model.CompletedAt.Time
		quiz.CompletedAt = &t
	}
	return quiz, nil
}

package dto

import "time"

// CreateQuizRequest represents the quiz creation request body
// @Description Request body for creating a quiz
type CreateQuizRequest struct {
	Name                   string `json:"name"`
	Difficulty             string `json:"difficulty"`
	Topic                  string `json:"topic,omitempty"`
	QuestionCount          int    `json:"question_count"`
	TimeLimitMinutes       int    `json:"time_limit_minutes"`
	AdditionalInstructions string `json:"additional_instructions,omitempty"`
}

// CreateQuizResponse acknowledges an accepted quiz creation request.
// Generation continues asynchronously; poll GetQuiz for progress.
type CreateQuizResponse struct {
	QuizID string `json:"quiz_id"`
	Status string `json:"status"`
}

// QuestionResponse represents a single question in the API response
type QuestionResponse struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz information including generation progress
type QuizResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Difficulty       string             `json:"difficulty"`
	Topic            string             `json:"topic,omitempty"`
	QuestionCount    int                `json:"question_count"`
	TimeLimitMinutes int                `json:"time_limit_minutes"`
	Status           string             `json:"status"`
	Progress         int                `json:"progress"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
}

// QuizSummaryResponse represents a quiz in list responses, without the
// question payload.
type QuizSummaryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Difficulty    string    `json:"difficulty"`
	QuestionCount int       `json:"question_count"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// QuizListResponse wraps a user's quizzes
type QuizListResponse struct {
	Quizzes []QuizSummaryResponse `json:"quizzes"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}

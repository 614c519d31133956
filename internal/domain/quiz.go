package domain

import (
	"strings"
	"time"
)

// QuizStatus is the closed set of lifecycle states for a quiz.
type QuizStatus string

const (
	StatusProcessing QuizStatus = "processing"
	StatusReady      QuizStatus = "ready"
	StatusError      QuizStatus = "error"
)

// IsValid reports whether s is one of the known statuses.
func (s QuizStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}

// Difficulty is the closed set of difficulty tags.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is one of the known difficulty tags.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty normalizes a raw difficulty string.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// SupportedQuestionCounts are the request sizes the distribution table covers.
var SupportedQuestionCounts = []int{10, 20, 30}

// Question is a single multiple-choice question. Immutable once accepted
// by the response validator.
type Question struct {
	Text         string     `json:"text"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Explanation  string     `json:"explanation"`
	Difficulty   Difficulty `json:"difficulty"`
}

// NormalizedText returns the dedup key for a question: its text, trimmed
// and lowercased.
func (q Question) NormalizedText() string {
	return strings.ToLower(strings.TrimSpace(q.Text))
}

// Quiz is the persisted quiz record. It is owned by the generation
// pipeline from creation to finalization: workers append questions,
// the finalizer replaces the list and transitions the status.
type Quiz struct {
	ID               string
	UserID           string
	Name             string
	Difficulty       Difficulty
	Topic            string
	QuestionCount    int
	TimeLimitMinutes int
	Status           QuizStatus
	Questions        []Question
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

// NewQuiz creates a quiz record in the processing state.
func NewQuiz(id, userID, name string, difficulty Difficulty, topic string, questionCount, timeLimitMinutes int) *Quiz {
	now := time.Now()
	return &Quiz{
		ID:               id,
		UserID:           userID,
		Name:             name,
		Difficulty:       difficulty,
		Topic:            topic,
		QuestionCount:    questionCount,
		TimeLimitMinutes: timeLimitMinutes,
		Status:           StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RetrievedChunk is a span of source-document text returned by the
// vector index. Produced once by the retriever and never persisted
// independently of the quiz.
type RetrievedChunk struct {
	ID     string
	Text   string
	FileID string
	Score  float64
}

// TaskChunk is the chunk payload carried inside a worker task message.
type TaskChunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// WorkerTask is one unit of question-generation work. It is created by
// the distributor, sent through the durable queue, and consumed by a
// single worker invocation. The queue may redeliver it.
//
// WorkerIndex is diagnostic only and must never be used for
// coordination: completion is tracked from persisted question counts.
type WorkerTask struct {
	QuizID        string      `json:"quiz_id"`
	Chunks        []TaskChunk `json:"chunks"`
	Difficulty    Difficulty  `json:"difficulty"`
	Topic         string      `json:"topic,omitempty"`
	Instructions  string      `json:"instructions,omitempty"`
	QuestionCount int         `json:"question_count"`
	WorkerIndex   int         `json:"worker_index"`
}

// SourceFile is an uploaded document registered for a user. Upload and
// text extraction happen outside this service; the pipeline only cares
// whether a file is enabled for retrieval.
type SourceFile struct {
	ID        string
	UserID    string
	Name      string
	Enabled   bool
	CreatedAt time.Time
}

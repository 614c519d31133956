package quizgen

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// OpenAIQuestionGenerator implements the domain.QuestionGenerator interface
// using a LangchainGo model. The response is returned as opaque text; the
// response validator owns its interpretation. LangchainGo owns retry and
// backoff for the underlying API call.
type OpenAIQuestionGenerator struct {
	llm    llms.Model
	logger *zap.Logger
}

// NewOpenAIQuestionGenerator creates a new generator around an initialized model.
func NewOpenAIQuestionGenerator(llm llms.Model, logger *zap.Logger) (*OpenAIQuestionGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm client cannot be nil")
	}
	return &OpenAIQuestionGenerator{llm: llm, logger: logger}, nil
}

// Generate builds the prompt from the task's chunk texts and invokes the model.
func (g *OpenAIQuestionGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	prompt := buildPrompt(req)

	g.logger.Debug("Invoking LLM for question generation",
		zap.Int("num_chunks", len(req.ChunkTexts)),
		zap.Int("question_count", req.QuestionCount),
		zap.String("difficulty", string(req.Difficulty)),
	)

	raw, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return raw, nil
}

func buildPrompt(req domain.GenerationRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"You are an expert quiz author. Create exactly %d multiple-choice questions of %s difficulty from the study material below.\n\n",
		req.QuestionCount, req.Difficulty,
	))
	if req.Topic != "" {
		sb.WriteString(fmt.Sprintf("Focus the questions on the topic: %s\n\n", req.Topic))
	}
	if req.Instructions != "" {
		sb.WriteString(fmt.Sprintf("Additional instructions from the quiz owner: %s\n\n", req.Instructions))
	}

	sb.WriteString("Study material:\n")
	for i, chunk := range req.ChunkTexts {
		sb.WriteString(fmt.Sprintf("--- Excerpt %d ---\n%s\n", i+1, chunk))
	}

	sb.WriteString(`
Respond with a single JSON array. Each element must have:
  "text": the question text,
  "options": an array of exactly 4 distinct answer options,
  "correct_index": the 0-based index of the correct option,
  "explanation": why the correct option is right,
  "difficulty": one of "easy", "medium", "hard".

Do not include any prose outside the JSON array.
`)

	return sb.String()
}

var _ domain.QuestionGenerator = (*OpenAIQuestionGenerator)(nil)

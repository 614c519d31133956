package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validQuestionJSON(i int) string {
	return fmt.Sprintf(`{
		"text": "What is concept %d?",
		"options": ["alpha %d", "beta %d", "gamma %d", "delta %d"],
		"correct_index": 1,
		"explanation": "Because beta is correct for concept %d.",
		"difficulty": "medium"
	}`, i, i, i, i, i, i)
}

func validQuestionsJSON(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, validQuestionJSON(i))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestParseQuestions_ValidResponse(t *testing.T) {
	questions, err := ParseQuestions(validQuestionsJSON(3), 3, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, questions, 3)

	assert.Equal(t, "What is concept 0?", questions[0].Text)
	assert.Equal(t, 1, questions[0].CorrectIndex)
	assert.Equal(t, domain.DifficultyMedium, questions[0].Difficulty)
	assert.Len(t, questions[0].Options, 4)
}

func TestParseQuestions_StripsCodeFences(t *testing.T) {
	raw := "```json\n" + validQuestionsJSON(2) + "\n```"
	questions, err := ParseQuestions(raw, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseQuestions_ExtractsArrayFromSurroundingProse(t *testing.T) {
	raw := "Here are your questions:\n" + validQuestionsJSON(2) + "\nLet me know if you need more."
	questions, err := ParseQuestions(raw, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseQuestions_ObjectWrapper(t *testing.T) {
	raw := `{"questions": ` + validQuestionsJSON(2) + `}`
	questions, err := ParseQuestions(raw, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseQuestions_RejectsInvalidElements(t *testing.T) {
	mutate := func(f func(q map[string]interface{})) string {
		var q map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(validQuestionJSON(0)), &q))
		f(q)
		b, err := json.Marshal([]interface{}{q})
		require.NoError(t, err)
		return string(b)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "three options",
			raw:  mutate(func(q map[string]interface{}) { q["options"] = []string{"a", "b", "c"} }),
		},
		{
			name: "five options",
			raw:  mutate(func(q map[string]interface{}) { q["options"] = []string{"a", "b", "c", "d", "e"} }),
		},
		{
			name: "correct_index out of range",
			raw:  mutate(func(q map[string]interface{}) { q["correct_index"] = 4 }),
		},
		{
			name: "correct_index negative",
			raw:  mutate(func(q map[string]interface{}) { q["correct_index"] = -1 }),
		},
		{
			name: "correct_index missing",
			raw:  mutate(func(q map[string]interface{}) { delete(q, "correct_index") }),
		},
		{
			name: "duplicate options",
			raw:  mutate(func(q map[string]interface{}) { q["options"] = []string{"a", "b", "A", "d"} }),
		},
		{
			name: "empty text",
			raw:  mutate(func(q map[string]interface{}) { q["text"] = "  " }),
		},
		{
			name: "empty explanation",
			raw:  mutate(func(q map[string]interface{}) { q["explanation"] = "" }),
		},
		{
			name: "unknown difficulty",
			raw:  mutate(func(q map[string]interface{}) { q["difficulty"] = "impossible" }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := ParseQuestions(tt.raw, 1, zap.NewNop())
			require.Error(t, err)
			assert.True(t, domain.IsParseError(err), "expected parse error, got %v", err)
			assert.Nil(t, questions)
		})
	}
}

func TestParseQuestions_OneBadElementRejectsWholeResponse(t *testing.T) {
	bad := `[` + validQuestionJSON(0) + `,
		{"text": "broken", "options": ["a", "b"], "correct_index": 0, "explanation": "x", "difficulty": "easy"}]`

	questions, err := ParseQuestions(bad, 2, zap.NewNop())
	require.Error(t, err)
	assert.True(t, domain.IsParseError(err))
	assert.Nil(t, questions)
	assert.Contains(t, err.Error(), "index 1")
}

func TestParseQuestions_NotJSON(t *testing.T) {
	_, err := ParseQuestions("I cannot generate questions right now.", 5, zap.NewNop())
	require.Error(t, err)
	assert.True(t, domain.IsParseError(err))
}

func TestParseQuestions_EmptyArray(t *testing.T) {
	_, err := ParseQuestions("[]", 5, zap.NewNop())
	require.Error(t, err)
	assert.True(t, domain.IsParseError(err))
}

func TestParseQuestions_CountMismatchIsNotAnError(t *testing.T) {
	questions, err := ParseQuestions(validQuestionsJSON(3), 5, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, questions, 3)
}

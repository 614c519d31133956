package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// questionPayload mirrors the JSON shape the model is asked to produce.
type questionPayload struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Difficulty   string   `json:"difficulty"`
}

// ParseQuestions parses raw model output into validated question records.
//
// Validation is fail-fast: any single invalid element rejects the entire
// response with an error naming the offending index and violated rule.
// A mismatch between expectedCount and the element count is logged, not
// rejected; the finalizer reconciles short or long totals.
func ParseQuestions(raw string, expectedCount int, logger *zap.Logger) ([]domain.Question, error) {
	stripped := stripCodeFences(raw)

	region, err := extractJSONRegion(stripped)
	if err != nil {
		return nil, err
	}

	var payloads []questionPayload
	if strings.HasPrefix(region, "{") {
		// Some models wrap the array in an object despite instructions.
		var wrapper struct {
			Questions []questionPayload `json:"questions"`
		}
		if err := json.Unmarshal([]byte(region), &wrapper); err != nil {
			return nil, domain.NewParseErrorf("Model output is not valid JSON: %v", err)
		}
		payloads = wrapper.Questions
	} else {
		if err := json.Unmarshal([]byte(region), &payloads); err != nil {
			return nil, domain.NewParseErrorf("Model output is not valid JSON: %v", err)
		}
	}

	if len(payloads) == 0 {
		return nil, domain.NewParseErrorf("Model output contains no questions")
	}

	questions := make([]domain.Question, 0, len(payloads))
	for i, p := range payloads {
		q, err := validateQuestionPayload(i, p)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	if len(questions) != expectedCount {
		logger.Warn("Model returned unexpected question count",
			zap.Int("expected", expectedCount),
			zap.Int("actual", len(questions)),
		)
	}

	return questions, nil
}

func validateQuestionPayload(index int, p questionPayload) (domain.Question, error) {
	if strings.TrimSpace(p.Text) == "" {
		return domain.Question{}, domain.NewParseError(index, "question text is empty")
	}
	if len(p.Options) != 4 {
		return domain.Question{}, domain.NewParseError(index, fmt.Sprintf("expected exactly 4 options, got %d", len(p.Options)))
	}

	seen := make(map[string]struct{}, 4)
	for _, opt := range p.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.Question{}, domain.NewParseError(index, "option text is empty")
		}
		key := strings.ToLower(strings.TrimSpace(opt))
		if _, dup := seen[key]; dup {
			return domain.Question{}, domain.NewParseError(index, fmt.Sprintf("duplicate option %q", opt))
		}
		seen[key] = struct{}{}
	}

	if p.CorrectIndex == nil {
		return domain.Question{}, domain.NewParseError(index, "correct_index is missing")
	}
	if *p.CorrectIndex < 0 || *p.CorrectIndex > 3 {
		return domain.Question{}, domain.NewParseError(index, fmt.Sprintf("correct_index %d is out of range [0, 3]", *p.CorrectIndex))
	}

	if strings.TrimSpace(p.Explanation) == "" {
		return domain.Question{}, domain.NewParseError(index, "explanation is empty")
	}

	difficulty, ok := domain.ParseDifficulty(p.Difficulty)
	if !ok {
		return domain.Question{}, domain.NewParseError(index, fmt.Sprintf("unknown difficulty %q", p.Difficulty))
	}

	return domain.Question{
		Text:         strings.TrimSpace(p.Text),
		Options:      p.Options,
		CorrectIndex: *p.CorrectIndex,
		Explanation:  strings.TrimSpace(p.Explanation),
		Difficulty:   difficulty,
	}, nil
}

// stripCodeFences removes markdown code fences surrounding the payload.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop a language hint such as "json" on the fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(s[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{[") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONRegion locates the first balanced JSON array or object in s.
// Brackets inside JSON strings are ignored.
func extractJSONRegion(s string) (string, error) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", domain.NewParseErrorf("Model output contains no JSON region")
	}

	open := s[start]
	var close byte = ']'
	if open == '{' {
		close = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", domain.NewParseErrorf("Model output contains an unbalanced JSON region")
}

package validation

import (
	"regexp"
	"strings"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
)

const (
	maxNameLength         = 200
	maxTopicLength        = 500
	maxInstructionsLength = 2000
	minTimeLimitMinute    = 1
	maxTimeLimitMinute    = 180
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateQuizRequest validates a quiz creation request
func (v *Validator) ValidateCreateQuizRequest(req dto.CreateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, domain.NewMissingFieldError("name"))
	} else if len(req.Name) > maxNameLength {
		errors = append(errors, domain.NewOutOfRangeError("name", len(req.Name), 1, maxNameLength))
	}

	if _, ok := domain.ParseDifficulty(req.Difficulty); !ok {
		errors = append(errors, domain.NewNotOneOfError("difficulty", req.Difficulty, []string{
			string(domain.DifficultyEasy),
			string(domain.DifficultyMedium),
			string(domain.DifficultyHard),
		}))
	}

	if !isSupportedQuestionCount(req.QuestionCount) {
		errors = append(errors, domain.NewNotOneOfError("question_count", req.QuestionCount, domain.SupportedQuestionCounts))
	}

	if req.TimeLimitMinutes < minTimeLimitMinute || req.TimeLimitMinutes > maxTimeLimitMinute {
		errors = append(errors, domain.NewOutOfRangeError("time_limit_minutes", req.TimeLimitMinutes, minTimeLimitMinute, maxTimeLimitMinute))
	}

	if len(req.Topic) > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", len(req.Topic), 0, maxTopicLength))
	}

	if len(req.AdditionalInstructions) > maxInstructionsLength {
		errors = append(errors, domain.NewOutOfRangeError("additional_instructions", len(req.AdditionalInstructions), 0, maxInstructionsLength))
	}

	return errors
}

// ValidateQuizID validates a quiz id path parameter
func (v *Validator) ValidateQuizID(quizID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(quizID) == "" {
		errors = append(errors, domain.NewMissingFieldError("quiz_id"))
	} else if !isValidULID(quizID) {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", quizID))
	}

	return errors
}

// ValidateUserID validates the user id carried on each request
func (v *Validator) ValidateUserID(userID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(userID) == "" {
		errors = append(errors, domain.NewMissingFieldError("user_id"))
	}

	return errors
}

func isSupportedQuestionCount(count int) bool {
	for _, c := range domain.SupportedQuestionCounts {
		if count == c {
			return true
		}
	}
	return false
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Check if all characters are valid base32 (Crockford's Base32)
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

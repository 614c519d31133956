package handler

import (
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// userIDHeader carries the authenticated user's id, injected by the API
// gateway in front of this service.
const userIDHeader = "X-User-ID"

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   *service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service *service.QuizService, validator *validation.Validator) *QuizHandler {
	return &QuizHandler{
		service:   service,
		validator: validator,
	}
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Description Starts asynchronous quiz generation and returns the quiz id
// @Tags quiz
// @Accept json
// @Produce json
// @Param quiz body dto.CreateQuizRequest true "Quiz Request"
// @Success 202 {object} dto.CreateQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if errs := h.validator.ValidateUserID(userID); len(errs) > 0 {
		return errs
	}

	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := h.validator.ValidateCreateQuizRequest(req); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.CreateQuiz(c.Context(), userID, req)
	if err != nil {
		return err
	}

	logger.Get().Info("Accepted quiz creation request",
		zap.String("quiz_id", resp.QuizID),
		zap.String("user_id", userID),
	)
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Returns a quiz with its generation progress and, once ready, its questions
// @Tags quiz
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} dto.QuizResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if errs := h.validator.ValidateUserID(userID); len(errs) > 0 {
		return errs
	}

	quizID := c.Params("id")
	if errs := h.validator.ValidateQuizID(quizID); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.GetQuiz(c.Context(), userID, quizID)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// ListQuizzes godoc
// @Summary List quizzes
// @Description Returns the user's quizzes, newest first
// @Tags quiz
// @Produce json
// @Success 200 {object} dto.QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if errs := h.validator.ValidateUserID(userID); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.ListQuizzes(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

// DeleteQuiz godoc
// @Summary Delete a quiz
// @Description Removes a quiz; in-flight generation tasks are dropped by workers
// @Tags quiz
// @Param id path string true "Quiz ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if errs := h.validator.ValidateUserID(userID); len(errs) > 0 {
		return errs
	}

	quizID := c.Params("id")
	if errs := h.validator.ValidateQuizID(quizID); len(errs) > 0 {
		return errs
	}

	if err := h.service.DeleteQuiz(c.Context(), userID, quizID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

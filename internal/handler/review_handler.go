package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/repository"
	"github.com/aokijuku/grammar-coach-api/internal/service"
	"github.com/aokijuku/grammar-coach-api/internal/utils"
)

// ReviewHandler manages submission and detail endpoints.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.detail)
}

func (h *ReviewHandler) create(c *fiber.Ctx) error {
	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *ReviewHandler) detail(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "id is required")
	}

	result, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.ReviewDetailResponse{Result: result})
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	logger := requestLogger(h.logger, c)

	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, repository.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "result not found")
	case errors.Is(err, service.ErrStoreNotConfigured):
		logger.Error().Err(err).Msg("record store not configured")
		return utils.SendError(c, fiber.StatusInternalServerError, "server config error")
	case errors.Is(err, service.ErrGradingFailed):
		logger.Error().Err(err).Msg("grading stage failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "server error")
	}
}

package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/service"
	"github.com/aokijuku/grammar-coach-api/internal/utils"
)

// HistoryHandler serves the per-user review history.
type HistoryHandler struct {
	service service.HistoryService
	logger  zerolog.Logger
}

// NewHistoryHandler builds a history handler instance.
func NewHistoryHandler(service service.HistoryService, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger.With().Str("component", "history_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *HistoryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *HistoryHandler) list(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "userId is required")
	}

	entries, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		logger := requestLogger(h.logger, c)
		if errors.Is(err, service.ErrStoreNotConfigured) {
			logger.Error().Err(err).Msg("record store not configured")
			return utils.SendError(c, fiber.StatusInternalServerError, "server config error")
		}
		logger.Error().Err(err).Msg("failed to load history")
		return utils.SendError(c, fiber.StatusInternalServerError, "server error")
	}

	if entries == nil {
		entries = []dto.HistoryEntry{}
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.HistoryResponse{History: entries})
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/internal/utils"
)

// FeeHandler handles fee accrual and listing.
type FeeHandler struct {
	service service.FeeService
	logger  zerolog.Logger
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(service service.FeeService, logger zerolog.Logger) *FeeHandler {
	return &FeeHandler{
		service: service,
		logger:  logger.With().Str("component", "fee_handler").Logger(),
	}
}

// Register wires fee routes.
func (h *FeeHandler) Register(router fiber.Router) {
	router.Post("", h.accrue)
	router.Get("", h.list)
}

func (h *FeeHandler) accrue(c *fiber.Ctx) error {
	var req dto.FeeCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Accrue(c.Context(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendValidationError(c, err)
		case errors.Is(err, service.ErrInvalidAmount):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to accrue fee")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save fee")
	}

	if result.Merged {
		return utils.SendSuccess(c, "fee merged", result)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "fee created", result)
}

func (h *FeeHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classId")
	}
	studentID, err := parseQueryUint(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid studentId")
	}

	fees, err := h.service.List(c.Context(), repository.FeeFilter{ClassID: classID, StudentID: studentID})
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list fees")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list fees")
	}

	return utils.SendSuccess(c, "fees retrieved", fees)
}

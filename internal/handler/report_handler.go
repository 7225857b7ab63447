package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/internal/utils"
)

// ReportHandler manages recurring report schedules.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register wires report schedule routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Post("/schedule", h.schedule)
	router.Get("/schedule", h.list)
	router.Put("/schedule", h.setActive)
	router.Delete("/schedule", h.delete)
}

func (h *ReportHandler) schedule(c *fiber.Ctx) error {
	var req dto.ScheduleReportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.service.Schedule(c.Context(), req)
	if err != nil {
		if isValidationError(err) {
			return utils.SendValidationError(c, err)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to schedule report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to schedule report")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report scheduled", report)
}

func (h *ReportHandler) list(c *fiber.Ctx) error {
	reports, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list report schedules")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list report schedules")
	}
	return utils.SendSuccess(c, "report schedules retrieved", reports)
}

func (h *ReportHandler) setActive(c *fiber.Ctx) error {
	id, err := parseQueryUint(c, "id")
	if err != nil || id == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "id is required")
	}

	var active bool
	switch c.Query("action") {
	case "stop":
		active = false
	case "resume":
		active = true
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "action must be stop or resume")
	}

	report, err := h.service.SetActive(c.Context(), *id, active)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "report schedule not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update report schedule")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update report schedule")
	}

	return utils.SendSuccess(c, "report schedule updated", report)
}

func (h *ReportHandler) delete(c *fiber.Ctx) error {
	id, err := parseQueryUint(c, "id")
	if err != nil || id == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "id is required")
	}

	if err := h.service.Delete(c.Context(), *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "report schedule not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete report schedule")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete report schedule")
	}

	return utils.SendSuccess(c, "report schedule deleted", nil)
}

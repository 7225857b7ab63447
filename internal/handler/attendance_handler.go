package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/service"
	"github.com/classtrack/classtrack-api/internal/utils"
)

// AttendanceHandler handles attendance reconciliation and reads.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register wires attendance routes.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Put("", h.reconcile)
	router.Get("", h.list)
	router.Get("/stats", h.stats)
}

func (h *AttendanceHandler) reconcile(c *fiber.Ctx) error {
	var records []dto.AttendanceRecordRequest
	if err := c.BodyParser(&records); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Reconcile(c.Context(), records)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendValidationError(c, err)
		case errors.Is(err, service.ErrFutureAttendanceDate):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to reconcile attendance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save attendance")
	}

	return utils.SendSuccess(c, "attendance saved", result)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "classId")
	if err != nil || classID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "classId is required")
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dto.DateLayout, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid date")
		}
		date = &parsed
	}

	rows, err := h.service.List(c.Context(), *classID, date)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list attendance")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list attendance")
	}

	return utils.SendSuccess(c, "attendance retrieved", rows)
}

func (h *AttendanceHandler) stats(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "classId")
	if err != nil || classID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "classId is required")
	}

	stats, err := h.service.Stats(c.Context(), *classID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute attendance stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}

	if stats.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "attendance stats retrieved", stats)
}

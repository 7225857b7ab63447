package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/scheduler"
	"github.com/classtrack/classtrack-api/internal/utils"
)

// CronHandler exposes the scheduled job table to operators.
type CronHandler struct {
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
}

// NewCronHandler constructs the handler.
func NewCronHandler(sched *scheduler.Scheduler, logger zerolog.Logger) *CronHandler {
	return &CronHandler{
		scheduler: sched,
		logger:    logger.With().Str("component", "cron_handler").Logger(),
	}
}

// Register wires the cron admin routes.
func (h *CronHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.control)
}

func (h *CronHandler) list(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "jobs retrieved", h.scheduler.Status())
}

type cronControlRequest struct {
	Action string `json:"action"`
	JobID  string `json:"job_id"`
}

func (h *CronHandler) control(c *fiber.Ctx) error {
	var req cronControlRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Action {
	case "start-all":
		h.scheduler.Start()
		return utils.SendSuccess(c, "scheduler started", h.scheduler.Status())
	case "stop-all":
		h.scheduler.Stop()
		return utils.SendSuccess(c, "scheduler stopped", h.scheduler.Status())
	case "run-one":
		if req.JobID == "" {
			return utils.SendError(c, fiber.StatusBadRequest, "job_id is required")
		}
		if err := h.scheduler.RunNow(req.JobID); err != nil {
			requestLogger(h.logger, c).Error().Err(err).Str("job", req.JobID).Msg("manual job run failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
		return utils.SendSuccess(c, "job executed", h.scheduler.Status())
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "action must be start-all, stop-all, or run-one")
	}
}

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

// UserHandler handles authentication, the approval workflow, and
// notification preferences.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// RegisterAuth wires the unauthenticated signup/signin routes.
func (h *UserHandler) RegisterAuth(router fiber.Router) {
	router.Post("/signup", h.signUp)
	router.Post("/signin", h.signIn)
}

// Register wires the authenticated user routes.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/preferences", h.getPreferences)
	router.Put("/preferences", h.updatePreferences)
	router.Delete("/:id", h.delete)
}

// RegisterAdmin wires the admin-only user routes.
func (h *UserHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/approve", h.approve)
	router.Get("/activity", h.recentActivity)
}

func (h *UserHandler) recentActivity(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.service.RecentActivity(c.Context(), limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activity")
	}
	return utils.SendSuccess(c, "activity retrieved", entries)
}

func (h *UserHandler) signUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.SignUp(c.Context(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendValidationError(c, err)
		case errors.Is(err, service.ErrEmailTaken):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to sign up user")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to sign up")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created, awaiting approval", user)
}

func (h *UserHandler) signIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	auth, err := h.service.SignIn(c.Context(), req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendValidationError(c, err)
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrNotApproved):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to sign in user")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to sign in")
	}

	return utils.SendSuccess(c, "signed in", auth)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	users, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list users")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list users")
	}
	return utils.SendSuccess(c, "users retrieved", users)
}

func (h *UserHandler) approve(c *fiber.Ctx) error {
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 || req.Approved == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "user_id and approved are required")
	}

	actor := actorFromContext(c)
	if *req.Approved {
		user, err := h.service.Approve(c.Context(), actor, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "user not found")
			}
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to approve user")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to approve user")
		}
		return utils.SendSuccess(c, "user approved", user)
	}

	if err := h.service.Reject(c.Context(), actor, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to reject user")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to reject user")
	}
	return utils.SendSuccess(c, "user rejected", nil)
}

func (h *UserHandler) delete(c *fiber.Ctx) error {
	id, err := parseParamID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete user")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	return utils.SendSuccess(c, "user deleted", nil)
}

func (h *UserHandler) getPreferences(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	prefs, err := h.service.GetPreferences(c.Context(), userID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load preferences")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load preferences")
	}

	return utils.SendSuccess(c, "preferences retrieved", prefs)
}

func (h *UserHandler) updatePreferences(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req dto.PreferenceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	prefs, err := h.service.UpdatePreferences(c.Context(), userID, req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update preferences")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update preferences")
	}

	return utils.SendSuccess(c, "preferences updated", prefs)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/observability"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

// NotificationService fans out domain events as notification rows and emails.
type NotificationService interface {
	// Create writes a broadcast row when no targets are given; otherwise it
	// delivers per target according to the user's stored preferences. One
	// user's failure never blocks the remaining targets.
	Create(ctx context.Context, event dto.NotificationEvent, targetUserIDs ...uint) ([]dto.NotificationResponse, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	// ResolveEntity marks every unread notification about one entity read,
	// used when a pending-approval notification is acted on.
	ResolveEntity(ctx context.Context, entityType string, entityID uint) error
	// CleanupExpired removes rows older than the given age.
	CleanupExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	prefs       repository.PreferenceRepository
	users       repository.UserRepository
	mail        mailer.Mailer
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
}

// NewNotificationService constructs the fan-out service. natsConn may be nil
// when no broker is configured.
func NewNotificationService(
	repo repository.NotificationRepository,
	prefs repository.PreferenceRepository,
	users repository.UserRepository,
	mail mailer.Mailer,
	natsConn *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		repo:        repo,
		prefs:       prefs,
		users:       users,
		mail:        mail,
		nats:        natsConn,
		natsSubject: "classtrack.notifications",
		validator:   validate,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/classtrack/classtrack-api/internal/service/notification"),
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *notificationService) Create(ctx context.Context, event dto.NotificationEvent, targetUserIDs ...uint) ([]dto.NotificationResponse, error) {
	if err := s.validator.Struct(event); err != nil {
		return nil, err
	}

	// Strip any HTML; the ** emphasis markers survive sanitization.
	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(event.Message))
	if cleanMessage == "" {
		return nil, errors.New("notification message empty after sanitization")
	}
	event.Message = cleanMessage

	spanCtx, span := s.tracer.Start(ctx, "notifications.create", trace.WithAttributes(
		attribute.String("notification.type", event.Type),
		attribute.Int("notification.targets", len(targetUserIDs)),
	))
	defer span.End()

	if len(targetUserIDs) == 0 {
		row := s.buildRow(event, nil)
		if err := s.repo.Create(spanCtx, &row); err != nil {
			span.RecordError(err)
			return nil, err
		}

		observability.NotificationsCreated().WithLabelValues(event.Type, "broadcast").Inc()
		response := dto.NewNotificationResponse(row)
		s.publish(response)
		return []dto.NotificationResponse{response}, nil
	}

	created := make([]dto.NotificationResponse, 0, len(targetUserIDs))
	for _, userID := range targetUserIDs {
		push, email := s.lookupPreferences(spanCtx, userID)

		if push {
			userID := userID
			row := s.buildRow(event, &userID)
			if err := s.repo.Create(spanCtx, &row); err != nil {
				s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to create notification row")
			} else {
				observability.NotificationsCreated().WithLabelValues(event.Type, "targeted").Inc()
				response := dto.NewNotificationResponse(row)
				created = append(created, response)
				s.publish(response)
			}
		}

		if email {
			if err := s.sendEmail(spanCtx, userID, event); err != nil {
				observability.EmailsSent().WithLabelValues("error").Inc()
				s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to email notification")
			} else {
				observability.EmailsSent().WithLabelValues("ok").Inc()
			}
		}
	}

	return created, nil
}

func (s *notificationService) buildRow(event dto.NotificationEvent, userID *uint) models.Notification {
	return models.Notification{
		Title:      event.Title,
		Message:    event.Message,
		Type:       event.Type,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		ActorName:  event.ActorName,
		Action:     event.Action,
		UserID:     userID,
	}
}

// lookupPreferences falls back to push on, email off when no row exists.
func (s *notificationService) lookupPreferences(ctx context.Context, userID uint) (push, email bool) {
	pref, err := s.prefs.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to load preferences, using defaults")
		}
		return true, false
	}
	return pref.PushNotifications, pref.EmailUpdates
}

func (s *notificationService) sendEmail(ctx context.Context, userID uint, event dto.NotificationEvent) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	return s.mail.Send(ctx, mailer.Message{
		ToName:   user.Name,
		ToEmail:  user.Email,
		Subject:  event.Title,
		TextBody: RenderMessageText(event.Message),
		HTMLBody: RenderMessageHTML(event.Message),
	})
}

// publish forwards the notification to NATS for external consumers. Nil-safe
// and best-effort.
func (s *notificationService) publish(response dto.NotificationResponse) {
	if s.nats == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal notification event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification event")
	}
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	rows, err := s.repo.ListVisible(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(rows), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	row, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return dto.NotificationResponse{}, err
	}
	return dto.NewNotificationResponse(row), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) ResolveEntity(ctx context.Context, entityType string, entityID uint) error {
	_, err := s.repo.MarkReadByEntity(ctx, entityType, entityID)
	return err
}

func (s *notificationService) CleanupExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	deleted, err := s.repo.DeleteOlderThan(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		observability.NotificationsPurged().Add(float64(deleted))
		s.logger.Info().Int64("deleted", deleted).Msg("purged expired notifications")
	}

	return deleted, nil
}

package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/service"
)

type mockNotificationService struct {
	listed      []dto.NotificationResponse
	unread      int64
	markReadErr error
	markedAll   bool
}

func (m *mockNotificationService) Create(_ context.Context, event dto.NotificationEvent, _ ...uint) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (m *mockNotificationService) List(_ context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	return m.listed, nil
}

func (m *mockNotificationService) UnreadCount(_ context.Context, userID uint) (int64, error) {
	return m.unread, nil
}

func (m *mockNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	if m.markReadErr != nil {
		return dto.NotificationResponse{}, m.markReadErr
	}
	return dto.NotificationResponse{ID: id, IsRead: true}, nil
}

func (m *mockNotificationService) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	m.markedAll = true
	return 3, nil
}

func (m *mockNotificationService) ResolveEntity(_ context.Context, entityType string, entityID uint) error {
	return nil
}

func (m *mockNotificationService) CleanupExpired(_ context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

func newNotificationApp(svc service.NotificationService, userID uint) *fiber.App {
	app := fiber.New()
	if userID != 0 {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("user_id", userID)
			return c.Next()
		})
	}
	handler.NewNotificationHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/notifications"))
	return app
}

func TestNotificationHandler_ListRequiresAuth(t *testing.T) {
	app := newNotificationApp(&mockNotificationService{}, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestNotificationHandler_ListSuccess(t *testing.T) {
	svc := &mockNotificationService{listed: []dto.NotificationResponse{{ID: 1, Title: "Attendance Taken"}}}
	app := newNotificationApp(svc, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "Attendance Taken", body.Data[0].Title)
}

func TestNotificationHandler_UnreadCount(t *testing.T) {
	app := newNotificationApp(&mockNotificationService{unread: 4}, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Count int64 `json:"count"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(4), body.Data.Count)
}

func TestNotificationHandler_MarkReadNotFound(t *testing.T) {
	app := newNotificationApp(&mockNotificationService{markReadErr: gorm.ErrRecordNotFound}, 7)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/99/read", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	svc := &mockNotificationService{}
	app := newNotificationApp(svc, 7)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.markedAll)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Class{},
		&models.Student{},
		&models.Attendance{},
		&models.Fee{},
		&models.User{},
		&models.UserPreference{},
		&models.Notification{},
		&models.ScheduledReport{},
		&models.ActivityLog{},
	))
	return db
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func uintPtr(v uint) *uint {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// captureMailer records every message instead of sending it. Setting fail
// makes each Send return that error.
type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	fail     error
}

func (m *captureMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.messages...)
}

// recordingNotifier captures fan-out events without touching storage.
type recordingNotifier struct {
	events   []dto.NotificationEvent
	resolved []string
}

func (n *recordingNotifier) Create(ctx context.Context, event dto.NotificationEvent, targetUserIDs ...uint) ([]dto.NotificationResponse, error) {
	n.events = append(n.events, event)
	return nil, nil
}

func (n *recordingNotifier) List(ctx context.Context, userID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (n *recordingNotifier) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return 0, nil
}

func (n *recordingNotifier) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, errors.New("not implemented")
}

func (n *recordingNotifier) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return 0, nil
}

func (n *recordingNotifier) ResolveEntity(ctx context.Context, entityType string, entityID uint) error {
	n.resolved = append(n.resolved, entityType)
	return nil
}

func (n *recordingNotifier) CleanupExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

func uintPtr(value uint) *uint { return &value }

func TestNotificationRepositoryVisibility(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	broadcast := models.Notification{Title: "Class Added", Message: "ok", Type: models.NotificationTypeClass}
	mine := models.Notification{Title: "Approved", Message: "ok", Type: models.NotificationTypeUser, UserID: uintPtr(1)}
	other := models.Notification{Title: "Approved", Message: "ok", Type: models.NotificationTypeUser, UserID: uintPtr(2)}
	require.NoError(t, repo.Create(context.Background(), &broadcast))
	require.NoError(t, repo.Create(context.Background(), &mine))
	require.NoError(t, repo.Create(context.Background(), &other))

	visible, err := repo.ListVisible(context.Background(), 1, 50, 0)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	unread, err := repo.CountUnread(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), unread)
}

func TestNotificationRepositoryMarkRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	row := models.Notification{Title: "Fee Added", Message: "ok", Type: models.NotificationTypeFee, UserID: uintPtr(1)}
	require.NoError(t, repo.Create(context.Background(), &row))

	updated, err := repo.MarkRead(context.Background(), row.ID, 1)
	require.NoError(t, err)
	require.True(t, updated.IsRead)

	_, err = repo.MarkRead(context.Background(), row.ID, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	require.NoError(t, repo.Create(context.Background(), &models.Notification{Title: "A", Message: "ok", Type: models.NotificationTypeClass}))
	require.NoError(t, repo.Create(context.Background(), &models.Notification{Title: "B", Message: "ok", Type: models.NotificationTypeUser, UserID: uintPtr(1)}))
	require.NoError(t, repo.Create(context.Background(), &models.Notification{Title: "C", Message: "ok", Type: models.NotificationTypeUser, UserID: uintPtr(2)}))

	affected, err := repo.MarkAllRead(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	unread, err := repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)
}

func TestNotificationRepositoryMarkReadByEntity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	pending := models.Notification{Title: "Pending Approval", Message: "ok", Type: models.NotificationTypeUser, EntityType: "user", EntityID: uintPtr(9)}
	unrelated := models.Notification{Title: "Other", Message: "ok", Type: models.NotificationTypeUser, EntityType: "user", EntityID: uintPtr(10)}
	require.NoError(t, repo.Create(context.Background(), &pending))
	require.NoError(t, repo.Create(context.Background(), &unrelated))

	affected, err := repo.MarkReadByEntity(context.Background(), "user", 9)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, unrelated.ID).Error)
	require.False(t, reloaded.IsRead)
}

func TestNotificationRepositoryDeleteOlderThan(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	old := models.Notification{Title: "Old", Message: "ok", Type: models.NotificationTypeClass, CreatedAt: time.Now().Add(-8 * 24 * time.Hour)}
	fresh := models.Notification{Title: "Fresh", Message: "ok", Type: models.NotificationTypeClass}
	require.NoError(t, repo.Create(context.Background(), &old))
	require.NoError(t, repo.Create(context.Background(), &fresh))

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	var remaining []models.Notification
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "Fresh", remaining[0].Title)
}

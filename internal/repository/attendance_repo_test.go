package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
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

func testDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestAttendanceRepositoryUpsertKeepsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	date := testDate(t, "2024-03-01")

	first := models.Attendance{StudentID: 1, ClassID: 1, Date: date, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), &first))

	second := models.Attendance{StudentID: 1, ClassID: 1, Date: date, Status: models.AttendanceStatusLate, RecordedAt: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), &second))

	var rows []models.Attendance
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, models.AttendanceStatusLate, rows[0].Status)
}

func TestAttendanceRepositoryUpsertLeavesOtherKeysAlone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	date := testDate(t, "2024-03-01")

	other := models.Attendance{StudentID: 2, ClassID: 1, Date: date, Status: models.AttendanceStatusAbsent, RecordedAt: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), &other))

	target := models.Attendance{StudentID: 1, ClassID: 1, Date: date, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}
	require.NoError(t, repo.Upsert(context.Background(), &target))

	var untouched models.Attendance
	require.NoError(t, db.Where("student_id = ?", 2).First(&untouched).Error)
	require.Equal(t, models.AttendanceStatusAbsent, untouched.Status)
}

func TestAttendanceRepositoryListFiltersByDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	monday := testDate(t, "2024-03-04")
	tuesday := testDate(t, "2024-03-05")

	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 1, ClassID: 1, Date: monday, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 1, ClassID: 1, Date: tuesday, Status: models.AttendanceStatusAbsent, RecordedAt: time.Now()}))

	rows, err := repo.List(context.Background(), 1, &monday)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.AttendanceStatusPresent, rows[0].Status)

	all, err := repo.List(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAttendanceRepositoryCountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	date := testDate(t, "2024-03-04")

	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 1, ClassID: 1, Date: date, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 2, ClassID: 1, Date: date, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 3, ClassID: 1, Date: date, Status: models.AttendanceStatusLate, RecordedAt: time.Now()}))

	counts, err := repo.CountByStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), counts.Present)
	require.Equal(t, int64(0), counts.Absent)
	require.Equal(t, int64(1), counts.Late)
}

func TestAttendanceRepositoryListWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)

	inside := testDate(t, "2024-03-05")
	outside := testDate(t, "2024-02-01")
	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 1, ClassID: 1, Date: inside, Status: models.AttendanceStatusPresent, RecordedAt: time.Now()}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Attendance{StudentID: 1, ClassID: 1, Date: outside, Status: models.AttendanceStatusAbsent, RecordedAt: time.Now()}))

	classID := uint(1)
	rows, err := repo.ListWindow(context.Background(), testDate(t, "2024-03-01"), testDate(t, "2024-03-08"), &classID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, inside, rows[0].Date)
}

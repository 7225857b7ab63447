package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classtrack/classtrack-api/internal/models"
)

// AttendanceStatusCounts aggregates rows per status for one class.
type AttendanceStatusCounts struct {
	Present int64
	Absent  int64
	Late    int64
}

// AttendanceRepository handles persistence for attendance rows.
type AttendanceRepository interface {
	// Upsert writes the row atomically: an insert that collides with the
	// (class_id, student_id, date) unique index turns into a status update.
	Upsert(ctx context.Context, attendance *models.Attendance) error
	Exists(ctx context.Context, classID, studentID uint, date time.Time) (bool, error)
	ExistsForClassDate(ctx context.Context, classID uint, date time.Time) (bool, error)
	List(ctx context.Context, classID uint, date *time.Time) ([]models.Attendance, error)
	ListWindow(ctx context.Context, since, until time.Time, classID, studentID *uint) ([]models.Attendance, error)
	CountByStatus(ctx context.Context, classID uint) (AttendanceStatusCounts, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs a repository backed by GORM.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "class_id"}, {Name: "student_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "recorded_at"}),
	}).Create(attendance).Error
}

func (r *attendanceRepository) Exists(ctx context.Context, classID, studentID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("class_id = ? AND student_id = ? AND date = ?", classID, studentID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *attendanceRepository) ExistsForClassDate(ctx context.Context, classID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Where("class_id = ? AND date = ?", classID, date).
		Count(&count).Error
	return count > 0, err
}

func (r *attendanceRepository) List(ctx context.Context, classID uint, date *time.Time) ([]models.Attendance, error) {
	query := r.db.WithContext(ctx).Where("class_id = ?", classID)
	if date != nil {
		query = query.Where("date = ?", *date)
	}

	var rows []models.Attendance
	if err := query.Order("date DESC, student_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *attendanceRepository) ListWindow(ctx context.Context, since, until time.Time, classID, studentID *uint) ([]models.Attendance, error) {
	query := r.db.WithContext(ctx).Where("date >= ? AND date <= ?", since, until)
	if classID != nil {
		query = query.Where("class_id = ?", *classID)
	}
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var rows []models.Attendance
	if err := query.Order("date ASC, student_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *attendanceRepository) CountByStatus(ctx context.Context, classID uint) (AttendanceStatusCounts, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var results []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Attendance{}).
		Select("status, count(*) as count").
		Where("class_id = ?", classID).
		Group("status").
		Scan(&results).Error
	if err != nil {
		return AttendanceStatusCounts{}, err
	}

	var counts AttendanceStatusCounts
	for _, result := range results {
		switch result.Status {
		case models.AttendanceStatusPresent:
			counts.Present = result.Count
		case models.AttendanceStatusAbsent:
			counts.Absent = result.Count
		case models.AttendanceStatusLate:
			counts.Late = result.Count
		}
	}

	return counts, nil
}

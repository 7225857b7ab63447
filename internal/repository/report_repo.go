package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ScheduledReportRepository persists recurring report schedules.
type ScheduledReportRepository interface {
	Create(ctx context.Context, report *models.ScheduledReport) error
	List(ctx context.Context) ([]models.ScheduledReport, error)
	FindByID(ctx context.Context, id uint) (models.ScheduledReport, error)
	Update(ctx context.Context, report *models.ScheduledReport) error
	Delete(ctx context.Context, id uint) error
	// ListDue returns every active schedule whose next run has passed.
	ListDue(ctx context.Context, now time.Time) ([]models.ScheduledReport, error)
}

type scheduledReportRepository struct {
	db *gorm.DB
}

// NewScheduledReportRepository constructs a repository backed by GORM.
func NewScheduledReportRepository(db *gorm.DB) ScheduledReportRepository {
	return &scheduledReportRepository{db: db}
}

func (r *scheduledReportRepository) Create(ctx context.Context, report *models.ScheduledReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *scheduledReportRepository) List(ctx context.Context) ([]models.ScheduledReport, error) {
	var reports []models.ScheduledReport
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *scheduledReportRepository) FindByID(ctx context.Context, id uint) (models.ScheduledReport, error) {
	var report models.ScheduledReport
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return models.ScheduledReport{}, err
	}
	return report, nil
}

func (r *scheduledReportRepository) Update(ctx context.Context, report *models.ScheduledReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *scheduledReportRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ScheduledReport{}, id).Error
}

func (r *scheduledReportRepository) ListDue(ctx context.Context, now time.Time) ([]models.ScheduledReport, error) {
	var reports []models.ScheduledReport
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND next_run <= ?", true, now).
		Order("next_run ASC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

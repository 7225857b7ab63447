package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

// FeeFilter narrows fee listings.
type FeeFilter struct {
	ClassID   *uint
	StudentID *uint
}

// FeeRepository handles persistence for fee ledger rows.
type FeeRepository interface {
	FindByPair(ctx context.Context, studentID, classID uint) (models.Fee, error)
	// Create inserts a fresh ledger row. A concurrent insert for the same
	// pair loses against the unique index and surfaces
	// gorm.ErrDuplicatedKey so the caller can fall back to a merge.
	Create(ctx context.Context, fee *models.Fee) error
	Update(ctx context.Context, fee *models.Fee) error
	List(ctx context.Context, filter FeeFilter) ([]models.Fee, error)
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository constructs a repository backed by GORM.
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) FindByPair(ctx context.Context, studentID, classID uint) (models.Fee, error) {
	var fee models.Fee
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND class_id = ?", studentID, classID).
		First(&fee).Error
	if err != nil {
		return models.Fee{}, err
	}
	return fee, nil
}

func (r *feeRepository) Create(ctx context.Context, fee *models.Fee) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *feeRepository) Update(ctx context.Context, fee *models.Fee) error {
	return r.db.WithContext(ctx).Save(fee).Error
}

func (r *feeRepository) List(ctx context.Context, filter FeeFilter) ([]models.Fee, error) {
	query := r.db.WithContext(ctx).Model(&models.Fee{})
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	var fees []models.Fee
	if err := query.Order("updated_at DESC").Find(&fees).Error; err != nil {
		return nil, err
	}

	return fees, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ClassRepository handles persistence for classes.
type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id uint) (models.Class, error)
	Update(ctx context.Context, class *models.Class) error
	// Delete removes the class together with its students and their
	// attendance and fee rows, in one transaction.
	Delete(ctx context.Context, id uint) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a repository backed by GORM.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).Preload("Students").Order("created_at DESC").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *classRepository) FindByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Preload("Students").First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_id = ?", id).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.Fee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_id = ?", id).Delete(&models.Student{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Class{}, id).Error
	})
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/models"
)

// StudentRepository handles persistence for students.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	List(ctx context.Context, classID *uint) ([]models.Student, error)
	FindByID(ctx context.Context, id uint) (models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	// Delete removes the student and their attendance and fee rows.
	Delete(ctx context.Context, id uint) error
	// MoveToClass reassigns every student from one class to another in a
	// single update, used by the class upgrade workflow.
	MoveToClass(ctx context.Context, fromClassID, toClassID uint) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a repository backed by GORM.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) List(ctx context.Context, classID *uint) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if classID != nil {
		query = query.Where("class_id = ?", *classID)
	}

	var students []models.Student
	if err := query.Order("name ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) FindByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.Fee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Student{}, id).Error
	})
}

func (r *studentRepository) MoveToClass(ctx context.Context, fromClassID, toClassID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("class_id = ?", fromClassID).
		Update("class_id", toClassID)
	return result.RowsAffected, result.Error
}

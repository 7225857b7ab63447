package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ClassCreateRequest describes a new class.
type ClassCreateRequest struct {
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	Teacher     string     `json:"teacher" validate:"required,min=1,max=255"`
	Time        string     `json:"time" validate:"omitempty,max=64"`
	StartDate   string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     *time.Time `json:"end_date"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
}

// ClassUpdateRequest mutates an existing class. Nil fields are untouched.
type ClassUpdateRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Teacher     *string    `json:"teacher" validate:"omitempty,min=1,max=255"`
	Time        *string    `json:"time" validate:"omitempty,max=64"`
	EndDate     *time.Time `json:"end_date"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=active completed upgraded"`
}

// ClassUpgradeRequest creates a successor class and moves the students over.
type ClassUpgradeRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Teacher   string `json:"teacher" validate:"omitempty,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// ClassResponse is the serialized representation of a class.
type ClassResponse struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Teacher      string     `json:"teacher"`
	Time         string     `json:"time"`
	StartDate    string     `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	StudentCount int        `json:"student_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewClassResponse converts a model into a DTO.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:           class.ID,
		Name:         class.Name,
		Teacher:      class.Teacher,
		Time:         class.Time,
		StartDate:    class.StartDate.Format(DateLayout),
		EndDate:      class.EndDate,
		Description:  class.Description,
		Status:       class.Status,
		StudentCount: len(class.Students),
		CreatedAt:    class.CreatedAt,
	}
}

// NewClassResponseSlice converts a slice of models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	out := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		out = append(out, NewClassResponse(class))
	}
	return out
}

// StudentCreateRequest describes a new student.
type StudentCreateRequest struct {
	StudentID  string `json:"student_id" validate:"omitempty,max=64"`
	Name       string `json:"name" validate:"required,min=1,max=255"`
	FatherName string `json:"father_name" validate:"omitempty,max=255"`
	Phone      string `json:"phone" validate:"omitempty,max=32"`
	Gender     string `json:"gender" validate:"omitempty,oneof=male female other"`
	Email      string `json:"email" validate:"omitempty,email"`
	Avatar     string `json:"avatar" validate:"omitempty,url"`
	ClassID    uint   `json:"class_id" validate:"required"`
}

// StudentUpdateRequest mutates an existing student. Nil fields are untouched.
type StudentUpdateRequest struct {
	StudentID  *string `json:"student_id" validate:"omitempty,max=64"`
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	FatherName *string `json:"father_name" validate:"omitempty,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Avatar     *string `json:"avatar" validate:"omitempty,url"`
	ClassID    *uint   `json:"class_id"`
}

// StudentResponse is the serialized representation of a student.
type StudentResponse struct {
	ID         uint      `json:"id"`
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	FatherName string    `json:"father_name"`
	Phone      string    `json:"phone"`
	Gender     string    `json:"gender"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	ClassID    uint      `json:"class_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID,
		StudentID:  student.StudentID,
		Name:       student.Name,
		FatherName: student.FatherName,
		Phone:      student.Phone,
		Gender:     student.Gender,
		Email:      student.Email,
		Avatar:     student.Avatar,
		ClassID:    student.ClassID,
		CreatedAt:  student.CreatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, NewStudentResponse(student))
	}
	return out
}

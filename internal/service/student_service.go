package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
)

// StudentService manages student records.
type StudentService interface {
	Create(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	List(ctx context.Context, classID *uint) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type studentService struct {
	students  repository.StudentRepository
	classes   repository.ClassRepository
	notifier  NotificationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(
	students repository.StudentRepository,
	classes repository.ClassRepository,
	notifier NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:  students,
		classes:   classes,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, actor Actor, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	// The owning class must exist; surface 404 rather than a dangling FK.
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		StudentID:  req.StudentID,
		Name:       req.Name,
		FatherName: req.FatherName,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Email:      req.Email,
		Avatar:     req.Avatar,
		ClassID:    req.ClassID,
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.broadcast(ctx, "Student Added",
		fmt.Sprintf("**%s** added student **%s**", actor.Name, student.Name),
		student.ID, actor.Name, "created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, classID *uint) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, classID)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if req.StudentID != nil {
		student.StudentID = *req.StudentID
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.FatherName != nil {
		student.FatherName = *req.FatherName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Avatar != nil {
		student.Avatar = *req.Avatar
	}
	if req.ClassID != nil {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			return dto.StudentResponse{}, err
		}
		student.ClassID = *req.ClassID
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.broadcast(ctx, "Student Updated",
		fmt.Sprintf("**%s** updated student **%s**", actor.Name, student.Name),
		student.ID, actor.Name, "updated")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, actor Actor, id uint) error {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}

	s.broadcast(ctx, "Student Deleted",
		fmt.Sprintf("**%s** deleted student **%s**", actor.Name, student.Name),
		id, actor.Name, "deleted")

	return nil
}

func (s *studentService) broadcast(ctx context.Context, title, message string, studentID uint, actorName, action string) {
	event := dto.NotificationEvent{
		Title:      title,
		Message:    message,
		Type:       models.NotificationTypeStudent,
		EntityType: "student",
		EntityID:   &studentID,
		ActorName:  actorName,
		Action:     action,
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("failed to emit student notification")
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
)

// ClassService manages class lifecycle including the upgrade workflow.
type ClassService interface {
	Create(ctx context.Context, actor Actor, req dto.ClassCreateRequest) (dto.ClassResponse, error)
	List(ctx context.Context) ([]dto.ClassResponse, error)
	Get(ctx context.Context, id uint) (dto.ClassResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ClassUpdateRequest) (dto.ClassResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	// Upgrade creates a successor class, moves every student across, and
	// marks the source class upgraded.
	Upgrade(ctx context.Context, actor Actor, id uint, req dto.ClassUpgradeRequest) (dto.ClassResponse, error)
}

type classService struct {
	classes   repository.ClassRepository
	students  repository.StudentRepository
	activity  repository.ActivityLogRepository
	notifier  NotificationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService constructs the class service.
func NewClassService(
	classes repository.ClassRepository,
	students repository.StudentRepository,
	activity repository.ActivityLogRepository,
	notifier NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:   classes,
		students:  students,
		activity:  activity,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, actor Actor, req dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	startDate, err := time.Parse(dto.DateLayout, req.StartDate)
	if err != nil {
		return dto.ClassResponse{}, fmt.Errorf("invalid start date: %w", err)
	}

	class := models.Class{
		Name:        req.Name,
		Teacher:     req.Teacher,
		Time:        req.Time,
		StartDate:   startDate,
		EndDate:     req.EndDate,
		Description: req.Description,
		Status:      models.ClassStatusActive,
	}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.broadcast(ctx, "Class Added",
		fmt.Sprintf("**%s** added class **%s**", actor.Name, class.Name),
		class.ID, actor.Name, "created")

	return dto.NewClassResponse(class), nil
}

func (s *classService) List(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewClassResponseSlice(classes), nil
}

func (s *classService) Get(ctx context.Context, id uint) (dto.ClassResponse, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}
	return dto.NewClassResponse(class), nil
}

func (s *classService) Update(ctx context.Context, actor Actor, id uint, req dto.ClassUpdateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Teacher != nil {
		class.Teacher = *req.Teacher
	}
	if req.Time != nil {
		class.Time = *req.Time
	}
	if req.EndDate != nil {
		class.EndDate = req.EndDate
	}
	if req.Description != nil {
		class.Description = *req.Description
	}
	if req.Status != nil {
		class.Status = *req.Status
	}

	if err := s.classes.Update(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.broadcast(ctx, "Class Updated",
		fmt.Sprintf("**%s** updated class **%s**", actor.Name, class.Name),
		class.ID, actor.Name, "updated")

	return dto.NewClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, actor Actor, id uint) error {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.classes.Delete(ctx, id); err != nil {
		return err
	}

	s.broadcast(ctx, "Class Deleted",
		fmt.Sprintf("**%s** deleted class **%s**", actor.Name, class.Name),
		id, actor.Name, "deleted")

	return nil
}

func (s *classService) Upgrade(ctx context.Context, actor Actor, id uint, req dto.ClassUpgradeRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ClassResponse{}, err
	}

	source, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	startDate, err := time.Parse(dto.DateLayout, req.StartDate)
	if err != nil {
		return dto.ClassResponse{}, fmt.Errorf("invalid start date: %w", err)
	}

	teacher := req.Teacher
	if teacher == "" {
		teacher = source.Teacher
	}

	successor := models.Class{
		Name:      req.Name,
		Teacher:   teacher,
		Time:      source.Time,
		StartDate: startDate,
		Status:    models.ClassStatusActive,
	}
	if err := s.classes.Create(ctx, &successor); err != nil {
		return dto.ClassResponse{}, err
	}

	moved, err := s.students.MoveToClass(ctx, source.ID, successor.ID)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	source.Status = models.ClassStatusUpgraded
	source.Students = nil
	if err := s.classes.Update(ctx, &source); err != nil {
		return dto.ClassResponse{}, err
	}

	s.broadcast(ctx, "Class Upgraded",
		fmt.Sprintf("**%s** upgraded **%s** to **%s**", actor.Name, source.Name, successor.Name),
		successor.ID, actor.Name, "upgraded")

	sourceID := source.ID
	entry := models.ActivityLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "class.upgraded",
		EntityType: "class",
		EntityID:   &sourceID,
		Metadata:   datatypes.JSONMap{"successor_id": successor.ID, "students_moved": moved},
	}
	if err := s.activity.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("class_id", source.ID).Msg("failed to write upgrade audit entry")
	}

	reloaded, err := s.classes.FindByID(ctx, successor.ID)
	if err != nil {
		return dto.NewClassResponse(successor), nil
	}
	return dto.NewClassResponse(reloaded), nil
}

func (s *classService) broadcast(ctx context.Context, title, message string, classID uint, actorName, action string) {
	event := dto.NotificationEvent{
		Title:      title,
		Message:    message,
		Type:       models.NotificationTypeClass,
		EntityType: "class",
		EntityID:   &classID,
		ActorName:  actorName,
		Action:     action,
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("failed to emit class notification")
	}
}

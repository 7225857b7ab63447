package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/observability"
	"github.com/classtrack/classtrack-api/internal/repository"
)

// ErrFutureAttendanceDate rejects attendance recorded ahead of today.
var ErrFutureAttendanceDate = errors.New("attendance cannot be recorded for a future date")

// AttendanceService reconciles desired-state attendance batches against the
// store's uniqueness rules.
type AttendanceService interface {
	// Reconcile upserts every row in the batch. Batches may mix classes and
	// dates; each row is keyed by (class, student, date) independently.
	Reconcile(ctx context.Context, records []dto.AttendanceRecordRequest) (dto.ReconcileResult, error)
	List(ctx context.Context, classID uint, date *time.Time) ([]dto.AttendanceResponse, error)
	Stats(ctx context.Context, classID uint) (dto.AttendanceStatsResponse, error)
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	classes   repository.ClassRepository
	notifier  NotificationService
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. cache may be nil.
func NewAttendanceService(
	repo repository.AttendanceRepository,
	classes repository.ClassRepository,
	notifier NotificationService,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &attendanceService{
		repo:      repo,
		classes:   classes,
		notifier:  notifier,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger.With().Str("component", "attendance_service").Logger(),
		tracer:    otel.Tracer("github.com/classtrack/classtrack-api/internal/service/attendance"),
		now:       time.Now,
	}
}

type classDateKey struct {
	classID uint
	date    string
}

func (s *attendanceService) Reconcile(ctx context.Context, records []dto.AttendanceRecordRequest) (dto.ReconcileResult, error) {
	if len(records) == 0 {
		return dto.ReconcileResult{}, errors.New("attendance batch is empty")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	dates := make([]time.Time, len(records))
	for i, record := range records {
		if err := s.validator.Struct(record); err != nil {
			return dto.ReconcileResult{}, err
		}

		date, err := time.Parse(dto.DateLayout, record.Date)
		if err != nil {
			return dto.ReconcileResult{}, fmt.Errorf("invalid date %q: %w", record.Date, err)
		}
		if date.After(today) {
			return dto.ReconcileResult{}, ErrFutureAttendanceDate
		}
		dates[i] = date
	}

	spanCtx, span := s.tracer.Start(ctx, "attendance.reconcile", trace.WithAttributes(
		attribute.Int("attendance.batch_size", len(records)),
	))
	defer span.End()

	// Remember which class/date groups already had rows so the follow-up
	// notification can say "taken" vs "updated".
	groupsSeen := make(map[classDateKey]bool)
	for i, record := range records {
		key := classDateKey{classID: record.ClassID, date: record.Date}
		if _, checked := groupsSeen[key]; !checked {
			existed, err := s.repo.ExistsForClassDate(spanCtx, record.ClassID, dates[i])
			if err != nil {
				span.RecordError(err)
				return dto.ReconcileResult{}, err
			}
			groupsSeen[key] = existed
		}
	}

	var result dto.ReconcileResult
	recordedAt := s.now()
	for i, record := range records {
		existed, err := s.repo.Exists(spanCtx, record.ClassID, record.StudentID, dates[i])
		if err != nil {
			span.RecordError(err)
			return result, err
		}

		row := models.Attendance{
			StudentID:  record.StudentID,
			ClassID:    record.ClassID,
			Date:       dates[i],
			Status:     record.Status,
			RecordedAt: recordedAt,
		}
		if err := s.repo.Upsert(spanCtx, &row); err != nil {
			span.RecordError(err)
			return result, err
		}

		if existed {
			result.Updated++
			observability.AttendanceUpserts().WithLabelValues("updated").Inc()
		} else {
			result.Created++
			observability.AttendanceUpserts().WithLabelValues("created").Inc()
		}
	}

	for key, existed := range groupsSeen {
		s.notifyGroup(spanCtx, key, existed)
		s.invalidateStats(spanCtx, key.classID)
	}

	return result, nil
}

// notifyGroup emits the attendance-taken or attendance-updated broadcast for
// one class/date group. Best-effort: failures are logged, never returned.
func (s *attendanceService) notifyGroup(ctx context.Context, key classDateKey, existed bool) {
	className := fmt.Sprintf("class #%d", key.classID)
	if class, err := s.classes.FindByID(ctx, key.classID); err == nil {
		className = class.Name
	}

	title := "Attendance Taken"
	action := "taken"
	if existed {
		title = "Attendance Updated"
		action = "updated"
	}

	classID := key.classID
	event := dto.NotificationEvent{
		Title:      title,
		Message:    fmt.Sprintf("Attendance for **%s** on **%s** was %s", className, key.date, action),
		Type:       models.NotificationTypeAttendance,
		EntityType: "class",
		EntityID:   &classID,
		Action:     action,
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("class_id", key.classID).Msg("failed to emit attendance notification")
	}
}

func (s *attendanceService) List(ctx context.Context, classID uint, date *time.Time) ([]dto.AttendanceResponse, error) {
	rows, err := s.repo.List(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceResponseSlice(rows), nil
}

func (s *attendanceService) Stats(ctx context.Context, classID uint) (dto.AttendanceStatsResponse, error) {
	cacheKey := s.statsCacheKey(classID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.AttendanceStatsResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	counts, err := s.repo.CountByStatus(ctx, classID)
	if err != nil {
		return dto.AttendanceStatsResponse{}, err
	}

	response := dto.AttendanceStatsResponse{
		ClassID: classID,
		Present: counts.Present,
		Absent:  counts.Absent,
		Late:    counts.Late,
		Total:   counts.Present + counts.Absent + counts.Late,
	}
	if response.Total > 0 {
		response.Rate = float64(counts.Present+counts.Late) / float64(response.Total)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache attendance stats")
			}
		}
	}

	return response, nil
}

func (s *attendanceService) statsCacheKey(classID uint) string {
	return fmt.Sprintf("attendance:stats:v1:%d", classID)
}

// invalidateStats drops the cached stat entry after a write.
func (s *attendanceService) invalidateStats(ctx context.Context, classID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.statsCacheKey(classID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to invalidate stats cache")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/observability"
	"github.com/classtrack/classtrack-api/internal/repository"
)

// ErrInvalidAmount rejects malformed or negative decimal strings.
var ErrInvalidAmount = errors.New("fee amounts must be non-negative decimal strings")

// FeeService accrues fee events onto per-(student, class) ledger rows.
type FeeService interface {
	// Accrue merges the event into the pair's existing ledger row, or
	// creates one when the pair is new. Merged reports which happened.
	Accrue(ctx context.Context, req dto.FeeCreateRequest) (dto.AccrualResult, error)
	List(ctx context.Context, filter repository.FeeFilter) ([]dto.FeeResponse, error)
}

type feeService struct {
	repo      repository.FeeRepository
	students  repository.StudentRepository
	classes   repository.ClassRepository
	notifier  NotificationService
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewFeeService constructs the fee service.
func NewFeeService(
	repo repository.FeeRepository,
	students repository.StudentRepository,
	classes repository.ClassRepository,
	notifier NotificationService,
	validate *validator.Validate,
	logger zerolog.Logger,
) FeeService {
	return &feeService{
		repo:      repo,
		students:  students,
		classes:   classes,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "fee_service").Logger(),
		tracer:    otel.Tracer("github.com/classtrack/classtrack-api/internal/service/fee"),
	}
}

func (s *feeService) Accrue(ctx context.Context, req dto.FeeCreateRequest) (dto.AccrualResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccrualResult{}, err
	}

	toBePaid, err := parseAmount(req.FeeToBePaid)
	if err != nil {
		return dto.AccrualResult{}, err
	}

	var paid *decimal.Decimal
	if req.FeePaid != nil {
		value, err := parseAmount(*req.FeePaid)
		if err != nil {
			return dto.AccrualResult{}, err
		}
		paid = &value
	}

	var unpaidOverride *decimal.Decimal
	if req.FeeUnpaid != nil {
		value, err := parseAmount(*req.FeeUnpaid)
		if err != nil {
			return dto.AccrualResult{}, err
		}
		unpaidOverride = &value
	}

	spanCtx, span := s.tracer.Start(ctx, "fees.accrue", trace.WithAttributes(
		attribute.Int("fee.student_id", int(req.StudentID)),
		attribute.Int("fee.class_id", int(req.ClassID)),
	))
	defer span.End()

	existing, err := s.repo.FindByPair(spanCtx, req.StudentID, req.ClassID)
	switch {
	case err == nil:
		return s.merge(spanCtx, existing, req, toBePaid, paid, unpaidOverride)
	case errors.Is(err, gorm.ErrRecordNotFound):
		result, err := s.create(spanCtx, req, toBePaid, paid, unpaidOverride)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race for first insert against the unique index: the
			// pair exists now, so fall back to the merge path.
			if existing, findErr := s.repo.FindByPair(spanCtx, req.StudentID, req.ClassID); findErr == nil {
				return s.merge(spanCtx, existing, req, toBePaid, paid, unpaidOverride)
			}
		}
		return result, err
	default:
		span.RecordError(err)
		return dto.AccrualResult{}, err
	}
}

func (s *feeService) create(ctx context.Context, req dto.FeeCreateRequest, toBePaid decimal.Decimal, paid, unpaidOverride *decimal.Decimal) (dto.AccrualResult, error) {
	unpaid := toBePaid
	if paid != nil {
		unpaid = toBePaid.Sub(*paid)
	}
	if unpaidOverride != nil {
		unpaid = *unpaidOverride
	}

	fee := models.Fee{
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
		FeeToBePaid: toBePaid.StringFixed(2),
		FeeUnpaid:   fixedPtr(unpaid),
		PaymentDate: req.PaymentDate,
	}
	if paid != nil {
		fee.FeePaid = fixedPtr(*paid)
	}

	if err := s.repo.Create(ctx, &fee); err != nil {
		return dto.AccrualResult{}, err
	}

	observability.FeeAccruals().WithLabelValues("created").Inc()
	s.notify(ctx, fee, false)

	return dto.AccrualResult{Fee: dto.NewFeeResponse(fee), Merged: false}, nil
}

func (s *feeService) merge(ctx context.Context, existing models.Fee, req dto.FeeCreateRequest, toBePaid decimal.Decimal, paid, unpaidOverride *decimal.Decimal) (dto.AccrualResult, error) {
	existingToBePaid, err := parseAmount(existing.FeeToBePaid)
	if err != nil {
		return dto.AccrualResult{}, fmt.Errorf("stored fee amount corrupt: %w", err)
	}

	existingPaid := decimal.Zero
	if existing.FeePaid != nil {
		if existingPaid, err = parseAmount(*existing.FeePaid); err != nil {
			return dto.AccrualResult{}, fmt.Errorf("stored fee amount corrupt: %w", err)
		}
	}

	newToBePaid := existingToBePaid.Add(toBePaid)
	newPaid := existingPaid
	if paid != nil {
		newPaid = existingPaid.Add(*paid)
	}

	newUnpaid := newToBePaid.Sub(newPaid)
	if unpaidOverride != nil {
		newUnpaid = *unpaidOverride
	}

	existing.FeeToBePaid = newToBePaid.StringFixed(2)
	if paid != nil || existing.FeePaid != nil {
		existing.FeePaid = fixedPtr(newPaid)
	}
	existing.FeeUnpaid = fixedPtr(newUnpaid)
	if req.PaymentDate != nil {
		existing.PaymentDate = req.PaymentDate
	}

	if err := s.repo.Update(ctx, &existing); err != nil {
		return dto.AccrualResult{}, err
	}

	observability.FeeAccruals().WithLabelValues("merged").Inc()
	s.notify(ctx, existing, true)

	return dto.AccrualResult{Fee: dto.NewFeeResponse(existing), Merged: true}, nil
}

// notify emits the fee-added or fee-updated broadcast. Best-effort.
func (s *feeService) notify(ctx context.Context, fee models.Fee, merged bool) {
	studentName := fmt.Sprintf("student #%d", fee.StudentID)
	if student, err := s.students.FindByID(ctx, fee.StudentID); err == nil {
		studentName = student.Name
	}
	className := fmt.Sprintf("class #%d", fee.ClassID)
	if class, err := s.classes.FindByID(ctx, fee.ClassID); err == nil {
		className = class.Name
	}

	title := "Fee Added"
	action := "added"
	if merged {
		title = "Fee Updated"
		action = "updated"
	}

	feeID := fee.ID
	event := dto.NotificationEvent{
		Title:      title,
		Message:    fmt.Sprintf("Fee for **%s** in **%s** is now **%s**", studentName, className, fee.FeeToBePaid),
		Type:       models.NotificationTypeFee,
		EntityType: "fee",
		EntityID:   &feeID,
		Action:     action,
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("fee_id", fee.ID).Msg("failed to emit fee notification")
	}
}

func (s *feeService) List(ctx context.Context, filter repository.FeeFilter) ([]dto.FeeResponse, error) {
	fees, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewFeeResponseSlice(fees), nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return parsed, nil
}

func fixedPtr(value decimal.Decimal) *string {
	formatted := value.StringFixed(2)
	return &formatted
}

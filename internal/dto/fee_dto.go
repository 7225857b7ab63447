package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// FeeCreateRequest is a fee event for a (student, class) pair. Amounts are
// decimal strings; submissions for an existing pair accumulate into the
// ledger row instead of creating a second one.
type FeeCreateRequest struct {
	StudentID   uint       `json:"student_id" validate:"required"`
	ClassID     uint       `json:"class_id" validate:"required"`
	FeeToBePaid string     `json:"fee_to_be_paid" validate:"required"`
	FeePaid     *string    `json:"fee_paid"`
	FeeUnpaid   *string    `json:"fee_unpaid"`
	PaymentDate *time.Time `json:"payment_date"`
}

// FeeResponse is the serialized representation of a fee ledger row.
type FeeResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	ClassID     uint       `json:"class_id"`
	FeeToBePaid string     `json:"fee_to_be_paid"`
	FeePaid     *string    `json:"fee_paid"`
	FeeUnpaid   *string    `json:"fee_unpaid"`
	PaymentDate *time.Time `json:"payment_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewFeeResponse converts a model into a DTO.
func NewFeeResponse(fee models.Fee) FeeResponse {
	return FeeResponse{
		ID:          fee.ID,
		StudentID:   fee.StudentID,
		ClassID:     fee.ClassID,
		FeeToBePaid: fee.FeeToBePaid,
		FeePaid:     fee.FeePaid,
		FeeUnpaid:   fee.FeeUnpaid,
		PaymentDate: fee.PaymentDate,
		CreatedAt:   fee.CreatedAt,
		UpdatedAt:   fee.UpdatedAt,
	}
}

// NewFeeResponseSlice converts a slice of models into DTOs.
func NewFeeResponseSlice(fees []models.Fee) []FeeResponse {
	out := make([]FeeResponse, 0, len(fees))
	for _, fee := range fees {
		out = append(out, NewFeeResponse(fee))
	}
	return out
}

// AccrualResult carries the written row plus whether it merged into an
// existing ledger entry (200) or created a fresh one (201).
type AccrualResult struct {
	Fee    FeeResponse `json:"fee"`
	Merged bool        `json:"merged"`
}

package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// ScheduleReportRequest creates a recurring emailed attendance report.
type ScheduleReportRequest struct {
	Type      string `json:"type" validate:"required,oneof=weekly monthly"`
	Email     string `json:"email" validate:"required,email"`
	ClassID   *uint  `json:"class_id"`
	StudentID *uint  `json:"student_id"`
}

// ScheduledReportResponse is the serialized representation of a schedule.
type ScheduledReportResponse struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Email     string    `json:"email"`
	ClassID   *uint     `json:"class_id,omitempty"`
	StudentID *uint     `json:"student_id,omitempty"`
	NextRun   time.Time `json:"next_run"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewScheduledReportResponse converts a model into a DTO.
func NewScheduledReportResponse(report models.ScheduledReport) ScheduledReportResponse {
	return ScheduledReportResponse{
		ID:        report.ID,
		Type:      report.Type,
		Email:     report.Email,
		ClassID:   report.ClassID,
		StudentID: report.StudentID,
		NextRun:   report.NextRun,
		IsActive:  report.IsActive,
		CreatedAt: report.CreatedAt,
	}
}

// NewScheduledReportResponseSlice converts a slice of models into DTOs.
func NewScheduledReportResponseSlice(reports []models.ScheduledReport) []ScheduledReportResponse {
	out := make([]ScheduledReportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, NewScheduledReportResponse(report))
	}
	return out
}

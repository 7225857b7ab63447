package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// AttendanceRecordRequest is one desired-state row in a reconciliation batch.
// Batches may mix classes and dates; each row is upserted independently.
type AttendanceRecordRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	ClassID   uint   `json:"class_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=present absent late"`
}

// AttendanceResponse is the serialized representation of an attendance row.
type AttendanceResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	ClassID    uint      `json:"class_id"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewAttendanceResponse converts a model into a DTO.
func NewAttendanceResponse(attendance models.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:         attendance.ID,
		StudentID:  attendance.StudentID,
		ClassID:    attendance.ClassID,
		Date:       attendance.Date.Format(DateLayout),
		Status:     attendance.Status,
		RecordedAt: attendance.RecordedAt,
	}
}

// NewAttendanceResponseSlice converts a slice of models into DTOs.
func NewAttendanceResponseSlice(rows []models.Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewAttendanceResponse(row))
	}
	return out
}

// ReconcileResult summarises one reconciliation batch so callers can word
// first-time saves and subsequent updates differently.
type ReconcileResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// AttendanceStatsResponse aggregates per-class attendance counts.
type AttendanceStatsResponse struct {
	ClassID  uint    `json:"class_id"`
	Present  int64   `json:"present"`
	Absent   int64   `json:"absent"`
	Late     int64   `json:"late"`
	Total    int64   `json:"total"`
	Rate     float64 `json:"rate"`
	CacheHit bool    `json:"cache_hit,omitempty"`
}

package models

import "time"

// Scheduled report cadences.
const (
	ReportTypeWeekly  = "weekly"
	ReportTypeMonthly = "monthly"
)

// ScheduledReport is a recurring attendance report emailed to a recipient.
// Rows are persisted so schedules survive process restarts; the periodic
// sweep picks up every active row whose NextRun has passed.
type ScheduledReport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	ClassID   *uint     `json:"class_id"`
	StudentID *uint     `json:"student_id"`
	NextRun   time.Time `gorm:"index;not null" json:"next_run"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

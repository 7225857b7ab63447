package models

import "time"

// Attendance statuses.
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
)

// Attendance records a single student's status for one class on one day.
// The (class_id, student_id, date) triple is unique; writes go through an
// upsert so a second submission for the same triple updates the status in
// place instead of failing on the index.
type Attendance struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"uniqueIndex:idx_attendance_key,priority:2;not null" json:"student_id"`
	ClassID    uint      `gorm:"uniqueIndex:idx_attendance_key,priority:1;not null" json:"class_id"`
	Date       time.Time `gorm:"uniqueIndex:idx_attendance_key,priority:3;not null" json:"date"`
	Status     string    `gorm:"size:16;not null" json:"status"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
}

// Fee is the single ledger row for a (student, class) pair. Amounts are
// stored as fixed two-decimal strings; FeeUnpaid is derived from the other
// two unless a caller supplies it explicitly. The (student_id, class_id)
// unique index backs the one-row-per-pair rule so concurrent first
// submissions cannot create duplicates.
type Fee struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"uniqueIndex:idx_fee_pair,priority:1;not null" json:"student_id"`
	ClassID     uint       `gorm:"uniqueIndex:idx_fee_pair,priority:2;not null" json:"class_id"`
	FeeToBePaid string     `gorm:"size:32;not null" json:"fee_to_be_paid"`
	FeePaid     *string    `gorm:"size:32" json:"fee_paid"`
	FeeUnpaid   *string    `gorm:"size:32" json:"fee_unpaid"`
	PaymentDate *time.Time `json:"payment_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

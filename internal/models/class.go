package models

import "time"

// Class lifecycle states.
const (
	ClassStatusActive    = "active"
	ClassStatusCompleted = "completed"
	ClassStatusUpgraded  = "upgraded"
)

// Class represents a taught group of students. The association constraints
// cascade a class deletion down to its students, attendance, and fee rows.
type Class struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	Teacher     string       `gorm:"size:255;not null" json:"teacher"`
	Time        string       `gorm:"size:64" json:"time"`
	StartDate   time.Time    `gorm:"not null" json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
	Description string       `gorm:"type:text" json:"description"`
	Status      string       `gorm:"size:32;not null;default:active" json:"status"`
	Students    []Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"students,omitempty"`
	Attendances []Attendance `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Fees        []Fee        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Student represents a learner enrolled in a class.
type Student struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	StudentID   string       `gorm:"size:64" json:"student_id"`
	Name        string       `gorm:"size:255;not null" json:"name"`
	FatherName  string       `gorm:"size:255" json:"father_name"`
	Phone       string       `gorm:"size:32" json:"phone"`
	Gender      string       `gorm:"size:16" json:"gender"`
	Email       string       `gorm:"size:255" json:"email"`
	Avatar      string       `gorm:"size:512" json:"avatar"`
	ClassID     uint         `gorm:"index;not null" json:"class_id"`
	Attendances []Attendance `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Fees        []Fee        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

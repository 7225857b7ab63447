package models

import "time"

// User roles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User is a dashboard account. New accounts start unapproved and cannot
// sign in until an admin approves them; rejection deletes the row outright.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Avatar       string    `gorm:"size:512" json:"avatar"`
	Role         string    `gorm:"size:32;not null;default:teacher" json:"role"`
	IsApproved   bool      `gorm:"not null;default:false" json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPreference stores per-user delivery switches for targeted
// notifications. A missing row means push on, email off.
type UserPreference struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	PushNotifications bool      `gorm:"not null;default:true" json:"push_notifications"`
	EmailUpdates      bool      `gorm:"not null;default:false" json:"email_updates"`
	UpdatedAt         time.Time `json:"updated_at"`
}

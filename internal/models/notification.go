package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification type categories.
const (
	NotificationTypeClass      = "class"
	NotificationTypeStudent    = "student"
	NotificationTypeAttendance = "attendance"
	NotificationTypeFee        = "fee"
	NotificationTypeUser       = "user"
	NotificationTypeReport     = "report"
)

// Notification is a dashboard message. A nil UserID marks a broadcast row
// visible to every viewer; a set UserID targets a single account.
//
// EntityType/EntityID are an opaque hint at the subject, not a foreign key:
// notifications outlive the entities they describe, so lookups by EntityID
// may come back empty after the subject is deleted.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Type       string    `gorm:"size:32;not null" json:"type"`
	EntityType string    `gorm:"size:32" json:"entity_type"`
	EntityID   *uint     `json:"entity_id"`
	ActorName  string    `gorm:"size:255" json:"actor_name"`
	Action     string    `gorm:"size:64" json:"action"`
	IsRead     bool      `gorm:"not null;default:false" json:"is_read"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// ActivityLog captures auditable admin and teacher actions.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

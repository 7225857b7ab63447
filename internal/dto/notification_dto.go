package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// NotificationEvent is a domain event to fan out. Message text may carry
// paired ** markers around segments that render emphasized.
type NotificationEvent struct {
	Title      string `json:"title" validate:"required,min=1,max=255"`
	Message    string `json:"message" validate:"required,min=1,max=2000"`
	Type       string `json:"type" validate:"required,oneof=class student attendance fee user report"`
	EntityType string `json:"entity_type" validate:"omitempty,max=32"`
	EntityID   *uint  `json:"entity_id"`
	ActorName  string `json:"actor_name" validate:"omitempty,max=255"`
	Action     string `json:"action" validate:"omitempty,max=64"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   *uint     `json:"entity_id,omitempty"`
	ActorName  string    `json:"actor_name,omitempty"`
	Action     string    `json:"action,omitempty"`
	IsRead     bool      `json:"is_read"`
	UserID     *uint     `json:"user_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewNotificationResponse converts a notification model to a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         model.ID,
		Title:      model.Title,
		Message:    model.Message,
		Type:       model.Type,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		ActorName:  model.ActorName,
		Action:     model.Action,
		IsRead:     model.IsRead,
		UserID:     model.UserID,
		CreatedAt:  model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(rows []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewNotificationResponse(row))
	}
	return out
}

// MessageSpan is one rendered segment of a notification message.
type MessageSpan struct {
	Text string `json:"text"`
	Bold bool   `json:"bold"`
}

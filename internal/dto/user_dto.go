package dto

import (
	"time"

	"github.com/classtrack/classtrack-api/internal/models"
)

// SignUpRequest registers a new dashboard account. Accounts start
// unapproved and cannot sign in until an admin approves them.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
	Role     string `json:"role" validate:"omitempty,oneof=admin teacher"`
}

// SignInRequest authenticates an approved account.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ApproveRequest resolves a pending account. Approved=false rejects the
// account, which deletes it outright.
type ApproveRequest struct {
	UserID   uint  `json:"user_id" validate:"required"`
	Approved *bool `json:"approved" validate:"required"`
}

// PreferenceUpdateRequest toggles per-user notification delivery.
type PreferenceUpdateRequest struct {
	PushNotifications *bool `json:"push_notifications"`
	EmailUpdates      *bool `json:"email_updates"`
}

// UserResponse is the serialized representation of an account.
type UserResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	Role       string    `json:"role"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Avatar:     user.Avatar,
		Role:       user.Role,
		IsApproved: user.IsApproved,
		CreatedAt:  user.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}

// AuthResponse carries a signed token plus the authenticated account.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// PreferenceResponse is the serialized representation of delivery switches.
type PreferenceResponse struct {
	UserID            uint `json:"user_id"`
	PushNotifications bool `json:"push_notifications"`
	EmailUpdates      bool `json:"email_updates"`
}

// NewPreferenceResponse converts a model into a DTO.
func NewPreferenceResponse(pref models.UserPreference) PreferenceResponse {
	return PreferenceResponse{
		UserID:            pref.UserID,
		PushNotifications: pref.PushNotifications,
		EmailUpdates:      pref.EmailUpdates,
	}
}

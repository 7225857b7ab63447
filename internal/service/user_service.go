package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classtrack/classtrack-api/internal/dto"
	"github.com/classtrack/classtrack-api/internal/models"
	"github.com/classtrack/classtrack-api/internal/repository"
)

var (
	// ErrEmailTaken signals a signup against an existing address.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials signals a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotApproved signals a sign-in before admin approval.
	ErrNotApproved = errors.New("account is awaiting approval")
	// ErrForbidden signals an action outside the caller's role.
	ErrForbidden = errors.New("insufficient permissions")
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	ID   uint
	Name string
	Role string
}

// AvatarStore removes uploaded avatar assets. Cleanup is best-effort; a
// failed removal never blocks the account mutation.
type AvatarStore interface {
	Destroy(ctx context.Context, avatarURL string) error
}

// UserService implements account lifecycle: signup, sign-in, and the
// pending → approved / rejected state machine.
type UserService interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (dto.UserResponse, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (dto.AuthResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	// Approve moves a pending account forward; the only forward transition.
	Approve(ctx context.Context, actor Actor, userID uint) (dto.UserResponse, error)
	// Reject is terminal: it deletes the account and its avatar outright.
	Reject(ctx context.Context, actor Actor, userID uint) error
	// Delete removes an approved account, distinguishing self-delete from
	// admin-delete in the emitted notification.
	Delete(ctx context.Context, actor Actor, userID uint) error
	GetPreferences(ctx context.Context, userID uint) (dto.PreferenceResponse, error)
	UpdatePreferences(ctx context.Context, userID uint, req dto.PreferenceUpdateRequest) (dto.PreferenceResponse, error)
	// RecentActivity returns the newest audit entries for the admin feed.
	RecentActivity(ctx context.Context, limit int) ([]dto.ActivityLogResponse, error)
}

type userService struct {
	users     repository.UserRepository
	prefs     repository.PreferenceRepository
	activity  repository.ActivityLogRepository
	notifier  NotificationService
	avatars   AvatarStore
	validator *validator.Validate
	jwtSecret string
	jwtExpiry time.Duration
	logger    zerolog.Logger
}

// NewUserService constructs the user service. avatars may be nil when no
// asset store is configured.
func NewUserService(
	users repository.UserRepository,
	prefs repository.PreferenceRepository,
	activity repository.ActivityLogRepository,
	notifier NotificationService,
	avatars AvatarStore,
	validate *validator.Validate,
	jwtSecret string,
	jwtExpiry time.Duration,
	logger zerolog.Logger,
) UserService {
	if jwtExpiry <= 0 {
		jwtExpiry = 24 * time.Hour
	}
	return &userService{
		users:     users,
		prefs:     prefs,
		activity:  activity,
		notifier:  notifier,
		avatars:   avatars,
		validator: validate,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) SignUp(ctx context.Context, req dto.SignUpRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return dto.UserResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleTeacher
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Avatar:       req.Avatar,
		Role:         role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrEmailTaken
		}
		return dto.UserResponse{}, err
	}

	pref := models.UserPreference{UserID: user.ID, PushNotifications: true, EmailUpdates: false}
	if err := s.prefs.Upsert(ctx, &pref); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to create default preferences")
	}

	userID := user.ID
	event := dto.NotificationEvent{
		Title:      "Pending Approval",
		Message:    fmt.Sprintf("**%s** signed up and is awaiting approval", user.Name),
		Type:       models.NotificationTypeUser,
		EntityType: "user",
		EntityID:   &userID,
		ActorName:  user.Name,
		Action:     "signup",
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to emit pending-approval notification")
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) SignIn(ctx context.Context, req dto.SignInRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.IsApproved {
		return dto.AuthResponse{}, ErrNotApproved
	}

	token, err := s.issueToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *userService) issueToken(user models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"name": user.Name,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.jwtExpiry).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(users), nil
}

func (s *userService) Approve(ctx context.Context, actor Actor, userID uint) (dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user.IsApproved = true
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.resolvePending(ctx, userID)
	s.broadcast(ctx, "User Approved",
		fmt.Sprintf("**%s** approved **%s**", actor.Name, user.Name),
		"user", userID, actor.Name, "approved")
	s.audit(ctx, actor, "user.approved", userID, map[string]interface{}{"name": user.Name})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Reject(ctx context.Context, actor Actor, userID uint) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	s.cleanupAvatar(ctx, user)

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.resolvePending(ctx, userID)
	s.broadcast(ctx, "User Rejected",
		fmt.Sprintf("**%s** rejected **%s**'s request to join", actor.Name, user.Name),
		"user", userID, actor.Name, "rejected")
	s.audit(ctx, actor, "user.rejected", userID, map[string]interface{}{"name": user.Name})

	return nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, userID uint) error {
	if actor.ID != userID && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	s.cleanupAvatar(ctx, user)

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	message := fmt.Sprintf("**%s** deleted **%s** from the system", actor.Name, user.Name)
	if actor.ID == userID {
		message = fmt.Sprintf("**%s** deleted his/her account", user.Name)
	}
	s.broadcast(ctx, "User Deleted", message, "user", userID, actor.Name, "deleted")
	s.audit(ctx, actor, "user.deleted", userID, map[string]interface{}{"name": user.Name, "self": actor.ID == userID})

	return nil
}

// cleanupAvatar removes the uploaded avatar if one exists. Failures are
// logged and swallowed so the account mutation proceeds.
func (s *userService) cleanupAvatar(ctx context.Context, user models.User) {
	if s.avatars == nil || user.Avatar == "" {
		return
	}
	if err := s.avatars.Destroy(ctx, user.Avatar); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to remove avatar")
	}
}

func (s *userService) resolvePending(ctx context.Context, userID uint) {
	if err := s.notifier.ResolveEntity(ctx, "user", userID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to resolve pending notification")
	}
}

func (s *userService) broadcast(ctx context.Context, title, message, entityType string, entityID uint, actorName, action string) {
	event := dto.NotificationEvent{
		Title:      title,
		Message:    message,
		Type:       models.NotificationTypeUser,
		EntityType: entityType,
		EntityID:   &entityID,
		ActorName:  actorName,
		Action:     action,
	}
	if _, err := s.notifier.Create(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("failed to emit user notification")
	}
}

func (s *userService) audit(ctx context.Context, actor Actor, action string, entityID uint, metadata map[string]interface{}) {
	entry := models.ActivityLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "user",
		EntityID:   &entityID,
		Metadata:   datatypes.JSONMap(metadata),
	}
	if err := s.activity.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to write audit entry")
	}
}

func (s *userService) RecentActivity(ctx context.Context, limit int) ([]dto.ActivityLogResponse, error) {
	entries, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityLogResponse(entry))
	}
	return responses, nil
}

func (s *userService) GetPreferences(ctx context.Context, userID uint) (dto.PreferenceResponse, error) {
	pref, err := s.prefs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PreferenceResponse{UserID: userID, PushNotifications: true, EmailUpdates: false}, nil
		}
		return dto.PreferenceResponse{}, err
	}
	return dto.NewPreferenceResponse(pref), nil
}

func (s *userService) UpdatePreferences(ctx context.Context, userID uint, req dto.PreferenceUpdateRequest) (dto.PreferenceResponse, error) {
	current, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return dto.PreferenceResponse{}, err
	}

	if req.PushNotifications != nil {
		current.PushNotifications = *req.PushNotifications
	}
	if req.EmailUpdates != nil {
		current.EmailUpdates = *req.EmailUpdates
	}

	pref := models.UserPreference{
		UserID:            userID,
		PushNotifications: current.PushNotifications,
		EmailUpdates:      current.EmailUpdates,
	}
	if err := s.prefs.Upsert(ctx, &pref); err != nil {
		return dto.PreferenceResponse{}, err
	}

	return dto.NewPreferenceResponse(pref), nil
}

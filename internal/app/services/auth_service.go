package services

import (
	"context"
	"fmt"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/auth"
	"github.com/minhvu/attendly/internal/pkg/logger"
)

// AuthService handles login and token issuance
type AuthService struct {
	userStore  UserStore
	jwtService *auth.JWTService
}

// NewAuthService creates a new AuthService
func NewAuthService(userStore UserStore, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userStore:  userStore,
		jwtService: jwtService,
	}
}

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int          `json:"expiresIn"`
	User        *models.User `json:"user"`
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "invalid username or password")
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	// never hand the hash back out
	user.Password = ""
	s.attachProfile(ctx, user)

	logger.Info().Int64("userId", user.ID).Str("role", string(user.RoleType)).Msg("User logged in")

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        user,
	}, nil
}

// GetProfile retrieves the authenticated user with their teacher or
// student profile attached
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "user not found")
	}

	user.Password = ""
	s.attachProfile(ctx, user)
	return user, nil
}

// attachProfile is best-effort relation loading; a missing profile row
// just leaves the relation nil
func (s *AuthService) attachProfile(ctx context.Context, user *models.User) {
	if user.TeacherID != nil {
		if teacher, err := s.userStore.GetTeacherByID(ctx, *user.TeacherID); err == nil {
			user.Teacher = teacher
		}
	}
	if user.StudentID != nil {
		if student, err := s.userStore.GetStudentByID(ctx, *user.StudentID); err == nil {
			user.Student = student
		}
	}
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mediajenny/the-oracle/src/logger"
	"github.com/mediajenny/the-oracle/src/model"
	"github.com/mediajenny/the-oracle/src/security"
)

const MinPasswordLength = 8

type userServiceImpl struct {
	db   *sql.DB
	auth *security.AuthService
}

func NewUserService(db *sql.DB, auth *security.AuthService) UserService {
	return &userServiceImpl{db: db, auth: auth}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidationFailed, MinPasswordLength)
	}
	return nil
}

func (s *userServiceImpl) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	exists, err := model.EmailExists(s.db, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         model.RoleMember,
	}
	if err := user.CreateUser(s.db); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	logger.FromContext(ctx).Info("User registered", "userID", user.ID)
	return user, nil
}

func (s *userServiceImpl) Login(ctx context.Context, email, password, userAgent, clientIP string) (*LoginResult, error) {
	user, err := model.GetUserByEmail(s.db, normalizeEmail(email))
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if err := s.auth.CompareHashAndPassword(user.PasswordHash, password); err != nil {
		logger.FromContext(ctx).Warn("Failed login attempt", "userID", user.ID)
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.auth.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		ClientIP:     clientIP,
		ExpiresAt:    s.auth.RefreshTokenExpiresAt(),
	}
	if err := model.CreateSession(s.db, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.FromContext(ctx).Info("User logged in", "userID", user.ID)
	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// Refresh issues a new access token for a live session and rotates the
// token stored on it.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrInvalidSession
	}
	session, err := model.GetSessionByRefreshToken(s.db, refreshToken)
	if errors.Is(err, model.ErrRecordNotFound) {
		return "", ErrInvalidSession
	}
	if err != nil {
		return "", fmt.Errorf("error fetching session: %w", err)
	}

	accessToken, err := s.auth.GenerateToken(session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	if err := model.UpdateSessionToken(s.db, session.ID, accessToken); err != nil {
		return "", fmt.Errorf("failed to update session: %w", err)
	}
	return accessToken, nil
}

func (s *userServiceImpl) Logout(ctx context.Context, accessToken string) error {
	if err := model.DeleteSessionByToken(s.db, accessToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate requires both a valid JWT and a live session holding it.
func (s *userServiceImpl) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	userID, err := s.auth.ValidateToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	session, err := model.GetSessionByToken(s.db, accessToken)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrInvalidSession
	}
	return s.GetUser(ctx, userID)
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID int) (*model.User, error) {
	user, err := model.GetUserByID(s.db, userID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// ends every other session of the user.
func (s *userServiceImpl) ChangePassword(ctx context.Context, userID int, accessToken, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.auth.CompareHashAndPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := model.UpdateUserPassword(s.db, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := model.DeleteSessionsByUserID(s.db, userID, accessToken); err != nil {
		logger.FromContext(ctx).Error("Failed to end other sessions after password change", "userID", userID, "error", err)
	}
	logger.FromContext(ctx).Info("Password changed", "userID", userID)
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/dto/response"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 2. Email must be unused
	existingUser, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	// 3. Username must be unused
	existingUser, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to check username", zap.Error(err), zap.String("username", req.Username))
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUsernameTaken
	}

	// 4. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 5. Save user
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     req.Username,
		Email:        email,
		PasswordHash: hashedPassword,
		Phone:        req.Phone,
		Role:         entity.RoleGuest,
		IsActive:     true,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("create user: %w", err)
	}

	// 6. Log in right after registering
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Warn("Failed to create session after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	// Username field accepts an email too
	user, err := s.repo.User.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("identifier", req.Username))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		user, err = s.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			s.log.Error("Failed to find user by username", zap.Error(err), zap.String("identifier", req.Username))
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	if user == nil {
		s.log.Warn("User not found for login", zap.String("identifier", req.Username))
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, wrapErr(ErrForbidden, "account is deactivated")
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	tokenUUID, err := uuid.Parse(token)
	if err != nil {
		s.log.Warn("Invalid token format", zap.Error(err))
		return ErrUnauthorized
	}

	if err := s.repo.Session.Revoke(ctx, tokenUUID); err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("revoke session: %w", err)
	}

	s.log.Info("User logged out")
	return nil
}

// CleanExpiredSessions drops sessions past their expiry. serve runs it
// on a ticker.
func (s *authService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.Session.CleanExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}
	if n > 0 {
		s.log.Info("Expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}

// ==================== HELPER METHODS ====================

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	expiry := 24 * time.Hour
	if s.config != nil && s.config.Session.ExpiryHours > 0 {
		expiry = time.Duration(s.config.Session.ExpiryHours) * time.Hour
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		UserID:    userID,
		Token:     utils.GenerateSessionToken(),
		ExpiresAt: time.Now().Add(expiry),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessDenied is the refresh-replay signal: the presented refresh
	// token verified fine but its id was already rotated away or revoked.
	ErrAccessDenied = errors.New("access denied")
)

// PasswordRecoveryMailer delivers the reset token out-of-band.
type PasswordRecoveryMailer interface {
	SendPasswordRecoveryEmail(ctx context.Context, to, resetToken string) error
}

// AuthService owns the register/login/refresh/logout/password-reset state
// transitions. All registry mutation goes through the SessionRegistry.
type AuthService struct {
	tokens   *TokenService
	users    storage.UserRepository
	registry storage.SessionRegistry
	hasher   Hasher
	mailer   PasswordRecoveryMailer
	log      *zap.SugaredLogger
}

func NewAuthService(
	tokens *TokenService,
	users storage.UserRepository,
	registry storage.SessionRegistry,
	hasher Hasher,
	mailer PasswordRecoveryMailer,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		tokens:   tokens,
		users:    users,
		registry: registry,
		hasher:   hasher,
		mailer:   mailer,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(email)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUserWithDefaults(ctx, email, &hash, nil)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Infow("user registered", "userID", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPairResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	// Social-only accounts have no password to compare against.
	if user.Password == nil || !s.hasher.Compare(password, *user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.GenerateTokens(ctx, user)
}

// GenerateTokens mints a fresh access+refresh pair and rotates the stored
// refresh id. If the id cannot be persisted the whole operation fails; a
// token the registry cannot validate later must never be handed out.
func (s *AuthService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenPairResponse, error) {
	refreshTokenID := uuid.NewString()

	accessToken, accessExpiry, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.tokens.IssueRefreshToken(user.ID, refreshTokenID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.registry.InsertRefreshID(ctx, user.ID, refreshTokenID); err != nil {
		return nil, fmt.Errorf("store refresh id: %w", err)
	}

	return &models.TokenPairResponse{
		AccessToken:            accessToken,
		RefreshToken:           refreshToken,
		AccessTokenExpireTime:  accessExpiry,
		RefreshTokenExpireTime: refreshExpiry,
	}, nil
}

// Refresh rotates a token pair. The stored refresh id is validated and
// deleted in one atomic step, so a replayed token (or the loser of a
// concurrent refresh race) gets ErrAccessDenied.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPairResponse, error) {
	userID, refreshTokenID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if err := s.registry.ConsumeRefreshID(ctx, user.ID, refreshTokenID); err != nil {
		if errors.Is(err, storage.ErrInvalidatedRefreshToken) {
			// The token verified but its id was already used. Either a
			// replay of a stolen token or a concurrent refresh losing the
			// race. TODO: notify the user their refresh token may have
			// been stolen (security alert email).
			s.log.Warnw("invalidated refresh token presented", "userID", user.ID)
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	s.log.Infow("user refreshed token", "userID", user.ID)
	return s.GenerateTokens(ctx, user)
}

// Logout invalidates the stored refresh id. Invalidating an absent id is not
// an error, so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	userID, _, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}

	if err := s.registry.InvalidateRefreshID(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Infow("user logged out", "userID", userID)
	return nil
}

// EndPublicSession removes the public session id from the registry so no
// further analysis results are delivered to its room. Ending a session that
// never existed or already expired is not an error.
func (s *AuthService) EndPublicSession(ctx context.Context, sessionID string) error {
	if err := s.registry.InvalidateSessionID(ctx, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.log.Infow("public session ended", "sessionID", sessionID)
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("request password reset: %w", err)
	}

	resetToken, resetTokenID, err := s.tokens.IssueResetToken(user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	// Persisting the id makes reset tokens single-use: the submit step
	// consumes it.
	if err := s.registry.InsertResetID(ctx, user.ID, resetTokenID, s.tokens.ResetTTL()); err != nil {
		return fmt.Errorf("store reset id: %w", err)
	}

	s.log.Infow("user requested password reset", "userID", user.ID)
	return s.mailer.SendPasswordRecoveryEmail(ctx, user.Email, resetToken)
}

func (s *AuthService) SubmitPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	userID, resetTokenID, err := s.tokens.VerifyResetToken(resetToken)
	if err != nil {
		return ErrTokenInvalid
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("submit password reset: %w", err)
	}

	if err := s.registry.ConsumeResetID(ctx, user.ID, resetTokenID); err != nil {
		return ErrTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Infow("user reset password", "userID", user.ID)
	return nil
}

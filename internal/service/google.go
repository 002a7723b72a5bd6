package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
	"github.com/mwilder2/diarydawn-backend/internal/util"
)

const googleIssuerURL = "https://accounts.google.com"

// IDTokenVerifier checks a third-party identity token and extracts the
// identity it asserts.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (email, subject string, err error)
}

// GoogleVerifier validates Google ID tokens against Google's published keys.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewGoogleVerifier(ctx context.Context, cfg *util.GoogleConfig) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("create oidc provider: %w", err)
	}
	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (string, string, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", "", fmt.Errorf("verify id token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", "", fmt.Errorf("parse id token claims: %w", err)
	}
	if claims.Email == "" {
		return "", "", errors.New("id token has no email claim")
	}
	return claims.Email, idToken.Subject, nil
}

// GoogleAuthService maps a verified Google identity onto a local account,
// creating one on first sight, and delegates token issuance.
type GoogleAuthService struct {
	verifier IDTokenVerifier
	auth     *AuthService
	users    storage.UserRepository
	log      *zap.SugaredLogger
}

func NewGoogleAuthService(verifier IDTokenVerifier, auth *AuthService, users storage.UserRepository, log *zap.SugaredLogger) *GoogleAuthService {
	return &GoogleAuthService{
		verifier: verifier,
		auth:     auth,
		users:    users,
		log:      log,
	}
}

func (s *GoogleAuthService) Authenticate(ctx context.Context, rawToken string) (*models.TokenPairResponse, error) {
	email, googleID, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.log.Errorw("failed to verify google token", "error", err)
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetUserByGoogleID(ctx, googleID)
	if err == nil {
		return s.auth.GenerateTokens(ctx, user)
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("google authenticate: %w", err)
	}

	// First sight of this Google identity; provision an account with no
	// password. Two concurrent first logins race on the unique constraint.
	user, err = s.users.CreateUserWithDefaults(ctx, strings.ToLower(email), nil, &googleID)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("google authenticate: %w", err)
	}

	s.log.Infow("user created via google login", "userID", user.ID)
	return s.auth.GenerateTokens(ctx, user)
}

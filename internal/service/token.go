package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mwilder2/diarydawn-backend/internal/util"
)

var (
	ErrTokenInvalid         = errors.New("token invalid")
	ErrInvalidUserID        = errors.New("invalid userID")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

// TokenService signs and verifies the three token kinds. Access and refresh
// tokens share a secret; reset tokens use their own so a leaked reset secret
// cannot forge login tokens.
type TokenService struct {
	jwtSecretKey   []byte
	resetSecretKey []byte
	audience       string
	issuer         string
	accessTTL      time.Duration
	refreshTTL     time.Duration
	resetTTL       time.Duration

	now func() time.Time
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		jwtSecretKey:   cfg.JwtSecretKey,
		resetSecretKey: cfg.ResetSecretKey,
		audience:       cfg.Audience,
		issuer:         cfg.Issuer,
		accessTTL:      cfg.AccessTTL,
		refreshTTL:     cfg.RefreshTTL,
		resetTTL:       cfg.ResetTTL,
		now:            time.Now,
	}
}

// WithClock overrides the token clock, for tests.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	return ts
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }
func (ts *TokenService) ResetTTL() time.Duration   { return ts.resetTTL }

type accessTokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type refreshTokenClaims struct {
	RefreshTokenID string `json:"refreshTokenId"`
	jwt.RegisteredClaims
}

type resetTokenClaims struct {
	UserID  int64  `json:"userId"`
	TokenID string `json:"resetTokenId"`
	jwt.RegisteredClaims
}

// IssueAccessToken creates a SHA512 signed access token.
func (ts *TokenService) IssueAccessToken(userID int64, email string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.accessTTL)
	claims := &accessTokenClaims{
		Email:            email,
		RegisteredClaims: ts.registeredClaims(userID, now, expiresAt),
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signed string: %w", err)
	}
	return signedToken, expiresAt, nil
}

// IssueRefreshToken creates a refresh token bound to refreshTokenID. The
// signed token is never stored; only the id goes into the registry.
func (ts *TokenService) IssueRefreshToken(userID int64, refreshTokenID string) (string, time.Time, error) {
	now := ts.now()
	expiresAt := now.Add(ts.refreshTTL)
	claims := &refreshTokenClaims{
		RefreshTokenID:   refreshTokenID,
		RegisteredClaims: ts.registeredClaims(userID, now, expiresAt),
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signed string: %w", err)
	}
	return signedToken, expiresAt, nil
}

// IssueResetToken creates a password-reset token carrying a fresh token id,
// signed with the reset secret.
func (ts *TokenService) IssueResetToken(userID int64) (token, tokenID string, err error) {
	now := ts.now()
	tokenID = uuid.NewString()
	claims := &resetTokenClaims{
		UserID:           userID,
		TokenID:          tokenID,
		RegisteredClaims: ts.registeredClaims(userID, now, now.Add(ts.resetTTL)),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(ts.resetSecretKey)
	if err != nil {
		return "", "", fmt.Errorf("signed string: %w", err)
	}
	return token, tokenID, nil
}

// VerifyAccessToken returns the subject user id and email. Any failure maps
// to ErrTokenInvalid; claim contents never leak past this boundary.
func (ts *TokenService) VerifyAccessToken(token string) (int64, string, error) {
	claims := &accessTokenClaims{}
	if err := ts.parse(token, claims, ts.jwtSecretKey); err != nil {
		return 0, "", err
	}
	userID, err := subjectUserID(&claims.RegisteredClaims)
	if err != nil {
		return 0, "", err
	}
	return userID, claims.Email, nil
}

func (ts *TokenService) VerifyRefreshToken(token string) (int64, string, error) {
	claims := &refreshTokenClaims{}
	if err := ts.parse(token, claims, ts.jwtSecretKey); err != nil {
		return 0, "", err
	}
	if claims.RefreshTokenID == "" {
		return 0, "", ErrTokenInvalid
	}
	userID, err := subjectUserID(&claims.RegisteredClaims)
	if err != nil {
		return 0, "", err
	}
	return userID, claims.RefreshTokenID, nil
}

func (ts *TokenService) VerifyResetToken(token string) (int64, string, error) {
	claims := &resetTokenClaims{}
	if err := ts.parse(token, claims, ts.resetSecretKey); err != nil {
		return 0, "", err
	}
	if claims.UserID == 0 {
		return 0, "", ErrTokenInvalid
	}
	return claims.UserID, claims.TokenID, nil
}

func (ts *TokenService) registeredClaims(userID int64, now, expiresAt time.Time) jwt.RegisteredClaims {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    ts.issuer,
	}
	if ts.audience != "" {
		claims.Audience = jwt.ClaimStrings{ts.audience}
	}
	return claims
}

func (ts *TokenService) parse(token string, claims jwt.Claims, secret []byte) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.audience != "" {
		opts = append(opts, jwt.WithAudience(ts.audience))
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return secret, nil
		},
		opts...,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if parsedToken == nil || !parsedToken.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func subjectUserID(claims *jwt.RegisteredClaims) (int64, error) {
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidUserID
	}
	return userID, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mwilder2/diarydawn-backend/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidatedRefreshToken means the presented refresh-token id does not
	// match the stored one (or none is stored). Distinct from a plain miss:
	// it fires on replay after rotation or logout.
	ErrInvalidatedRefreshToken = errors.New("refresh token invalidated")

	ErrStorageUnavailable = errors.New("storage unavailable")
)

// DBTX lets repositories run against *sql.DB and *sql.Tx interchangeably.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	UserRepository
	BookRepository
}

type UserRepository interface {
	// CreateUserWithDefaults creates the user plus the default profile and
	// diary content in one transaction. Exactly one of passwordHash/googleID
	// must be non-nil.
	CreateUserWithDefaults(ctx context.Context, email string, passwordHash, googleID *string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

type BookRepository interface {
	GetResultsByUserAndBook(ctx context.Context, userID, bookID int64) ([]models.Result, error)
}

// SessionRegistry is the sole owner of the key-value store tracking refresh
// token ids, public session ids and reset token ids. No other component
// issues raw store commands.
type SessionRegistry interface {
	InsertRefreshID(ctx context.Context, userID int64, tokenID string) error
	ValidateRefreshID(ctx context.Context, userID int64, tokenID string) error
	// ConsumeRefreshID validates and deletes the stored id in one atomic step.
	// This is the rotation primitive: of two concurrent refreshes with the
	// same token, exactly one consumes it.
	ConsumeRefreshID(ctx context.Context, userID int64, tokenID string) error
	InvalidateRefreshID(ctx context.Context, userID int64) error

	InsertSessionID(ctx context.Context, sessionID string) error
	ValidateSessionID(ctx context.Context, sessionID string) bool
	InvalidateSessionID(ctx context.Context, sessionID string) error

	InsertResetID(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error
	ConsumeResetID(ctx context.Context, userID int64, tokenID string) error
	InvalidateResetID(ctx context.Context, userID int64) error
}

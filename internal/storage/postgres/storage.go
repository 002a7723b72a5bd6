package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

const pgUniqueViolation = "23505"

type Storage struct {
	db *sql.DB
	*UserRepository
	*BookRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:             db,
		UserRepository: NewUserRepository(db),
		BookRepository: NewBookRepository(db),
	}
}

// CreateUserWithDefaults creates the user together with the default profile
// and starter diary content. A concurrent duplicate registration loses on the
// email unique constraint and surfaces as ErrDuplicateUser.
func (s *Storage) CreateUserWithDefaults(ctx context.Context, email string, passwordHash, googleID *string) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	userRepoTx := NewUserRepository(tx)
	bookRepoTx := NewBookRepository(tx)

	user, err := userRepoTx.createUser(ctx, email, passwordHash, googleID)
	if err != nil {
		return nil, err
	}

	if err := userRepoTx.createProfile(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to create profile in tx: %w", err)
	}
	if err := bookRepoTx.createDiaryDefaults(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to create diary defaults in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return user, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return storage.ErrDuplicateUser
	}
	return err
}

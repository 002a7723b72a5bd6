package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

type UserRepository struct {
	db storage.DBTX
}

func NewUserRepository(db storage.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password, google_id, created_at, updated_at`

func (r *UserRepository) createUser(ctx context.Context, email string, passwordHash, googleID *string) (*models.User, error) {
	query := `INSERT INTO users (email, password, google_id) VALUES ($1, $2, $3) RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, passwordHash, googleID))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", mapUniqueViolation(err))
	}
	return user, nil
}

func (r *UserRepository) createProfile(ctx context.Context, userID int64) error {
	query := `INSERT INTO profiles (user_id) VALUES ($1)`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, googleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by google id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if affected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var password, googleID sql.NullString
	err := row.Scan(&user.ID, &user.Email, &password, &googleID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if password.Valid {
		user.Password = &password.String
	}
	if googleID.Valid {
		user.GoogleID = &googleID.String
	}
	return &user, nil
}

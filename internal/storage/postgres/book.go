package postgres

import (
	"context"
	"fmt"

	"github.com/mwilder2/diarydawn-backend/internal/models"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

type BookRepository struct {
	db storage.DBTX
}

func NewBookRepository(db storage.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

const defaultBookTitle = "My Diary"

// createDiaryDefaults gives a fresh account its first book and a starter page.
func (r *BookRepository) createDiaryDefaults(ctx context.Context, userID int64) error {
	var bookID int64
	query := `INSERT INTO books (user_id, title) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, defaultBookTitle).Scan(&bookID); err != nil {
		return fmt.Errorf("failed to create default book: %w", err)
	}

	query = `INSERT INTO pages (book_id, entry_type, content) VALUES ($1, 'gratitude', '')`
	if _, err := r.db.ExecContext(ctx, query, bookID); err != nil {
		return fmt.Errorf("failed to create default page: %w", err)
	}
	return nil
}

func (r *BookRepository) GetResultsByUserAndBook(ctx context.Context, userID, bookID int64) ([]models.Result, error) {
	query := `SELECT r.id, r.model_name, r.trait_name, r.trait_value
		FROM results r
		JOIN books b ON b.id = r.book_id
		WHERE b.user_id = $1 AND r.book_id = $2
		ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var res models.Result
		if err := rows.Scan(&res.ID, &res.ModelName, &res.TraitName, &res.TraitValue); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

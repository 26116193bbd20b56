package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/stocktake/internal/domain"
)

// ErrNotFound is returned by mutations that target a missing item.
var ErrNotFound = errors.New("item not found")

const itemColumns = `id, name, description, photo_key, created_at, updated_at`

// ItemStore is the SQLite-backed catalog.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, name, description, photoKey string) (*domain.Item, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, description, photo_key) VALUES (?, ?, ?)
	`, name, description, photoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item := &domain.Item{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id = ?
	`, id).Scan(&item.ID, &item.Name, &item.Description, &item.PhotoKey, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM items ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	items := []*domain.Item{}
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.PhotoKey, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *ItemStore) Update(ctx context.Context, id int64, name, description string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, name, description, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return checkAffected(result)
}

func (s *ItemStore) SetPhoto(ctx context.Context, id int64, photoKey string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET photo_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to set item photo: %w", err)
	}
	return checkAffected(result)
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shareit/internal/models"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, available, owner_id, request_id)
         VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Available, item.OwnerID, item.RequestID)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, available, owner_id, request_id
         FROM items WHERE id = ?`, id).
		Scan(&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &item.RequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// UpdateItem overwrites all mutable item fields. Merging a partial payload
// into the current row is the service's job.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, available = ?, request_id = ? WHERE id = ?`,
		item.Name, item.Description, item.Available, item.RequestID, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetItemsByOwner(ctx context.Context, ownerID int64) ([]models.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, available, owner_id, request_id
         FROM items WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by owner: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems matches text case-insensitively against name or description,
// available items only. Blank text is handled by the service.
func (db *DB) SearchItems(ctx context.Context, text string) ([]models.Item, error) {
	pattern := "%" + strings.ToLower(text) + "%"
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, available, owner_id, request_id
         FROM items
         WHERE available = 1 AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
         ORDER BY id`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (db *DB) GetItemsByRequest(ctx context.Context, requestID int64) ([]models.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, description, available, owner_id, request_id
         FROM items WHERE request_id = ? ORDER BY id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by request: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Available, &item.OwnerID, &item.RequestID); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

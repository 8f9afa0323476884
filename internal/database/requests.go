package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shareit/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO requests (description, requestor_id, created_at) VALUES (?, ?, ?)`,
		request.Description, request.RequestorID, request.Created.UTC())
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	request.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var request models.ItemRequest
	err := db.QueryRowContext(ctx,
		`SELECT id, description, requestor_id, created_at FROM requests WHERE id = ?`, id).
		Scan(&request.ID, &request.Description, &request.RequestorID, &request.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if err := db.attachItems(ctx, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (db *DB) GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, description, requestor_id, created_at
         FROM requests WHERE requestor_id = ? ORDER BY created_at DESC`, requestorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests by requestor: %w", err)
	}
	defer rows.Close()

	return db.scanRequestsWithItems(ctx, rows)
}

// GetRequestsExcludingRequestor lists everyone else's requests, newest
// first.
func (db *DB) GetRequestsExcludingRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, description, requestor_id, created_at
         FROM requests WHERE requestor_id <> ? ORDER BY created_at DESC`, requestorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests: %w", err)
	}
	defer rows.Close()

	return db.scanRequestsWithItems(ctx, rows)
}

func (db *DB) scanRequestsWithItems(ctx context.Context, rows *sql.Rows) ([]models.ItemRequest, error) {
	var requests []models.ItemRequest
	for rows.Next() {
		var request models.ItemRequest
		if err := rows.Scan(&request.ID, &request.Description, &request.RequestorID, &request.Created); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read requests: %w", err)
	}

	for i := range requests {
		if err := db.attachItems(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

func (db *DB) attachItems(ctx context.Context, request *models.ItemRequest) error {
	items, err := db.GetItemsByRequest(ctx, request.ID)
	if err != nil {
		return err
	}
	request.Items = items
	return nil
}

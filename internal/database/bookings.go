package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

// Times are stored in UTC so that the driver's serialized form compares
// consistently inside SQL.

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO bookings (start_at, end_at, item_id, booker_id, status)
         VALUES (?, ?, ?, ?, ?)`,
		booking.Start.UTC(), booking.End.UTC(), booking.ItemID, booking.BookerID, booking.Status)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return nil
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := db.QueryRowContext(ctx,
		`SELECT id, start_at, end_at, item_id, booker_id, status
         FROM bookings WHERE id = ?`, id).
		Scan(&booking.ID, &booking.Start, &booking.End, &booking.ItemID, &booking.BookerID, &booking.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// TransitionBookingStatus moves a booking from one status to another as a
// single conditional update. Two concurrent approvals cannot both pass:
// the second one matches zero rows and gets ErrAlreadyProcessed.
func (db *DB) TransitionBookingStatus(ctx context.Context, id int64, from, to string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// ExpireBooking flips an APPROVED booking whose end has passed to REJECTED.
// Returns whether the row actually changed.
func (db *DB) ExpireBooking(ctx context.Context, id int64, now time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ? AND end_at < ?`,
		models.StatusRejected, id, models.StatusApproved, now.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to expire booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetBookingsByItem returns all bookings of an item ordered by start
// ascending, the order the last/next scan expects.
func (db *DB) GetBookingsByItem(ctx context.Context, itemID int64) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, start_at, end_at, item_id, booker_id, status
         FROM bookings WHERE item_id = ? ORDER BY start_at ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by item: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetBookingsByBooker returns all bookings a user made, ordered by start
// descending. State bucketing happens in the service.
func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, start_at, end_at, item_id, booker_id, status
         FROM bookings WHERE booker_id = ? ORDER BY start_at DESC`, bookerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by booker: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// HasFinishedBooking reports whether the user has a booking of the item
// that ended strictly before now. Gates comment creation.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE booker_id = ? AND item_id = ? AND end_at < ?`,
		bookerID, itemID, now.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return count > 0, nil
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		if err := rows.Scan(&booking.ID, &booking.Start, &booking.End, &booking.ItemID, &booking.BookerID, &booking.Status); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

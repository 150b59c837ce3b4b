package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intconfig "rentalhub/internal/config"
	"rentalhub/internal/domain/models"
)

var historyColumnList = append(append([]string{}, bookingColumnList...), "booking_id", "returned_at")

var historyColumns = strings.Join(historyColumnList, ", ")

type HistoryRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

func (r HistoryRepository) WithTx(tx *sql.Tx) HistoryRepository {
	r.Tx = tx
	return r
}

func (r HistoryRepository) conn() (DBTX, error) {
	if r.Tx != nil {
		return r.Tx, nil
	}
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, fmt.Errorf("database not connected")
}

func (r HistoryRepository) Insert(ctx context.Context, h models.History) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	args := append(bookingArgs(h.Booking), h.BookingID, h.ReturnedAt)
	_, err = q.ExecContext(ctx,
		`INSERT INTO histories (`+historyColumns+`) VALUES (`+placeholders(len(historyColumnList))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r HistoryRepository) GetByID(ctx context.Context, id string) (models.History, error) {
	q, err := r.conn()
	if err != nil {
		return models.History{}, err
	}
	return scanHistory(q.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM histories WHERE id=? LIMIT 1`, id))
}

func (r HistoryRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.History, error) {
	return r.list(ctx, `customer_id=?`, customerID)
}

func (r HistoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.History, error) {
	return r.list(ctx, `owner_id=?`, ownerID)
}

func (r HistoryRepository) list(ctx context.Context, where string, args ...any) ([]models.History, error) {
	q, err := r.conn()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM histories WHERE `+where+` ORDER BY returned_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	out := []models.History{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHistory(row rowScanner) (models.History, error) {
	var h models.History
	b, err := scanBooking(row, &h.BookingID, &h.ReturnedAt)
	if err != nil {
		return models.History{}, err
	}
	h.Booking = b
	return h, nil
}

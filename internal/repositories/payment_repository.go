package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "rentalhub/internal/config"
	intdb "rentalhub/internal/db"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"
)

// PaymentRepository keeps the local ledger of provider payment intents.
type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() (*sql.DB, error) {
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, fmt.Errorf("database not connected")
}

// Save inserts an intent or refreshes it when the provider reissues the id.
func (r PaymentRepository) Save(ctx context.Context, p models.PaymentIntentRecord) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	now := utils.NowUTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO payment_intents (intent_id, booking_id, method, amount, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE booking_id=COALESCE(VALUES(booking_id), booking_id), status=VALUES(status), updated_at=VALUES(updated_at)`,
		p.IntentID, intdb.NullIfEmpty(p.BookingID), p.Method, p.Amount, p.Status, p.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("save payment intent: %w", err)
	}
	return nil
}

// UpdateStatus returns sql.ErrNoRows for intents this server never issued.
func (r PaymentRepository) UpdateStatus(ctx context.Context, intentID, status string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE payment_intents SET status=?, updated_at=? WHERE intent_id=?`,
		status, utils.NowUTC(), intentID,
	)
	if err != nil {
		return fmt.Errorf("update payment intent: %w", err)
	}
	return expectOneRow(res, sql.ErrNoRows)
}

func (r PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (models.PaymentIntentRecord, error) {
	db, err := r.db()
	if err != nil {
		return models.PaymentIntentRecord{}, err
	}
	var (
		p         models.PaymentIntentRecord
		bookingID sql.NullString
	)
	err = db.QueryRowContext(ctx, `
		SELECT intent_id, booking_id, method, amount, status, created_at, updated_at
		FROM payment_intents WHERE intent_id=? LIMIT 1`, intentID).Scan(
		&p.IntentID, &bookingID, &p.Method, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.PaymentIntentRecord{}, err
	}
	p.BookingID = bookingID.String
	return p, nil
}

// LinkBooking attaches an intent to the booking it paid for.
func (r PaymentRepository) LinkBooking(ctx context.Context, intentID, bookingID string) error {
	db, err := r.db()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE payment_intents SET booking_id=?, updated_at=? WHERE intent_id=?`,
		bookingID, utils.NowUTC(), intentID,
	)
	if err != nil {
		return fmt.Errorf("link payment intent: %w", err)
	}
	return nil
}

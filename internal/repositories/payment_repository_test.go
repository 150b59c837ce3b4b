package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"rentalhub/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPaymentRepository_SaveAndGet(t *testing.T) {
	conn, mock := newMock(t)
	repo := PaymentRepository{DB: conn}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO payment_intents .* ON DUPLICATE KEY UPDATE`).
		WithArgs("pi_1", nil, "Gcash", 1050.0, "awaiting_next_action", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM payment_intents WHERE intent_id=\?`).WithArgs("pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"intent_id", "booking_id", "method", "amount", "status", "created_at", "updated_at"}).
			AddRow("pi_1", nil, "Gcash", 1050.0, "awaiting_next_action", now, now))

	err := repo.Save(context.Background(), models.PaymentIntentRecord{IntentID: "pi_1", Method: "Gcash", Amount: 1050, Status: "awaiting_next_action"})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := repo.GetByIntentID(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("GetByIntentID returned error: %v", err)
	}
	if got.BookingID != "" || got.Amount != 1050 || got.Method != "Gcash" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestPaymentRepository_UpdateStatusUnknownIntent(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec(`UPDATE payment_intents SET status=\?`).
		WithArgs("succeeded", sqlmock.AnyArg(), "pi_x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := PaymentRepository{DB: conn}.UpdateStatus(context.Background(), "pi_x", "succeeded")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

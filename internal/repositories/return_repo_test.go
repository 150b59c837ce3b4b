package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentalhub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReturnRepository_Archive(t *testing.T) {
	conn, mock := newMock(t)
	b := sampleBooking(domain.StatusOngoing)
	at := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id=\? LIMIT 1 FOR UPDATE`).WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows(bookingColumnList).AddRow(bookingRowValues(b)...))
	mock.ExpectExec(`INSERT INTO histories`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE items SET available_quantity = available_quantity \+ 1 WHERE id=\?`).WithArgs("i-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT available_quantity FROM items WHERE id=\?`).WithArgs("i-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(3))
	mock.ExpectExec(`DELETE FROM bookings WHERE id=\?`).WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := ReturnRepository{DB: conn}.Archive(context.Background(), "b-1", "h-1", at)
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if res.History.ID != "h-1" || res.History.BookingID != "b-1" {
		t.Fatalf("history ids wrong: %+v", res.History)
	}
	if res.History.Status != domain.StatusTerminated {
		t.Fatalf("history status = %s, want terminated", res.History.Status)
	}
	if !res.History.ReturnedAt.Equal(at) {
		t.Fatalf("returnedAt = %v", res.History.ReturnedAt)
	}
	if res.AvailableQuantity != 3 {
		t.Fatalf("available = %d, want 3", res.AvailableQuantity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReturnRepository_ArchiveRequiresOngoing(t *testing.T) {
	conn, mock := newMock(t)
	b := sampleBooking(domain.StatusBooked)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows(bookingColumnList).AddRow(bookingRowValues(b)...))
	mock.ExpectRollback()

	_, err := ReturnRepository{DB: conn}.Archive(context.Background(), "b-1", "h-1", time.Now())
	if !domain.IsIllegalTransition(err) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReturnRepository_ArchiveRollsBackOnInventoryFailure(t *testing.T) {
	conn, mock := newMock(t)
	b := sampleBooking(domain.StatusOngoing)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("b-1").
		WillReturnRows(sqlmock.NewRows(bookingColumnList).AddRow(bookingRowValues(b)...))
	mock.ExpectExec(`INSERT INTO histories`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE items`).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	if _, err := (ReturnRepository{DB: conn}).Archive(context.Background(), "b-1", "h-1", time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

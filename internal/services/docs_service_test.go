package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
)

func TestDocsServiceGenerate(t *testing.T) {
	loader := func(_ context.Context, id string) (receiptData, error) {
		b := storedBooking(id, domain.StatusBooked)
		b.PaymentIntentID = "pi_1"
		b.PaymentStatus = models.PaymentStatusPaid
		return receiptData{Booking: b}, nil
	}

	svc := DocsService{Loader: loader, Location: manila}

	pdf, filename, err := svc.GenerateReceipt(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GenerateReceipt returned error: %v", err)
	}
	if len(pdf) == 0 || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("GenerateReceipt returned invalid data")
	}
	if !strings.HasPrefix(filename, "RECEIPT_b1_") || !strings.HasSuffix(filename, ".pdf") {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestDocsServiceFallsBackToHistory(t *testing.T) {
	h := models.NewHistory("h1", storedBooking("b9", domain.StatusOngoing), time.Date(2026, 3, 3, 1, 0, 0, 0, time.UTC))
	svc := DocsService{Bookings: newMemBookings(), Histories: memHistories{h}}

	pdf, _, err := svc.GenerateReceipt(context.Background(), "h1")
	if err != nil || len(pdf) == 0 {
		t.Fatalf("GenerateReceipt = %d bytes, %v", len(pdf), err)
	}
	if _, _, err := svc.GenerateReceipt(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders booking receipts as PDF.
type DocsService struct {
	Bookings  BookingStore
	Histories HistoryStore
	Location  *time.Location
	RequestID string
	Loader    func(ctx context.Context, id string) (receiptData, error)
}

type receiptData struct {
	Booking    models.Booking
	ReturnedAt *time.Time
	Archived   bool
}

// GenerateReceipt renders the receipt of an active booking or, when the id
// belongs to an archived rental, of its history record.
func (s DocsService) GenerateReceipt(ctx context.Context, id string) ([]byte, string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, "", domain.ValidationError{Field: "id", Msg: "is required"}
	}
	data, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_receipt", fmt.Sprintf("id=%s archived=%t", id, data.Archived))
	return buildReceiptPDF(data, s.Location)
}

func (s DocsService) load(ctx context.Context, id string) (receiptData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	if s.Bookings != nil {
		b, err := s.Bookings.GetByID(ctx, id)
		if err == nil {
			return receiptData{Booking: b}, nil
		}
		if !domain.IsNotFound(storeErr("booking", err)) {
			return receiptData{}, storeErr("booking", err)
		}
	}
	if s.Histories != nil {
		h, err := s.Histories.GetByID(ctx, id)
		if err == nil {
			at := h.ReturnedAt
			return receiptData{Booking: h.Booking, ReturnedAt: &at, Archived: true}, nil
		}
		return receiptData{}, storeErr("booking", err)
	}
	return receiptData{}, domain.NotFoundError{Resource: "booking", Err: errors.New("no receipt source configured")}
}

func buildReceiptPDF(d receiptData, loc *time.Location) ([]byte, string, error) {
	if loc == nil {
		loc = time.UTC
	}
	b := d.Booking
	at := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return utils.FormatDateTime(t.In(loc))
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Rental Receipt", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RENTAL RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID     : %s", safe(b.ID, "-")),
		fmt.Sprintf("Status         : %s", safe(string(b.Status), "-")),
		fmt.Sprintf("Item           : %s (%s)", safe(b.Item.Product, "-"), safe(b.Item.Category, "-")),
		fmt.Sprintf("Item location  : %s", safe(b.Item.Location, "-")),
		fmt.Sprintf("Customer       : %s", safe(b.Customer.Name, "-")),
		fmt.Sprintf("Phone          : %s", safe(b.Customer.Phone, "-")),
		fmt.Sprintf("Address        : %s", safe(b.Customer.Address, "-")),
		fmt.Sprintf("Pickup         : %s", at(b.Terms.PickUpDate)),
		fmt.Sprintf("Return         : %s", at(b.Terms.ReturnDate)),
		fmt.Sprintf("Payment method : %s", safe(b.Terms.PaymentMethod, "-")),
	}
	if b.PaymentIntentID != "" {
		lines = append(lines, fmt.Sprintf("Payment ref    : %s (%s)", b.PaymentIntentID, safe(b.PaymentStatus, "-")))
	}
	if d.ReturnedAt != nil {
		lines = append(lines, fmt.Sprintf("Returned       : %s", at(*d.ReturnedAt)))
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Charges:")
	pdf.Ln(8)

	f := b.Financials
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%s x %d %s", utils.FormatPeso(f.RatePerPeriod), f.RentalDuration, periodNoun(b.Terms.RentalPeriod, f.RentalDuration)))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Delivery charge: "+utils.FormatPeso(f.DeliveryCharge))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Grand total: "+utils.FormatPeso(f.GrandTotal))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please keep this receipt until the item has been returned to its owner.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("RECEIPT_%s_%s.pdf", utils.SafeFilenamePart(b.ID), utils.SafeFilenamePart(b.Customer.Name))
	return buf.Bytes(), filename, nil
}

func periodNoun(period string, n int) string {
	noun := "day"
	switch strings.ToLower(period) {
	case "hour":
		noun = "hour"
	case "week":
		noun = "week"
	}
	if n != 1 {
		noun += "s"
	}
	return noun
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

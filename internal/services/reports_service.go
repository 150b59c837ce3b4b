package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"

	"github.com/xuri/excelize/v2"
)

// ReportsService builds the owner's spreadsheet of active and archived rentals.
type ReportsService struct {
	Bookings  BookingStore
	Histories HistoryStore
	Location  *time.Location
	RequestID string
}

// OwnerSummary totals an owner's rentals by status.
type OwnerSummary struct {
	ByStatus      map[domain.Status]int `json:"byStatus"`
	Returned      int                   `json:"returned"`
	PaidTotal     float64               `json:"paidTotal"`
	ReturnedTotal float64               `json:"returnedTotal"`
}

var bookingSheetHeaders = []string{
	"Booking ID", "Item", "Customer", "Phone", "Status", "Period", "Pickup", "Return",
	"Payment Method", "Payment Status", "Rate", "Duration", "Delivery", "Grand Total",
}

func (s ReportsService) Summary(ctx context.Context, ownerID string) (OwnerSummary, error) {
	bookings, histories, err := s.load(ctx, ownerID)
	if err != nil {
		return OwnerSummary{}, err
	}
	return summarize(bookings, histories), nil
}

// ExportOwner returns an XLSX workbook with Bookings, History and Summary sheets.
func (s ReportsService) ExportOwner(ctx context.Context, ownerID string) ([]byte, string, error) {
	bookings, histories, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Bookings"); err != nil {
		return nil, "", err
	}
	if err := s.writeBookings(f, "Bookings", bookingSheetHeaders, len(bookings), func(i int) []any {
		return s.bookingRow(bookings[i])
	}); err != nil {
		return nil, "", err
	}

	if _, err := f.NewSheet("History"); err != nil {
		return nil, "", err
	}
	historyHeaders := append(append([]string{}, bookingSheetHeaders...), "Returned At")
	if err := s.writeBookings(f, "History", historyHeaders, len(histories), func(i int) []any {
		return append(s.bookingRow(histories[i].Booking), s.stamp(histories[i].ReturnedAt))
	}); err != nil {
		return nil, "", err
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, "", err
	}
	if err := writeSummary(f, "Summary", summarize(bookings, histories)); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "reports", "export_owner", fmt.Sprintf("owner_id=%s bookings=%d histories=%d", ownerID, len(bookings), len(histories)))
	return buf.Bytes(), fmt.Sprintf("RENTALS_%s.xlsx", utils.SafeFilenamePart(ownerID)), nil
}

func (s ReportsService) load(ctx context.Context, ownerID string) ([]models.Booking, []models.History, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, nil, domain.ValidationError{Field: "ownerId", Msg: "is required"}
	}
	bookings, err := s.Bookings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, domain.InternalError{Msg: "failed to load bookings", Err: err}
	}
	histories, err := s.Histories.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, domain.InternalError{Msg: "failed to load history", Err: err}
	}
	return bookings, histories, nil
}

func (s ReportsService) writeBookings(f *excelize.File, sheet string, headers []string, n int, row func(int) []any) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	for r := 0; r < n; r++ {
		for c, v := range row(r) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s ReportsService) bookingRow(b models.Booking) []any {
	return []any{
		b.ID,
		b.Item.Product,
		b.Customer.Name,
		b.Customer.Phone,
		string(b.Status),
		b.Terms.RentalPeriod,
		s.stamp(b.Terms.PickUpDate),
		s.stamp(b.Terms.ReturnDate),
		b.Terms.PaymentMethod,
		b.PaymentStatus,
		b.Financials.RatePerPeriod,
		b.Financials.RentalDuration,
		b.Financials.DeliveryCharge,
		b.Financials.GrandTotal,
	}
}

func (s ReportsService) stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if s.Location != nil {
		t = t.In(s.Location)
	}
	return utils.FormatDateTime(t)
}

func summarize(bookings []models.Booking, histories []models.History) OwnerSummary {
	out := OwnerSummary{ByStatus: map[domain.Status]int{}, Returned: len(histories)}
	for _, b := range bookings {
		out.ByStatus[b.Status]++
		if b.PaymentStatus == models.PaymentStatusPaid {
			out.PaidTotal += b.Financials.GrandTotal
		}
	}
	for _, h := range histories {
		out.ReturnedTotal += h.Financials.GrandTotal
	}
	out.PaidTotal = utils.Round2(out.PaidTotal)
	out.ReturnedTotal = utils.Round2(out.ReturnedTotal)
	return out
}

func writeSummary(f *excelize.File, sheet string, sum OwnerSummary) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Returned rentals", sum.Returned},
		{"Paid total (active)", sum.PaidTotal},
		{"Returned total", sum.ReturnedTotal},
	}
	for _, st := range []domain.Status{
		domain.StatusPending, domain.StatusBooked, domain.StatusApproved, domain.StatusApprovedToRent,
		domain.StatusOngoing, domain.StatusTerminated, domain.StatusCancelled, domain.StatusRejected, domain.StatusRejectedToRent,
	} {
		rows = append(rows, []any{"Status: " + string(st), sum.ByStatus[st]})
	}
	for r, vals := range rows {
		for c, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

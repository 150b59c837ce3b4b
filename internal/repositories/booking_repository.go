package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "rentalhub/internal/config"
	intdb "rentalhub/internal/db"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"
)

// ErrStatusChanged is returned by compare-and-set updates when the row is
// no longer in the expected status.
var ErrStatusChanged = errors.New("booking status changed concurrently")

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var bookingColumnList = []string{
	"id", "item_id", "customer_id", "owner_id",
	"product", "category", "location", "price_per_day", "item_image",
	"customer_name", "customer_email", "customer_phone", "customer_address", "customer_gender", "customer_barangay",
	"rental_period", "pick_up_date", "return_date", "payment_method",
	"amount", "rental_duration", "rate_per_period", "delivery_charge", "grand_total",
	"guarantor1_full_name", "guarantor1_phone", "guarantor1_address", "guarantor1_email",
	"guarantor2_full_name", "guarantor2_phone", "guarantor2_address", "guarantor2_email",
	"payment_intent_id", "payment_status", "is_read", "read_at", "status", "created_at", "updated_at",
}

var bookingColumns = strings.Join(bookingColumnList, ", ")

// Statuses listed on the customer's "booked items" screen.
var activeStatuses = []domain.Status{
	domain.StatusBooked, domain.StatusApproved, domain.StatusApprovedToRent, domain.StatusOngoing,
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func bookingArgs(b models.Booking) []any {
	g1, g2 := b.Guarantors[0], b.Guarantors[1]
	var readAt any
	if b.ReadAt != nil {
		readAt = *b.ReadAt
	}
	return []any{
		b.ID, b.ItemID, b.CustomerID, b.OwnerID,
		b.Item.Product, b.Item.Category, b.Item.Location, b.Item.PricePerDay, b.Item.ItemImage,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone, b.Customer.Address, b.Customer.Gender, b.Customer.Barangay,
		b.Terms.RentalPeriod, intdb.NullTime(b.Terms.PickUpDate), intdb.NullTime(b.Terms.ReturnDate), b.Terms.PaymentMethod,
		b.Financials.Amount, b.Financials.RentalDuration, b.Financials.RatePerPeriod, b.Financials.DeliveryCharge, b.Financials.GrandTotal,
		intdb.NullIfEmpty(g1.FullName), intdb.NullIfEmpty(g1.Phone), intdb.NullIfEmpty(g1.Address), intdb.NullIfEmpty(g1.Email),
		intdb.NullIfEmpty(g2.FullName), intdb.NullIfEmpty(g2.Phone), intdb.NullIfEmpty(g2.Address), intdb.NullIfEmpty(g2.Email),
		intdb.NullIfEmpty(b.PaymentIntentID), intdb.NullIfEmpty(b.PaymentStatus), b.IsRead, readAt, string(b.Status), b.CreatedAt, b.UpdatedAt,
	}
}

// scanBooking reads bookingColumnList in order followed by any extra
// destinations.
func scanBooking(row rowScanner, extra ...any) (models.Booking, error) {
	var (
		b                 models.Booking
		pick, ret, readAt sql.NullTime
		g                 [2][4]sql.NullString
		intent, payStatus sql.NullString
		status            string
	)
	dest := []any{
		&b.ID, &b.ItemID, &b.CustomerID, &b.OwnerID,
		&b.Item.Product, &b.Item.Category, &b.Item.Location, &b.Item.PricePerDay, &b.Item.ItemImage,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone, &b.Customer.Address, &b.Customer.Gender, &b.Customer.Barangay,
		&b.Terms.RentalPeriod, &pick, &ret, &b.Terms.PaymentMethod,
		&b.Financials.Amount, &b.Financials.RentalDuration, &b.Financials.RatePerPeriod, &b.Financials.DeliveryCharge, &b.Financials.GrandTotal,
		&g[0][0], &g[0][1], &g[0][2], &g[0][3],
		&g[1][0], &g[1][1], &g[1][2], &g[1][3],
		&intent, &payStatus, &b.IsRead, &readAt, &status, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Booking{}, err
	}

	b.Terms.PickUpDate = pick.Time
	b.Terms.ReturnDate = ret.Time
	if readAt.Valid {
		t := readAt.Time
		b.ReadAt = &t
	}
	for i := range g {
		b.Guarantors[i] = models.Guarantor{
			FullName: g[i][0].String,
			Phone:    g[i][1].String,
			Address:  g[i][2].String,
			Email:    g[i][3].String,
		}
	}
	b.PaymentIntentID = intent.String
	b.PaymentStatus = payStatus.String
	if st, err := domain.ParseStatus(status); err == nil {
		b.Status = st
	} else {
		b.Status = domain.Status(status)
	}
	return b, nil
}

type BookingRepository struct {
	DB *sql.DB
	Tx *sql.Tx
}

// WithTx returns a copy of the repository bound to tx.
func (r BookingRepository) WithTx(tx *sql.Tx) BookingRepository {
	r.Tx = tx
	return r
}

func (r BookingRepository) conn() (DBTX, error) {
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

func (r BookingRepository) Create(ctx context.Context, b models.Booking) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (`+placeholders(len(bookingColumnList))+`)`,
		bookingArgs(b)...,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID returns sql.ErrNoRows when the booking does not exist.
func (r BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
}

// GetByIDForUpdate locks the row; only meaningful inside a transaction.
func (r BookingRepository) GetByIDForUpdate(ctx context.Context, id string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1 FOR UPDATE`, id)
}

func (r BookingRepository) GetByIntentID(ctx context.Context, intentID string) (models.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id=? ORDER BY updated_at DESC LIMIT 1`, intentID)
}

func (r BookingRepository) getOne(ctx context.Context, query string, args ...any) (models.Booking, error) {
	q, err := r.conn()
	if err != nil {
		return models.Booking{}, err
	}
	return scanBooking(q.QueryRowContext(ctx, query, args...))
}

// Update rewrites the submission payload of a booking still in expected.
// Item snapshot and ownership are immutable and not touched.
func (r BookingRepository) Update(ctx context.Context, b models.Booking, expected domain.Status) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	g1, g2 := b.Guarantors[0], b.Guarantors[1]
	res, err := q.ExecContext(ctx, `
		UPDATE bookings SET
			customer_name=?, customer_email=?, customer_phone=?, customer_address=?, customer_gender=?, customer_barangay=?,
			rental_period=?, pick_up_date=?, return_date=?, payment_method=?,
			amount=?, rental_duration=?, rate_per_period=?, delivery_charge=?, grand_total=?,
			guarantor1_full_name=?, guarantor1_phone=?, guarantor1_address=?, guarantor1_email=?,
			guarantor2_full_name=?, guarantor2_phone=?, guarantor2_address=?, guarantor2_email=?,
			status=?, updated_at=?
		WHERE id=? AND status=?`,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone, b.Customer.Address, b.Customer.Gender, b.Customer.Barangay,
		b.Terms.RentalPeriod, intdb.NullTime(b.Terms.PickUpDate), intdb.NullTime(b.Terms.ReturnDate), b.Terms.PaymentMethod,
		b.Financials.Amount, b.Financials.RentalDuration, b.Financials.RatePerPeriod, b.Financials.DeliveryCharge, b.Financials.GrandTotal,
		intdb.NullIfEmpty(g1.FullName), intdb.NullIfEmpty(g1.Phone), intdb.NullIfEmpty(g1.Address), intdb.NullIfEmpty(g1.Email),
		intdb.NullIfEmpty(g2.FullName), intdb.NullIfEmpty(g2.Phone), intdb.NullIfEmpty(g2.Address), intdb.NullIfEmpty(g2.Email),
		string(b.Status), b.UpdatedAt,
		b.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return matchedRow(ctx, q, res, b.ID, expected)
}

// UpdateStatus moves a booking from one status to another only if it is
// still in from.
func (r BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET status=?, updated_at=? WHERE id=? AND status=?`,
		string(to), utils.NowUTC(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return expectOneRow(res, ErrStatusChanged)
}

func (r BookingRepository) UpdateFinancials(ctx context.Context, id string, f models.Financials) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE bookings SET amount=?, rental_duration=?, rate_per_period=?, delivery_charge=?, grand_total=?, updated_at=?
		WHERE id=?`,
		f.Amount, f.RentalDuration, f.RatePerPeriod, f.DeliveryCharge, f.GrandTotal, utils.NowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update booking financials: %w", err)
	}
	return matchedRow(ctx, q, res, id, "")
}

// RecordPayment stores the provider intent and payment status regardless of
// the booking's lifecycle status.
func (r BookingRepository) RecordPayment(ctx context.Context, id, intentID, status string) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		`UPDATE bookings SET payment_intent_id=?, payment_status=?, updated_at=? WHERE id=?`,
		intentID, status, utils.NowUTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record booking payment: %w", err)
	}
	return matchedRow(ctx, q, res, id, "")
}

func (r BookingRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows for an already-read booking, so the
	// result is not checked here.
	_, err = q.ExecContext(ctx,
		`UPDATE bookings SET is_read=1, read_at=COALESCE(read_at, ?) WHERE id=?`, at, id,
	)
	if err != nil {
		return fmt.Errorf("mark booking read: %w", err)
	}
	return nil
}

func (r BookingRepository) Delete(ctx context.Context, id string) error {
	q, err := r.conn()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM bookings WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return expectOneRow(res, sql.ErrNoRows)
}

// ListByCustomer returns every non-cart booking of a customer, newest first.
func (r BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return r.list(ctx, `customer_id=? AND status<>?`, customerID, string(domain.StatusCart))
}

// ListActiveByCustomer returns bookings that are confirmed or in progress.
func (r BookingRepository) ListActiveByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	args := []any{customerID}
	for _, s := range activeStatuses {
		args = append(args, string(s))
	}
	return r.list(ctx, `customer_id=? AND status IN (`+placeholders(len(activeStatuses))+`)`, args...)
}

// ListByOwner returns the requests received by an owner, newest first.
func (r BookingRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	return r.list(ctx, `owner_id=? AND status<>?`, ownerID, string(domain.StatusCart))
}

func (r BookingRepository) ListCart(ctx context.Context, customerID string) ([]models.Booking, error) {
	return r.list(ctx, `customer_id=? AND status=?`, customerID, string(domain.StatusCart))
}

func (r BookingRepository) list(ctx context.Context, where string, args ...any) ([]models.Booking, error) {
	q, err := r.conn()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// matchedRow settles a zero-row UPDATE. Without clientFoundRows MySQL counts
// changed rows only, so an unchanged write is re-read before it is reported
// as missing (sql.ErrNoRows) or moved on (ErrStatusChanged). An empty
// expected skips the status check.
func matchedRow(ctx context.Context, q DBTX, res sql.Result, id string, expected domain.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var status string
	if err := q.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id=?`, id).Scan(&status); err != nil {
		return err
	}
	if expected != "" && domain.Status(status) != expected {
		return ErrStatusChanged
	}
	return nil
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}

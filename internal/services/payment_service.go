package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/payments"
	"rentalhub/internal/utils"
)

// Method labels as the mobile client sends them. The labels are crossed on
// purpose: "QRPh" opens the hosted checkout and "Gcash" shows a QR code.
const (
	MethodRedirect = "QRPh"
	MethodQR       = "Gcash"
)

// PaymentService starts provider payments and keeps the local intent ledger.
type PaymentService struct {
	Provider   payments.Provider
	Ledger     PaymentLedger
	Bookings   BookingStore
	SuccessURL string
	CancelURL  string
	Now        func() time.Time
	RequestID  string
}

type PaymentInput struct {
	BookingID   string  `json:"bookingId"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
	Name        string  `json:"name"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Phone       string  `json:"phone"`
}

// Reconciliation is the support view of one intent: what the provider says
// and what the marketplace recorded.
type Reconciliation struct {
	Intent         *models.PaymentIntentRecord `json:"intent,omitempty"`
	ProviderStatus string                      `json:"providerStatus,omitempty"`
	Booking        *models.Booking             `json:"booking,omitempty"`
	Consistent     bool                        `json:"consistent"`
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s PaymentService) CreateCheckout(ctx context.Context, in PaymentInput) (payments.CheckoutSession, error) {
	if err := validatePayment(in); err != nil {
		return payments.CheckoutSession{}, err
	}
	sess, err := s.Provider.CreateCheckout(ctx, payments.CheckoutRequest{
		BookingID:   in.BookingID,
		Amount:      in.Amount,
		Description: utils.FirstNonEmpty(in.Description, "Rental payment"),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		SuccessURL:  s.SuccessURL,
		CancelURL:   s.CancelURL,
	})
	if err != nil {
		return payments.CheckoutSession{}, s.providerErr("create_checkout", err)
	}
	utils.LogEvent(s.RequestID, "payment", "create_checkout", fmt.Sprintf("session_id=%s booking_id=%s amount=%.2f", sess.ID, in.BookingID, in.Amount))
	s.record(ctx, sess.ID, in, MethodRedirect, "pending")
	return sess, nil
}

func (s PaymentService) CreateQR(ctx context.Context, in PaymentInput) (payments.QRIntent, error) {
	if err := validatePayment(in); err != nil {
		return payments.QRIntent{}, err
	}
	intent, err := s.Provider.CreateQR(ctx, payments.QRRequest{
		BookingID:   in.BookingID,
		Amount:      in.Amount,
		Description: utils.FirstNonEmpty(in.Description, "Rental payment"),
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
	})
	if err != nil {
		return payments.QRIntent{}, s.providerErr("create_qr", err)
	}
	utils.LogEvent(s.RequestID, "payment", "create_qr", fmt.Sprintf("intent_id=%s booking_id=%s amount=%.2f", intent.IntentID, in.BookingID, in.Amount))
	s.record(ctx, intent.IntentID, in, MethodQR, intent.Status)
	return intent, nil
}

// Status asks the provider for the intent's status and mirrors it locally.
func (s PaymentService) Status(ctx context.Context, intentID string) (string, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return "", domain.ValidationError{Field: "intentId", Msg: "is required"}
	}
	status, err := s.Provider.IntentStatus(ctx, intentID)
	if err != nil {
		return "", s.providerErr("status", err)
	}
	if s.Ledger != nil {
		if err := s.Ledger.UpdateStatus(ctx, intentID, status); err != nil && !errors.Is(err, sql.ErrNoRows) {
			utils.LogError(s.RequestID, "payment", "ledger_status", err)
		}
	}
	return status, nil
}

// Reconcile gathers both sides of an intent for manual follow-up when the
// provider took the money but the booking was never marked paid.
func (s PaymentService) Reconcile(ctx context.Context, intentID string) (Reconciliation, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return Reconciliation{}, domain.ValidationError{Field: "intentId", Msg: "is required"}
	}
	var out Reconciliation

	if s.Ledger != nil {
		rec, err := s.Ledger.GetByIntentID(ctx, intentID)
		switch {
		case err == nil:
			out.Intent = &rec
		case !errors.Is(err, sql.ErrNoRows):
			return Reconciliation{}, domain.InternalError{Msg: "failed to load payment intent", Err: err}
		}
	}

	if status, err := s.Provider.IntentStatus(ctx, intentID); err != nil {
		utils.LogError(s.RequestID, "payment", "reconcile_status", err)
	} else {
		out.ProviderStatus = status
	}

	if s.Bookings != nil {
		b, err := s.Bookings.GetByIntentID(ctx, intentID)
		if err == nil {
			out.Booking = &b
		} else if out.Intent != nil && out.Intent.BookingID != "" {
			if b, err := s.Bookings.GetByID(ctx, out.Intent.BookingID); err == nil {
				out.Booking = &b
			}
		}
	}

	if out.Intent == nil && out.Booking == nil && out.ProviderStatus == "" {
		return Reconciliation{}, domain.NotFoundError{Resource: "payment intent"}
	}
	paid := out.Booking != nil && out.Booking.PaymentStatus == models.PaymentStatusPaid && out.Booking.PaymentIntentID == intentID
	out.Consistent = (out.ProviderStatus == payments.StatusSucceeded) == paid
	utils.LogEvent(s.RequestID, "payment", "reconcile", fmt.Sprintf("intent_id=%s provider=%s paid=%t consistent=%t", intentID, out.ProviderStatus, paid, out.Consistent))
	return out, nil
}

// record writes the ledger entry; a failure here never fails the payment.
func (s PaymentService) record(ctx context.Context, id string, in PaymentInput, method, status string) {
	if s.Ledger == nil || id == "" {
		return
	}
	now := s.now()
	err := s.Ledger.Save(ctx, models.PaymentIntentRecord{
		IntentID:  id,
		BookingID: in.BookingID,
		Method:    method,
		Amount:    utils.Round2(in.Amount),
		Status:    utils.FirstNonEmpty(status, "pending"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		utils.LogError(s.RequestID, "payment", "ledger_save", err)
	}
}

func (s PaymentService) providerErr(action string, err error) error {
	utils.LogError(s.RequestID, "payment", action, err)
	var apiErr *payments.APIError
	if errors.As(err, &apiErr) {
		return domain.UpstreamError{Service: "payment provider", Msg: utils.FirstNonEmpty(apiErr.Detail(), apiErr.Message), Err: err}
	}
	return domain.UpstreamError{Service: "payment provider", Err: err}
}

func validatePayment(in PaymentInput) error {
	if in.Amount <= 0 {
		return domain.ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}
	if payments.Centavos(in.Amount) < 1 {
		return domain.ValidationError{Field: "amount", Msg: "is below the smallest payable unit"}
	}
	return nil
}

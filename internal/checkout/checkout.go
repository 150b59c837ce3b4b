// Package checkout is the client side of booking payment: it picks the
// branch for the chosen payment method, drives the provider hand-off and,
// for QR payments, polls the intent until it settles or the QR is closed.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentalhub/internal/utils"
)

type Method string

const (
	MethodCash     Method = "cash"
	MethodRedirect Method = "redirect"
	MethodQR       Method = "qr"
)

// DefaultPollInterval is how often an open QR polls the intent status.
const DefaultPollInterval = 5 * time.Second

const statusSucceeded = "succeeded"

var ErrUnknownMethod = errors.New("unknown payment method")

// ParseMethod maps the labels the booking form offers. "QRPh" is the
// hosted checkout and "Gcash" the QR code flow.
func ParseMethod(label string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "cash on delivery", "cash", "cod":
		return MethodCash, nil
	case "qrph":
		return MethodRedirect, nil
	case "gcash":
		return MethodQR, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, label)
}

// UI is the screen the flow reports to.
type UI interface {
	RequestSent()
	OpenURL(url string) error
	ShowQR(intentID, imageURL string, amount float64)
	CloseQR()
	ShowSuccess(intentID string)
	Alert(title, message string)
}

type PaymentRequest struct {
	BookingID   string  `json:"bookingId,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Name        string  `json:"name,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

type QRCode struct {
	IntentID string
	ImageURL string
	Amount   float64
}

// API is the marketplace server as the flow needs it.
type API interface {
	UpdateBooking(ctx context.Context, bookingID string, payload map[string]any) error
	CreateCheckout(ctx context.Context, req PaymentRequest) (string, error)
	CreateQR(ctx context.Context, req PaymentRequest) (QRCode, error)
	PaymentStatus(ctx context.Context, intentID string) (string, error)
	ConfirmPayment(ctx context.Context, bookingID, intentID string) error
}

type PayRequest struct {
	BookingID     string
	PaymentMethod string
	Payment       PaymentRequest
	// Booking is the full booking payload sent by the cash branch.
	Booking map[string]any
}

// Outcome keeps apart what the provider confirmed and what the server
// stored; the two differ when the booking update fails after payment.
type Outcome struct {
	Method            Method `json:"method"`
	IntentID          string `json:"intentId,omitempty"`
	CheckoutURL       string `json:"checkoutUrl,omitempty"`
	ProviderConfirmed bool   `json:"providerConfirmed"`
	Persisted         bool   `json:"persisted"`
	Closed            bool   `json:"closed"`
}

type Flow struct {
	API      API
	UI       UI
	Poller   *Poller
	Interval time.Duration
	// GateSuccessOnPersist shows the success screen only after the booking
	// is marked paid. Off, success is shown as soon as the provider confirms.
	GateSuccessOnPersist bool
}

// Pay runs the branch selected by the request's payment method. For QR
// payments it blocks until the intent succeeds, the QR session is closed or
// ctx is done.
func (f *Flow) Pay(ctx context.Context, req PayRequest) (Outcome, error) {
	method, err := ParseMethod(req.PaymentMethod)
	if err != nil {
		f.UI.Alert("Payment failed", ErrorMessage(err))
		return Outcome{}, err
	}
	if req.Payment.BookingID == "" {
		req.Payment.BookingID = req.BookingID
	}

	switch method {
	case MethodCash:
		return f.payCash(ctx, req)
	case MethodRedirect:
		return f.payRedirect(ctx, req)
	default:
		return f.payQR(ctx, req)
	}
}

func (f *Flow) payCash(ctx context.Context, req PayRequest) (Outcome, error) {
	if err := f.API.UpdateBooking(ctx, req.BookingID, req.Booking); err != nil {
		f.UI.Alert("Booking failed", ErrorMessage(err))
		return Outcome{Method: MethodCash}, err
	}
	f.UI.RequestSent()
	return Outcome{Method: MethodCash, Persisted: true}, nil
}

func (f *Flow) payRedirect(ctx context.Context, req PayRequest) (Outcome, error) {
	url, err := f.API.CreateCheckout(ctx, req.Payment)
	if err != nil {
		f.UI.Alert("Payment failed", ErrorMessage(err))
		return Outcome{Method: MethodRedirect}, err
	}
	if err := f.UI.OpenURL(url); err != nil {
		f.UI.Alert("Payment failed", ErrorMessage(err))
		return Outcome{Method: MethodRedirect, CheckoutURL: url}, err
	}
	return Outcome{Method: MethodRedirect, CheckoutURL: url}, nil
}

func (f *Flow) payQR(ctx context.Context, req PayRequest) (Outcome, error) {
	qr, err := f.API.CreateQR(ctx, req.Payment)
	if err != nil {
		f.UI.Alert("Payment failed", ErrorMessage(err))
		return Outcome{Method: MethodQR}, err
	}
	f.UI.ShowQR(qr.IntentID, qr.ImageURL, qr.Amount)

	s := f.poller().Start(ctx, f, req.BookingID, qr.IntentID)
	select {
	case <-s.Done():
	case <-ctx.Done():
		s.Close()
		<-s.Done()
	}
	return s.Outcome(), nil
}

func (f *Flow) poller() *Poller {
	if f.Poller == nil {
		f.Poller = NewPoller()
	}
	return f.Poller
}

func (f *Flow) interval() time.Duration {
	if f.Interval > 0 {
		return f.Interval
	}
	return DefaultPollInterval
}

// supportMessage is shown when the provider took the money but the booking
// could not be marked paid.
func supportMessage(intentID string) string {
	return fmt.Sprintf("Your payment was received but we could not update your booking. "+
		"Please contact support and quote payment reference %s.", intentID)
}

func logEvent(action, msg string) {
	utils.LogEvent("", "checkout", action, msg)
}

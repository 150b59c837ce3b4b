// Package payments talks to the e-wallet payment provider: hosted checkout
// sessions for the redirect flow and QR payment intents for the polling flow.
package payments

import (
	"context"
	"fmt"
	"strings"
)

// StatusSucceeded is the only intent status treated as paid.
const StatusSucceeded = "succeeded"

type CheckoutRequest struct {
	BookingID   string
	Amount      float64
	Description string
	Name        string
	Email       string
	Phone       string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

type QRRequest struct {
	BookingID   string
	Amount      float64
	Description string
	Name        string
	Email       string
	Phone       string
}

type QRIntent struct {
	IntentID string  `json:"paymentIntentId"`
	ImageURL string  `json:"imageUrl"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

type Provider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	CreateQR(ctx context.Context, req QRRequest) (QRIntent, error)
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

type ErrorDetail struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int           `json:"statusCode"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
	Message    string        `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if d := e.Detail(); d != "" {
		return fmt.Sprintf("payment provider error (%d): %s", e.StatusCode, d)
	}
	if e.Message != "" {
		return fmt.Sprintf("payment provider error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment provider error (%d)", e.StatusCode)
}

// Detail is the first non-empty nested error detail.
func (e *APIError) Detail() string {
	for _, d := range e.Errors {
		if s := strings.TrimSpace(d.Detail); s != "" {
			return s
		}
	}
	return ""
}

// Centavos converts a peso amount to the provider's integer minor units.
func Centavos(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}

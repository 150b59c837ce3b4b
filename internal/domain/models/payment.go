package models

import "time"

// Payment statuses stored on bookings and intents.
const (
	PaymentStatusPaid      = "paid"
	PaymentStatusSucceeded = "succeeded"
)

// PaymentIntentRecord is the local ledger entry for an intent issued at the
// payment provider on behalf of a booking.
type PaymentIntentRecord struct {
	IntentID  string    `json:"intentId"`
	BookingID string    `json:"bookingId,omitempty"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

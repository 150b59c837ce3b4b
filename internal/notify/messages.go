package notify

import (
	"fmt"
	"strings"

	"rentalhub/internal/domain/models"
	"rentalhub/internal/utils"
)

// Kind names a booking notification.
type Kind string

const (
	KindRequestSent     Kind = "request_sent"
	KindNewRequest      Kind = "new_request"
	KindAccepted        Kind = "accepted"
	KindApproved        Kind = "approved"
	KindRejected        Kind = "rejected"
	KindRejectedBooking Kind = "rejected_booking"
	KindCancelled       Kind = "cancelled"
	KindStarted         Kind = "started"
	KindTerminated      Kind = "terminated"
	KindReturned        Kind = "returned"
	KindPaymentReceived Kind = "payment_received"
)

// Compose renders the plain-text notification of kind for booking b.
func Compose(kind Kind, b models.Booking, to Recipient) Message {
	product := utils.FirstNonEmpty(b.Item.Product, "your item")
	name := utils.FirstNonEmpty(to.Name, "there")
	total := utils.FormatPeso(b.Financials.GrandTotal)
	period := fmt.Sprintf("%s to %s", utils.FormatDateTime(b.Terms.PickUpDate), utils.FormatDateTime(b.Terms.ReturnDate))

	var subject string
	var body []string
	switch kind {
	case KindRequestSent:
		subject = "Rental request sent: " + product
		body = []string{
			"Your request to rent " + product + " has been sent to the owner.",
			"Rental period: " + period,
			"Payment method: " + utils.FirstNonEmpty(b.Terms.PaymentMethod, "-"),
			"Grand total: " + total,
		}
	case KindNewRequest:
		subject = "New rental request: " + product
		body = []string{
			b.Customer.Name + " would like to rent " + product + ".",
			"Rental period: " + period,
			"Contact: " + utils.FirstNonEmpty(b.Customer.Phone, b.Customer.Email, "-"),
		}
	case KindAccepted:
		subject = "Rental request accepted: " + product
		body = []string{"The owner accepted your request for " + product + ". Your booking is confirmed."}
	case KindApproved:
		subject = "Rental approved: " + product
		body = []string{
			"Your rental of " + product + " has been approved.",
			"Grand total: " + total + " (" + utils.FirstNonEmpty(b.Terms.PaymentMethod, "-") + ")",
			"Next steps: keep your phone reachable on " + utils.FormatDate(b.Terms.PickUpDate) +
				" and have a valid ID ready when the item is handed over.",
		}
	case KindRejected, KindRejectedBooking:
		subject = "Rental request declined: " + product
		body = []string{"Unfortunately the owner declined your request for " + product + "."}
	case KindCancelled:
		subject = "Booking cancelled: " + product
		body = []string{"Your booking for " + product + " has been cancelled."}
	case KindStarted:
		subject = "Rental started: " + product
		body = []string{
			"Your rental of " + product + " has started.",
			"Please return it by " + utils.FormatDateTime(b.Terms.ReturnDate) + ".",
		}
	case KindTerminated:
		subject = "Rental terminated: " + product
		body = []string{"Your rental of " + product + " has been terminated by the owner."}
	case KindReturned:
		subject = "Item returned: " + product
		body = []string{"Thank you for returning " + product + ". Your rental is now complete."}
	case KindPaymentReceived:
		subject = "Payment received: " + product
		body = []string{
			"We received your payment of " + total + " for " + product + ".",
			"Reference: " + utils.FirstNonEmpty(b.PaymentIntentID, "-"),
		}
	default:
		subject = "Booking update: " + product
		body = []string{"Your booking for " + product + " is now " + string(b.Status) + "."}
	}

	text := "Hi " + name + ",\n\n" + strings.Join(body, "\n") + "\n\nBooking ID: " + b.ID
	return Message{
		To:      to,
		Subject: subject,
		Text:    text,
		Data: map[string]string{
			"bookingId": b.ID,
			"kind":      string(kind),
			"status":    string(b.Status),
		},
	}
}

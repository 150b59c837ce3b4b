package services

import (
	"context"
	"time"

	"rentalhub/internal/delivery"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/repositories"
)

// Storage the services depend on. The repositories package provides the
// MySQL implementations; tests substitute in-memory fakes.

type BookingStore interface {
	Create(ctx context.Context, b models.Booking) error
	GetByID(ctx context.Context, id string) (models.Booking, error)
	GetByIntentID(ctx context.Context, intentID string) (models.Booking, error)
	Update(ctx context.Context, b models.Booking, expected domain.Status) error
	UpdateStatus(ctx context.Context, id string, from, to domain.Status) error
	UpdateFinancials(ctx context.Context, id string, f models.Financials) error
	RecordPayment(ctx context.Context, id, intentID, status string) error
	MarkRead(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListActiveByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Booking, error)
	ListCart(ctx context.Context, customerID string) ([]models.Booking, error)
}

type HistoryStore interface {
	GetByID(ctx context.Context, id string) (models.History, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.History, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.History, error)
}

type ItemStore interface {
	GetByID(ctx context.Context, id string) (models.Item, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// ReturnArchiver settles a returned item atomically.
type ReturnArchiver interface {
	Archive(ctx context.Context, bookingID, historyID string, at time.Time) (repositories.ReturnResult, error)
}

type PaymentLedger interface {
	Save(ctx context.Context, p models.PaymentIntentRecord) error
	UpdateStatus(ctx context.Context, intentID, status string) error
	GetByIntentID(ctx context.Context, intentID string) (models.PaymentIntentRecord, error)
	LinkBooking(ctx context.Context, intentID, bookingID string) error
}

// IntentVerifier reports the provider-side status of a payment intent.
type IntentVerifier interface {
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

type DeliveryEstimator interface {
	Resolve(ctx context.Context, barangay, itemLocation string) delivery.Estimate
}

var (
	_ BookingStore   = repositories.BookingRepository{}
	_ HistoryStore   = repositories.HistoryRepository{}
	_ ItemStore      = repositories.ItemRepository{}
	_ UserStore      = repositories.UserRepository{}
	_ ReturnArchiver = repositories.ReturnRepository{}
	_ PaymentLedger  = repositories.PaymentRepository{}
)

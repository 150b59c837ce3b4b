package models

import (
	"time"

	"rentalhub/internal/domain"
)

// DefaultDeliveryCharge applies when the client omits a delivery charge.
const DefaultDeliveryCharge = 50.00

// ItemSnapshot is copied from the item when the booking is created and is
// never re-read from the live item afterwards.
type ItemSnapshot struct {
	Product     string  `json:"product"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	PricePerDay float64 `json:"pricePerDay"`
	ItemImage   string  `json:"itemImage"`
}

// CustomerSnapshot is copied from the customer profile at submission.
type CustomerSnapshot struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Gender   string `json:"gender"`
	Barangay string `json:"barangay,omitempty"`
}

type RentalTerms struct {
	RentalPeriod  string    `json:"rentalPeriod"`
	PickUpDate    time.Time `json:"pickUpDate"`
	ReturnDate    time.Time `json:"returnDate"`
	PaymentMethod string    `json:"paymentMethod"`
}

// Financials are stored as DECIMAL(10,2).
type Financials struct {
	Amount         float64 `json:"amount"`
	RentalDuration int     `json:"rentalDuration"`
	RatePerPeriod  float64 `json:"ratePerPeriod"`
	DeliveryCharge float64 `json:"deliveryCharge"`
	GrandTotal     float64 `json:"grandTotal"`
}

type Guarantor struct {
	FullName string `json:"fullName" binding:"omitempty,max=255"`
	Phone    string `json:"phone" binding:"omitempty,ph_phone"`
	Address  string `json:"address" binding:"omitempty,max=500"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func (g Guarantor) Complete() bool {
	return g.FullName != "" && g.Phone != "" && g.Address != "" && g.Email != ""
}

type Booking struct {
	ID              string           `json:"id"`
	ItemID          string           `json:"itemId"`
	CustomerID      string           `json:"customerId"`
	OwnerID         string           `json:"ownerId"`
	Item            ItemSnapshot     `json:"item"`
	Customer        CustomerSnapshot `json:"customer"`
	Terms           RentalTerms      `json:"terms"`
	Financials      Financials       `json:"financials"`
	Guarantors      [2]Guarantor     `json:"guarantors"`
	PaymentIntentID string           `json:"paymentIntentId,omitempty"`
	PaymentStatus   string           `json:"paymentStatus,omitempty"`
	IsRead          bool             `json:"isRead"`
	ReadAt          *time.Time       `json:"readAt,omitempty"`
	Status          domain.Status    `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// History is the archive row created when an item is returned. It carries
// the booking's full field set under its own id.
type History struct {
	Booking
	BookingID  string    `json:"bookingId"`
	ReturnedAt time.Time `json:"returnedAt"`
}

// NewHistory archives b as terminated.
func NewHistory(id string, b Booking, at time.Time) History {
	h := History{Booking: b, BookingID: b.ID, ReturnedAt: at}
	h.ID = id
	h.Status = domain.StatusTerminated
	h.UpdatedAt = at
	return h
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/services"
	"rentalhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type customerPayload struct {
	Name     string `json:"name" binding:"omitempty,max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,ph_phone"`
	Address  string `json:"address" binding:"omitempty,max=500"`
	Gender   string `json:"gender"`
	Barangay string `json:"barangay"`
}

type bookingRequest struct {
	ItemID         string             `json:"itemId"`
	CustomerID     string             `json:"customerId"`
	Customer       *customerPayload   `json:"customer"`
	RentalPeriod   string             `json:"rentalPeriod"`
	PickUpDate     string             `json:"pickUpDate"`
	ReturnDate     string             `json:"returnDate"`
	RentalDuration int                `json:"rentalDuration" binding:"gte=0"`
	PaymentMethod  string             `json:"paymentMethod"`
	DeliveryCharge *float64           `json:"deliveryCharge"`
	Guarantors     []models.Guarantor `json:"guarantors" binding:"omitempty,max=2,dive"`
	AsCart         bool               `json:"asCart"`
}

func (r bookingRequest) toInput(loc *time.Location) (services.CreateInput, error) {
	in := services.CreateInput{
		ItemID:         strings.TrimSpace(r.ItemID),
		CustomerID:     strings.TrimSpace(r.CustomerID),
		RentalPeriod:   r.RentalPeriod,
		DurationHint:   r.RentalDuration,
		PaymentMethod:  r.PaymentMethod,
		DeliveryCharge: r.DeliveryCharge,
		AsCart:         r.AsCart,
	}
	if r.Customer != nil {
		in.Customer = models.CustomerSnapshot{
			Name:     utils.NormalizeSpace(r.Customer.Name),
			Email:    strings.TrimSpace(r.Customer.Email),
			Phone:    strings.TrimSpace(r.Customer.Phone),
			Address:  utils.NormalizeSpace(r.Customer.Address),
			Gender:   r.Customer.Gender,
			Barangay: utils.NormalizeSpace(r.Customer.Barangay),
		}
	}
	copy(in.Guarantors[:], r.Guarantors)

	var err error
	if in.PickUpDate, err = parseOptionalTime("pickUpDate", r.PickUpDate, loc); err != nil {
		return in, err
	}
	if in.ReturnDate, err = parseOptionalTime("returnDate", r.ReturnDate, loc); err != nil {
		return in, err
	}
	return in, nil
}

func parseOptionalTime(field, s string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := utils.ParseTimestamp(s, loc)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: field, Msg: "invalid date", Err: err}
	}
	return t, nil
}

// POST /book-item
func (h Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.bookings(c)
	in, err := req.toInput(svc.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	res, err := svc.Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "booking created",
		"bookingId":   res.BookingID,
		"rentalDays":  res.RentalDays,
		"totalAmount": res.TotalAmount,
		"pricePerDay": res.PricePerDay,
		"grandTotal":  res.GrandTotal,
		"status":      res.Status,
		"quote":       res.Quote,
	})
}

// PUT /book/:id
func (h Handler) UpdateBooking(c *gin.Context) {
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.bookings(c)
	in, err := req.toInput(svc.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	b, err := svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking updated", "booking": b})
}

// GET /book/:id
func (h Handler) GetBooking(c *gin.Context) {
	b, err := h.bookings(c).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /book/:id
func (h Handler) DeleteBooking(c *gin.Context) {
	if err := h.bookings(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

// PUT /book/read/:id
func (h Handler) MarkBookingRead(c *gin.Context) {
	b, err := h.bookings(c).MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read", "booking": b})
}

// GET /book/notification/:customerId
func (h Handler) CustomerNotifications(c *gin.Context) {
	h.listBookings(c, h.bookings(c).Notifications, c.Param("customerId"))
}

// GET /book/booked-items/:customerId
func (h Handler) BookedItems(c *gin.Context) {
	h.listBookings(c, h.bookings(c).BookedItems, c.Param("customerId"))
}

// GET /book/request/:ownerId
func (h Handler) OwnerRequests(c *gin.Context) {
	h.listBookings(c, h.bookings(c).Requests, c.Param("ownerId"))
}

// GET /book/cart/:customerId
func (h Handler) Cart(c *gin.Context) {
	h.listBookings(c, h.bookings(c).Cart, c.Param("customerId"))
}

func (h Handler) listBookings(c *gin.Context, fn func(ctx context.Context, id string) ([]models.Booking, error), id string) {
	out, err := fn(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if out == nil {
		out = []models.Booking{}
	}
	c.JSON(http.StatusOK, out)
}

// GET /history/customer/:customerId
func (h Handler) CustomerHistory(c *gin.Context) {
	h.listHistory(c, h.bookings(c).CustomerHistory, c.Param("customerId"))
}

// GET /history/owner/:ownerId
func (h Handler) OwnerHistory(c *gin.Context) {
	h.listHistory(c, h.bookings(c).OwnerHistory, c.Param("ownerId"))
}

func (h Handler) listHistory(c *gin.Context, fn func(ctx context.Context, id string) ([]models.History, error), id string) {
	out, err := fn(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if out == nil {
		out = []models.History{}
	}
	c.JSON(http.StatusOK, out)
}

package handlers

import (
	"context"
	"net/http"

	"rentalhub/internal/services"

	"github.com/gin-gonic/gin"
)

type transitionFunc func(services.BookingService, context.Context, string) (services.TransitionResult, error)

// transition builds the handler of one PUT /book/<action>/:id route.
func (h Handler) transition(fn transitionFunc, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := fn(h.bookings(c), c.Request.Context(), c.Param("id"))
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": message,
			"booking": res.Booking,
			"status":  res.Booking.Status,
			"changed": res.Changed,
		})
	}
}

func (h Handler) SubmitBooking() gin.HandlerFunc {
	return h.transition(services.BookingService.Submit, "booking submitted")
}

func (h Handler) AcceptRequest() gin.HandlerFunc {
	return h.transition(services.BookingService.AcceptRequest, "request accepted")
}

func (h Handler) ApproveBooking() gin.HandlerFunc {
	return h.transition(services.BookingService.Approve, "booking approved")
}

func (h Handler) RejectRequest() gin.HandlerFunc {
	return h.transition(services.BookingService.Reject, "request rejected")
}

func (h Handler) RejectBooking() gin.HandlerFunc {
	return h.transition(services.BookingService.RejectBooking, "booking rejected")
}

func (h Handler) CancelBooking() gin.HandlerFunc {
	return h.transition(services.BookingService.Cancel, "booking cancelled")
}

func (h Handler) StartRental() gin.HandlerFunc {
	return h.transition(services.BookingService.Start, "rental started")
}

func (h Handler) TerminateRental() gin.HandlerFunc {
	return h.transition(services.BookingService.Terminate, "rental terminated")
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	PaymentStatus   string `json:"paymentStatus"`
}

// PUT /book/payment/:id
func (h Handler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.bookings(c).ConfirmPayment(c.Request.Context(), c.Param("id"), req.PaymentIntentID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "payment recorded",
		"booking": res.Booking,
		"status":  res.Booking.Status,
		"changed": res.Changed,
	})
}

type itemReturnedRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

// PUT /return/item-returned
func (h Handler) ItemReturned(c *gin.Context) {
	var req itemReturnedRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.bookings(c).ItemReturned(c.Request.Context(), req.BookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "item returned",
		"history":           res.History,
		"availableQuantity": res.AvailableQuantity,
	})
}

package handlers

import (
	"net/http"

	"rentalhub/internal/services"

	"github.com/gin-gonic/gin"
)

type quoteRequest struct {
	ItemID         string   `json:"itemId"`
	PricePerDay    float64  `json:"pricePerDay" binding:"gte=0"`
	ItemLocation   string   `json:"itemLocation"`
	Barangay       string   `json:"barangay"`
	RentalPeriod   string   `json:"rentalPeriod" binding:"required"`
	PickUpDate     string   `json:"pickUpDate"`
	ReturnDate     string   `json:"returnDate"`
	RentalDuration int      `json:"rentalDuration" binding:"gte=0"`
	DeliveryCharge *float64 `json:"deliveryCharge"`
}

// POST /pricing/quote
func (h Handler) Quote(c *gin.Context) {
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.quotes(c)
	in := services.QuoteInput{
		ItemID:         req.ItemID,
		PricePerDay:    req.PricePerDay,
		ItemLocation:   req.ItemLocation,
		Barangay:       req.Barangay,
		RentalPeriod:   req.RentalPeriod,
		DurationHint:   req.RentalDuration,
		DeliveryCharge: req.DeliveryCharge,
	}
	var err error
	if in.PickUpDate, err = parseOptionalTime("pickUpDate", req.PickUpDate, svc.Location); err != nil {
		RespondDomainError(c, err)
		return
	}
	if in.ReturnDate, err = parseOptionalTime("returnDate", req.ReturnDate, svc.Location); err != nil {
		RespondDomainError(c, err)
		return
	}
	res, err := svc.Quote(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type estimateRequest struct {
	Barangay     string `json:"barangay" binding:"required"`
	ItemLocation string `json:"itemLocation" binding:"required"`
}

// POST /delivery/estimate
func (h Handler) DeliveryEstimate(c *gin.Context) {
	var req estimateRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	est, err := h.quotes(c).Estimate(c.Request.Context(), req.Barangay, req.ItemLocation)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

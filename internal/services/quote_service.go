package services

import (
	"context"
	"strings"
	"time"

	"rentalhub/internal/delivery"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"
	"rentalhub/internal/pricing"
	"rentalhub/internal/utils"
)

// QuoteService prices a prospective rental, including the delivery estimate,
// without persisting anything.
type QuoteService struct {
	Items     ItemStore
	Delivery  DeliveryEstimator
	Location  *time.Location
	RequestID string
}

type QuoteInput struct {
	ItemID         string    `json:"itemId"`
	PricePerDay    float64   `json:"pricePerDay"`
	ItemLocation   string    `json:"itemLocation"`
	Barangay       string    `json:"barangay"`
	RentalPeriod   string    `json:"rentalPeriod" binding:"required"`
	PickUpDate     time.Time `json:"pickUpDate"`
	ReturnDate     time.Time `json:"returnDate"`
	DurationHint   int       `json:"rentalDuration"`
	DeliveryCharge *float64  `json:"deliveryCharge"`
}

type QuoteResult struct {
	Quote      pricing.Quote      `json:"quote"`
	Totals     pricing.Totals     `json:"totals"`
	Delivery   *delivery.Estimate `json:"delivery,omitempty"`
	RentalDays int                `json:"rentalDays"`
}

// Quote resolves the delivery fee in order: explicit charge, road-distance
// estimate when both places are known, then the default charge.
func (s QuoteService) Quote(ctx context.Context, in QuoteInput) (QuoteResult, error) {
	price := in.PricePerDay
	place := strings.TrimSpace(in.ItemLocation)
	if id := strings.TrimSpace(in.ItemID); id != "" && s.Items != nil {
		it, err := s.Items.GetByID(ctx, id)
		if err != nil {
			return QuoteResult{}, storeErr("item", err)
		}
		price = it.PricePerDay
		place = utils.FirstNonEmpty(place, it.Location)
	}

	period, err := pricing.ParsePeriod(in.RentalPeriod)
	if err != nil {
		return QuoteResult{}, domain.ValidationError{Field: "rentalPeriod", Msg: "must be Hour, Day or Week", Err: err}
	}
	q, err := pricing.Compute(pricing.Request{
		Period:          period,
		PickupDate:      s.inLocation(in.PickUpDate),
		ReturnDate:      s.inLocation(in.ReturnDate),
		DurationHint:    in.DurationHint,
		BasePricePerDay: price,
	})
	if err != nil {
		return QuoteResult{}, domain.ValidationError{Field: "returnDate", Msg: err.Error(), Err: err}
	}

	out := QuoteResult{Quote: q, RentalDays: pricing.RentalDays(in.PickUpDate, in.ReturnDate)}
	fee := models.DefaultDeliveryCharge
	switch {
	case in.DeliveryCharge != nil:
		if *in.DeliveryCharge < 0 {
			return QuoteResult{}, domain.ValidationError{Field: "deliveryCharge", Msg: "must not be negative"}
		}
		fee = *in.DeliveryCharge
	case s.Delivery != nil && strings.TrimSpace(in.Barangay) != "" && place != "":
		est := s.Delivery.Resolve(ctx, in.Barangay, place)
		out.Delivery = &est
		fee = est.DeliveryFee
	}
	out.Totals = pricing.Total(q, fee)
	return out, nil
}

// Estimate is the bare delivery lookup.
func (s QuoteService) Estimate(ctx context.Context, barangay, itemLocation string) (delivery.Estimate, error) {
	if strings.TrimSpace(barangay) == "" || strings.TrimSpace(itemLocation) == "" {
		return delivery.Estimate{}, domain.ValidationError{Field: "barangay", Msg: "barangay and item location are required"}
	}
	if s.Delivery == nil {
		return delivery.Estimate{}, nil
	}
	return s.Delivery.Resolve(ctx, barangay, itemLocation), nil
}

func (s QuoteService) inLocation(t time.Time) time.Time {
	if t.IsZero() || s.Location == nil {
		return t
	}
	return t.In(s.Location)
}

// Package pricing computes rental quotes from a period selection, the pickup
// and return timestamps and the item's base daily price.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"rentalhub/internal/utils"
)

type Period string

const (
	Hour Period = "Hour"
	Day  Period = "Day"
	Week Period = "Week"
)

const (
	LabelHour = "Rate Per Hour"
	LabelDay  = "Rate Per Day"
	LabelWeek = "Rate Per Week"
)

var (
	ErrReturnBeforePickup = errors.New("return date must not precede pickup date")
	ErrUnknownPeriod      = errors.New("unknown rental period")
	ErrNegativePrice      = errors.New("base price must not be negative")
)

// Unit is the billing length of one period.
func (p Period) Unit() time.Duration {
	switch p {
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	case Week:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Label is the rate label shown next to the per-unit rate.
func (p Period) Label() string {
	switch p {
	case Hour:
		return LabelHour
	case Day:
		return LabelDay
	case Week:
		return LabelWeek
	}
	return ""
}

// ParsePeriod accepts Hour, Day or Week in any case.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hourly":
		return Hour, nil
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

type Request struct {
	Period     Period
	PickupDate time.Time
	ReturnDate time.Time
	// DurationHint is used when either timestamp is missing.
	DurationHint    int
	BasePricePerDay float64
}

type Quote struct {
	RateLabel string  `json:"rateLabel"`
	Rate      float64 `json:"rate"`
	Duration  int     `json:"duration"`
	Period    Period  `json:"period"`
	Subtotal  float64 `json:"subtotal"`
	SameDay   bool    `json:"sameDay"`
}

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	GrandTotal  float64 `json:"grandTotal"`
}

// Compute produces the rate, duration and subtotal for a rental.
//
// A rental whose pickup and return share a calendar date is billed hourly at
// base/24 whatever period was selected. Otherwise the selected period applies
// and durations are rounded up to whole units, so 23:59 -> 00:01 bills one full unit.
func Compute(req Request) (Quote, error) {
	if req.BasePricePerDay < 0 {
		return Quote{}, ErrNegativePrice
	}
	if req.Period.Unit() == 0 {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, req.Period)
	}

	if req.PickupDate.IsZero() || req.ReturnDate.IsZero() {
		q := Quote{
			RateLabel: req.Period.Label(),
			Rate:      req.BasePricePerDay,
			Duration:  max(req.DurationHint, 1),
			Period:    req.Period,
		}
		q.Subtotal = utils.Round2(q.Rate * float64(q.Duration))
		return q, nil
	}

	elapsed := req.ReturnDate.Sub(req.PickupDate)
	if elapsed < 0 {
		return Quote{}, ErrReturnBeforePickup
	}

	var q Quote
	if utils.SameDate(req.PickupDate, req.ReturnDate) {
		q = Quote{
			RateLabel: LabelHour,
			Rate:      req.BasePricePerDay / 24,
			Duration:  ceilUnits(elapsed, time.Hour),
			Period:    Hour,
			SameDay:   true,
		}
	} else {
		q = Quote{
			RateLabel: req.Period.Label(),
			// Hour keeps the stored daily price as the hourly figure.
			Rate:     req.BasePricePerDay,
			Duration: ceilUnits(elapsed, req.Period.Unit()),
			Period:   req.Period,
		}
	}
	q.Subtotal = utils.Round2(q.Rate * float64(q.Duration))
	return q, nil
}

// Total adds the delivery fee to the quote. Every figure is rounded to 2 dp;
// the grand total is rounded once from the unrounded rate.
func Total(q Quote, deliveryFee float64) Totals {
	return Totals{
		Subtotal:    utils.Round2(q.Rate * float64(q.Duration)),
		DeliveryFee: utils.Round2(deliveryFee),
		GrandTotal:  utils.Round2(q.Rate*float64(q.Duration) + deliveryFee),
	}
}

// RentalDays is the legacy whole-day count stored alongside the quote.
func RentalDays(pickup, ret time.Time) int {
	if pickup.IsZero() || ret.IsZero() || !ret.After(pickup) {
		return 1
	}
	return ceilUnits(ret.Sub(pickup), 24*time.Hour)
}

func ceilUnits(elapsed, unit time.Duration) int {
	n := int(math.Ceil(float64(elapsed) / float64(unit)))
	if n < 1 {
		return 1
	}
	return n
}

// RoundedRate is the per-unit rate as displayed and stored.
func (q Quote) RoundedRate() float64 { return utils.Round2(q.Rate) }

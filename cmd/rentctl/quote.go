package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	intconfig "rentalhub/internal/config"
	"rentalhub/internal/delivery"
	"rentalhub/internal/services"
	"rentalhub/internal/utils"

	"github.com/spf13/pflag"
)

func runQuote(args []string, out io.Writer) error {
	env := intconfig.LoadEnv()

	var (
		in     services.QuoteInput
		pickup string
		ret    string
		fee    float64
		asJSON bool
	)
	fs := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	fs.StringVar(&in.RentalPeriod, "period", "Day", "rental period: Hour, Day or Week")
	fs.StringVar(&pickup, "pickup", "", "pickup time (RFC3339 or YYYY-MM-DDTHH:MM)")
	fs.StringVar(&ret, "return", "", "return time (RFC3339 or YYYY-MM-DDTHH:MM)")
	fs.IntVar(&in.DurationHint, "duration", 1, "duration in periods when dates are omitted")
	fs.Float64Var(&in.PricePerDay, "price", 0, "item base price per day")
	fs.StringVar(&in.Barangay, "barangay", "", "customer barangay for the delivery estimate")
	fs.StringVar(&in.ItemLocation, "location", "", "item location for the delivery estimate")
	fs.Float64Var(&fee, "delivery", -1, "fixed delivery charge (skips the estimate)")
	fs.BoolVar(&asJSON, "json", false, "print the quote as JSON")
	if ok, err := parseFlags(fs, args, out); !ok {
		return err
	}

	var err error
	if in.PickUpDate, err = optionalTime(pickup, env.Location); err != nil {
		return fmt.Errorf("--pickup: %w", err)
	}
	if in.ReturnDate, err = optionalTime(ret, env.Location); err != nil {
		return fmt.Errorf("--return: %w", err)
	}
	if fee >= 0 {
		in.DeliveryCharge = &fee
	}

	svc := services.QuoteService{Delivery: newResolver(env), Location: env.Location}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := svc.Quote(ctx, in)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	q := res.Quote
	fmt.Fprintf(out, "%s: %s\n", q.RateLabel, utils.FormatPeso(q.RoundedRate()))
	fmt.Fprintf(out, "Duration: %d x %s\n", q.Duration, q.Period)
	if q.SameDay {
		fmt.Fprintln(out, "Same-day rental, billed hourly")
	}
	fmt.Fprintf(out, "Subtotal: %s\n", utils.FormatPeso(res.Totals.Subtotal))
	if res.Delivery != nil {
		fmt.Fprintf(out, "Distance: %.2f km\n", res.Delivery.DistanceKm)
	}
	fmt.Fprintf(out, "Delivery: %s\n", utils.FormatPeso(res.Totals.DeliveryFee))
	fmt.Fprintf(out, "Grand total: %s\n", utils.FormatPeso(res.Totals.GrandTotal))
	return nil
}

func newResolver(env intconfig.Env) delivery.Resolver {
	geocoder := delivery.NewNominatimGeocoder(env.GeocoderURL, env.GeocodeUserAgent)
	return delivery.Resolver{
		Geocoder:  geocoder,
		Router:    delivery.NewOSRMRouter(env.RouterURL),
		Region:    delivery.Region{Town: env.GeocodeTown, Province: env.GeocodeProvince, Country: env.GeocodeCountry},
		RatePerKm: env.DeliveryRatePerKm,
	}
}

func optionalTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return utils.ParseTimestamp(s, loc)
}

// Package delivery estimates the delivery fee between a customer's barangay
// and an item's location. Estimates are best effort: any geocoding or routing
// failure degrades to a zero fee so booking submission is never blocked.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentalhub/internal/utils"

	"golang.org/x/sync/errgroup"
)

// DefaultRatePerKm is the flat fee per driven kilometer.
const DefaultRatePerKm = 10.0

var ErrNoMatch = errors.New("no geocode match")

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves one free-text query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Point, error)
}

// Router returns the driving distance in meters between two points.
type Router interface {
	DrivingDistance(ctx context.Context, from, to Point) (float64, error)
}

// Region supplies the administrative context appended to geocoding queries.
type Region struct {
	Town     string
	Province string
	Country  string
}

type Estimate struct {
	DistanceKm  float64 `json:"distanceKm"`
	DeliveryFee float64 `json:"deliveryFee"`
}

type Resolver struct {
	Geocoder  Geocoder
	Router    Router
	Region    Region
	RatePerKm float64
	RequestID string
}

// Resolve never fails; the zero Estimate is returned on any error.
func (r Resolver) Resolve(ctx context.Context, barangay, itemLocation string) Estimate {
	est, err := r.resolve(ctx, barangay, itemLocation)
	if err != nil {
		utils.LogEvent(r.RequestID, "delivery", "resolve_fallback", fmt.Sprintf("barangay=%q location=%q err=%v", barangay, itemLocation, err))
		return Estimate{}
	}
	utils.LogEvent(r.RequestID, "delivery", "resolve", fmt.Sprintf("km=%.2f fee=%.2f", est.DistanceKm, est.DeliveryFee))
	return est
}

func (r Resolver) resolve(ctx context.Context, barangay, itemLocation string) (Estimate, error) {
	if r.Geocoder == nil || r.Router == nil {
		return Estimate{}, errors.New("delivery resolver not configured")
	}
	if strings.TrimSpace(barangay) == "" || strings.TrimSpace(itemLocation) == "" {
		return Estimate{}, errors.New("both locations are required")
	}

	var from, to Point
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.locate(gctx, barangay)
		if err != nil {
			return fmt.Errorf("customer location: %w", err)
		}
		from = p
		return nil
	})
	g.Go(func() error {
		p, err := r.locate(gctx, itemLocation)
		if err != nil {
			return fmt.Errorf("item location: %w", err)
		}
		to = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	meters, err := r.Router.DrivingDistance(ctx, from, to)
	if err != nil {
		return Estimate{}, fmt.Errorf("route: %w", err)
	}
	if meters < 0 {
		return Estimate{}, fmt.Errorf("route: negative distance %.0f", meters)
	}

	rate := r.RatePerKm
	if rate <= 0 {
		rate = DefaultRatePerKm
	}
	km := meters / 1000
	return Estimate{
		DistanceKm:  utils.Round2(km),
		DeliveryFee: utils.Round2(km * rate),
	}, nil
}

// locate tries each query variant in order and returns the first match.
func (r Resolver) locate(ctx context.Context, place string) (Point, error) {
	var lastErr error = ErrNoMatch
	for _, q := range Variants(place, r.Region) {
		if err := ctx.Err(); err != nil {
			return Point{}, err
		}
		p, err := r.Geocoder.Geocode(ctx, q)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return Point{}, lastErr
}

// Variants lists geocoding queries for place from most to least specific,
// ending with the town-level fallback. Empty parts are skipped and
// duplicates dropped.
func Variants(place string, reg Region) []string {
	place = utils.NormalizeSpace(place)
	bare := stripBarangayPrefix(place)

	var out []string
	seen := map[string]bool{}
	add := func(parts ...string) {
		var kept []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return
		}
		q := strings.Join(kept, ", ")
		key := strings.ToLower(q)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, q)
	}

	if bare != "" {
		add("Barangay "+bare, reg.Town, reg.Province, reg.Country)
		add(bare, reg.Town, reg.Province, reg.Country)
		add(bare, reg.Country)
	}
	add(reg.Town, reg.Province, reg.Country)
	return out
}

func stripBarangayPrefix(s string) string {
	lower := strings.ToLower(s)
	for _, prefix := range []string{"barangay ", "brgy. ", "brgy "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

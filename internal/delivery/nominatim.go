package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder queries a Nominatim search endpoint. Public Nominatim
// allows one request per second and rejects requests without a User-Agent.
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Limiter   *rate.Limiter
	Cache     Cache
	CacheTTL  time.Duration
}

func NewNominatimGeocoder(baseURL, userAgent string) *NominatimGeocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimGeocoder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: 10 * time.Second},
		Limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		CacheTTL:  24 * time.Hour,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Point{}, ErrNoMatch
	}
	if g.Cache != nil {
		if p, ok := g.Cache.Get(ctx, query); ok {
			return p, nil
		}
	}
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return Point{}, err
		}
	}

	u := g.BaseURL + "/search?" + url.Values{
		"format": {"json"},
		"limit":  {"1"},
		"q":      {query},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Point{}, err
	}
	ua := g.UserAgent
	if ua == "" {
		ua = "rentalhub/1.0"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return Point{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return Point{}, ErrNoMatch
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse lon: %w", err)
	}
	p := Point{Lat: lat, Lon: lon}
	if g.Cache != nil {
		g.Cache.Set(ctx, query, p, g.CacheTTL)
	}
	return p, nil
}

func (g *NominatimGeocoder) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

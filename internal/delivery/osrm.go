package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMRouter asks an OSRM server for the driving route between two points.
type OSRMRouter struct {
	BaseURL string
	Client  *http.Client
}

func NewOSRMRouter(baseURL string) *OSRMRouter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOSRMURL
	}
	return &OSRMRouter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (r *OSRMRouter) DrivingDistance(ctx context.Context, from, to Point) (float64, error) {
	coords := coord(from) + ";" + coord(to)
	u := r.BaseURL + "/route/v1/driving/" + coords + "?overview=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("router status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode router response: %w", err)
	}
	if body.Code != "" && body.Code != "Ok" {
		return 0, fmt.Errorf("router code %s", body.Code)
	}
	if len(body.Routes) == 0 {
		return 0, errors.New("no route found")
	}
	return body.Routes[0].Distance, nil
}

// OSRM takes lon,lat order.
func coord(p Point) string {
	return strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}

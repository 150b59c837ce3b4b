package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient implements API against the marketplace server.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *HTTPClient) UpdateBooking(ctx context.Context, bookingID string, payload map[string]any) error {
	return c.do(ctx, http.MethodPut, "/book/"+url.PathEscape(bookingID), payload, nil)
}

func (c *HTTPClient) CreateCheckout(ctx context.Context, req PaymentRequest) (string, error) {
	var out struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := c.do(ctx, http.MethodPost, "/payment/gcash", req, &out); err != nil {
		return "", err
	}
	if out.CheckoutURL == "" {
		return "", fmt.Errorf("checkout url missing from response")
	}
	return out.CheckoutURL, nil
}

func (c *HTTPClient) CreateQR(ctx context.Context, req PaymentRequest) (QRCode, error) {
	var out struct {
		Success bool `json:"success"`
		QRCode  struct {
			ImageURL string  `json:"imageUrl"`
			Amount   float64 `json:"amount"`
		} `json:"qrCode"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := c.do(ctx, http.MethodPost, "/payment/qrph", req, &out); err != nil {
		return QRCode{}, err
	}
	if !out.Success || out.PaymentIntentID == "" {
		return QRCode{}, fmt.Errorf("payment intent missing from response")
	}
	return QRCode{IntentID: out.PaymentIntentID, ImageURL: out.QRCode.ImageURL, Amount: out.QRCode.Amount}, nil
}

func (c *HTTPClient) PaymentStatus(ctx context.Context, intentID string) (string, error) {
	var out struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/payment/status/"+url.PathEscape(intentID), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *HTTPClient) ConfirmPayment(ctx context.Context, bookingID, intentID string) error {
	body := map[string]string{"paymentIntentId": intentID, "paymentStatus": "paid"}
	return c.do(ctx, http.MethodPut, "/book/payment/"+url.PathEscape(bookingID), body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := &HTTPError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string          `json:"error"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			he.Message = payload.Message
			if he.Message == "" {
				he.Message = payload.Error
			}
			_ = json.Unmarshal(payload.Details, &he.Details)
		}
		return he
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultPayMongoURL = "https://api.paymongo.com"

// PayMongo implements Provider over the PayMongo REST API.
type PayMongo struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

func NewPayMongo(baseURL, secretKey string) *PayMongo {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultPayMongoURL
	}
	return &PayMongo{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: 20 * time.Second},
	}
}

type envelope struct {
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

type billing struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (b billing) empty() bool { return b.Name == "" && b.Email == "" && b.Phone == "" }

func (p *PayMongo) CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if Centavos(req.Amount) <= 0 {
		return CheckoutSession{}, errors.New("amount must be positive")
	}
	attrs := map[string]any{
		"line_items": []map[string]any{{
			"currency": "PHP",
			"amount":   Centavos(req.Amount),
			"name":     nonEmpty(req.Description, "Rental booking"),
			"quantity": 1,
		}},
		"payment_method_types": []string{"gcash"},
		"description":          nonEmpty(req.Description, "Rental booking"),
		"send_email_receipt":   false,
		"show_description":     true,
		"show_line_items":      true,
		"success_url":          req.SuccessURL,
		"cancel_url":           req.CancelURL,
		"metadata":             map[string]string{"booking_id": req.BookingID},
	}
	if b := (billing{Name: req.Name, Email: req.Email, Phone: req.Phone}); !b.empty() {
		attrs["billing"] = b
	}

	var env envelope
	if err := p.do(ctx, http.MethodPost, "/v1/checkout_sessions", attrs, &env); err != nil {
		return CheckoutSession{}, err
	}
	var out struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(env.Data.Attributes, &out); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", err)
	}
	if out.CheckoutURL == "" {
		return CheckoutSession{}, errors.New("checkout session has no checkout_url")
	}
	return CheckoutSession{ID: env.Data.ID, CheckoutURL: out.CheckoutURL}, nil
}

// CreateQR creates a QR Ph payment intent, a qrph payment method and
// attaches them, returning the QR image from the intent's next action.
func (p *PayMongo) CreateQR(ctx context.Context, req QRRequest) (QRIntent, error) {
	if Centavos(req.Amount) <= 0 {
		return QRIntent{}, errors.New("amount must be positive")
	}

	var intent envelope
	err := p.do(ctx, http.MethodPost, "/v1/payment_intents", map[string]any{
		"amount":                 Centavos(req.Amount),
		"currency":               "PHP",
		"payment_method_allowed": []string{"qrph"},
		"capture_type":           "automatic",
		"description":            nonEmpty(req.Description, "Rental booking"),
		"metadata":               map[string]string{"booking_id": req.BookingID},
	}, &intent)
	if err != nil {
		return QRIntent{}, err
	}

	b := billing{Name: nonEmpty(req.Name, "Customer"), Email: req.Email, Phone: req.Phone}
	var method envelope
	if err := p.do(ctx, http.MethodPost, "/v1/payment_methods", map[string]any{
		"type":    "qrph",
		"billing": b,
	}, &method); err != nil {
		return QRIntent{}, err
	}

	var attached envelope
	if err := p.do(ctx, http.MethodPost, "/v1/payment_intents/"+intent.Data.ID+"/attach", map[string]any{
		"payment_method": method.Data.ID,
	}, &attached); err != nil {
		return QRIntent{}, err
	}

	var attrs struct {
		Status     string `json:"status"`
		NextAction struct {
			Code struct {
				ImageURL string `json:"image_url"`
			} `json:"code"`
		} `json:"next_action"`
	}
	if err := json.Unmarshal(attached.Data.Attributes, &attrs); err != nil {
		return QRIntent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	if attrs.NextAction.Code.ImageURL == "" {
		return QRIntent{}, errors.New("payment intent has no QR code")
	}
	id := attached.Data.ID
	if id == "" {
		id = intent.Data.ID
	}
	return QRIntent{
		IntentID: id,
		ImageURL: attrs.NextAction.Code.ImageURL,
		Amount:   req.Amount,
		Status:   attrs.Status,
	}, nil
}

func (p *PayMongo) IntentStatus(ctx context.Context, intentID string) (string, error) {
	if strings.TrimSpace(intentID) == "" {
		return "", errors.New("intent id is required")
	}
	var env envelope
	if err := p.do(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil, &env); err != nil {
		return "", err
	}
	var attrs struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data.Attributes, &attrs); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}
	return attrs.Status, nil
}

func (p *PayMongo) do(ctx context.Context, method, path string, attributes any, out any) error {
	var body io.Reader
	if attributes != nil {
		raw, err := json.Marshal(map[string]any{"data": map[string]any{"attributes": attributes}})
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.SecretKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := p.Client
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
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || (len(apiErr.Errors) == 0 && apiErr.Message == "") {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func nonEmpty(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}

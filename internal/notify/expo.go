package notify

import (
	"context"
	"fmt"
	"strings"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// ExpoNotifier sends push notifications to Expo push tokens.
type ExpoNotifier struct {
	publish func(*expo.PushMessage) (expo.PushResponse, error)
}

func NewExpoNotifier(accessToken string) *ExpoNotifier {
	var cfg *expo.ClientConfig
	if accessToken != "" {
		cfg = &expo.ClientConfig{AccessToken: accessToken}
	}
	client := expo.NewPushClient(cfg)
	return &ExpoNotifier{publish: client.Publish}
}

func (n *ExpoNotifier) Notify(_ context.Context, msg Message) error {
	raw := strings.TrimSpace(msg.To.PushToken)
	if raw == "" {
		return ErrNoAddress
	}
	token, err := expo.NewExponentPushToken(raw)
	if err != nil {
		return fmt.Errorf("expo token: %w", err)
	}
	resp, err := n.publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Title:    msg.Subject,
		Body:     firstLine(msg.Text),
		Data:     msg.Data,
		Sound:    "default",
		Priority: expo.DefaultPriority,
	})
	if err != nil {
		return fmt.Errorf("expo publish: %w", err)
	}
	if err := resp.ValidateResponse(); err != nil {
		return fmt.Errorf("expo response: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

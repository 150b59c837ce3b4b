// Package notify delivers booking notifications by email and push. Delivery
// is best effort: callers log failures and never roll back on them.
package notify

import (
	"context"
	"errors"
	"strings"

	"rentalhub/internal/utils"
)

type Recipient struct {
	Name      string
	Email     string
	PushToken string
}

type Message struct {
	To      Recipient
	Subject string
	Text    string
	Data    map[string]string
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// ErrNoAddress means the recipient has no address for this channel.
var ErrNoAddress = errors.New("recipient has no address for this channel")

// Multi sends through every notifier and joins their errors. Channels the
// recipient has no address for are skipped silently.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil && !errors.Is(err, ErrNoAddress) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the event log. Used when no mail or
// push credentials are configured.
type LogNotifier struct {
	RequestID string
}

func (l LogNotifier) Notify(_ context.Context, msg Message) error {
	utils.LogEvent(l.RequestID, "notify", "log", "to="+utils.FirstNonEmpty(msg.To.Email, msg.To.Name, "-")+" subject="+strings.TrimSpace(msg.Subject))
	return nil
}

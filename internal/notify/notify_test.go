package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/domain/models"

	"github.com/mailjet/mailjet-apiv3-go"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

type recordNotifier struct {
	got []Message
	err error
}

func (r *recordNotifier) Notify(_ context.Context, m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestMultiJoinsErrorsAndSkipsMissingAddress(t *testing.T) {
	ok := &recordNotifier{}
	noAddr := &recordNotifier{err: ErrNoAddress}
	boom := &recordNotifier{err: errors.New("smtp down")}

	err := Multi{ok, noAddr, nil, boom}.Notify(context.Background(), Message{Subject: "x"})
	if err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if errors.Is(err, ErrNoAddress) {
		t.Fatalf("missing address must not be reported")
	}
	if len(ok.got) != 1 || len(boom.got) != 1 {
		t.Fatalf("every notifier should be attempted")
	}
}

func TestMailjetNotifierBuildsMessage(t *testing.T) {
	var sent *mailjet.MessagesV31
	n := &MailjetNotifier{FromEmail: "noreply@example.com", FromName: "RentalHub", send: func(m *mailjet.MessagesV31) error {
		sent = m
		return nil
	}}

	err := n.Notify(context.Background(), Message{To: Recipient{Name: "Ana", Email: " ana@example.com "}, Subject: "Hello", Text: "Body"})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if sent == nil || len(sent.Info) != 1 {
		t.Fatalf("expected one message")
	}
	info := sent.Info[0]
	if info.From.Email != "noreply@example.com" || (*info.To)[0].Email != "ana@example.com" || info.Subject != "Hello" || info.TextPart != "Body" {
		t.Fatalf("unexpected message: %+v", info)
	}

	if err := n.Notify(context.Background(), Message{To: Recipient{Name: "No Mail"}}); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestMailjetNotifierWrapsSendError(t *testing.T) {
	n := &MailjetNotifier{send: func(*mailjet.MessagesV31) error { return errors.New("401") }}
	if err := n.Notify(context.Background(), Message{To: Recipient{Email: "a@b.c"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpoNotifier(t *testing.T) {
	var sent *expo.PushMessage
	n := &ExpoNotifier{publish: func(m *expo.PushMessage) (expo.PushResponse, error) {
		sent = m
		return expo.PushResponse{Status: expo.SuccessStatus}, nil
	}}

	err := n.Notify(context.Background(), Message{
		To:      Recipient{PushToken: "ExponentPushToken[abc123]"},
		Subject: "Rental started",
		Text:    "first line\nsecond line",
		Data:    map[string]string{"bookingId": "b-1"},
	})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if sent.Body != "first line" || sent.Title != "Rental started" || sent.Data["bookingId"] != "b-1" {
		t.Fatalf("unexpected push: %+v", sent)
	}

	if err := n.Notify(context.Background(), Message{}); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
	if err := n.Notify(context.Background(), Message{To: Recipient{PushToken: "not-a-token"}}); err == nil {
		t.Fatalf("expected invalid token error")
	}
}

func TestCompose(t *testing.T) {
	b := models.Booking{
		ID:         "b-1",
		Item:       models.ItemSnapshot{Product: "Tent"},
		Customer:   models.CustomerSnapshot{Name: "Ana", Phone: "0917"},
		Financials: models.Financials{GrandTotal: 1050},
		Terms:      models.RentalTerms{PaymentMethod: "Gcash"},
		Status:     domain.StatusApproved,
	}
	msg := Compose(KindApproved, b, Recipient{Name: "Ana", Email: "ana@example.com"})
	if msg.Subject != "Rental approved: Tent" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Hi Ana", "PHP 1,050.00", "Next steps", "Booking ID: b-1"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("text missing %q:\n%s", want, msg.Text)
		}
	}
	if msg.Data["kind"] != "approved" || msg.Data["bookingId"] != "b-1" {
		t.Fatalf("data = %v", msg.Data)
	}

	owner := Compose(KindNewRequest, b, Recipient{Name: "Olivia"})
	if !strings.Contains(owner.Text, "Ana would like to rent Tent") {
		t.Fatalf("owner text = %q", owner.Text)
	}
}

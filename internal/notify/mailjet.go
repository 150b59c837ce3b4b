package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailjet/mailjet-apiv3-go"
)

type MailjetNotifier struct {
	FromEmail string
	FromName  string
	send      func(*mailjet.MessagesV31) error
}

func NewMailjetNotifier(apiKey, secretKey, fromEmail, fromName string) *MailjetNotifier {
	client := mailjet.NewMailjetClient(apiKey, secretKey)
	return &MailjetNotifier{
		FromEmail: fromEmail,
		FromName:  fromName,
		send: func(m *mailjet.MessagesV31) error {
			_, err := client.SendMailV31(m)
			return err
		},
	}
}

func (n *MailjetNotifier) Notify(_ context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To.Email)
	if to == "" {
		return ErrNoAddress
	}
	if err := n.send(n.build(msg)); err != nil {
		return fmt.Errorf("mailjet send to %s: %w", to, err)
	}
	return nil
}

func (n *MailjetNotifier) build(msg Message) *mailjet.MessagesV31 {
	return &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From: &mailjet.RecipientV31{Email: n.FromEmail, Name: n.FromName},
		To: &mailjet.RecipientsV31{
			mailjet.RecipientV31{Email: strings.TrimSpace(msg.To.Email), Name: msg.To.Name},
		},
		Subject:  msg.Subject,
		TextPart: msg.Text,
	}}}
}

package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"agrohire/internal/config"
	"agrohire/internal/domain"
)

type EmailSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	s := &EmailSender{
		fromName: cfg.Email.FromName,
		fromAddr: cfg.Email.FromAddress,
	}
	if cfg.Email.SendgridAPIKey != "" {
		s.client = sendgrid.NewSendClient(cfg.Email.SendgridAPIKey)
	}
	return s
}

func (s *EmailSender) Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (string, error) {
	if s.client == nil {
		return "", ErrChannelNotConfigured
	}
	if recipient.Email == "" {
		return "", ErrNoRecipientAddress
	}

	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail(recipient.DisplayName(), recipient.Email)
	message := mail.NewSingleEmail(from, n.Subject, to, n.Message, "")

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

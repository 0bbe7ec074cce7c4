package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"agrohire/internal/config"
	"agrohire/internal/domain"
)

type SMSSender struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewSMSSender(cfg *config.Config) *SMSSender {
	s := &SMSSender{fromNumber: cfg.SMS.FromNumber}
	if cfg.SMS.TwilioAccountSID != "" && cfg.SMS.TwilioAuthToken != "" {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.SMS.TwilioAccountSID,
			Password: cfg.SMS.TwilioAuthToken,
		})
	}
	return s
}

func (s *SMSSender) Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (string, error) {
	if s.client == nil || s.fromNumber == "" {
		return "", ErrChannelNotConfigured
	}

	msisdn := domain.NormalizeMSISDN(recipient.PhoneNumber)
	if msisdn == "" {
		return "", ErrNoRecipientAddress
	}

	body := n.SMSMessage
	if body == "" {
		body = n.Message
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo("+" + msisdn)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid != nil {
		return *resp.Sid, nil
	}
	return "", nil
}

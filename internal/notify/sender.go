// Package notify holds the channel senders the notification dispatcher fans
// out to: SendGrid email, Twilio SMS, FCM push and in-app websocket delivery.
package notify

import (
	"context"
	"errors"

	"agrohire/internal/api/ws"
	"agrohire/internal/config"
	"agrohire/internal/domain"
)

var (
	ErrChannelNotConfigured = errors.New("notification channel not configured")
	ErrNoRecipientAddress   = errors.New("recipient has no address for channel")
)

// Sender delivers one notification over one channel. The returned external ID
// is the provider's message identifier, when the provider issues one.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (externalID string, err error)
}

// Registry maps each notification type to its sender. Missing channels fail
// with ErrChannelNotConfigured so the dispatcher can mark the notification
// instead of crashing.
type Registry map[domain.NotificationType]Sender

func (r Registry) Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (string, error) {
	sender, ok := r[n.Type]
	if !ok {
		return "", ErrChannelNotConfigured
	}
	return sender.Send(ctx, n, recipient)
}

// NewRegistry wires up every delivery channel from the configuration.
func NewRegistry(cfg *config.Config, hub *ws.Hub) Registry {
	return Registry{
		domain.NotifyEmail: NewEmailSender(cfg),
		domain.NotifySMS:   NewSMSSender(cfg),
		domain.NotifyPush:  NewPushSender(cfg),
		domain.NotifyInApp: NewInAppSender(hub),
	}
}

package notify

import (
	"context"

	"agrohire/internal/api/ws"
	"agrohire/internal/domain"
)

// InAppSender pushes notifications over the websocket hub. Recipients that
// are offline still see the notification when they next list it; delivery is
// considered successful either way.
type InAppSender struct {
	hub *ws.Hub
}

func NewInAppSender(hub *ws.Hub) *InAppSender {
	return &InAppSender{hub: hub}
}

func (s *InAppSender) Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (string, error) {
	if !s.hub.IsConnected(recipient.ID) {
		return "", nil
	}
	err := s.hub.SendNotification(recipient.ID, n.ID, string(n.Category), string(n.Priority), n.Subject, n.Message)
	return "", err
}

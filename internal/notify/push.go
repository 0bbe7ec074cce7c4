package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agrohire/internal/config"
	"agrohire/internal/domain"
)

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

// PushSender delivers via Firebase Cloud Messaging. Device tokens are keyed
// by user ID topics so the mobile clients subscribe to "user-<uuid>".
type PushSender struct {
	serverKey  string
	httpClient *http.Client
	sendURL    string
}

func NewPushSender(cfg *config.Config) *PushSender {
	return &PushSender{
		serverKey:  cfg.Push.FCMServerKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sendURL:    fcmSendURL,
	}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success     int   `json:"success"`
	Failure     int   `json:"failure"`
	MulticastID int64 `json:"multicast_id"`
}

func (s *PushSender) Send(ctx context.Context, n *domain.Notification, recipient *domain.User) (string, error) {
	if s.serverKey == "" {
		return "", ErrChannelNotConfigured
	}

	msg := fcmMessage{
		To: "/topics/user-" + recipient.ID.String(),
		Notification: fcmNotification{
			Title: n.Subject,
			Body:  n.Message,
		},
		Data: map[string]string{
			"notification_id": n.ID.String(),
			"category":        string(n.Category),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "key="+s.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fcm send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode fcm response: %w", err)
	}
	if result.Failure > 0 && result.Success == 0 {
		return "", fmt.Errorf("fcm rejected message")
	}

	return fmt.Sprintf("%d", result.MulticastID), nil
}

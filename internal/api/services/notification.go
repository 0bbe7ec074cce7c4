package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"agrohire/internal/domain"
	"agrohire/internal/metrics"
	"agrohire/internal/notify"
	"agrohire/internal/repository"
)

// Event describes something a user should hear about. The service fans it out
// into one notification row per channel the user's preferences allow.
type Event struct {
	RecipientID uuid.UUID
	Category    domain.NotificationCategory
	Priority    domain.NotificationPriority
	Subject     string
	Message     string
	SMSMessage  string
	Metadata    map[string]string
	// Channels restricts the fan-out. Empty means all channels.
	Channels []domain.NotificationType
}

var allChannels = []domain.NotificationType{
	domain.NotifyEmail,
	domain.NotifySMS,
	domain.NotifyPush,
	domain.NotifyInApp,
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	senders          notify.Registry
	// loc is the zone quiet hours are expressed in.
	loc *time.Location
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	senders notify.Registry,
	loc *time.Location,
) *NotificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		senders:          senders,
		loc:              loc,
	}
}

// Publish creates the per-channel notification rows for an event. Channels the
// user has switched off are skipped at creation time; quiet hours are checked
// at dispatch time instead, so a deferred notification still goes out later.
func (s *NotificationService) Publish(ctx context.Context, event Event) error {
	prefs, err := s.notificationRepo.PreferencesFor(event.RecipientID)
	if err != nil {
		return err
	}

	if event.Priority == "" {
		event.Priority = domain.PriorityNormal
	}

	var metadata json.RawMessage
	if len(event.Metadata) > 0 {
		metadata, _ = json.Marshal(event.Metadata)
	}

	channels := event.Channels
	if len(channels) == 0 {
		channels = allChannels
	}

	for _, channel := range channels {
		if !prefs.ShouldSend(channel, event.Category) {
			continue
		}
		n := &domain.Notification{
			RecipientID: event.RecipientID,
			Type:        channel,
			Category:    event.Category,
			Priority:    event.Priority,
			Subject:     event.Subject,
			Message:     event.Message,
			SMSMessage:  event.SMSMessage,
			Status:      domain.NotificationPending,
			Metadata:    metadata,
		}
		if err := s.notificationRepo.Create(n); err != nil {
			return err
		}
	}
	return nil
}

// PublishFromTemplate renders a named template with the context map and
// publishes the result on the template's channel.
func (s *NotificationService) PublishFromTemplate(ctx context.Context, recipientID uuid.UUID, templateName string, vars map[string]string) error {
	tmpl, err := s.notificationRepo.FindTemplateByName(templateName)
	if err != nil {
		return err
	}

	rendered := tmpl.Render(vars)
	return s.Publish(ctx, Event{
		RecipientID: recipientID,
		Category:    tmpl.Category,
		Priority:    tmpl.Priority,
		Subject:     rendered.Subject,
		Message:     rendered.Body,
		SMSMessage:  rendered.SMSBody,
		Channels:    []domain.NotificationType{tmpl.Type},
	})
}

// DispatchPending delivers queued notifications. Preferences may have changed
// since creation, so they are re-checked; quiet hours defer everything except
// urgent notifications.
func (s *NotificationService) DispatchPending(ctx context.Context, now time.Time) (sent, failed int, err error) {
	pending, err := s.notificationRepo.FindDispatchable(100)
	if err != nil {
		return 0, 0, err
	}

	for i := range pending {
		n := &pending[i]

		recipient, err := s.userRepo.FindByID(n.RecipientID)
		if err != nil {
			_ = s.notificationRepo.MarkCancelled(n.ID, "recipient not found")
			metrics.CountNotificationDispatched("cancelled")
			continue
		}

		prefs, err := s.notificationRepo.PreferencesFor(n.RecipientID)
		if err != nil {
			log.Printf("load notification preferences for %s: %v", n.RecipientID, err)
			continue
		}
		if !prefs.ShouldSend(n.Type, n.Category) {
			_ = s.notificationRepo.MarkCancelled(n.ID, "channel disabled by user")
			metrics.CountNotificationDispatched("cancelled")
			continue
		}
		if prefs.InQuietHours(now.In(s.loc)) && n.Priority != domain.PriorityUrgent {
			continue
		}

		externalID, sendErr := s.senders.Send(ctx, n, recipient)
		if sendErr != nil {
			if errors.Is(sendErr, notify.ErrChannelNotConfigured) || errors.Is(sendErr, notify.ErrNoRecipientAddress) {
				_ = s.notificationRepo.MarkCancelled(n.ID, sendErr.Error())
				metrics.CountNotificationDispatched("cancelled")
				continue
			}
			log.Printf("notification %s delivery failed via %s: %v", n.ID, n.Type, sendErr)
			_ = s.notificationRepo.MarkFailed(n.ID, sendErr.Error())
			metrics.CountNotificationDispatched("failed")
			failed++
			continue
		}

		if err := s.notificationRepo.MarkSent(n.ID, externalID, now); err != nil {
			log.Printf("mark notification %s sent: %v", n.ID, err)
			continue
		}
		metrics.CountNotificationDispatched("sent")
		sent++
	}
	return sent, failed, nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return s.notificationRepo.ListForUser(userID, unreadOnly, limit, offset)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notificationRepo.CountUnread(userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.notificationRepo.MarkRead(notificationID, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.MarkAllRead(userID)
}

func (s *NotificationService) Preferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	return s.notificationRepo.PreferencesFor(userID)
}

func (s *NotificationService) SavePreferences(ctx context.Context, prefs *domain.NotificationPreference) error {
	if prefs.QuietHoursStart != nil {
		if _, err := time.Parse("15:04", *prefs.QuietHoursStart); err != nil {
			return ErrInvalidInput
		}
	}
	if prefs.QuietHoursEnd != nil {
		if _, err := time.Parse("15:04", *prefs.QuietHoursEnd); err != nil {
			return ErrInvalidInput
		}
	}
	return s.notificationRepo.SavePreferences(prefs)
}

package dto

import (
	"encoding/json"
	"time"

	"agrohire/internal/domain"
)

type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Priority  string          `json:"priority"`
	Subject   string          `json:"subject"`
	Message   string          `json:"message"`
	Status    string          `json:"status"`
	ReadAt    *time.Time      `json:"readAt,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NotificationFromDomain(n *domain.Notification) *Notification {
	if n == nil {
		return nil
	}
	return &Notification{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Category:  string(n.Category),
		Priority:  string(n.Priority),
		Subject:   n.Subject,
		Message:   n.Message,
		Status:    string(n.Status),
		ReadAt:    n.ReadAt,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}

func NotificationsFromDomain(notifications []domain.Notification) []*Notification {
	result := make([]*Notification, len(notifications))
	for i := range notifications {
		result[i] = NotificationFromDomain(&notifications[i])
	}
	return result
}

type NotificationPreferences struct {
	EmailEnabled           bool    `json:"emailEnabled"`
	EmailBookingUpdates    bool    `json:"emailBookingUpdates"`
	EmailPaymentUpdates    bool    `json:"emailPaymentUpdates"`
	EmailEquipmentUpdates  bool    `json:"emailEquipmentUpdates"`
	EmailMaintenanceAlerts bool    `json:"emailMaintenanceAlerts"`
	EmailMarketing         bool    `json:"emailMarketing"`
	SMSEnabled             bool    `json:"smsEnabled"`
	SMSBookingUpdates      bool    `json:"smsBookingUpdates"`
	SMSPaymentUpdates      bool    `json:"smsPaymentUpdates"`
	PushEnabled            bool    `json:"pushEnabled"`
	PushBookingUpdates     bool    `json:"pushBookingUpdates"`
	PushPaymentUpdates     bool    `json:"pushPaymentUpdates"`
	PushEquipmentUpdates   bool    `json:"pushEquipmentUpdates"`
	InAppEnabled           bool    `json:"inAppEnabled"`
	QuietHoursStart        *string `json:"quietHoursStart,omitempty"`
	QuietHoursEnd          *string `json:"quietHoursEnd,omitempty"`
}

func PreferencesFromDomain(p *domain.NotificationPreference) *NotificationPreferences {
	if p == nil {
		return nil
	}
	return &NotificationPreferences{
		EmailEnabled:           p.EmailEnabled,
		EmailBookingUpdates:    p.EmailBookingUpdates,
		EmailPaymentUpdates:    p.EmailPaymentUpdates,
		EmailEquipmentUpdates:  p.EmailEquipmentUpdates,
		EmailMaintenanceAlerts: p.EmailMaintenanceAlerts,
		EmailMarketing:         p.EmailMarketing,
		SMSEnabled:             p.SMSEnabled,
		SMSBookingUpdates:      p.SMSBookingUpdates,
		SMSPaymentUpdates:      p.SMSPaymentUpdates,
		PushEnabled:            p.PushEnabled,
		PushBookingUpdates:     p.PushBookingUpdates,
		PushPaymentUpdates:     p.PushPaymentUpdates,
		PushEquipmentUpdates:   p.PushEquipmentUpdates,
		InAppEnabled:           p.InAppEnabled,
		QuietHoursStart:        p.QuietHoursStart,
		QuietHoursEnd:          p.QuietHoursEnd,
	}
}

func (p *NotificationPreferences) ToDomain() *domain.NotificationPreference {
	return &domain.NotificationPreference{
		EmailEnabled:           p.EmailEnabled,
		EmailBookingUpdates:    p.EmailBookingUpdates,
		EmailPaymentUpdates:    p.EmailPaymentUpdates,
		EmailEquipmentUpdates:  p.EmailEquipmentUpdates,
		EmailMaintenanceAlerts: p.EmailMaintenanceAlerts,
		EmailMarketing:         p.EmailMarketing,
		SMSEnabled:             p.SMSEnabled,
		SMSBookingUpdates:      p.SMSBookingUpdates,
		SMSPaymentUpdates:      p.SMSPaymentUpdates,
		PushEnabled:            p.PushEnabled,
		PushBookingUpdates:     p.PushBookingUpdates,
		PushPaymentUpdates:     p.PushPaymentUpdates,
		PushEquipmentUpdates:   p.PushEquipmentUpdates,
		InAppEnabled:           p.InAppEnabled,
		QuietHoursStart:        p.QuietHoursStart,
		QuietHoursEnd:          p.QuietHoursEnd,
	}
}

package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyEmail NotificationType = "email"
	NotifySMS   NotificationType = "sms"
	NotifyPush  NotificationType = "push"
	NotifyInApp NotificationType = "in_app"
)

type NotificationCategory string

const (
	CategoryBooking          NotificationCategory = "booking"
	CategoryPayment          NotificationCategory = "payment"
	CategoryEquipmentUpdates NotificationCategory = "equipment"
	CategoryMaintenance      NotificationCategory = "maintenance"
	CategorySystem           NotificationCategory = "system"
	CategoryMarketing        NotificationCategory = "marketing"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
	NotificationCancelled NotificationStatus = "cancelled"
)

type NotificationTemplate struct {
	Tracked
	Name      string               `db:"name"`
	Type      NotificationType     `db:"type"`
	Category  NotificationCategory `db:"category"`
	Subject   string               `db:"subject"`
	Body      string               `db:"body"`
	SMSBody   string               `db:"sms_body"`
	Priority  NotificationPriority `db:"priority"`
	Active    bool                 `db:"active"`
}

type RenderedTemplate struct {
	Subject string
	Body    string
	SMSBody string
}

// Render substitutes {{key}} placeholders in the subject and bodies.
func (t *NotificationTemplate) Render(context map[string]string) RenderedTemplate {
	replace := func(s string) string {
		for key, value := range context {
			s = strings.ReplaceAll(s, "{{"+key+"}}", value)
		}
		return s
	}
	return RenderedTemplate{
		Subject: replace(t.Subject),
		Body:    replace(t.Body),
		SMSBody: replace(t.SMSBody),
	}
}

type Notification struct {
	Tracked
	RecipientID      uuid.UUID            `db:"recipient_id"`
	Type             NotificationType     `db:"type"`
	TemplateID       *uuid.UUID           `db:"template_id"`
	Category         NotificationCategory `db:"category"`
	Priority         NotificationPriority `db:"priority"`
	Subject          string               `db:"subject"`
	Message          string               `db:"message"`
	SMSMessage       string               `db:"sms_message"`
	Status           NotificationStatus   `db:"status"`
	SentAt           *time.Time           `db:"sent_at"`
	ReadAt           *time.Time           `db:"read_at"`
	DeliveryAttempts int                  `db:"delivery_attempts"`
	MaxAttempts      int                  `db:"max_attempts"`
	ErrorMessage     string               `db:"error_message"`
	ExternalID       string               `db:"external_id"`
	Metadata         json.RawMessage      `db:"metadata"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

func (n *Notification) CanRetry() bool {
	return n.Status == NotificationFailed && n.DeliveryAttempts < n.MaxAttempts
}

type NotificationPreference struct {
	Tracked
	UserID    uuid.UUID `db:"user_id"`

	EmailEnabled           bool `db:"email_enabled"`
	EmailBookingUpdates    bool `db:"email_booking_updates"`
	EmailPaymentUpdates    bool `db:"email_payment_updates"`
	EmailEquipmentUpdates  bool `db:"email_equipment_updates"`
	EmailMaintenanceAlerts bool `db:"email_maintenance_alerts"`
	EmailMarketing         bool `db:"email_marketing"`

	SMSEnabled        bool `db:"sms_enabled"`
	SMSBookingUpdates bool `db:"sms_booking_updates"`
	SMSPaymentUpdates bool `db:"sms_payment_updates"`

	PushEnabled          bool `db:"push_enabled"`
	PushBookingUpdates   bool `db:"push_booking_updates"`
	PushPaymentUpdates   bool `db:"push_payment_updates"`
	PushEquipmentUpdates bool `db:"push_equipment_updates"`

	InAppEnabled bool `db:"in_app_enabled"`

	QuietHoursStart *string `db:"quiet_hours_start"`
	QuietHoursEnd   *string `db:"quiet_hours_end"`
}

// DefaultPreferences mirrors the defaults a new user gets: everything on
// except marketing email.
func DefaultPreferences(userID uuid.UUID) *NotificationPreference {
	return &NotificationPreference{
		UserID:                 userID,
		EmailEnabled:           true,
		EmailBookingUpdates:    true,
		EmailPaymentUpdates:    true,
		EmailEquipmentUpdates:  true,
		EmailMaintenanceAlerts: true,
		EmailMarketing:         false,
		SMSEnabled:             true,
		SMSBookingUpdates:      true,
		SMSPaymentUpdates:      true,
		PushEnabled:            true,
		PushBookingUpdates:     true,
		PushPaymentUpdates:     true,
		PushEquipmentUpdates:   true,
		InAppEnabled:           true,
	}
}

// ShouldSend applies the per-channel and per-category toggles.
func (p *NotificationPreference) ShouldSend(notificationType NotificationType, category NotificationCategory) bool {
	switch notificationType {
	case NotifyEmail:
		if !p.EmailEnabled {
			return false
		}
		switch category {
		case CategoryBooking:
			return p.EmailBookingUpdates
		case CategoryPayment:
			return p.EmailPaymentUpdates
		case CategoryEquipmentUpdates:
			return p.EmailEquipmentUpdates
		case CategoryMaintenance:
			return p.EmailMaintenanceAlerts
		case CategoryMarketing:
			return p.EmailMarketing
		}
	case NotifySMS:
		if !p.SMSEnabled {
			return false
		}
		switch category {
		case CategoryBooking:
			return p.SMSBookingUpdates
		case CategoryPayment:
			return p.SMSPaymentUpdates
		}
	case NotifyPush:
		if !p.PushEnabled {
			return false
		}
		switch category {
		case CategoryBooking:
			return p.PushBookingUpdates
		case CategoryPayment:
			return p.PushPaymentUpdates
		case CategoryEquipmentUpdates:
			return p.PushEquipmentUpdates
		}
	case NotifyInApp:
		return p.InAppEnabled
	}
	return true
}

// InQuietHours reports whether the clock time falls inside the user's quiet
// window. Windows may span midnight.
func (p *NotificationPreference) InQuietHours(now time.Time) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}
	start, err := time.Parse("15:04", *p.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", *p.QuietHoursEnd)
	if err != nil {
		return false
	}

	minutes := now.Hour()*60 + now.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return minutes >= startMin && minutes <= endMin
	}
	return minutes >= startMin || minutes <= endMin
}

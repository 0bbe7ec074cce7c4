package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNotificationTemplate_Render(t *testing.T) {
	tmpl := &NotificationTemplate{
		Subject: "Booking {{booking_number}} confirmed",
		Body:    "Hello {{name}}, your booking {{booking_number}} for {{equipment}} is confirmed.",
		SMSBody: "AgroHire: booking {{booking_number}} confirmed.",
	}

	rendered := tmpl.Render(map[string]string{
		"name":           "Wanjiku",
		"booking_number": "AGH-20260303-0042",
		"equipment":      "John Deere 5075E",
	})

	assert.Equal(t, "Booking AGH-20260303-0042 confirmed", rendered.Subject)
	assert.Equal(t, "Hello Wanjiku, your booking AGH-20260303-0042 for John Deere 5075E is confirmed.", rendered.Body)
	assert.Equal(t, "AgroHire: booking AGH-20260303-0042 confirmed.", rendered.SMSBody)
}

func TestNotificationTemplate_RenderLeavesUnknownPlaceholders(t *testing.T) {
	tmpl := &NotificationTemplate{Body: "Hello {{name}}, see {{unknown}}."}
	rendered := tmpl.Render(map[string]string{"name": "Otieno"})
	assert.Equal(t, "Hello Otieno, see {{unknown}}.", rendered.Body)
}

func TestNotificationPreference_ShouldSend(t *testing.T) {
	prefs := DefaultPreferences(uuid.New())

	assert.True(t, prefs.ShouldSend(NotifyEmail, CategoryBooking))
	assert.True(t, prefs.ShouldSend(NotifySMS, CategoryPayment))
	assert.True(t, prefs.ShouldSend(NotifyInApp, CategorySystem))
	assert.False(t, prefs.ShouldSend(NotifyEmail, CategoryMarketing))

	prefs.EmailEnabled = false
	assert.False(t, prefs.ShouldSend(NotifyEmail, CategoryBooking))

	prefs.SMSBookingUpdates = false
	assert.False(t, prefs.ShouldSend(NotifySMS, CategoryBooking))
	assert.True(t, prefs.ShouldSend(NotifySMS, CategoryPayment))

	prefs.InAppEnabled = false
	assert.False(t, prefs.ShouldSend(NotifyInApp, CategoryBooking))
}

func TestNotificationPreference_InQuietHours(t *testing.T) {
	start := "22:00"
	end := "06:00"
	prefs := &NotificationPreference{QuietHoursStart: &start, QuietHoursEnd: &end}

	assert.True(t, prefs.InQuietHours(date("2026-03-03 23:30")))
	assert.True(t, prefs.InQuietHours(date("2026-03-03 05:00")))
	assert.False(t, prefs.InQuietHours(date("2026-03-03 12:00")))

	// window not spanning midnight
	dayStart := "13:00"
	dayEnd := "14:00"
	prefs = &NotificationPreference{QuietHoursStart: &dayStart, QuietHoursEnd: &dayEnd}
	assert.True(t, prefs.InQuietHours(date("2026-03-03 13:30")))
	assert.False(t, prefs.InQuietHours(date("2026-03-03 15:00")))

	// unset window never quiet
	prefs = &NotificationPreference{}
	assert.False(t, prefs.InQuietHours(date("2026-03-03 23:30")))
}

func TestNotification_CanRetry(t *testing.T) {
	n := &Notification{Status: NotificationFailed, DeliveryAttempts: 1, MaxAttempts: 3}
	assert.True(t, n.CanRetry())

	n.DeliveryAttempts = 3
	assert.False(t, n.CanRetry())

	n.Status = NotificationSent
	n.DeliveryAttempts = 0
	assert.False(t, n.CanRetry())
}

package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/domain"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrTemplateNotFound     = errors.New("notification template not found")
)

const notificationColumns = `
	id, created_at, updated_at, deleted_at, recipient_id, type, template_id,
	category, priority, subject, message, sms_message, status, sent_at, read_at,
	delivery_attempts, max_attempts, error_message, external_id, metadata
`

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateTemplate(t *domain.NotificationTemplate) error {
	query := `
		INSERT INTO notification_templates (name, type, category, subject, body, sms_body, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		t.Name, t.Type, t.Category, t.Subject, t.Body, t.SMSBody, t.Priority, t.Active,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *NotificationRepository) FindTemplateByName(name string) (*domain.NotificationTemplate, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, name, type, category,
			subject, body, sms_body, priority, active
		FROM notification_templates
		WHERE name = $1 AND active = TRUE AND deleted_at IS NULL
	`
	t := &domain.NotificationTemplate{}
	err := r.db.Get(t, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *NotificationRepository) Create(n *domain.Notification) error {
	if n.MaxAttempts == 0 {
		n.MaxAttempts = 3
	}
	if len(n.Metadata) == 0 {
		n.Metadata = json.RawMessage(`{}`)
	}
	query := `
		INSERT INTO notifications (
			recipient_id, type, template_id, category, priority, subject,
			message, sms_message, status, max_attempts, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		n.RecipientID, n.Type, n.TemplateID, n.Category, n.Priority, n.Subject,
		n.Message, n.SMSMessage, n.Status, n.MaxAttempts, n.Metadata,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

func (r *NotificationRepository) FindByID(id uuid.UUID) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1 AND deleted_at IS NULL`

	n := &domain.Notification{}
	err := r.db.Get(n, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *NotificationRepository) ListForUser(userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND deleted_at IS NULL
	`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	notifications := []domain.Notification{}
	err := r.db.Select(&notifications, query, userID, limit, offset)
	return notifications, err
}

func (r *NotificationRepository) CountUnread(userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND read_at IS NULL AND deleted_at IS NULL
	`
	count := 0
	err := r.db.Get(&count, query, userID)
	return count, err
}

// FindDispatchable returns pending notifications plus failed ones that still
// have retry attempts left, oldest first.
func (r *NotificationRepository) FindDispatchable(limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE deleted_at IS NULL
		  AND (status = $1 OR (status = $2 AND delivery_attempts < max_attempts))
		ORDER BY created_at
		LIMIT $3
	`
	notifications := []domain.Notification{}
	err := r.db.Select(&notifications, query, domain.NotificationPending, domain.NotificationFailed, limit)
	return notifications, err
}

func (r *NotificationRepository) MarkSent(id uuid.UUID, externalID string, at time.Time) error {
	query := `
		UPDATE notifications
		SET status = $1,
		    sent_at = $2,
		    external_id = $3,
		    delivery_attempts = delivery_attempts + 1,
		    error_message = '',
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND deleted_at IS NULL
	`
	_, err := r.db.Exec(query, domain.NotificationSent, at, externalID, id)
	return err
}

func (r *NotificationRepository) MarkFailed(id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE notifications
		SET status = $1,
		    delivery_attempts = delivery_attempts + 1,
		    error_message = $2,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND deleted_at IS NULL
	`
	_, err := r.db.Exec(query, domain.NotificationFailed, errorMessage, id)
	return err
}

func (r *NotificationRepository) MarkCancelled(id uuid.UUID, reason string) error {
	query := `
		UPDATE notifications
		SET status = $1, error_message = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND deleted_at IS NULL
	`
	_, err := r.db.Exec(query, domain.NotificationCancelled, reason, id)
	return err
}

func (r *NotificationRepository) MarkRead(id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(userID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET read_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE recipient_id = $1 AND read_at IS NULL AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PreferencesFor loads a user's preferences, falling back to defaults when
// the user never saved any.
func (r *NotificationRepository) PreferencesFor(userID uuid.UUID) (*domain.NotificationPreference, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, user_id,
			email_enabled, email_booking_updates, email_payment_updates,
			email_equipment_updates, email_maintenance_alerts, email_marketing,
			sms_enabled, sms_booking_updates, sms_payment_updates,
			push_enabled, push_booking_updates, push_payment_updates,
			push_equipment_updates, in_app_enabled, quiet_hours_start, quiet_hours_end
		FROM notification_preferences
		WHERE user_id = $1 AND deleted_at IS NULL
	`
	p := &domain.NotificationPreference{}
	err := r.db.Get(p, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultPreferences(userID), nil
		}
		return nil, err
	}
	return p, nil
}

func (r *NotificationRepository) SavePreferences(p *domain.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (
			user_id, email_enabled, email_booking_updates, email_payment_updates,
			email_equipment_updates, email_maintenance_alerts, email_marketing,
			sms_enabled, sms_booking_updates, sms_payment_updates,
			push_enabled, push_booking_updates, push_payment_updates,
			push_equipment_updates, in_app_enabled, quiet_hours_start, quiet_hours_end
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (user_id) DO UPDATE
		SET email_enabled = EXCLUDED.email_enabled,
		    email_booking_updates = EXCLUDED.email_booking_updates,
		    email_payment_updates = EXCLUDED.email_payment_updates,
		    email_equipment_updates = EXCLUDED.email_equipment_updates,
		    email_maintenance_alerts = EXCLUDED.email_maintenance_alerts,
		    email_marketing = EXCLUDED.email_marketing,
		    sms_enabled = EXCLUDED.sms_enabled,
		    sms_booking_updates = EXCLUDED.sms_booking_updates,
		    sms_payment_updates = EXCLUDED.sms_payment_updates,
		    push_enabled = EXCLUDED.push_enabled,
		    push_booking_updates = EXCLUDED.push_booking_updates,
		    push_payment_updates = EXCLUDED.push_payment_updates,
		    push_equipment_updates = EXCLUDED.push_equipment_updates,
		    in_app_enabled = EXCLUDED.in_app_enabled,
		    quiet_hours_start = EXCLUDED.quiet_hours_start,
		    quiet_hours_end = EXCLUDED.quiet_hours_end,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		p.UserID, p.EmailEnabled, p.EmailBookingUpdates, p.EmailPaymentUpdates,
		p.EmailEquipmentUpdates, p.EmailMaintenanceAlerts, p.EmailMarketing,
		p.SMSEnabled, p.SMSBookingUpdates, p.SMSPaymentUpdates,
		p.PushEnabled, p.PushBookingUpdates, p.PushPaymentUpdates,
		p.PushEquipmentUpdates, p.InAppEnabled, p.QuietHoursStart, p.QuietHoursEnd,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

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
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPaymentNumberTaken = errors.New("payment number taken")
	ErrRefundNotFound     = errors.New("refund not found")
)

const paymentColumns = `
	id, created_at, updated_at, deleted_at, payment_number, booking_id, user_id,
	amount_cents, method, status, mpesa_phone_number, mpesa_transaction_id,
	mpesa_merchant_request_id, mpesa_checkout_request_id, mpesa_result_code,
	mpesa_result_desc, currency, processing_fee_cents, platform_fee_cents,
	total_amount_cents, payment_date
`

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			payment_number, booking_id, user_id, amount_cents, method, status,
			mpesa_phone_number, currency, processing_fee_cents, platform_fee_cents,
			total_amount_cents
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		payment.PaymentNumber, payment.BookingID, payment.UserID,
		payment.AmountCents, payment.Method, payment.Status,
		payment.MpesaPhoneNumber, payment.Currency,
		payment.ProcessingFeeCents, payment.PlatformFeeCents, payment.TotalAmountCents,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrPaymentNumberTaken
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) FindByID(id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND deleted_at IS NULL`

	payment := &domain.Payment{}
	err := r.db.Get(payment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// FindByMpesaRequest locates the payment a Daraja callback refers to. Both IDs
// must match; they are only unique as a pair.
func (r *PaymentRepository) FindByMpesaRequest(merchantRequestID, checkoutRequestID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE mpesa_merchant_request_id = $1
		  AND mpesa_checkout_request_id = $2
		  AND deleted_at IS NULL
	`
	payment := &domain.Payment{}
	err := r.db.Get(payment, query, merchantRequestID, checkoutRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) ListForBooking(bookingID uuid.UUID) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	payments := []domain.Payment{}
	err := r.db.Select(&payments, query, bookingID)
	return payments, err
}

func (r *PaymentRepository) ListForUser(userID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	payments := []domain.Payment{}
	err := r.db.Select(&payments, query, userID, limit, offset)
	return payments, err
}

// SetStkRequest stores the Daraja request identifiers after a successful STK
// push and moves the payment to processing.
func (r *PaymentRepository) SetStkRequest(id uuid.UUID, merchantRequestID, checkoutRequestID string) error {
	query := `
		UPDATE payments
		SET mpesa_merchant_request_id = $1,
		    mpesa_checkout_request_id = $2,
		    status = $3,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND deleted_at IS NULL
	`
	_, err := r.db.Exec(query, merchantRequestID, checkoutRequestID, domain.PaymentProcessing, id)
	return err
}

// Settle records the provider's final verdict for a payment.
func (r *PaymentRepository) Settle(h ExtHandle, id uuid.UUID, status domain.PaymentStatus, resultCode, resultDesc, transactionID string, paidAt *time.Time) error {
	query := `
		UPDATE payments
		SET status = $1,
		    mpesa_result_code = $2,
		    mpesa_result_desc = $3,
		    mpesa_transaction_id = $4,
		    payment_date = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND deleted_at IS NULL
	`
	_, err := h.Exec(query, status, resultCode, resultDesc, transactionID, paidAt, id)
	return err
}

func (r *PaymentRepository) MarkRefunded(id uuid.UUID) error {
	query := `UPDATE payments SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND deleted_at IS NULL`
	_, err := r.db.Exec(query, domain.PaymentRefunded, id)
	return err
}

// FindStuckProcessing returns payments still in processing older than the
// cutoff, so the scheduler can re-query the provider.
func (r *PaymentRepository) FindStuckProcessing(cutoff time.Time) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = $1
		  AND mpesa_checkout_request_id != ''
		  AND updated_at < $2
		  AND deleted_at IS NULL
		ORDER BY updated_at
		LIMIT 50
	`
	payments := []domain.Payment{}
	err := r.db.Select(&payments, query, domain.PaymentProcessing, cutoff)
	return payments, err
}

func (r *PaymentRepository) CreateRefund(refund *domain.Refund) error {
	query := `
		INSERT INTO refunds (payment_id, amount_cents, reason, status, processed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		refund.PaymentID, refund.AmountCents, refund.Reason, refund.Status, refund.ProcessedBy,
	).Scan(&refund.ID, &refund.CreatedAt, &refund.UpdatedAt)
}

func (r *PaymentRepository) SettleRefund(id uuid.UUID, status domain.RefundStatus, resultCode, resultDesc, transactionID string, refundedAt *time.Time) error {
	query := `
		UPDATE refunds
		SET status = $1,
		    mpesa_result_code = $2,
		    mpesa_result_desc = $3,
		    mpesa_transaction_id = $4,
		    refund_date = $5,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, status, resultCode, resultDesc, transactionID, refundedAt, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRefundNotFound
	}
	return nil
}

func (r *PaymentRepository) ListRefunds(paymentID uuid.UUID) ([]domain.Refund, error) {
	query := `
		SELECT id, created_at, updated_at, deleted_at, payment_id, amount_cents,
			reason, mpesa_transaction_id, mpesa_result_code, mpesa_result_desc,
			status, processed_by, refund_date
		FROM refunds
		WHERE payment_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	refunds := []domain.Refund{}
	err := r.db.Select(&refunds, query, paymentID)
	return refunds, err
}

// LogTransaction appends a provider exchange to the audit trail. Logging
// failures are the caller's to ignore; the trail is best effort.
func (r *PaymentRepository) LogTransaction(paymentID *uuid.UUID, action, status, message string, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	query := `
		INSERT INTO transaction_logs (payment_id, action, status, message, data)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query, paymentID, action, status, message, data)
	return err
}

func (r *PaymentRepository) ListTransactionLogs(paymentID uuid.UUID) ([]domain.TransactionLog, error) {
	query := `
		SELECT id, created_at, deleted_at, payment_id, action, status, message, data
		FROM transaction_logs
		WHERE payment_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`
	logs := []domain.TransactionLog{}
	err := r.db.Select(&logs, query, paymentID)
	return logs, err
}

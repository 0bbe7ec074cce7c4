package domain

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	MethodMpesa        PaymentMethod = "mpesa"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodOther        PaymentMethod = "other"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Payment struct {
	Tracked
	PaymentNumber          string        `db:"payment_number"`
	BookingID              uuid.UUID     `db:"booking_id"`
	UserID                 uuid.UUID     `db:"user_id"`
	AmountCents            int64         `db:"amount_cents"`
	Method                 PaymentMethod `db:"method"`
	Status                 PaymentStatus `db:"status"`
	MpesaPhoneNumber       string        `db:"mpesa_phone_number"`
	MpesaTransactionID     string        `db:"mpesa_transaction_id"`
	MpesaMerchantRequestID string        `db:"mpesa_merchant_request_id"`
	MpesaCheckoutRequestID string        `db:"mpesa_checkout_request_id"`
	MpesaResultCode        string        `db:"mpesa_result_code"`
	MpesaResultDesc        string        `db:"mpesa_result_desc"`
	Currency               string        `db:"currency"`
	ProcessingFeeCents     int64         `db:"processing_fee_cents"`
	PlatformFeeCents       int64         `db:"platform_fee_cents"`
	TotalAmountCents       int64         `db:"total_amount_cents"`
	PaymentDate            *time.Time    `db:"payment_date"`
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentCompleted
}

func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending || p.Status == PaymentProcessing
}

// IsSettled reports whether the payment reached a terminal state; callbacks
// arriving after settlement are ignored.
func (p *Payment) IsSettled() bool {
	switch p.Status {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// NewPaymentNumber generates a candidate payment number in the form
// PAY-YYYYMMDD-XXXX. Uniqueness is enforced by the database.
func NewPaymentNumber(now time.Time) string {
	return fmt.Sprintf("PAY-%s-%04d", now.Format("20060102"), rand.Intn(10000))
}

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
	RefundCancelled  RefundStatus = "cancelled"
)

type Refund struct {
	Tracked
	PaymentID          uuid.UUID    `db:"payment_id"`
	AmountCents        int64        `db:"amount_cents"`
	Reason             string       `db:"reason"`
	MpesaTransactionID string       `db:"mpesa_transaction_id"`
	MpesaResultCode    string       `db:"mpesa_result_code"`
	MpesaResultDesc    string       `db:"mpesa_result_desc"`
	Status             RefundStatus `db:"status"`
	ProcessedBy        *uuid.UUID   `db:"processed_by"`
	RefundDate         *time.Time   `db:"refund_date"`
}

// TransactionLog keeps an audit trail of every exchange with the payment
// provider.
type TransactionLog struct {
	Model
	PaymentID *uuid.UUID      `db:"payment_id"`
	Action    string          `db:"action"`
	Status    string          `db:"status"`
	Message   string          `db:"message"`
	Data      json.RawMessage `db:"data"`
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agrohire/internal/domain"
	"agrohire/internal/metrics"
	"agrohire/internal/mpesa"
	"agrohire/internal/repository"
)

var (
	ErrPaymentNotPending    = errors.New("payment not awaiting settlement")
	ErrPaymentNotRefundable = errors.New("payment not refundable")
	ErrStkPushRejected      = errors.New("stk push rejected by provider")
)

const paymentNumberRetries = 3

// MpesaClient is the slice of the Daraja client the service needs; tests swap
// in a fake.
type MpesaClient interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
	Reverse(ctx context.Context, transactionID string, amount int64, phoneNumber, reference string) (*mpesa.ReversalResponse, error)
}

// CallbackInput carries the fields of a Daraja STK callback the platform acts
// on.
type CallbackInput struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        string
	ResultDesc        string
	TransactionID     string
	Raw               json.RawMessage
}

type PaymentService struct {
	db            *sqlx.DB
	paymentRepo   *repository.PaymentRepository
	bookingRepo   *repository.BookingRepository
	userRepo      *repository.UserRepository
	mpesaClient   MpesaClient
	notifications *NotificationService
}

func NewPaymentService(
	db *sqlx.DB,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	userRepo *repository.UserRepository,
	mpesaClient MpesaClient,
	notifications *NotificationService,
) *PaymentService {
	return &PaymentService{
		db:            db,
		paymentRepo:   paymentRepo,
		bookingRepo:   bookingRepo,
		userRepo:      userRepo,
		mpesaClient:   mpesaClient,
		notifications: notifications,
	}
}

// Initiate creates a payment for a booking and fires the STK push. The phone
// gets the prompt; settlement arrives later on the callback.
func (s *PaymentService) Initiate(ctx context.Context, userID, bookingID uuid.UUID, phoneNumber string) (*domain.Payment, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrForbidden
	}

	msisdn := domain.NormalizeMSISDN(phoneNumber)
	if msisdn == "" {
		return nil, ErrInvalidInput
	}

	amount := booking.TotalWithFeesCents()
	payment := &domain.Payment{
		BookingID:        bookingID,
		UserID:           userID,
		AmountCents:      amount,
		Method:           domain.MethodMpesa,
		Status:           domain.PaymentPending,
		MpesaPhoneNumber: msisdn,
		Currency:         "KES",
		TotalAmountCents: amount,
	}

	now := time.Now()
	for attempt := 0; ; attempt++ {
		payment.PaymentNumber = domain.NewPaymentNumber(now)
		err = s.paymentRepo.Create(payment)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrPaymentNumberTaken) || attempt >= paymentNumberRetries {
			return nil, err
		}
	}

	// Daraja takes whole shillings.
	resp, err := s.mpesaClient.STKPush(ctx, mpesa.STKPushRequest{
		PhoneNumber:   msisdn,
		Amount:        amount / 100,
		PaymentNumber: payment.PaymentNumber,
		BookingNumber: booking.BookingNumber,
	})
	if err != nil {
		s.logTransaction(&payment.ID, "initiate_payment", "failed", err.Error(), nil)
		_ = s.paymentRepo.Settle(s.db, payment.ID, domain.PaymentFailed, "", err.Error(), "", nil)
		return nil, err
	}

	raw, _ := json.Marshal(resp)
	if !resp.Accepted() {
		s.logTransaction(&payment.ID, "initiate_payment", "failed", resp.ResponseDescription, raw)
		_ = s.paymentRepo.Settle(s.db, payment.ID, domain.PaymentFailed, resp.ResponseCode, resp.ResponseDescription, "", nil)
		return nil, ErrStkPushRejected
	}

	s.logTransaction(&payment.ID, "initiate_payment", "success", resp.ResponseDescription, raw)
	if err := s.paymentRepo.SetStkRequest(payment.ID, resp.MerchantRequestID, resp.CheckoutRequestID); err != nil {
		return nil, err
	}

	return s.paymentRepo.FindByID(payment.ID)
}

// HandleCallback settles a payment from a Daraja STK callback. Callbacks may
// repeat; a payment already in a terminal state is left untouched. A
// successful payment confirms its booking.
func (s *PaymentService) HandleCallback(ctx context.Context, input CallbackInput) error {
	payment, err := s.paymentRepo.FindByMpesaRequest(input.MerchantRequestID, input.CheckoutRequestID)
	if err != nil {
		s.logTransaction(nil, "payment_callback", "failed", "payment not found", input.Raw)
		return err
	}

	if payment.IsSettled() {
		s.logTransaction(&payment.ID, "payment_callback", "ignored", "payment already settled", input.Raw)
		return nil
	}

	if input.ResultCode != "0" {
		s.logTransaction(&payment.ID, "payment_callback", "failed", input.ResultDesc, input.Raw)
		metrics.CountPaymentSettled(string(domain.PaymentFailed))
		return s.paymentRepo.Settle(s.db, payment.ID, domain.PaymentFailed,
			input.ResultCode, input.ResultDesc, input.TransactionID, nil)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	paidAt := time.Now()
	if err := s.paymentRepo.Settle(tx, payment.ID, domain.PaymentCompleted,
		input.ResultCode, input.ResultDesc, input.TransactionID, &paidAt); err != nil {
		return err
	}

	// A paid pending booking is confirmed without waiting for the owner.
	booking, err := s.bookingRepo.FindByID(payment.BookingID)
	if err == nil && booking.Status == domain.BookingPending {
		if err := s.bookingRepo.UpdateStatusWithExt(tx, booking.ID, domain.BookingPending, domain.BookingConfirmed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	metrics.CountPaymentSettled(string(domain.PaymentCompleted))

	s.logTransaction(&payment.ID, "payment_callback", "success", input.ResultDesc, input.Raw)

	_ = s.notifications.Publish(ctx, Event{
		RecipientID: payment.UserID,
		Category:    domain.CategoryPayment,
		Subject:     "Payment received",
		Message: fmt.Sprintf("Your payment %s of KES %.2f was received.",
			payment.PaymentNumber, float64(payment.TotalAmountCents)/100),
		SMSMessage: fmt.Sprintf("AgroHire: payment %s received", payment.PaymentNumber),
		Metadata:   map[string]string{"payment_id": payment.ID.String()},
	})

	return nil
}

// Verify re-queries Daraja for a processing payment and settles it from the
// answer. Used by the API on demand and by the scheduler for stuck payments.
func (s *PaymentService) Verify(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.IsSettled() {
		return payment, nil
	}
	if payment.MpesaCheckoutRequestID == "" {
		return nil, ErrPaymentNotPending
	}

	resp, err := s.mpesaClient.STKQuery(ctx, payment.MpesaCheckoutRequestID)
	if err != nil {
		s.logTransaction(&payment.ID, "verify_transaction", "failed", err.Error(), nil)
		return nil, err
	}

	raw, _ := json.Marshal(resp)
	s.logTransaction(&payment.ID, "verify_transaction", "success", resp.ResultDesc, raw)

	return payment, s.HandleCallback(ctx, CallbackInput{
		MerchantRequestID: payment.MpesaMerchantRequestID,
		CheckoutRequestID: payment.MpesaCheckoutRequestID,
		ResultCode:        resp.ResultCode,
		ResultDesc:        resp.ResultDesc,
		TransactionID:     resp.MpesaReceiptNumber,
		Raw:               raw,
	})
}

// RequeryStuck re-verifies payments that have sat in processing for longer
// than the threshold.
func (s *PaymentService) RequeryStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	stuck, err := s.paymentRepo.FindStuckProcessing(time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	for i := range stuck {
		if _, err := s.Verify(ctx, stuck[i].ID); err != nil {
			log.Printf("requery payment %s: %v", stuck[i].ID, err)
		}
	}
	return len(stuck), nil
}

// Refund reverses a completed M-Pesa payment. Only the equipment owner or an
// admin may refund.
func (s *PaymentService) Refund(ctx context.Context, processorID, paymentID uuid.UUID, amountCents int64, reason string) (*domain.Refund, error) {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsSuccessful() {
		return nil, ErrPaymentNotRefundable
	}
	if amountCents <= 0 || amountCents > payment.TotalAmountCents {
		return nil, ErrInvalidInput
	}

	processor, err := s.userRepo.FindByID(processorID)
	if err != nil {
		return nil, repository.ErrUserNotFound
	}
	if !processor.IsAdmin() && !processor.IsEquipmentOwner() {
		return nil, ErrForbidden
	}

	refund := &domain.Refund{
		PaymentID:   paymentID,
		AmountCents: amountCents,
		Reason:      reason,
		Status:      domain.RefundProcessing,
		ProcessedBy: &processorID,
	}
	if err := s.paymentRepo.CreateRefund(refund); err != nil {
		return nil, err
	}

	resp, err := s.mpesaClient.Reverse(ctx, payment.MpesaTransactionID, amountCents/100, payment.MpesaPhoneNumber, refund.ID.String())
	if err != nil {
		s.logTransaction(&payment.ID, "process_refund", "failed", err.Error(), nil)
		_ = s.paymentRepo.SettleRefund(refund.ID, domain.RefundFailed, "", err.Error(), "", nil)
		return nil, err
	}

	raw, _ := json.Marshal(resp)
	if resp.ResponseCode != "0" {
		s.logTransaction(&payment.ID, "process_refund", "failed", resp.ResponseDescription, raw)
		_ = s.paymentRepo.SettleRefund(refund.ID, domain.RefundFailed, resp.ResponseCode, resp.ResponseDescription, "", nil)
		return s.findRefund(paymentID, refund.ID)
	}

	s.logTransaction(&payment.ID, "process_refund", "success", resp.ResponseDescription, raw)
	// The reversal completes asynchronously; HandleRefundCallback settles it.
	return s.findRefund(paymentID, refund.ID)
}

// HandleRefundCallback settles a refund from the Daraja reversal result and
// marks the payment refunded on success.
func (s *PaymentService) HandleRefundCallback(ctx context.Context, refundID uuid.UUID, resultCode, resultDesc, transactionID string, raw json.RawMessage) error {
	status := domain.RefundCompleted
	var refundedAt *time.Time
	if resultCode == "0" {
		now := time.Now()
		refundedAt = &now
	} else {
		status = domain.RefundFailed
	}

	if err := s.paymentRepo.SettleRefund(refundID, status, resultCode, resultDesc, transactionID, refundedAt); err != nil {
		return err
	}

	if status != domain.RefundCompleted {
		return nil
	}

	refund, payment, err := s.refundWithPayment(refundID)
	if err != nil {
		return err
	}
	if err := s.paymentRepo.MarkRefunded(payment.ID); err != nil {
		return err
	}

	_ = s.notifications.Publish(ctx, Event{
		RecipientID: payment.UserID,
		Category:    domain.CategoryPayment,
		Subject:     "Refund processed",
		Message: fmt.Sprintf("Your refund of KES %.2f for payment %s has been processed.",
			float64(refund.AmountCents)/100, payment.PaymentNumber),
		Metadata: map[string]string{"payment_id": payment.ID.String()},
	})
	return nil
}

func (s *PaymentService) GetByID(ctx context.Context, userID, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		user, err := s.userRepo.FindByID(userID)
		if err != nil || !user.IsAdmin() {
			return nil, ErrForbidden
		}
	}
	return payment, nil
}

func (s *PaymentService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	return s.paymentRepo.ListForUser(userID, limit, offset)
}

func (s *PaymentService) ListForBooking(ctx context.Context, userID, bookingID uuid.UUID) ([]domain.Payment, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		user, err := s.userRepo.FindByID(userID)
		if err != nil || !user.IsAdmin() {
			return nil, ErrForbidden
		}
	}
	return s.paymentRepo.ListForBooking(bookingID)
}

func (s *PaymentService) findRefund(paymentID, refundID uuid.UUID) (*domain.Refund, error) {
	refunds, err := s.paymentRepo.ListRefunds(paymentID)
	if err != nil {
		return nil, err
	}
	for i := range refunds {
		if refunds[i].ID == refundID {
			return &refunds[i], nil
		}
	}
	return nil, repository.ErrRefundNotFound
}

func (s *PaymentService) refundWithPayment(refundID uuid.UUID) (*domain.Refund, *domain.Payment, error) {
	// Refund rows do not carry the payment back-reference in callbacks, so
	// walk via the refund row.
	var refund domain.Refund
	query := `
		SELECT id, created_at, updated_at, deleted_at, payment_id, amount_cents,
			reason, mpesa_transaction_id, mpesa_result_code, mpesa_result_desc,
			status, processed_by, refund_date
		FROM refunds WHERE id = $1 AND deleted_at IS NULL
	`
	if err := s.db.Get(&refund, query, refundID); err != nil {
		return nil, nil, repository.ErrRefundNotFound
	}
	payment, err := s.paymentRepo.FindByID(refund.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	return &refund, payment, nil
}

func (s *PaymentService) logTransaction(paymentID *uuid.UUID, action, status, message string, data json.RawMessage) {
	if err := s.paymentRepo.LogTransaction(paymentID, action, status, message, data); err != nil {
		log.Printf("log transaction %s: %v", action, err)
	}
}

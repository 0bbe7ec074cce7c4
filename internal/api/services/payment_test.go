package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrohire/internal/domain"
	"agrohire/internal/mpesa"
	"agrohire/internal/repository"
)

// fakeMpesa stands in for the Daraja client. Responses are configured per
// test; calls are recorded for assertions.
type fakeMpesa struct {
	pushResp    *mpesa.STKPushResponse
	pushErr     error
	queryResp   *mpesa.STKQueryResponse
	queryErr    error
	reverseResp *mpesa.ReversalResponse
	reverseErr  error

	pushCalls    []mpesa.STKPushRequest
	reverseCalls []string
}

func (f *fakeMpesa) STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	f.pushCalls = append(f.pushCalls, req)
	return f.pushResp, f.pushErr
}

func (f *fakeMpesa) STKQuery(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error) {
	return f.queryResp, f.queryErr
}

func (f *fakeMpesa) Reverse(ctx context.Context, transactionID string, amount int64, phoneNumber, reference string) (*mpesa.ReversalResponse, error) {
	f.reverseCalls = append(f.reverseCalls, transactionID)
	return f.reverseResp, f.reverseErr
}

func acceptedPush() *mpesa.STKPushResponse {
	n := time.Now().UnixNano()
	return &mpesa.STKPushResponse{
		MerchantRequestID:   fmt.Sprintf("merchant-%d", n),
		CheckoutRequestID:   fmt.Sprintf("checkout-%d", n),
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
	}
}

func newTestPaymentService(t *testing.T, client MpesaClient) *PaymentService {
	t.Helper()
	return NewPaymentService(
		testDB,
		repository.NewPaymentRepository(testDB),
		repository.NewBookingRepository(testDB),
		repository.NewUserRepository(testDB),
		client,
		newTestNotificationService(testDB, nil),
	)
}

// pendingBooking creates a booking ready to be paid for.
func pendingBooking(t *testing.T) (*domain.User, *domain.User, *domain.Booking) {
	t.Helper()

	owner := createTestUser(t, testDB, domain.RoleEquipmentOwner)
	farmer := createTestUser(t, testDB, domain.RoleFarmer)
	_, eq := createTestEquipment(t, testDB, owner.ID)

	bookings := newTestBookingService(t)
	start, end := bookingWindow(15, 1)
	booking, err := bookings.Create(context.Background(), farmer.ID, CreateBookingInput{
		EquipmentID: eq.ID, StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	return owner, farmer, booking
}

func TestPaymentService_Initiate(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	t.Run("accepted push leaves payment processing", func(t *testing.T) {
		client := &fakeMpesa{pushResp: acceptedPush()}
		service := newTestPaymentService(t, client)
		_, farmer, booking := pendingBooking(t)

		payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentProcessing, payment.Status)
		assert.Regexp(t, `^PAY-\d{8}-\d{4}$`, payment.PaymentNumber)
		assert.Equal(t, booking.TotalWithFeesCents(), payment.TotalAmountCents)
		assert.Equal(t, "254712345678", payment.MpesaPhoneNumber)
		assert.NotEmpty(t, payment.MpesaCheckoutRequestID)

		require.Len(t, client.pushCalls, 1)
		assert.Equal(t, booking.TotalWithFeesCents()/100, client.pushCalls[0].Amount)
	})

	t.Run("rejected push fails the payment", func(t *testing.T) {
		client := &fakeMpesa{pushResp: &mpesa.STKPushResponse{
			ResponseCode:        "1",
			ResponseDescription: "Invalid Access Token",
		}}
		service := newTestPaymentService(t, client)
		_, farmer, booking := pendingBooking(t)

		_, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
		assert.ErrorIs(t, err, ErrStkPushRejected)

		payments, err := service.ListForBooking(context.Background(), farmer.ID, booking.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, domain.PaymentFailed, payments[0].Status)
	})

	t.Run("only the booking owner pays", func(t *testing.T) {
		client := &fakeMpesa{pushResp: acceptedPush()}
		service := newTestPaymentService(t, client)
		owner, _, booking := pendingBooking(t)

		_, err := service.Initiate(context.Background(), owner.ID, booking.ID, "0712345678")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("bad phone number", func(t *testing.T) {
		client := &fakeMpesa{pushResp: acceptedPush()}
		service := newTestPaymentService(t, client)
		_, farmer, booking := pendingBooking(t)

		_, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "12345")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPaymentService_HandleCallback(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	initiate := func(t *testing.T) (*PaymentService, *domain.Payment, *domain.Booking) {
		t.Helper()
		client := &fakeMpesa{pushResp: acceptedPush()}
		service := newTestPaymentService(t, client)
		_, farmer, booking := pendingBooking(t)
		payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
		require.NoError(t, err)
		return service, payment, booking
	}

	t.Run("success settles payment and confirms booking", func(t *testing.T) {
		service, payment, booking := initiate(t)

		err := service.HandleCallback(context.Background(), CallbackInput{
			MerchantRequestID: payment.MpesaMerchantRequestID,
			CheckoutRequestID: payment.MpesaCheckoutRequestID,
			ResultCode:        "0",
			ResultDesc:        "The service request is processed successfully.",
			TransactionID:     "SGR7TKQ2XM",
		})
		require.NoError(t, err)

		settled, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, settled.Status)
		assert.Equal(t, "SGR7TKQ2XM", settled.MpesaTransactionID)
		assert.NotNil(t, settled.PaymentDate)

		confirmed, err := repository.NewBookingRepository(testDB).FindByID(booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
	})

	t.Run("failure settles without touching the booking", func(t *testing.T) {
		service, payment, booking := initiate(t)

		err := service.HandleCallback(context.Background(), CallbackInput{
			MerchantRequestID: payment.MpesaMerchantRequestID,
			CheckoutRequestID: payment.MpesaCheckoutRequestID,
			ResultCode:        "1032",
			ResultDesc:        "Request cancelled by user",
		})
		require.NoError(t, err)

		settled, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, settled.Status)

		untouched, err := repository.NewBookingRepository(testDB).FindByID(booking.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingPending, untouched.Status)
	})

	t.Run("replayed callback is ignored", func(t *testing.T) {
		service, payment, _ := initiate(t)

		input := CallbackInput{
			MerchantRequestID: payment.MpesaMerchantRequestID,
			CheckoutRequestID: payment.MpesaCheckoutRequestID,
			ResultCode:        "0",
			ResultDesc:        "ok",
			TransactionID:     "SGR7TKQ2XN",
		}
		require.NoError(t, service.HandleCallback(context.Background(), input))

		// A repeat with a contradicting verdict must not flip the status.
		input.ResultCode = "1032"
		require.NoError(t, service.HandleCallback(context.Background(), input))

		settled, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCompleted, settled.Status)
	})

	t.Run("unknown request ids", func(t *testing.T) {
		service, _, _ := initiate(t)
		err := service.HandleCallback(context.Background(), CallbackInput{
			MerchantRequestID: "nope",
			CheckoutRequestID: "nope",
			ResultCode:        "0",
		})
		assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	})
}

func TestPaymentService_Verify(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	client := &fakeMpesa{pushResp: acceptedPush()}
	service := newTestPaymentService(t, client)
	_, farmer, booking := pendingBooking(t)

	payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
	require.NoError(t, err)

	client.queryResp = &mpesa.STKQueryResponse{
		ResponseCode:       "0",
		ResultCode:         "0",
		ResultDesc:         "The service request is processed successfully.",
		MpesaReceiptNumber: "SGR7TKQ2XP",
	}

	_, err = service.Verify(context.Background(), payment.ID)
	require.NoError(t, err)

	settled, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, settled.Status)
	assert.Equal(t, "SGR7TKQ2XP", settled.MpesaTransactionID)
}

func TestPaymentService_Refund(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	settle := func(t *testing.T, service *PaymentService) (*domain.User, *domain.Payment) {
		t.Helper()
		owner, farmer, booking := pendingBooking(t)
		payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
		require.NoError(t, err)
		require.NoError(t, service.HandleCallback(context.Background(), CallbackInput{
			MerchantRequestID: payment.MpesaMerchantRequestID,
			CheckoutRequestID: payment.MpesaCheckoutRequestID,
			ResultCode:        "0",
			ResultDesc:        "ok",
			TransactionID:     "SGR7TKQ2XQ",
		}))
		return owner, payment
	}

	t.Run("full refund lifecycle", func(t *testing.T) {
		client := &fakeMpesa{
			pushResp:    acceptedPush(),
			reverseResp: &mpesa.ReversalResponse{ResponseCode: "0", ResponseDescription: "Accept the service request successfully."},
		}
		service := newTestPaymentService(t, client)
		owner, payment := settle(t, service)

		refund, err := service.Refund(context.Background(), owner.ID, payment.ID, payment.TotalAmountCents, "equipment breakdown")
		require.NoError(t, err)
		assert.Equal(t, domain.RefundProcessing, refund.Status)
		require.Len(t, client.reverseCalls, 1)
		assert.Equal(t, "SGR7TKQ2XQ", client.reverseCalls[0])

		// Daraja confirms asynchronously.
		err = service.HandleRefundCallback(context.Background(), refund.ID, "0", "ok", "REV12345", nil)
		require.NoError(t, err)

		refunded, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRefunded, refunded.Status)

		refunds, err := repository.NewPaymentRepository(testDB).ListRefunds(payment.ID)
		require.NoError(t, err)
		require.Len(t, refunds, 1)
		assert.Equal(t, domain.RefundCompleted, refunds[0].Status)
	})

	t.Run("unsettled payment is not refundable", func(t *testing.T) {
		client := &fakeMpesa{pushResp: acceptedPush()}
		service := newTestPaymentService(t, client)
		_, farmer, booking := pendingBooking(t)

		payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
		require.NoError(t, err)

		admin := createTestUser(t, testDB, domain.RoleAdmin)
		_, err = service.Refund(context.Background(), admin.ID, payment.ID, payment.TotalAmountCents, "changed mind")
		assert.ErrorIs(t, err, ErrPaymentNotRefundable)
	})

	t.Run("farmer cannot refund", func(t *testing.T) {
		client := &fakeMpesa{
			pushResp:    acceptedPush(),
			reverseResp: &mpesa.ReversalResponse{ResponseCode: "0"},
		}
		service := newTestPaymentService(t, client)
		_, payment := settle(t, service)

		farmer := createTestUser(t, testDB, domain.RoleFarmer)
		_, err := service.Refund(context.Background(), farmer.ID, payment.ID, 1000, "because")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("provider rejection fails the refund", func(t *testing.T) {
		client := &fakeMpesa{
			pushResp:   acceptedPush(),
			reverseErr: errors.New("daraja: connection reset"),
		}
		service := newTestPaymentService(t, client)
		owner, payment := settle(t, service)

		_, err := service.Refund(context.Background(), owner.ID, payment.ID, payment.TotalAmountCents, "breakdown")
		require.Error(t, err)

		refunds, err := repository.NewPaymentRepository(testDB).ListRefunds(payment.ID)
		require.NoError(t, err)
		require.Len(t, refunds, 1)
		assert.Equal(t, domain.RefundFailed, refunds[0].Status)
	})
}

func TestPaymentService_RequeryStuck(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	client := &fakeMpesa{pushResp: acceptedPush()}
	service := newTestPaymentService(t, client)
	_, farmer, booking := pendingBooking(t)

	payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
	require.NoError(t, err)

	// Backdate so the payment counts as stuck.
	_, err = testDB.Exec(
		`UPDATE payments SET updated_at = CURRENT_TIMESTAMP - INTERVAL '1 hour' WHERE id = $1`,
		payment.ID)
	require.NoError(t, err)

	client.queryResp = &mpesa.STKQueryResponse{
		ResponseCode:       "0",
		ResultCode:         "1032",
		ResultDesc:         "Request cancelled by user",
		MpesaReceiptNumber: "",
	}

	requeried, err := service.RequeryStuck(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, requeried, 1)

	settled, err := repository.NewPaymentRepository(testDB).FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, settled.Status)
}

func TestPaymentService_GetByID_Access(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}

	client := &fakeMpesa{pushResp: acceptedPush()}
	service := newTestPaymentService(t, client)
	_, farmer, booking := pendingBooking(t)

	payment, err := service.Initiate(context.Background(), farmer.ID, booking.ID, "0712345678")
	require.NoError(t, err)

	_, err = service.GetByID(context.Background(), farmer.ID, payment.ID)
	assert.NoError(t, err)

	stranger := createTestUser(t, testDB, domain.RoleFarmer)
	_, err = service.GetByID(context.Background(), stranger.ID, payment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := createTestUser(t, testDB, domain.RoleAdmin)
	_, err = service.GetByID(context.Background(), admin.ID, payment.ID)
	assert.NoError(t, err)

	_, err = service.GetByID(context.Background(), farmer.ID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/repository"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(db *sqlx.DB, mpesaClient services.MpesaClient, notifications *services.NotificationService) *PaymentHandler {
	paymentRepo := repository.NewPaymentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &PaymentHandler{
		paymentService: services.NewPaymentService(db, paymentRepo, bookingRepo, userRepo, mpesaClient, notifications),
	}
}

type InitiatePaymentRequest struct {
	BookingID   string `json:"bookingId" validate:"required,uuid"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type RefundRequest struct {
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	Reason      string `json:"reason"`
}

// stkCallbackBody mirrors the Daraja STK push callback envelope.
type stkCallbackBody struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// reversalResultBody mirrors the Daraja reversal result envelope.
type reversalResultBody struct {
	Result struct {
		ResultCode    int    `json:"ResultCode"`
		ResultDesc    string `json:"ResultDesc"`
		TransactionID string `json:"TransactionID"`
	} `json:"Result"`
}

// InitiatePayment godoc
// @Summary Pay for a booking
// @Description Start an M-Pesa STK push for a booking
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body InitiatePaymentRequest true "Payment request"
// @Success 200 {object} dto.Payment
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/payments [post]
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	payment, err := h.paymentService.Initiate(c.Request().Context(), userID, bookingID, req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid phone number")
		case errors.Is(err, services.ErrStkPushRejected):
			return ErrBadRequest(c, "payment request was rejected")
		case errors.Is(err, repository.ErrBookingNotFound):
			return ErrNotFound(c, "booking not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.PaymentFromDomain(payment))
}

// GetPayment godoc
// @Summary Get payment by ID
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.Payment
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid payment ID")
	}

	payment, err := h.paymentService.GetByID(c.Request().Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrPaymentNotFound):
			return ErrNotFound(c, "payment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.PaymentFromDomain(payment))
}

// GetMyPayments godoc
// @Summary List my payments
// @Tags payments
// @Produce json
// @Security Bearer
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Payment
// @Router /api/payments [get]
func (h *PaymentHandler) GetMyPayments(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	payments, err := h.paymentService.ListForUser(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.PaymentsFromDomain(payments))
}

// GetBookingPayments godoc
// @Summary List payments for a booking
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Success 200 {array} dto.Payment
// @Failure 403 {object} map[string]string
// @Router /api/payments/booking/{id} [get]
func (h *PaymentHandler) GetBookingPayments(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	payments, err := h.paymentService.ListForBooking(c.Request().Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrBookingNotFound):
			return ErrNotFound(c, "booking not found")
		default:
			return ErrInternalServerError(c)
		}
	}
	return c.JSON(http.StatusOK, dto.PaymentsFromDomain(payments))
}

// VerifyPayment godoc
// @Summary Verify a payment
// @Description Re-query the provider for a payment still in processing
// @Tags payments
// @Produce json
// @Security Bearer
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.Payment
// @Failure 404 {object} map[string]string
// @Router /api/payments/{id}/verify [post]
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid payment ID")
	}

	// Ownership check before touching the provider.
	if _, err := h.paymentService.GetByID(c.Request().Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrPaymentNotFound):
			return ErrNotFound(c, "payment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	payment, err := h.paymentService.Verify(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotPending) {
			return ErrBadRequest(c, "payment has no pending provider request")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.PaymentFromDomain(payment))
}

// RefundPayment godoc
// @Summary Refund a payment
// @Description Reverse a completed M-Pesa payment (owner or admin)
// @Tags payments
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Payment ID"
// @Param request body RefundRequest true "Refund request"
// @Success 200 {object} dto.Refund
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/payments/{id}/refund [post]
func (h *PaymentHandler) RefundPayment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid payment ID")
	}

	var req RefundRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	refund, err := h.paymentService.Refund(c.Request().Context(), userID, id, req.AmountCents, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, services.ErrPaymentNotRefundable):
			return ErrBadRequest(c, "payment is not refundable")
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid refund amount")
		case errors.Is(err, repository.ErrPaymentNotFound):
			return ErrNotFound(c, "payment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.RefundFromDomain(refund))
}

// MpesaCallback receives the Daraja STK push result. Always returns 200 so
// Daraja does not retry on our internal errors.
func (h *PaymentHandler) MpesaCallback(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return mpesaAck(c)
	}

	var body stkCallbackBody
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Printf("mpesa callback: bad payload: %v", err)
		return mpesaAck(c)
	}

	cb := body.Body.StkCallback
	transactionID := ""
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				transactionID = s
			}
		}
	}

	err = h.paymentService.HandleCallback(c.Request().Context(), services.CallbackInput{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        strconv.Itoa(cb.ResultCode),
		ResultDesc:        cb.ResultDesc,
		TransactionID:     transactionID,
		Raw:               raw,
	})
	if err != nil {
		log.Printf("mpesa callback: %v", err)
	}

	return mpesaAck(c)
}

// MpesaRefundCallback receives the Daraja reversal result for a refund.
func (h *PaymentHandler) MpesaRefundCallback(c echo.Context) error {
	refundID, err := uuid.Parse(c.Param("refund_id"))
	if err != nil {
		return mpesaAck(c)
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return mpesaAck(c)
	}

	var body reversalResultBody
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Printf("mpesa refund callback: bad payload: %v", err)
		return mpesaAck(c)
	}

	err = h.paymentService.HandleRefundCallback(
		c.Request().Context(),
		refundID,
		strconv.Itoa(body.Result.ResultCode),
		body.Result.ResultDesc,
		body.Result.TransactionID,
		raw,
	)
	if err != nil {
		log.Printf("mpesa refund callback: %v", err)
	}

	return mpesaAck(c)
}

// MpesaTimeout receives queue-timeout notices from Daraja. The stuck payment
// requery picks these up later, so acknowledging is all there is to do.
func (h *PaymentHandler) MpesaTimeout(c echo.Context) error {
	raw, _ := io.ReadAll(c.Request().Body)
	log.Printf("mpesa timeout notice: %s", string(raw))
	return mpesaAck(c)
}

func mpesaAck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}

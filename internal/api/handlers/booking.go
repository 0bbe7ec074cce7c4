package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/api/ws"
	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(db *sqlx.DB, notifications *services.NotificationService) *BookingHandler {
	bookingRepo := repository.NewBookingRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	pricingService := services.NewPricingService(pricingRepo, equipmentRepo, bookingRepo, userRepo)

	return &BookingHandler{
		bookingService: services.NewBookingService(
			db, bookingRepo, equipmentRepo, userRepo, pricingService, notifications, ws.GetHub()),
	}
}

type CreateBookingRequest struct {
	EquipmentID      string    `json:"equipmentId" validate:"required,uuid"`
	StartDate        time.Time `json:"startDate" validate:"required"`
	EndDate          time.Time `json:"endDate" validate:"required"`
	PickupLocation   string    `json:"pickupLocation"`
	DeliveryLocation string    `json:"deliveryLocation"`
	RequiresDelivery bool      `json:"requiresDelivery"`
	OperatorRequired bool      `json:"operatorRequired"`
	CustomerNotes    string    `json:"customerNotes"`
}

type BookingNotesRequest struct {
	Notes string `json:"notes"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// CreateBooking godoc
// @Summary Create a booking
// @Description Request equipment for a rental window
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateBookingRequest true "Booking request"
// @Success 200 {object} dto.Booking
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	equipmentID, err := uuid.Parse(req.EquipmentID)
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	booking, err := h.bookingService.Create(c.Request().Context(), userID, services.CreateBookingInput{
		EquipmentID:      equipmentID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		RequiresDelivery: req.RequiresDelivery,
		OperatorRequired: req.OperatorRequired,
		CustomerNotes:    req.CustomerNotes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookingConflict):
			return ErrConflict(c, "equipment already booked for this period")
		case errors.Is(err, services.ErrEquipmentNotAvailable):
			return ErrConflict(c, "equipment not available")
		case errors.Is(err, services.ErrWindowInPast),
			errors.Is(err, services.ErrWindowTooShort),
			errors.Is(err, services.ErrWindowTooLong):
			return ErrBadRequest(c, "invalid rental window")
		case errors.Is(err, repository.ErrEquipmentNotFound):
			return ErrNotFound(c, "equipment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

// GetBooking godoc
// @Summary Get booking by ID
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	booking, err := h.bookingService.GetByID(c.Request().Context(), userID, id)
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

	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

// GetMyBookings godoc
// @Summary List my bookings
// @Description List bookings made by the authenticated user
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param status query string false "Status filter"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Booking
// @Router /api/bookings [get]
func (h *BookingHandler) GetMyBookings(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	status := domain.BookingStatus(c.QueryParam("status"))

	bookings, err := h.bookingService.ListForUser(c.Request().Context(), userID, status, limit, offset)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.BookingsFromDomain(bookings))
}

// GetOwnerBookings godoc
// @Summary List bookings of my equipment
// @Description List bookings against equipment the authenticated user owns
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param status query string false "Status filter"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Booking
// @Router /api/bookings/owner [get]
func (h *BookingHandler) GetOwnerBookings(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	status := domain.BookingStatus(c.QueryParam("status"))

	bookings, err := h.bookingService.ListForOwner(c.Request().Context(), userID, status, limit, offset)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.BookingsFromDomain(bookings))
}

// CheckAvailability godoc
// @Summary Check equipment availability
// @Tags bookings
// @Produce json
// @Param equipment_id query string true "Equipment ID"
// @Param start query string true "Start of window (RFC 3339)"
// @Param end query string true "End of window (RFC 3339)"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Router /api/bookings/availability [get]
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	equipmentID, err := uuid.Parse(c.QueryParam("equipment_id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment_id")
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return ErrBadRequest(c, "invalid start")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return ErrBadRequest(c, "invalid end")
	}

	available, err := h.bookingService.CheckAvailability(c.Request().Context(), equipmentID, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, AvailabilityResponse{Available: available})
}

// ApproveBooking godoc
// @Summary Approve a booking
// @Description Confirm a pending booking (equipment owner)
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Param request body BookingNotesRequest false "Owner notes"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/approve [post]
func (h *BookingHandler) ApproveBooking(c echo.Context) error {
	return h.transition(c, h.bookingService.Approve)
}

// RejectBooking godoc
// @Summary Reject a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Param request body BookingNotesRequest false "Rejection reason"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/reject [post]
func (h *BookingHandler) RejectBooking(c echo.Context) error {
	return h.transition(c, h.bookingService.Reject)
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancel a pending or confirmed booking (renter)
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	booking, err := h.bookingService.Cancel(c.Request().Context(), userID, id)
	if err != nil {
		return bookingTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

// StartBooking godoc
// @Summary Start a rental
// @Description Mark a confirmed booking as in progress (equipment owner)
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/start [post]
func (h *BookingHandler) StartBooking(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	booking, err := h.bookingService.Start(c.Request().Context(), userID, id)
	if err != nil {
		return bookingTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

// CompleteBooking godoc
// @Summary Complete a rental
// @Description Mark an in-progress booking as completed (equipment owner)
// @Tags bookings
// @Produce json
// @Security Bearer
// @Param id path string true "Booking ID"
// @Success 200 {object} dto.Booking
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/complete [post]
func (h *BookingHandler) CompleteBooking(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	booking, err := h.bookingService.Complete(c.Request().Context(), userID, id)
	if err != nil {
		return bookingTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

func (h *BookingHandler) transition(
	c echo.Context,
	fn func(ctx context.Context, ownerID, bookingID uuid.UUID, notes string) (*domain.Booking, error),
) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid booking ID")
	}

	var req BookingNotesRequest
	_ = c.Bind(&req)

	booking, err := fn(c.Request().Context(), userID, id, req.Notes)
	if err != nil {
		return bookingTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.BookingFromDomain(booking))
}

func bookingTransitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return ErrForbidden(c)
	case errors.Is(err, repository.ErrBookingNotFound):
		return ErrNotFound(c, "booking not found")
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrConflict(c, "booking cannot change to that status")
	default:
		return ErrInternalServerError(c)
	}
}

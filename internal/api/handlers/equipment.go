package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

type EquipmentHandler struct {
	equipmentService *services.EquipmentService
}

func NewEquipmentHandler(db *sqlx.DB, rdb *redis.Client) *EquipmentHandler {
	equipmentRepo := repository.NewEquipmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &EquipmentHandler{
		equipmentService: services.NewEquipmentService(equipmentRepo, bookingRepo, userRepo, rdb),
	}
}

type CreateEquipmentTypeRequest struct {
	Name                string `json:"name" validate:"required,min=3,max=100"`
	Description         string `json:"description"`
	Category            string `json:"category" validate:"required,oneof=tractor harvester planter irrigation sprayer tillage transport other"`
	BaseDailyRateCents  int64  `json:"baseDailyRateCents" validate:"required,gt=0"`
	BaseHourlyRateCents int64  `json:"baseHourlyRateCents" validate:"required,gt=0"`
}

type CreateEquipmentRequest struct {
	Name             string `json:"name" validate:"required,min=3,max=200"`
	EquipmentTypeID  string `json:"equipmentTypeId" validate:"required,uuid"`
	Description      string `json:"description"`
	ModelName        string `json:"modelName"`
	YearManufactured int    `json:"yearManufactured"`
	Condition        string `json:"condition" validate:"required,oneof=excellent good fair poor"`
	City             string `json:"city" validate:"required"`
	Country          string `json:"country"`
	DailyRateCents   int64  `json:"dailyRateCents" validate:"required,gt=0"`
	HourlyRateCents  int64  `json:"hourlyRateCents" validate:"required,gt=0"`
	WeeklyRateCents  int64  `json:"weeklyRateCents"`
	MonthlyRateCents int64  `json:"monthlyRateCents"`
	MinBookingHours  int    `json:"minBookingHours"`
	MaxBookingDays   int    `json:"maxBookingDays"`
}

type UpdateEquipmentRequest struct {
	Name             string `json:"name" validate:"required,min=3,max=200"`
	Description      string `json:"description"`
	ModelName        string `json:"modelName"`
	YearManufactured int    `json:"yearManufactured"`
	Condition        string `json:"condition" validate:"required,oneof=excellent good fair poor"`
	City             string `json:"city" validate:"required"`
	Country          string `json:"country"`
	DailyRateCents   int64  `json:"dailyRateCents" validate:"required,gt=0"`
	HourlyRateCents  int64  `json:"hourlyRateCents" validate:"required,gt=0"`
	WeeklyRateCents  int64  `json:"weeklyRateCents"`
	MonthlyRateCents int64  `json:"monthlyRateCents"`
	MinBookingHours  int    `json:"minBookingHours"`
	MaxBookingDays   int    `json:"maxBookingDays"`
}

type SetEquipmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available booked maintenance out_of_service"`
}

type AddReviewRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// GetEquipmentTypes godoc
// @Summary List equipment types
// @Tags equipment
// @Produce json
// @Success 200 {array} dto.EquipmentType
// @Router /api/equipment/types [get]
func (h *EquipmentHandler) GetEquipmentTypes(c echo.Context) error {
	types, err := h.equipmentService.ListTypes(c.Request().Context())
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.EquipmentTypesFromDomain(types))
}

// CreateEquipmentType godoc
// @Summary Create an equipment type
// @Description Create a new equipment type (admin only)
// @Tags equipment
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateEquipmentTypeRequest true "Equipment type"
// @Success 200 {object} dto.EquipmentType
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/equipment/types [post]
func (h *EquipmentHandler) CreateEquipmentType(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreateEquipmentTypeRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	equipmentType := &domain.EquipmentType{
		Name:                req.Name,
		Description:         req.Description,
		Category:            domain.EquipmentCategory(req.Category),
		BaseDailyRateCents:  req.BaseDailyRateCents,
		BaseHourlyRateCents: req.BaseHourlyRateCents,
	}
	if err := h.equipmentService.CreateType(c.Request().Context(), userID, equipmentType); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			return ErrForbidden(c)
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.EquipmentTypeFromDomain(equipmentType))
}

// GetEquipmentList godoc
// @Summary List equipment
// @Description List equipment with optional filters
// @Tags equipment
// @Produce json
// @Param category query string false "Category"
// @Param type_id query string false "Equipment type ID"
// @Param city query string false "City"
// @Param max_daily_cents query int false "Max daily rate in cents"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Equipment
// @Router /api/equipment [get]
func (h *EquipmentHandler) GetEquipmentList(c echo.Context) error {
	filter := repository.EquipmentFilter{
		Category: domain.EquipmentCategory(c.QueryParam("category")),
		City:     c.QueryParam("city"),
		Status:   domain.EquipmentStatus(c.QueryParam("status")),
	}
	if raw := c.QueryParam("type_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ErrBadRequest(c, "invalid type_id")
		}
		filter.EquipmentTypeID = &id
	}
	if raw := c.QueryParam("max_daily_cents"); raw != "" {
		maxCents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || maxCents < 0 {
			return ErrBadRequest(c, "invalid max_daily_cents")
		}
		filter.MaxDailyCents = maxCents
	}
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	filter.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	items, err := h.equipmentService.List(c.Request().Context(), filter)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.EquipmentListFromDomain(items))
}

// GetEquipment godoc
// @Summary Get equipment by ID
// @Tags equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} dto.Equipment
// @Failure 404 {object} map[string]string
// @Router /api/equipment/{id} [get]
func (h *EquipmentHandler) GetEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	eq, err := h.equipmentService.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.EquipmentFromDomain(eq))
}

// CreateEquipment godoc
// @Summary List new equipment
// @Description Register equipment for rental (owner or admin)
// @Tags equipment
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateEquipmentRequest true "Equipment"
// @Success 200 {object} dto.Equipment
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/equipment [post]
func (h *EquipmentHandler) CreateEquipment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreateEquipmentRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	typeID, err := uuid.Parse(req.EquipmentTypeID)
	if err != nil {
		return ErrBadRequest(c, "invalid equipment type ID")
	}

	eq, err := h.equipmentService.Create(c.Request().Context(), userID, services.CreateEquipmentInput{
		Name:             req.Name,
		EquipmentTypeID:  typeID,
		Description:      req.Description,
		ModelName:        req.ModelName,
		YearManufactured: req.YearManufactured,
		Condition:        req.Condition,
		City:             req.City,
		Country:          req.Country,
		DailyRateCents:   req.DailyRateCents,
		HourlyRateCents:  req.HourlyRateCents,
		WeeklyRateCents:  req.WeeklyRateCents,
		MonthlyRateCents: req.MonthlyRateCents,
		MinBookingHours:  req.MinBookingHours,
		MaxBookingDays:   req.MaxBookingDays,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, services.ErrRateNotPositive), errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid input")
		case errors.Is(err, repository.ErrEquipmentTypeNotFound):
			return ErrNotFound(c, "equipment type not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.EquipmentFromDomain(eq))
}

// UpdateEquipment godoc
// @Summary Update equipment
// @Tags equipment
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Equipment ID"
// @Param request body UpdateEquipmentRequest true "Equipment"
// @Success 200 {object} dto.Equipment
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/equipment/{id} [put]
func (h *EquipmentHandler) UpdateEquipment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	var req UpdateEquipmentRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	eq, err := h.equipmentService.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	eq.Name = req.Name
	eq.Description = req.Description
	eq.ModelName = req.ModelName
	eq.YearManufactured = req.YearManufactured
	eq.Condition = domain.EquipmentCondition(req.Condition)
	eq.City = req.City
	if req.Country != "" {
		eq.Country = req.Country
	}
	eq.DailyRateCents = req.DailyRateCents
	eq.HourlyRateCents = req.HourlyRateCents
	eq.WeeklyRateCents = req.WeeklyRateCents
	eq.MonthlyRateCents = req.MonthlyRateCents
	if req.MinBookingHours > 0 {
		eq.MinBookingHours = req.MinBookingHours
	}
	if req.MaxBookingDays > 0 {
		eq.MaxBookingDays = req.MaxBookingDays
	}

	if err := h.equipmentService.Update(c.Request().Context(), userID, eq); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrEquipmentNotFound):
			return ErrNotFound(c, "equipment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.EquipmentFromDomain(eq))
}

// SetEquipmentStatus godoc
// @Summary Set equipment status
// @Tags equipment
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Equipment ID"
// @Param request body SetEquipmentStatusRequest true "Status"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/equipment/{id}/status [put]
func (h *EquipmentHandler) SetEquipmentStatus(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	var req SetEquipmentStatusRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	err = h.equipmentService.SetStatus(c.Request().Context(), userID, id, domain.EquipmentStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrEquipmentNotFound):
			return ErrNotFound(c, "equipment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "status updated")
}

// DeleteEquipment godoc
// @Summary Delete equipment
// @Tags equipment
// @Produce json
// @Security Bearer
// @Param id path string true "Equipment ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/equipment/{id} [delete]
func (h *EquipmentHandler) DeleteEquipment(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	if err := h.equipmentService.Delete(c.Request().Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrEquipmentNotFound):
			return ErrNotFound(c, "equipment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "equipment deleted")
}

// AddReview godoc
// @Summary Review equipment
// @Description Add a review against a completed booking
// @Tags equipment
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Equipment ID"
// @Param request body AddReviewRequest true "Review"
// @Success 200 {object} dto.Review
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/equipment/{id}/reviews [post]
func (h *EquipmentHandler) AddReview(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	var req AddReviewRequest
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

	review, err := h.equipmentService.AddReview(c.Request().Context(), userID, id, services.ReviewInput{
		BookingID: bookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotReviewable):
			return ErrBadRequest(c, "booking does not qualify for review")
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid rating")
		case errors.Is(err, repository.ErrReviewExists):
			return ErrConflict(c, "review already exists")
		case errors.Is(err, repository.ErrEquipmentNotFound):
			return ErrNotFound(c, "equipment not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.ReviewFromDomain(review))
}

// GetReviews godoc
// @Summary List equipment reviews
// @Tags equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} dto.ReviewList
// @Failure 404 {object} map[string]string
// @Router /api/equipment/{id}/reviews [get]
func (h *EquipmentHandler) GetReviews(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	reviews, average, count, err := h.equipmentService.ListReviews(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.ReviewList{
		Reviews:       dto.ReviewsFromDomain(reviews),
		AverageRating: average,
		Count:         count,
	})
}

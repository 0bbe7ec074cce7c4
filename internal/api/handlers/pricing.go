package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

type PricingHandler struct {
	pricingService *services.PricingService
}

func NewPricingHandler(db *sqlx.DB) *PricingHandler {
	pricingRepo := repository.NewPricingRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &PricingHandler{
		pricingService: services.NewPricingService(pricingRepo, equipmentRepo, bookingRepo, userRepo),
	}
}

type CreatePricingRuleRequest struct {
	Name              string     `json:"name" validate:"required,min=3,max=100"`
	RuleType          string     `json:"ruleType" validate:"required,oneof=seasonal demand duration location equipment_type custom"`
	Description       string     `json:"description"`
	EquipmentTypeID   *string    `json:"equipmentTypeId"`
	EquipmentID       *string    `json:"equipmentId"`
	StartDate         *time.Time `json:"startDate"`
	EndDate           *time.Time `json:"endDate"`
	DaysOfWeek        []int      `json:"daysOfWeek"`
	HourlyMultiplier  float64    `json:"hourlyMultiplier"`
	DailyMultiplier   float64    `json:"dailyMultiplier"`
	WeeklyMultiplier  float64    `json:"weeklyMultiplier"`
	MonthlyMultiplier float64    `json:"monthlyMultiplier"`
	Priority          int        `json:"priority"`
}

type CreateSeasonalPricingRequest struct {
	Name             string    `json:"name" validate:"required,min=3,max=100"`
	Season           string    `json:"season" validate:"required,oneof=planting growing harvesting off_season peak low"`
	EquipmentTypeID  string    `json:"equipmentTypeId" validate:"required,uuid"`
	StartDate        time.Time `json:"startDate" validate:"required"`
	EndDate          time.Time `json:"endDate" validate:"required"`
	HourlyMultiplier float64   `json:"hourlyMultiplier" validate:"required,gt=0"`
	DailyMultiplier  float64   `json:"dailyMultiplier" validate:"required,gt=0"`
}

type CreateDemandPricingRequest struct {
	EquipmentTypeID  string  `json:"equipmentTypeId" validate:"required,uuid"`
	LowThreshold     int     `json:"lowThreshold" validate:"min=0"`
	HighThreshold    int     `json:"highThreshold" validate:"required,gt=0"`
	LowMultiplier    float64 `json:"lowMultiplier" validate:"required,gt=0"`
	NormalMultiplier float64 `json:"normalMultiplier" validate:"required,gt=0"`
	HighMultiplier   float64 `json:"highMultiplier" validate:"required,gt=0"`
	WindowDays       int     `json:"windowDays"`
}

// GetQuote godoc
// @Summary Quote a rental window
// @Description Price a rental window with demand, seasonal and rule adjustments
// @Tags pricing
// @Produce json
// @Param equipment_id query string true "Equipment ID"
// @Param start query string true "Start of window (RFC 3339)"
// @Param end query string true "End of window (RFC 3339)"
// @Success 200 {object} services.Quote
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/pricing/quote [get]
func (h *PricingHandler) GetQuote(c echo.Context) error {
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
	if !end.After(start) {
		return ErrBadRequest(c, "end must be after start")
	}

	quote, err := h.pricingService.QuoteFor(c.Request().Context(), equipmentID, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, quote)
}

// CreatePricingRule godoc
// @Summary Create a pricing rule
// @Description Create a price adjustment rule (admin only)
// @Tags pricing
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreatePricingRuleRequest true "Pricing rule"
// @Success 200 {object} dto.PricingRule
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/pricing/rules [post]
func (h *PricingHandler) CreatePricingRule(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreatePricingRuleRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	rule := &domain.PricingRule{
		Name:              req.Name,
		RuleType:          domain.PricingRuleType(req.RuleType),
		Description:       req.Description,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		HourlyMultiplier:  req.HourlyMultiplier,
		DailyMultiplier:   req.DailyMultiplier,
		WeeklyMultiplier:  req.WeeklyMultiplier,
		MonthlyMultiplier: req.MonthlyMultiplier,
		Priority:          req.Priority,
		Active:            true,
	}
	if req.EquipmentTypeID != nil {
		id, err := uuid.Parse(*req.EquipmentTypeID)
		if err != nil {
			return ErrBadRequest(c, "invalid equipment type ID")
		}
		rule.EquipmentTypeID = &id
	}
	if req.EquipmentID != nil {
		id, err := uuid.Parse(*req.EquipmentID)
		if err != nil {
			return ErrBadRequest(c, "invalid equipment ID")
		}
		rule.EquipmentID = &id
	}
	if len(req.DaysOfWeek) > 0 {
		days := make(pq.Int64Array, len(req.DaysOfWeek))
		for i, d := range req.DaysOfWeek {
			if d < 0 || d > 6 {
				return ErrBadRequest(c, "days of week must be 0-6")
			}
			days[i] = int64(d)
		}
		rule.DaysOfWeek = days
	}

	if err := h.pricingService.CreateRule(c.Request().Context(), userID, rule); err != nil {
		if errors.Is(err, services.ErrForbidden) {
			return ErrForbidden(c)
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.PricingRuleFromDomain(rule))
}

// DeletePricingRule godoc
// @Summary Delete a pricing rule
// @Tags pricing
// @Produce json
// @Security Bearer
// @Param id path string true "Rule ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/pricing/rules/{id} [delete]
func (h *PricingHandler) DeletePricingRule(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid rule ID")
	}

	if err := h.pricingService.DeleteRule(c.Request().Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrPricingRuleNotFound):
			return ErrNotFound(c, "pricing rule not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "pricing rule deleted")
}

// CreateSeasonalPricing godoc
// @Summary Create seasonal pricing
// @Description Create a seasonal pricing window for an equipment type (admin only)
// @Tags pricing
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateSeasonalPricingRequest true "Seasonal pricing"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/pricing/seasonal [post]
func (h *PricingHandler) CreateSeasonalPricing(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreateSeasonalPricingRequest
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

	err = h.pricingService.CreateSeasonal(c.Request().Context(), userID, &domain.SeasonalPricing{
		Name:             req.Name,
		Season:           domain.Season(req.Season),
		EquipmentTypeID:  typeID,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		HourlyMultiplier: req.HourlyMultiplier,
		DailyMultiplier:  req.DailyMultiplier,
		Active:           true,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "end must be after start")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "seasonal pricing created")
}

// CreateDemandPricing godoc
// @Summary Create demand pricing
// @Description Configure demand-based pricing for an equipment type (admin only)
// @Tags pricing
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateDemandPricingRequest true "Demand pricing"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/pricing/demand [post]
func (h *PricingHandler) CreateDemandPricing(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req CreateDemandPricingRequest
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

	err = h.pricingService.CreateDemand(c.Request().Context(), userID, &domain.DemandPricing{
		EquipmentTypeID:  typeID,
		LowThreshold:     req.LowThreshold,
		HighThreshold:    req.HighThreshold,
		LowMultiplier:    req.LowMultiplier,
		NormalMultiplier: req.NormalMultiplier,
		HighMultiplier:   req.HighMultiplier,
		WindowDays:       req.WindowDays,
		Active:           true,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "high threshold must exceed low threshold")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "demand pricing created")
}

// GetActiveRules godoc
// @Summary Active pricing rules for equipment
// @Tags pricing
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {array} dto.PricingRule
// @Failure 404 {object} map[string]string
// @Router /api/pricing/rules/{id} [get]
func (h *PricingHandler) GetActiveRules(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	rules, err := h.pricingService.ActiveRules(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	out := make([]*dto.PricingRule, 0, len(rules))
	for i := range rules {
		out = append(out, dto.PricingRuleFromDomain(&rules[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetPricingHistory godoc
// @Summary Pricing history for equipment
// @Tags pricing
// @Produce json
// @Param id path string true "Equipment ID"
// @Param limit query int false "Limit"
// @Success 200 {array} dto.PricingHistoryEntry
// @Failure 404 {object} map[string]string
// @Router /api/pricing/history/{id} [get]
func (h *PricingHandler) GetPricingHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid equipment ID")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	history, err := h.pricingService.History(c.Request().Context(), id, limit)
	if err != nil {
		if errors.Is(err, repository.ErrEquipmentNotFound) {
			return ErrNotFound(c, "equipment not found")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.PricingHistoryFromDomain(history))
}

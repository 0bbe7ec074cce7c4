package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/repository"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notifications}
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

// GetNotifications godoc
// @Summary List my notifications
// @Tags notifications
// @Produce json
// @Security Bearer
// @Param unread query bool false "Only unread"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} dto.Notification
// @Router /api/notifications [get]
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	unreadOnly := c.QueryParam("unread") == "true"
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	notifications, err := h.notificationService.List(c.Request().Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.NotificationsFromDomain(notifications))
}

// GetUnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} UnreadCountResponse
// @Router /api/notifications/unread [get]
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	count, err := h.notificationService.CountUnread(c.Request().Context(), userID)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid notification ID")
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return ErrNotFound(c, "notification not found")
		}
		return ErrInternalServerError(c)
	}
	return SuccessResponse(c, "notification marked read")
}

// MarkAllRead godoc
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]string
// @Router /api/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	if _, err := h.notificationService.MarkAllRead(c.Request().Context(), userID); err != nil {
		return ErrInternalServerError(c)
	}
	return SuccessResponse(c, "notifications marked read")
}

// GetPreferences godoc
// @Summary Get notification preferences
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.NotificationPreferences
// @Router /api/notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	prefs, err := h.notificationService.Preferences(c.Request().Context(), userID)
	if err != nil {
		return ErrInternalServerError(c)
	}
	return c.JSON(http.StatusOK, dto.PreferencesFromDomain(prefs))
}

// UpdatePreferences godoc
// @Summary Update notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.NotificationPreferences true "Preferences"
// @Success 200 {object} dto.NotificationPreferences
// @Failure 400 {object} map[string]string
// @Router /api/notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req dto.NotificationPreferences
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	prefs := req.ToDomain()
	prefs.UserID = userID
	if err := h.notificationService.SavePreferences(c.Request().Context(), prefs); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return ErrBadRequest(c, "quiet hours must be HH:MM")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.PreferencesFromDomain(prefs))
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"agrohire/internal/api/dto"
	"agrohire/internal/api/middleware"
	"agrohire/internal/api/services"
	"agrohire/internal/repository"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *sqlx.DB, rdb *redis.Client) *UserHandler {
	userRepo := repository.NewUserRepository(db)
	return &UserHandler{
		userService: services.NewUserService(userRepo, rdb),
	}
}

type UpdateProfileRequest struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	BusinessName string `json:"businessName"`
	City         string `json:"city"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// GetCurrentUser godoc
// @Summary Get current user
// @Description Get authenticated user information
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.User
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/me [get]
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	user, err := h.userService.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound(c, "user not found")
		}
		return ErrInternalServerError(c)
	}

	return c.JSON(http.StatusOK, dto.UserFromDomain(user))
}

// UpdateCurrentUser godoc
// @Summary Update current user
// @Description Update authenticated user profile fields
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body UpdateProfileRequest true "Profile update request"
// @Success 200 {object} dto.User
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/user/me [put]
func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), userID, services.UpdateProfileInput{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		BusinessName: req.BusinessName,
		City:         req.City,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid phone number")
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrNotFound(c, "user not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return c.JSON(http.StatusOK, dto.UserFromDomain(user))
}

// ChangePassword godoc
// @Summary Change password
// @Description Change the authenticated user's password
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ChangePasswordRequest true "Change password request"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/user/me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return ErrBadRequest(c, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return ErrBadRequest(c, err.Error())
	}

	err = h.userService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return ErrUnauthorizedWithMessage(c, "current password is incorrect")
		case errors.Is(err, services.ErrInvalidInput):
			return ErrBadRequest(c, "invalid password")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "password updated")
}

// VerifyUser godoc
// @Summary Verify a user
// @Description Mark a user account as verified (admin only)
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/users/{id}/verify [post]
func (h *UserHandler) VerifyUser(c echo.Context) error {
	adminID, err := middleware.GetUserIDFromContext(c.Request().Context())
	if err != nil {
		return ErrUnauthorized(c)
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ErrBadRequest(c, "invalid user ID")
	}

	if err := h.userService.VerifyUser(c.Request().Context(), adminID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return ErrForbidden(c)
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrNotFound(c, "user not found")
		default:
			return ErrInternalServerError(c)
		}
	}

	return SuccessResponse(c, "user verified")
}

package middleware

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ExtractUserIDFromJWT copies the authenticated user's ID from the echo
// JWT token into the request context so services can read it without
// touching echo. Requests without a usable token pass through untouched
// and fail later at the authorization check.
func ExtractUserIDFromJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := userIDFromToken(c); ok {
				c.SetRequest(c.Request().WithContext(
					ContextWithUserID(c.Request().Context(), id)))
			}
			return next(c)
		}
	}
}

func userIDFromToken(c echo.Context) (uuid.UUID, bool) {
	token, ok := c.Get("user").(*jwtv5.Token)
	if !ok || token == nil {
		return uuid.Nil, false
	}
	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

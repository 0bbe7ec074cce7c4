package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwtv5.MapClaims) *jwtv5.Token {
	t.Helper()
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	token.Raw = raw
	token.Valid = true
	return token
}

func TestExtractUserIDFromJWT(t *testing.T) {
	mw := ExtractUserIDFromJWT()

	run := func(t *testing.T, tokenValue interface{}) (uuid.UUID, error) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if tokenValue != nil {
			c.Set("user", tokenValue)
		}

		var id uuid.UUID
		var idErr error
		handler := mw(func(c echo.Context) error {
			id, idErr = GetUserIDFromContext(c.Request().Context())
			return nil
		})
		require.NoError(t, handler(c))
		return id, idErr
	}

	t.Run("valid token sets user ID", func(t *testing.T) {
		userID := uuid.New()
		token := signedToken(t, jwtv5.MapClaims{
			"id":  userID.String(),
			"exp": time.Now().Add(72 * time.Hour).Unix(),
		})

		id, err := run(t, token)
		require.NoError(t, err)
		assert.Equal(t, userID, id)
	})

	t.Run("missing or malformed tokens pass through", func(t *testing.T) {
		cases := map[string]interface{}{
			"no token":      nil,
			"wrong type":    "not-a-token",
			"nil token":     (*jwtv5.Token)(nil),
			"no id claim":   signedToken(t, jwtv5.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
			"non-string id": signedToken(t, jwtv5.MapClaims{"id": 12345}),
			"bad uuid":      signedToken(t, jwtv5.MapClaims{"id": "not-a-uuid"}),
		}
		for name, tokenValue := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := run(t, tokenValue)
				assert.Error(t, err)
			})
		}
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	userID := uuid.New()

	t.Run("uuid value", func(t *testing.T) {
		ctx := ContextWithUserID(context.Background(), userID)
		got, err := GetUserIDFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("string value", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), userIDKey, userID.String())
		got, err := GetUserIDFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, ctx := range []context.Context{
			context.Background(),
			context.WithValue(context.Background(), userIDKey, "not-a-uuid"),
			context.WithValue(context.Background(), userIDKey, 12345),
		} {
			_, err := GetUserIDFromContext(ctx)
			assert.Error(t, err)
		}
	})
}

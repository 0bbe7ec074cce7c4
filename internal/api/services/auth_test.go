package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrohire/internal/domain"
	"agrohire/internal/repository"
)

const testJWTKey = "test-jwt-secret-key"

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(
		repository.NewUserRepository(testDB),
		repository.NewNotificationRepository(testDB),
		testJWTKey,
	)
}

func TestAuthService_SignUp(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newAuthService(t)

	t.Run("successful signup", func(t *testing.T) {
		ts := time.Now().UnixNano()
		input := SignUpInput{
			Username:    fmt.Sprintf("farmer%d", ts%100000000),
			Email:       fmt.Sprintf("farmer%d@test.com", ts),
			Password:    "password123",
			Role:        "farmer",
			PhoneNumber: "0712345678",
			City:        "Kiambu",
		}

		user, token, err := service.SignUp(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.NotEmpty(t, token)
		assert.Equal(t, input.Username, user.Username)
		assert.Equal(t, domain.RoleFarmer, user.Role)
		assert.Equal(t, "254712345678", user.PhoneNumber)
		assert.False(t, user.Verified)

		parsed, err := jwtv5.Parse(token, func(t *jwtv5.Token) (interface{}, error) {
			return []byte(testJWTKey), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(jwtv5.MapClaims)
		require.True(t, ok)
		assert.Equal(t, user.ID.String(), claims["id"])

		// Signup creates the default preference row.
		prefs, err := repository.NewNotificationRepository(testDB).PreferencesFor(user.ID)
		require.NoError(t, err)
		assert.True(t, prefs.EmailEnabled)
		assert.False(t, prefs.EmailMarketing)
	})

	t.Run("role defaults to farmer", func(t *testing.T) {
		ts := time.Now().UnixNano()
		input := SignUpInput{
			Username: fmt.Sprintf("norole%d", ts%100000000),
			Email:    fmt.Sprintf("norole%d@test.com", ts),
			Password: "password123",
		}

		user, _, err := service.SignUp(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleFarmer, user.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		ts := time.Now().UnixNano()
		input := SignUpInput{
			Username: fmt.Sprintf("dup%d", ts%100000000),
			Email:    fmt.Sprintf("dup%d@test.com", ts),
			Password: "password123",
			Role:     "equipment_owner",
		}

		_, _, err := service.SignUp(context.Background(), input)
		require.NoError(t, err)

		input.Email = fmt.Sprintf("other%d@test.com", ts)
		_, _, err = service.SignUp(context.Background(), input)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("invalid input", func(t *testing.T) {
		cases := map[string]SignUpInput{
			"short password": {Username: "someuser", Email: "a@b.com", Password: "short", Role: "farmer"},
			"bad email":      {Username: "someuser", Email: "nope", Password: "password123", Role: "farmer"},
			"admin role":     {Username: "someuser", Email: "a@b.com", Password: "password123", Role: "admin"},
			"bad phone":      {Username: "someuser", Email: "a@b.com", Password: "password123", Role: "farmer", PhoneNumber: "12345"},
		}
		for name, input := range cases {
			t.Run(name, func(t *testing.T) {
				_, _, err := service.SignUp(context.Background(), input)
				assert.ErrorIs(t, err, ErrInvalidInput)
			})
		}
	})
}

func TestAuthService_SignIn(t *testing.T) {
	if testDB == nil {
		t.Skip("Test database not initialized")
	}
	service := newAuthService(t)

	ts := time.Now().UnixNano()
	signup := SignUpInput{
		Username: fmt.Sprintf("signin%d", ts%100000000),
		Email:    fmt.Sprintf("signin%d@test.com", ts),
		Password: "password123",
		Role:     "farmer",
	}
	_, _, err := service.SignUp(context.Background(), signup)
	require.NoError(t, err)

	t.Run("successful signin", func(t *testing.T) {
		user, token, err := service.SignIn(context.Background(), SignInInput{
			Username: signup.Username,
			Password: signup.Password,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, signup.Username, user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.SignIn(context.Background(), SignInInput{
			Username: signup.Username,
			Password: "wrongpassword",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := service.SignIn(context.Background(), SignInInput{
			Username: "nosuchuser",
			Password: "password123",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

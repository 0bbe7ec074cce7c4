package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrohire/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		BaseURL: "https://agrohire.example.com",
		Mpesa: config.MpesaConfig{
			ConsumerKey:    "key",
			ConsumerSecret: "secret",
			ShortCode:      "174379",
			Passkey:        "passkey",
			Environment:    "sandbox",
		},
	}
}

func tokenHandler(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "test-token",
			"expires_in":   "3600",
		})
	}
}

func TestClient_AccessTokenCached(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/v1/generate", r.URL.Path)
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))
		tokenHandler(&tokenCalls)(w, r)
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithBaseURL(server.URL))
	ctx := context.Background()

	token, err := client.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)

	_, err = client.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestClient_AccessTokenRefreshesNearExpiry(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(tokenHandler(&tokenCalls))
	defer server.Close()

	now := time.Now()
	client := NewClient(testConfig(),
		WithBaseURL(server.URL),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := client.AccessToken(ctx)
	require.NoError(t, err)

	// The hour-long token is refreshed five minutes early.
	now = now.Add(56 * time.Minute)
	_, err = client.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}

func TestClient_GeneratePassword(t *testing.T) {
	client := NewClient(testConfig())

	password := client.GeneratePassword("20260826120000")
	decoded, err := base64.StdEncoding.DecodeString(password)
	require.NoError(t, err)
	assert.Equal(t, "174379passkey20260826120000", string(decoded))
}

func TestClient_STKPush(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/v1/generate":
			tokenHandler(&tokenCalls)(w, r)
		case "/mpesa/stkpush/v1/processrequest":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "174379", payload["BusinessShortCode"])
			assert.Equal(t, "CustomerPayBillOnline", payload["TransactionType"])
			assert.Equal(t, "254712345678", payload["PhoneNumber"])
			assert.Equal(t, float64(5000), payload["Amount"])
			assert.Equal(t, "PAY-20260826-0042", payload["AccountReference"])
			assert.Equal(t, "https://agrohire.example.com/api/payments/mpesa/callback", payload["CallBackURL"])

			json.NewEncoder(w).Encode(map[string]string{
				"MerchantRequestID":   "merchant-1",
				"CheckoutRequestID":   "checkout-1",
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
				"CustomerMessage":     "Success",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithBaseURL(server.URL))

	resp, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:   "254712345678",
		Amount:        5000,
		PaymentNumber: "PAY-20260826-0042",
		BookingNumber: "AGH-20260826-0007",
	})
	require.NoError(t, err)
	assert.True(t, resp.Accepted())
	assert.Equal(t, "merchant-1", resp.MerchantRequestID)
	assert.Equal(t, "checkout-1", resp.CheckoutRequestID)
}

func TestClient_STKPushRejected(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			tokenHandler(&tokenCalls)(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":        "1",
			"ResponseDescription": "Insufficient funds",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithBaseURL(server.URL))

	resp, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:   "254712345678",
		Amount:        5000,
		PaymentNumber: "PAY-20260826-0001",
		BookingNumber: "AGH-20260826-0001",
	})
	require.NoError(t, err)
	assert.False(t, resp.Accepted())
	assert.Equal(t, "Insufficient funds", resp.ResponseDescription)
}

func TestClient_STKQuery(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			tokenHandler(&tokenCalls)(w, r)
			return
		}
		require.Equal(t, "/mpesa/stkpushquery/v1/query", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "checkout-9", payload["CheckoutRequestID"])

		json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode": "0",
			"ResultCode":   "0",
			"ResultDesc":   "The service request is processed successfully.",
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithBaseURL(server.URL))

	resp, err := client.STKQuery(context.Background(), "checkout-9")
	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResultCode)
}

func TestClient_ServerError(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/v1/generate" {
			tokenHandler(&tokenCalls)(w, r)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(), WithBaseURL(server.URL))

	_, err := client.STKQuery(context.Background(), "checkout-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

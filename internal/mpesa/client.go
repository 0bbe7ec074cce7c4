// Package mpesa implements the Safaricom Daraja API calls the platform needs:
// OAuth tokens, STK push, STK status queries and transaction reversals.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"agrohire/internal/config"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"

	// Tokens are refreshed this long before the advertised expiry.
	tokenSafetyMargin = 5 * time.Minute
)

var ErrRequestFailed = errors.New("mpesa request failed")

type Client struct {
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	baseURL        string
	callbackBase   string

	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type Option func(*Client)

// WithBaseURL overrides the Daraja host, used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(cfg *config.Config, opts ...Option) *Client {
	baseURL := sandboxBaseURL
	if cfg.Mpesa.Environment == "production" {
		baseURL = productionBaseURL
	}

	c := &Client{
		consumerKey:    cfg.Mpesa.ConsumerKey,
		consumerSecret: cfg.Mpesa.ConsumerSecret,
		shortCode:      cfg.Mpesa.ShortCode,
		passkey:        cfg.Mpesa.Passkey,
		baseURL:        baseURL,
		callbackBase:   cfg.BaseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// AccessToken returns a cached OAuth token, fetching a fresh one when the
// cached token is within the safety margin of expiring.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: token endpoint returned %d: %s", ErrRequestFailed, resp.StatusCode, body)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	expiresIn := 3600 * time.Second
	if d, err := time.ParseDuration(token.ExpiresIn + "s"); err == nil && d > 0 {
		expiresIn = d
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(expiresIn - tokenSafetyMargin)
	return c.accessToken, nil
}

// GeneratePassword builds the Lipa na M-Pesa password for a timestamp in
// YYYYMMDDHHMMSS form.
func (c *Client) GeneratePassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.shortCode + c.passkey + timestamp))
}

func (c *Client) timestamp() string {
	return c.now().Format("20060102150405")
}

type STKPushRequest struct {
	PhoneNumber   string
	Amount        int64
	PaymentNumber string
	BookingNumber string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

func (r *STKPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// STKPush asks Daraja to pop a payment prompt on the customer's phone. Amount
// is in whole shillings; Daraja does not take cents.
func (c *Client) STKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	timestamp := c.timestamp()
	payload := map[string]interface{}{
		"BusinessShortCode": c.shortCode,
		"Password":          c.GeneratePassword(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount,
		"PartyA":            req.PhoneNumber,
		"PartyB":            c.shortCode,
		"PhoneNumber":       req.PhoneNumber,
		"CallBackURL":       c.callbackBase + "/api/payments/mpesa/callback",
		"AccountReference":  req.PaymentNumber,
		"TransactionDesc":   "AgroHire Booking " + req.BookingNumber,
	}

	var resp STKPushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MpesaReceiptNumber  string `json:"MpesaReceiptNumber"`
}

// STKQuery fetches the outcome of an earlier STK push.
func (c *Client) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	timestamp := c.timestamp()
	payload := map[string]interface{}{
		"BusinessShortCode": c.shortCode,
		"Password":          c.GeneratePassword(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var resp STKQueryResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type ReversalResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	TransactionID       string `json:"TransactionID"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// Reverse requests a transaction reversal for a refund. Amount is in whole
// shillings; reference is threaded through the result URL so the callback can
// find the refund it settles.
func (c *Client) Reverse(ctx context.Context, transactionID string, amount int64, phoneNumber, reference string) (*ReversalResponse, error) {
	payload := map[string]interface{}{
		"Initiator":              "AgroHire",
		"SecurityCredential":     c.securityCredential(),
		"CommandID":              "TransactionReversal",
		"TransactionID":          transactionID,
		"Amount":                 amount,
		"ReceiverParty":          phoneNumber,
		"RecieverIdentifierType": "11",
		"ResultURL":              c.callbackBase + "/api/payments/mpesa/refund-callback/" + reference,
		"QueueTimeOutURL":        c.callbackBase + "/api/payments/mpesa/timeout",
		"Remarks":                "AgroHire refund",
		"Occasion":               "Refund",
	}

	var resp ReversalResponse
	if err := c.post(ctx, "/mpesa/reversal/v1/request", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// securityCredential should encrypt the initiator password with the Daraja
// public certificate. The sandbox accepts an opaque value.
// TODO: RSA-encrypt the initiator password against the production cert before
// go-live.
func (c *Client) securityCredential() string {
	return base64.StdEncoding.EncodeToString([]byte(c.consumerKey))
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s returned %d: %s", ErrRequestFailed, path, resp.StatusCode, raw)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mystrio/mystrio-api/internal/pkg/env"
)

const defaultKopoKopoBaseURL = "https://sandbox.kopokopo.com/api/v1"

// tokenExpiryMargin keeps us from sending a token that would expire while a
// push request is in flight.
const tokenExpiryMargin = 60 * time.Second

type accessToken struct {
	value     string
	expiresAt time.Time
}

func (t accessToken) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// KopoKopoClient issues STK push requests against the Kopo Kopo gateway.
// It owns a process-wide bearer token cache; the read-check-refresh-write
// sequence is serialized with a mutex so concurrent initiations trigger at
// most one token exchange.
type KopoKopoClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	APIKey       string
	TillNumber   string

	HTTPClient *http.Client

	mu    sync.Mutex
	token accessToken
	now   func() time.Time
}

// NewKopoKopoClientFromEnv builds a client from KOPOKOPO_* configuration.
func NewKopoKopoClientFromEnv() *KopoKopoClient {
	return NewKopoKopoClient(
		strings.TrimRight(env.GetEnv("KOPOKOPO_BASE_URL", defaultKopoKopoBaseURL), "/"),
		strings.TrimSpace(env.GetEnv("KOPOKOPO_CLIENT_ID", "")),
		strings.TrimSpace(env.GetEnv("KOPOKOPO_CLIENT_SECRET", "")),
		strings.TrimSpace(env.GetEnv("KOPOKOPO_API_KEY", "")),
		strings.TrimSpace(env.GetEnv("KOPOKOPO_TILL_NUMBER", "")),
	)
}

func NewKopoKopoClient(baseURL, clientID, clientSecret, apiKey, tillNumber string) *KopoKopoClient {
	return &KopoKopoClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		APIKey:       apiKey,
		TillNumber:   tillNumber,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// getAccessToken returns the cached bearer token, refreshing it via a
// client-credentials exchange when absent or expired.
func (c *KopoKopoClient) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.valid(c.now()) {
		return c.token.value, nil
	}

	payload, err := json.Marshal(map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrGatewayAuth, resp.StatusCode, string(body))
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrGatewayAuth)
	}

	c.token = accessToken{
		value:     out.AccessToken,
		expiresAt: c.now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenExpiryMargin),
	}
	return c.token.value, nil
}

type stkPushRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Metadata struct {
		ClientReference string `json:"client_reference"`
		PaymentType     string `json:"payment_type"`
	} `json:"metadata"`
	CallbackURL         string `json:"callback_url"`
	CustomerPhoneNumber string `json:"customer_phone_number"`
}

// InitiateSTKPush asks the gateway to prompt the customer's phone for a
// premium subscription payment. The returned body is an opaque gateway
// acknowledgement, not final settlement.
func (c *KopoKopoClient) InitiateSTKPush(ctx context.Context, phoneNumber string, amount float64, callbackURL, clientReference string) (json.RawMessage, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := stkPushRequest{
		Amount:              amount,
		Currency:            currencyKES,
		CallbackURL:         callbackURL,
		CustomerPhoneNumber: NormalizePhoneNumber(phoneNumber),
	}
	reqBody.Metadata.ClientReference = clientReference
	reqBody.Metadata.PaymentType = PaymentTypePremiumSubscription

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiation, err)
	}

	url := fmt.Sprintf("%s/till_numbers/%s/stk_push", c.BaseURL, c.TillNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitiation, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrInitiation, resp.StatusCode, string(body))
	}

	return json.RawMessage(body), nil
}

// NormalizePhoneNumber converts a local phone fragment to E.164. Numbers
// already carrying a leading + pass through; anything else becomes +254
// followed by its last 9 digits (0712345678 -> +254712345678).
func NormalizePhoneNumber(phone string) string {
	p := strings.TrimSpace(phone)
	if strings.HasPrefix(p, "+") {
		return p
	}
	if len(p) > 9 {
		p = p[len(p)-9:]
	}
	return "+254" + p
}

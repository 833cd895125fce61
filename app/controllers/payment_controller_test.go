package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystrio/mystrio-api/internal/pkg/middleware"
	"github.com/mystrio/mystrio-api/internal/pkg/payment"
)

type fakePusher struct {
	lastPhone     string
	lastAmount    float64
	lastCallback  string
	lastReference string
	response      json.RawMessage
	err           error
}

func (f *fakePusher) InitiateSTKPush(_ context.Context, phoneNumber string, amount float64, callbackURL, clientReference string) (json.RawMessage, error) {
	f.lastPhone = phoneNumber
	f.lastAmount = amount
	f.lastCallback = callbackURL
	f.lastReference = clientReference
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeProcessor struct {
	lastPayload []byte
	lastEventID string
	outcome     payment.Outcome
	err         error
}

func (f *fakeProcessor) ProcessNotification(_ context.Context, payload []byte, eventID string) (payment.Outcome, error) {
	f.lastPayload = payload
	f.lastEventID = eventID
	return f.outcome, f.err
}

// newPaymentTestApp wires the payment handlers behind a stub auth middleware
// that authenticates every request as the given user.
func newPaymentTestApp(userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals(middleware.LocalUserID, userID)
		}
		return c.Next()
	})
	app.Post("/api/payment/initiate-stk", HandleInitiateSTKPush)
	app.Post("/api/payment/webhook", HandlePaymentWebhook)
	return app
}

func TestHandleInitiateSTKPush(t *testing.T) {
	pusher := &fakePusher{response: json.RawMessage(`{"id":"stk-1","status":"pending"}`)}
	SetPaymentDeps(pusher, &fakeProcessor{outcome: payment.Outcome{Ignored: true}})
	t.Setenv("PUBLIC_DOMAIN", "https://api.example.com")

	app := newPaymentTestApp(42)
	req := httptest.NewRequest("POST", "/api/payment/initiate-stk",
		strings.NewReader(`{"phoneNumber":"0712345678","amount":100,"userId":42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, true, out["success"])
	assert.NotNil(t, out["kopoKopoResponse"])

	assert.Equal(t, "0712345678", pusher.lastPhone)
	assert.Equal(t, float64(100), pusher.lastAmount)
	assert.Equal(t, "https://api.example.com/api/payment/webhook", pusher.lastCallback)
	assert.Equal(t, "42", pusher.lastReference, "client reference is the paying user's id")
}

func TestHandleInitiateSTKPushValidation(t *testing.T) {
	SetPaymentDeps(&fakePusher{}, &fakeProcessor{})
	app := newPaymentTestApp(42)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing phone", body: `{"amount":100,"userId":42}`, want: fiber.StatusBadRequest},
		{name: "missing amount", body: `{"phoneNumber":"0712345678","userId":42}`, want: fiber.StatusBadRequest},
		{name: "missing user", body: `{"phoneNumber":"0712345678","amount":100}`, want: fiber.StatusBadRequest},
		{name: "someone else's account", body: `{"phoneNumber":"0712345678","amount":100,"userId":7}`, want: fiber.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/payment/initiate-stk", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestHandleInitiateSTKPushGatewayFailure(t *testing.T) {
	pusher := &fakePusher{err: payment.ErrInitiation}
	SetPaymentDeps(pusher, &fakeProcessor{})

	app := newPaymentTestApp(42)
	req := httptest.NewRequest("POST", "/api/payment/initiate-stk",
		strings.NewReader(`{"phoneNumber":"0712345678","amount":100,"userId":42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "status=", "gateway detail must not leak to clients")
}

func TestHandlePaymentWebhookOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome payment.Outcome
		err     error
		want    int
	}{
		{name: "ignored is acknowledged", outcome: payment.Outcome{Ignored: true, UserID: 42}, want: fiber.StatusOK},
		{name: "duplicate is acknowledged", outcome: payment.Outcome{Duplicate: true, UserID: 42}, want: fiber.StatusOK},
		{name: "invalid shape", err: payment.ErrInvalidWebhook, want: fiber.StatusBadRequest},
		{name: "persistence failure asks for redelivery", err: payment.ErrPersistence, want: fiber.StatusInternalServerError},
		{name: "other failure", err: errors.New("boom"), want: fiber.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			processor := &fakeProcessor{outcome: tc.outcome, err: tc.err}
			SetPaymentDeps(&fakePusher{}, processor)

			app := newPaymentTestApp(0)
			req := httptest.NewRequest("POST", "/api/payment/webhook",
				strings.NewReader(`{"status":"success","metadata":{"client_reference":"42","payment_type":"premium_subscription"}}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Event-Id", "evt-1")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.Equal(t, "evt-1", processor.lastEventID)
			assert.Contains(t, string(processor.lastPayload), "premium_subscription")
		})
	}
}

func TestHandlePaymentWebhookPassesRawBody(t *testing.T) {
	processor := &fakeProcessor{outcome: payment.Outcome{Ignored: true}}
	SetPaymentDeps(&fakePusher{}, processor)

	app := newPaymentTestApp(0)
	body := `{"status":"failed","metadata":{"client_reference":"42","payment_type":"premium_subscription"},"ts":"` +
		time.Now().Format(time.RFC3339) + `"}`
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, body, string(processor.lastPayload), "the processor sees the exact delivered body")
}

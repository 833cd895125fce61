package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/mystrio/mystrio-api/app/models"
	"github.com/mystrio/mystrio-api/app/repository"
	"github.com/mystrio/mystrio-api/internal/pkg/cache"
	"github.com/mystrio/mystrio-api/internal/pkg/database"
	"github.com/mystrio/mystrio-api/internal/pkg/env"
	"github.com/mystrio/mystrio-api/internal/pkg/middleware"
	"github.com/mystrio/mystrio-api/internal/pkg/payment"
)

// STKPusher is the slice of the gateway client the initiation handler needs.
type STKPusher interface {
	InitiateSTKPush(ctx context.Context, phoneNumber string, amount float64, callbackURL, clientReference string) (json.RawMessage, error)
}

// WebhookProcessor applies gateway callbacks to subscriptions.
type WebhookProcessor interface {
	ProcessNotification(ctx context.Context, payload []byte, eventID string) (payment.Outcome, error)
}

var (
	paymentOnce      sync.Once
	gatewayClient    STKPusher
	webhookProcessor WebhookProcessor
)

func paymentDeps() (STKPusher, WebhookProcessor) {
	paymentOnce.Do(func() {
		if gatewayClient == nil {
			gatewayClient = payment.NewKopoKopoClientFromEnv()
		}
		if webhookProcessor == nil {
			webhookProcessor = payment.NewProcessorFromDB(database.GetDB())
		}
	})
	return gatewayClient, webhookProcessor
}

// SetPaymentDeps overrides the gateway client and webhook processor. Used by
// tests.
func SetPaymentDeps(pusher STKPusher, processor WebhookProcessor) {
	paymentOnce.Do(func() {})
	gatewayClient = pusher
	webhookProcessor = processor
}

type initiateSTKRequest struct {
	PhoneNumber string  `json:"phoneNumber"`
	Amount      float64 `json:"amount"`
	UserID      uint    `json:"userId"`
}

// HandleInitiateSTKPush starts a premium subscription payment: the gateway
// prompts the given phone and later reports the outcome to the webhook.
func HandleInitiateSTKPush(c *fiber.Ctx) error {
	var req initiateSTKRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PhoneNumber == "" || req.Amount <= 0 || req.UserID == 0 {
		return badRequest(c, "phoneNumber, amount and userId are required")
	}
	if currentUserID(c) != req.UserID {
		return forbidden(c, "You can only purchase premium for your own account")
	}

	pusher, _ := paymentDeps()
	callbackURL := env.GetEnv("PUBLIC_DOMAIN", "") + "/api/payment/webhook"
	clientReference := strconv.FormatUint(uint64(req.UserID), 10)

	resp, err := pusher.InitiateSTKPush(c.Context(), req.PhoneNumber, req.Amount, callbackURL, clientReference)
	if err != nil {
		log.Printf("payment: STK push for user %d failed: %v", req.UserID, err)
		return internalError(c, "Failed to initiate payment")
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"message":          "STK push initiated. Check your phone to complete the payment.",
		"kopoKopoResponse": resp,
	})
}

// HandlePaymentWebhook receives gateway payment notifications. Duplicates and
// non-success notifications are acknowledged without effect; persistence
// failures return 5xx so the gateway redelivers.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	_, processor := paymentDeps()

	eventID := c.Get("X-Event-Id")
	outcome, err := processor.ProcessNotification(c.Context(), c.Body(), eventID)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidWebhook) {
			return badRequest(c, "Invalid payment notification")
		}
		return internalError(c, "Failed to process payment notification")
	}

	if outcome.Applied {
		// The premium gate caches entitlement checks; drop the stale entry.
		_ = cache.Delete(middleware.PremiumCacheKey(outcome.UserID))

		content := fmt.Sprintf("Premium subscription active until %s", outcome.PremiumUntil.Format("2006-01-02"))
		if err := repository.GetGlobalRepositories().Notification.Create(
			outcome.UserID, models.NotificationTypePayment, content, outcome.UserID); err != nil {
			log.Printf("payment: notification for user %d failed: %v", outcome.UserID, err)
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

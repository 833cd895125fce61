package payment

import (
	"errors"
	"time"
)

// Error taxonomy. Handlers translate these into HTTP responses; internals
// wrap them with upstream detail that is never shown to API clients.
var (
	// ErrGatewayAuth means the OAuth client-credentials exchange failed.
	ErrGatewayAuth = errors.New("gateway token exchange failed")
	// ErrInitiation means the STK push request failed in transport or was
	// rejected by the gateway.
	ErrInitiation = errors.New("stk push initiation failed")
	// ErrInvalidWebhook means a notification is malformed or not a premium
	// subscription payment. No store mutation happens.
	ErrInvalidWebhook = errors.New("invalid webhook notification")
	// ErrPersistence means the subscription store update failed; the caller
	// returns a 5xx so the gateway redelivers.
	ErrPersistence = errors.New("subscription store update failed")
	// ErrUserNotFound is returned by the subscription store when the client
	// reference does not resolve to a user.
	ErrUserNotFound = errors.New("user not found")
)

const (
	// PaymentTypePremiumSubscription tags premium payments in gateway metadata.
	PaymentTypePremiumSubscription = "premium_subscription"

	currencyKES = "KES"

	// subscriptionMonths is how far a single successful payment moves
	// premium_until from the processing time.
	subscriptionMonths = 1
)

// WebhookNotification is the gateway callback body. The gateway is the
// system of record for the transaction; only status and metadata matter here.
type WebhookNotification struct {
	Status   string `json:"status"`
	Metadata struct {
		ClientReference string `json:"client_reference"`
		PaymentType     string `json:"payment_type"`
	} `json:"metadata"`
}

const StatusSuccess = "success"

// Outcome describes what processing a notification did. Every outcome is
// acknowledged 200 to the gateway except validation and persistence failures.
type Outcome struct {
	// Applied is true when the user's premium expiry was overwritten.
	Applied bool
	// Duplicate is true when this delivery was already fully processed.
	Duplicate bool
	// Ignored is true for non-success statuses and unresolvable users.
	Ignored bool

	UserID       uint
	PremiumUntil time.Time
}

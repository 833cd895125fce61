package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mystrio/mystrio-api/app/models"
	"gorm.io/gorm"
)

// Processor applies gateway payment notifications to user subscriptions.
type Processor struct {
	store  SubscriptionStore
	events EventStore
	now    func() time.Time
}

// NewProcessor creates a webhook processor from injected stores.
func NewProcessor(store SubscriptionStore, events EventStore) *Processor {
	return &Processor{store: store, events: events, now: time.Now}
}

// NewProcessorFromDB creates a webhook processor from a GORM DB handle.
func NewProcessorFromDB(db *gorm.DB) *Processor {
	s := NewStore(db)
	return NewProcessor(s, s)
}

// ProcessNotification validates a gateway callback and, for a successful
// premium payment, flat-overwrites the user's premium expiry to
// now + 1 month. eventID is the gateway delivery id when the gateway sent
// one; an empty id falls back to a payload hash so replays of the same body
// are still detected.
//
// The expiry write is a flat reset, not an extension from the current
// expiry: two successful payments a day apart both land on "processing time
// plus one month".
func (p *Processor) ProcessNotification(ctx context.Context, payload []byte, eventID string) (Outcome, error) {
	_ = ctx

	var notification WebhookNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}

	clientRef := strings.TrimSpace(notification.Metadata.ClientReference)
	if clientRef == "" || notification.Metadata.PaymentType != PaymentTypePremiumSubscription {
		return Outcome{}, fmt.Errorf("%w: missing client_reference or wrong payment_type", ErrInvalidWebhook)
	}
	userID64, err := strconv.ParseUint(clientRef, 10, 32)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: client_reference %q is not a user id", ErrInvalidWebhook, clientRef)
	}
	userID := uint(userID64)

	if strings.TrimSpace(eventID) == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		EventID:         eventID,
		Status:          notification.Status,
		ClientReference: clientRef,
		PayloadJSON:     string(payload),
	}
	created, stored, err := p.events.CreateIfNotExists(event)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: recording webhook event: %v", ErrPersistence, err)
	}
	// A delivery that was already fully processed is acknowledged without a
	// second expiry write. A delivery that previously failed is retried.
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return Outcome{Duplicate: true, UserID: userID}, nil
	}

	if notification.Status != StatusSuccess {
		log.Printf("payment webhook: payment for user %d not successful, status=%q", userID, notification.Status)
		_ = p.events.MarkProcessed(stored.ID, nil)
		return Outcome{Ignored: true, UserID: userID}, nil
	}

	newExpiry := p.now().AddDate(0, subscriptionMonths, 0)
	if err := p.store.SetPremiumUntil(userID, newExpiry); err != nil {
		if err == ErrUserNotFound {
			log.Printf("payment webhook: no user for client_reference %q", clientRef)
			_ = p.events.MarkProcessed(stored.ID, nil)
			return Outcome{Ignored: true, UserID: userID}, nil
		}
		_ = p.events.MarkProcessed(stored.ID, err)
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := p.events.MarkProcessed(stored.ID, nil); err != nil {
		log.Printf("payment webhook: marking event %d processed: %v", stored.ID, err)
	}

	log.Printf("payment webhook: user %d premium_until set to %s", userID, newExpiry.Format(time.RFC3339))
	return Outcome{Applied: true, UserID: userID, PremiumUntil: newExpiry}, nil
}

package payment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystrio/mystrio-api/app/models"
)

type fakeSubscriptionStore struct {
	users    map[uint]*models.User
	setCalls []fakeSetCall
	failSet  error
}

type fakeSetCall struct {
	userID uint
	until  time.Time
}

func newFakeSubscriptionStore(userIDs ...uint) *fakeSubscriptionStore {
	s := &fakeSubscriptionStore{users: map[uint]*models.User{}}
	for _, id := range userIDs {
		s.users[id] = &models.User{ID: id}
	}
	return s
}

func (s *fakeSubscriptionStore) GetUser(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *fakeSubscriptionStore) SetPremiumUntil(userID uint, until time.Time) error {
	if s.failSet != nil {
		return s.failSet
	}
	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	t := until
	u.PremiumUntil = &t
	s.setCalls = append(s.setCalls, fakeSetCall{userID: userID, until: until})
	return nil
}

type fakeEventStore struct {
	byEventID map[string]*models.PaymentWebhookEvent
	byID      map[uint]*models.PaymentWebhookEvent
	nextID    uint
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		byEventID: map[string]*models.PaymentWebhookEvent{},
		byID:      map[uint]*models.PaymentWebhookEvent{},
	}
}

func (s *fakeEventStore) CreateIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	if stored, ok := s.byEventID[event.EventID]; ok {
		return false, stored, nil
	}
	s.nextID++
	stored := *event
	stored.ID = s.nextID
	s.byEventID[event.EventID] = &stored
	s.byID[stored.ID] = &stored
	return true, &stored, nil
}

func (s *fakeEventStore) MarkProcessed(id uint, processingErr error) error {
	stored, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("no event %d", id)
	}
	now := time.Now()
	stored.ProcessedAt = &now
	if processingErr != nil {
		stored.ProcessingError = processingErr.Error()
	} else {
		stored.ProcessingError = ""
	}
	return nil
}

func successPayload(clientRef string) []byte {
	return []byte(`{"status":"success","metadata":{"client_reference":"` + clientRef + `","payment_type":"premium_subscription"}}`)
}

func TestProcessNotificationSuccess(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	before := time.Now().AddDate(0, 1, 0)
	outcome, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	after := time.Now().AddDate(0, 1, 0)

	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, uint(42), outcome.UserID)

	require.Len(t, store.setCalls, 1)
	until := store.setCalls[0].until
	assert.False(t, until.Before(before), "expiry must be about one month out")
	assert.False(t, until.After(after.Add(time.Second)))
}

func TestProcessNotificationFailedStatusNoMutation(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	payload := []byte(`{"status":"failed","metadata":{"client_reference":"42","payment_type":"premium_subscription"}}`)
	outcome, err := p.ProcessNotification(context.Background(), payload, "evt-1")

	require.NoError(t, err)
	assert.True(t, outcome.Ignored)
	assert.Empty(t, store.setCalls)
	assert.Nil(t, store.users[42].PremiumUntil)
}

func TestProcessNotificationWrongPaymentType(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	payload := []byte(`{"status":"success","metadata":{"client_reference":"42","payment_type":"other"}}`)
	_, err := p.ProcessNotification(context.Background(), payload, "evt-1")

	assert.ErrorIs(t, err, ErrInvalidWebhook)
	assert.Empty(t, store.setCalls)
	assert.Empty(t, events.byEventID, "invalid notifications must not be recorded")
}

func TestProcessNotificationMissingClientReference(t *testing.T) {
	p := NewProcessor(newFakeSubscriptionStore(), newFakeEventStore())

	payload := []byte(`{"status":"success","metadata":{"payment_type":"premium_subscription"}}`)
	_, err := p.ProcessNotification(context.Background(), payload, "evt-1")
	assert.ErrorIs(t, err, ErrInvalidWebhook)

	payload = []byte(`{"metadata":{}}`)
	_, err = p.ProcessNotification(context.Background(), payload, "evt-2")
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestProcessNotificationMalformedBody(t *testing.T) {
	p := NewProcessor(newFakeSubscriptionStore(), newFakeEventStore())
	_, err := p.ProcessNotification(context.Background(), []byte("{not json"), "evt-1")
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestProcessNotificationNonNumericClientReference(t *testing.T) {
	p := NewProcessor(newFakeSubscriptionStore(), newFakeEventStore())
	payload := []byte(`{"status":"success","metadata":{"client_reference":"abc","payment_type":"premium_subscription"}}`)
	_, err := p.ProcessNotification(context.Background(), payload, "evt-1")
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestProcessNotificationDuplicateDelivery(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	_, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	require.NoError(t, err)

	outcome, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	require.NoError(t, err)
	assert.True(t, outcome.Duplicate)
	assert.Len(t, store.setCalls, 1, "a replayed delivery must not extend again")
}

func TestProcessNotificationFlatOverwrite(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	// Pin the clock to two processing times a day apart. The second result
	// must not depend on the first: both are flat resets to now + 1 month.
	first := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return first }
	_, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	require.NoError(t, err)

	second := first.Add(24 * time.Hour)
	p.now = func() time.Time { return second }
	outcome, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-2")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	require.Len(t, store.setCalls, 2)
	assert.Equal(t, first.AddDate(0, 1, 0), store.setCalls[0].until)
	assert.Equal(t, second.AddDate(0, 1, 0), store.setCalls[1].until)
}

func TestProcessNotificationUnknownUserIgnored(t *testing.T) {
	store := newFakeSubscriptionStore() // no users
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	outcome, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	require.NoError(t, err)
	assert.True(t, outcome.Ignored)
	assert.Empty(t, store.setCalls)
}

func TestProcessNotificationPersistenceFailureThenRetry(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	store.failSet = fmt.Errorf("connection refused")
	_, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	assert.ErrorIs(t, err, ErrPersistence)

	// Gateway redelivers after the 5xx; the failed event must be retried,
	// not treated as a processed duplicate.
	store.failSet = nil
	outcome, err := p.ProcessNotification(context.Background(), successPayload("42"), "evt-1")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Len(t, store.setCalls, 1)
}

func TestProcessNotificationHashFallbackEventID(t *testing.T) {
	store := newFakeSubscriptionStore(42)
	events := newFakeEventStore()
	p := NewProcessor(store, events)

	payload := successPayload("42")
	_, err := p.ProcessNotification(context.Background(), payload, "")
	require.NoError(t, err)

	outcome, err := p.ProcessNotification(context.Background(), payload, "")
	require.NoError(t, err)
	assert.True(t, outcome.Duplicate, "identical bodies without a delivery id share a hash key")
	assert.Len(t, store.setCalls, 1)
}

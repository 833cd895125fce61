package payment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mystrio/mystrio-api/app/models"
)

// SubscriptionStore is the slice of the user store the webhook processor
// needs: reading a user and flat-overwriting the premium expiry.
type SubscriptionStore interface {
	GetUser(id uint) (*models.User, error)
	SetPremiumUntil(userID uint, until time.Time) error
}

// EventStore records webhook deliveries so replays are detected.
type EventStore interface {
	CreateIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkProcessed(id uint, processingErr error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a subscription/event store backed by GORM.
func NewStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db}
}

func (s *gormStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) SetPremiumUntil(userID uint, until time.Time) error {
	tx := s.db.Model(&models.User{}).Where("id = ?", userID).Update("premium_until", until)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *gormStore) CreateIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := s.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (s *gormStore) MarkProcessed(id uint, processingErr error) error {
	now := time.Now()
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": errMsg,
	}
	return s.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

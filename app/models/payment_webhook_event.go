package models

import "time"

// PaymentWebhookEvent records every gateway callback delivery so that a
// replayed delivery never applies a subscription extension twice. EventID is
// the gateway-supplied delivery id when present, otherwise a payload hash.
type PaymentWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventID         string     `gorm:"uniqueIndex;type:varchar(100)" json:"eventId"`
	Status          string     `gorm:"type:varchar(50)" json:"status"`
	ClientReference string     `gorm:"type:varchar(100);index" json:"clientReference"`
	PayloadJSON     string     `gorm:"type:mediumtext" json:"-"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processedAt"`
	ProcessingError string     `gorm:"type:text" json:"-"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

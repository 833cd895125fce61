package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink maps a short public code to an answered question.
type ShareLink struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ShortCode          string    `gorm:"uniqueIndex;type:varchar(16)" json:"shortCode"`
	AnsweredQuestionID uint      `gorm:"index" json:"answeredQuestionId"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// GenerateShortCode returns an 8 character code. Uniqueness is enforced by
// the DB index; callers regenerate on collision.
func GenerateShortCode() string {
	return uuid.NewString()[:8]
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Hints is a free-form JSON object attached to a question (e.g. AI-generated
// answer hints). Stored as a JSON text column.
type Hints map[string]interface{}

func (h Hints) Value() (driver.Value, error) {
	if h == nil {
		return "{}", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *Hints) Scan(value interface{}) error {
	if value == nil {
		*h = Hints{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("hints: unsupported scan source")
	}
	if len(data) == 0 {
		*h = Hints{}
		return nil
	}
	return json.Unmarshal(data, h)
}

// Question is either a question a user keeps on their own profile
// (UserID set) or an anonymous question sent to RecipientUserID with a
// NULL owner.
type Question struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             *uint     `gorm:"index" json:"userId"`
	RecipientUserID    *uint     `gorm:"index" json:"recipientUserId"`
	SenderUserID       *uint     `gorm:"index" json:"-"`
	QuestionText       string    `gorm:"type:text" json:"questionText"`
	IsFromAI           bool      `gorm:"default:false" json:"isFromAi"`
	Hints              Hints     `gorm:"type:text" json:"hints"`
	IsAnswered         bool      `gorm:"default:false" json:"isAnswered"`
	AnsweredQuestionID *uint     `json:"answeredQuestionId"`
	SenderIPAddress    string    `gorm:"type:varchar(45)" json:"-"`
	SenderHint         string    `gorm:"type:varchar(100)" json:"-"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// AnsweredQuestion is the immutable snapshot created when a user answers a
// question; the original row is marked answered and linked to it.
type AnsweredQuestion struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index" json:"userId"`
	OriginalQuestionID uint      `gorm:"index" json:"originalQuestionId"`
	QuestionText       string    `gorm:"type:text" json:"questionText"`
	AnswerText         string    `gorm:"type:text" json:"answerText"`
	AnsweredAt         time.Time `gorm:"autoCreateTime" json:"answeredAt"`
}

// BuildSenderHint derives the coarse location hint shown to premium users:
// the first two octets of the sender address, rest masked.
func BuildSenderHint(senderIP string) string {
	if senderIP == "" {
		return "No IP hint available"
	}
	parts := strings.Split(senderIP, ".")
	if len(parts) < 2 {
		return "No IP hint available"
	}
	return fmt.Sprintf("From IP: %s.%s.XXX.XXX", parts[0], parts[1])
}

package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const DefaultQuizTheme = "Friendship"

type Quiz struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"index" json:"userId"`
	Title             string         `gorm:"type:varchar(200)" json:"title" validate:"required,max=200"`
	Description       string         `gorm:"type:text" json:"description"`
	SelectedThemeName string         `gorm:"type:varchar(100)" json:"selectedThemeName"`
	Questions         []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

type QuizQuestion struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	QuizID             uint         `gorm:"index" json:"quizId"`
	QuestionText       string       `gorm:"type:text" json:"questionText"`
	CorrectOptionIndex int          `json:"correctOptionIndex"`
	Options            []QuizOption `gorm:"foreignKey:QuizQuestionID;constraint:OnDelete:CASCADE" json:"options"`
}

type QuizOption struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	QuizQuestionID uint   `gorm:"index" json:"quizQuestionId"`
	OptionText     string `gorm:"type:varchar(255)" json:"optionText"`
}

func (q *Quiz) Validate() error {
	v := validator.New()

	return v.Struct(q)
}

package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mystrio/mystrio-api/app/models"
)

type shareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new share-link repository instance
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// Create issues a short code for an answered question, retrying on the
// unlikely collision of the generated code.
func (r *shareRepository) Create(answeredQuestionID uint) (string, error) {
	var existing models.ShareLink
	err := r.db.Where("answered_question_id = ?", answeredQuestionID).First(&existing).Error
	if err == nil {
		return existing.ShortCode, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	for attempt := 0; attempt < 3; attempt++ {
		link := models.ShareLink{
			AnsweredQuestionID: answeredQuestionID,
			ShortCode:          models.GenerateShortCode(),
		}
		if err := r.db.Create(&link).Error; err != nil {
			continue
		}
		return link.ShortCode, nil
	}
	return "", errors.New("could not allocate a unique share code")
}

func (r *shareRepository) GetAnsweredQuestionID(shortCode string) (uint, error) {
	var link models.ShareLink
	if err := r.db.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return link.AnsweredQuestionID, nil
}

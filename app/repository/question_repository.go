package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mystrio/mystrio-api/app/models"
)

// ErrAlreadyAnswered is returned when answering a question that already has
// an answer snapshot.
var ErrAlreadyAnswered = errors.New("question already answered")

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository creates a new question repository instance
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) GetByID(id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByOwner returns a user's profile questions, newest first, with answer
// snapshots joined in where one exists.
func (r *questionRepository) GetByOwner(userID uint) ([]QuestionWithAnswer, error) {
	var rows []QuestionWithAnswer
	err := r.db.Model(&models.Question{}).
		Select("questions.*, answered_questions.answer_text AS answer_text, answered_questions.answered_at AS answered_at").
		Joins("LEFT JOIN answered_questions ON answered_questions.id = questions.answered_question_id").
		Where("questions.user_id = ?", userID).
		Order("questions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *questionRepository) GetReceivedAnonymous(userID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.
		Where("recipient_user_id = ? AND user_id IS NULL", userID).
		Order("created_at DESC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) GetSentAnonymous(userID uint) ([]SentQuestion, error) {
	var rows []SentQuestion
	err := r.db.Model(&models.Question{}).
		Select("questions.id, questions.question_text, questions.created_at, users.username AS recipient_username").
		Joins("JOIN users ON users.id = questions.recipient_user_id").
		Where("questions.sender_user_id = ?", userID).
		Order("questions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// Answer snapshots the question text together with the answer and marks the
// original row answered, in one transaction.
func (r *questionRepository) Answer(questionID, userID uint, answerText string) (*models.AnsweredQuestion, error) {
	var answered models.AnsweredQuestion

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if question.IsAnswered {
			return ErrAlreadyAnswered
		}

		answered = models.AnsweredQuestion{
			UserID:             userID,
			OriginalQuestionID: question.ID,
			QuestionText:       question.QuestionText,
			AnswerText:         answerText,
		}
		if err := tx.Create(&answered).Error; err != nil {
			return err
		}

		return tx.Model(&question).Updates(map[string]interface{}{
			"is_answered":          true,
			"answered_question_id": answered.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &answered, nil
}

func (r *questionRepository) Delete(id uint) error {
	tx := r.db.Delete(&models.Question{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *questionRepository) GetAnsweredByID(id uint) (*models.AnsweredQuestion, error) {
	var answered models.AnsweredQuestion
	if err := r.db.First(&answered, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &answered, nil
}

func (r *questionRepository) ListForModeration() ([]ModerationQuestion, error) {
	var rows []ModerationQuestion
	err := r.db.Model(&models.Question{}).
		Select(fmt.Sprintf("questions.*, %s, %s",
			"owners.username AS owner_username, owners.email AS owner_email",
			"recipients.username AS recipient_username, recipients.email AS recipient_email")).
		Joins("LEFT JOIN users owners ON owners.id = questions.user_id").
		Joins("JOIN users recipients ON recipients.id = questions.recipient_user_id").
		Order("questions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

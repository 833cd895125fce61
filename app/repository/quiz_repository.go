package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mystrio/mystrio-api/app/models"
)

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository creates a new quiz repository instance
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

// CreateWithChildren inserts the quiz with its nested questions and options
// in a single transaction.
func (r *quizRepository) CreateWithChildren(quiz *models.Quiz) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(quiz).Error
	})
}

func (r *quizRepository) GetByID(id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.
		Preload("Questions.Options").
		Preload("Questions").
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) GetVisibleToUser(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := r.db.
		Preload("Questions.Options").
		Preload("Questions").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// ReplaceContent rewrites a quiz: metadata is updated in place while the
// question tree is dropped and recreated from the incoming payload.
func (r *quizRepository) ReplaceContent(quiz *models.Quiz) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Quiz
		if err := tx.First(&existing, quiz.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"title":               quiz.Title,
			"description":         quiz.Description,
			"selected_theme_name": quiz.SelectedThemeName,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}

		var oldQuestions []models.QuizQuestion
		if err := tx.Where("quiz_id = ?", quiz.ID).Find(&oldQuestions).Error; err != nil {
			return err
		}
		if len(oldQuestions) > 0 {
			ids := make([]uint, 0, len(oldQuestions))
			for _, q := range oldQuestions {
				ids = append(ids, q.ID)
			}
			if err := tx.Where("quiz_question_id IN ?", ids).Delete(&models.QuizOption{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
		}

		for i := range quiz.Questions {
			quiz.Questions[i].ID = 0
			quiz.Questions[i].QuizID = quiz.ID
			for j := range quiz.Questions[i].Options {
				quiz.Questions[i].Options[j].ID = 0
				quiz.Questions[i].Options[j].QuizQuestionID = 0
			}
		}
		if len(quiz.Questions) > 0 {
			if err := tx.Create(&quiz.Questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *quizRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var questions []models.QuizQuestion
		if err := tx.Where("quiz_id = ?", id).Find(&questions).Error; err != nil {
			return err
		}
		if len(questions) > 0 {
			ids := make([]uint, 0, len(questions))
			for _, q := range questions {
				ids = append(ids, q.ID)
			}
			if err := tx.Where("quiz_question_id IN ?", ids).Delete(&models.QuizOption{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Quiz{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *quizRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Quiz{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *quizRepository) ListForModeration() ([]ModerationQuiz, error) {
	var rows []ModerationQuiz
	err := r.db.Model(&models.Quiz{}).
		Select("quizzes.id, quizzes.title, quizzes.description, quizzes.created_at, users.username AS owner_username, users.email AS owner_email").
		Joins("LEFT JOIN users ON users.id = quizzes.user_id").
		Order("quizzes.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mystrio/mystrio-api/app/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail is returned when an email address is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	var count int64
	if err := r.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Patch(id uint, patch models.UserPatch) error {
	updates := patch.Columns()
	if len(updates) == 0 {
		return nil
	}
	tx := r.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(id uint) error {
	tx := r.db.Delete(&models.User{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) CountPremium() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("premium_until > NOW()").Count(&count).Error
	return count, err
}

func (r *userRepository) Recent(limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

func (r *userRepository) GetActivity(userID uint) (*UserActivity, error) {
	var activity UserActivity

	if err := r.db.Model(&models.Question{}).
		Where("recipient_user_id = ?", userID).
		Count(&activity.TotalQuestionsReceived).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.AnsweredQuestion{}).
		Where("user_id = ?", userID).
		Count(&activity.TotalAnswersGiven).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Quiz{}).
		Where("user_id = ?", userID).
		Count(&activity.TotalQuizzesCreated).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

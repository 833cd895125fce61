package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Username              string     `gorm:"type:varchar(150)" json:"username" validate:"required,min=3,max=150"`
	Email                 string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password              string     `gorm:"type:text" json:"-" validate:"required,min=6"`
	ChosenQuestionText    string     `gorm:"type:text" json:"chosenQuestionText"`
	ChosenQuestionStyleID string     `gorm:"type:varchar(50)" json:"chosenQuestionStyleId"`
	ProfileImagePath      string     `gorm:"type:varchar(255)" json:"profileImagePath" validate:"max=255"`
	PremiumUntil          *time.Time `gorm:"type:timestamp;default:null" json:"premiumUntil"`
	IsAdmin               bool       `gorm:"default:false" json:"isAdmin"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: pw,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsPremium reports whether the user's premium entitlement is currently active.
func (u *User) IsPremium() bool {
	return u.PremiumUntil != nil && u.PremiumUntil.After(time.Now())
}

// UserPatch is a partial update of user-editable profile fields. Nil fields
// are left untouched; each set field maps to a named column.
type UserPatch struct {
	Username              *string    `json:"username"`
	Email                 *string    `json:"email"`
	ChosenQuestionText    *string    `json:"chosenQuestionText"`
	ChosenQuestionStyleID *string    `json:"chosenQuestionStyleId"`
	ProfileImagePath      *string    `json:"profileImagePath"`
	PremiumUntil          *time.Time `json:"premiumUntil"`
	IsAdmin               *bool      `json:"isAdmin"`
}

// Columns maps the set fields to their column assignments.
func (p UserPatch) Columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Username != nil {
		updates["username"] = *p.Username
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.ChosenQuestionText != nil {
		updates["chosen_question_text"] = *p.ChosenQuestionText
	}
	if p.ChosenQuestionStyleID != nil {
		updates["chosen_question_style_id"] = *p.ChosenQuestionStyleID
	}
	if p.ProfileImagePath != nil {
		updates["profile_image_path"] = *p.ProfileImagePath
	}
	if p.PremiumUntil != nil {
		updates["premium_until"] = *p.PremiumUntil
	}
	if p.IsAdmin != nil {
		updates["is_admin"] = *p.IsAdmin
	}
	return updates
}

// IsEmpty reports whether the patch carries no field at all.
func (p UserPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

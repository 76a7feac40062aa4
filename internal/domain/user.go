package domain

import (
	"net/mail"
	"strings"
	"time"
)

type User struct {
	ID           uint64    `json:"user_id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	FirstName    string    `json:"first_name" gorm:"size:100"`
	LastName     string    `json:"last_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in CreateUserInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return NewValidationError("username", "is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < 8 {
		return NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

// UserUpdate lists the user fields a client may change. Credentials are not
// among them.
type UserUpdate struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (u UserUpdate) Validate() error {
	if u.Email != nil {
		return validateEmail(*u.Email)
	}
	return nil
}

func (u UserUpdate) Apply(user *User) {
	setIf(&user.Email, u.Email)
	setIf(&user.FirstName, u.FirstName)
	setIf(&user.LastName, u.LastName)
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email", "is not a valid address")
	}
	return nil
}

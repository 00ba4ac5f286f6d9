package usersvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Age          int       `json:"age" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CheckPassword reports whether raw matches the stored hash.
func (u User) CheckPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(raw)) == nil
}

type UserRepository interface {
	Create(ctx context.Context, u User) (User, error)
	Find(ctx context.Context, id uint64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id uint64) error
	IsExists(ctx context.Context, id uint64) (bool, error)
}

type AvatarRepository interface {
	Put(ctx context.Context, userID uint64, data []byte) error
	Get(ctx context.Context, userID uint64) ([]byte, error)
	Delete(ctx context.Context, userID uint64) error
}

func HashPassword(raw string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmailTaken      = fmt.Errorf("%w: email is already taken", ErrInvalidArgument)
	ErrUserNotFound    = errors.New("user not found")
	ErrAvatarNotFound  = errors.New("avatar not found")
	ErrUnableToLogin   = errors.New("unable to login")
)

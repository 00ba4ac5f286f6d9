package authsvc

import (
	"context"
	"errors"
	"time"
)

// Auth identifies the caller of a protected request and the exact token the
// request was authenticated with.
type Auth struct {
	UserID uint64
	Token  string
}

type Token struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// TokenRepository keeps the ordered list of active tokens per user.
type TokenRepository interface {
	Add(ctx context.Context, userID uint64, token string) error
	Exists(ctx context.Context, userID uint64, token string) (bool, error)
	List(ctx context.Context, userID uint64) ([]string, error)
	Remove(ctx context.Context, userID uint64, token string) error
	RemoveAll(ctx context.Context, userID uint64) error
}

type contextKey string

const AuthContextKey contextKey = "Auth"

func NewContext(ctx context.Context, a Auth) context.Context {
	return context.WithValue(ctx, AuthContextKey, a)
}

func FromContext(ctx context.Context) (Auth, error) {
	a, ok := ctx.Value(AuthContextKey).(Auth)
	if !ok {
		return Auth{}, ErrAuthContextMissing
	}
	return a, nil
}

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("please authenticate")
	ErrAuthContextMissing = errors.New("auth was not passed through the context")
)

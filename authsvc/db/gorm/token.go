package gorm

import (
	"context"

	"github.com/ichigozero/taskapi/authsvc"
	libgorm "gorm.io/gorm"
)

type tokenRepository struct {
	db *libgorm.DB
}

func NewTokenRepository(db *libgorm.DB) authsvc.TokenRepository {
	return &tokenRepository{db}
}

func (t *tokenRepository) Add(ctx context.Context, userID uint64, token string) error {
	return t.db.WithContext(ctx).Create(&authsvc.Token{UserID: userID, Token: token}).Error
}

func (t *tokenRepository) Exists(ctx context.Context, userID uint64, token string) (bool, error) {
	var count int64
	result := t.db.WithContext(ctx).
		Model(&authsvc.Token{}).
		Where("user_id = ? AND token = ?", userID, token).
		Count(&count)

	return count > 0, result.Error
}

func (t *tokenRepository) List(ctx context.Context, userID uint64) ([]string, error) {
	var tokens []string
	result := t.db.WithContext(ctx).
		Model(&authsvc.Token{}).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("token", &tokens)

	return tokens, result.Error
}

func (t *tokenRepository) Remove(ctx context.Context, userID uint64, token string) error {
	return t.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&authsvc.Token{}).Error
}

func (t *tokenRepository) RemoveAll(ctx context.Context, userID uint64) error {
	return t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&authsvc.Token{}).Error
}

func Migrate(db *libgorm.DB) error {
	return db.AutoMigrate(&authsvc.Token{})
}

package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/taskapi/usersvc"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Avatar keeps the image bytes out of the users table so that loading a
// user never drags the blob along.
type Avatar struct {
	UserID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Data   []byte `gorm:"not null"`
}

type avatarRepository struct {
	db *libgorm.DB
}

func NewAvatarRepository(db *libgorm.DB) usersvc.AvatarRepository {
	return &avatarRepository{db}
}

func (a *avatarRepository) Put(ctx context.Context, userID uint64, data []byte) error {
	avatar := Avatar{UserID: userID, Data: data}
	result := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&avatar)

	return result.Error
}

func (a *avatarRepository) Get(ctx context.Context, userID uint64) ([]byte, error) {
	var avatar Avatar
	result := a.db.WithContext(ctx).Where("user_id = ?", userID).First(&avatar)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return nil, usersvc.ErrAvatarNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return avatar.Data, nil
}

func (a *avatarRepository) Delete(ctx context.Context, userID uint64) error {
	return a.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Avatar{}).Error
}

// Migrate creates the tables used by the user repositories.
func Migrate(db *libgorm.DB) error {
	return db.AutoMigrate(&usersvc.User{}, &Avatar{})
}

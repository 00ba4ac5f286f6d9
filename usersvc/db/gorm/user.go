package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/taskapi/usersvc"
	"github.com/jackc/pgconn"
	"github.com/mattn/go-sqlite3"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	if err := u.checkEmail(ctx, user.Email, 0); err != nil {
		return usersvc.User{}, err
	}

	result := u.db.WithContext(ctx).Create(&user)
	return user, translateError(result.Error)
}

func (u *userRepository) Find(ctx context.Context, id uint64) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.WithContext(ctx).First(&user, id)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

func (u *userRepository) Update(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	if _, err := u.Find(ctx, user.ID); err != nil {
		return usersvc.User{}, err
	}
	if err := u.checkEmail(ctx, user.Email, user.ID); err != nil {
		return usersvc.User{}, err
	}

	result := u.db.WithContext(ctx).Model(&user).Updates(
		map[string]interface{}{
			"name":          user.Name,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"age":           user.Age,
		})
	if result.Error != nil {
		return usersvc.User{}, translateError(result.Error)
	}

	return u.Find(ctx, user.ID)
}

func (u *userRepository) Delete(ctx context.Context, id uint64) error {
	result := u.db.WithContext(ctx).Delete(&usersvc.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usersvc.ErrUserNotFound
	}
	return nil
}

func (u *userRepository) IsExists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	result := u.db.WithContext(ctx).Model(&usersvc.User{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// checkEmail fails with ErrEmailTaken when another user already owns email.
func (u *userRepository) checkEmail(ctx context.Context, email string, self uint64) error {
	existing, err := u.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return usersvc.ErrEmailTaken
	}
	return nil
}

// translateError reports a unique index violation on email as ErrEmailTaken.
// checkEmail catches the common case; this covers concurrent writers.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return usersvc.ErrEmailTaken
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return usersvc.ErrEmailTaken
	}
	return err
}

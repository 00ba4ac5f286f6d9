package gorm

import (
	"context"
	"testing"

	"github.com/ichigozero/taskapi/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *libgorm.DB {
	t.Helper()

	db, err := libgorm.Open(sqlite.Open("file::memory:"), &libgorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func newUser(t *testing.T, name, email string) usersvc.User {
	t.Helper()

	u, err := usersvc.NewUser(name, email, "MyPass777!", nil, bcrypt.MinCost)
	require.NoError(t, err)
	return u
}

func TestUserRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u, err := repo.Create(ctx, newUser(t, "Andrew", "andrew@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := repo.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Andrew", got.Name)
	assert.True(t, got.CheckPassword("MyPass777!"))

	got, err = repo.FindByEmail(ctx, "andrew@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.Create(ctx, newUser(t, "Other", "andrew@example.com"))
	assert.ErrorIs(t, err, usersvc.ErrEmailTaken)
	assert.ErrorIs(t, err, usersvc.ErrInvalidArgument)

	_, err = repo.Find(ctx, u.ID+100)
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	andrew, err := repo.Create(ctx, newUser(t, "Andrew", "andrew@example.com"))
	require.NoError(t, err)
	jess, err := repo.Create(ctx, newUser(t, "Jess", "jess@example.com"))
	require.NoError(t, err)

	andrew.Name = "Drew"
	andrew.Age = 0
	got, err := repo.Update(ctx, andrew)
	require.NoError(t, err)
	assert.Equal(t, "Drew", got.Name)
	assert.Equal(t, "andrew@example.com", got.Email)

	// Keeping one's own email is not a conflict.
	_, err = repo.Update(ctx, got)
	require.NoError(t, err)

	jess.Email = "andrew@example.com"
	_, err = repo.Update(ctx, jess)
	assert.ErrorIs(t, err, usersvc.ErrEmailTaken)

	stored, err := repo.Find(ctx, jess.ID)
	require.NoError(t, err)
	assert.Equal(t, "jess@example.com", stored.Email)

	_, err = repo.Update(ctx, usersvc.User{ID: 999, Email: "x@example.com"})
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}

func TestUserRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u, err := repo.Create(ctx, newUser(t, "Andrew", "andrew@example.com"))
	require.NoError(t, err)

	ok, err := repo.IsExists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, u.ID))

	ok, err = repo.IsExists(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, repo.Delete(ctx, u.ID), usersvc.ErrUserNotFound)

	// The address is free again once the user is gone.
	_, err = repo.Create(ctx, newUser(t, "Andrew", "andrew@example.com"))
	assert.NoError(t, err)
}

func TestUniqueEmailViolationIsEmailTaken(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.Create(ctx, newUser(t, "Andrew", "andrew@example.com"))
	require.NoError(t, err)

	// A writer that skipped the lookup runs into the unique index.
	dup := newUser(t, "Other", "andrew@example.com")
	err = db.WithContext(ctx).Create(&dup).Error
	require.Error(t, err)

	assert.ErrorIs(t, translateError(err), usersvc.ErrEmailTaken)
	assert.ErrorIs(t, translateError(err), usersvc.ErrInvalidArgument)
	assert.Nil(t, translateError(nil))
}

func TestAvatarRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAvatarRepository(newTestDB(t))

	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, usersvc.ErrAvatarNotFound)

	require.NoError(t, repo.Put(ctx, 1, []byte("first")))
	require.NoError(t, repo.Put(ctx, 1, []byte("second")))
	require.NoError(t, repo.Put(ctx, 2, []byte("other")))

	data, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, usersvc.ErrAvatarNotFound)

	// Deleting a missing avatar is a no-op.
	assert.NoError(t, repo.Delete(ctx, 1))

	data, err = repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("other"), data)
}

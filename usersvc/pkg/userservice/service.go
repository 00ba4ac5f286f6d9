package userservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/usersvc"
)

type Service interface {
	Signup(ctx context.Context, name, email, password string, age *int) (usersvc.User, string, error)
	Login(ctx context.Context, email, password string) (usersvc.User, string, error)
	Logout(ctx context.Context, a authsvc.Auth) error
	LogoutAll(ctx context.Context, a authsvc.Auth) error
	Me(ctx context.Context, a authsvc.Auth) (usersvc.User, error)
	UpdateMe(ctx context.Context, a authsvc.Auth, patch usersvc.Patch) (usersvc.User, error)
	DeleteMe(ctx context.Context, a authsvc.Auth) (usersvc.User, error)
	SetAvatar(ctx context.Context, a authsvc.Auth, filename string, data []byte) error
	DeleteAvatar(ctx context.Context, a authsvc.Auth) error
	Avatar(ctx context.Context, userID uint64) ([]byte, error)
}

// Authenticator is the part of the token service the user service drives.
type Authenticator interface {
	Issue(ctx context.Context, userID uint64) (string, error)
	Revoke(ctx context.Context, userID uint64, token string) error
	RevokeAll(ctx context.Context, userID uint64) error
}

// TaskRemover deletes every task of an owner.
type TaskRemover interface {
	DeleteAll(ctx context.Context, owner uint64) error
}

func New(
	users usersvc.UserRepository,
	avatars usersvc.AvatarRepository,
	auth Authenticator,
	tasks TaskRemover,
	cost int,
	logger log.Logger,
) (Service, error) {
	var svc Service
	{
		basic, err := NewBasicService(users, avatars, auth, tasks, cost)
		if err != nil {
			return nil, err
		}
		svc = basic
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc, nil
}

type basicService struct {
	users   usersvc.UserRepository
	avatars usersvc.AvatarRepository
	auth    Authenticator
	tasks   TaskRemover
	cost    int

	// dummy is compared against when a login names an unknown email, so
	// both failure paths cost one bcrypt comparison.
	dummy usersvc.User
}

func NewBasicService(
	users usersvc.UserRepository,
	avatars usersvc.AvatarRepository,
	auth Authenticator,
	tasks TaskRemover,
	cost int,
) (Service, error) {
	hash, err := usersvc.HashPassword("unknown-user-login", cost)
	if err != nil {
		return nil, err
	}

	return &basicService{
		users:   users,
		avatars: avatars,
		auth:    auth,
		tasks:   tasks,
		cost:    cost,
		dummy:   usersvc.User{PasswordHash: hash},
	}, nil
}

func (s *basicService) Signup(ctx context.Context, name, email, password string, age *int) (usersvc.User, string, error) {
	u, err := usersvc.NewUser(name, email, password, age, s.cost)
	if err != nil {
		return usersvc.User{}, "", err
	}

	u, err = s.users.Create(ctx, u)
	if err != nil {
		return usersvc.User{}, "", err
	}

	token, err := s.auth.Issue(ctx, u.ID)
	if err != nil {
		return usersvc.User{}, "", err
	}

	return u, token, nil
}

func (s *basicService) Login(ctx context.Context, email, password string) (usersvc.User, string, error) {
	u, err := s.users.FindByEmail(ctx, usersvc.NormalizeEmail(email))
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound):
		s.dummy.CheckPassword(password)
		return usersvc.User{}, "", usersvc.ErrUnableToLogin
	case err != nil:
		return usersvc.User{}, "", err
	}

	if !u.CheckPassword(password) {
		return usersvc.User{}, "", usersvc.ErrUnableToLogin
	}

	token, err := s.auth.Issue(ctx, u.ID)
	if err != nil {
		return usersvc.User{}, "", err
	}

	return u, token, nil
}

func (s *basicService) Logout(ctx context.Context, a authsvc.Auth) error {
	if a.UserID == 0 || a.Token == "" {
		return authsvc.ErrUnauthorized
	}
	return s.auth.Revoke(ctx, a.UserID, a.Token)
}

func (s *basicService) LogoutAll(ctx context.Context, a authsvc.Auth) error {
	if a.UserID == 0 {
		return authsvc.ErrUnauthorized
	}
	return s.auth.RevokeAll(ctx, a.UserID)
}

func (s *basicService) Me(ctx context.Context, a authsvc.Auth) (usersvc.User, error) {
	if a.UserID == 0 {
		return usersvc.User{}, authsvc.ErrUnauthorized
	}
	return s.users.Find(ctx, a.UserID)
}

func (s *basicService) UpdateMe(ctx context.Context, a authsvc.Auth, patch usersvc.Patch) (usersvc.User, error) {
	if a.UserID == 0 {
		return usersvc.User{}, authsvc.ErrUnauthorized
	}

	u, err := s.users.Find(ctx, a.UserID)
	if err != nil {
		return usersvc.User{}, err
	}

	u, err = patch.Apply(u, s.cost)
	if err != nil {
		return usersvc.User{}, err
	}

	return s.users.Update(ctx, u)
}

// DeleteMe removes the caller's tasks, tokens and avatar before the record
// itself. A failure part way leaves the user in place with fewer dependents.
func (s *basicService) DeleteMe(ctx context.Context, a authsvc.Auth) (usersvc.User, error) {
	if a.UserID == 0 {
		return usersvc.User{}, authsvc.ErrUnauthorized
	}

	u, err := s.users.Find(ctx, a.UserID)
	if err != nil {
		return usersvc.User{}, err
	}

	if err := s.tasks.DeleteAll(ctx, u.ID); err != nil {
		return usersvc.User{}, err
	}
	if err := s.auth.RevokeAll(ctx, u.ID); err != nil {
		return usersvc.User{}, err
	}
	if err := s.avatars.Delete(ctx, u.ID); err != nil {
		return usersvc.User{}, err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return usersvc.User{}, err
	}

	return u, nil
}

func (s *basicService) SetAvatar(ctx context.Context, a authsvc.Auth, filename string, data []byte) error {
	if a.UserID == 0 {
		return authsvc.ErrUnauthorized
	}

	img, err := usersvc.ProcessAvatar(filename, data)
	if err != nil {
		return err
	}

	return s.avatars.Put(ctx, a.UserID, img)
}

func (s *basicService) DeleteAvatar(ctx context.Context, a authsvc.Auth) error {
	if a.UserID == 0 {
		return authsvc.ErrUnauthorized
	}
	return s.avatars.Delete(ctx, a.UserID)
}

func (s *basicService) Avatar(ctx context.Context, userID uint64) ([]byte, error) {
	if userID == 0 {
		return nil, usersvc.ErrUserNotFound
	}

	ok, err := s.users.IsExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, usersvc.ErrUserNotFound
	}

	return s.avatars.Get(ctx, userID)
}

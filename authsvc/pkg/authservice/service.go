package authservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
)

type Service interface {
	Issue(ctx context.Context, userID uint64) (string, error)
	Verify(ctx context.Context, token string) (authsvc.Auth, error)
	Revoke(ctx context.Context, userID uint64, token string) error
	RevokeAll(ctx context.Context, userID uint64) error
}

// UserChecker reports whether a user still exists.
type UserChecker interface {
	IsExists(ctx context.Context, id uint64) (bool, error)
}

func New(t Tokenizer, tokens authsvc.TokenRepository, users UserChecker, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t, tokens, users)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tokenizer Tokenizer
	tokens    authsvc.TokenRepository
	users     UserChecker
}

func NewBasicService(t Tokenizer, tokens authsvc.TokenRepository, users UserChecker) Service {
	return &basicService{tokenizer: t, tokens: tokens, users: users}
}

func (s *basicService) Issue(ctx context.Context, userID uint64) (string, error) {
	if userID == 0 {
		return "", authsvc.ErrInvalidArgument
	}

	token, err := s.tokenizer.Generate(userID)
	if err != nil {
		return "", err
	}

	if err := s.tokens.Add(ctx, userID, token); err != nil {
		return "", err
	}

	return token, nil
}

func (s *basicService) Verify(ctx context.Context, token string) (authsvc.Auth, error) {
	if token == "" {
		return authsvc.Auth{}, authsvc.ErrUnauthorized
	}

	userID, err := s.tokenizer.Parse(token)
	if err != nil {
		return authsvc.Auth{}, err
	}

	ok, err := s.users.IsExists(ctx, userID)
	if err != nil {
		return authsvc.Auth{}, err
	}
	if !ok {
		return authsvc.Auth{}, authsvc.ErrUnauthorized
	}

	ok, err = s.tokens.Exists(ctx, userID, token)
	if err != nil {
		return authsvc.Auth{}, err
	}
	if !ok {
		return authsvc.Auth{}, authsvc.ErrUnauthorized
	}

	return authsvc.Auth{UserID: userID, Token: token}, nil
}

func (s *basicService) Revoke(ctx context.Context, userID uint64, token string) error {
	if userID == 0 || token == "" {
		return authsvc.ErrInvalidArgument
	}
	return s.tokens.Remove(ctx, userID, token)
}

func (s *basicService) RevokeAll(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return authsvc.ErrInvalidArgument
	}
	return s.tokens.RemoveAll(ctx, userID)
}

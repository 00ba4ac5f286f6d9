package authservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Issue(ctx context.Context, userID uint64) (token string, err error) {
	defer func() {
		mw.logger.Log("method", "Issue", "user_id", userID, "err", err)
	}()
	return mw.next.Issue(ctx, userID)
}

func (mw loggingMiddleware) Verify(ctx context.Context, token string) (a authsvc.Auth, err error) {
	defer func() {
		mw.logger.Log("method", "Verify", "user_id", a.UserID, "err", err)
	}()
	return mw.next.Verify(ctx, token)
}

func (mw loggingMiddleware) Revoke(ctx context.Context, userID uint64, token string) (err error) {
	defer func() {
		mw.logger.Log("method", "Revoke", "user_id", userID, "err", err)
	}()
	return mw.next.Revoke(ctx, userID, token)
}

func (mw loggingMiddleware) RevokeAll(ctx context.Context, userID uint64) (err error) {
	defer func() {
		mw.logger.Log("method", "RevokeAll", "user_id", userID, "err", err)
	}()
	return mw.next.RevokeAll(ctx, userID)
}

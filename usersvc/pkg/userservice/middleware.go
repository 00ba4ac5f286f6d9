package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/usersvc"
)

type Middleware func(Service) Service

// LoggingMiddleware never logs passwords or tokens.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Signup(ctx context.Context, name, email, password string, age *int) (u usersvc.User, token string, err error) {
	defer func() {
		mw.logger.Log("method", "Signup", "email", email, "user_id", u.ID, "err", err)
	}()
	return mw.next.Signup(ctx, name, email, password, age)
}

func (mw loggingMiddleware) Login(ctx context.Context, email, password string) (u usersvc.User, token string, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "email", email, "user_id", u.ID, "err", err)
	}()
	return mw.next.Login(ctx, email, password)
}

func (mw loggingMiddleware) Logout(ctx context.Context, a authsvc.Auth) (err error) {
	defer func() {
		mw.logger.Log("method", "Logout", "user_id", a.UserID, "err", err)
	}()
	return mw.next.Logout(ctx, a)
}

func (mw loggingMiddleware) LogoutAll(ctx context.Context, a authsvc.Auth) (err error) {
	defer func() {
		mw.logger.Log("method", "LogoutAll", "user_id", a.UserID, "err", err)
	}()
	return mw.next.LogoutAll(ctx, a)
}

func (mw loggingMiddleware) Me(ctx context.Context, a authsvc.Auth) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Me", "user_id", a.UserID, "err", err)
	}()
	return mw.next.Me(ctx, a)
}

func (mw loggingMiddleware) UpdateMe(ctx context.Context, a authsvc.Auth, patch usersvc.Patch) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "UpdateMe", "user_id", a.UserID, "fields", len(patch), "err", err)
	}()
	return mw.next.UpdateMe(ctx, a, patch)
}

func (mw loggingMiddleware) DeleteMe(ctx context.Context, a authsvc.Auth) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "DeleteMe", "user_id", a.UserID, "err", err)
	}()
	return mw.next.DeleteMe(ctx, a)
}

func (mw loggingMiddleware) SetAvatar(ctx context.Context, a authsvc.Auth, filename string, data []byte) (err error) {
	defer func() {
		mw.logger.Log("method", "SetAvatar", "user_id", a.UserID, "filename", filename, "size", len(data), "err", err)
	}()
	return mw.next.SetAvatar(ctx, a, filename, data)
}

func (mw loggingMiddleware) DeleteAvatar(ctx context.Context, a authsvc.Auth) (err error) {
	defer func() {
		mw.logger.Log("method", "DeleteAvatar", "user_id", a.UserID, "err", err)
	}()
	return mw.next.DeleteAvatar(ctx, a)
}

func (mw loggingMiddleware) Avatar(ctx context.Context, userID uint64) (img []byte, err error) {
	defer func() {
		mw.logger.Log("method", "Avatar", "user_id", userID, "size", len(img), "err", err)
	}()
	return mw.next.Avatar(ctx, userID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) Signup(ctx context.Context, name, email, password string, age *int) (usersvc.User, string, error) {
	defer mw.observe("signup", time.Now())
	return mw.next.Signup(ctx, name, email, password, age)
}

func (mw instrumentingMiddleware) Login(ctx context.Context, email, password string) (usersvc.User, string, error) {
	defer mw.observe("login", time.Now())
	return mw.next.Login(ctx, email, password)
}

func (mw instrumentingMiddleware) Logout(ctx context.Context, a authsvc.Auth) error {
	defer mw.observe("logout", time.Now())
	return mw.next.Logout(ctx, a)
}

func (mw instrumentingMiddleware) LogoutAll(ctx context.Context, a authsvc.Auth) error {
	defer mw.observe("logout_all", time.Now())
	return mw.next.LogoutAll(ctx, a)
}

func (mw instrumentingMiddleware) Me(ctx context.Context, a authsvc.Auth) (usersvc.User, error) {
	defer mw.observe("me", time.Now())
	return mw.next.Me(ctx, a)
}

func (mw instrumentingMiddleware) UpdateMe(ctx context.Context, a authsvc.Auth, patch usersvc.Patch) (usersvc.User, error) {
	defer mw.observe("update_me", time.Now())
	return mw.next.UpdateMe(ctx, a, patch)
}

func (mw instrumentingMiddleware) DeleteMe(ctx context.Context, a authsvc.Auth) (usersvc.User, error) {
	defer mw.observe("delete_me", time.Now())
	return mw.next.DeleteMe(ctx, a)
}

func (mw instrumentingMiddleware) SetAvatar(ctx context.Context, a authsvc.Auth, filename string, data []byte) error {
	defer mw.observe("set_avatar", time.Now())
	return mw.next.SetAvatar(ctx, a, filename, data)
}

func (mw instrumentingMiddleware) DeleteAvatar(ctx context.Context, a authsvc.Auth) error {
	defer mw.observe("delete_avatar", time.Now())
	return mw.next.DeleteAvatar(ctx, a)
}

func (mw instrumentingMiddleware) Avatar(ctx context.Context, userID uint64) ([]byte, error) {
	defer mw.observe("avatar", time.Now())
	return mw.next.Avatar(ctx, userID)
}

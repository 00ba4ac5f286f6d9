package authtransport

import (
	"context"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/authsvc/pkg/authservice"
)

// NewAuthenticater resolves the bearer token placed in the context by
// kitjwt.HTTPToContext and passes the authenticated caller downstream as an
// authsvc.Auth. Requests without a valid, unrevoked token never reach next.
func NewAuthenticater(svc authservice.Service) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok || token == "" {
				return nil, kitjwt.ErrTokenContextMissing
			}

			a, err := svc.Verify(ctx, token)
			if err != nil {
				return nil, err
			}

			return next(authsvc.NewContext(ctx, a), request)
		}
	}
}

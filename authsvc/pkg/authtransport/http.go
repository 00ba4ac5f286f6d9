package authtransport

import (
	"errors"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/ichigozero/taskapi/authsvc"
)

// ServerBefore copies the bearer token of the Authorization header into the
// request context.
func ServerBefore() httptransport.ServerOption {
	return httptransport.ServerBefore(kitjwt.HTTPToContext())
}

// StatusCode maps authentication failures to 401. ok is false for errors
// that are not about authentication.
func StatusCode(err error) (code int, ok bool) {
	switch {
	case errors.Is(err, kitjwt.ErrTokenContextMissing),
		errors.Is(err, authsvc.ErrUnauthorized),
		errors.Is(err, authsvc.ErrAuthContextMissing):
		return http.StatusUnauthorized, true
	}
	return 0, false
}

// ErrorMessage hides the reason a request failed authentication.
func ErrorMessage(err error) string {
	if _, ok := StatusCode(err); ok {
		return authsvc.ErrUnauthorized.Error()
	}
	return err.Error()
}

package userendpoint

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/usersvc"
	"github.com/ichigozero/taskapi/usersvc/pkg/userservice"
)

type Set struct {
	SignupEndpoint       endpoint.Endpoint
	LoginEndpoint        endpoint.Endpoint
	LogoutEndpoint       endpoint.Endpoint
	LogoutAllEndpoint    endpoint.Endpoint
	MeEndpoint           endpoint.Endpoint
	UpdateMeEndpoint     endpoint.Endpoint
	DeleteMeEndpoint     endpoint.Endpoint
	SetAvatarEndpoint    endpoint.Endpoint
	DeleteAvatarEndpoint endpoint.Endpoint
	AvatarEndpoint       endpoint.Endpoint
}

// New builds the user endpoints. Signup, Login and Avatar are public; authn
// guards the rest.
func New(svc userservice.Service, authn endpoint.Middleware, logger log.Logger) Set {
	var signupEndpoint endpoint.Endpoint
	{
		signupEndpoint = MakeSignupEndpoint(svc)
		signupEndpoint = LoggingMiddleware(log.With(logger, "method", "Signup"))(signupEndpoint)
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	var logoutEndpoint endpoint.Endpoint
	{
		logoutEndpoint = MakeLogoutEndpoint(svc)
		logoutEndpoint = authn(logoutEndpoint)
		logoutEndpoint = LoggingMiddleware(log.With(logger, "method", "Logout"))(logoutEndpoint)
	}

	var logoutAllEndpoint endpoint.Endpoint
	{
		logoutAllEndpoint = MakeLogoutAllEndpoint(svc)
		logoutAllEndpoint = authn(logoutAllEndpoint)
		logoutAllEndpoint = LoggingMiddleware(log.With(logger, "method", "LogoutAll"))(logoutAllEndpoint)
	}

	var meEndpoint endpoint.Endpoint
	{
		meEndpoint = MakeMeEndpoint(svc)
		meEndpoint = authn(meEndpoint)
		meEndpoint = LoggingMiddleware(log.With(logger, "method", "Me"))(meEndpoint)
	}

	var updateMeEndpoint endpoint.Endpoint
	{
		updateMeEndpoint = MakeUpdateMeEndpoint(svc)
		updateMeEndpoint = authn(updateMeEndpoint)
		updateMeEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateMe"))(updateMeEndpoint)
	}

	var deleteMeEndpoint endpoint.Endpoint
	{
		deleteMeEndpoint = MakeDeleteMeEndpoint(svc)
		deleteMeEndpoint = authn(deleteMeEndpoint)
		deleteMeEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteMe"))(deleteMeEndpoint)
	}

	var setAvatarEndpoint endpoint.Endpoint
	{
		setAvatarEndpoint = MakeSetAvatarEndpoint(svc)
		setAvatarEndpoint = authn(setAvatarEndpoint)
		setAvatarEndpoint = LoggingMiddleware(log.With(logger, "method", "SetAvatar"))(setAvatarEndpoint)
	}

	var deleteAvatarEndpoint endpoint.Endpoint
	{
		deleteAvatarEndpoint = MakeDeleteAvatarEndpoint(svc)
		deleteAvatarEndpoint = authn(deleteAvatarEndpoint)
		deleteAvatarEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteAvatar"))(deleteAvatarEndpoint)
	}

	var avatarEndpoint endpoint.Endpoint
	{
		avatarEndpoint = MakeAvatarEndpoint(svc)
		avatarEndpoint = LoggingMiddleware(log.With(logger, "method", "Avatar"))(avatarEndpoint)
	}

	return Set{
		SignupEndpoint:       signupEndpoint,
		LoginEndpoint:        loginEndpoint,
		LogoutEndpoint:       logoutEndpoint,
		LogoutAllEndpoint:    logoutAllEndpoint,
		MeEndpoint:           meEndpoint,
		UpdateMeEndpoint:     updateMeEndpoint,
		DeleteMeEndpoint:     deleteMeEndpoint,
		SetAvatarEndpoint:    setAvatarEndpoint,
		DeleteAvatarEndpoint: deleteAvatarEndpoint,
		AvatarEndpoint:       avatarEndpoint,
	}
}

func MakeSignupEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(SignupRequest)
		u, token, err := s.Signup(ctx, req.Name, req.Email, req.Password, req.Age)
		return SignupResponse{User: u, Token: token, Err: err}, nil
	}
}

func MakeLoginEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		u, token, err := s.Login(ctx, req.Email, req.Password)
		return LoginResponse{User: u, Token: token, Err: err}, nil
	}
}

func MakeLogoutEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return EmptyResponse{Err: err}, nil
		}
		return EmptyResponse{Err: s.Logout(ctx, auth)}, nil
	}
}

func MakeLogoutAllEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return EmptyResponse{Err: err}, nil
		}
		return EmptyResponse{Err: s.LogoutAll(ctx, auth)}, nil
	}
}

func MakeMeEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return UserResponse{Err: err}, nil
		}
		u, err := s.Me(ctx, auth)
		return UserResponse{User: u, Err: err}, nil
	}
}

func MakeUpdateMeEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return UserResponse{Err: err}, nil
		}
		req := request.(UpdateMeRequest)
		if req.Err != nil {
			return UserResponse{Err: req.Err}, nil
		}
		u, err := s.UpdateMe(ctx, auth, req.Patch)
		return UserResponse{User: u, Err: err}, nil
	}
}

func MakeDeleteMeEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return UserResponse{Err: err}, nil
		}
		u, err := s.DeleteMe(ctx, auth)
		return UserResponse{User: u, Err: err}, nil
	}
}

func MakeSetAvatarEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return EmptyResponse{Err: err}, nil
		}
		req := request.(SetAvatarRequest)
		if req.Err != nil {
			return EmptyResponse{Err: req.Err}, nil
		}
		return EmptyResponse{Err: s.SetAvatar(ctx, auth, req.Filename, req.Data)}, nil
	}
}

func MakeDeleteAvatarEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return EmptyResponse{Err: err}, nil
		}
		return EmptyResponse{Err: s.DeleteAvatar(ctx, auth)}, nil
	}
}

func MakeAvatarEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(AvatarRequest)
		img, err := s.Avatar(ctx, req.UserID)
		return AvatarResponse{Image: img, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = SignupResponse{}
	_ endpoint.Failer = LoginResponse{}
	_ endpoint.Failer = UserResponse{}
	_ endpoint.Failer = EmptyResponse{}
	_ endpoint.Failer = AvatarResponse{}
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int   `json:"age,omitempty"`
}

type SignupResponse struct {
	User  usersvc.User `json:"user"`
	Token string       `json:"token"`
	Err   error        `json:"-"`
}

func (r SignupResponse) Failed() error   { return r.Err }
func (r SignupResponse) StatusCode() int { return http.StatusCreated }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  usersvc.User `json:"user"`
	Token string       `json:"token"`
	Err   error        `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }

// Err holds a decoding failure, reported once the caller is authenticated.
type UpdateMeRequest struct {
	Patch usersvc.Patch
	Err   error
}

// UserResponse is encoded as the bare user.
type UserResponse struct {
	User usersvc.User
	Err  error
}

func (r UserResponse) Failed() error                { return r.Err }
func (r UserResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.User) }

type EmptyResponse struct {
	Err error `json:"-"`
}

func (r EmptyResponse) Failed() error { return r.Err }

// Err holds a decoding failure, reported once the caller is authenticated.
type SetAvatarRequest struct {
	Filename string
	Data     []byte
	Err      error
}

type AvatarRequest struct {
	UserID uint64
}

type AvatarResponse struct {
	Image []byte
	Err   error
}

func (r AvatarResponse) Failed() error { return r.Err }

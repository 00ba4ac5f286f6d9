package usertransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/taskapi/authsvc/pkg/authtransport"
	"github.com/ichigozero/taskapi/usersvc"
	"github.com/ichigozero/taskapi/usersvc/pkg/userendpoint"
)

// maxUploadSize bounds the whole multipart body; the image itself is held
// to usersvc.MaxAvatarSize.
const maxUploadSize = usersvc.MaxAvatarSize + 1<<20

func NewHTTPHandler(endpoints userendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		authtransport.ServerBefore(),
	}

	r := mux.NewRouter()

	r.Methods("POST").Path("/users").Handler(httptransport.NewServer(
		endpoints.SignupEndpoint,
		decodeHTTPSignupRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("POST").Path("/users/login").Handler(httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("POST").Path("/users/logout").Handler(httptransport.NewServer(
		endpoints.LogoutEndpoint,
		httptransport.NopRequestDecoder,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("POST").Path("/users/logoutAll").Handler(httptransport.NewServer(
		endpoints.LogoutAllEndpoint,
		httptransport.NopRequestDecoder,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("GET").Path("/users/me").Handler(httptransport.NewServer(
		endpoints.MeEndpoint,
		httptransport.NopRequestDecoder,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("PATCH").Path("/users/me").Handler(httptransport.NewServer(
		endpoints.UpdateMeEndpoint,
		decodeHTTPUpdateMeRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("DELETE").Path("/users/me").Handler(httptransport.NewServer(
		endpoints.DeleteMeEndpoint,
		httptransport.NopRequestDecoder,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("POST").Path("/users/me/avatar").Handler(httptransport.NewServer(
		endpoints.SetAvatarEndpoint,
		decodeHTTPSetAvatarRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("DELETE").Path("/users/me/avatar").Handler(httptransport.NewServer(
		endpoints.DeleteAvatarEndpoint,
		httptransport.NopRequestDecoder,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("GET").Path("/users/{user_id}/avatar").Handler(httptransport.NewServer(
		endpoints.AvatarEndpoint,
		decodeHTTPAvatarRequest,
		encodeHTTPAvatarResponse,
		options...,
	))

	return r
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	msg := authtransport.ErrorMessage(err)
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	if code, ok := authtransport.StatusCode(err); ok {
		return code
	}

	switch {
	case errors.Is(err, usersvc.ErrInvalidArgument),
		errors.Is(err, usersvc.ErrUnableToLogin):
		return http.StatusBadRequest
	case errors.Is(err, usersvc.ErrUserNotFound),
		errors.Is(err, usersvc.ErrAvatarNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeHTTPSignupRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req userendpoint.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errBadBody
	}
	return req, nil
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req userendpoint.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errBadBody
	}
	return req, nil
}

func decodeHTTPUpdateMeRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var patch usersvc.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return userendpoint.UpdateMeRequest{Err: errBadBody}, nil
	}
	return userendpoint.UpdateMeRequest{Patch: patch}, nil
}

func decodeHTTPSetAvatarRequest(_ context.Context, r *http.Request) (interface{}, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	f, fh, err := r.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || r.ContentLength > maxUploadSize {
			return userendpoint.SetAvatarRequest{Err: errTooLarge}, nil
		}
		return userendpoint.SetAvatarRequest{Err: errNoUpload}, nil
	}
	defer f.Close()

	// One byte past the limit is enough for the size check to fail.
	data, err := io.ReadAll(io.LimitReader(f, usersvc.MaxAvatarSize+1))
	if err != nil {
		return userendpoint.SetAvatarRequest{Err: err}, nil
	}

	return userendpoint.SetAvatarRequest{
		Filename: fh.Filename,
		Data:     data,
	}, nil
}

// decodeHTTPAvatarRequest maps a malformed id to zero, which is reported as
// not found.
func decodeHTTPAvatarRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	id, ok := vars["user_id"]
	if !ok {
		return nil, ErrBadRouting
	}

	userID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		userID = 0
	}
	return userendpoint.AvatarRequest{UserID: userID}, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

var (
	errBadBody  = fmt.Errorf("%w: request body must be a JSON object", usersvc.ErrInvalidArgument)
	errNoUpload = fmt.Errorf("%w: please upload an image", usersvc.ErrInvalidArgument)
	errTooLarge = fmt.Errorf("%w: image must be smaller than %d bytes", usersvc.ErrInvalidArgument, usersvc.MaxAvatarSize)
)

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	return httptransport.EncodeJSONResponse(ctx, w, response)
}

func encodeHTTPAvatarResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(userendpoint.AvatarResponse)
	if resp.Err != nil {
		errorEncoder(ctx, resp.Err, w)
		return nil
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Image)))
	_, err := w.Write(resp.Image)
	return err
}

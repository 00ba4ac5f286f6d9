package tasktransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/taskapi/authsvc/pkg/authtransport"
	"github.com/ichigozero/taskapi/tasksvc"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskendpoint"
)

// NewHTTPHandler serves the task routes. Every route requires a bearer
// token; the endpoints are expected to carry the authenticater. Decoders
// leave body and query errors on the request so they surface after authn.
func NewHTTPHandler(endpoints taskendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		authtransport.ServerBefore(),
	}

	r := mux.NewRouter()

	r.Methods("POST").Path("/tasks").Handler(httptransport.NewServer(
		endpoints.CreateTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("GET").Path("/tasks").Handler(httptransport.NewServer(
		endpoints.TasksEndpoint,
		decodeHTTPTasksRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("GET").Path("/tasks/{task_id}").Handler(httptransport.NewServer(
		endpoints.TaskEndpoint,
		decodeHTTPTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("PATCH").Path("/tasks/{task_id}").Handler(httptransport.NewServer(
		endpoints.UpdateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		encodeHTTPGenericResponse,
		options...,
	))
	r.Methods("DELETE").Path("/tasks/{task_id}").Handler(httptransport.NewServer(
		endpoints.DeleteTaskEndpoint,
		decodeHTTPDeleteTaskRequest,
		encodeHTTPGenericResponse,
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
	case errors.Is(err, tasksvc.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, tasksvc.ErrTaskNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req taskendpoint.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return taskendpoint.CreateTaskRequest{Err: errBadBody}, nil
	}
	return req, nil
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := r.URL.Query()
	opts, err := tasksvc.ParseListOptions(q.Get("completed"), q.Get("limit"), q.Get("skip"), q.Get("sortBy"))

	return taskendpoint.TasksRequest{Options: opts, Err: err}, nil
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	return taskendpoint.TaskRequest{
		TaskID: taskID,
	}, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	var patch tasksvc.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return taskendpoint.UpdateTaskRequest{TaskID: taskID, Err: errBadBody}, nil
	}

	return taskendpoint.UpdateTaskRequest{
		TaskID: taskID,
		Patch:  patch,
	}, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		return nil, err
	}

	return taskendpoint.DeleteTaskRequest{
		TaskID: taskID,
	}, nil
}

// taskIDFromPath maps a malformed id to zero, which the service reports as
// not found once the caller is authenticated.
func taskIDFromPath(r *http.Request) (uint64, error) {
	vars := mux.Vars(r)
	id, ok := vars["task_id"]
	if !ok {
		return 0, ErrBadRouting
	}

	taskID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, nil
	}
	return taskID, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

var errBadBody = fmt.Errorf("%w: request body must be a JSON object", tasksvc.ErrInvalidArgument)

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	return httptransport.EncodeJSONResponse(ctx, w, response)
}

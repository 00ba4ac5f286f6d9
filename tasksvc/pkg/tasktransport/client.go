package tasktransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/tasksvc"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskservice"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// NewHTTPClient returns a taskservice.Service backed by a remote instance of
// the task API. The caller's token is sent as a bearer on every request.
func NewHTTPClient(instance string, logger log.Logger) (taskservice.Service, error) {
	// Quickly sanitize the instance string.
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))

	options := []httptransport.ClientOption{
		httptransport.ClientBefore(kitjwt.ContextToHTTP()),
	}

	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/tasks"),
			encodeHTTPGenericRequest,
			decodeHTTPCreateTaskResponse,
			options...,
		).Endpoint()
		createTaskEndpoint = limiter(createTaskEndpoint)
		createTaskEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "CreateTask",
			Timeout: 30 * time.Second,
		}))(createTaskEndpoint)
		createTaskEndpoint = taskendpoint.LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/tasks"),
			encodeHTTPTasksRequest,
			decodeHTTPTasksResponse,
			options...,
		).Endpoint()
		tasksEndpoint = limiter(tasksEndpoint)
		tasksEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Tasks",
			Timeout: 30 * time.Second,
		}))(tasksEndpoint)
		tasksEndpoint = taskendpoint.LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}

	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/tasks"),
			encodeHTTPTaskRequest,
			decodeHTTPTaskResponse,
			options...,
		).Endpoint()
		taskEndpoint = limiter(taskEndpoint)
		taskEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Task",
			Timeout: 30 * time.Second,
		}))(taskEndpoint)
		taskEndpoint = taskendpoint.LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = httptransport.NewClient(
			"PATCH",
			copyURL(u, "/tasks"),
			encodeHTTPUpdateTaskRequest,
			decodeHTTPUpdateTaskResponse,
			options...,
		).Endpoint()
		updateTaskEndpoint = limiter(updateTaskEndpoint)
		updateTaskEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "UpdateTask",
			Timeout: 30 * time.Second,
		}))(updateTaskEndpoint)
		updateTaskEndpoint = taskendpoint.LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = httptransport.NewClient(
			"DELETE",
			copyURL(u, "/tasks"),
			encodeHTTPDeleteTaskRequest,
			decodeHTTPDeleteTaskResponse,
			options...,
		).Endpoint()
		deleteTaskEndpoint = limiter(deleteTaskEndpoint)
		deleteTaskEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "DeleteTask",
			Timeout: 30 * time.Second,
		}))(deleteTaskEndpoint)
		deleteTaskEndpoint = taskendpoint.LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	return taskendpoint.Set{
		CreateTaskEndpoint: createTaskEndpoint,
		TasksEndpoint:      tasksEndpoint,
		TaskEndpoint:       taskEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = strings.TrimSuffix(base.Path, "/") + path
	return &next
}

// encodeHTTPGenericRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = ioutil.NopCloser(&buf)
	return nil
}

func encodeHTTPTasksRequest(_ context.Context, r *http.Request, request interface{}) error {
	opts := request.(taskendpoint.TasksRequest).Options

	q := r.URL.Query()
	if opts.Completed != nil {
		q.Set("completed", strconv.FormatBool(*opts.Completed))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.SortBy != "" {
		order := "asc"
		if opts.Desc {
			order = "desc"
		}
		q.Set("sortBy", opts.SortBy+":"+order)
	}
	r.URL.RawQuery = q.Encode()

	return nil
}

func encodeHTTPTaskRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(taskendpoint.TaskRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TaskID, 10)
	return nil
}

func encodeHTTPUpdateTaskRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(taskendpoint.UpdateTaskRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TaskID, 10)
	return encodeHTTPGenericRequest(ctx, r, req.Patch)
}

func encodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(taskendpoint.DeleteTaskRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TaskID, 10)
	return nil
}

func decodeHTTPCreateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	task, err := decodeTask(r)
	return taskendpoint.CreateTaskResponse{Task: task, Err: err}, nil
}

func decodeHTTPTasksResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return taskendpoint.TasksResponse{Err: decodeError(r)}, nil
	}
	var tasks []tasksvc.Task
	if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
		return nil, err
	}
	return taskendpoint.TasksResponse{Tasks: tasks}, nil
}

func decodeHTTPTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	task, err := decodeTask(r)
	return taskendpoint.TaskResponse{Task: task, Err: err}, nil
}

func decodeHTTPUpdateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	task, err := decodeTask(r)
	return taskendpoint.UpdateTaskResponse{Task: task, Err: err}, nil
}

func decodeHTTPDeleteTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	task, err := decodeTask(r)
	return taskendpoint.DeleteTaskResponse{Task: task, Err: err}, nil
}

func decodeTask(r *http.Response) (tasksvc.Task, error) {
	if r.StatusCode != http.StatusOK && r.StatusCode != http.StatusCreated {
		return tasksvc.Task{}, decodeError(r)
	}
	var task tasksvc.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		return tasksvc.Task{}, err
	}
	return task, nil
}

// decodeError turns an error response back into the sentinel the server
// mapped to its status code.
func decodeError(r *http.Response) error {
	var w errorWrapper
	if err := json.NewDecoder(r.Body).Decode(&w); err != nil || w.Error == "" {
		w.Error = r.Status
	}

	switch r.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", tasksvc.ErrInvalidArgument, strings.TrimPrefix(w.Error, tasksvc.ErrInvalidArgument.Error()+": "))
	case http.StatusUnauthorized:
		return authsvc.ErrUnauthorized
	case http.StatusNotFound:
		return tasksvc.ErrTaskNotFound
	}
	return errors.New(w.Error)
}

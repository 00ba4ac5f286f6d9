package taskendpoint

import (
	"context"
	"encoding/json"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/tasksvc"
	"github.com/ichigozero/taskapi/tasksvc/pkg/taskservice"
)

type Set struct {
	CreateTaskEndpoint endpoint.Endpoint
	TasksEndpoint      endpoint.Endpoint
	TaskEndpoint       endpoint.Endpoint
	UpdateTaskEndpoint endpoint.Endpoint
	DeleteTaskEndpoint endpoint.Endpoint
}

// New wraps every endpoint with authn, which must resolve the caller into
// an authsvc.Auth on the context.
func New(svc taskservice.Service, authn endpoint.Middleware, logger log.Logger) Set {
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = authn(createTaskEndpoint)
		createTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}
	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = authn(tasksEndpoint)
		tasksEndpoint = LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}
	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = MakeTaskEndpoint(svc)
		taskEndpoint = authn(taskEndpoint)
		taskEndpoint = LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = MakeUpdateTaskEndpoint(svc)
		updateTaskEndpoint = authn(updateTaskEndpoint)
		updateTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = authn(deleteTaskEndpoint)
		deleteTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	return Set{
		CreateTaskEndpoint: createTaskEndpoint,
		TasksEndpoint:      tasksEndpoint,
		TaskEndpoint:       taskEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
	}
}

// The Set methods implement taskservice.Service on top of client endpoints.
// The caller's token travels in the context for kitjwt.ContextToHTTP.

func (s Set) CreateTask(ctx context.Context, a authsvc.Auth, description string, completed *bool) (tasksvc.Task, error) {
	resp, err := s.CreateTaskEndpoint(withToken(ctx, a), CreateTaskRequest{Description: description, Completed: completed})
	if err != nil {
		return tasksvc.Task{}, err
	}
	response := resp.(CreateTaskResponse)
	return response.Task, response.Err
}

func (s Set) Tasks(ctx context.Context, a authsvc.Auth, opts tasksvc.ListOptions) ([]tasksvc.Task, error) {
	resp, err := s.TasksEndpoint(withToken(ctx, a), TasksRequest{Options: opts})
	if err != nil {
		return nil, err
	}
	response := resp.(TasksResponse)
	return response.Tasks, response.Err
}

func (s Set) Task(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error) {
	resp, err := s.TaskEndpoint(withToken(ctx, a), TaskRequest{TaskID: taskID})
	if err != nil {
		return tasksvc.Task{}, err
	}
	response := resp.(TaskResponse)
	return response.Task, response.Err
}

func (s Set) UpdateTask(ctx context.Context, a authsvc.Auth, taskID uint64, patch tasksvc.Patch) (tasksvc.Task, error) {
	resp, err := s.UpdateTaskEndpoint(withToken(ctx, a), UpdateTaskRequest{TaskID: taskID, Patch: patch})
	if err != nil {
		return tasksvc.Task{}, err
	}
	response := resp.(UpdateTaskResponse)
	return response.Task, response.Err
}

func (s Set) DeleteTask(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error) {
	resp, err := s.DeleteTaskEndpoint(withToken(ctx, a), DeleteTaskRequest{TaskID: taskID})
	if err != nil {
		return tasksvc.Task{}, err
	}
	response := resp.(DeleteTaskResponse)
	return response.Task, response.Err
}

func withToken(ctx context.Context, a authsvc.Auth) context.Context {
	return context.WithValue(ctx, kitjwt.JWTContextKey, a.Token)
}

func MakeCreateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return CreateTaskResponse{Err: err}, nil
		}

		req := request.(CreateTaskRequest)
		if req.Err != nil {
			return CreateTaskResponse{Err: req.Err}, nil
		}
		t, err := s.CreateTask(ctx, auth, req.Description, req.Completed)
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return TasksResponse{Err: err}, nil
		}

		req := request.(TasksRequest)
		if req.Err != nil {
			return TasksResponse{Err: req.Err}, nil
		}
		t, err := s.Tasks(ctx, auth, req.Options)
		return TasksResponse{Tasks: t, Err: err}, nil
	}
}

func MakeTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		t, err := s.Task(ctx, auth, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return UpdateTaskResponse{Err: err}, nil
		}

		req := request.(UpdateTaskRequest)
		if req.Err != nil {
			return UpdateTaskResponse{Err: req.Err}, nil
		}
		t, err := s.UpdateTask(ctx, auth, req.TaskID, req.Patch)
		return UpdateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := authsvc.FromContext(ctx)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}

		req := request.(DeleteTaskRequest)
		t, err := s.DeleteTask(ctx, auth, req.TaskID)
		return DeleteTaskResponse{Task: t, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = UpdateTaskResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
)

// Err on a request holds a decoding failure. It is reported only after the
// caller has been authenticated.
type CreateTaskRequest struct {
	Description string `json:"description"`
	Completed   *bool  `json:"completed,omitempty"`
	Err         error  `json:"-"`
}

type CreateTaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r CreateTaskResponse) Failed() error                { return r.Err }
func (r CreateTaskResponse) StatusCode() int              { return http.StatusCreated }
func (r CreateTaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type TasksRequest struct {
	Options tasksvc.ListOptions
	Err     error
}

type TasksResponse struct {
	Tasks []tasksvc.Task
	Err   error
}

func (r TasksResponse) Failed() error { return r.Err }

func (r TasksResponse) MarshalJSON() ([]byte, error) {
	if r.Tasks == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Tasks)
}

type TaskRequest struct {
	TaskID uint64
}

type TaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r TaskResponse) Failed() error                { return r.Err }
func (r TaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type UpdateTaskRequest struct {
	TaskID uint64
	Patch  tasksvc.Patch
	Err    error
}

type UpdateTaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r UpdateTaskResponse) Failed() error                { return r.Err }
func (r UpdateTaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

type DeleteTaskRequest struct {
	TaskID uint64
}

type DeleteTaskResponse struct {
	Task tasksvc.Task
	Err  error
}

func (r DeleteTaskResponse) Failed() error                { return r.Err }
func (r DeleteTaskResponse) MarshalJSON() ([]byte, error) { return json.Marshal(r.Task) }

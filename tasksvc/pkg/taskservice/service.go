package taskservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/taskapi/authsvc"
	"github.com/ichigozero/taskapi/tasksvc"
)

// Service is scoped to the authenticated caller: every method takes the
// caller's Auth and only ever reaches tasks owned by a.UserID.
type Service interface {
	CreateTask(ctx context.Context, a authsvc.Auth, description string, completed *bool) (tasksvc.Task, error)
	Tasks(ctx context.Context, a authsvc.Auth, opts tasksvc.ListOptions) ([]tasksvc.Task, error)
	Task(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error)
	UpdateTask(ctx context.Context, a authsvc.Auth, taskID uint64, patch tasksvc.Patch) (tasksvc.Task, error)
	DeleteTask(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error)
}

func New(t tasksvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks tasksvc.TaskRepository
}

func NewBasicService(t tasksvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) CreateTask(ctx context.Context, a authsvc.Auth, description string, completed *bool) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}

	task, err := tasksvc.NewTask(a.UserID, description, completed)
	if err != nil {
		return tasksvc.Task{}, err
	}

	return s.tasks.Create(ctx, task)
}

func (s basicService) Tasks(ctx context.Context, a authsvc.Auth, opts tasksvc.ListOptions) ([]tasksvc.Task, error) {
	if a.UserID == 0 {
		return nil, tasksvc.ErrInvalidArgument
	}
	return s.tasks.FindAll(ctx, a.UserID, opts)
}

func (s basicService) Task(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return s.tasks.Find(ctx, a.UserID, taskID)
}

func (s basicService) UpdateTask(ctx context.Context, a authsvc.Auth, taskID uint64, patch tasksvc.Patch) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	task, err := s.tasks.Find(ctx, a.UserID, taskID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	task, err = patch.Apply(task)
	if err != nil {
		return tasksvc.Task{}, err
	}

	return s.tasks.Update(ctx, task)
}

func (s basicService) DeleteTask(ctx context.Context, a authsvc.Auth, taskID uint64) (tasksvc.Task, error) {
	if a.UserID == 0 {
		return tasksvc.Task{}, tasksvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}
	return s.tasks.Delete(ctx, a.UserID, taskID)
}

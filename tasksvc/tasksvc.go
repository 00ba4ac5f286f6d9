package tasksvc

import (
	"context"
	"errors"
	"time"
)

type Task struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Description string    `json:"description" gorm:"not null"`
	Completed   bool      `json:"completed" gorm:"not null"`
	Owner       uint64    `json:"owner" gorm:"index;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TaskRepository interface {
	Create(ctx context.Context, task Task) (Task, error)
	FindAll(ctx context.Context, owner uint64, opts ListOptions) ([]Task, error)
	Find(ctx context.Context, owner, taskID uint64) (Task, error)
	Update(ctx context.Context, task Task) (Task, error)
	Delete(ctx context.Context, owner, taskID uint64) (Task, error)
	DeleteAll(ctx context.Context, owner uint64) error
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTaskNotFound    = errors.New("task not found")
)

package gorm

import (
	"context"
	"errors"
	"math"

	"github.com/ichigozero/taskapi/tasksvc"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type taskRepository struct {
	db *libgorm.DB
}

func NewTaskRepository(db *libgorm.DB) tasksvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) Create(ctx context.Context, task tasksvc.Task) (tasksvc.Task, error) {
	task.ID = 0
	result := t.db.WithContext(ctx).Create(&task)

	return task, result.Error
}

func (t taskRepository) FindAll(ctx context.Context, owner uint64, opts tasksvc.ListOptions) ([]tasksvc.Task, error) {
	q := t.db.WithContext(ctx).Where("owner = ?", owner)
	if opts.Completed != nil {
		q = q.Where("completed = ?", *opts.Completed)
	}
	if col := opts.Column(); col != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: opts.Desc})
	}
	q = q.Order("id")
	switch {
	case opts.Limit > 0:
		q = q.Limit(opts.Limit)
	case opts.Skip > 0:
		// SQLite rejects OFFSET without LIMIT.
		q = q.Limit(math.MaxInt32)
	}
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}

	tasks := []tasksvc.Task{}
	result := q.Find(&tasks)

	return tasks, result.Error
}

func (t taskRepository) Find(ctx context.Context, owner, taskID uint64) (tasksvc.Task, error) {
	var task tasksvc.Task
	result := t.db.WithContext(ctx).Where("id = ? AND owner = ?", taskID, owner).First(&task)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return task, result.Error
}

func (t taskRepository) Update(ctx context.Context, task tasksvc.Task) (tasksvc.Task, error) {
	tk, err := t.Find(ctx, task.Owner, task.ID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	result := t.db.WithContext(ctx).Model(&tk).Updates(
		map[string]interface{}{
			"description": task.Description,
			"completed":   task.Completed,
		})
	if result.Error != nil {
		return tasksvc.Task{}, result.Error
	}

	return t.Find(ctx, task.Owner, task.ID)
}

func (t taskRepository) Delete(ctx context.Context, owner, taskID uint64) (tasksvc.Task, error) {
	task, err := t.Find(ctx, owner, taskID)
	if err != nil {
		return tasksvc.Task{}, err
	}

	result := t.db.WithContext(ctx).Where("owner = ?", owner).Delete(&task)
	if result.Error != nil {
		return tasksvc.Task{}, result.Error
	}
	if result.RowsAffected == 0 {
		return tasksvc.Task{}, tasksvc.ErrTaskNotFound
	}

	return task, nil
}

func (t taskRepository) DeleteAll(ctx context.Context, owner uint64) error {
	return t.db.WithContext(ctx).Where("owner = ?", owner).Delete(&tasksvc.Task{}).Error
}

func Migrate(db *libgorm.DB) error {
	return db.AutoMigrate(&tasksvc.Task{})
}

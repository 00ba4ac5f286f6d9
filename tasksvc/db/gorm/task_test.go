package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/ichigozero/taskapi/tasksvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *libgorm.DB {
	t.Helper()

	db, err := libgorm.Open(sqlite.Open("file::memory:"), &libgorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seed(t *testing.T, repo tasksvc.TaskRepository, owner uint64, descriptions ...string) []tasksvc.Task {
	t.Helper()

	var tasks []tasksvc.Task
	for i, d := range descriptions {
		task, err := repo.Create(context.Background(), tasksvc.Task{
			Owner:       owner,
			Description: d,
			Completed:   i%2 == 1,
		})
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	return tasks
}

func TestTaskRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	mine := seed(t, repo, 1, "mine")
	theirs := seed(t, repo, 2, "theirs")

	got, err := repo.Find(ctx, 1, mine[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Description)

	_, err = repo.Find(ctx, 1, theirs[0].ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = repo.Update(ctx, tasksvc.Task{ID: theirs[0].ID, Owner: 1, Description: "stolen"})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = repo.Delete(ctx, 1, theirs[0].ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	got, err = repo.Find(ctx, 2, theirs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "theirs", got.Description)
}

func TestTaskRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))
	task := seed(t, repo, 1, "first")[0]

	task.Description = "renamed"
	task.Completed = true
	got, err := repo.Update(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Description)
	assert.True(t, got.Completed)
	assert.Equal(t, uint64(1), got.Owner)

	// Completed back to false must not be skipped as a zero value.
	got.Completed = false
	got, err = repo.Update(ctx, got)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestTaskRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))
	task := seed(t, repo, 1, "first")[0]

	deleted, err := repo.Delete(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	assert.Equal(t, "first", deleted.Description)

	_, err = repo.Find(ctx, 1, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	_, err = repo.Delete(ctx, 1, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestTaskRepositoryFindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	seed(t, repo, 1, "c", "a", "d", "b")
	seed(t, repo, 2, "other")

	descriptions := func(tasks []tasksvc.Task) []string {
		out := []string{}
		for _, task := range tasks {
			out = append(out, task.Description)
		}
		return out
	}

	all, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "d", "b"}, descriptions(all))

	done := true
	completed, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, descriptions(completed))

	sorted, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{SortBy: "description", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, descriptions(sorted))

	page, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{SortBy: "description", Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, descriptions(page))

	rest, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{Skip: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, descriptions(rest))

	none, err := repo.FindAll(ctx, 3, tasksvc.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTaskRepositoryTimestamps(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	task := seed(t, repo, 1, "first")[0]

	assert.WithinDuration(t, time.Now(), task.CreatedAt, time.Minute)
	assert.WithinDuration(t, time.Now(), task.UpdatedAt, time.Minute)
}

func TestTaskRepositoryDeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	seed(t, repo, 1, "a", "b")
	seed(t, repo, 2, "c")

	require.NoError(t, repo.DeleteAll(ctx, 1))

	mine, err := repo.FindAll(ctx, 1, tasksvc.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.FindAll(ctx, 2, tasksvc.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	// Nothing left to delete is not an error.
	assert.NoError(t, repo.DeleteAll(ctx, 1))
}

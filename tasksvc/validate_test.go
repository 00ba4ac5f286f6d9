package tasksvc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask(1, "  Buy milk  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Description)
	assert.False(t, task.Completed)
	assert.Equal(t, uint64(1), task.Owner)

	done := true
	task, err = NewTask(1, "Walk dog", &done)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	_, err = NewTask(1, "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewTask(0, "Buy milk", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPatchApply(t *testing.T) {
	orig := Task{ID: 7, Owner: 1, Description: "Buy milk"}

	tests := []struct {
		name    string
		body    string
		want    Task
		wantErr bool
	}{
		{
			name: "completed",
			body: `{"completed": true}`,
			want: Task{ID: 7, Owner: 1, Description: "Buy milk", Completed: true},
		},
		{
			name: "description is trimmed",
			body: `{"description": " Buy bread "}`,
			want: Task{ID: 7, Owner: 1, Description: "Buy bread"},
		},
		{
			name:    "owner is not allowed",
			body:    `{"owner": 2}`,
			wantErr: true,
		},
		{
			name:    "unknown key with a valid one",
			body:    `{"completed": true, "foo": 1}`,
			wantErr: true,
		},
		{
			name:    "completed must be a boolean",
			body:    `{"completed": "yes"}`,
			wantErr: true,
		},
		{
			name:    "completed must not be null",
			body:    `{"completed": null}`,
			wantErr: true,
		},
		{
			name:    "description must not be null",
			body:    `{"description": null}`,
			wantErr: true,
		},
		{
			name:    "empty description",
			body:    `{"description": ""}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Patch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			got, err := p.Apply(orig)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, Task{ID: 7, Owner: 1, Description: "Buy milk"}, orig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatchApplyNullKeepsCompleted(t *testing.T) {
	orig := Task{ID: 7, Owner: 1, Description: "Buy milk", Completed: true}

	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"completed":null}`), &p))

	_, err := p.Apply(orig)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, orig.Completed)
}

func TestParseListOptions(t *testing.T) {
	opts, err := ParseListOptions("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, ListOptions{}, opts)

	opts, err = ParseListOptions("true", "10", "20", "createdAt:desc")
	require.NoError(t, err)
	require.NotNil(t, opts.Completed)
	assert.True(t, *opts.Completed)
	assert.Equal(t, 10, opts.Limit)
	assert.Equal(t, 20, opts.Skip)
	assert.Equal(t, "createdAt", opts.SortBy)
	assert.True(t, opts.Desc)
	assert.Equal(t, "created_at", opts.Column())

	opts, err = ParseListOptions("false", "", "", "description")
	require.NoError(t, err)
	assert.False(t, *opts.Completed)
	assert.False(t, opts.Desc)

	for _, bad := range [][4]string{
		{"maybe", "", "", ""},
		{"", "-1", "", ""},
		{"", "ten", "", ""},
		{"", "", "-5", ""},
		{"", "", "", "owner:asc"},
		{"", "", "", "createdAt:up"},
	} {
		_, err := ParseListOptions(bad[0], bad[1], bad[2], bad[3])
		assert.ErrorIs(t, err, ErrInvalidArgument, "%v", bad)
	}
}

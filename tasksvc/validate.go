package tasksvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func checkDescription(description string) error {
	if err := validate.Var(description, "required"); err != nil {
		return fmt.Errorf("%w: description is required", ErrInvalidArgument)
	}
	return nil
}

// NewTask validates input for a task owned by owner.
func NewTask(owner uint64, description string, completed *bool) (Task, error) {
	if owner == 0 {
		return Task{}, ErrInvalidArgument
	}

	t := Task{Owner: owner, Description: strings.TrimSpace(description)}
	if err := checkDescription(t.Description); err != nil {
		return Task{}, err
	}
	if completed != nil {
		t.Completed = *completed
	}

	return t, nil
}

// Patch is a partial update of a task keyed by JSON field name.
type Patch map[string]json.RawMessage

// Apply returns a copy of t with the patch applied. Only description and
// completed may be changed.
func (p Patch) Apply(t Task) (Task, error) {
	for k, raw := range p {
		if k != "description" && k != "completed" {
			return Task{}, fmt.Errorf("%w: invalid update %q", ErrInvalidArgument, k)
		}
		if isNull(raw) {
			return Task{}, fmt.Errorf("%w: %s must not be null", ErrInvalidArgument, k)
		}
	}

	if raw, ok := p["description"]; ok {
		var description string
		if err := json.Unmarshal(raw, &description); err != nil {
			return Task{}, fmt.Errorf("%w: description must be a string", ErrInvalidArgument)
		}
		t.Description = strings.TrimSpace(description)
		if err := checkDescription(t.Description); err != nil {
			return Task{}, err
		}
	}
	if raw, ok := p["completed"]; ok {
		var completed bool
		if err := json.Unmarshal(raw, &completed); err != nil {
			return Task{}, fmt.Errorf("%w: completed must be a boolean", ErrInvalidArgument)
		}
		t.Completed = completed
	}

	return t, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

type ListOptions struct {
	Completed *bool
	Limit     int
	Skip      int
	SortBy    string
	Desc      bool
}

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"description": "description",
	"completed":   "completed",
}

// Column returns the database column to order by, or "" for store order.
func (o ListOptions) Column() string {
	return sortColumns[o.SortBy]
}

// ParseListOptions reads the completed, limit, skip and sortBy query values.
// Empty values are ignored. sortBy has the form field:asc or field:desc.
func ParseListOptions(completed, limit, skip, sortBy string) (ListOptions, error) {
	var opts ListOptions

	if completed != "" {
		c, err := strconv.ParseBool(completed)
		if err != nil {
			return ListOptions{}, fmt.Errorf("%w: completed must be true or false", ErrInvalidArgument)
		}
		opts.Completed = &c
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return ListOptions{}, fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidArgument)
		}
		opts.Limit = n
	}
	if skip != "" {
		n, err := strconv.Atoi(skip)
		if err != nil || n < 0 {
			return ListOptions{}, fmt.Errorf("%w: skip must be a non-negative integer", ErrInvalidArgument)
		}
		opts.Skip = n
	}
	if sortBy != "" {
		parts := strings.SplitN(sortBy, ":", 2)
		if _, ok := sortColumns[parts[0]]; !ok {
			return ListOptions{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, parts[0])
		}
		opts.SortBy = parts[0]
		if len(parts) == 2 {
			switch parts[1] {
			case "asc":
			case "desc":
				opts.Desc = true
			default:
				return ListOptions{}, fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidArgument)
			}
		}
	}

	return opts, nil
}

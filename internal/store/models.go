package store

import (
	"errors"
	"fmt"
	"strconv"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusError     Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusDeleted, StatusError:
		return true
	}
	return false
}

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")
)

// Task represents a single sub-task of a query.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Validate checks that the task has all required fields.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if t.Description == "" {
		return fmt.Errorf("%w: task %s: description is required", ErrInvalidTask, t.ID)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: task %s: unknown status %q", ErrInvalidTask, t.ID, t.Status)
	}
	return nil
}

// Result is the tool output recorded for a task. TaskID is a lookup key only;
// the task may be deleted later while its result remains.
type Result struct {
	TaskID string `json:"task_id"`
	Text   string `json:"result"`
}

// TaskList is an ordered set of tasks. List order is execution order.
type TaskList []Task

// Validate checks every task and that ids are unique.
func (l TaskList) Validate() error {
	seen := make(map[string]bool, len(l))
	for _, t := range l {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidTask, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (l TaskList) Clone() TaskList {
	if l == nil {
		return nil
	}
	out := make(TaskList, len(l))
	copy(out, l)
	return out
}

// NextID returns len+1, moved past the highest numeric id so that a list with
// gaps (after compaction) never hands out an id twice.
func (l TaskList) NextID() string {
	next := len(l) + 1
	for _, t := range l {
		if n, err := strconv.Atoi(t.ID); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

// Add appends a pending task and returns it.
func (l *TaskList) Add(description string) Task {
	t := Task{ID: l.NextID(), Description: description, Status: StatusPending}
	*l = append(*l, t)
	return t
}

func (l TaskList) Get(id string) (*Task, bool) {
	for i := range l {
		if l[i].ID == id {
			return &l[i], true
		}
	}
	return nil, false
}

// Edit replaces the description of a task and puts it back to pending.
func (l TaskList) Edit(id, description string) error {
	t, ok := l.Get(id)
	if !ok || t.Status == StatusDeleted {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if description == "" {
		return fmt.Errorf("%w: task %s: description is required", ErrInvalidTask, id)
	}
	t.Description = description
	t.Status = StatusPending
	return nil
}

// Delete marks a task deleted. The entry stays until Compact.
func (l TaskList) Delete(id string) error {
	t, ok := l.Get(id)
	if !ok || t.Status == StatusDeleted {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Status = StatusDeleted
	return nil
}

// Active returns the tasks that are not deleted.
func (l TaskList) Active() TaskList {
	out := make(TaskList, 0, len(l))
	for _, t := range l {
		if t.Status != StatusDeleted {
			out = append(out, t)
		}
	}
	return out
}

// Compact is Active under the name used after a refinement pass.
func (l TaskList) Compact() TaskList {
	return l.Active()
}

// Approve marks every non-deleted task completed, whether or not it ran.
func (l TaskList) Approve() {
	for i := range l {
		if l[i].Status != StatusDeleted {
			l[i].Status = StatusCompleted
		}
	}
}

package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrStatusNotFound = errors.New("status not found")
	ErrLabelNotFound  = errors.New("label not found")
	ErrTaskNotFound   = errors.New("task not found")

	ErrUsernameTaken   = errors.New("username already taken")
	ErrStatusNameTaken = errors.New("status name already taken")
	ErrLabelNameTaken  = errors.New("label name already taken")
	ErrTaskNameTaken   = errors.New("task name already taken")

	ErrUserInUse   = errors.New("user is referenced by tasks")
	ErrStatusInUse = errors.New("status is referenced by tasks")
	ErrLabelInUse  = errors.New("label is referenced by tasks")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotOwner           = errors.New("user may only change own account")
	ErrNotTaskAuthor      = errors.New("only the task author may delete it")
)

// User represents a registered account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DateJoined   time.Time `json:"date_joined" db:"date_joined"`

	// SessionVersion is embedded in session tokens; bumping it revokes them.
	SessionVersion int `json:"-" db:"session_version"`
}

// Status is a task state such as "new" or "in progress"
type Status struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Label is a free-form tag attached to tasks
type Label struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Task represents a unit of work with an author and an executor.
// Author, Executor and Status are populated on reads; writes use the ID fields.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	AuthorID    int64     `json:"author_id" db:"author_id"`
	ExecutorID  int64     `json:"executor_id" db:"executor_id"`
	StatusID    int64     `json:"status_id" db:"status_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Author   *User   `json:"author,omitempty" db:"-"`
	Executor *User   `json:"executor,omitempty" db:"-"`
	Status   *Status `json:"status,omitempty" db:"-"`
	Labels   []Label `json:"labels" db:"-"`
}

// TaskLabel is a row of the task/label join table
type TaskLabel struct {
	TaskID  int64 `db:"task_id"`
	LabelID int64 `db:"label_id"`
}

// FullName returns "First Last", falling back to the username
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAuthoredBy reports whether the user wrote the task
func (t *Task) IsAuthoredBy(u *User) bool {
	return u != nil && t.AuthorID == u.ID
}

// HasLabel reports whether the label is attached to the task
func (t *Task) HasLabel(labelID int64) bool {
	for _, l := range t.Labels {
		if l.ID == labelID {
			return true
		}
	}
	return false
}

// LabelIDs returns the ids of attached labels in order
func (t *Task) LabelIDs() []int64 {
	ids := make([]int64, 0, len(t.Labels))
	for _, l := range t.Labels {
		ids = append(ids, l.ID)
	}
	return ids
}

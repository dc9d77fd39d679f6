package ports

import (
	"context"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	BumpSessionVersion(ctx context.Context, id int64) error
	// Delete returns entities.ErrUserInUse while a task still references the user.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*entities.User, error)
}

// StatusRepository defines the interface for status data operations
type StatusRepository interface {
	Create(ctx context.Context, status *entities.Status) error
	GetByID(ctx context.Context, id int64) (*entities.Status, error)
	GetByName(ctx context.Context, name string) (*entities.Status, error)
	Update(ctx context.Context, status *entities.Status) error
	// Delete returns entities.ErrStatusInUse while a task still references the status.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*entities.Status, error)
}

// LabelRepository defines the interface for label data operations
type LabelRepository interface {
	Create(ctx context.Context, label *entities.Label) error
	GetByID(ctx context.Context, id int64) (*entities.Label, error)
	GetByName(ctx context.Context, name string) (*entities.Label, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.Label, error)
	Update(ctx context.Context, label *entities.Label) error
	// Delete returns entities.ErrLabelInUse while a task still references the label.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*entities.Label, error)
}

// TaskRepository defines the interface for task data operations.
// Reads return tasks with Author, Executor, Status and Labels populated.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task, labelIDs []int64) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	GetByName(ctx context.Context, name string) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task, labelIDs []int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
}

// TaskFilter narrows the task list. Nil fields apply no restriction and
// set fields combine with AND.
type TaskFilter struct {
	StatusID   *int64
	ExecutorID *int64
	LabelID    *int64
	AuthorID   *int64
}

// IsEmpty reports whether no restriction is set
func (f TaskFilter) IsEmpty() bool {
	return f.StatusID == nil && f.ExecutorID == nil && f.LabelID == nil && f.AuthorID == nil
}

package ports

import (
	"context"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
)

// AuthService interface for session authentication
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*entities.User, string, error)
	ValidateToken(tokenString string) (*Claims, error)
	ResolveUser(ctx context.Context, tokenString string) (*entities.User, error)
	Logout(ctx context.Context, userID int64) error
}

// UserService interface for account management
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*entities.User, error)
	GetUser(ctx context.Context, id int64) (*entities.User, error)
	UpdateUser(ctx context.Context, actor *entities.User, id int64, req UpdateUserRequest) (*entities.User, error)
	DeleteUser(ctx context.Context, actor *entities.User, id int64) error
	ListUsers(ctx context.Context) ([]*entities.User, error)
}

// StatusService interface for status management
type StatusService interface {
	CreateStatus(ctx context.Context, req NameRequest) (*entities.Status, error)
	GetStatus(ctx context.Context, id int64) (*entities.Status, error)
	UpdateStatus(ctx context.Context, id int64, req NameRequest) (*entities.Status, error)
	DeleteStatus(ctx context.Context, id int64) error
	ListStatuses(ctx context.Context) ([]*entities.Status, error)
}

// LabelService interface for label management
type LabelService interface {
	CreateLabel(ctx context.Context, req NameRequest) (*entities.Label, error)
	GetLabel(ctx context.Context, id int64) (*entities.Label, error)
	UpdateLabel(ctx context.Context, id int64, req NameRequest) (*entities.Label, error)
	DeleteLabel(ctx context.Context, id int64) error
	ListLabels(ctx context.Context) ([]*entities.Label, error)
}

// TaskService interface for task management
type TaskService interface {
	CreateTask(ctx context.Context, author *entities.User, req TaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, id int64) (*entities.Task, error)
	UpdateTask(ctx context.Context, id int64, req TaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, actor *entities.User, id int64) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
}

// Auth related types
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Version  int    `json:"ver"`
}

// User related types
type RegisterUserRequest struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Password1 string `form:"password1" validate:"required,min=3"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// UpdateUserRequest keeps the current password when both password fields are empty
type UpdateUserRequest struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Password1 string `form:"password1" validate:"omitempty,min=3"`
	Password2 string `form:"password2" validate:"eqfield=Password1"`
}

// NameRequest is the form shared by statuses and labels
type NameRequest struct {
	Name string `form:"name" validate:"required,max=150"`
}

// Task related types
type TaskRequest struct {
	Name        string  `form:"name" validate:"required,max=150"`
	Description string  `form:"description" validate:"required,max=1024"`
	StatusID    int64   `form:"status" validate:"required"`
	ExecutorID  int64   `form:"executor" validate:"required"`
	LabelIDs    []int64 `form:"labels"`
}

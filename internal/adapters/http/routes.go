package http

import (
	"fmt"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// Handlers groups every page handler
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Statuses *StatusHandler
	Labels   *LabelHandler
	Tasks    *TaskHandler
}

// RegisterRoutes installs the renderer, the form validator, the flash and
// session middleware and every page route on e. flashStore keeps the
// messages cookie.
func RegisterRoutes(e *echo.Echo, h *Handlers, g *Guards, flashStore sessions.Store) error {
	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	e.Renderer = renderer
	e.Validator = NewValidator()

	e.Use(session.Middleware(flashStore), Flashes(), g.Authenticate)

	e.GET("/", h.Auth.Index)
	e.GET("/login/", h.Auth.LoginForm)
	e.POST("/login/", h.Auth.Login)
	e.GET("/logout/", h.Auth.Logout)
	e.POST("/logout/", h.Auth.Logout)

	// Registration and the user list are public
	users := e.Group("/users")
	users.GET("/", h.Users.ListUsers)
	users.GET("/create/", h.Users.CreateForm)
	users.POST("/create/", h.Users.CreateUser)
	users.GET("/:id/update/", h.Users.UpdateForm, g.RequireLogin, g.RequireSelf)
	users.POST("/:id/update/", h.Users.UpdateUser, g.RequireLogin, g.RequireSelf)
	users.GET("/:id/delete/", h.Users.DeleteForm, g.RequireLogin, g.RequireSelf)
	users.POST("/:id/delete/", h.Users.DeleteUser, g.RequireLogin, g.RequireSelf)

	statuses := e.Group("/statuses", g.RequireLogin)
	statuses.GET("/", h.Statuses.ListStatuses)
	statuses.GET("/create/", h.Statuses.CreateForm)
	statuses.POST("/create/", h.Statuses.CreateStatus)
	statuses.GET("/:id/update/", h.Statuses.UpdateForm)
	statuses.POST("/:id/update/", h.Statuses.UpdateStatus)
	statuses.GET("/:id/delete/", h.Statuses.DeleteForm)
	statuses.POST("/:id/delete/", h.Statuses.DeleteStatus)

	labels := e.Group("/labels", g.RequireLogin)
	labels.GET("/", h.Labels.ListLabels)
	labels.GET("/create/", h.Labels.CreateForm)
	labels.POST("/create/", h.Labels.CreateLabel)
	labels.GET("/:id/update/", h.Labels.UpdateForm)
	labels.POST("/:id/update/", h.Labels.UpdateLabel)
	labels.GET("/:id/delete/", h.Labels.DeleteForm)
	labels.POST("/:id/delete/", h.Labels.DeleteLabel)

	tasks := e.Group("/tasks", g.RequireLogin)
	tasks.GET("/", h.Tasks.ListTasks)
	tasks.GET("/create/", h.Tasks.CreateForm)
	tasks.POST("/create/", h.Tasks.CreateTask)
	tasks.GET("/:id/", h.Tasks.ShowTask)
	tasks.GET("/:id/update/", h.Tasks.UpdateForm)
	tasks.POST("/:id/update/", h.Tasks.UpdateTask)
	tasks.GET("/:id/delete/", h.Tasks.DeleteForm, g.RequireTaskAuthor)
	tasks.POST("/:id/delete/", h.Tasks.DeleteTask, g.RequireTaskAuthor)

	return nil
}

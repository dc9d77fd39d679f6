package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// Guard messages
const (
	msgNotLoggedIn   = "You are not logged in! Please log in."
	msgNotOwner      = "You have no rights to change another user."
	msgNotTaskAuthor = "Only the author of the task can delete it"
)

// Guards holds the request gates applied per route
type Guards struct {
	authService ports.AuthService
	userService ports.UserService
	taskService ports.TaskService
	session     config.SessionConfig
	logger      *logger.Logger
}

// NewGuards creates the authentication, ownership and authorship gates
func NewGuards(authService ports.AuthService, userService ports.UserService, taskService ports.TaskService, session config.SessionConfig, logger *logger.Logger) *Guards {
	return &Guards{
		authService: authService,
		userService: userService,
		taskService: taskService,
		session:     session,
		logger:      logger,
	}
}

// Authenticate resolves the session cookie into the current user. Invalid
// tokens and tokens of deleted users leave the request anonymous and clear
// the cookie.
func (g *Guards) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(g.session.CookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		user, err := g.authService.ResolveUser(c.Request().Context(), cookie.Value)
		if err != nil {
			g.logger.Debugw("Discarding session cookie", "error", err, "ip", c.RealIP())
			clearSessionCookie(c, g.session)
			return next(c)
		}

		SetCurrentUser(c, user)
		return next(c)
	}
}

// RequireLogin sends anonymous visitors to the login page
func (g *Guards) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return next(c)
		}

		g.logger.LogSecurityEvent("login_required", 0, c.RealIP(), map[string]interface{}{
			"method":   c.Request().Method,
			"endpoint": c.Request().URL.Path,
		})
		AddFlash(c, FlashError, msgNotLoggedIn)
		return redirect(c, "/login/")
	}
}

// RequireSelf allows a user to reach only their own /users/:id/ pages.
// Unknown ids are 404. It must run after RequireLogin.
func (g *Guards) RequireSelf(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		if _, err := g.userService.GetUser(c.Request().Context(), id); err != nil {
			if errors.Is(err, entities.ErrUserNotFound) {
				return echo.ErrNotFound
			}
			return err
		}

		user := CurrentUser(c)
		if user != nil && user.ID == id {
			return next(c)
		}

		g.logger.LogSecurityEvent("foreign_account_change", userIDOf(user), c.RealIP(), map[string]interface{}{
			"target_user_id": id,
			"endpoint":       c.Request().URL.Path,
		})
		AddFlash(c, FlashError, msgNotOwner)
		return redirect(c, "/users/")
	}
}

// RequireTaskAuthor allows only the author through to a task's delete pages.
// It must run after RequireLogin.
func (g *Guards) RequireTaskAuthor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		task, err := g.taskService.GetTask(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, entities.ErrTaskNotFound) {
				return echo.ErrNotFound
			}
			return err
		}

		user := CurrentUser(c)
		if task.IsAuthoredBy(user) {
			return next(c)
		}

		g.logger.LogSecurityEvent("foreign_task_delete", userIDOf(user), c.RealIP(), map[string]interface{}{
			"task_id":  id,
			"endpoint": c.Request().URL.Path,
		})
		AddFlash(c, FlashError, msgNotTaskAuthor)
		return redirect(c, "/tasks/")
	}
}

func userIDOf(user *entities.User) int64 {
	if user == nil {
		return 0
	}
	return user.ID
}

func setSessionCookie(c echo.Context, session config.SessionConfig, token string) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(session.ExpiresIn),
		HttpOnly: true,
		Secure:   session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context, session config.SessionConfig) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

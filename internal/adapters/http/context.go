package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c echo.Context, user *entities.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the authenticated user or nil for anonymous requests
func CurrentUser(c echo.Context) *entities.User {
	user, ok := c.Get(currentUserKey).(*entities.User)
	if !ok {
		return nil
	}
	return user
}

// parseID reads the :id path parameter. Malformed ids are reported as 404.
func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

// parseOptionalID returns nil for empty or non-numeric values
func parseOptionalID(value string) *int64 {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func isChecked(value string) bool {
	switch value {
	case "on", "true", "1":
		return true
	}
	return false
}

func redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusFound, path)
}

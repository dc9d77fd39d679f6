package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

const msgUsernameTaken = "A user with that username already exists."

// UserHandler handles registration and account pages
type UserHandler struct {
	userService ports.UserService
	session     config.SessionConfig
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService ports.UserService, session config.SessionConfig, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		session:     session,
		logger:      logger,
	}
}

// ListUsers renders every registered user
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	return render(c, http.StatusOK, "user_list.html", viewData{
		"Title": "Users",
		"Users": users,
	})
}

// CreateForm renders the registration page
func (h *UserHandler) CreateForm(c echo.Context) error {
	return render(c, http.StatusOK, "user_form.html", registerPage(ports.RegisterUserRequest{}, nil))
}

// CreateUser handles registration
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.RegisterUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return render(c, http.StatusOK, "user_form.html", registerPage(req, errs))
	}

	if _, err := h.userService.Register(c.Request().Context(), req); err != nil {
		if errors.Is(err, entities.ErrUsernameTaken) {
			errs := FormErrors{}
			errs.Add("username", msgUsernameTaken)
			return render(c, http.StatusOK, "user_form.html", registerPage(req, errs))
		}
		h.logger.Errorw("Create user failed", "error", err)
		return err
	}

	AddFlash(c, FlashSuccess, "User has been registered successfully")
	return redirect(c, "/login/")
}

// UpdateForm renders the account edit page
func (h *UserHandler) UpdateForm(c echo.Context) error {
	user := CurrentUser(c)
	req := ports.UpdateUserRequest{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	return render(c, http.StatusOK, "user_form.html", updatePage(user.ID, req, nil))
}

// UpdateUser handles the account edit form. RequireSelf has already
// matched the path id to the current user.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return render(c, http.StatusOK, "user_form.html", updatePage(id, req, errs))
	}

	if _, err := h.userService.UpdateUser(c.Request().Context(), CurrentUser(c), id, req); err != nil {
		switch {
		case errors.Is(err, entities.ErrUsernameTaken):
			errs := FormErrors{}
			errs.Add("username", msgUsernameTaken)
			return render(c, http.StatusOK, "user_form.html", updatePage(id, req, errs))
		case errors.Is(err, entities.ErrNotOwner):
			AddFlash(c, FlashError, msgNotOwner)
			return redirect(c, "/users/")
		case errors.Is(err, entities.ErrUserNotFound):
			return echo.ErrNotFound
		}
		h.logger.WithUserID(id).Errorw("Update user failed", "error", err)
		return err
	}

	AddFlash(c, FlashSuccess, "User has been updated successfully")
	return redirect(c, "/users/")
}

// DeleteForm renders the account delete confirmation
func (h *UserHandler) DeleteForm(c echo.Context) error {
	user := CurrentUser(c)
	return render(c, http.StatusOK, "confirm_delete.html", viewData{
		"Title":  "Delete user",
		"Object": user.FullName(),
		"Action": "/users/" + strconv.FormatInt(user.ID, 10) + "/delete/",
	})
}

// DeleteUser removes the current user's account unless tasks reference it
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.userService.DeleteUser(c.Request().Context(), CurrentUser(c), id); err != nil {
		switch {
		case errors.Is(err, entities.ErrUserInUse):
			AddFlash(c, FlashError, "Unable to delete user because it is in use")
			return redirect(c, "/users/")
		case errors.Is(err, entities.ErrNotOwner):
			AddFlash(c, FlashError, msgNotOwner)
			return redirect(c, "/users/")
		case errors.Is(err, entities.ErrUserNotFound):
			return echo.ErrNotFound
		}
		h.logger.WithUserID(id).Errorw("Delete user failed", "error", err)
		return err
	}

	clearSessionCookie(c, h.session)
	AddFlash(c, FlashSuccess, "User has been deleted successfully")
	return redirect(c, "/users/")
}

func registerPage(req ports.RegisterUserRequest, errs FormErrors) viewData {
	return viewData{
		"Title":  "Sign up",
		"Action": "/users/create/",
		"Button": "Register",
		"Form":   req,
		"Errors": errs,
	}
}

func updatePage(id int64, req ports.UpdateUserRequest, errs FormErrors) viewData {
	return viewData{
		"Title":  "Update user",
		"Action": "/users/" + strconv.FormatInt(id, 10) + "/update/",
		"Button": "Update",
		"Form":   req,
		"Errors": errs,
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/config"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

const msgBadCredentials = "Please enter a correct username and password."

// AuthHandler handles the start page, login and logout
type AuthHandler struct {
	authService ports.AuthService
	session     config.SessionConfig
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, session config.SessionConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
		logger:      logger,
	}
}

// Index renders the start page
func (h *AuthHandler) Index(c echo.Context) error {
	return render(c, http.StatusOK, "index.html", nil)
}

// LoginForm renders the login page
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return render(c, http.StatusOK, "login.html", viewData{
		"Title": "Log in",
		"Form":  ports.LoginRequest{},
	})
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	page := viewData{"Title": "Log in", "Form": req}

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		page["Errors"] = errs
		return render(c, http.StatusOK, "login.html", page)
	}

	_, token, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCredentials) {
			errs := FormErrors{}
			errs.Add(nonFieldErrors, msgBadCredentials)
			page["Errors"] = errs
			return render(c, http.StatusOK, "login.html", page)
		}
		h.logger.Errorw("Login failed", "error", err, "username", req.Username)
		return err
	}

	setSessionCookie(c, h.session, token)
	AddFlash(c, FlashSuccess, "You are logged in")
	return redirect(c, "/")
}

// Logout revokes the user's session tokens and drops the cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	if user := CurrentUser(c); user != nil {
		if err := h.authService.Logout(c.Request().Context(), user.ID); err != nil {
			h.logger.WithUserID(user.ID).Errorw("Logout failed", "error", err)
			return err
		}
	}

	clearSessionCookie(c, h.session)
	AddFlash(c, FlashInfo, "You are logged out")
	return redirect(c, "/")
}

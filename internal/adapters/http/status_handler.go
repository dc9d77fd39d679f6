package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// StatusHandler handles status pages
type StatusHandler struct {
	statusService ports.StatusService
	logger        *logger.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(statusService ports.StatusService, logger *logger.Logger) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
		logger:        logger,
	}
}

// ListStatuses renders every status
func (h *StatusHandler) ListStatuses(c echo.Context) error {
	statuses, err := h.statusService.ListStatuses(c.Request().Context())
	if err != nil {
		return err
	}

	return render(c, http.StatusOK, "status_list.html", viewData{
		"Title":    "Statuses",
		"Statuses": statuses,
	})
}

// CreateForm renders the new status form
func (h *StatusHandler) CreateForm(c echo.Context) error {
	return render(c, http.StatusOK, "name_form.html", statusPage("Create status", "/statuses/create/", "Create", ports.NameRequest{}, nil))
}

// CreateStatus handles the new status form
func (h *StatusHandler) CreateStatus(c echo.Context) error {
	var req ports.NameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Name = strings.TrimSpace(req.Name)

	page := func(errs FormErrors) error {
		return render(c, http.StatusOK, "name_form.html", statusPage("Create status", "/statuses/create/", "Create", req, errs))
	}

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return page(errs)
	}

	status, err := h.statusService.CreateStatus(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrStatusNameTaken) {
			return page(nameTakenErrors("Status"))
		}
		h.logger.Errorw("Create status failed", "error", err)
		return err
	}

	h.logger.LogUserAction(CurrentUser(c).ID, "status_created", map[string]interface{}{"status_id": status.ID})
	AddFlash(c, FlashSuccess, "Status created successfully")
	return redirect(c, "/statuses/")
}

// UpdateForm renders the status edit form
func (h *StatusHandler) UpdateForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	status, err := h.statusService.GetStatus(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrStatusNotFound)
	}

	return render(c, http.StatusOK, "name_form.html", statusPage("Update status", statusURL(id, "update"), "Update", ports.NameRequest{Name: status.Name}, nil))
}

// UpdateStatus handles the status edit form
func (h *StatusHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req ports.NameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Name = strings.TrimSpace(req.Name)

	page := func(errs FormErrors) error {
		return render(c, http.StatusOK, "name_form.html", statusPage("Update status", statusURL(id, "update"), "Update", req, errs))
	}

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return page(errs)
	}

	if _, err := h.statusService.UpdateStatus(c.Request().Context(), id, req); err != nil {
		if errors.Is(err, entities.ErrStatusNameTaken) {
			return page(nameTakenErrors("Status"))
		}
		return notFoundOr(err, entities.ErrStatusNotFound)
	}

	AddFlash(c, FlashSuccess, "Status updated successfully")
	return redirect(c, "/statuses/")
}

// DeleteForm renders the status delete confirmation
func (h *StatusHandler) DeleteForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	status, err := h.statusService.GetStatus(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrStatusNotFound)
	}

	return render(c, http.StatusOK, "confirm_delete.html", viewData{
		"Title":  "Delete status",
		"Object": status.Name,
		"Action": statusURL(id, "delete"),
	})
}

// DeleteStatus removes a status no task uses
func (h *StatusHandler) DeleteStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.statusService.DeleteStatus(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrStatusInUse) {
			AddFlash(c, FlashError, "Unable to delete status because it is in use")
			return redirect(c, "/statuses/")
		}
		return notFoundOr(err, entities.ErrStatusNotFound)
	}

	AddFlash(c, FlashSuccess, "Status deleted successfully")
	return redirect(c, "/statuses/")
}

func statusPage(title, action, button string, req ports.NameRequest, errs FormErrors) viewData {
	return viewData{
		"Title":  title,
		"Action": action,
		"Button": button,
		"Form":   req,
		"Errors": errs,
	}
}

func statusURL(id int64, action string) string {
	return "/statuses/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

// nameTakenErrors is the field error for a duplicate status, label or task name
func nameTakenErrors(entity string) FormErrors {
	errs := FormErrors{}
	errs.Add("name", entity+" with this Name already exists.")
	return errs
}

// notFoundOr maps the given not-found sentinel to a 404
func notFoundOr(err, notFound error) error {
	if errors.Is(err, notFound) {
		return echo.ErrNotFound
	}
	return err
}

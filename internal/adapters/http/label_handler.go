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

// LabelHandler handles label pages
type LabelHandler struct {
	labelService ports.LabelService
	logger       *logger.Logger
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(labelService ports.LabelService, logger *logger.Logger) *LabelHandler {
	return &LabelHandler{
		labelService: labelService,
		logger:       logger,
	}
}

func (h *LabelHandler) ListLabels(c echo.Context) error {
	labels, err := h.labelService.ListLabels(c.Request().Context())
	if err != nil {
		return err
	}

	return render(c, http.StatusOK, "label_list.html", viewData{
		"Title":  "Labels",
		"Labels": labels,
	})
}

func (h *LabelHandler) CreateForm(c echo.Context) error {
	return render(c, http.StatusOK, "name_form.html", labelPage("Create label", "/labels/create/", "Create", ports.NameRequest{}, nil))
}

func (h *LabelHandler) CreateLabel(c echo.Context) error {
	var req ports.NameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.Name = strings.TrimSpace(req.Name)

	page := func(errs FormErrors) error {
		return render(c, http.StatusOK, "name_form.html", labelPage("Create label", "/labels/create/", "Create", req, errs))
	}

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return page(errs)
	}

	label, err := h.labelService.CreateLabel(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrLabelNameTaken) {
			return page(nameTakenErrors("Label"))
		}
		h.logger.Errorw("Create label failed", "error", err)
		return err
	}

	h.logger.LogUserAction(CurrentUser(c).ID, "label_created", map[string]interface{}{"label_id": label.ID})
	AddFlash(c, FlashSuccess, "Label created successfully")
	return redirect(c, "/labels/")
}

func (h *LabelHandler) UpdateForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	label, err := h.labelService.GetLabel(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrLabelNotFound)
	}

	return render(c, http.StatusOK, "name_form.html", labelPage("Update label", labelURL(id, "update"), "Update", ports.NameRequest{Name: label.Name}, nil))
}

func (h *LabelHandler) UpdateLabel(c echo.Context) error {
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
		return render(c, http.StatusOK, "name_form.html", labelPage("Update label", labelURL(id, "update"), "Update", req, errs))
	}

	if err := c.Validate(&req); err != nil {
		errs, ok := formErrorsFrom(err)
		if !ok {
			return err
		}
		return page(errs)
	}

	if _, err := h.labelService.UpdateLabel(c.Request().Context(), id, req); err != nil {
		if errors.Is(err, entities.ErrLabelNameTaken) {
			return page(nameTakenErrors("Label"))
		}
		return notFoundOr(err, entities.ErrLabelNotFound)
	}

	AddFlash(c, FlashSuccess, "Label updated successfully")
	return redirect(c, "/labels/")
}

func (h *LabelHandler) DeleteForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	label, err := h.labelService.GetLabel(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrLabelNotFound)
	}

	return render(c, http.StatusOK, "confirm_delete.html", viewData{
		"Title":  "Delete label",
		"Object": label.Name,
		"Action": labelURL(id, "delete"),
	})
}

// DeleteLabel removes a label unless a task carries it
func (h *LabelHandler) DeleteLabel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.labelService.DeleteLabel(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrLabelInUse) {
			AddFlash(c, FlashError, "Unable to delete label because it is in use")
			return redirect(c, "/labels/")
		}
		return notFoundOr(err, entities.ErrLabelNotFound)
	}

	AddFlash(c, FlashSuccess, "Label deleted successfully")
	return redirect(c, "/labels/")
}

func labelPage(title, action, button string, req ports.NameRequest, errs FormErrors) viewData {
	return viewData{
		"Title":  title,
		"Action": action,
		"Button": button,
		"Form":   req,
		"Errors": errs,
	}
}

func labelURL(id int64, action string) string {
	return "/labels/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

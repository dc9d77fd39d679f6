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

const msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."

// TaskHandler handles task pages
type TaskHandler struct {
	taskService   ports.TaskService
	userService   ports.UserService
	statusService ports.StatusService
	labelService  ports.LabelService
	logger        *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, userService ports.UserService, statusService ports.StatusService, labelService ports.LabelService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		userService:   userService,
		statusService: statusService,
		labelService:  labelService,
		logger:        logger,
	}
}

// ListTasks renders the filtered task list
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{
		StatusID:   parseOptionalID(c.QueryParam("status")),
		ExecutorID: parseOptionalID(c.QueryParam("executor")),
		LabelID:    parseOptionalID(c.QueryParam("label")),
	}

	selfTasks := isChecked(c.QueryParam("self_tasks"))
	if selfTasks {
		id := CurrentUser(c).ID
		filter.AuthorID = &id
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	page, err := h.choices(c)
	if err != nil {
		return err
	}
	page["Title"] = "Tasks"
	page["Tasks"] = tasks
	page["Filter"] = filter
	page["SelfTasks"] = selfTasks

	return render(c, http.StatusOK, "task_list.html", page)
}

// ShowTask renders one task
func (h *TaskHandler) ShowTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrTaskNotFound)
	}

	return render(c, http.StatusOK, "task_detail.html", viewData{
		"Title": task.Name,
		"Task":  task,
	})
}

// CreateForm renders the new task form
func (h *TaskHandler) CreateForm(c echo.Context) error {
	return h.formPage(c, "Create task", "/tasks/create/", "Create", ports.TaskRequest{}, nil)
}

// CreateTask handles the new task form. The author is the current user.
func (h *TaskHandler) CreateTask(c echo.Context) error {
	req, errs, err := bindTaskRequest(c)
	if err != nil {
		return err
	}
	if errs.Any() {
		return h.formPage(c, "Create task", "/tasks/create/", "Create", req, errs)
	}

	if _, err := h.taskService.CreateTask(c.Request().Context(), CurrentUser(c), req); err != nil {
		if errs := taskFieldErrors(err); errs != nil {
			return h.formPage(c, "Create task", "/tasks/create/", "Create", req, errs)
		}
		h.logger.Errorw("Create task failed", "error", err)
		return err
	}

	AddFlash(c, FlashSuccess, "Task created successfully")
	return redirect(c, "/tasks/")
}

// UpdateForm renders the task edit form
func (h *TaskHandler) UpdateForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrTaskNotFound)
	}

	req := ports.TaskRequest{
		Name:        task.Name,
		Description: task.Description,
		StatusID:    task.StatusID,
		ExecutorID:  task.ExecutorID,
		LabelIDs:    task.LabelIDs(),
	}
	return h.formPage(c, "Update task", taskURL(id, "update"), "Update", req, nil)
}

// UpdateTask handles the task edit form
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	req, errs, err := bindTaskRequest(c)
	if err != nil {
		return err
	}
	if errs.Any() {
		return h.formPage(c, "Update task", taskURL(id, "update"), "Update", req, errs)
	}

	if _, err := h.taskService.UpdateTask(c.Request().Context(), id, req); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.ErrNotFound
		}
		if errs := taskFieldErrors(err); errs != nil {
			return h.formPage(c, "Update task", taskURL(id, "update"), "Update", req, errs)
		}
		h.logger.Errorw("Update task failed", "error", err, "task_id", id)
		return err
	}

	AddFlash(c, FlashSuccess, "Task updated successfully")
	return redirect(c, "/tasks/")
}

// DeleteForm renders the task delete confirmation
func (h *TaskHandler) DeleteForm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return notFoundOr(err, entities.ErrTaskNotFound)
	}

	return render(c, http.StatusOK, "confirm_delete.html", viewData{
		"Title":  "Delete task",
		"Object": task.Name,
		"Action": taskURL(id, "delete"),
	})
}

// DeleteTask removes a task. RequireTaskAuthor runs first.
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), CurrentUser(c), id); err != nil {
		if errors.Is(err, entities.ErrNotTaskAuthor) {
			AddFlash(c, FlashError, msgNotTaskAuthor)
			return redirect(c, "/tasks/")
		}
		return notFoundOr(err, entities.ErrTaskNotFound)
	}

	AddFlash(c, FlashSuccess, "Task deleted successfully")
	return redirect(c, "/tasks/")
}

// choices loads the statuses, users and labels offered in task forms
func (h *TaskHandler) choices(c echo.Context) (viewData, error) {
	ctx := c.Request().Context()

	statuses, err := h.statusService.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := h.labelService.ListLabels(ctx)
	if err != nil {
		return nil, err
	}

	return viewData{
		"Statuses": statuses,
		"Users":    users,
		"Labels":   labels,
	}, nil
}

func (h *TaskHandler) formPage(c echo.Context, title, action, button string, req ports.TaskRequest, errs FormErrors) error {
	page, err := h.choices(c)
	if err != nil {
		return err
	}
	page["Title"] = title
	page["Action"] = action
	page["Button"] = button
	page["Form"] = req
	page["Errors"] = errs
	return render(c, http.StatusOK, "task_form.html", page)
}

// taskForm is the submitted task form. Choice fields stay strings so that
// a malformed id becomes a field error instead of a bind failure.
type taskForm struct {
	Name        string   `form:"name"`
	Description string   `form:"description"`
	Status      string   `form:"status"`
	Executor    string   `form:"executor"`
	Labels      []string `form:"labels"`
}

// bindTaskRequest reads and validates the task form. Field errors are
// returned separately from failures that are not the user's input.
func bindTaskRequest(c echo.Context) (ports.TaskRequest, FormErrors, error) {
	var form taskForm
	if err := c.Bind(&form); err != nil {
		return ports.TaskRequest{}, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	choiceErrs := FormErrors{}
	req := ports.TaskRequest{
		Name:        strings.TrimSpace(form.Name),
		Description: strings.TrimSpace(form.Description),
		StatusID:    parseChoice(form.Status, "status", choiceErrs),
		ExecutorID:  parseChoice(form.Executor, "executor", choiceErrs),
	}
	for _, v := range form.Labels {
		if v == "" {
			continue
		}
		if labelID := parseChoice(v, "labels", choiceErrs); labelID != 0 {
			req.LabelIDs = append(req.LabelIDs, labelID)
		}
	}

	errs, err := validateForm(c, &req)
	if err != nil {
		return req, nil, err
	}
	if choiceErrs.Any() {
		if errs == nil {
			errs = FormErrors{}
		}
		// A malformed choice replaces the "required" error of its zero id
		for field, messages := range choiceErrs {
			errs[field] = messages[:1]
		}
	}
	return req, errs, nil
}

// parseChoice converts a submitted id. Empty values are left to the
// required check; anything else that is not a positive id is an invalid
// choice for field.
func parseChoice(value, field string, errs FormErrors) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		errs.Add(field, msgInvalidChoice)
		return 0
	}
	return id
}

// validateForm returns field errors for invalid input, or an error for
// anything that is not a validation failure
func validateForm(c echo.Context, form interface{}) (FormErrors, error) {
	err := c.Validate(form)
	if err == nil {
		return nil, nil
	}
	errs, ok := formErrorsFrom(err)
	if !ok {
		return nil, err
	}
	return errs, nil
}

// taskFieldErrors maps service errors caused by the submitted values to form fields
func taskFieldErrors(err error) FormErrors {
	errs := FormErrors{}
	switch {
	case errors.Is(err, entities.ErrTaskNameTaken):
		return nameTakenErrors("Task")
	case errors.Is(err, entities.ErrStatusNotFound):
		errs.Add("status", msgInvalidChoice)
	case errors.Is(err, entities.ErrUserNotFound):
		errs.Add("executor", msgInvalidChoice)
	case errors.Is(err, entities.ErrLabelNotFound):
		errs.Add("labels", msgInvalidChoice)
	default:
		return nil
	}
	return errs
}

func taskURL(id int64, action string) string {
	return "/tasks/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

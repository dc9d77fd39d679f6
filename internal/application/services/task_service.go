package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo   ports.TaskRepository
	userRepo   ports.UserRepository
	statusRepo ports.StatusRepository
	labelRepo  ports.LabelRepository
	logger     *logger.Logger
}

var _ ports.TaskService = (*TaskService)(nil)

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, userRepo ports.UserRepository, statusRepo ports.StatusRepository, labelRepo ports.LabelRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		userRepo:   userRepo,
		statusRepo: statusRepo,
		labelRepo:  labelRepo,
		logger:     logger,
	}
}

// CreateTask creates a task authored by the given user
func (s *TaskService) CreateTask(ctx context.Context, author *entities.User, req ports.TaskRequest) (*entities.Task, error) {
	if author == nil {
		return nil, entities.ErrUserNotFound
	}

	labelIDs, err := s.checkReferences(ctx, req)
	if err != nil {
		return nil, err
	}

	task := &entities.Task{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		AuthorID:    author.ID,
		ExecutorID:  req.ExecutorID,
		StatusID:    req.StatusID,
	}

	if err := s.taskRepo.Create(ctx, task, labelIDs); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(author.ID, "task_created", map[string]interface{}{
		"task_id": task.ID,
		"name":    task.Name,
	})

	return s.taskRepo.GetByID(ctx, task.ID)
}

// GetTask retrieves a task with its author, executor, status and labels
func (s *TaskService) GetTask(ctx context.Context, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// UpdateTask replaces the editable fields and the label set. The author never changes.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req ports.TaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	labelIDs, err := s.checkReferences(ctx, req)
	if err != nil {
		return nil, err
	}

	task.Name = strings.TrimSpace(req.Name)
	task.Description = strings.TrimSpace(req.Description)
	task.ExecutorID = req.ExecutorID
	task.StatusID = req.StatusID

	if err := s.taskRepo.Update(ctx, task, labelIDs); err != nil {
		return nil, err
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "name", task.Name)
	return s.taskRepo.GetByID(ctx, task.ID)
}

// DeleteTask removes a task. Only its author may do so.
func (s *TaskService) DeleteTask(ctx context.Context, actor *entities.User, id int64) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !task.IsAuthoredBy(actor) {
		return entities.ErrNotTaskAuthor
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.LogUserAction(actor.ID, "task_deleted", map[string]interface{}{"task_id": id})
	return nil
}

// ListTasks returns the tasks matching every set criterion of the filter
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// checkReferences verifies the status, executor and labels exist and
// returns the label IDs without duplicates
func (s *TaskService) checkReferences(ctx context.Context, req ports.TaskRequest) ([]int64, error) {
	if _, err := s.statusRepo.GetByID(ctx, req.StatusID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.ExecutorID); err != nil {
		return nil, err
	}

	labelIDs := uniqueIDs(req.LabelIDs)
	if len(labelIDs) == 0 {
		return labelIDs, nil
	}

	labels, err := s.labelRepo.GetByIDs(ctx, labelIDs)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(labelIDs) {
		return nil, entities.ErrLabelNotFound
	}

	return labelIDs, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// StatusService handles status-related operations
type StatusService struct {
	statusRepo ports.StatusRepository
	logger     *logger.Logger
}

var _ ports.StatusService = (*StatusService)(nil)

// NewStatusService creates a new status service
func NewStatusService(statusRepo ports.StatusRepository, logger *logger.Logger) *StatusService {
	return &StatusService{
		statusRepo: statusRepo,
		logger:     logger,
	}
}

// CreateStatus creates a status with a unique name
func (s *StatusService) CreateStatus(ctx context.Context, req ports.NameRequest) (*entities.Status, error) {
	status := &entities.Status{Name: strings.TrimSpace(req.Name)}

	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, err
	}

	s.logger.Infow("Status created", "status_id", status.ID, "name", status.Name)
	return status, nil
}

// GetStatus retrieves a status by ID
func (s *StatusService) GetStatus(ctx context.Context, id int64) (*entities.Status, error) {
	return s.statusRepo.GetByID(ctx, id)
}

// UpdateStatus renames a status
func (s *StatusService) UpdateStatus(ctx context.Context, id int64, req ports.NameRequest) (*entities.Status, error) {
	status, err := s.statusRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status.Name = strings.TrimSpace(req.Name)
	if err := s.statusRepo.Update(ctx, status); err != nil {
		return nil, err
	}

	s.logger.Infow("Status updated", "status_id", status.ID, "name", status.Name)
	return status, nil
}

// DeleteStatus removes a status that no task uses
func (s *StatusService) DeleteStatus(ctx context.Context, id int64) error {
	if err := s.statusRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Status deleted", "status_id", id)
	return nil
}

// ListStatuses returns every status ordered by ID
func (s *StatusService) ListStatuses(ctx context.Context) ([]*entities.Status, error) {
	statuses, err := s.statusRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// LabelService handles label-related operations
type LabelService struct {
	labelRepo ports.LabelRepository
	logger    *logger.Logger
}

var _ ports.LabelService = (*LabelService)(nil)

// NewLabelService creates a new label service
func NewLabelService(labelRepo ports.LabelRepository, logger *logger.Logger) *LabelService {
	return &LabelService{
		labelRepo: labelRepo,
		logger:    logger,
	}
}

func (s *LabelService) CreateLabel(ctx context.Context, req ports.NameRequest) (*entities.Label, error) {
	label := &entities.Label{Name: strings.TrimSpace(req.Name)}

	if err := s.labelRepo.Create(ctx, label); err != nil {
		return nil, err
	}

	s.logger.Infow("Label created", "label_id", label.ID, "name", label.Name)
	return label, nil
}

func (s *LabelService) GetLabel(ctx context.Context, id int64) (*entities.Label, error) {
	return s.labelRepo.GetByID(ctx, id)
}

func (s *LabelService) UpdateLabel(ctx context.Context, id int64, req ports.NameRequest) (*entities.Label, error) {
	label, err := s.labelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	label.Name = strings.TrimSpace(req.Name)
	if err := s.labelRepo.Update(ctx, label); err != nil {
		return nil, err
	}

	s.logger.Infow("Label updated", "label_id", label.ID, "name", label.Name)
	return label, nil
}

// DeleteLabel removes a label that is attached to no task
func (s *LabelService) DeleteLabel(ctx context.Context, id int64) error {
	if err := s.labelRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Label deleted", "label_id", id)
	return nil
}

func (s *LabelService) ListLabels(ctx context.Context) ([]*entities.Label, error) {
	labels, err := s.labelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/logger"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a new account with a hashed password
func (s *UserService) Register(ctx context.Context, req ports.RegisterUserRequest) (*entities.User, error) {
	hash, err := HashPassword(req.Password1)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     strings.TrimSpace(req.Username),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("User registered successfully", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*entities.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateUser changes the actor's own account. The password is replaced only
// when a new one is supplied.
func (s *UserService) UpdateUser(ctx context.Context, actor *entities.User, id int64, req ports.UpdateUserRequest) (*entities.User, error) {
	if actor == nil || actor.ID != id {
		return nil, entities.ErrNotOwner
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = strings.TrimSpace(req.Username)
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)

	if req.Password1 != "" {
		hash, err := HashPassword(req.Password1)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(actor.ID, "user_updated", map[string]interface{}{"username": user.Username})
	return user, nil
}

// DeleteUser removes the actor's own account
func (s *UserService) DeleteUser(ctx context.Context, actor *entities.User, id int64) error {
	if actor == nil || actor.ID != id {
		return entities.ErrNotOwner
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.LogUserAction(actor.ID, "user_deleted", nil)
	return nil
}

// ListUsers returns every user ordered by ID
func (s *UserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/ports"
)

const userColumns = `id, username, first_name, last_name, password_hash, date_joined, session_version`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (username, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date_joined`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.FirstName, user.LastName, user.PasswordHash,
	).Scan(&user.ID, &user.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, password_hash = $5
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", err)
	}

	return requireAffected(result, entities.ErrUserNotFound)
}

// BumpSessionVersion invalidates every session token issued to the user
func (r *UserRepositoryImpl) BumpSessionVersion(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET session_version = session_version + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bump session version: %w", err)
	}

	return requireAffected(result, entities.ErrUserNotFound)
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrUserInUse
		}
		return fmt.Errorf("delete user: %w", err)
	}

	return requireAffected(result, entities.ErrUserNotFound)
}

func (r *UserRepositoryImpl) List(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	users := []*entities.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// requireAffected maps a zero-row write onto the given not-found error
func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

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

// StatusRepositoryImpl implements the StatusRepository interface
type StatusRepositoryImpl struct {
	db *sqlx.DB
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *sqlx.DB) ports.StatusRepository {
	return &StatusRepositoryImpl{db: db}
}

func (r *StatusRepositoryImpl) Create(ctx context.Context, status *entities.Status) error {
	query := `INSERT INTO statuses (name) VALUES ($1) RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, status.Name).Scan(&status.ID, &status.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrStatusNameTaken
		}
		return fmt.Errorf("create status: %w", err)
	}

	return nil
}

func (r *StatusRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Status, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM statuses WHERE id = $1`, id)
}

func (r *StatusRepositoryImpl) GetByName(ctx context.Context, name string) (*entities.Status, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM statuses WHERE name = $1`, name)
}

func (r *StatusRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (*entities.Status, error) {
	var status entities.Status
	if err := r.db.GetContext(ctx, &status, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrStatusNotFound
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &status, nil
}

func (r *StatusRepositoryImpl) Update(ctx context.Context, status *entities.Status) error {
	result, err := r.db.ExecContext(ctx, `UPDATE statuses SET name = $2 WHERE id = $1`, status.ID, status.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrStatusNameTaken
		}
		return fmt.Errorf("update status: %w", err)
	}

	return requireAffected(result, entities.ErrStatusNotFound)
}

func (r *StatusRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrStatusInUse
		}
		return fmt.Errorf("delete status: %w", err)
	}

	return requireAffected(result, entities.ErrStatusNotFound)
}

func (r *StatusRepositoryImpl) List(ctx context.Context) ([]*entities.Status, error) {
	statuses := []*entities.Status{}
	if err := r.db.SelectContext(ctx, &statuses, `SELECT id, name, created_at FROM statuses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

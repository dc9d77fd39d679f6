package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/ports"
)

// LabelRepositoryImpl implements the LabelRepository interface
type LabelRepositoryImpl struct {
	db *sqlx.DB
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *sqlx.DB) ports.LabelRepository {
	return &LabelRepositoryImpl{db: db}
}

func (r *LabelRepositoryImpl) Create(ctx context.Context, label *entities.Label) error {
	query := `INSERT INTO labels (name) VALUES ($1) RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, label.Name).Scan(&label.ID, &label.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrLabelNameTaken
		}
		return fmt.Errorf("create label: %w", err)
	}

	return nil
}

func (r *LabelRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Label, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM labels WHERE id = $1`, id)
}

func (r *LabelRepositoryImpl) GetByName(ctx context.Context, name string) (*entities.Label, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM labels WHERE name = $1`, name)
}

func (r *LabelRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (*entities.Label, error) {
	var label entities.Label
	if err := r.db.GetContext(ctx, &label, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrLabelNotFound
		}
		return nil, fmt.Errorf("get label: %w", err)
	}
	return &label, nil
}

// GetByIDs returns the labels that exist among ids, ordered by id
func (r *LabelRepositoryImpl) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Label, error) {
	labels := []*entities.Label{}
	if len(ids) == 0 {
		return labels, nil
	}

	query, args, err := squirrel.Select("id", "name", "created_at").
		From("labels").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build labels query: %w", err)
	}

	if err := r.db.SelectContext(ctx, &labels, query, args...); err != nil {
		return nil, fmt.Errorf("get labels by ids: %w", err)
	}
	return labels, nil
}

func (r *LabelRepositoryImpl) Update(ctx context.Context, label *entities.Label) error {
	result, err := r.db.ExecContext(ctx, `UPDATE labels SET name = $2 WHERE id = $1`, label.ID, label.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrLabelNameTaken
		}
		return fmt.Errorf("update label: %w", err)
	}

	return requireAffected(result, entities.ErrLabelNotFound)
}

func (r *LabelRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrLabelInUse
		}
		return fmt.Errorf("delete label: %w", err)
	}

	return requireAffected(result, entities.ErrLabelNotFound)
}

func (r *LabelRepositoryImpl) List(ctx context.Context) ([]*entities.Label, error) {
	labels := []*entities.Label{}
	if err := r.db.SelectContext(ctx, &labels, `SELECT id, name, created_at FROM labels ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return labels, nil
}

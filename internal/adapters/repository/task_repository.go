package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskmanager/internal/domain/entities"
	"github.com/taskmaster/taskmanager/internal/infrastructure/database"
	"github.com/taskmaster/taskmanager/internal/ports"
)

var taskColumns = []string{
	"t.id", "t.name", "t.description", "t.author_id", "t.executor_id", "t.status_id", "t.created_at",
	"a.username AS author_username", "a.first_name AS author_first_name", "a.last_name AS author_last_name",
	"e.username AS executor_username", "e.first_name AS executor_first_name", "e.last_name AS executor_last_name",
	"s.name AS status_name", "s.created_at AS status_created_at",
}

// taskRow is one row of the task select joined with its users and status
type taskRow struct {
	entities.Task
	AuthorUsername    string    `db:"author_username"`
	AuthorFirstName   string    `db:"author_first_name"`
	AuthorLastName    string    `db:"author_last_name"`
	ExecutorUsername  string    `db:"executor_username"`
	ExecutorFirstName string    `db:"executor_first_name"`
	ExecutorLastName  string    `db:"executor_last_name"`
	StatusName        string    `db:"status_name"`
	StatusCreatedAt   time.Time `db:"status_created_at"`
}

func (row *taskRow) toEntity() *entities.Task {
	task := row.Task
	task.Author = &entities.User{
		ID:        row.AuthorID,
		Username:  row.AuthorUsername,
		FirstName: row.AuthorFirstName,
		LastName:  row.AuthorLastName,
	}
	task.Executor = &entities.User{
		ID:        row.ExecutorID,
		Username:  row.ExecutorUsername,
		FirstName: row.ExecutorFirstName,
		LastName:  row.ExecutorLastName,
	}
	task.Status = &entities.Status{
		ID:        row.StatusID,
		Name:      row.StatusName,
		CreatedAt: row.StatusCreatedAt,
	}
	task.Labels = []entities.Label{}
	return &task
}

type taskLabelRow struct {
	TaskID int64 `db:"task_id"`
	entities.Label
}

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func selectTasks() squirrel.SelectBuilder {
	return squirrel.Select(taskColumns...).
		From("tasks t").
		Join("users a ON a.id = t.author_id").
		Join("users e ON e.id = t.executor_id").
		Join("statuses s ON s.id = t.status_id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task, labelIDs []int64) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO tasks (name, description, author_id, executor_id, status_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`

		err := tx.QueryRowxContext(ctx, query,
			task.Name, task.Description, task.AuthorID, task.ExecutorID, task.StatusID,
		).Scan(&task.ID, &task.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return entities.ErrTaskNameTaken
			}
			return fmt.Errorf("create task: %w", err)
		}

		return insertTaskLabels(ctx, tx, task.ID, labelIDs)
	})
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	return r.getOne(ctx, squirrel.Eq{"t.id": id})
}

func (r *TaskRepositoryImpl) GetByName(ctx context.Context, name string) (*entities.Task, error) {
	return r.getOne(ctx, squirrel.Eq{"t.name": name})
}

func (r *TaskRepositoryImpl) getOne(ctx context.Context, where squirrel.Sqlizer) (*entities.Task, error) {
	tasks, err := r.query(ctx, selectTasks().Where(where))
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, entities.ErrTaskNotFound
	}
	return tasks[0], nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task, labelIDs []int64) error {
	return database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE tasks
			SET name = $2, description = $3, executor_id = $4, status_id = $5
			WHERE id = $1`

		result, err := tx.ExecContext(ctx, query,
			task.ID, task.Name, task.Description, task.ExecutorID, task.StatusID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return entities.ErrTaskNameTaken
			}
			return fmt.Errorf("update task: %w", err)
		}
		if err := requireAffected(result, entities.ErrTaskNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM task_labels WHERE task_id = $1`, task.ID); err != nil {
			return fmt.Errorf("clear task labels: %w", err)
		}

		return insertTaskLabels(ctx, tx, task.ID, labelIDs)
	})
}

// Delete removes the task; its task_labels rows go with it via ON DELETE CASCADE
func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return requireAffected(result, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	where := squirrel.And{}

	if filter.StatusID != nil {
		where = append(where, squirrel.Eq{"t.status_id": *filter.StatusID})
	}
	if filter.ExecutorID != nil {
		where = append(where, squirrel.Eq{"t.executor_id": *filter.ExecutorID})
	}
	if filter.AuthorID != nil {
		where = append(where, squirrel.Eq{"t.author_id": *filter.AuthorID})
	}
	if filter.LabelID != nil {
		where = append(where, squirrel.Expr(
			"EXISTS (SELECT 1 FROM task_labels tl WHERE tl.task_id = t.id AND tl.label_id = ?)",
			*filter.LabelID,
		))
	}

	builder := selectTasks()
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	tasks, err := r.query(ctx, builder.OrderBy("t.id"))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) query(ctx context.Context, builder squirrel.SelectBuilder) ([]*entities.Task, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]*entities.Task, 0, len(rows))
	byID := make(map[int64]*entities.Task, len(rows))
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		task := rows[i].toEntity()
		tasks = append(tasks, task)
		byID[task.ID] = task
		ids = append(ids, task.ID)
	}

	if len(ids) == 0 {
		return tasks, nil
	}

	labelsQuery, labelArgs, err := squirrel.Select("tl.task_id", "l.id", "l.name", "l.created_at").
		From("task_labels tl").
		Join("labels l ON l.id = tl.label_id").
		Where(squirrel.Eq{"tl.task_id": ids}).
		OrderBy("l.id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build labels query: %w", err)
	}

	var labelRows []taskLabelRow
	if err := r.db.SelectContext(ctx, &labelRows, labelsQuery, labelArgs...); err != nil {
		return nil, fmt.Errorf("load task labels: %w", err)
	}
	for _, lr := range labelRows {
		if task, ok := byID[lr.TaskID]; ok {
			task.Labels = append(task.Labels, lr.Label)
		}
	}

	return tasks, nil
}

func insertTaskLabels(ctx context.Context, tx *sqlx.Tx, taskID int64, labelIDs []int64) error {
	if len(labelIDs) == 0 {
		return nil
	}

	builder := squirrel.Insert("task_labels").
		Columns("task_id", "label_id").
		PlaceholderFormat(squirrel.Dollar)
	for _, labelID := range labelIDs {
		builder = builder.Values(taskID, labelID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build task labels insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrLabelNotFound
		}
		return fmt.Errorf("insert task labels: %w", err)
	}
	return nil
}

package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

const taskColumns = `id, owner_id, title, description, priority, due_date, completed, created_at, updated_at`

type TaskRepo struct { // Репозиторий задач поверх Postgres
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, owner_id, title, description, priority, due_date, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+taskColumns,
		t.ID, t.OwnerID, t.Title, t.Description, string(t.Priority), t.DueDate, bool(t.Completed), t.CreatedAt,
	)
	created, err := scanTask(row)
	return created, mapError(err)
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) GetByOwner(ctx context.Context, id, ownerID string) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	t, err := scanTask(row)
	return t, mapError(err)
}

// UpdateByOwner applies the non-nil changes in one statement; the owner condition
// and the write cannot be separated by a concurrent request.
func (r *TaskRepo) UpdateByOwner(ctx context.Context, id, ownerID string, c model.TaskChanges) (model.Task, error) {
	var priority *string
	if c.Priority != nil {
		p := string(*c.Priority)
		priority = &p
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    priority    = COALESCE($5, priority),
		    due_date    = CASE WHEN $6::boolean THEN NULL ELSE COALESCE($7::date, due_date) END,
		    completed   = COALESCE($8, completed),
		    updated_at  = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id, ownerID, c.Title, c.Description, priority, c.ClearDueDate, c.DueDate, c.Completed,
	)
	t, err := scanTask(row)
	return t, mapError(err)
}

func (r *TaskRepo) DeleteByOwner(ctx context.Context, id, ownerID string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t         model.Task
		priority  string
		due       *time.Time
		completed bool
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &priority, &due, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Priority = model.Priority(priority)
	t.DueDate = due
	t.Completed = model.Completion(completed)
	return t, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrorConflict
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return ErrorNotFound
		}
	}
	return err
}

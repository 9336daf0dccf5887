package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/planning-tool/planner-server/internal/models"
)

const taskColumns = `id, tenant_id, title, description, status, priority, assigned_to, team_id,
	due_date, created_by, tags, estimate_hours, readiness_checklist, size, created_at, updated_at`

func (r *PostgresRepository) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	args = append(args, filter.Limit, filter.Skip)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *PostgresRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *PostgresRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	stampCreated(&task.CreatedAt, &task.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (:id, :tenant_id, :title, :description, :status, :priority, :assigned_to, :team_id,
			:due_date, :created_by, :tags, :estimate_hours, :readiness_checklist, :size,
			:created_at, :updated_at)
	`, task)
	return err
}

func (r *PostgresRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	stampUpdated(&task.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE tasks SET title = :title, description = :description, status = :status,
			priority = :priority, assigned_to = :assigned_to, team_id = :team_id,
			due_date = :due_date, tags = :tags, estimate_hours = :estimate_hours,
			readiness_checklist = :readiness_checklist, size = :size, updated_at = :updated_at
		WHERE id = :id
	`, task)
	return err
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

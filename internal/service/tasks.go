package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/planning-tool/planner-server/internal/models"
)

// TaskService manages planning board tasks
type TaskService interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

func (s *DefaultService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *DefaultService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task not found", ErrNotFound)
	}
	return task, nil
}

func (s *DefaultService) CreateTask(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error) {
	now := s.clock.Now()
	task := &models.Task{
		ID:                 uuid.New().String(),
		Title:              req.Title,
		Description:        req.Description,
		Status:             defaultString(req.Status, "todo"),
		Priority:           defaultString(req.Priority, "medium"),
		AssignedTo:         req.AssignedTo,
		TeamID:             req.TeamID,
		DueDate:            req.DueDate,
		Tags:               pq.StringArray(nonNilStrings(req.Tags)),
		EstimateHours:      req.EstimateHours,
		ReadinessChecklist: models.Checklist(req.ReadinessChecklist),
		Size:               req.Size,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if userID != "" {
		task.CreatedBy = &userID
	}
	if task.ReadinessChecklist == nil {
		task.ReadinessChecklist = models.Checklist{}
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

func (s *DefaultService) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&task.Title, req.Title)
	setString(&task.Status, req.Status)
	setString(&task.Priority, req.Priority)
	setOptional(&task.Description, req.Description)
	setOptional(&task.AssignedTo, req.AssignedTo)
	setOptional(&task.TeamID, req.TeamID)
	setOptional(&task.Size, req.Size)
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Tags != nil {
		task.Tags = pq.StringArray(nonNilStrings(*req.Tags))
	}
	if req.EstimateHours != nil {
		task.EstimateHours = req.EstimateHours
	}
	if req.ReadinessChecklist != nil {
		task.ReadinessChecklist = models.Checklist(*req.ReadinessChecklist)
	}
	task.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}
	return task, nil
}

func (s *DefaultService) DeleteTask(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteTask(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: task not found", ErrNotFound)
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

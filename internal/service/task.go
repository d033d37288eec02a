package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
)

const msgTaskNotFound = "task not found"

type TaskService struct {
	repo repo.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (model.Task, error) {
	if !validID(taskID) {
		return model.Task{}, notFound(msgTaskNotFound)
	}
	t, err := s.repo.GetByOwner(ctx, taskID, userID)
	return t, s.mapNotFound(err)
}

func (s *TaskService) Create(ctx context.Context, userID string, in model.TaskInput) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" { // Валидация: заголовок обязателен
		return model.Task{}, invalid("title is required")
	}

	priority := model.PriorityLow
	if strings.TrimSpace(in.Priority) != "" {
		p, ok := model.ParsePriority(in.Priority)
		if !ok {
			return model.Task{}, invalid("priority must be Low, Medium or High")
		}
		priority = p
	}

	var due *time.Time
	if in.DueDate != nil {
		if err := s.checkDueDate(in.DueDate.Time); err != nil {
			return model.Task{}, err
		}
		d := in.DueDate.Time
		due = &d
	}

	var completed model.Completion
	if in.Completed != nil {
		completed = *in.Completed
	}

	return s.repo.Create(ctx, model.Task{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		DueDate:     due,
		Completed:   completed,
		CreatedAt:   s.now().UTC(),
	})
}

// Update applies only the fields present in patch.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (model.Task, error) {
	if !validID(taskID) {
		return model.Task{}, notFound(msgTaskNotFound)
	}

	changes, err := s.changes(patch)
	if err != nil {
		return model.Task{}, err
	}
	if changes.Empty() {
		return s.Get(ctx, userID, taskID)
	}

	t, err := s.repo.UpdateByOwner(ctx, taskID, userID, changes)
	return t, s.mapNotFound(err)
}

func (s *TaskService) SetCompletion(ctx context.Context, userID, taskID string, completed bool) (model.Task, error) {
	c := model.Completion(completed)
	return s.Update(ctx, userID, taskID, model.TaskPatch{Completed: &c})
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if !validID(taskID) {
		return notFound(msgTaskNotFound)
	}
	return s.mapNotFound(s.repo.DeleteByOwner(ctx, taskID, userID))
}

func (s *TaskService) changes(p model.TaskPatch) (model.TaskChanges, error) {
	var c model.TaskChanges

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return c, invalid("title cannot be empty")
		}
		c.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		c.Description = &desc
	}
	if p.Priority != nil {
		pr, ok := model.ParsePriority(*p.Priority)
		if !ok {
			return c, invalid("priority must be Low, Medium or High")
		}
		c.Priority = &pr
	}
	if p.ClearDueDate {
		c.ClearDueDate = true
	} else if p.DueDate != nil {
		if err := s.checkDueDate(p.DueDate.Time); err != nil {
			return c, err
		}
		d := p.DueDate.Time
		c.DueDate = &d
	}
	if p.Completed != nil {
		done := bool(*p.Completed)
		c.Completed = &done
	}
	return c, nil
}

// checkDueDate rejects calendar days that are already over in every time zone,
// so a client's local "today" is always accepted.
func (s *TaskService) checkDueDate(due time.Time) error {
	if model.Day(due).Before(model.EarliestToday(s.now())) {
		return invalid("due date cannot be in the past")
	}
	return nil
}

func (s *TaskService) mapNotFound(err error) error {
	if errors.Is(err, repo.ErrorNotFound) {
		return notFound(msgTaskNotFound)
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

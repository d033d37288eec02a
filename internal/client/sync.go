package client

import (
	"context"
	"errors"
	"sync"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// TaskAPI is the part of Client the Syncer needs.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	SetCompletion(ctx context.Context, id string, completed bool) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Syncer keeps the signed-in user's task collection in memory and re-fetches it
// after every mutation. Two sessions editing the same task resolve as last write
// wins; nothing here detects the conflict.
type Syncer struct {
	api TaskAPI

	mu      sync.RWMutex
	tasks   []model.Task
	loading bool
	loaded  bool
	err     error
}

func NewSyncer(api TaskAPI) *Syncer {
	return &Syncer{api: api}
}

// Tasks returns a copy of the current collection.
func (s *Syncer) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Loading is true while the first fetch is in flight.
func (s *Syncer) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading && !s.loaded
}

// Err is the last failure. It is reset by the next successful call, so the
// caller can show it inline and offer a retry.
func (s *Syncer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Syncer) Stats() Stats {
	return ComputeStats(s.Tasks())
}

func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	tasks, err := s.api.ListTasks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		if errors.Is(err, ErrSessionExpired) {
			s.reset()
		}
		return err
	}
	s.tasks = tasks
	s.loaded = true
	s.err = nil
	return nil
}

func (s *Syncer) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	task, err := s.api.CreateTask(ctx, in)
	if err != nil {
		return model.Task{}, s.fail(err)
	}
	return task, s.Refresh(ctx)
}

func (s *Syncer) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	task, err := s.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.fail(err)
	}
	return task, s.Refresh(ctx)
}

func (s *Syncer) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteTask(ctx, id); err != nil {
		return s.fail(err)
	}
	return s.Refresh(ctx)
}

// Toggle flips completion locally before the request goes out, replaces the
// local copy with the server's task on success and restores it on failure.
func (s *Syncer) Toggle(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, s.fail(&APIError{Status: 404, Message: "task not found"})
	}
	previous := s.tasks[idx]
	target := !model.IsCompleted(previous.Completed)
	s.tasks[idx].Completed = model.Completion(target)
	s.mu.Unlock()

	task, err := s.api.SetCompletion(ctx, id, target)
	if err != nil {
		s.mu.Lock()
		if i := s.indexOf(id); i >= 0 {
			s.tasks[i] = previous
		}
		s.mu.Unlock()
		return model.Task{}, s.fail(err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.tasks[i] = task
	}
	s.mu.Unlock()
	return task, s.Refresh(ctx)
}

func (s *Syncer) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if errors.Is(err, ErrSessionExpired) {
		s.reset()
	}
	return err
}

// reset drops everything cached for the previous session.
func (s *Syncer) reset() {
	s.tasks = nil
	s.loaded = false
}

func (s *Syncer) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

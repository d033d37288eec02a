package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// MemoryStore is an in-process backend for local runs and tests. A single mutex
// covers both collections, so every owner-scoped mutation is atomic.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]model.Task
	users map[string]model.User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]model.Task),
		users: make(map[string]model.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) Tasks() TaskRepository { return memoryTasks{s} }
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

func (s *MemoryStore) Close(context.Context) error { return nil }

type memoryTasks struct{ s *MemoryStore }

func (m memoryTasks) Create(_ context.Context, t model.Task) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tasks[t.ID]; ok {
		return model.Task{}, ErrorConflict
	}
	if _, ok := m.s.users[t.OwnerID]; !ok {
		return model.Task{}, ErrorNotFound
	}
	t.UpdatedAt = t.CreatedAt
	m.s.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (m memoryTasks) ListByOwner(_ context.Context, ownerID string) ([]model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	tasks := make([]model.Task, 0)
	for _, t := range m.s.tasks {
		if t.OwnerID == ownerID {
			tasks = append(tasks, cloneTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (m memoryTasks) GetByOwner(_ context.Context, id, ownerID string) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	t, ok := m.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return model.Task{}, ErrorNotFound
	}
	return cloneTask(t), nil
}

func (m memoryTasks) UpdateByOwner(_ context.Context, id, ownerID string, c model.TaskChanges) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	t, ok := m.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return model.Task{}, ErrorNotFound
	}
	c.Apply(&t)
	t.UpdatedAt = m.s.now().UTC()
	m.s.tasks[id] = t
	return cloneTask(t), nil
}

func (m memoryTasks) DeleteByOwner(_ context.Context, id, ownerID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	t, ok := m.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return ErrorNotFound
	}
	delete(m.s.tasks, id)
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, u model.User) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[u.ID]; ok {
		return model.User{}, ErrorConflict
	}
	if m.emailTaken(u.Email, "") {
		return model.User{}, ErrorConflict
	}
	u.UpdatedAt = u.CreatedAt
	m.s.users[u.ID] = u
	return u, nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return model.User{}, ErrorNotFound
	}
	return u, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	email = model.NormalizeEmail(email)
	for _, u := range m.s.users {
		if model.NormalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return model.User{}, ErrorNotFound
}

func (m memoryUsers) UpdateProfile(_ context.Context, id, name, email string) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return model.User{}, ErrorNotFound
	}
	if m.emailTaken(email, id) {
		return model.User{}, ErrorConflict
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = m.s.now().UTC()
	m.s.users[id] = u
	return u, nil
}

func (m memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = m.s.now().UTC()
	m.s.users[id] = u
	return nil
}

// emailTaken must be called with the lock held.
func (m memoryUsers) emailTaken(email, exceptID string) bool {
	email = model.NormalizeEmail(email)
	for id, u := range m.s.users {
		if id != exceptID && model.NormalizeEmail(u.Email) == email {
			return true
		}
	}
	return false
}

func cloneTask(t model.Task) model.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

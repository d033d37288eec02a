package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

// TaskRepository определяет интерфейс для работы с задачами.
// Every method that touches a single task is conditioned on both id and owner.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error)
	GetByOwner(ctx context.Context, id, ownerID string) (model.Task, error)
	UpdateByOwner(ctx context.Context, id, ownerID string, changes model.TaskChanges) (model.Task, error)
	DeleteByOwner(ctx context.Context, id, ownerID string) error
}

// UserRepository stores accounts. Emails arrive normalized; a duplicate email
// on Create or UpdateProfile yields ErrorConflict.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Store bundles both repositories of one backend.
type Store interface {
	Tasks() TaskRepository
	Users() UserRepository
	Close(ctx context.Context) error
}

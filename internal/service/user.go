package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/worker"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgWrongPassword      = "current password incorrect"
)

// PasswordHasher hashes and verifies passwords. Compare returns worker.ErrMismatch
// when the password does not match.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UserService struct {
	repo   repo.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewUserService(repo repo.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = model.NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return model.AuthResult{}, invalid("all fields are required")
	}
	if err := checkStruct(req); err != nil {
		return model.AuthResult{}, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	// Уникальность email обеспечивает индекс в хранилище
	now := s.now().UTC()
	user, err := s.repo.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, repo.ErrorConflict) {
		return model.AuthResult{}, conflict("email already registered")
	}
	if err != nil {
		return model.AuthResult{}, err
	}

	return s.issue(user)
}

// Login answers unknown email and wrong password with the same error. An unknown
// email still pays for one bcrypt comparison.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error) {
	req.Email = model.NormalizeEmail(req.Email)
	if err := checkStruct(req); err != nil {
		return model.AuthResult{}, invalid("email and password required")
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, repo.ErrorNotFound) {
		s.burnComparison(ctx, req.Password)
		return model.AuthResult{}, badCredentials(msgInvalidCredentials)
	}
	if err != nil {
		return model.AuthResult{}, err
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, worker.ErrMismatch) {
			return model.AuthResult{}, badCredentials(msgInvalidCredentials)
		}
		return model.AuthResult{}, fmt.Errorf("compare password: %w", err)
	}

	return s.issue(user)
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrorNotFound) {
		return model.PublicUser{}, notFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	return model.PublicUser{Name: user.Name, Email: user.Email}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req model.ProfileRequest) (model.PublicUser, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = model.NormalizeEmail(req.Email)
	if err := checkStruct(req); err != nil {
		return model.PublicUser{}, invalid("valid name and email required")
	}

	user, err := s.repo.UpdateProfile(ctx, userID, req.Name, req.Email)
	switch {
	case errors.Is(err, repo.ErrorConflict):
		return model.PublicUser{}, conflict("email already exists")
	case errors.Is(err, repo.ErrorNotFound):
		return model.PublicUser{}, notFound("user not found")
	case err != nil:
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID string, req model.PasswordRequest) error {
	if err := checkStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrorNotFound) {
		return notFound("user not found")
	}
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, worker.ErrMismatch) {
			return badCredentials(msgWrongPassword)
		}
		return fmt.Errorf("compare password: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.repo.UpdatePassword(ctx, userID, hash)
	if errors.Is(err, repo.ErrorNotFound) {
		return notFound("user not found")
	}
	return err
}

func (s *UserService) issue(user model.User) (model.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.AuthResult{}, err
	}
	return model.AuthResult{Token: token, User: user.Public()}, nil
}

// burnComparison spends the same work as a real password check.
func (s *UserService) burnComparison(ctx context.Context, password string) {
	if hash := s.dummy(); hash != "" {
		_ = s.hasher.Compare(ctx, hash, password)
	}
}

// dummy returns the hash compared against unknown emails. It is built outside
// any request context and retried until one attempt succeeds.
func (s *UserService) dummy() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash == "" {
		hash, err := s.hasher.Hash(context.Background(), uuid.NewString())
		if err != nil {
			return ""
		}
		s.dummyHash = hash
	}
	return s.dummyHash
}

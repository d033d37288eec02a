package client

import (
	"sync"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// Session owns the bearer token for one signed-in user. Client sets it on
// login/register and clears it on logout or on any 401 from a protected route.
type Session struct {
	mu           sync.RWMutex
	token        string
	user         model.PublicUser
	onInvalidate func()
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Set(token string, user model.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

// Clear drops the credentials and fires the OnInvalidate hook once per
// authenticated session.
func (s *Session) Clear() {
	s.mu.Lock()
	wasSet := s.token != ""
	s.token = ""
	s.user = model.PublicUser{}
	hook := s.onInvalidate
	s.mu.Unlock()

	if wasSet && hook != nil {
		hook()
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() model.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OnInvalidate registers fn to run after the session is cleared, e.g. to send
// the user back to the login screen.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = fn
}

// updateUser keeps the cached profile in step after a profile change.
func (s *Session) updateUser(user model.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.user = user
	}
}

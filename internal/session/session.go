// Package session tracks who is logged in to the shell. A Session is owned by
// one command loop; coordinators only ever see an Identity value.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"vaccine-scheduler/internal/model"
)

var (
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrNotLoggedIn     = errors.New("not logged in")
)

type Identity struct {
	Role     model.Role
	Username string
}

func (i Identity) IsZero() bool { return i.Username == "" }

func (i Identity) IsPatient() bool   { return !i.IsZero() && i.Role == model.Patient }
func (i Identity) IsCaregiver() bool { return !i.IsZero() && i.Role == model.Caregiver }

type Session struct {
	id      string
	current Identity
	since   time.Time
}

func New() *Session {
	return &Session{id: uuid.New().String()}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) Current() Identity { return s.current }

func (s *Session) Since() time.Time { return s.since }

func (s *Session) Login(id Identity) error {
	if !s.current.IsZero() {
		return ErrAlreadyLoggedIn
	}
	s.current = id
	s.since = time.Now()
	return nil
}

func (s *Session) Logout() error {
	if s.current.IsZero() {
		return ErrNotLoggedIn
	}
	s.current = Identity{}
	s.since = time.Time{}
	return nil
}

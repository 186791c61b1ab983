package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/session"
	"vaccine-scheduler/internal/store"
)

var (
	ErrUsernameTaken   = errors.New("username taken")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrTooManyAttempts = errors.New("too many login attempts")
	ErrMissingField    = errors.New("username and password required")
)

// Accounts creates and authenticates patients and caregivers.
type Accounts struct {
	st  store.Store
	lim *Limiter
	log *zap.Logger
}

// NewAccounts wires the credential store. A nil limiter disables login
// throttling.
func NewAccounts(st store.Store, lim *Limiter, log *zap.Logger) *Accounts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accounts{st: st, lim: lim, log: log}
}

func (a *Accounts) Register(ctx context.Context, role model.Role, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingField
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = a.st.Update(ctx, func(tx store.Tx) error {
		return tx.CreateUser(ctx, &model.User{
			Role:         role,
			Username:     username,
			PasswordHash: hash,
		})
	})
	if errors.Is(err, store.ErrConflict) {
		return ErrUsernameTaken
	}
	if err != nil {
		a.log.Error("create user failed", zap.String("role", role.String()), zap.Error(err))
		return err
	}
	a.log.Info("account created", zap.String("role", role.String()), zap.String("username", username))
	return nil
}

// Authenticate checks the password and returns the identity to log in with.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (a *Accounts) Authenticate(ctx context.Context, role model.Role, username, password string) (session.Identity, error) {
	if username == "" || password == "" {
		return session.Identity{}, ErrMissingField
	}
	if a.lim != nil && !a.lim.Allow(role.String()+":"+username) {
		a.log.Warn("login throttled", zap.String("username", username))
		return session.Identity{}, ErrTooManyAttempts
	}

	var u *model.User
	err := a.st.View(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.User(ctx, role, username)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return session.Identity{}, ErrBadCredentials
	}
	if err != nil {
		a.log.Error("lookup user failed", zap.String("role", role.String()), zap.Error(err))
		return session.Identity{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return session.Identity{}, ErrBadCredentials
	}
	return session.Identity{Role: role, Username: u.Username}, nil
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"vaccine-scheduler/internal/model"
)

func userTable(r model.Role) (string, error) {
	switch r {
	case model.Patient:
		return "patients", nil
	case model.Caregiver:
		return "caregivers", nil
	}
	return "", fmt.Errorf("unknown role %d", r)
}

func (t *txn) CreateUser(ctx context.Context, u *model.User) error {
	table, err := userTable(u.Role)
	if err != nil {
		return err
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO `+table+` (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, created.UTC().Format(time.RFC3339),
	)
	return translate(err)
}

func (t *txn) User(ctx context.Context, role model.Role, username string) (*model.User, error) {
	table, err := userTable(role)
	if err != nil {
		return nil, err
	}
	u := &model.User{Role: role}
	var created string
	err = t.tx.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at FROM `+table+` WHERE username = ?`, username,
	).Scan(&u.Username, &u.PasswordHash, &created)
	if err != nil {
		return nil, translate(err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("sqlite: bad created_at %q: %w", created, err)
	}
	return u, nil
}

package postgres

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
	_, err = t.tx.Exec(ctx,
		`INSERT INTO `+table+` (username, password_hash, created_at) VALUES ($1, $2, $3)`,
		u.Username, u.PasswordHash, created,
	)
	return translate(err)
}

func (t *txn) User(ctx context.Context, role model.Role, username string) (*model.User, error) {
	table, err := userTable(role)
	if err != nil {
		return nil, err
	}
	u := &model.User{Role: role}
	err = t.tx.QueryRow(ctx,
		`SELECT username, password_hash, created_at FROM `+table+` WHERE username = $1`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

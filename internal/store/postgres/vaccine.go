package postgres

import (
	"context"
	"errors"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

func (t *txn) Vaccine(ctx context.Context, name string) (*model.Vaccine, error) {
	v := &model.Vaccine{}
	err := t.tx.QueryRow(ctx,
		`SELECT name, doses FROM vaccines WHERE name = $1`, name,
	).Scan(&v.Name, &v.Doses)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (t *txn) Vaccines(ctx context.Context) ([]model.Vaccine, error) {
	rows, err := t.tx.Query(ctx, `SELECT name, doses FROM vaccines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Vaccine
	for rows.Next() {
		var v model.Vaccine
		if err := rows.Scan(&v.Name, &v.Doses); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *txn) CreateVaccine(ctx context.Context, v *model.Vaccine) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO vaccines (name, doses) VALUES ($1, $2)`, v.Name, v.Doses)
	return translate(err)
}

// conditional update; a miss is either an unknown name or a short count
func (t *txn) AdjustDoses(ctx context.Context, name string, delta int) (int, error) {
	var doses int
	err := t.tx.QueryRow(ctx,
		`UPDATE vaccines SET doses = doses + $2
		 WHERE name = $1 AND doses + $2 >= 0
		 RETURNING doses`, name, delta,
	).Scan(&doses)
	if err == nil {
		return doses, nil
	}
	if err = translate(err); !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	var exists bool
	if err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vaccines WHERE name = $1)`, name,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, store.ErrInsufficient
	}
	return 0, store.ErrNotFound
}

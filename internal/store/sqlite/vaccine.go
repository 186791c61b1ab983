package sqlite

import (
	"context"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

func (t *txn) Vaccine(ctx context.Context, name string) (*model.Vaccine, error) {
	v := &model.Vaccine{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT name, doses FROM vaccines WHERE name = ?`, name,
	).Scan(&v.Name, &v.Doses)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (t *txn) Vaccines(ctx context.Context) ([]model.Vaccine, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name, doses FROM vaccines ORDER BY name`)
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
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO vaccines (name, doses) VALUES (?, ?)`, v.Name, v.Doses)
	return translate(err)
}

func (t *txn) AdjustDoses(ctx context.Context, name string, delta int) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE vaccines SET doses = doses + ? WHERE name = ? AND doses + ? >= 0`,
		delta, name, delta,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	v, err := t.Vaccine(ctx, name)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrInsufficient
	}
	return v.Doses, nil
}

package postgres

import (
	"context"
	"time"

	"vaccine-scheduler/internal/store"
)

func (t *txn) AddAvailability(ctx context.Context, caregiver string, date time.Time) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO availabilities (caregiver, avail_date) VALUES ($1, $2)
		 ON CONFLICT (caregiver, avail_date) DO NOTHING`,
		caregiver, store.Day(date),
	)
	return err
}

func (t *txn) AvailableCaregivers(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT a.caregiver FROM availabilities a
		 WHERE a.avail_date = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM appointments p
		     WHERE p.caregiver = a.caregiver AND p.appt_date = a.avail_date)
		 ORDER BY a.caregiver`, store.Day(date),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

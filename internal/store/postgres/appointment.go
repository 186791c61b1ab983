package postgres

import (
	"context"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

const appointmentCols = `id, appt_date, caregiver, patient, vaccine`

func (t *txn) MaxAppointmentID(ctx context.Context) (int, error) {
	var max int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM appointments`).Scan(&max)
	return max, err
}

func (t *txn) InsertAppointment(ctx context.Context, a *model.Appointment) (int, error) {
	var id int
	err := t.tx.QueryRow(ctx,
		`INSERT INTO appointments (`+appointmentCols+`)
		 SELECT COALESCE(MAX(id), 0) + 1, $1::date, $2::text, $3::text, $4::text
		 FROM appointments
		 RETURNING id`,
		store.Day(a.Date), a.Caregiver, a.Patient, a.Vaccine,
	).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (t *txn) Appointment(ctx context.Context, id int) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := t.tx.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.Date, &a.Caregiver, &a.Patient, &a.Vaccine)
	if err != nil {
		return nil, translate(err)
	}
	a.Date = store.Day(a.Date)
	return a, nil
}

func (t *txn) AppointmentsByCaregiver(ctx context.Context, username string) ([]model.Appointment, error) {
	return t.appointments(ctx, `caregiver`, username)
}

func (t *txn) AppointmentsByPatient(ctx context.Context, username string) ([]model.Appointment, error) {
	return t.appointments(ctx, `patient`, username)
}

// col is one of the two fixed column names above, never user input
func (t *txn) appointments(ctx context.Context, col, username string) ([]model.Appointment, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE `+col+` = $1 ORDER BY id`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.Date, &a.Caregiver, &a.Patient, &a.Vaccine); err != nil {
			return nil, err
		}
		a.Date = store.Day(a.Date)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *txn) DeleteAppointment(ctx context.Context, id int) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

package sqlite

import (
	"context"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

const appointmentCols = `id, appt_date, caregiver, patient, vaccine`

func (t *txn) MaxAppointmentID(ctx context.Context) (int, error) {
	var max int
	err := t.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM appointments`).Scan(&max)
	return max, err
}

func (t *txn) InsertAppointment(ctx context.Context, a *model.Appointment) (int, error) {
	var id int
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO appointments (`+appointmentCols+`)
		 SELECT COALESCE(MAX(id), 0) + 1, ?, ?, ?, ? FROM appointments
		 RETURNING id`,
		day(a.Date), a.Caregiver, a.Patient, a.Vaccine,
	).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (t *txn) Appointment(ctx context.Context, id int) (*model.Appointment, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (t *txn) AppointmentsByCaregiver(ctx context.Context, username string) ([]model.Appointment, error) {
	return t.appointments(ctx, `caregiver`, username)
}

func (t *txn) AppointmentsByPatient(ctx context.Context, username string) ([]model.Appointment, error) {
	return t.appointments(ctx, `patient`, username)
}

func (t *txn) appointments(ctx context.Context, col, username string) ([]model.Appointment, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE `+col+` = ? ORDER BY id`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (t *txn) DeleteAppointment(ctx context.Context, id int) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(s scanner) (*model.Appointment, error) {
	var (
		a    model.Appointment
		date string
	)
	if err := s.Scan(&a.ID, &date, &a.Caregiver, &a.Patient, &a.Vaccine); err != nil {
		return nil, err
	}
	d, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	a.Date = d
	return &a, nil
}

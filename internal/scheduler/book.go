package scheduler

import (
	"context"
	"errors"
	"time"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

// Book is the set of booked appointments.
type Book struct {
	tx store.Tx
}

func NewBook(tx store.Tx) Book { return Book{tx: tx} }

// NextID is the id the next Create would receive.
func (b Book) NextID(ctx context.Context) (int, error) {
	max, err := b.tx.MaxAppointmentID(ctx)
	if err != nil {
		return 0, storageErr("next appointment id", err)
	}
	return max + 1, nil
}

// Create allocates an id and inserts the appointment in one step. A
// caregiver already booked on date yields ErrNoAvailability.
func (b Book) Create(ctx context.Context, date time.Time, caregiver, patient, vaccine string) (int, error) {
	id, err := b.tx.InsertAppointment(ctx, &model.Appointment{
		Date:      store.Day(date),
		Caregiver: caregiver,
		Patient:   patient,
		Vaccine:   vaccine,
	})
	if errors.Is(err, store.ErrConflict) {
		return 0, ErrNoAvailability
	}
	if err != nil {
		return 0, storageErr("create appointment", err)
	}
	return id, nil
}

func (b Book) FindByID(ctx context.Context, id int) (*model.Appointment, error) {
	a, err := b.tx.Appointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find appointment", err)
	}
	return a, nil
}

func (b Book) ListByCaregiver(ctx context.Context, username string) ([]model.Appointment, error) {
	out, err := b.tx.AppointmentsByCaregiver(ctx, username)
	return out, storageErr("list caregiver appointments", err)
}

func (b Book) ListByPatient(ctx context.Context, username string) ([]model.Appointment, error) {
	out, err := b.tx.AppointmentsByPatient(ctx, username)
	return out, storageErr("list patient appointments", err)
}

func (b Book) DeleteByID(ctx context.Context, id int) error {
	err := b.tx.DeleteAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return storageErr("delete appointment", err)
}

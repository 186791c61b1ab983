// Package store defines the persistence boundary shared by the postgres,
// sqlite and in-memory drivers.
package store

import (
	"context"
	"errors"
	"time"

	"vaccine-scheduler/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint violation: a taken username or
	// a caregiver already booked on a date.
	ErrConflict = errors.New("conflict")
	// ErrInsufficient reports a conditional dose adjustment that would have
	// driven the count below zero.
	ErrInsufficient = errors.New("insufficient doses")
)

// Tx is the set of operations available inside one transaction.
type Tx interface {
	Vaccine(ctx context.Context, name string) (*model.Vaccine, error)
	Vaccines(ctx context.Context) ([]model.Vaccine, error)
	CreateVaccine(ctx context.Context, v *model.Vaccine) error
	// AdjustDoses adds delta to the named vaccine and returns the new count.
	// The update only applies when the result stays non-negative.
	AdjustDoses(ctx context.Context, name string, delta int) (int, error)

	// AddAvailability is idempotent on (caregiver, date).
	AddAvailability(ctx context.Context, caregiver string, date time.Time) error
	// AvailableCaregivers lists caregivers open on date who hold no
	// appointment on date, sorted by username.
	AvailableCaregivers(ctx context.Context, date time.Time) ([]string, error)

	MaxAppointmentID(ctx context.Context) (int, error)
	// InsertAppointment allocates max(id)+1, inserts and returns the id.
	InsertAppointment(ctx context.Context, a *model.Appointment) (int, error)
	Appointment(ctx context.Context, id int) (*model.Appointment, error)
	AppointmentsByCaregiver(ctx context.Context, username string) ([]model.Appointment, error)
	AppointmentsByPatient(ctx context.Context, username string) ([]model.Appointment, error)
	DeleteAppointment(ctx context.Context, id int) error

	CreateUser(ctx context.Context, u *model.User) error
	User(ctx context.Context, role model.Role, username string) (*model.User, error)
}

// Store runs work inside transactions. Update commits when fn returns nil
// and rolls back otherwise; View is read-only.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

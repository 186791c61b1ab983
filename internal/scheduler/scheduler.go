// Package scheduler keeps caregiver availability, vaccine inventory and
// appointments consistent. Every operation runs inside a single store
// transaction, so a failed step leaves nothing behind.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/session"
	"vaccine-scheduler/internal/store"
)

type Scheduler struct {
	st   store.Store
	pick Picker
	log  *zap.Logger
}

type Option func(*Scheduler)

func WithPicker(p Picker) Option { return func(s *Scheduler) { s.pick = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Scheduler) { s.log = l } }

func New(st store.Store, opts ...Option) *Scheduler {
	s := &Scheduler{st: st, pick: RandomPicker{}, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Schedule is what a caller sees when searching a date.
type Schedule struct {
	Date       time.Time
	Caregivers []string
	Vaccines   []model.Vaccine
}

// Reserve books one dose of vaccine for the patient who on date with any
// eligible caregiver. Preconditions are checked in order: date, vaccine,
// stock, availability.
func (s *Scheduler) Reserve(ctx context.Context, who session.Identity, date, vaccine string) (*model.Appointment, error) {
	if who.IsZero() {
		return nil, ErrNotLoggedIn
	}
	if !who.IsPatient() {
		return nil, ErrPatientOnly
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	var appt *model.Appointment
	err = s.st.Update(ctx, func(tx store.Tx) error {
		ledger, registry, book := NewLedger(tx), NewRegistry(tx), NewBook(tx)

		ok, err := ledger.HasAtLeastOneDose(ctx, vaccine)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientInventory
		}

		eligible, err := registry.ListAvailable(ctx, day)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoAvailability
		}
		caregiver := s.pick.Pick(eligible)

		// debit first; the insert is the last write
		if _, err := ledger.Decrease(ctx, vaccine, 1); err != nil {
			return err
		}
		id, err := book.Create(ctx, day, caregiver, who.Username, vaccine)
		if err != nil {
			return err
		}
		appt = &model.Appointment{
			ID:        id,
			Date:      day,
			Caregiver: caregiver,
			Patient:   who.Username,
			Vaccine:   vaccine,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("reserve", err,
			zap.String("patient", who.Username),
			zap.String("date", date),
			zap.String("vaccine", vaccine))
	}

	s.log.Info("appointment reserved",
		zap.Int("appointment_id", appt.ID),
		zap.String("patient", appt.Patient),
		zap.String("caregiver", appt.Caregiver),
		zap.String("vaccine", appt.Vaccine),
		zap.Time("date", appt.Date))
	return appt, nil
}

// Cancel removes appointment id and returns its dose to inventory. Only the
// appointment's patient or caregiver may cancel it.
func (s *Scheduler) Cancel(ctx context.Context, who session.Identity, id int) error {
	if who.IsZero() {
		return ErrNotLoggedIn
	}

	var vaccine string
	err := s.st.Update(ctx, func(tx store.Tx) error {
		ledger, book := NewLedger(tx), NewBook(tx)

		appt, err := book.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidAppointmentID
		}
		if err != nil {
			return err
		}
		// ownership before any write
		if !appt.OwnedBy(who.Role, who.Username) {
			return ErrUnauthorized
		}
		if _, err := ledger.AddOrCreate(ctx, appt.Vaccine, 1); err != nil {
			return err
		}
		vaccine = appt.Vaccine
		return book.DeleteByID(ctx, id)
	})
	if err != nil {
		return s.fail("cancel", err,
			zap.Int("appointment_id", id),
			zap.String("user", who.Username))
	}

	s.log.Info("appointment cancelled",
		zap.Int("appointment_id", id),
		zap.String("user", who.Username),
		zap.String("vaccine", vaccine))
	return nil
}

// UploadAvailability marks the calling caregiver open on date.
func (s *Scheduler) UploadAvailability(ctx context.Context, who session.Identity, date string) error {
	if err := requireCaregiver(who); err != nil {
		return err
	}
	day, err := ParseDate(date)
	if err != nil {
		return err
	}
	err = s.st.Update(ctx, func(tx store.Tx) error {
		return NewRegistry(tx).Upload(ctx, who.Username, day)
	})
	if err != nil {
		return s.fail("upload availability", err, zap.String("caregiver", who.Username))
	}
	s.log.Info("availability uploaded",
		zap.String("caregiver", who.Username),
		zap.Time("date", day))
	return nil
}

// AddDoses adds n doses of vaccine, creating the vaccine on first use, and
// returns the new count.
func (s *Scheduler) AddDoses(ctx context.Context, who session.Identity, vaccine string, n int) (int, error) {
	if err := requireCaregiver(who); err != nil {
		return 0, err
	}
	var total int
	err := s.st.Update(ctx, func(tx store.Tx) error {
		var err error
		total, err = NewLedger(tx).AddOrCreate(ctx, vaccine, n)
		return err
	})
	if err != nil {
		return 0, s.fail("add doses", err, zap.String("vaccine", vaccine), zap.Int("delta", n))
	}
	s.log.Info("doses updated",
		zap.String("vaccine", vaccine),
		zap.Int("delta", n),
		zap.Int("doses", total))
	return total, nil
}

// Search lists the eligible caregivers for date along with current stock.
func (s *Scheduler) Search(ctx context.Context, date string) (*Schedule, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	sched := &Schedule{Date: day}
	err = s.st.View(ctx, func(tx store.Tx) error {
		var err error
		if sched.Caregivers, err = NewRegistry(tx).ListAvailable(ctx, day); err != nil {
			return err
		}
		sched.Vaccines, err = NewLedger(tx).List(ctx)
		return err
	})
	if err != nil {
		return nil, s.fail("search", err, zap.String("date", date))
	}
	return sched, nil
}

// Appointments lists the appointments of the logged-in user, by id.
func (s *Scheduler) Appointments(ctx context.Context, who session.Identity) ([]model.Appointment, error) {
	if who.IsZero() {
		return nil, ErrNotLoggedIn
	}
	var out []model.Appointment
	err := s.st.View(ctx, func(tx store.Tx) error {
		var err error
		book := NewBook(tx)
		if who.IsCaregiver() {
			out, err = book.ListByCaregiver(ctx, who.Username)
		} else {
			out, err = book.ListByPatient(ctx, who.Username)
		}
		return err
	})
	if err != nil {
		return nil, s.fail("show appointments", err, zap.String("user", who.Username))
	}
	return out, nil
}

func requireCaregiver(who session.Identity) error {
	if who.IsZero() {
		return ErrNotLoggedIn
	}
	if !who.IsCaregiver() {
		return ErrCaregiverOnly
	}
	return nil
}

// fail categorizes err and logs it: storage faults at error level, rule
// rejections at debug.
func (s *Scheduler) fail(op string, err error, fields ...zap.Field) error {
	err = storageErr(op, err)
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if errors.Is(err, ErrStorage) {
		s.log.Error("storage failure", fields...)
	} else {
		s.log.Debug("rejected", fields...)
	}
	return err
}

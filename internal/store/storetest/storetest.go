// Package storetest holds the behaviour every store.Store driver must share.
// Driver packages call Run from their own tests with a constructor for an
// empty store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

var (
	June1 = time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	June2 = June1.AddDate(0, 0, 1)
)

// Run executes the contract against stores built by open. open must return
// an empty store each time it is called.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"Vaccines", testVaccines},
		{"AdjustDoses", testAdjustDoses},
		{"Availability", testAvailability},
		{"Appointments", testAppointments},
		{"SlotConflict", testSlotConflict},
		{"Users", testUsers},
		{"Rollback", testRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := open(t)
			t.Cleanup(func() { st.Close() })
			tt.fn(t, st)
		})
	}
}

func update(t *testing.T, st store.Store, fn func(ctx context.Context, tx store.Tx)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx store.Tx) error {
		fn(ctx, tx)
		return nil
	}))
}

func view(t *testing.T, st store.Store, fn func(ctx context.Context, tx store.Tx)) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.View(ctx, func(tx store.Tx) error {
		fn(ctx, tx)
		return nil
	}))
}

func testVaccines(t *testing.T, st store.Store) {
	update(t, st, func(ctx context.Context, tx store.Tx) {
		_, err := tx.Vaccine(ctx, "Moderna")
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Pfizer", Doses: 2}))
		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 0}))
		assert.ErrorIs(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 1}), store.ErrConflict)
	})
	view(t, st, func(ctx context.Context, tx store.Tx) {
		vs, err := tx.Vaccines(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Vaccine{{Name: "Moderna", Doses: 0}, {Name: "Pfizer", Doses: 2}}, vs)
	})
}

func testAdjustDoses(t *testing.T, st store.Store) {
	update(t, st, func(ctx context.Context, tx store.Tx) {
		_, err := tx.AdjustDoses(ctx, "Moderna", 1)
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 1}))
		n, err := tx.AdjustDoses(ctx, "Moderna", 4)
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		_, err = tx.AdjustDoses(ctx, "Moderna", -6)
		assert.ErrorIs(t, err, store.ErrInsufficient)

		n, err = tx.AdjustDoses(ctx, "Moderna", -5)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func testAvailability(t *testing.T, st store.Store) {
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.AddAvailability(ctx, "dave", June1))
		require.NoError(t, tx.AddAvailability(ctx, "carol", June1))
		require.NoError(t, tx.AddAvailability(ctx, "carol", June1))
		require.NoError(t, tx.AddAvailability(ctx, "erin", June2))
	})
	view(t, st, func(ctx context.Context, tx store.Tx) {
		names, err := tx.AvailableCaregivers(ctx, June1)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol", "dave"}, names)

		names, err = tx.AvailableCaregivers(ctx, June1.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func testAppointments(t *testing.T, st store.Store) {
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 5}))
		require.NoError(t, tx.AddAvailability(ctx, "carol", June1))
		require.NoError(t, tx.AddAvailability(ctx, "dave", June1))

		max, err := tx.MaxAppointmentID(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, max)

		id, err := tx.InsertAppointment(ctx, &model.Appointment{Date: June1, Caregiver: "carol", Patient: "pat", Vaccine: "Moderna"})
		require.NoError(t, err)
		assert.Equal(t, 1, id)
		id, err = tx.InsertAppointment(ctx, &model.Appointment{Date: June2, Caregiver: "carol", Patient: "pia", Vaccine: "Moderna"})
		require.NoError(t, err)
		assert.Equal(t, 2, id)

		names, err := tx.AvailableCaregivers(ctx, June1)
		require.NoError(t, err)
		assert.Equal(t, []string{"dave"}, names)
	})
	view(t, st, func(ctx context.Context, tx store.Tx) {
		a, err := tx.Appointment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "pat", a.Patient)
		assert.True(t, a.Date.Equal(June1), "got %v", a.Date)

		_, err = tx.Appointment(ctx, 9)
		assert.ErrorIs(t, err, store.ErrNotFound)

		byCaregiver, err := tx.AppointmentsByCaregiver(ctx, "carol")
		require.NoError(t, err)
		require.Len(t, byCaregiver, 2)
		assert.Equal(t, 1, byCaregiver[0].ID)
		assert.Equal(t, 2, byCaregiver[1].ID)

		byPatient, err := tx.AppointmentsByPatient(ctx, "pia")
		require.NoError(t, err)
		require.Len(t, byPatient, 1)
		assert.Equal(t, 2, byPatient[0].ID)
	})
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.DeleteAppointment(ctx, 2))
		assert.ErrorIs(t, tx.DeleteAppointment(ctx, 2), store.ErrNotFound)

		// the freed id is reused only if it was the maximum
		id, err := tx.InsertAppointment(ctx, &model.Appointment{Date: June2, Caregiver: "carol", Patient: "pia", Vaccine: "Moderna"})
		require.NoError(t, err)
		assert.Equal(t, 2, id)
		require.NoError(t, tx.DeleteAppointment(ctx, 1))
		id, err = tx.InsertAppointment(ctx, &model.Appointment{Date: June1, Caregiver: "dave", Patient: "pat", Vaccine: "Moderna"})
		require.NoError(t, err)
		assert.Equal(t, 3, id)
	})
}

func testSlotConflict(t *testing.T, st store.Store) {
	ctx := context.Background()
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 5}))
		_, err := tx.InsertAppointment(ctx, &model.Appointment{Date: June1, Caregiver: "carol", Patient: "pat", Vaccine: "Moderna"})
		require.NoError(t, err)
	})
	err := st.Update(ctx, func(tx store.Tx) error {
		_, err := tx.InsertAppointment(ctx, &model.Appointment{Date: June1, Caregiver: "carol", Patient: "pia", Vaccine: "Moderna"})
		return err
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testUsers(t *testing.T, st store.Store) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.CreateUser(ctx, &model.User{Role: model.Patient, Username: "pat", PasswordHash: "h1", CreatedAt: created}))
		// the same name may exist once per role
		require.NoError(t, tx.CreateUser(ctx, &model.User{Role: model.Caregiver, Username: "pat", PasswordHash: "h2"}))
		err := tx.CreateUser(ctx, &model.User{Role: model.Patient, Username: "pat", PasswordHash: "h3"})
		assert.ErrorIs(t, err, store.ErrConflict)
	})
	view(t, st, func(ctx context.Context, tx store.Tx) {
		u, err := tx.User(ctx, model.Patient, "pat")
		require.NoError(t, err)
		assert.Equal(t, "h1", u.PasswordHash)
		assert.Equal(t, model.Patient, u.Role)
		assert.True(t, u.CreatedAt.Equal(created), "got %v", u.CreatedAt)

		u, err = tx.User(ctx, model.Caregiver, "pat")
		require.NoError(t, err)
		assert.Equal(t, "h2", u.PasswordHash)

		_, err = tx.User(ctx, model.Caregiver, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	update(t, st, func(ctx context.Context, tx store.Tx) {
		require.NoError(t, tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 1}))
	})

	err := st.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.AdjustDoses(ctx, "Moderna", -1); err != nil {
			return err
		}
		if err := tx.AddAvailability(ctx, "carol", June1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	view(t, st, func(ctx context.Context, tx store.Tx) {
		v, err := tx.Vaccine(ctx, "Moderna")
		require.NoError(t, err)
		assert.Equal(t, 1, v.Doses)
		names, err := tx.AvailableCaregivers(ctx, June1)
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

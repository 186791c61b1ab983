package scheduler_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/scheduler"
	"vaccine-scheduler/internal/session"
	"vaccine-scheduler/internal/store"
	"vaccine-scheduler/internal/store/memstore"
)

func patient(name string) session.Identity {
	return session.Identity{Role: model.Patient, Username: name}
}

func caregiver(name string) session.Identity {
	return session.Identity{Role: model.Caregiver, Username: name}
}

func setup(t *testing.T, opts ...scheduler.Option) (*scheduler.Scheduler, store.Store) {
	t.Helper()
	st, err := memstore.New()
	require.NoError(t, err)
	return scheduler.New(st, opts...), st
}

func addDoses(t *testing.T, s *scheduler.Scheduler, vaccine string, n int) {
	t.Helper()
	_, err := s.AddDoses(context.Background(), caregiver("admin"), vaccine, n)
	require.NoError(t, err)
}

func upload(t *testing.T, s *scheduler.Scheduler, who, date string) {
	t.Helper()
	require.NoError(t, s.UploadAvailability(context.Background(), caregiver(who), date))
}

func doses(t *testing.T, st store.Store, vaccine string) int {
	t.Helper()
	var n int
	require.NoError(t, st.View(context.Background(), func(tx store.Tx) error {
		v, err := tx.Vaccine(context.Background(), vaccine)
		if err != nil {
			return err
		}
		n = v.Doses
		return nil
	}))
	return n
}

func eligible(t *testing.T, s *scheduler.Scheduler, date string) []string {
	t.Helper()
	sched, err := s.Search(context.Background(), date)
	require.NoError(t, err)
	return sched.Caregivers
}

func maxID(t *testing.T, st store.Store) int {
	t.Helper()
	var max int
	require.NoError(t, st.View(context.Background(), func(tx store.Tx) error {
		var err error
		max, err = tx.MaxAppointmentID(context.Background())
		return err
	}))
	return max
}

func TestReserveSingleDoseScenario(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 1)
	upload(t, s, "carol", "2023-06-01")

	appt, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	assert.Equal(t, 1, appt.ID)
	assert.Equal(t, "carol", appt.Caregiver)
	assert.Equal(t, "pat", appt.Patient)
	assert.Equal(t, 0, doses(t, st, "Moderna"))

	_, err = s.Reserve(ctx, patient("pia"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrInsufficientInventory)
}

func TestReserveSuccessEffects(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Pfizer", 5)
	for _, c := range []string{"alice", "bob", "carol"} {
		upload(t, s, c, "2023-06-01")
	}

	before := eligible(t, s, "2023-06-01")
	appt, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Pfizer")
	require.NoError(t, err)

	assert.Contains(t, before, appt.Caregiver)
	after := eligible(t, s, "2023-06-01")
	assert.NotContains(t, after, appt.Caregiver)
	assert.Len(t, after, len(before)-1)
	assert.Equal(t, 4, doses(t, st, "Pfizer"))

	mine, err := s.Appointments(ctx, patient("pat"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, appt.ID, mine[0].ID)

	theirs, err := s.Appointments(ctx, caregiver(appt.Caregiver))
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "pat", theirs[0].Patient)
}

func TestReserveNoAvailability(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 3)
	upload(t, s, "carol", "2023-06-02")

	_, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrNoAvailability)
	assert.Equal(t, 0, maxID(t, st))
	assert.Equal(t, 3, doses(t, st, "Moderna"))
}

func TestReserveExhaustsCaregivers(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	addDoses(t, s, "Moderna", 10)
	upload(t, s, "carol", "2023-06-01")
	upload(t, s, "dave", "2023-06-01")

	a1, err := s.Reserve(ctx, patient("p1"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	a2, err := s.Reserve(ctx, patient("p2"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	assert.NotEqual(t, a1.Caregiver, a2.Caregiver)

	_, err = s.Reserve(ctx, patient("p3"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrNoAvailability)
}

func TestReserveZeroDosesLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 0)
	upload(t, s, "carol", "2023-06-01")

	_, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrInsufficientInventory)
	assert.Equal(t, []string{"carol"}, eligible(t, s, "2023-06-01"))
	assert.Equal(t, 0, maxID(t, st))
	assert.Equal(t, 0, doses(t, st, "Moderna"))
}

func TestReservePreconditionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	addDoses(t, s, "Empty", 0)

	tests := []struct {
		name    string
		date    string
		vaccine string
		want    error
	}{
		{"bad date beats unknown vaccine", "2023-13-40", "Nope", scheduler.ErrInvalidDate},
		{"garbage date", "tomorrow", "Empty", scheduler.ErrInvalidDate},
		{"unknown vaccine beats stock", "2023-06-01", "Nope", scheduler.ErrUnknownVaccine},
		{"stock beats availability", "2023-06-01", "Empty", scheduler.ErrInsufficientInventory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Reserve(ctx, patient("pat"), tt.date, tt.vaccine)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReserveRequiresPatient(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)

	_, err := s.Reserve(ctx, session.Identity{}, "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrNotLoggedIn)

	_, err = s.Reserve(ctx, caregiver("carol"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrPatientOnly)
}

func TestReserveAcceptsShortDateForm(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	addDoses(t, s, "Moderna", 1)
	upload(t, s, "carol", "2023-06-01")

	appt, err := s.Reserve(ctx, patient("pat"), "2023-6-1", "Moderna")
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", appt.Date.Format(model.DateLayout))
}

func TestRoundRobinPickerSpreadsLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t, scheduler.WithPicker(&scheduler.RoundRobinPicker{}))
	addDoses(t, s, "Moderna", 10)
	for _, d := range []string{"2023-06-01", "2023-06-02"} {
		upload(t, s, "alice", d)
		upload(t, s, "bob", d)
	}

	a1, err := s.Reserve(ctx, patient("p1"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	a2, err := s.Reserve(ctx, patient("p2"), "2023-06-02", "Moderna")
	require.NoError(t, err)
	assert.Equal(t, "alice", a1.Caregiver)
	assert.Equal(t, "bob", a2.Caregiver)
}

func TestCancelRestoresDose(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 2)
	upload(t, s, "carol", "2023-06-01")

	before := eligible(t, s, "2023-06-01")
	appt, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	assert.Equal(t, 1, doses(t, st, "Moderna"))

	require.NoError(t, s.Cancel(ctx, patient("pat"), appt.ID))
	assert.Equal(t, 2, doses(t, st, "Moderna"))
	assert.Equal(t, before, eligible(t, s, "2023-06-01"))

	mine, err := s.Appointments(ctx, patient("pat"))
	require.NoError(t, err)
	assert.Empty(t, mine)

	err = s.Cancel(ctx, patient("pat"), appt.ID)
	assert.ErrorIs(t, err, scheduler.ErrInvalidAppointmentID)
}

func TestCancelByCaregiver(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 1)
	upload(t, s, "carol", "2023-06-01")

	appt, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	require.NoError(t, err)
	require.NoError(t, s.Cancel(ctx, caregiver("carol"), appt.ID))
	assert.Equal(t, 1, doses(t, st, "Moderna"))
}

func TestCancelUnauthorized(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	addDoses(t, s, "Moderna", 1)
	upload(t, s, "carol", "2023-06-01")
	appt, err := s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	require.NoError(t, err)

	tests := []struct {
		name string
		who  session.Identity
		want error
	}{
		{"other patient", patient("mallory"), scheduler.ErrUnauthorized},
		{"other caregiver", caregiver("dave"), scheduler.ErrUnauthorized},
		// usernames are per role; the booked patient's name as a caregiver is someone else
		{"patient name in caregiver role", caregiver("pat"), scheduler.ErrUnauthorized},
		{"anonymous", session.Identity{}, scheduler.ErrNotLoggedIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Cancel(ctx, tt.who, appt.ID)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, doses(t, st, "Moderna"))
			assert.Equal(t, appt.ID, maxID(t, st))
		})
	}
}

func TestAddDoses(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)

	n, err := s.AddDoses(ctx, caregiver("carol"), "Moderna", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = s.AddDoses(ctx, caregiver("carol"), "Moderna", 7)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = s.AddDoses(ctx, caregiver("carol"), "Novavax", -1)
	assert.ErrorIs(t, err, scheduler.ErrInvalidDoses)

	_, err = s.AddDoses(ctx, caregiver("carol"), "Moderna", -13)
	assert.ErrorIs(t, err, scheduler.ErrInsufficientInventory)

	_, err = s.AddDoses(ctx, patient("pat"), "Moderna", 1)
	assert.ErrorIs(t, err, scheduler.ErrCaregiverOnly)
}

func TestUploadAvailabilityIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	upload(t, s, "carol", "2023-06-01")
	upload(t, s, "carol", "2023-6-1")

	assert.Equal(t, []string{"carol"}, eligible(t, s, "2023-06-01"))

	assert.ErrorIs(t, s.UploadAvailability(ctx, caregiver("carol"), "June 1"), scheduler.ErrInvalidDate)
	assert.ErrorIs(t, s.UploadAvailability(ctx, patient("pat"), "2023-06-01"), scheduler.ErrCaregiverOnly)
	assert.ErrorIs(t, s.UploadAvailability(ctx, session.Identity{}, "2023-06-01"), scheduler.ErrNotLoggedIn)
}

func TestSearchListsVaccines(t *testing.T) {
	s, _ := setup(t)
	addDoses(t, s, "Pfizer", 3)
	addDoses(t, s, "Moderna", 1)

	sched, err := s.Search(context.Background(), "2023-06-01")
	require.NoError(t, err)
	assert.Empty(t, sched.Caregivers)
	assert.Equal(t, []model.Vaccine{{Name: "Moderna", Doses: 1}, {Name: "Pfizer", Doses: 3}}, sched.Vaccines)

	_, err = s.Search(context.Background(), "2023-02-30")
	assert.ErrorIs(t, err, scheduler.ErrInvalidDate)
}

// failingStore injects a fault into the appointment insert, the last write
// of a reservation.
type failingStore struct {
	store.Store
}

type failingTx struct {
	store.Tx
}

var errDisk = errors.New("disk on fire")

func (failingTx) InsertAppointment(context.Context, *model.Appointment) (int, error) {
	return 0, errDisk
}

func (f failingStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	return f.Store.Update(ctx, func(tx store.Tx) error { return fn(failingTx{tx}) })
}

func TestReserveStorageFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	mem, err := memstore.New()
	require.NoError(t, err)
	seed := scheduler.New(mem)
	addDoses(t, seed, "Moderna", 1)
	upload(t, seed, "carol", "2023-06-01")

	s := scheduler.New(failingStore{mem})
	_, err = s.Reserve(ctx, patient("pat"), "2023-06-01", "Moderna")
	assert.ErrorIs(t, err, scheduler.ErrStorage)
	assert.ErrorIs(t, err, errDisk)

	// the debit that preceded the failed insert is gone
	assert.Equal(t, 1, doses(t, mem, "Moderna"))
	assert.Equal(t, []string{"carol"}, eligible(t, seed, "2023-06-01"))
}

func TestDosesNeverNegative(t *testing.T) {
	ctx := context.Background()
	s, st := setup(t)
	rng := rand.New(rand.NewSource(1))

	vaccines := []string{"Moderna", "Pfizer"}
	dates := []string{"2023-06-01", "2023-06-02", "2023-06-03"}
	caregivers := []string{"alice", "bob", "carol"}
	patients := []string{"p1", "p2", "p3", "p4"}
	for _, v := range vaccines {
		addDoses(t, s, v, 0)
	}

	var booked []int
	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			_, _ = s.AddDoses(ctx, caregiver("admin"), vaccines[rng.Intn(2)], rng.Intn(3)-1)
		case 1:
			upload(t, s, caregivers[rng.Intn(3)], dates[rng.Intn(3)])
		case 2:
			appt, err := s.Reserve(ctx, patient(patients[rng.Intn(4)]), dates[rng.Intn(3)], vaccines[rng.Intn(2)])
			if err == nil {
				booked = append(booked, appt.ID)
			} else {
				assert.False(t, errors.Is(err, scheduler.ErrStorage), "unexpected %v", err)
			}
		case 3:
			if len(booked) == 0 {
				continue
			}
			k := rng.Intn(len(booked))
			id := booked[k]
			if err := s.Cancel(ctx, patient(patients[rng.Intn(4)]), id); err == nil {
				booked = append(booked[:k], booked[k+1:]...)
			}
		}

		for _, v := range vaccines {
			require.GreaterOrEqual(t, doses(t, st, v), 0)
		}
	}
}

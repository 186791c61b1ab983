// Package memstore implements store.Store in process memory on go-memdb.
// Write transactions are serialized by memdb's single writer lock and are
// discarded on Abort, so it gives the same all-or-nothing behaviour as the
// SQL drivers. Used for db_driver=memory and throughout the tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	memdb "github.com/hashicorp/go-memdb"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

const (
	tVaccine      = "vaccine"
	tAvailability = "availability"
	tAppointment  = "appointment"
	tUser         = "user"
)

// records are never mutated after insert; updates insert a fresh copy
type vaccineRec struct {
	Name  string
	Doses int
}

type availabilityRec struct {
	Caregiver string
	Date      string
}

type appointmentRec struct {
	ID        int
	Date      string
	Caregiver string
	Patient   string
	Vaccine   string
}

type userRec struct {
	Role         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func schema() *memdb.DBSchema {
	str := func(f string) memdb.Indexer { return &memdb.StringFieldIndex{Field: f} }
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tVaccine: {
				Name: tVaccine,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: str("Name")},
				},
			},
			tAvailability: {
				Name: tAvailability,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{str("Caregiver"), str("Date")},
					}},
					"date": {Name: "date", Indexer: str("Date")},
				},
			},
			tAppointment: {
				Name: tAppointment,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
					"slot": {Name: "slot", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{str("Caregiver"), str("Date")},
					}},
					"caregiver": {Name: "caregiver", Indexer: str("Caregiver")},
					"patient":   {Name: "patient", Indexer: str("Patient")},
				},
			},
			tUser: {
				Name: tUser,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{str("Role"), str("Username")},
					}},
				},
			},
		},
	}
}

type Store struct {
	db *memdb.MemDB
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memstore: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.db.Txn(true)
	if err := fn(&txn{t: t}); err != nil {
		t.Abort()
		return err
	}
	t.Commit()
	return nil
}

func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.db.Txn(false)
	defer t.Abort()
	return fn(&txn{t: t})
}

func (s *Store) Close() error { return nil }

type txn struct {
	t *memdb.Txn
}

func day(d time.Time) string { return store.Day(d).Format(model.DateLayout) }

func (x *txn) Vaccine(_ context.Context, name string) (*model.Vaccine, error) {
	raw, err := x.t.First(tVaccine, "id", name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	r := raw.(*vaccineRec)
	return &model.Vaccine{Name: r.Name, Doses: r.Doses}, nil
}

func (x *txn) Vaccines(_ context.Context) ([]model.Vaccine, error) {
	it, err := x.t.Get(tVaccine, "id")
	if err != nil {
		return nil, err
	}
	var out []model.Vaccine
	for obj := it.Next(); obj != nil; obj = it.Next() {
		r := obj.(*vaccineRec)
		out = append(out, model.Vaccine{Name: r.Name, Doses: r.Doses})
	}
	return out, nil
}

func (x *txn) CreateVaccine(ctx context.Context, v *model.Vaccine) error {
	if _, err := x.Vaccine(ctx, v.Name); err == nil {
		return fmt.Errorf("%w: vaccine %q", store.ErrConflict, v.Name)
	}
	if v.Doses < 0 {
		return store.ErrInsufficient
	}
	return x.t.Insert(tVaccine, &vaccineRec{Name: v.Name, Doses: v.Doses})
}

func (x *txn) AdjustDoses(ctx context.Context, name string, delta int) (int, error) {
	v, err := x.Vaccine(ctx, name)
	if err != nil {
		return 0, err
	}
	n := v.Doses + delta
	if n < 0 {
		return 0, store.ErrInsufficient
	}
	if err := x.t.Insert(tVaccine, &vaccineRec{Name: name, Doses: n}); err != nil {
		return 0, err
	}
	return n, nil
}

func (x *txn) AddAvailability(_ context.Context, caregiver string, date time.Time) error {
	return x.t.Insert(tAvailability, &availabilityRec{Caregiver: caregiver, Date: day(date)})
}

func (x *txn) AvailableCaregivers(_ context.Context, date time.Time) ([]string, error) {
	d := day(date)
	it, err := x.t.Get(tAvailability, "date", d)
	if err != nil {
		return nil, err
	}
	var out []string
	for obj := it.Next(); obj != nil; obj = it.Next() {
		r := obj.(*availabilityRec)
		booked, err := x.t.First(tAppointment, "slot", r.Caregiver, d)
		if err != nil {
			return nil, err
		}
		if booked == nil {
			out = append(out, r.Caregiver)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (x *txn) MaxAppointmentID(_ context.Context) (int, error) {
	it, err := x.t.Get(tAppointment, "id")
	if err != nil {
		return 0, err
	}
	max := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if id := obj.(*appointmentRec).ID; id > max {
			max = id
		}
	}
	return max, nil
}

func (x *txn) InsertAppointment(ctx context.Context, a *model.Appointment) (int, error) {
	d := day(a.Date)
	clash, err := x.t.First(tAppointment, "slot", a.Caregiver, d)
	if err != nil {
		return 0, err
	}
	if clash != nil {
		return 0, fmt.Errorf("%w: %s already booked on %s", store.ErrConflict, a.Caregiver, d)
	}
	if _, err := x.Vaccine(ctx, a.Vaccine); err != nil {
		return 0, fmt.Errorf("appointment vaccine %q: %w", a.Vaccine, err)
	}
	max, err := x.MaxAppointmentID(ctx)
	if err != nil {
		return 0, err
	}
	rec := &appointmentRec{
		ID:        max + 1,
		Date:      d,
		Caregiver: a.Caregiver,
		Patient:   a.Patient,
		Vaccine:   a.Vaccine,
	}
	if err := x.t.Insert(tAppointment, rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (x *txn) Appointment(_ context.Context, id int) (*model.Appointment, error) {
	raw, err := x.t.First(tAppointment, "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	return toAppointment(raw.(*appointmentRec)), nil
}

func (x *txn) AppointmentsByCaregiver(_ context.Context, username string) ([]model.Appointment, error) {
	return x.appointments("caregiver", username)
}

func (x *txn) AppointmentsByPatient(_ context.Context, username string) ([]model.Appointment, error) {
	return x.appointments("patient", username)
}

func (x *txn) appointments(index, username string) ([]model.Appointment, error) {
	it, err := x.t.Get(tAppointment, index, username)
	if err != nil {
		return nil, err
	}
	var out []model.Appointment
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *toAppointment(obj.(*appointmentRec)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (x *txn) DeleteAppointment(_ context.Context, id int) error {
	raw, err := x.t.First(tAppointment, "id", id)
	if err != nil {
		return err
	}
	if raw == nil {
		return store.ErrNotFound
	}
	return x.t.Delete(tAppointment, raw)
}

func (x *txn) CreateUser(_ context.Context, u *model.User) error {
	existing, err := x.t.First(tUser, "id", u.Role.String(), u.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s %q", store.ErrConflict, u.Role, u.Username)
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return x.t.Insert(tUser, &userRec{
		Role:         u.Role.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    created,
	})
}

func (x *txn) User(_ context.Context, role model.Role, username string) (*model.User, error) {
	raw, err := x.t.First(tUser, "id", role.String(), username)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	r := raw.(*userRec)
	return &model.User{
		Role:         role,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func toAppointment(r *appointmentRec) *model.Appointment {
	d, _ := time.Parse(model.DateLayout, r.Date)
	return &model.Appointment{
		ID:        r.ID,
		Date:      d,
		Caregiver: r.Caregiver,
		Patient:   r.Patient,
		Vaccine:   r.Vaccine,
	}
}

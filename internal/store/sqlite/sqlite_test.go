package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
	"vaccine-scheduler/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := Open(context.Background(), ":memory:", zap.NewNop())
		require.NoError(t, err)
		return st
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scheduler.db")

	st, err := Open(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.Update(ctx, func(tx store.Tx) error {
		return tx.CreateVaccine(ctx, &model.Vaccine{Name: "Moderna", Doses: 3})
	}))
	require.NoError(t, st.Close())

	// migration is repeatable
	st, err = Open(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.View(ctx, func(tx store.Tx) error {
		v, err := tx.Vaccine(ctx, "Moderna")
		require.NoError(t, err)
		assert.Equal(t, 3, v.Doses)
		return nil
	}))
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"file:s.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate",
		DSN("s.db"))
	assert.Equal(t, "file:x.db?mode=ro", DSN("file:x.db?mode=ro"))
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, zap.NewNop()), mock
}

func TestUpdateRollsBackOnError(t *testing.T) {
	st, mock := newMock(t)
	ctx := context.Background()
	dbErr := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vaccines SET doses = doses + ?`)).
		WithArgs(-1, "Moderna", -1).
		WillReturnError(dbErr)
	mock.ExpectRollback()

	err := st.Update(ctx, func(tx store.Tx) error {
		_, err := tx.AdjustDoses(ctx, "Moderna", -1)
		return err
	})
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReportsFailedRollback(t *testing.T) {
	st, mock := newMock(t)
	ctx := context.Background()
	fnErr := errors.New("rejected")
	rbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rbErr)

	err := st.Update(ctx, func(store.Tx) error { return fnErr })
	assert.ErrorIs(t, err, fnErr)
	assert.ErrorIs(t, err, rbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCommits(t *testing.T) {
	st, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO availabilities`)).
		WithArgs("carol", "2023-06-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Update(ctx, func(tx store.Tx) error {
		return tx.AddAvailability(ctx, "carol", storetest.June1)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustDosesInsufficient(t *testing.T) {
	st, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vaccines SET doses = doses + ?`)).
		WithArgs(-1, "Moderna", -1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, doses FROM vaccines WHERE name = ?`)).
		WithArgs("Moderna").
		WillReturnRows(sqlmock.NewRows([]string{"name", "doses"}).AddRow("Moderna", 0))
	mock.ExpectRollback()

	err := st.Update(ctx, func(tx store.Tx) error {
		_, err := tx.AdjustDoses(ctx, "Moderna", -1)
		return err
	})
	assert.ErrorIs(t, err, store.ErrInsufficient)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadStoredDate(t *testing.T) {
	st, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM appointments WHERE id = ?`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "appt_date", "caregiver", "patient", "vaccine"}).
			AddRow(1, "06/01/2023", "carol", "pat", "Moderna"))
	mock.ExpectCommit()

	err := st.View(ctx, func(tx store.Tx) error {
		_, err := tx.Appointment(ctx, 1)
		assert.ErrorContains(t, err, "bad stored date")
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package scheduler

import (
	"context"
	"errors"

	"vaccine-scheduler/internal/model"
	"vaccine-scheduler/internal/store"
)

// Ledger is the dose inventory as seen from one transaction.
type Ledger struct {
	tx store.Tx
}

func NewLedger(tx store.Tx) Ledger { return Ledger{tx: tx} }

func (l Ledger) Lookup(ctx context.Context, name string) (*model.Vaccine, error) {
	v, err := l.tx.Vaccine(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownVaccine
	}
	if err != nil {
		return nil, storageErr("lookup vaccine", err)
	}
	return v, nil
}

func (l Ledger) List(ctx context.Context) ([]model.Vaccine, error) {
	vs, err := l.tx.Vaccines(ctx)
	return vs, storageErr("list vaccines", err)
}

// AddOrCreate creates the vaccine with delta doses when it is unknown, and
// otherwise adds delta to its count. It returns the resulting count.
func (l Ledger) AddOrCreate(ctx context.Context, name string, delta int) (int, error) {
	_, err := l.tx.Vaccine(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if delta < 0 {
			return 0, ErrInvalidDoses
		}
		if err := l.tx.CreateVaccine(ctx, &model.Vaccine{Name: name, Doses: delta}); err != nil {
			return 0, storageErr("create vaccine", err)
		}
		return delta, nil
	case err != nil:
		return 0, storageErr("lookup vaccine", err)
	}
	return l.adjust(ctx, name, delta)
}

// Decrease removes delta doses, refusing to go below zero.
func (l Ledger) Decrease(ctx context.Context, name string, delta int) (int, error) {
	if delta < 0 {
		return 0, ErrInvalidDoses
	}
	return l.adjust(ctx, name, -delta)
}

func (l Ledger) HasAtLeastOneDose(ctx context.Context, name string) (bool, error) {
	v, err := l.Lookup(ctx, name)
	if err != nil {
		return false, err
	}
	return v.Doses >= 1, nil
}

func (l Ledger) adjust(ctx context.Context, name string, delta int) (int, error) {
	n, err := l.tx.AdjustDoses(ctx, name, delta)
	switch {
	case errors.Is(err, store.ErrInsufficient):
		return 0, ErrInsufficientInventory
	case errors.Is(err, store.ErrNotFound):
		return 0, ErrUnknownVaccine
	case err != nil:
		return 0, storageErr("adjust doses", err)
	}
	return n, nil
}

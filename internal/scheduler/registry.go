package scheduler

import (
	"context"
	"time"

	"vaccine-scheduler/internal/store"
)

// Registry records which caregivers are open on which dates.
type Registry struct {
	tx store.Tx
}

func NewRegistry(tx store.Tx) Registry { return Registry{tx: tx} }

// Upload marks caregiver open on date. Uploading the same pair twice keeps
// a single entry.
func (r Registry) Upload(ctx context.Context, caregiver string, date time.Time) error {
	return storageErr("upload availability", r.tx.AddAvailability(ctx, caregiver, date))
}

// ListAvailable returns the eligible caregiver set for date: open on date and
// not already holding an appointment that day.
func (r Registry) ListAvailable(ctx context.Context, date time.Time) ([]string, error) {
	names, err := r.tx.AvailableCaregivers(ctx, date)
	if err != nil {
		return nil, storageErr("list available", err)
	}
	return names, nil
}

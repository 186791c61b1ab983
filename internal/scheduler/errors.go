package scheduler

import (
	"errors"
	"fmt"
)

// Every error returned by a Scheduler method wraps exactly one of these.
var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrUnknownVaccine        = errors.New("unknown vaccine")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNoAvailability        = errors.New("no caregiver available")
	ErrInvalidAppointmentID  = errors.New("invalid appointment id")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInvalidDoses          = errors.New("invalid dose count")
	ErrNotLoggedIn           = errors.New("login required")
	ErrPatientOnly           = errors.New("patients only")
	ErrCaregiverOnly         = errors.New("caregivers only")
	ErrStorage               = errors.New("storage failure")
)

var taxonomy = []error{
	ErrInvalidDate, ErrUnknownVaccine, ErrInsufficientInventory, ErrNoAvailability,
	ErrInvalidAppointmentID, ErrUnauthorized, ErrNotFound, ErrInvalidDoses,
	ErrNotLoggedIn, ErrPatientOnly, ErrCaregiverOnly, ErrStorage,
}

func categorized(err error) bool {
	for _, e := range taxonomy {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// storageErr files an uncategorized persistence fault under ErrStorage and
// leaves categorized errors alone.
func storageErr(op string, err error) error {
	if err == nil || categorized(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

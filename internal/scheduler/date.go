package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// one- or two-digit month and day are accepted
const inputLayout = "2006-1-2"

// ParseDate parses a calendar date such as 2023-06-01 or 2023-6-1.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(inputLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

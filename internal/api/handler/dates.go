package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

// parseBound reads a date query parameter as YYYY-MM-DD in loc or as an
// RFC 3339 instant. A bare date used as an upper bound covers the whole day.
func parseBound(name, value string, loc *time.Location, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		if upper {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput, name)
}

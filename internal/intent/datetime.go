package intent

import (
	"fmt"
	"time"

	"github.com/nhle/dayflow/internal/model"
)

// ResolveDate applies the date defaulting policy: a missing date means
// "today" in the user's timezone, and a date that resolves to a past
// calendar day is rolled forward to the same month/day in the current
// year, or the next year if that is still in the past.
func ResolveDate(raw string, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	todayStr := today.Format(model.DateLayout)

	if raw == "" {
		return todayStr, nil
	}

	parsed, err := time.ParseInLocation(model.DateLayout, raw, loc)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", raw, err)
	}

	if parsed.Format(model.DateLayout) >= todayStr {
		return parsed.Format(model.DateLayout), nil
	}

	rolled := time.Date(today.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)
	if rolled.Format(model.DateLayout) < todayStr {
		rolled = time.Date(today.Year()+1, parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc)
	}
	return rolled.Format(model.DateLayout), nil
}

// ResolveTime applies the time defaulting policy: missing means
// model.DefaultTime; anything else must be a valid HH:MM.
func ResolveTime(raw string) (string, error) {
	if raw == "" {
		return model.DefaultTime, nil
	}
	if _, err := time.Parse(model.TimeLayout, raw); err != nil {
		return "", fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return raw, nil
}

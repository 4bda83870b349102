package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dayflow/internal/model"
)

func TestResolveDateDefaultsToToday(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	got, err := ResolveDate("", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", got)
}

func TestResolveDateUsesUserTimezone(t *testing.T) {
	// 23:30 UTC on the 15th is already the 16th in Auckland.
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	now := time.Date(2025, 3, 15, 23, 30, 0, 0, time.UTC)

	got, err := ResolveDate("", now, loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-16", got)
}

func TestResolveDateKeepsTodayAndFuture(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	got, err := ResolveDate("2025-03-15", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", got)

	got, err = ResolveDate("2025-12-24", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-24", got)
}

func TestResolveDateRollsPastDatesForward(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	// Same month/day later this year.
	got, err := ResolveDate("2024-06-01", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", got)

	// Same month/day already passed this year, so next year.
	got, err = ResolveDate("2024-01-10", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", got)
}

func TestResolveDateRejectsMalformed(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	_, err := ResolveDate("tomorrow", now, time.UTC)
	assert.Error(t, err)

	_, err = ResolveDate("15/03/2025", now, time.UTC)
	assert.Error(t, err)
}

func TestResolveTime(t *testing.T) {
	got, err := ResolveTime("")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTime, got)

	got, err = ResolveTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", got)

	_, err = ResolveTime("9am")
	assert.Error(t, err)

	_, err = ResolveTime("25:00")
	assert.Error(t, err)
}

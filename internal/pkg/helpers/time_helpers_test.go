package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	d, err := ParseClock("08:15:30")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+15*time.Minute+30*time.Second, d)

	d, err = ParseClock("08:15")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+15*time.Minute, d)

	_, err = ParseClock("25:00:00")
	assert.Error(t, err)
	_, err = ParseClock("not a clock")
	assert.Error(t, err)
}

func TestNormalizeClock(t *testing.T) {
	s, err := NormalizeClock("8:05")
	require.NoError(t, err)
	assert.Equal(t, "08:05:00", s)

	s, err = NormalizeClock("13:00:00")
	require.NoError(t, err)
	assert.Equal(t, "13:00:00", s)
}

func TestClockRoundTrip(t *testing.T) {
	at := time.Date(2025, 1, 6, 9, 45, 12, 0, time.UTC)
	assert.Equal(t, "09:45:12", ClockOf(at))
	assert.Equal(t, 9*time.Hour+45*time.Minute+12*time.Second, ClockOfAsOffset(at))
	assert.Equal(t, ClockOf(at), FormatClock(ClockOfAsOffset(at)))
}

func TestDateOnly(t *testing.T) {
	at := time.Date(2025, 1, 6, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), DateOnly(at))
}

func TestISOWeekday(t *testing.T) {
	// 2025-01-06 is a Monday
	assert.Equal(t, 1, ISOWeekday(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
	// 2025-01-11 is a Saturday
	assert.Equal(t, 6, ISOWeekday(time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)))
	// 2025-01-12 is a Sunday, ISO day 7
	assert.Equal(t, 7, ISOWeekday(time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)))
}

package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLocationByAirport(t *testing.T) {
	assert.Equal(t, "America/Los_Angeles", GetLocationByAirport("sfo", nil).String())
	assert.Equal(t, "Asia/Tokyo", GetLocationByAirport("NRT", nil).String())
	assert.Equal(t, time.UTC, GetLocationByAirport("XXX", nil))

	berlin := GetLocationByName("Europe/Berlin")
	require.NotNil(t, berlin)
	assert.Equal(t, berlin, GetLocationByAirport("XXX", berlin))
	assert.Nil(t, GetLocationByName("Mars/Olympus_Mons"))
}

func TestLocalDate(t *testing.T) {
	// 03:00 UTC on Oct 15 is still Oct 14 in San Francisco and already
	// midday in Tokyo.
	now := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), LocalDate(now, "SFO", nil))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), LocalDate(now, "NRT", nil))
}

func TestDateWindow(t *testing.T) {
	now := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

	dates := DateWindow(now, "SFO", 3, nil)
	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), dates[2])

	assert.Empty(t, DateWindow(now, "SFO", 0, nil))
}

func TestConvertToTimezone(t *testing.T) {
	got := ConvertToTimezone(time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC), "JFK")
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 14, got.Day())
}

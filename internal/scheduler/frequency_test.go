package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	for in, want := range map[string]string{
		"hourly":      "hourly",
		"twice_daily": "twice_daily",
		"daily":       "daily",
		"":            "twice_daily",
		"45m":         "45m0s",
		"3h":          "3h0m0s",
	} {
		f, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, f.String())
	}

	_, err := ParseFrequency("weekly")
	assert.Error(t, err)
	_, err = ParseFrequency("30s")
	assert.Error(t, err)
}

func TestFrequency_Next(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	at := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, la)
	}

	tests := []struct {
		name string
		freq string
		now  time.Time
		want time.Time
	}{
		{"hourly mid hour", Hourly, at(2026, 10, 14, 9, 17), at(2026, 10, 14, 10, 0)},
		{"hourly on the hour is strictly after", Hourly, at(2026, 10, 14, 10, 0), at(2026, 10, 14, 11, 0)},
		{"twice daily before six", TwiceDaily, at(2026, 10, 14, 5, 30), at(2026, 10, 14, 6, 0)},
		{"twice daily afternoon", TwiceDaily, at(2026, 10, 14, 12, 0), at(2026, 10, 14, 18, 0)},
		{"twice daily late evening rolls over", TwiceDaily, at(2026, 10, 14, 18, 0), at(2026, 10, 15, 6, 0)},
		{"daily after six", Daily, at(2026, 10, 14, 7, 0), at(2026, 10, 15, 6, 0)},
		{"daily month end", Daily, at(2026, 10, 31, 23, 0), at(2026, 11, 1, 6, 0)},
		{"daily across dst end", Daily, at(2026, 10, 31, 12, 0), at(2026, 11, 1, 6, 0)},
		{"interval", "90m", at(2026, 10, 14, 9, 17), at(2026, 10, 14, 10, 47)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrequency(tt.freq)
			require.NoError(t, err)
			got := f.Next(tt.now, la)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestFrequency_NextUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	f, _ := ParseFrequency(Daily)

	// 22:00 UTC is 07:00 the next morning in Tokyo.
	now := time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC)
	got := f.Next(now, tokyo)
	assert.True(t, got.Equal(time.Date(2026, 10, 16, 6, 0, 0, 0, tokyo)), got.String())

	got = f.Next(now, nil)
	assert.True(t, got.Equal(time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC)), got.String())
}

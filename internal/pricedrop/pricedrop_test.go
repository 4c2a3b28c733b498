package pricedrop_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/pointsmaxxer/internal/analyzer"
	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/pricedrop"
	"github.com/dharmasatrya/pointsmaxxer/internal/storage"
)

var travel = time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

func award(program string, miles int64) models.Deal {
	return models.Deal{
		Origin: "SFO", Destination: "NRT", Cabin: models.CabinBusiness,
		Date: travel, ProgramCode: program, MilesRequired: miles,
	}
}

func TestDetector_Detect(t *testing.T) {
	d := pricedrop.NewDetector()
	at := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	drop, ok := d.Detect(award("united", 17000), 20000, at)
	require.True(t, ok)
	assert.Equal(t, int64(3000), drop.DropAmount)
	assert.Equal(t, "15", drop.DropPercent.String())
	assert.True(t, drop.Significant)
	assert.False(t, drop.Major)

	drop, ok = d.Detect(award("united", 84000), 100000, at)
	require.True(t, ok)
	assert.True(t, drop.Major, "16000 miles clears the absolute bar")

	_, ok = d.Detect(award("united", 96000), 100000, at)
	assert.False(t, ok, "4% and 4000 miles")

	_, ok = d.Detect(award("united", 100000), 90000, at)
	assert.False(t, ok, "price went up")
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestTracker_Recent(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	a := analyzer.MustNew(nil, decimal.Zero)
	store := deals.NewStore(storage.NewMemory(), a, deals.Config{}, nil, deals.WithClock(clk.Now))

	record := func(program string, miles int64) {
		t.Helper()
		s := models.AvailabilitySnapshot{
			Origin: "SFO", Destination: "NRT", Cabin: models.CabinBusiness, Date: travel,
			ProgramCode: program, MilesRequired: miles, CashPrice: models.CentsPtr(600000),
		}
		_, _, err := store.Record(ctx, a.Score(s), s, nil)
		require.NoError(t, err)
	}

	// Seen once long before the lookback window.
	record("ana", 110000)

	clk.now = clk.now.AddDate(0, 0, 20)
	record("aeroplan", 85000)
	record("delta", 50000)
	record("ana", 88000)

	clk.now = clk.now.Add(24 * time.Hour)
	record("aeroplan", 70000)
	record("delta", 60000)

	drops, err := pricedrop.NewTracker(store, nil).Recent(ctx, clk.now, deals.Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, drops, 1)

	got := drops[0]
	assert.Equal(t, "aeroplan", got.Program)
	assert.Equal(t, int64(85000), got.OldMiles)
	assert.Equal(t, int64(70000), got.NewMiles)
	assert.Equal(t, "17.65", got.DropPercent.String())
	assert.True(t, got.Major)
	assert.Equal(t, "SFO→NRT on AEROPLAN: 85,000 → 70,000 miles (-15,000, 18% off)", got.Summary())
}

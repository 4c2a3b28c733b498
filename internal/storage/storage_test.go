package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/pointsmaxxer/internal/config"
	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
)

var base = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func sampleDeal(id string, firstSeen time.Time) models.Deal {
	seats := 2
	return models.Deal{
		ID:                  id,
		Fingerprint:         "fp-" + id,
		Origin:              "SFO",
		Destination:         "NRT",
		Cabin:               models.CabinBusiness,
		Date:                time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		ProgramCode:         "aeroplan",
		MilesRequired:       85000,
		TaxesFees:           8700,
		CashPrice:           models.CentsPtr(620000),
		SeatsAvailable:      &seats,
		CPP:                 decimal.NewNullDecimal(decimal.RequireFromString("7.1918")),
		Tier:                "unicorn",
		IsUnicorn:           true,
		Reachable:           true,
		SourceProgram:       "chase_ur",
		TransferPath:        []models.TransferEdge{{From: "chase_ur", To: "aeroplan", Ratio: decimal.NewFromInt(1)}},
		EffectivePointsCost: 85000,
		FirstSeenAt:         firstSeen,
		LastSeenAt:          firstSeen,
	}
}

func TestDealRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := sampleDeal("a", base)
			require.NoError(t, b.Insert(ctx, want))

			got, ok, err := b.GetByFingerprint(ctx, "fp-a")
			require.NoError(t, err)
			require.True(t, ok)

			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Cabin, got.Cabin)
			assert.True(t, want.Date.Equal(got.Date))
			assert.Equal(t, *want.CashPrice, *got.CashPrice)
			assert.Equal(t, 2, *got.SeatsAvailable)
			assert.True(t, got.CPP.Valid)
			assert.True(t, want.CPP.Decimal.Equal(got.CPP.Decimal))
			assert.True(t, got.IsUnicorn)
			require.Len(t, got.TransferPath, 1)
			assert.Equal(t, "aeroplan", got.TransferPath[0].To)
			assert.True(t, want.FirstSeenAt.Equal(got.FirstSeenAt))

			_, ok, err = b.GetByFingerprint(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDealNullableFields(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := sampleDeal("n", base)
			d.CashPrice = nil
			d.SeatsAvailable = nil
			d.CPP = decimal.NullDecimal{}
			d.Tier = "no_baseline"
			d.IsUnicorn = false
			require.NoError(t, b.Insert(ctx, d))

			got, ok, err := b.GetByFingerprint(ctx, d.Fingerprint)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Nil(t, got.CashPrice)
			assert.Nil(t, got.SeatsAvailable)
			assert.False(t, got.CPP.Valid)
		})
	}
}

func TestDealUpdateAndTouch(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := sampleDeal("u", base)
			require.NoError(t, b.Insert(ctx, d))

			later := base.Add(time.Hour)
			require.NoError(t, b.Touch(ctx, "u", later))
			got, _, err := b.GetByFingerprint(ctx, d.Fingerprint)
			require.NoError(t, err)
			assert.True(t, got.LastSeenAt.Equal(later))
			assert.True(t, got.FirstSeenAt.Equal(base))

			d.MilesRequired = 80000
			d.EffectivePointsCost = 80000
			d.LastSeenAt = later.Add(time.Hour)
			require.NoError(t, b.Update(ctx, d))
			got, _, err = b.GetByFingerprint(ctx, d.Fingerprint)
			require.NoError(t, err)
			assert.Equal(t, int64(80000), got.MilesRequired)
			assert.True(t, got.FirstSeenAt.Equal(base))

			assert.ErrorIs(t, b.Touch(ctx, "nope", later), ErrNotFound)
		})
	}
}

func TestDealListPaging(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 7; i++ {
				d := sampleDeal(fmt.Sprintf("d%d", i), base.Add(time.Duration(i/2)*time.Minute))
				if i%3 == 0 {
					d.Cabin = models.CabinFirst
				}
				require.NoError(t, b.Insert(ctx, d))
			}

			var ids []string
			q := deals.Query{Limit: 3}
			for {
				page, err := b.List(ctx, q)
				require.NoError(t, err)
				for _, d := range page {
					ids = append(ids, d.ID)
				}
				if len(page) < q.Limit {
					break
				}
				last := page[len(page)-1]
				q.After = &deals.Cursor{FirstSeenAt: last.FirstSeenAt, ID: last.ID}
			}
			assert.Equal(t, []string{"d0", "d1", "d2", "d3", "d4", "d5", "d6"}, ids)

			first, err := b.List(ctx, deals.Query{Filter: deals.Filter{Cabin: models.CabinFirst}})
			require.NoError(t, err)
			assert.Len(t, first, 3)

			from := time.Date(2026, 12, 2, 0, 0, 0, 0, time.UTC)
			none, err := b.List(ctx, deals.Query{Filter: deals.Filter{DateFrom: &from}})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestDeleteExpired(t *testing.T) {
	now := base
	horizon := now.AddDate(0, 0, -90)
	today := models.DateOf(now)

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			fresh := sampleDeal("fresh", now.Add(-24*time.Hour))

			old := sampleDeal("old", horizon.Add(-time.Hour))
			old.IsUnicorn = false
			old.LastSeenAt = now

			staleUnicorn := sampleDeal("stale-unicorn", horizon.Add(-time.Hour))

			liveUnicorn := sampleDeal("live-unicorn", horizon.Add(-time.Hour))
			liveUnicorn.LastSeenAt = now.Add(-time.Hour)

			departed := sampleDeal("departed", now.Add(-time.Hour))
			departed.Date = today.AddDate(0, 0, -1)

			for _, d := range []models.Deal{fresh, old, staleUnicorn, liveUnicorn, departed} {
				require.NoError(t, b.Insert(ctx, d))
			}

			n, err := b.DeleteExpired(ctx, horizon, today)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			remaining, err := b.List(ctx, deals.Query{})
			require.NoError(t, err)
			var ids []string
			for _, d := range remaining {
				ids = append(ids, d.ID)
			}
			assert.ElementsMatch(t, []string{"fresh", "live-unicorn"}, ids)
		})
	}
}

func TestEdgesReplace(t *testing.T) {
	until := base.Add(48 * time.Hour)
	edges := []models.TransferEdge{
		{From: "chase_ur", To: "aeroplan", Ratio: decimal.NewFromInt(1)},
		{From: "amex_mr", To: "ba_avios", Ratio: decimal.RequireFromString("1.3"), MinTransferUnit: 1000, ActiveUntil: &until},
	}

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.ReplaceEdges(ctx, edges))
			require.NoError(t, b.ReplaceEdges(ctx, edges))

			got, err := b.ListEdges(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "aeroplan", got[0].To)
			assert.True(t, got[1].Ratio.Equal(decimal.RequireFromString("1.3")))
			assert.Equal(t, int64(1000), got[1].MinTransferUnit)
			require.NotNil(t, got[1].ActiveUntil)
			assert.True(t, got[1].ActiveUntil.Equal(until))
			assert.Nil(t, got[0].ActiveUntil)
		})
	}
}

func TestPortfolioBalances(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.SetBalance(ctx, "chase_ur", 1000))

			inserted, err := b.SeedBalance(ctx, "chase_ur", 5000)
			require.NoError(t, err)
			assert.False(t, inserted)

			inserted, err = b.SeedBalance(ctx, "amex_mr", 5000)
			require.NoError(t, err)
			assert.True(t, inserted)

			err = b.ApplyTransfer(ctx, "chase_ur", 2000, "hyatt", 2000)
			assert.ErrorIs(t, err, portfolio.ErrInsufficientBalance)

			require.NoError(t, b.ApplyTransfer(ctx, "amex_mr", 4000, "chase_ur", 4000))

			entries, err := b.ListBalances(ctx)
			require.NoError(t, err)
			assert.Equal(t, []models.PortfolioEntry{
				{ProgramCode: "amex_mr", Balance: 1000},
				{ProgramCode: "chase_ur", Balance: 5000},
			}, entries)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, b.Ping(ctx))
	require.NoError(t, b.Close())

	_, err = Open(ctx, config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var travel = time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)

func workItem() models.WorkItem {
	return models.WorkItem{Origin: "SFO", Destination: "NRT", Cabin: models.CabinBusiness, Date: travel, Program: "aeroplan"}
}

func TestResponseCache_Availability(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)}
	c := New(NewMemoryStore().WithClock(clk.Now), TTLs{Availability: time.Hour})
	ctx := context.Background()

	_, ok := c.GetAvailability(ctx, workItem())
	assert.False(t, ok)

	seats := 2
	entry := AvailabilityEntry{
		Snapshots: []models.AvailabilitySnapshot{{
			Origin: "SFO", Destination: "NRT", Cabin: models.CabinBusiness, Date: travel,
			ProgramCode: "aeroplan", MilesRequired: 75000, TaxesFees: 5600, SeatsAvailable: &seats,
		}},
		FetchedAt: clk.Now(),
	}
	require.NoError(t, c.SetAvailability(ctx, workItem(), entry))

	got, ok := c.GetAvailability(ctx, workItem())
	require.True(t, ok)
	require.Len(t, got.Snapshots, 1)
	assert.Equal(t, int64(75000), got.Snapshots[0].MilesRequired)
	assert.Equal(t, 2, *got.Snapshots[0].SeatsAvailable)
	assert.True(t, got.FetchedAt.Equal(entry.FetchedAt))

	other := workItem()
	other.Program = "united"
	_, ok = c.GetAvailability(ctx, other)
	assert.False(t, ok)

	clk.Advance(time.Hour)
	_, ok = c.GetAvailability(ctx, workItem())
	assert.False(t, ok, "entry expires at its ttl")
}

func TestResponseCache_CashQuote(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)}
	c := New(NewMemoryStore().WithClock(clk.Now), TTLs{})
	ctx := context.Background()
	key := models.CashPriceKey{Origin: "SFO", Destination: "NRT", Cabin: models.CabinBusiness, Date: travel}

	require.NoError(t, c.SetCashQuote(ctx, key, models.CashQuote{Price: models.CentsPtr(620000), Source: "demo"}))
	q, ok := c.GetCashQuote(ctx, key)
	require.True(t, ok)
	assert.Equal(t, models.Cents(620000), *q.Price)

	// A missing fare is cached as well so it is not re-queried.
	key.Cabin = models.CabinPremiumEconomy
	require.NoError(t, c.SetCashQuote(ctx, key, models.CashQuote{Source: "demo"}))
	q, ok = c.GetCashQuote(ctx, key)
	require.True(t, ok)
	assert.Nil(t, q.Price)

	clk.Advance(23 * time.Hour)
	_, ok = c.GetCashQuote(ctx, key)
	assert.True(t, ok)
	clk.Advance(time.Hour)
	_, ok = c.GetCashQuote(ctx, key)
	assert.False(t, ok)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Close() error { return nil }

func TestResponseCache_StoreErrorsAreMisses(t *testing.T) {
	c := New(brokenStore{}, TTLs{})
	_, ok := c.GetAvailability(context.Background(), workItem())
	assert.False(t, ok)
	assert.Error(t, c.SetAvailability(context.Background(), workItem(), AvailabilityEntry{}))
}

func TestGenerateKey(t *testing.T) {
	a := availabilityKey(workItem())
	lower := workItem()
	lower.Origin = "sfo"
	assert.Equal(t, a, availabilityKey(lower))
	assert.Contains(t, a, "award:")
	assert.NotEqual(t, a, cashKey(workItem().CashKey()))
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()
	require.NoError(t, c.SetAvailability(ctx, workItem(), AvailabilityEntry{}))
	_, ok := c.GetAvailability(ctx, workItem())
	assert.False(t, ok)
	_, ok = c.GetCashQuote(ctx, workItem().CashKey())
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

// TestRedisStore_Integration requires a running Redis.
func TestRedisStore_Integration(t *testing.T) {
	store, err := NewRedisStore(DefaultRedisConfig())
	if err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer store.Close()

	c := New(store, TTLs{Availability: time.Minute})
	ctx := context.Background()
	item := workItem()
	item.Program = "integration-test"

	require.NoError(t, c.SetAvailability(ctx, item, AvailabilityEntry{FetchedAt: time.Now().UTC()}))
	_, ok := c.GetAvailability(ctx, item)
	assert.True(t, ok)

	_, ok, err = store.Get(ctx, "award:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

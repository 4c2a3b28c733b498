package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const (
	DefaultAvailabilityTTL = 6 * time.Hour
	DefaultCashPriceTTL    = 24 * time.Hour
)

// AvailabilityEntry is the cached outcome of one work item.
type AvailabilityEntry struct {
	Snapshots []models.AvailabilitySnapshot `json:"snapshots"`
	FetchedAt time.Time                     `json:"fetched_at"`
}

// Cache holds recent award and cash-price responses. A present entry is
// fresh; expiry is left to the backing store.
type Cache interface {
	GetAvailability(ctx context.Context, item models.WorkItem) (AvailabilityEntry, bool)
	SetAvailability(ctx context.Context, item models.WorkItem, entry AvailabilityEntry) error
	GetCashQuote(ctx context.Context, key models.CashPriceKey) (models.CashQuote, bool)
	SetCashQuote(ctx context.Context, key models.CashPriceKey, quote models.CashQuote) error
	Close() error
}

// Store is a byte-level key value store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

type TTLs struct {
	Availability time.Duration
	CashPrice    time.Duration
}

func (t *TTLs) applyDefaults() {
	if t.Availability <= 0 {
		t.Availability = DefaultAvailabilityTTL
	}
	if t.CashPrice <= 0 {
		t.CashPrice = DefaultCashPriceTTL
	}
}

// ResponseCache encodes entries as JSON under hashed keys in a Store.
type ResponseCache struct {
	store Store
	ttls  TTLs
}

func New(store Store, ttls TTLs) *ResponseCache {
	ttls.applyDefaults()
	return &ResponseCache{store: store, ttls: ttls}
}

func (c *ResponseCache) GetAvailability(ctx context.Context, item models.WorkItem) (AvailabilityEntry, bool) {
	var entry AvailabilityEntry
	ok := c.get(ctx, availabilityKey(item), &entry)
	return entry, ok
}

func (c *ResponseCache) SetAvailability(ctx context.Context, item models.WorkItem, entry AvailabilityEntry) error {
	return c.set(ctx, availabilityKey(item), entry, c.ttls.Availability)
}

func (c *ResponseCache) GetCashQuote(ctx context.Context, key models.CashPriceKey) (models.CashQuote, bool) {
	var quote models.CashQuote
	ok := c.get(ctx, cashKey(key), &quote)
	return quote, ok
}

func (c *ResponseCache) SetCashQuote(ctx context.Context, key models.CashPriceKey, quote models.CashQuote) error {
	return c.set(ctx, cashKey(key), quote, c.ttls.CashPrice)
}

func (c *ResponseCache) Close() error {
	return c.store.Close()
}

// Lookup errors are treated as misses.
func (c *ResponseCache) get(ctx context.Context, key string, v any) bool {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (c *ResponseCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, data, ttl)
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetAvailability(ctx context.Context, item models.WorkItem) (AvailabilityEntry, bool) {
	return AvailabilityEntry{}, false
}

func (c *NoOpCache) SetAvailability(ctx context.Context, item models.WorkItem, entry AvailabilityEntry) error {
	return nil
}

func (c *NoOpCache) GetCashQuote(ctx context.Context, key models.CashPriceKey) (models.CashQuote, bool) {
	return models.CashQuote{}, false
}

func (c *NoOpCache) SetCashQuote(ctx context.Context, key models.CashPriceKey, quote models.CashQuote) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

func availabilityKey(item models.WorkItem) string {
	return generateKey("award", item.Program, item.Origin, item.Destination, string(item.Cabin), item.Date.Format(models.DateLayout))
}

func cashKey(key models.CashPriceKey) string {
	return generateKey("cash", key.Origin, key.Destination, string(key.Cabin), key.Date.Format(models.DateLayout))
}

func generateKey(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.ToUpper(strings.Join(parts, "|"))))
	return prefix + ":" + hex.EncodeToString(hash[:])
}

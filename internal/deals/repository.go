package deals

import (
	"context"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

type Filter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	Program     string
	Cabin       models.Cabin
	Origin      string
	Destination string
	UnicornOnly bool
	SeenSince   *time.Time
}

// Cursor is the keyset position of the last row of a page.
type Cursor struct {
	FirstSeenAt time.Time
	ID          string
}

type Query struct {
	Filter
	After *Cursor
	Limit int
}

// Repository is the durable deal history. Every method is a single
// statement against the backing store.
type Repository interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (models.Deal, bool, error)
	Insert(ctx context.Context, d models.Deal) error
	Update(ctx context.Context, d models.Deal) error
	Touch(ctx context.Context, id string, seenAt time.Time) error
	// List returns deals ordered by (first_seen_at, id) strictly after
	// q.After.
	List(ctx context.Context, q Query) ([]models.Deal, error)
	// DeleteExpired removes deals first seen before horizon or travelling
	// before today, keeping unicorns still seen inside the horizon whose
	// travel date has not passed.
	DeleteExpired(ctx context.Context, horizon, today time.Time) (int64, error)
}

// Matches applies f to a deal in memory. Repositories that cannot push a
// filter down use it.
func (f Filter) Matches(d models.Deal) bool {
	if f.DateFrom != nil && d.Date.Before(models.DateOf(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && d.Date.After(models.DateOf(*f.DateTo)) {
		return false
	}
	if f.Program != "" && d.ProgramCode != f.Program {
		return false
	}
	if f.Cabin != "" && d.Cabin != f.Cabin {
		return false
	}
	if f.Origin != "" && d.Origin != f.Origin {
		return false
	}
	if f.Destination != "" && d.Destination != f.Destination {
		return false
	}
	if f.UnicornOnly && !d.IsUnicorn {
		return false
	}
	if f.SeenSince != nil && d.LastSeenAt.Before(*f.SeenSince) {
		return false
	}
	return true
}

// Expired reports whether DeleteExpired would remove d.
func Expired(d models.Deal, horizon, today time.Time) bool {
	if d.Date.Before(today) {
		return true
	}
	if !d.FirstSeenAt.Before(horizon) {
		return false
	}
	return !(d.IsUnicorn && !d.LastSeenAt.Before(horizon))
}

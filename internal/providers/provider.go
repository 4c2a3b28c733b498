package providers

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// FetchRequest asks one program for award space on one route, cabin and
// date.
type FetchRequest struct {
	Origin      string
	Destination string
	Cabin       models.Cabin
	Date        time.Time
}

// AwardSource returns award availability for a single loyalty program.
type AwardSource interface {
	Program() string
	FetchAvailability(ctx context.Context, req FetchRequest) ([]models.AvailabilitySnapshot, error)
}

// CashPriceSource returns the cash fare used as the CPP baseline. A quote
// with a nil Price means no fare was found, which is not an error.
type CashPriceSource interface {
	FetchCashPrice(ctx context.Context, key models.CashPriceKey) (models.CashQuote, error)
}

type ProviderError struct {
	Provider  string
	Err       error
	Temporary bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// NewTemporaryError marks a failure the scanner may retry within a cycle.
func NewTemporaryError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Err:       err,
		Temporary: true,
	}
}

// IsTemporary reports whether err is worth retrying. Deadline and
// cancellation errors never are.
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Temporary
	}
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

// Registry holds one award source per program code.
type Registry struct {
	sources map[string]AwardSource
}

func NewRegistry(sources ...AwardSource) *Registry {
	r := &Registry{sources: make(map[string]AwardSource, len(sources))}
	for _, s := range sources {
		r.sources[models.NormalizeCode(s.Program())] = s
	}
	return r
}

func (r *Registry) Get(program string) (AwardSource, bool) {
	s, ok := r.sources[models.NormalizeCode(program)]
	return s, ok
}

// Programs returns the registered program codes in sorted order.
func (r *Registry) Programs() []string {
	out := make([]string, 0, len(r.sources))
	for code := range r.sources {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Select returns the registered subset of programs, or every program when
// programs is empty. Unknown codes are dropped.
func (r *Registry) Select(programs []string) []string {
	if len(programs) == 0 {
		return r.Programs()
	}
	seen := make(map[string]bool, len(programs))
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		code := models.NormalizeCode(p)
		if _, ok := r.sources[code]; !ok || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

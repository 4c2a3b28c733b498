package models

import (
	"strings"
	"time"
)

// Route is one configured origin/destination pair. An empty Origin means
// every home airport; Destination "*" is a wildcard the scanner skips. An
// empty Cabin scans every configured cabin.
type Route struct {
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
	Cabin       Cabin  `json:"cabin,omitempty" yaml:"cabin"`
}

func (r Route) Wildcard() bool {
	return r.Destination == "*"
}

// MaxSearchDays is the longest date range one search may cover, the usual
// airline booking horizon.
const MaxSearchDays = 331

type SearchRequest struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Cabins      []string `json:"cabins,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Programs    []string `json:"programs,omitempty"`
	BypassCache bool     `json:"bypass_cache,omitempty"`
	UnicornOnly bool     `json:"unicorn_only,omitempty"`
}

// Validate normalizes the request in place and reports the first problem.
func (r *SearchRequest) Validate() error {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	if r.Origin == "" {
		return ErrMissingOrigin
	}
	if r.Destination == "" {
		return ErrMissingDestination
	}
	if r.Origin == r.Destination {
		return ErrSameAirport
	}
	for i, c := range r.Cabins {
		cabin, ok := ParseCabin(c)
		if !ok {
			return ErrInvalidCabin
		}
		r.Cabins[i] = string(cabin)
	}
	var start, end time.Time
	var err error
	if r.StartDate != "" {
		if start, err = ParseDate(r.StartDate); err != nil {
			return ErrInvalidDate
		}
	}
	if r.EndDate != "" {
		if end, err = ParseDate(r.EndDate); err != nil {
			return ErrInvalidDate
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return ErrInvalidDateRange
	}
	if !start.IsZero() && !end.IsZero() && end.Sub(start) >= MaxSearchDays*24*time.Hour {
		return ErrDateRangeTooLong
	}
	for i, p := range r.Programs {
		r.Programs[i] = NormalizeCode(p)
	}
	return nil
}

func (r SearchRequest) CabinList() []Cabin {
	if len(r.Cabins) == 0 {
		return nil
	}
	out := make([]Cabin, 0, len(r.Cabins))
	for _, c := range r.Cabins {
		out = append(out, Cabin(c))
	}
	return out
}

type BalanceUpdateRequest struct {
	Balance int64 `json:"balance"`
}

func (r BalanceUpdateRequest) Validate() error {
	if r.Balance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Points int64  `json:"points"`
}

func (r *TransferRequest) Validate() error {
	r.From = NormalizeCode(r.From)
	r.To = NormalizeCode(r.To)
	if r.From == "" || r.To == "" {
		return ErrMissingProgram
	}
	if r.Points <= 0 {
		return ErrInvalidPoints
	}
	return nil
}

// WorkItem is one (route, cabin, date, program) combination in a scan cycle.
type WorkItem struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Cabin       Cabin     `json:"cabin"`
	Date        time.Time `json:"date"`
	Program     string    `json:"program"`
}

func (w WorkItem) CashKey() CashPriceKey {
	return CashPriceKey{Origin: w.Origin, Destination: w.Destination, Cabin: w.Cabin, Date: w.Date}
}

func (w WorkItem) String() string {
	return w.Program + ":" + w.Origin + "-" + w.Destination + ":" + string(w.Cabin) + ":" + w.Date.Format(DateLayout)
}

type FailureKind string

const (
	FailureScrape      FailureKind = "scrape"
	FailureTimeout     FailureKind = "timeout"
	FailureCircuitOpen FailureKind = "circuit_open"
	FailureRateLimited FailureKind = "rate_limited"
	FailureCanceled    FailureKind = "canceled"
)

// ScanFailure is a work item that produced no snapshots in this cycle.
type ScanFailure struct {
	Item   WorkItem    `json:"item"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin      ValidationError = "origin is required"
	ErrMissingDestination ValidationError = "destination is required"
	ErrSameAirport        ValidationError = "origin and destination must differ"
	ErrInvalidCabin       ValidationError = "cabin must be one of economy, premium_economy, business, first"
	ErrInvalidDate        ValidationError = "dates must be formatted YYYY-MM-DD"
	ErrInvalidDateRange   ValidationError = "end_date must not be before start_date"
	ErrDateRangeTooLong   ValidationError = "date range must not exceed 331 days"
	ErrMissingProgram     ValidationError = "program_code is required"
	ErrInvalidMiles       ValidationError = "miles_required must be positive"
	ErrInvalidPoints      ValidationError = "points must be positive"
	ErrNegativeAmount     ValidationError = "amounts must not be negative"
	ErrNegativeBalance    ValidationError = "balance must not be negative"
	ErrInvalidLimit       ValidationError = "limit must be a positive integer"
	ErrTransferUnit       ValidationError = "points must be a multiple of the partner's transfer unit"
)

package models

import (
	"strings"
	"time"
)

// Cents is a currency amount in US cents.
type Cents int64

type Cabin string

const (
	CabinEconomy        Cabin = "economy"
	CabinPremiumEconomy Cabin = "premium_economy"
	CabinBusiness       Cabin = "business"
	CabinFirst          Cabin = "first"
)

var Cabins = []Cabin{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

func ParseCabin(s string) (Cabin, bool) {
	c := Cabin(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Cabins {
		if c == known {
			return c, true
		}
	}
	return "", false
}

const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar day in t's own location and returns it
// as midnight UTC so dates compare and hash consistently.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// AvailabilitySnapshot is one award observation returned by a scraping
// collaborator.
type AvailabilitySnapshot struct {
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Cabin          Cabin     `json:"cabin"`
	Date           time.Time `json:"date"`
	ProgramCode    string    `json:"program_code"`
	MilesRequired  int64     `json:"miles_required"`
	TaxesFees      Cents     `json:"taxes_fees"`
	CashPrice      *Cents    `json:"cash_price,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
	SeatsAvailable *int      `json:"seats_available,omitempty"`
	Stops          *int      `json:"stops,omitempty"`
	Source         string    `json:"source,omitempty"`
}

func (s AvailabilitySnapshot) Validate() error {
	if s.Origin == "" {
		return ErrMissingOrigin
	}
	if s.Destination == "" {
		return ErrMissingDestination
	}
	if _, ok := ParseCabin(string(s.Cabin)); !ok {
		return ErrInvalidCabin
	}
	if s.ProgramCode == "" {
		return ErrMissingProgram
	}
	if s.MilesRequired <= 0 {
		return ErrInvalidMiles
	}
	if s.TaxesFees < 0 || (s.CashPrice != nil && *s.CashPrice < 0) {
		return ErrNegativeAmount
	}
	return nil
}

// CashQuote is the result of a baseline cash-price lookup. Price is nil when
// no baseline was available.
type CashQuote struct {
	Price     *Cents    `json:"price,omitempty"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

type CashPriceKey struct {
	Origin      string
	Destination string
	Cabin       Cabin
	Date        time.Time
}

func CentsPtr(c Cents) *Cents {
	return &c
}

// Package pricedrop finds awards whose mileage price fell against recent
// history.
package pricedrop

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/pkg/currency"
)

const (
	DefaultMinDropMiles int64 = 5000
	DefaultLookback           = 14 * 24 * time.Hour

	majorDropMiles int64 = 15000
)

var (
	DefaultMinDropPercent = decimal.NewFromInt(10)
	majorDropPercent      = decimal.NewFromInt(25)
	hundred               = decimal.NewFromInt(100)
)

type PriceDrop struct {
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Program     string          `json:"program"`
	Cabin       models.Cabin    `json:"cabin"`
	Date        time.Time       `json:"date"`
	OldMiles    int64           `json:"old_miles"`
	NewMiles    int64           `json:"new_miles"`
	DropAmount  int64           `json:"drop_amount"`
	DropPercent decimal.Decimal `json:"drop_percent"`
	DetectedAt  time.Time       `json:"detected_at"`
	Significant bool            `json:"significant"`
	Major       bool            `json:"major"`
}

// IsSignificant is a drop of at least 10% or 5,000 miles.
func (p PriceDrop) IsSignificant() bool {
	return p.DropPercent.GreaterThanOrEqual(DefaultMinDropPercent) || p.DropAmount >= DefaultMinDropMiles
}

// IsMajor is a drop of at least 25% or 15,000 miles.
func (p PriceDrop) IsMajor() bool {
	return p.DropPercent.GreaterThanOrEqual(majorDropPercent) || p.DropAmount >= majorDropMiles
}

func (p PriceDrop) Summary() string {
	return fmt.Sprintf("%s→%s on %s: %s → %s miles (-%s, %s%% off)",
		p.Origin, p.Destination, strings.ToUpper(p.Program),
		currency.FormatPoints(p.OldMiles), currency.FormatPoints(p.NewMiles),
		currency.FormatPoints(p.DropAmount), p.DropPercent.StringFixed(0))
}

type Detector struct {
	MinDropPercent decimal.Decimal
	MinDropMiles   int64
	Lookback       time.Duration
}

func NewDetector() *Detector {
	return &Detector{
		MinDropPercent: DefaultMinDropPercent,
		MinDropMiles:   DefaultMinDropMiles,
		Lookback:       DefaultLookback,
	}
}

// Detect compares an award against the highest price seen for it. ok is
// false when the price did not fall past either threshold.
func (d *Detector) Detect(current models.Deal, historicalMiles int64, at time.Time) (PriceDrop, bool) {
	if historicalMiles <= current.MilesRequired {
		return PriceDrop{}, false
	}

	amount := historicalMiles - current.MilesRequired
	percent := decimal.NewFromInt(amount).Mul(hundred).DivRound(decimal.NewFromInt(historicalMiles), 2)
	if percent.LessThan(d.MinDropPercent) && amount < d.MinDropMiles {
		return PriceDrop{}, false
	}

	drop := PriceDrop{
		Origin:      current.Origin,
		Destination: current.Destination,
		Program:     current.ProgramCode,
		Cabin:       current.Cabin,
		Date:        current.Date,
		OldMiles:    historicalMiles,
		NewMiles:    current.MilesRequired,
		DropAmount:  amount,
		DropPercent: percent,
		DetectedAt:  at,
	}
	drop.Significant = drop.IsSignificant()
	drop.Major = drop.IsMajor()
	return drop, true
}

// History is the deal history the tracker reads.
type History interface {
	History(ctx context.Context, f deals.Filter) iter.Seq2[models.Deal, error]
}

type Tracker struct {
	history  History
	detector *Detector
}

func NewTracker(history History, detector *Detector) *Tracker {
	if detector == nil {
		detector = NewDetector()
	}
	return &Tracker{history: history, detector: detector}
}

type awardKey struct {
	origin, destination, program string
	cabin                        models.Cabin
	date                         time.Time
}

// Recent groups deals seen inside the lookback by award and reports those
// whose most recently seen price is below the highest older price. Results
// are ordered by drop percent, largest first.
func (t *Tracker) Recent(ctx context.Context, now time.Time, f deals.Filter, limit int) ([]PriceDrop, error) {
	since := now.Add(-t.detector.Lookback)
	f.SeenSince = &since

	groups := make(map[awardKey][]models.Deal)
	for d, err := range t.history.History(ctx, f) {
		if err != nil {
			return nil, err
		}
		k := awardKey{d.Origin, d.Destination, d.ProgramCode, d.Cabin, d.Date}
		groups[k] = append(groups[k], d)
	}

	var drops []PriceDrop
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].LastSeenAt.After(group[j].LastSeenAt) })
		current := group[0]
		var highest int64
		for _, older := range group[1:] {
			if older.MilesRequired > highest {
				highest = older.MilesRequired
			}
		}
		if drop, ok := t.detector.Detect(current, highest, current.LastSeenAt); ok {
			drops = append(drops, drop)
		}
	}

	sort.Slice(drops, func(i, j int) bool {
		if c := drops[i].DropPercent.Cmp(drops[j].DropPercent); c != 0 {
			return c > 0
		}
		return drops[i].Date.Before(drops[j].Date)
	})
	if limit > 0 && len(drops) > limit {
		drops = drops[:limit]
	}
	return drops, nil
}

package analyzer

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const (
	TierPoor       = "poor"
	TierBaseline   = "baseline"
	TierGood       = "good"
	TierGreat      = "great"
	TierExcellent  = "excellent"
	TierUnicorn    = "unicorn"
	TierNoBaseline = "no_baseline"

	// CPPPlaces is the fixed precision every cpp value is rounded to before
	// any comparison.
	CPPPlaces = 4
)

var DefaultUnicornThreshold = decimal.NewFromInt(7)

// Tier is a named value band. Min is inclusive.
type Tier struct {
	Name string
	Min  decimal.Decimal
}

func DefaultTiers() []Tier {
	return []Tier{
		{Name: TierPoor, Min: decimal.Zero},
		{Name: TierBaseline, Min: decimal.RequireFromString("1.0")},
		{Name: TierGood, Min: decimal.RequireFromString("1.5")},
		{Name: TierGreat, Min: decimal.RequireFromString("2.0")},
		{Name: TierExcellent, Min: decimal.RequireFromString("4.0")},
		{Name: TierUnicorn, Min: decimal.RequireFromString("7.0")},
	}
}

type ValueResult struct {
	CPP        decimal.NullDecimal `json:"cpp"`
	Tier       string              `json:"tier"`
	IsUnicorn  bool                `json:"is_unicorn"`
	NoBaseline bool                `json:"no_baseline"`
}

type Analyzer struct {
	tiers     []Tier
	threshold decimal.Decimal
}

// New builds an analyzer. Empty tiers fall back to DefaultTiers and a zero
// threshold falls back to DefaultUnicornThreshold.
func New(tiers []Tier, threshold decimal.Decimal) (*Analyzer, error) {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	if threshold.IsZero() {
		threshold = DefaultUnicornThreshold
	}
	if threshold.IsNegative() {
		return nil, fmt.Errorf("unicorn threshold must be positive, got %s", threshold)
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min.LessThan(sorted[j].Min)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min.Equal(sorted[i-1].Min) {
			return nil, fmt.Errorf("tiers %q and %q share lower bound %s", sorted[i-1].Name, sorted[i].Name, sorted[i].Min)
		}
	}
	for _, t := range sorted {
		if t.Name == "" {
			return nil, fmt.Errorf("tier with lower bound %s has no name", t.Min)
		}
	}

	return &Analyzer{tiers: sorted, threshold: threshold}, nil
}

func MustNew(tiers []Tier, threshold decimal.Decimal) *Analyzer {
	a, err := New(tiers, threshold)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Analyzer) Threshold() decimal.Decimal {
	return a.threshold
}

// CPP computes cents-per-point as (cash - fees) / miles rounded to CPPPlaces.
// The result is invalid when there is no cash price or miles is not positive.
func CPP(cash *models.Cents, fees models.Cents, miles int64) decimal.NullDecimal {
	if cash == nil || miles <= 0 {
		return decimal.NullDecimal{}
	}
	net := decimal.NewFromInt(int64(*cash - fees))
	cpp := net.DivRound(decimal.NewFromInt(miles), CPPPlaces)
	if cpp.IsNegative() {
		cpp = decimal.Zero
	}
	return decimal.NewNullDecimal(cpp)
}

func (a *Analyzer) Score(s models.AvailabilitySnapshot) ValueResult {
	cpp := CPP(s.CashPrice, s.TaxesFees, s.MilesRequired)
	if !cpp.Valid {
		return ValueResult{Tier: TierNoBaseline, NoBaseline: true}
	}
	return ValueResult{
		CPP:       cpp,
		Tier:      a.Classify(cpp.Decimal),
		IsUnicorn: a.IsUnicorn(cpp.Decimal),
	}
}

func (a *Analyzer) IsUnicorn(cpp decimal.Decimal) bool {
	return cpp.GreaterThanOrEqual(a.threshold)
}

func (a *Analyzer) Classify(cpp decimal.Decimal) string {
	name := a.tiers[0].Name
	for _, t := range a.tiers {
		if cpp.LessThan(t.Min) {
			break
		}
		name = t.Name
	}
	return name
}

// Bucket is the coarse value band used for fingerprinting. Tiers at or above
// the unicorn threshold collapse into the highest tier below it so a deal
// crossing the threshold keeps its identity.
func (a *Analyzer) Bucket(r ValueResult) string {
	if !r.CPP.Valid {
		return "none"
	}
	name := a.tiers[0].Name
	for _, t := range a.tiers {
		if !t.Min.LessThan(a.threshold) || r.CPP.Decimal.LessThan(t.Min) {
			break
		}
		name = t.Name
	}
	return name
}

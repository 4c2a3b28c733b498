package providers

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const DemoSourceName = "demo"

type chartEntry struct {
	miles   int64
	program string
}

var awardCharts = map[Region]map[models.Cabin][]chartEntry{
	RegionDomestic: {
		models.CabinEconomy:  {{12500, "aa"}, {15000, "united"}, {10000, "delta"}},
		models.CabinBusiness: {{25000, "aa"}, {30000, "united"}, {25000, "delta"}},
		models.CabinFirst:    {{50000, "aa"}, {50000, "united"}, {50000, "delta"}},
	},
	RegionHawaii: {
		models.CabinEconomy:  {{22500, "aa"}, {22500, "united"}, {20000, "delta"}, {25000, "alaska"}},
		models.CabinBusiness: {{45000, "aa"}, {45000, "united"}, {40000, "delta"}, {50000, "alaska"}},
		models.CabinFirst:    {{80000, "aa"}, {80000, "united"}, {70000, "delta"}, {70000, "alaska"}},
	},
	RegionTransatlantic: {
		models.CabinEconomy:  {{30000, "aeroplan"}, {35000, "united"}, {40000, "delta"}, {26000, "ba_avios"}},
		models.CabinBusiness: {{70000, "aeroplan"}, {88000, "united"}, {85000, "delta"}, {60000, "ba_avios"}},
		models.CabinFirst:    {{100000, "aeroplan"}, {120000, "united"}, {120000, "delta"}, {85000, "ba_avios"}},
	},
	RegionTranspacific: {
		models.CabinEconomy:  {{35000, "aeroplan"}, {40000, "united"}, {45000, "delta"}, {35000, "alaska"}},
		models.CabinBusiness: {{75000, "aeroplan"}, {85000, "ana"}, {88000, "united"}, {70000, "alaska"}},
		models.CabinFirst:    {{110000, "aeroplan"}, {110000, "ana"}, {120000, "united"}, {70000, "alaska"}},
	},
}

// Cash fares in whole dollars.
var cashBaselines = map[Region]map[models.Cabin]int64{
	RegionDomestic:      {models.CabinEconomy: 250, models.CabinBusiness: 600, models.CabinFirst: 1200},
	RegionHawaii:        {models.CabinEconomy: 450, models.CabinBusiness: 1200, models.CabinFirst: 2500},
	RegionTransatlantic: {models.CabinEconomy: 800, models.CabinBusiness: 4500, models.CabinFirst: 9000},
	RegionTranspacific:  {models.CabinEconomy: 900, models.CabinBusiness: 6000, models.CabinFirst: 12000},
}

// Fee ranges in cents.
var feeRanges = map[string][2]int64{
	"aa":       {500, 5000},
	"united":   {500, 5000},
	"delta":    {500, 5000},
	"alaska":   {500, 5000},
	"aeroplan": {5000, 20000},
	"ana":      {5000, 15000},
	"ba_avios": {20000, 60000},
}

// DemoPrograms lists every program the demo charts price.
func DemoPrograms() []string {
	seen := map[string]bool{}
	var out []string
	for _, region := range []Region{RegionDomestic, RegionHawaii, RegionTransatlantic, RegionTranspacific} {
		for _, cabin := range models.Cabins {
			for _, e := range awardCharts[region][cabin] {
				if !seen[e.program] {
					seen[e.program] = true
					out = append(out, e.program)
				}
			}
		}
	}
	return out
}

// roll hashes parts into a stable pseudo-random value so repeated scans of
// the same award see the same space.
func roll(parts ...string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(parts, "|")))
	return h.Sum64()
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type DemoAwardSource struct {
	program string
	latency time.Duration
	now     func() time.Time
}

func NewDemoAwardSource(program string, latency time.Duration) *DemoAwardSource {
	return &DemoAwardSource{
		program: models.NormalizeCode(program),
		latency: latency,
		now:     time.Now,
	}
}

// NewDemoAwardSources builds one source per program in DemoPrograms.
func NewDemoAwardSources(latency time.Duration) []AwardSource {
	programs := DemoPrograms()
	out := make([]AwardSource, 0, len(programs))
	for _, p := range programs {
		out = append(out, NewDemoAwardSource(p, latency))
	}
	return out
}

func (s *DemoAwardSource) Program() string {
	return s.program
}

func (s *DemoAwardSource) FetchAvailability(ctx context.Context, req FetchRequest) ([]models.AvailabilitySnapshot, error) {
	if err := wait(ctx, s.latency); err != nil {
		return nil, err
	}

	origin, dest := strings.ToUpper(req.Origin), strings.ToUpper(req.Destination)
	date := models.DateOf(req.Date)
	day := date.Format(models.DateLayout)

	var out []models.AvailabilitySnapshot
	for _, e := range awardCharts[RegionOf(origin, dest)][req.Cabin] {
		if e.program != s.program {
			continue
		}
		// Roughly seven in ten dates have saver space.
		if roll(s.program, origin, dest, string(req.Cabin), day, "space")%10 >= 7 {
			continue
		}
		fees := feeRanges[e.program]
		spread := fees[1] - fees[0] + 1
		seats := int(roll(s.program, origin, dest, day, "seats")%4) + 1
		stops := 0
		if roll(s.program, origin, dest, day, "stops")%10 >= 6 {
			stops = 1
		}
		out = append(out, models.AvailabilitySnapshot{
			Origin:         origin,
			Destination:    dest,
			Cabin:          req.Cabin,
			Date:           date,
			ProgramCode:    e.program,
			MilesRequired:  e.miles,
			TaxesFees:      models.Cents(fees[0] + int64(roll(s.program, origin, dest, day, "fees")%uint64(spread))),
			ObservedAt:     s.now(),
			SeatsAvailable: &seats,
			Stops:          &stops,
			Source:         DemoSourceName,
		})
	}
	return out, nil
}

type DemoCashSource struct {
	latency time.Duration
	now     func() time.Time
}

func NewDemoCashSource(latency time.Duration) *DemoCashSource {
	return &DemoCashSource{latency: latency, now: time.Now}
}

// FetchCashPrice returns the regional baseline with a stable 0.8x to 1.3x
// variance. Cabins without a baseline get an empty quote.
func (s *DemoCashSource) FetchCashPrice(ctx context.Context, key models.CashPriceKey) (models.CashQuote, error) {
	if err := wait(ctx, s.latency); err != nil {
		return models.CashQuote{}, err
	}
	quote := models.CashQuote{Source: DemoSourceName, FetchedAt: s.now()}

	base, ok := cashBaselines[RegionOf(key.Origin, key.Destination)][key.Cabin]
	if !ok {
		return quote, nil
	}
	pct := 80 + int64(roll(strings.ToUpper(key.Origin), strings.ToUpper(key.Destination), string(key.Cabin),
		models.DateOf(key.Date).Format(models.DateLayout), "cash")%51)
	quote.Price = models.CentsPtr(models.Cents(base * pct))
	return quote, nil
}

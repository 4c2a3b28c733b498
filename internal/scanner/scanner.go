package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dharmasatrya/pointsmaxxer/internal/analyzer"
	"github.com/dharmasatrya/pointsmaxxer/internal/cache"
	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/observability"
	"github.com/dharmasatrya/pointsmaxxer/internal/providers"
	"github.com/dharmasatrya/pointsmaxxer/internal/ranking"
	"github.com/dharmasatrya/pointsmaxxer/internal/ratelimit"
	"github.com/dharmasatrya/pointsmaxxer/internal/resilience"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

const (
	DefaultMaxInFlight  = 4
	DefaultItemTimeout  = 30 * time.Second
	DefaultCycleTimeout = 30 * time.Minute
	DefaultWindowDays   = 90
)

var tracer = otel.Tracer("github.com/dharmasatrya/pointsmaxxer/internal/scanner")

type Config struct {
	HomeAirports []string
	Cabins       []models.Cabin
	WindowDays   int
	MaxStops     *int
	// Location dates routes whose origin airport has no known zone.
	Location     *time.Location
	MaxInFlight  int
	ItemTimeout  time.Duration
	CycleTimeout time.Duration
	Retry        resilience.RetryConfig
}

func (c *Config) applyDefaults() {
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if len(c.Cabins) == 0 {
		c.Cabins = []models.Cabin{models.CabinBusiness, models.CabinFirst}
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = DefaultItemTimeout
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = DefaultCycleTimeout
	}
}

// Deps are the collaborators a Scanner drives. Cash, Cache, Limiter,
// Breakers and Metrics are optional.
type Deps struct {
	Sources  *providers.Registry
	Cash     providers.CashPriceSource
	Cache    cache.Cache
	Graph    *transfer.Holder
	Analyzer *analyzer.Analyzer
	Store    *deals.Store
	Limiter  *ratelimit.ProgramLimiter
	Breakers *resilience.Breakers
	Metrics  *observability.Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

type state struct {
	cfg      Config
	analyzer *analyzer.Analyzer
}

type Scanner struct {
	sources  *providers.Registry
	cash     providers.CashPriceSource
	cache    cache.Cache
	graph    *transfer.Holder
	store    *deals.Store
	limiter  *ratelimit.ProgramLimiter
	breakers *resilience.Breakers
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time

	state      atomic.Pointer[state]
	cashFlight singleflight.Group
}

func New(deps Deps, cfg Config) *Scanner {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoOpCache()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewProgramLimiter(ratelimit.Unlimited())
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Breakers == nil {
		deps.Breakers = resilience.NewBreakers(resilience.DefaultBreakerConfig(), deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	s := &Scanner{
		sources:  deps.Sources,
		cash:     deps.Cash,
		cache:    deps.Cache,
		graph:    deps.Graph,
		store:    deps.Store,
		limiter:  deps.Limiter,
		breakers: deps.Breakers,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Clock,
	}
	s.Reconfigure(cfg, deps.Analyzer)
	return s
}

// Reconfigure swaps tunables and the analyzer for subsequent cycles. A
// running cycle keeps the values it started with.
func (s *Scanner) Reconfigure(cfg Config, a *analyzer.Analyzer) {
	cfg.applyDefaults()
	if a == nil {
		a = analyzer.MustNew(nil, analyzer.DefaultUnicornThreshold)
	}
	s.state.Store(&state{cfg: cfg, analyzer: a})
	if s.store != nil {
		s.store.SetAnalyzer(a)
	}
}

func (s *Scanner) Config() Config {
	return s.state.Load().cfg
}

func (s *Scanner) Programs() []string {
	return s.sources.Programs()
}

type CachePolicy struct {
	// Bypass re-queries every item and refreshes the cache.
	Bypass bool
}

type CycleRequest struct {
	Routes      []models.Route
	Portfolio   models.Portfolio
	CachePolicy CachePolicy
	Now         time.Time
	// FullResults returns every New or Updated deal instead of unicorns only.
	FullResults bool
	// Optional narrowing. Empty means every registered program, the
	// configured cabins and the search window.
	Programs []string
	Cabins   []models.Cabin
	Dates    []time.Time
}

type Stats struct {
	WorkItems   int           `json:"work_items"`
	CachedItems int           `json:"cached_items"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Snapshots   int           `json:"snapshots"`
	Filtered    int           `json:"filtered"`
	New         int           `json:"new"`
	Updated     int           `json:"updated"`
	Unchanged   int           `json:"unchanged"`
	Duration    time.Duration `json:"duration"`
}

type CycleResult struct {
	ID       string               `json:"id"`
	Deals    []models.Deal        `json:"deals"`
	Failures []models.ScanFailure `json:"failures"`
	Stats    Stats                `json:"stats"`
}

// collector gathers per-item outcomes behind one mutex; it is the cycle's
// aggregation barrier.
type collector struct {
	mu       sync.Mutex
	deals    []models.Deal
	failures []models.ScanFailure
	stats    Stats
}

func (c *collector) fail(item models.WorkItem, kind models.FailureKind, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Failed++
	c.failures = append(c.failures, models.ScanFailure{Item: item, Kind: kind, Reason: err.Error()})
}

// RunCycle scans every work item once. Per-item failures are reported in
// the result and never abort the cycle. A persistence failure cancels the
// remaining items and is returned alongside the partial result.
func (s *Scanner) RunCycle(ctx context.Context, req CycleRequest) (*CycleResult, error) {
	st := s.state.Load()
	cfg := st.cfg
	if req.Now.IsZero() {
		req.Now = s.now()
	}
	started := time.Now()
	result := &CycleResult{ID: uuid.NewString()}

	ctx, span := tracer.Start(ctx, "scan.cycle", trace.WithAttributes(
		attribute.String("cycle.id", result.ID),
		attribute.Bool("cycle.full_results", req.FullResults),
	))
	defer span.End()

	cycleCtx, cancel := context.WithTimeout(ctx, cfg.CycleTimeout)
	defer cancel()

	items := s.WorkItems(req)
	pending := make([]models.WorkItem, 0, len(items))
	col := &collector{}
	col.stats.WorkItems = len(items)
	for _, item := range items {
		if !req.CachePolicy.Bypass {
			if _, ok := s.cache.GetAvailability(cycleCtx, item); ok {
				s.metrics.IncrCacheHit("availability")
				s.metrics.IncrWorkItem("cached")
				col.stats.CachedItems++
				continue
			}
			s.metrics.IncrCacheMiss("availability")
		}
		pending = append(pending, item)
	}
	span.SetAttributes(attribute.Int("cycle.work_items", len(items)), attribute.Int("cycle.pending", len(pending)))

	g, gctx := errgroup.WithContext(cycleCtx)
	g.SetLimit(cfg.MaxInFlight)
	for _, item := range pending {
		g.Go(func() error {
			return s.runItem(gctx, st, req, item, col)
		})
	}
	err := g.Wait()

	result.Deals = ranking.Rank(col.deals)
	result.Failures = col.failures
	result.Stats = col.stats
	result.Stats.Duration = time.Since(started)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("scan cycle aborted",
			zap.String("cycle_id", result.ID),
			zap.Int("failures", len(result.Failures)),
			zap.Error(err),
		)
		err = fmt.Errorf("scan cycle %s: %w", result.ID, err)
	case len(result.Failures) > 0:
		outcome = "partial"
	}
	if errors.Is(cycleCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		s.logger.Warn("scan cycle reached its ceiling", zap.String("cycle_id", result.ID), zap.Duration("ceiling", cfg.CycleTimeout))
	}
	s.metrics.RecordCycle(outcome, result.Stats.Duration, time.Now())
	s.logger.Info("scan cycle finished",
		zap.String("cycle_id", result.ID),
		zap.String("outcome", outcome),
		zap.Int("work_items", result.Stats.WorkItems),
		zap.Int("cached", result.Stats.CachedItems),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("new", result.Stats.New),
		zap.Int("updated", result.Stats.Updated),
		zap.Int("alertable", len(result.Deals)),
		zap.Duration("duration", result.Stats.Duration),
	)
	return result, err
}

// runItem returns an error only for persistence failures.
func (s *Scanner) runItem(ctx context.Context, st *state, req CycleRequest, item models.WorkItem, col *collector) error {
	if err := ctx.Err(); err != nil {
		s.metrics.IncrWorkItem(string(models.FailureCanceled))
		col.fail(item, models.FailureCanceled, err)
		return nil
	}

	ctx, span := tracer.Start(ctx, "scan.item", trace.WithAttributes(
		attribute.String("item.program", item.Program),
		attribute.String("item.route", item.Origin+"-"+item.Destination),
		attribute.String("item.cabin", string(item.Cabin)),
		attribute.String("item.date", item.Date.Format(models.DateLayout)),
	))
	defer span.End()

	itemCtx, cancel := context.WithTimeout(ctx, st.cfg.ItemTimeout)
	defer cancel()

	cashCh := make(chan *models.Cents, 1)
	go func() {
		cashCh <- s.cashPrice(itemCtx, st.cfg, item.CashKey(), req.CachePolicy.Bypass)
	}()

	snaps, kind, err := s.fetch(ctx, itemCtx, st.cfg, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		s.metrics.IncrWorkItem(string(kind))
		s.logger.Warn("work item failed",
			zap.String("item", item.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		col.fail(item, kind, err)
		return nil
	}

	var cash *models.Cents
	select {
	case cash = <-cashCh:
	case <-itemCtx.Done():
	}

	s.metrics.IncrWorkItem("ok")
	col.mu.Lock()
	col.stats.Succeeded++
	col.mu.Unlock()

	resolver := s.graph.Resolver()
	for _, snap := range snaps {
		if err := snap.Validate(); err != nil {
			s.logger.Warn("dropping invalid snapshot", zap.String("item", item.String()), zap.Error(err))
			continue
		}
		if snap.CashPrice == nil && cash != nil {
			snap.CashPrice = cash
		}
		if st.cfg.MaxStops != nil && snap.Stops != nil && *snap.Stops > *st.cfg.MaxStops {
			col.mu.Lock()
			col.stats.Filtered++
			col.mu.Unlock()
			continue
		}

		v := st.analyzer.Score(snap)
		var path *transfer.PathResult
		if p, ok := resolver.BestPath(req.Portfolio, transfer.Request{Target: snap.ProgramCode, Required: snap.MilesRequired, AsOf: req.Now}); ok {
			path = &p
		}

		deal, status, err := s.store.Record(ctx, v, snap, path)
		if err != nil {
			if errors.Is(err, deals.ErrPersistence) {
				span.RecordError(err)
				return err
			}
			// The cycle was canceled before the write started.
			col.fail(item, models.FailureCanceled, err)
			return nil
		}
		s.metrics.IncrDeal(string(status))

		col.mu.Lock()
		col.stats.Snapshots++
		switch status {
		case models.StatusNew:
			col.stats.New++
		case models.StatusUpdated:
			col.stats.Updated++
		case models.StatusUnchanged:
			col.stats.Unchanged++
		}
		if status.Alertable() && (deal.IsUnicorn || req.FullResults) {
			col.deals = append(col.deals, deal)
		}
		col.mu.Unlock()

		if status.Alertable() && deal.IsUnicorn {
			s.logger.Info("unicorn deal",
				zap.String("route", deal.Origin+"-"+deal.Destination),
				zap.String("program", deal.ProgramCode),
				zap.String("cabin", string(deal.Cabin)),
				zap.String("date", deal.Date.Format(models.DateLayout)),
				zap.String("cpp", deal.CPP.Decimal.String()),
				zap.String("status", string(status)),
			)
		}
	}

	// Cached only once every snapshot is recorded, so an item cut short by a
	// failed write or a cancel is fetched again next cycle.
	if err := s.cache.SetAvailability(ctx, item, cache.AvailabilityEntry{Snapshots: snaps, FetchedAt: req.Now}); err != nil {
		s.logger.Debug("availability cache write failed", zap.String("item", item.String()), zap.Error(err))
	}
	return nil
}

// fetch runs the rate limit, breaker and retry pipeline for one item.
// cycleCtx distinguishes cancellation from the per-item deadline.
func (s *Scanner) fetch(cycleCtx, ctx context.Context, cfg Config, item models.WorkItem) ([]models.AvailabilitySnapshot, models.FailureKind, error) {
	src, ok := s.sources.Get(item.Program)
	if !ok {
		return nil, models.FailureScrape, fmt.Errorf("no award source for program %q", item.Program)
	}

	// Every attempt, retries included, takes a token and passes the breaker.
	var snaps []models.AvailabilitySnapshot
	limited := false
	start := time.Now()
	err := resilience.Retry(ctx, cfg.Retry, providers.IsTemporary, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx, item.Program); err != nil {
			limited = true
			return err
		}
		return s.breakers.Execute(item.Program, func() error {
			var err error
			snaps, err = src.FetchAvailability(ctx, providers.FetchRequest{
				Origin:      item.Origin,
				Destination: item.Destination,
				Cabin:       item.Cabin,
				Date:        item.Date,
			})
			return err
		})
	})
	s.metrics.RecordScrape(item.Program, time.Since(start))
	switch {
	case err == nil:
		return snaps, "", nil
	case resilience.IsOpen(err):
		return nil, models.FailureCircuitOpen, err
	case limited:
		return nil, classify(cycleCtx, ctx, err, models.FailureRateLimited), err
	default:
		return nil, classify(cycleCtx, ctx, err, models.FailureScrape), err
	}
}

func classify(cycleCtx, itemCtx context.Context, err error, fallback models.FailureKind) models.FailureKind {
	switch {
	case cycleCtx.Err() != nil:
		return models.FailureCanceled
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(itemCtx.Err(), context.DeadlineExceeded):
		return models.FailureTimeout
	default:
		return fallback
	}
}

// cashPrice looks up the baseline fare. Concurrent items on the same route,
// cabin and date share one fetch. Any failure yields nil so scoring falls
// back to no baseline.
func (s *Scanner) cashPrice(ctx context.Context, cfg Config, key models.CashPriceKey, bypass bool) *models.Cents {
	if s.cash == nil {
		return nil
	}
	if !bypass {
		if q, ok := s.cache.GetCashQuote(ctx, key); ok {
			s.metrics.IncrCacheHit("cash")
			return q.Price
		}
		s.metrics.IncrCacheMiss("cash")
	}

	flightKey := key.Origin + "|" + key.Destination + "|" + string(key.Cabin) + "|" + key.Date.Format(models.DateLayout)
	ch := s.cashFlight.DoChan(flightKey, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ItemTimeout)
		defer cancel()
		q, err := s.cash.FetchCashPrice(fctx, key)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetCashQuote(fctx, key, q); err != nil {
			s.logger.Debug("cash cache write failed", zap.Error(err))
		}
		return q, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			s.logger.Warn("cash price lookup failed", zap.String("key", flightKey), zap.Error(r.Err))
			return nil
		}
		return r.Val.(models.CashQuote).Price
	case <-ctx.Done():
		return nil
	}
}

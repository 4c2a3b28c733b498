// Package scheduler runs scan cycles on a single repeating timer.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/observability"
	"github.com/dharmasatrya/pointsmaxxer/internal/scanner"
)

// Cycler runs one scan cycle.
type Cycler interface {
	RunCycle(ctx context.Context, req scanner.CycleRequest) (*scanner.CycleResult, error)
}

// Pruner trims expired deal history.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// RequestFunc builds the request for the next cycle. It is called at
// every firing so reloaded routes and balance changes are picked up.
type RequestFunc func(ctx context.Context) (scanner.CycleRequest, error)

type Config struct {
	Frequency Frequency
	Location  *time.Location
	// RunOnStart runs one cycle immediately instead of waiting for the
	// first firing time.
	RunOnStart bool
	// PruneInterval is the minimum time between history prunes. Zero
	// prunes after every cycle.
	PruneInterval time.Duration
}

type Option func(*Scheduler)

// WithClock replaces the wall clock and timer, for tests.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

type Scheduler struct {
	cycler  Cycler
	request RequestFunc
	pruner  Pruner
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time

	cfg       atomic.Pointer[Config]
	reset     chan struct{}
	lastPrune time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, cycler Cycler, request RequestFunc, pruner Pruner, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cycler:  cycler,
		request: request,
		pruner:  pruner,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
		reset:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store(cfg)
	return s
}

// Reconfigure replaces the schedule. A waiting loop recomputes its next
// firing time; a running cycle is not interrupted.
func (s *Scheduler) Reconfigure(cfg Config) {
	s.store(cfg)
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// store defaults a missing frequency to twice_daily and raises a short
// interval to MinInterval so the loop never spins.
func (s *Scheduler) store(cfg Config) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if f := cfg.Frequency; f.name == "" {
		switch {
		case f.every <= 0:
			cfg.Frequency = Frequency{name: TwiceDaily}
		case f.every < MinInterval:
			cfg.Frequency = Every(MinInterval)
		}
	}
	s.cfg.Store(&cfg)
}

// NextRun reports when the loop would fire if it were scheduled now.
func (s *Scheduler) NextRun() time.Time {
	cfg := s.cfg.Load()
	return cfg.Frequency.Next(s.now(), cfg.Location)
}

// Start launches the loop. Cycles run on the loop goroutine, so a cycle
// that overruns its slot delays the next one instead of overlapping it.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)

	cfg := s.cfg.Load()
	s.logger.Info("scheduler started",
		zap.String("frequency", cfg.Frequency.String()),
		zap.String("location", cfg.Location.String()),
		zap.Time("next_run", s.NextRun()),
	)
}

// Stop cancels the loop, including any running cycle, and waits for it to
// exit or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if s.cfg.Load().RunOnStart {
		s.runOnce(ctx)
	}

	for {
		cfg := s.cfg.Load()
		now := s.now()
		next := cfg.Frequency.Next(now, cfg.Location)
		fire := s.after(next.Sub(now))

		select {
		case <-ctx.Done():
			return
		case <-s.reset:
			continue
		case <-fire:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	req, err := s.request(ctx)
	if err != nil {
		s.logger.Error("building scan request failed", zap.Error(err))
		return
	}

	res, err := s.cycler.RunCycle(ctx, req)
	if err != nil {
		s.logger.Error("scheduled scan failed", zap.Error(err))
	} else if res != nil && len(res.Deals) > 0 {
		s.logger.Info("scheduled scan found deals",
			zap.String("cycle_id", res.ID),
			zap.Int("deals", len(res.Deals)),
		)
	}
	if ctx.Err() != nil {
		return
	}
	s.prune(ctx)
}

func (s *Scheduler) prune(ctx context.Context) {
	if s.pruner == nil {
		return
	}
	now := s.now()
	cfg := s.cfg.Load()
	if !s.lastPrune.IsZero() && now.Sub(s.lastPrune) < cfg.PruneInterval {
		return
	}
	n, err := s.pruner.Prune(ctx, now)
	if err != nil {
		s.logger.Error("pruning deal history failed", zap.Error(err))
		return
	}
	s.lastPrune = now
	s.metrics.AddPruned(n)
}

package deals

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/analyzer"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

const (
	DefaultPointsTolerance int64 = 500
	DefaultRetentionDays         = 90
	DefaultWriteTimeout          = 5 * time.Second
	DefaultPageSize              = 100
)

var DefaultCPPTolerance = decimal.RequireFromString("0.05")

type Config struct {
	MilesBand       int64
	CPPTolerance    decimal.Decimal
	PointsTolerance int64
	RetentionDays   int
	WriteTimeout    time.Duration
	PageSize        int
}

func (c *Config) applyDefaults() {
	if c.MilesBand <= 0 {
		c.MilesBand = DefaultMilesBand
	}
	if c.CPPTolerance.IsZero() || c.CPPTolerance.IsNegative() {
		c.CPPTolerance = DefaultCPPTolerance
	}
	if c.PointsTolerance <= 0 {
		c.PointsTolerance = DefaultPointsTolerance
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

type Store struct {
	repo     Repository
	analyzer atomic.Pointer[analyzer.Analyzer]
	cfg      Config
	locks    *keyedMutex
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(repo Repository, a *analyzer.Analyzer, cfg Config, logger *zap.Logger, opts ...Option) *Store {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		repo:   repo,
		cfg:    cfg,
		locks:  newKeyedMutex(),
		now:    time.Now,
		logger: logger,
	}
	s.analyzer.Store(a)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Config() Config {
	return s.cfg
}

// SetAnalyzer swaps the tier table used for cpp buckets. Records written
// afterwards fingerprint against the new tiers.
func (s *Store) SetAnalyzer(a *analyzer.Analyzer) {
	s.analyzer.Store(a)
}

func (s *Store) Fingerprint(snap models.AvailabilitySnapshot, v analyzer.ValueResult) string {
	return Fingerprint(snap, s.cfg.MilesBand, s.analyzer.Load().Bucket(v))
}

// Record classifies a scored snapshot against history and persists the
// outcome. path is nil when the program is not reachable from the
// portfolio. Writes are detached from ctx cancellation once started so a
// canceled cycle never leaves a half-written record.
func (s *Store) Record(ctx context.Context, v analyzer.ValueResult, snap models.AvailabilitySnapshot, path *transfer.PathResult) (models.Deal, models.RecordStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.Deal{}, "", err
	}

	now := s.now()
	fp := s.Fingerprint(snap, v)
	deal := buildDeal(fp, v, snap, path)

	unlock := s.locks.Lock(fp)
	defer unlock()

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	prev, found, err := s.repo.GetByFingerprint(wctx, fp)
	if err != nil {
		return models.Deal{}, "", persistErr("lookup", err)
	}

	if !found {
		deal.ID = uuid.NewString()
		deal.FirstSeenAt = now
		deal.LastSeenAt = now
		if err := s.repo.Insert(wctx, deal); err != nil {
			return models.Deal{}, "", persistErr("insert", err)
		}
		return deal, models.StatusNew, nil
	}

	if !s.changed(prev, deal) {
		if err := s.repo.Touch(wctx, prev.ID, now); err != nil {
			return models.Deal{}, "", persistErr("touch", err)
		}
		prev.LastSeenAt = now
		return prev, models.StatusUnchanged, nil
	}

	deal.ID = prev.ID
	deal.FirstSeenAt = prev.FirstSeenAt
	deal.LastSeenAt = now
	if err := s.repo.Update(wctx, deal); err != nil {
		return models.Deal{}, "", persistErr("update", err)
	}
	if deal.IsUnicorn && !prev.IsUnicorn {
		s.logger.Info("deal crossed unicorn threshold",
			zap.String("fingerprint", fp),
			zap.String("route", deal.Origin+"-"+deal.Destination),
			zap.String("program", deal.ProgramCode),
			zap.String("cpp", deal.CPP.Decimal.String()),
		)
	}
	return deal, models.StatusUpdated, nil
}

func (s *Store) changed(prev, next models.Deal) bool {
	if prev.IsUnicorn != next.IsUnicorn {
		return true
	}
	if prev.CPP.Valid != next.CPP.Valid {
		return true
	}
	if next.CPP.Valid && next.CPP.Decimal.Sub(prev.CPP.Decimal).Abs().GreaterThan(s.cfg.CPPTolerance) {
		return true
	}
	diff := next.EffectivePointsCost - prev.EffectivePointsCost
	if diff < 0 {
		diff = -diff
	}
	return diff > s.cfg.PointsTolerance
}

func buildDeal(fp string, v analyzer.ValueResult, snap models.AvailabilitySnapshot, path *transfer.PathResult) models.Deal {
	d := models.Deal{
		Fingerprint:    fp,
		Origin:         snap.Origin,
		Destination:    snap.Destination,
		Cabin:          snap.Cabin,
		Date:           models.DateOf(snap.Date),
		ProgramCode:    models.NormalizeCode(snap.ProgramCode),
		MilesRequired:  snap.MilesRequired,
		TaxesFees:      snap.TaxesFees,
		CashPrice:      snap.CashPrice,
		SeatsAvailable: snap.SeatsAvailable,
		CPP:            v.CPP,
		Tier:           v.Tier,
		IsUnicorn:      v.IsUnicorn,
		TransferPath:   []models.TransferEdge{},
	}
	if path != nil {
		d.Reachable = true
		d.SourceProgram = path.Source
		d.TransferPath = path.Edges()
		d.EffectivePointsCost = path.Cost
		d.InsufficientBalance = path.InsufficientBalance
	}
	return d
}

// History yields every deal matching f in (first_seen_at, id) order. The
// sequence pages lazily and may be ranged over more than once.
func (s *Store) History(ctx context.Context, f Filter) iter.Seq2[models.Deal, error] {
	return func(yield func(models.Deal, error) bool) {
		q := Query{Filter: f, Limit: s.cfg.PageSize}
		for {
			page, err := s.repo.List(ctx, q)
			if err != nil {
				yield(models.Deal{}, persistErr("list", err))
				return
			}
			for _, d := range page {
				if !yield(d, nil) {
					return
				}
			}
			if len(page) < q.Limit {
				return
			}
			last := page[len(page)-1]
			q.After = &Cursor{FirstSeenAt: last.FirstSeenAt, ID: last.ID}
		}
	}
}

// Collect drains History into a slice, stopping after limit deals when
// limit is positive.
func (s *Store) Collect(ctx context.Context, f Filter, limit int) ([]models.Deal, error) {
	var out []models.Deal
	for d, err := range s.History(ctx, f) {
		if err != nil {
			return out, err
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Prune removes expired history relative to now and returns the number of
// deleted records.
func (s *Store) Prune(ctx context.Context, now time.Time) (int64, error) {
	horizon := now.AddDate(0, 0, -s.cfg.RetentionDays)
	n, err := s.repo.DeleteExpired(ctx, horizon, models.DateOf(now))
	if err != nil {
		return 0, persistErr("prune", err)
	}
	if n > 0 {
		s.logger.Info("pruned deal history", zap.Int64("deleted", n), zap.Time("horizon", horizon))
	}
	return n, nil
}

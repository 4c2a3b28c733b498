package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/analyzer"
	"github.com/dharmasatrya/pointsmaxxer/internal/cache"
	"github.com/dharmasatrya/pointsmaxxer/internal/config"
	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/handler"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/observability"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
	"github.com/dharmasatrya/pointsmaxxer/internal/pricedrop"
	"github.com/dharmasatrya/pointsmaxxer/internal/providers"
	"github.com/dharmasatrya/pointsmaxxer/internal/ratelimit"
	"github.com/dharmasatrya/pointsmaxxer/internal/resilience"
	"github.com/dharmasatrya/pointsmaxxer/internal/scanner"
	"github.com/dharmasatrya/pointsmaxxer/internal/scheduler"
	"github.com/dharmasatrya/pointsmaxxer/internal/storage"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

// demoLatency is the simulated response time of the bundled sources.
const demoLatency = 150 * time.Millisecond

// app holds the long-lived engine components.
type app struct {
	path   string
	logger *zap.Logger

	backend   storage.Backend
	cache     cache.Cache
	metrics   *observability.Metrics
	sources   *providers.Registry
	limiter   *ratelimit.ProgramLimiter
	breakers  *resilience.Breakers
	graph     *transfer.Holder
	store     *deals.Store
	portfolio *portfolio.Service
	scanner   *scanner.Scanner
	scheduler *scheduler.Scheduler

	mu     sync.RWMutex
	routes []models.Route
}

func newApp(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) (*app, error) {
	a := &app{path: path, logger: logger, metrics: observability.NewMetrics()}

	backend, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.backend = backend
	logger.Info("storage ready", zap.String("driver", cfg.Database.Driver))

	scoring, err := buildAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	resolver, err := buildResolver(ctx, cfg, backend)
	if err != nil {
		return nil, err
	}
	a.graph = transfer.NewHolder(resolver)

	a.portfolio = portfolio.NewService(backend, a.graph, cfg.ProgramList(), logger)
	seeded, err := a.portfolio.Seed(ctx, cfg.Holdings())
	if err != nil {
		return nil, fmt.Errorf("seed portfolio: %w", err)
	}
	logger.Info("portfolio ready", zap.Int("seeded", seeded), zap.Int("edges", len(resolver.Edges())))

	a.cache = buildCache(cfg, logger)
	a.sources = providers.NewRegistry(providers.NewDemoAwardSources(demoLatency)...)
	a.limiter = ratelimit.NewProgramLimiter(ratelimit.FromDelay(cfg.Settings.RequestDelay(), cfg.Scanner.Burst))
	a.breakers = resilience.NewBreakers(resilience.DefaultBreakerConfig(), logger)
	a.store = deals.NewStore(backend, scoring, dealsConfig(cfg), logger)

	scanCfg, err := scannerConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.scanner = scanner.New(scanner.Deps{
		Sources:  a.sources,
		Cash:     providers.NewDemoCashSource(demoLatency),
		Cache:    a.cache,
		Graph:    a.graph,
		Analyzer: scoring,
		Store:    a.store,
		Limiter:  a.limiter,
		Breakers: a.breakers,
		Metrics:  a.metrics,
		Logger:   logger,
	}, scanCfg)

	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.scheduler = scheduler.New(schedCfg, a.scanner, a.request, a.store, a.metrics, logger)
	a.setRoutes(cfg.Routes)
	return a, nil
}

func (a *app) handlers() handler.Handlers {
	return handler.Handlers{
		Search:    handler.NewSearchHandler(a.scanner, a.portfolio, a.request, a.logger),
		Deals:     handler.NewDealsHandler(a.store, pricedrop.NewTracker(a.store, pricedrop.NewDetector())),
		Portfolio: handler.NewPortfolioHandler(a.portfolio, a.graph),
		Admin:     handler.NewAdminHandler(a.reload, a.backend, a.breakers, a.logger),
		Registry:  a.metrics.Registry,
	}
}

// request builds a cycle over the configured routes with current balances.
func (a *app) request(ctx context.Context) (scanner.CycleRequest, error) {
	holdings, err := a.portfolio.Portfolio(ctx)
	if err != nil {
		return scanner.CycleRequest{}, err
	}
	a.mu.RLock()
	routes := append([]models.Route(nil), a.routes...)
	a.mu.RUnlock()
	return scanner.CycleRequest{Routes: routes, Portfolio: holdings}, nil
}

func (a *app) setRoutes(routes []models.Route) {
	a.mu.Lock()
	a.routes = append([]models.Route(nil), routes...)
	a.mu.Unlock()
	if len(routes) == 0 {
		a.logger.Warn("no routes configured; scheduled scans will find nothing")
	}
}

// reload re-reads the config file. Everything is built before anything is
// swapped, so a bad file leaves the running configuration untouched.
// Storage, cache and server settings need a restart.
func (a *app) reload(ctx context.Context) error {
	cfg, err := loadConfig(a.path)
	if err != nil {
		return err
	}
	scoring, err := buildAnalyzer(cfg)
	if err != nil {
		return err
	}
	edges, err := cfg.Edges()
	if err != nil {
		return err
	}
	resolver, err := transfer.NewResolver(edges, cfg.Transfer.MaxHops)
	if err != nil {
		return err
	}
	scanCfg, err := scannerConfig(cfg)
	if err != nil {
		return err
	}
	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		return err
	}
	if err := a.backend.ReplaceEdges(ctx, edges); err != nil {
		return fmt.Errorf("store transfer edges: %w", err)
	}

	a.graph.Store(resolver)
	a.portfolio.SetPrograms(cfg.ProgramList())
	a.scanner.Reconfigure(scanCfg, scoring)
	a.scheduler.Reconfigure(schedCfg)
	a.limiter.Reconfigure(ratelimit.FromDelay(cfg.Settings.RequestDelay(), cfg.Scanner.Burst))
	a.setRoutes(cfg.Routes)

	a.logger.Info("configuration reloaded",
		zap.Int("edges", len(edges)),
		zap.Int("routes", len(cfg.Routes)),
		zap.String("frequency", schedCfg.Frequency.String()),
	)
	return nil
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("closing cache", zap.Error(err))
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.LoadAndValidate(path)
}

func buildAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	tiers := make([]analyzer.Tier, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		tiers = append(tiers, analyzer.Tier{Name: t.Name, Min: decimal.NewFromFloat(t.Min)})
	}
	a, err := analyzer.New(tiers, decimal.NewFromFloat(cfg.Settings.UnicornThresholdCPP))
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}
	return a, nil
}

// buildResolver persists the configured edges and builds the resolver from
// what the backend holds.
func buildResolver(ctx context.Context, cfg *config.Config, repo transfer.EdgeRepository) (*transfer.Resolver, error) {
	edges, err := cfg.Edges()
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceEdges(ctx, edges); err != nil {
		return nil, fmt.Errorf("store transfer edges: %w", err)
	}
	stored, err := repo.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transfer edges: %w", err)
	}
	return transfer.NewResolver(stored, cfg.Transfer.MaxHops)
}

// buildCache falls back to an in-process cache when Redis is unreachable
// so the daemon keeps scanning.
func buildCache(cfg *config.Config, logger *zap.Logger) cache.Cache {
	if !cfg.Cache.IsEnabled() {
		logger.Info("cache disabled")
		return cache.NewNoOpCache()
	}
	ttls := cache.TTLs{Availability: cfg.Settings.CacheTTL(), CashPrice: cfg.Cache.CashPriceTTL}

	if cfg.Cache.Driver == config.CacheRedis {
		store, err := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err == nil {
			logger.Info("redis cache enabled",
				zap.String("addr", cfg.Cache.Redis.Host+":"+cfg.Cache.Redis.Port),
				zap.Duration("availability_ttl", ttls.Availability),
			)
			return cache.New(store, ttls)
		}
		logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
	}
	return cache.New(cache.NewMemoryStore(), ttls)
}

func dealsConfig(cfg *config.Config) deals.Config {
	return deals.Config{
		MilesBand:       cfg.Dedupe.MilesBand,
		CPPTolerance:    decimal.NewFromFloat(cfg.Dedupe.CPPTolerance),
		PointsTolerance: cfg.Dedupe.PointsTolerance,
		RetentionDays:   cfg.Dedupe.RetentionDays,
		WriteTimeout:    cfg.Scanner.WriteTimeout,
	}
}

func scannerConfig(cfg *config.Config) (scanner.Config, error) {
	loc, err := cfg.Location()
	if err != nil {
		return scanner.Config{}, fmt.Errorf("settings.timezone: %w", err)
	}
	return scanner.Config{
		HomeAirports: cfg.HomeAirports(),
		Cabins:       cfg.CabinList(),
		WindowDays:   cfg.Settings.SearchWindowDays,
		MaxStops:     cfg.Settings.MaxStops,
		Location:     loc,
		MaxInFlight:  cfg.Scanner.MaxInFlight,
		ItemTimeout:  cfg.Scanner.ItemTimeout,
		CycleTimeout: cfg.Scanner.CycleTimeout,
		Retry: resilience.RetryConfig{
			MaxRetries:  cfg.Scanner.MaxRetries,
			RetryDelays: cfg.Scanner.RetryDelays,
		},
	}, nil
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	freq, err := scheduler.ParseFrequency(cfg.Settings.ScanFrequency)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("settings.scan_frequency: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("settings.timezone: %w", err)
	}
	return scheduler.Config{
		Frequency:     freq,
		Location:      loc,
		RunOnStart:    true,
		PruneInterval: cfg.Dedupe.PruneInterval,
	}, nil
}

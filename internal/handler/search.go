package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
	"github.com/dharmasatrya/pointsmaxxer/internal/scanner"
)

// RequestBuilder returns the request for a scan of every configured route.
type RequestBuilder func(ctx context.Context) (scanner.CycleRequest, error)

type SearchHandler struct {
	scanner    *scanner.Scanner
	portfolio  *portfolio.Service
	configured RequestBuilder
	logger     *zap.Logger
}

func NewSearchHandler(s *scanner.Scanner, p *portfolio.Service, configured RequestBuilder, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{
		scanner:    s,
		portfolio:  p,
		configured: configured,
		logger:     logger,
	}
}

// Search scans one route on demand. Every new or updated deal is returned
// unless unicorn_only is set.
func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return fail(c, err)
	}

	holdings, err := h.portfolio.Portfolio(ctx)
	if err != nil {
		return fail(c, err)
	}

	cycle := scanner.CycleRequest{
		Routes:      []models.Route{{Origin: req.Origin, Destination: req.Destination}},
		Portfolio:   holdings,
		CachePolicy: scanner.CachePolicy{Bypass: req.BypassCache},
		FullResults: !req.UnicornOnly,
		Programs:    req.Programs,
		Cabins:      req.CabinList(),
		Dates:       searchDates(req),
	}
	return h.run(c, cycle)
}

// Scan runs a cycle over the configured routes, the same request the
// daemon uses. ?bypass_cache=true forces fresh scrapes and ?full=true
// returns every new or updated deal.
func (h *SearchHandler) Scan(c echo.Context) error {
	ctx := c.Request().Context()

	cycle, err := h.configured(ctx)
	if err != nil {
		return fail(c, err)
	}

	var bypass, full bool
	if err := echo.QueryParamsBinder(c).
		Bool("bypass_cache", &bypass).
		Bool("full", &full).
		BindError(); err != nil {
		return badRequest(c, err.Error())
	}
	cycle.CachePolicy.Bypass = bypass
	cycle.FullResults = full
	return h.run(c, cycle)
}

func (h *SearchHandler) run(c echo.Context, cycle scanner.CycleRequest) error {
	startTime := time.Now()

	result, err := h.scanner.RunCycle(c.Request().Context(), cycle)
	if result == nil {
		return fail(c, err)
	}

	resp := models.SearchResponse{
		CycleID:  result.ID,
		Metadata: metadata(result, time.Since(startTime)),
		Deals:    dealViews(result.Deals),
		Failures: result.Failures,
	}
	if err != nil {
		h.logger.Error("on-demand scan failed", zap.String("cycle_id", result.ID), zap.Error(err))
		// Partial results are still returned so the caller sees what was
		// recorded before the store failed.
		resp.Error = err.Error()
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// searchDates expands the requested range. A lone start or end date scans
// that single day; no dates leaves the configured window in place.
func searchDates(req models.SearchRequest) []time.Time {
	start, errStart := models.ParseDate(req.StartDate)
	end, errEnd := models.ParseDate(req.EndDate)
	switch {
	case errStart == nil && errEnd == nil:
		return scanner.DatesBetween(start, end)
	case errStart == nil:
		return []time.Time{start}
	case errEnd == nil:
		return []time.Time{end}
	}
	return nil
}

func metadata(r *scanner.CycleResult, elapsed time.Duration) models.SearchMetadata {
	return models.SearchMetadata{
		TotalResults:    len(r.Deals),
		WorkItems:       r.Stats.WorkItems,
		CachedItems:     r.Stats.CachedItems,
		ItemsSucceeded:  r.Stats.Succeeded,
		ItemsFailed:     r.Stats.Failed,
		SnapshotsScored: r.Stats.Snapshots,
		NewDeals:        r.Stats.New,
		UpdatedDeals:    r.Stats.Updated,
		UnchangedDeals:  r.Stats.Unchanged,
		SearchTimeMs:    elapsed.Milliseconds(),
	}
}

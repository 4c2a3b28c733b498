package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/filter"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/pricedrop"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type DealsHandler struct {
	store   *deals.Store
	tracker *pricedrop.Tracker
	now     func() time.Time
}

func NewDealsHandler(store *deals.Store, tracker *pricedrop.Tracker) *DealsHandler {
	return &DealsHandler{store: store, tracker: tracker, now: time.Now}
}

// History lists recorded deals. Storage-level filters (origin, destination,
// program, cabin, from, to, since, unicorn) narrow the scan; min_cpp,
// max_cpp, affordable and max_miles are applied afterwards, then sort and
// order.
func (h *DealsHandler) History(c echo.Context) error {
	f, err := historyFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	criteria, err := criteriaFrom(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	limit, err := parseLimit(c, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		return fail(c, err)
	}

	var matched []models.Deal
	for d, err := range h.store.History(c.Request().Context(), f) {
		if err != nil {
			return fail(c, err)
		}
		if filter.Matches(d, criteria) {
			matched = append(matched, d)
		}
	}
	matched = filter.Apply(matched, nil, c.QueryParam("sort"), c.QueryParam("order"))
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return c.JSON(http.StatusOK, models.HistoryResponse{
		Count: len(matched),
		Deals: dealViews(matched),
	})
}

type dropsResponse struct {
	Count int                   `json:"count"`
	Drops []pricedrop.PriceDrop `json:"drops"`
}

// Drops reports awards whose price fell inside the lookback window.
func (h *DealsHandler) Drops(c echo.Context) error {
	f, err := historyFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	limit, err := parseLimit(c, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		return fail(c, err)
	}
	var significant bool
	if err := echo.QueryParamsBinder(c).Bool("significant", &significant).BindError(); err != nil {
		return badRequest(c, err.Error())
	}

	drops, err := h.tracker.Recent(c.Request().Context(), h.now(), f, 0)
	if err != nil {
		return fail(c, err)
	}
	out := make([]pricedrop.PriceDrop, 0, len(drops))
	for _, d := range drops {
		if significant && !d.Significant {
			continue
		}
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return c.JSON(http.StatusOK, dropsResponse{Count: len(out), Drops: out})
}

func historyFilter(c echo.Context) (deals.Filter, error) {
	var (
		f              deals.Filter
		cabin          string
		from, to, seen time.Time
	)
	err := echo.QueryParamsBinder(c).
		String("origin", &f.Origin).
		String("destination", &f.Destination).
		String("program", &f.Program).
		String("cabin", &cabin).
		Bool("unicorn", &f.UnicornOnly).
		Time("from", &from, models.DateLayout).
		Time("to", &to, models.DateLayout).
		Time("since", &seen, time.RFC3339).
		BindError()
	if err != nil {
		return deals.Filter{}, err
	}

	f.Origin = strings.ToUpper(f.Origin)
	f.Destination = strings.ToUpper(f.Destination)
	f.Program = models.NormalizeCode(f.Program)
	if cabin != "" {
		parsed, ok := models.ParseCabin(cabin)
		if !ok {
			return deals.Filter{}, models.ErrInvalidCabin
		}
		f.Cabin = parsed
	}
	if !from.IsZero() {
		f.DateFrom = &from
	}
	if !to.IsZero() {
		f.DateTo = &to
	}
	if !seen.IsZero() {
		f.SeenSince = &seen
	}
	return f, nil
}

func criteriaFrom(c echo.Context) (*filter.Criteria, error) {
	var (
		criteria filter.Criteria
		maxMiles int64
	)
	err := echo.QueryParamsBinder(c).
		Bool("affordable", &criteria.AffordableOnly).
		Int64("max_miles", &maxMiles).
		BindError()
	if err != nil {
		return nil, err
	}
	if maxMiles > 0 {
		criteria.MaxMiles = &maxMiles
	}
	if criteria.MinCPP, err = decimalParam(c, "min_cpp"); err != nil {
		return nil, err
	}
	if criteria.MaxCPP, err = decimalParam(c, "max_cpp"); err != nil {
		return nil, err
	}
	return &criteria, nil
}

func decimalParam(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, models.ValidationError(name + " must be a number")
	}
	return &v, nil
}

func parseLimit(c echo.Context, def, ceiling int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, models.ErrInvalidLimit
	}
	if n > ceiling {
		n = ceiling
	}
	return n, nil
}

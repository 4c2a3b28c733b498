package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

type PortfolioHandler struct {
	service *portfolio.Service
	graph   *transfer.Holder
	now     func() time.Time
}

func NewPortfolioHandler(service *portfolio.Service, graph *transfer.Holder) *PortfolioHandler {
	return &PortfolioHandler{service: service, graph: graph, now: time.Now}
}

func (h *PortfolioHandler) Summary(c echo.Context) error {
	summary, err := h.service.Summary(c.Request().Context(), h.now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *PortfolioHandler) SetBalance(c echo.Context) error {
	var req models.BalanceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return fail(c, err)
	}

	ctx := c.Request().Context()
	code := models.NormalizeCode(c.Param("program"))
	if err := h.service.SetBalance(ctx, code, req.Balance); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, models.PortfolioEntry{ProgramCode: code, Balance: req.Balance})
}

// Transfer moves points along a direct edge. ?dry_run=true quotes the
// transfer without changing balances.
func (h *PortfolioHandler) Transfer(c echo.Context) error {
	var req models.TransferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return fail(c, err)
	}
	var dryRun bool
	if err := echo.QueryParamsBinder(c).Bool("dry_run", &dryRun).BindError(); err != nil {
		return badRequest(c, err.Error())
	}

	quote, err := h.service.SimulateTransfer(c.Request().Context(), req.From, req.To, req.Points, h.now(), dryRun)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

type transfersResponse struct {
	Program string `json:"program"`
	// Partners are programs this one can move points into.
	Partners []transfer.PathResult `json:"partners"`
	// Sources are held currencies that can fund this program.
	Sources []string `json:"sources"`
}

func (h *PortfolioHandler) Transfers(c echo.Context) error {
	code := models.NormalizeCode(c.Param("program"))
	if code == "" {
		return fail(c, models.ErrMissingProgram)
	}

	holdings, err := h.service.Portfolio(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}

	now := h.now()
	resolver := h.graph.Resolver()
	partners := make([]transfer.PathResult, 0)
	for _, p := range resolver.Reachable(models.Portfolio{code: 1}, now) {
		if !p.Direct() {
			partners = append(partners, p)
		}
	}
	sources := resolver.Sources(holdings, code, now)
	if sources == nil {
		sources = []string{}
	}

	return c.JSON(http.StatusOK, transfersResponse{
		Program:  code,
		Partners: partners,
		Sources:  sources,
	})
}

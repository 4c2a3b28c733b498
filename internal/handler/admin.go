package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/resilience"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandler struct {
	reload   func(ctx context.Context) error
	storage  Pinger
	breakers *resilience.Breakers
	logger   *zap.Logger
}

func NewAdminHandler(reload func(ctx context.Context) error, storage Pinger, breakers *resilience.Breakers, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{reload: reload, storage: storage, breakers: breakers, logger: logger}
}

// Reload re-reads the configuration file and swaps edges, programs,
// routes and settings. On failure the running configuration is kept.
func (h *AdminHandler) Reload(c echo.Context) error {
	if err := h.reload(c.Request().Context()); err != nil {
		h.logger.Warn("config reload rejected", zap.Error(err))
		return errorJSON(c, http.StatusBadRequest, "reload_failed", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reloaded"})
}

type healthResponse struct {
	Status   string            `json:"status"`
	Storage  string            `json:"storage"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// Health reports 503 when storage is unreachable. Open breakers degrade
// scans but not the service.
func (h *AdminHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Storage: "ok"}
	if h.breakers != nil {
		resp.Breakers = h.breakers.States()
	}
	if h.storage != nil {
		if err := h.storage.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Storage = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func MetricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

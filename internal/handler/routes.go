package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type Handlers struct {
	Search    *SearchHandler
	Deals     *DealsHandler
	Portfolio *PortfolioHandler
	Admin     *AdminHandler
	Registry  *prometheus.Registry
}

func Register(e *echo.Echo, h Handlers) {
	api := e.Group("/api/v1")
	api.POST("/search", h.Search.Search)
	api.POST("/scan", h.Search.Scan)
	api.GET("/deals", h.Deals.History)
	api.GET("/drops", h.Deals.Drops)
	api.GET("/portfolio", h.Portfolio.Summary)
	api.PUT("/portfolio/:program", h.Portfolio.SetBalance)
	api.POST("/portfolio/transfer", h.Portfolio.Transfer)
	api.GET("/transfers/:program", h.Portfolio.Transfers)
	api.POST("/config/reload", h.Admin.Reload)

	e.GET("/health", h.Admin.Health)
	if h.Registry != nil {
		e.GET("/metrics", MetricsHandler(h.Registry))
	}
}

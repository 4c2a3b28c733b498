package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// Edges flattens every configured transfer source into one edge list:
// the transfers map, per-holding partners, then explicit edges. Map-derived
// edges are ordered by source then target.
func (c *Config) Edges() ([]models.TransferEdge, error) {
	var out []models.TransferEdge

	sources := make([]string, 0, len(c.Transfers))
	for src := range c.Transfers {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		partners := c.Transfers[src]
		targets := make([]string, 0, len(partners))
		for to := range partners {
			targets = append(targets, to)
		}
		sort.Strings(targets)
		for _, to := range targets {
			out = append(out, models.TransferEdge{
				From:  models.NormalizeCode(src),
				To:    models.NormalizeCode(to),
				Ratio: decimal.NewFromFloat(partners[to]),
			})
		}
	}

	for _, h := range c.Portfolio {
		ratio := h.TransferRatio
		if ratio == 0 {
			ratio = 1.0
		}
		for _, to := range h.TransferPartners {
			out = append(out, models.TransferEdge{
				From:  models.NormalizeCode(h.Code),
				To:    models.NormalizeCode(to),
				Ratio: decimal.NewFromFloat(ratio),
			})
		}
	}

	for i, e := range c.TransferEdges {
		edge := models.TransferEdge{
			From:            models.NormalizeCode(e.From),
			To:              models.NormalizeCode(e.To),
			Ratio:           decimal.NewFromFloat(e.Ratio),
			MinTransferUnit: e.MinTransferUnit,
		}
		var err error
		if edge.ActiveFrom, err = parseInstant(e.ActiveFrom); err != nil {
			return nil, fmt.Errorf("transfer_edges[%d].active_from: %w", i, err)
		}
		if edge.ActiveUntil, err = parseInstant(e.ActiveUntil); err != nil {
			return nil, fmt.Errorf("transfer_edges[%d].active_until: %w", i, err)
		}
		out = append(out, edge)
	}

	return out, nil
}

func (c *Config) ProgramList() []models.Program {
	out := make([]models.Program, 0, len(c.Programs))
	for _, p := range c.Programs {
		out = append(out, models.Program{
			Code: models.NormalizeCode(p.Code),
			Name: p.Name,
			Kind: models.ProgramKind(p.Kind),
		})
	}
	return out
}

// Holdings returns the configured balances used to seed the portfolio.
func (c *Config) Holdings() []models.PortfolioEntry {
	out := make([]models.PortfolioEntry, 0, len(c.Portfolio))
	for _, h := range c.Portfolio {
		out = append(out, models.PortfolioEntry{ProgramCode: models.NormalizeCode(h.Code), Balance: h.Balance})
	}
	return out
}

func (c *Config) CabinList() []models.Cabin {
	out := make([]models.Cabin, 0, len(c.Settings.Cabins))
	for _, s := range c.Settings.Cabins {
		if cabin, ok := models.ParseCabin(s); ok {
			out = append(out, cabin)
		}
	}
	return out
}

func (c *Config) HomeAirports() []string {
	out := make([]string, 0, len(c.Settings.HomeAirports))
	for _, a := range c.Settings.HomeAirports {
		out = append(out, strings.ToUpper(strings.TrimSpace(a)))
	}
	return out
}

// Location is the scheduler's time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Settings.Timezone)
}

func parseInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", s)
	}
	return &t, nil
}

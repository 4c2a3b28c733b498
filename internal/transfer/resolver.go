package transfer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const (
	DefaultMaxHops = 2
	// HopLimit bounds MaxHops. Paths longer than this are never reachable.
	HopLimit = 3
)

type EdgeRepository interface {
	ListEdges(ctx context.Context) ([]models.TransferEdge, error)
	ReplaceEdges(ctx context.Context, edges []models.TransferEdge) error
}

type Request struct {
	Target   string
	Required int64
	AsOf     time.Time
}

// Resolver answers path queries over a fixed edge list. It is immutable and
// safe for concurrent use; reloads build a new Resolver.
type Resolver struct {
	edges   []models.TransferEdge
	maxHops int
}

func NewResolver(edges []models.TransferEdge, maxHops int) (*Resolver, error) {
	if maxHops == 0 {
		maxHops = DefaultMaxHops
	}
	if maxHops < 1 || maxHops > HopLimit {
		return nil, fmt.Errorf("max hops must be between 1 and %d, got %d", HopLimit, maxHops)
	}

	normalized := make([]models.TransferEdge, 0, len(edges))
	for _, e := range edges {
		e.From = models.NormalizeCode(e.From)
		e.To = models.NormalizeCode(e.To)
		if e.From == "" || e.To == "" || e.From == e.To {
			continue
		}
		normalized = append(normalized, e)
	}
	return &Resolver{edges: normalized, maxHops: maxHops}, nil
}

func (r *Resolver) MaxHops() int {
	return r.maxHops
}

func (r *Resolver) Edges() []models.TransferEdge {
	out := make([]models.TransferEdge, len(r.edges))
	copy(out, r.edges)
	return out
}

// BestPath returns the best way to deliver req.Required points of req.Target
// from the portfolio. ok is false when no held currency reaches the target
// within the hop cap.
func (r *Resolver) BestPath(portfolio models.Portfolio, req Request) (PathResult, bool) {
	target := models.NormalizeCode(req.Target)

	if portfolio.Holds(target) {
		p := PathResult{
			Source: target,
			Target: target,
			Ratio:  decimal.NewFromInt(1),
			Cost:   req.Required,
		}
		p.annotate(portfolio.Balance(target))
		return p, true
	}

	g := buildGraph(r.edges, portfolio, req.AsOf)
	dst, ok := g.lookup(target)
	if !ok {
		return PathResult{}, false
	}

	var (
		best    PathResult
		bestBal int64
		found   bool
	)
	for _, src := range heldSources(g, portfolio) {
		balance := portfolio.Balance(g.codes[src])
		g.walk(src, r.maxHops, func(path []int, end int) {
			if end != dst {
				return
			}
			edges := make([]models.TransferEdge, len(path))
			for i, ei := range path {
				edges[i] = g.edges[ei]
			}
			steps, ratio, cost := price(edges, req.Required)
			cand := PathResult{
				Source: g.codes[src],
				Target: target,
				Steps:  steps,
				Ratio:  ratio,
				Cost:   cost,
			}
			if !found || better(cand, best, balance, bestBal) {
				best, bestBal, found = cand, balance, true
			}
		})
	}
	if !found {
		return PathResult{}, false
	}

	best.annotate(bestBal)
	return best, true
}

// Reachable lists the best path to every program reachable from the
// portfolio at asOf, ordered by target code. Costs are zero because no
// amount is requested.
func (r *Resolver) Reachable(portfolio models.Portfolio, asOf time.Time) []PathResult {
	g := buildGraph(r.edges, portfolio, asOf)
	targets := make(map[string]struct{})
	for _, src := range heldSources(g, portfolio) {
		targets[g.codes[src]] = struct{}{}
		g.walk(src, r.maxHops, func(_ []int, end int) {
			targets[g.codes[end]] = struct{}{}
		})
	}

	codes := make([]string, 0, len(targets))
	for code := range targets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]PathResult, 0, len(codes))
	for _, code := range codes {
		if p, ok := r.BestPath(portfolio, Request{Target: code, AsOf: asOf}); ok {
			out = append(out, p)
		}
	}
	return out
}

// Sources lists the held currencies that can reach target within the cap,
// including target itself when held.
func (r *Resolver) Sources(portfolio models.Portfolio, target string, asOf time.Time) []string {
	target = models.NormalizeCode(target)
	g := buildGraph(r.edges, portfolio, asOf)
	dst, ok := g.lookup(target)
	if !ok {
		return nil
	}

	var out []string
	for _, src := range heldSources(g, portfolio) {
		if src == dst {
			out = append(out, target)
			continue
		}
		reached := false
		g.walk(src, r.maxHops, func(_ []int, end int) {
			if end == dst {
				reached = true
			}
		})
		if reached {
			out = append(out, g.codes[src])
		}
	}
	sort.Strings(out)
	return out
}

// BestEdge returns the highest-ratio single edge from one program to another
// active at asOf.
func (r *Resolver) BestEdge(from, to string, asOf time.Time) (models.TransferEdge, bool) {
	from, to = models.NormalizeCode(from), models.NormalizeCode(to)
	var (
		best  models.TransferEdge
		found bool
	)
	for _, e := range r.edges {
		if e.From != from || e.To != to || !e.ActiveAt(asOf) {
			continue
		}
		if !found || e.Ratio.GreaterThan(best.Ratio) ||
			(e.Ratio.Equal(best.Ratio) && e.MinTransferUnit < best.MinTransferUnit) {
			best, found = e, true
		}
	}
	return best, found
}

func heldSources(g *graph, portfolio models.Portfolio) []int {
	var out []int
	for i, code := range g.codes {
		if portfolio.Holds(code) {
			out = append(out, i)
		}
	}
	return out
}

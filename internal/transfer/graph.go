package transfer

import (
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// graph is an arena view of the edges active at one instant. Nodes are
// program codes addressed by index; adjacency lists hold edge indices.
type graph struct {
	index map[string]int
	codes []string
	edges []models.TransferEdge
	out   [][]int
}

func buildGraph(edges []models.TransferEdge, portfolio models.Portfolio, asOf time.Time) *graph {
	g := &graph{index: make(map[string]int)}
	for code := range portfolio {
		g.node(code)
	}
	for _, e := range edges {
		if !e.ActiveAt(asOf) {
			continue
		}
		from := g.node(e.From)
		g.node(e.To)
		g.edges = append(g.edges, e)
		g.out[from] = append(g.out[from], len(g.edges)-1)
	}
	return g
}

func (g *graph) node(code string) int {
	if i, ok := g.index[code]; ok {
		return i
	}
	i := len(g.codes)
	g.index[code] = i
	g.codes = append(g.codes, code)
	g.out = append(g.out, nil)
	return i
}

func (g *graph) lookup(code string) (int, bool) {
	i, ok := g.index[code]
	return i, ok
}

// walk enumerates every simple path of 1..maxHops edges starting at src and
// calls visit with the edge indices of each prefix.
func (g *graph) walk(src, maxHops int, visit func(path []int, end int)) {
	onPath := make([]bool, len(g.codes))
	onPath[src] = true
	path := make([]int, 0, maxHops)

	var dfs func(at int)
	dfs = func(at int) {
		if len(path) == maxHops {
			return
		}
		for _, ei := range g.out[at] {
			next := g.index[g.edges[ei].To]
			if onPath[next] {
				continue
			}
			path = append(path, ei)
			visit(path, next)
			onPath[next] = true
			dfs(next)
			onPath[next] = false
			path = path[:len(path)-1]
		}
	}
	dfs(src)
}

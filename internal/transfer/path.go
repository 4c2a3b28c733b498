package transfer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

type Step struct {
	Edge      models.TransferEdge `json:"edge"`
	PointsIn  int64               `json:"points_in"`
	PointsOut int64               `json:"points_out"`
}

type PathResult struct {
	Source              string          `json:"source"`
	Target              string          `json:"target"`
	Steps               []Step          `json:"steps"`
	Ratio               decimal.Decimal `json:"ratio"`
	Cost                int64           `json:"cost"`
	Capacity            int64           `json:"capacity"`
	InsufficientBalance bool            `json:"insufficient_balance"`
	Shortfall           int64           `json:"shortfall"`
}

func (p PathResult) Hops() int {
	return len(p.Steps)
}

func (p PathResult) Direct() bool {
	return len(p.Steps) == 0
}

func (p PathResult) Edges() []models.TransferEdge {
	edges := make([]models.TransferEdge, len(p.Steps))
	for i, s := range p.Steps {
		edges[i] = s.Edge
	}
	return edges
}

func (p PathResult) String() string {
	if p.Direct() {
		return p.Target + " (direct)"
	}
	parts := []string{p.Source}
	for _, s := range p.Steps {
		parts = append(parts, s.Edge.To)
	}
	return strings.Join(parts, " -> ")
}

// inputFor is the smallest owned amount that delivers at least need points
// through e, rounded up to the edge's transfer unit.
func inputFor(need int64, e models.TransferEdge) int64 {
	if need <= 0 {
		return 0
	}
	in := decimal.NewFromInt(need).Div(e.Ratio).Ceil().IntPart()
	if unit := e.MinTransferUnit; unit > 1 {
		if rem := in % unit; rem != 0 {
			in += unit - rem
		}
	}
	return in
}

func outputFor(in int64, e models.TransferEdge) int64 {
	return decimal.NewFromInt(in).Mul(e.Ratio).Floor().IntPart()
}

// price walks the path backwards from the target so every hop's rounding is
// charged to the hop before it.
func price(edges []models.TransferEdge, required int64) ([]Step, decimal.Decimal, int64) {
	steps := make([]Step, len(edges))
	need := required
	for i := len(edges) - 1; i >= 0; i-- {
		in := inputFor(need, edges[i])
		steps[i] = Step{Edge: edges[i], PointsIn: in}
		need = in
	}

	ratio := decimal.NewFromInt(1)
	for i := range steps {
		ratio = ratio.Mul(steps[i].Edge.Ratio)
		steps[i].PointsOut = outputFor(steps[i].PointsIn, steps[i].Edge)
	}
	return steps, ratio, need
}

func (p *PathResult) annotate(balance int64) {
	p.Capacity = balance
	if balance < p.Cost {
		p.InsufficientBalance = true
		p.Shortfall = p.Cost - balance
	} else {
		p.InsufficientBalance = false
		p.Shortfall = 0
	}
}

// better orders candidate paths: lower owned cost after unit rounding,
// higher cumulative ratio, fewer hops, larger source balance, then source
// code. With nothing requested every cost is zero and ratio decides.
func better(a, b PathResult, balA, balB int64) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if c := a.Ratio.Cmp(b.Ratio); c != 0 {
		return c > 0
	}
	if a.Hops() != b.Hops() {
		return a.Hops() < b.Hops()
	}
	if balA != balB {
		return balA > balB
	}
	return a.Source < b.Source
}

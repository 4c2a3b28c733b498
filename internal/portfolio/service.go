package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

// Service owns the persisted balances. Balances change only through
// SetBalance, Seed and SimulateTransfer.
type Service struct {
	repo     Repository
	graph    *transfer.Holder
	logger   *zap.Logger
	mu       sync.RWMutex
	programs map[string]models.Program
}

func NewService(repo Repository, graph *transfer.Holder, programs []models.Program, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, graph: graph, logger: logger}
	s.SetPrograms(programs)
	return s
}

func (s *Service) SetPrograms(programs []models.Program) {
	m := make(map[string]models.Program, len(programs))
	for _, p := range programs {
		m[models.NormalizeCode(p.Code)] = p
	}
	s.mu.Lock()
	s.programs = m
	s.mu.Unlock()
}

func (s *Service) Program(code string) (models.Program, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[models.NormalizeCode(code)]
	return p, ok
}

func (s *Service) ProgramName(code string) string {
	if p, ok := s.Program(code); ok && p.Name != "" {
		return p.Name
	}
	return strings.ToUpper(code)
}

func (s *Service) Entries(ctx context.Context) ([]models.PortfolioEntry, error) {
	entries, err := s.repo.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	return entries, nil
}

func (s *Service) Portfolio(ctx context.Context) (models.Portfolio, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return models.PortfolioFromEntries(entries), nil
}

func (s *Service) SetBalance(ctx context.Context, code string, balance int64) error {
	code = models.NormalizeCode(code)
	if code == "" {
		return models.ErrMissingProgram
	}
	if balance < 0 {
		return models.ErrNegativeBalance
	}
	if err := s.repo.SetBalance(ctx, code, balance); err != nil {
		return err
	}
	s.logger.Info("balance updated", zap.String("program", code), zap.Int64("balance", balance))
	return nil
}

// Seed stores configured balances for programs that have none yet and
// reports how many were inserted.
func (s *Service) Seed(ctx context.Context, entries []models.PortfolioEntry) (int, error) {
	seeded := 0
	for _, e := range entries {
		ok, err := s.repo.SeedBalance(ctx, models.NormalizeCode(e.ProgramCode), e.Balance)
		if err != nil {
			return seeded, err
		}
		if ok {
			seeded++
		}
	}
	return seeded, nil
}

type TransferQuote struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	Edge      models.TransferEdge `json:"edge"`
	Debit     int64               `json:"debit"`
	Credit    int64               `json:"credit"`
	Applied   bool                `json:"applied"`
	Portfolio models.Portfolio    `json:"portfolio"`
}

// SimulateTransfer moves points from one program to another at the best
// active direct edge. points must be a multiple of the edge's
// min_transfer_unit. With dryRun the quote is computed without touching
// balances.
func (s *Service) SimulateTransfer(ctx context.Context, from, to string, points int64, asOf time.Time, dryRun bool) (TransferQuote, error) {
	from, to = models.NormalizeCode(from), models.NormalizeCode(to)
	if points <= 0 {
		return TransferQuote{}, models.ErrInvalidPoints
	}

	edge, ok := s.graph.Resolver().BestEdge(from, to, asOf)
	if !ok {
		return TransferQuote{}, fmt.Errorf("%s -> %s: %w", from, to, ErrNoTransferPartner)
	}
	if unit := edge.MinTransferUnit; unit > 1 && points%unit != 0 {
		return TransferQuote{}, fmt.Errorf("%s -> %s transfers in multiples of %d points: %w", from, to, unit, models.ErrTransferUnit)
	}

	q := TransferQuote{
		From:   from,
		To:     to,
		Edge:   edge,
		Debit:  points,
		Credit: decimal.NewFromInt(points).Mul(edge.Ratio).Floor().IntPart(),
	}

	current, err := s.Portfolio(ctx)
	if err != nil {
		return TransferQuote{}, err
	}
	if current.Balance(from) < points {
		return TransferQuote{}, fmt.Errorf("%s holds %d, need %d: %w", from, current.Balance(from), points, ErrInsufficientBalance)
	}

	if !dryRun {
		if err := s.repo.ApplyTransfer(ctx, from, q.Debit, to, q.Credit); err != nil {
			return TransferQuote{}, fmt.Errorf("apply transfer: %w", err)
		}
		q.Applied = true
		s.logger.Info("transfer applied",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int64("debit", q.Debit),
			zap.Int64("credit", q.Credit),
		)
		if current, err = s.Portfolio(ctx); err != nil {
			return TransferQuote{}, err
		}
	} else {
		current[from] -= q.Debit
		current[to] += q.Credit
	}
	q.Portfolio = current
	return q, nil
}

var typicalCPP = map[string]string{
	"chase_ur": "1.5", "amex_mr": "1.5", "cap_one": "1.5", "bilt": "1.8", "citi_typ": "1.5",
	"aa": "1.5", "united": "1.4", "delta": "1.2", "aeroplan": "1.8", "alaska": "1.8",
	"ba_avios": "1.5", "virgin_atlantic": "1.8", "ana": "2.0", "singapore": "1.8",
	"cathay": "1.6", "flying_blue": "1.4", "turkish": "1.8", "emirates": "1.3",
	"etihad": "1.5", "qantas": "1.5", "jal": "1.6", "hyatt": "2.0", "southwest": "1.4",
	"iberia": "1.4", "avianca": "1.6",
}

// TypicalCPP is a conservative redemption value for a program, 1.0 when
// unknown.
func TypicalCPP(code string) decimal.Decimal {
	if v, ok := typicalCPP[models.NormalizeCode(code)]; ok {
		return decimal.RequireFromString(v)
	}
	return decimal.NewFromInt(1)
}

type Holding struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Balance        int64           `json:"balance"`
	EstimatedValue models.Cents    `json:"estimated_value"`
	BestUse        string          `json:"best_use"`
	BestCPP        decimal.Decimal `json:"best_cpp"`
}

type Summary struct {
	TotalPoints         int64        `json:"total_points"`
	TotalEstimatedValue models.Cents `json:"total_estimated_value"`
	Holdings            []Holding    `json:"holdings"`
}

// Summary values every holding at its typical cpp and names the direct
// partner with the best typical value after the transfer ratio.
func (s *Service) Summary(ctx context.Context, asOf time.Time) (Summary, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return Summary{}, err
	}

	edges := s.graph.Resolver().Edges()
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].To < edges[j].To })

	var out Summary
	for _, e := range entries {
		cpp := TypicalCPP(e.ProgramCode)
		value := decimal.NewFromInt(e.Balance).Mul(cpp).Round(0).IntPart()

		h := Holding{
			Code:           e.ProgramCode,
			Name:           s.ProgramName(e.ProgramCode),
			Balance:        e.Balance,
			EstimatedValue: models.Cents(value),
			BestUse:        "direct redemption",
			BestCPP:        cpp,
		}
		for _, edge := range edges {
			if edge.From != e.ProgramCode || !edge.ActiveAt(asOf) {
				continue
			}
			partner := TypicalCPP(edge.To).Mul(edge.Ratio)
			if partner.GreaterThan(h.BestCPP) {
				h.BestCPP = partner
				h.BestUse = "transfer to " + s.ProgramName(edge.To)
			}
		}

		out.TotalPoints += e.Balance
		out.TotalEstimatedValue += h.EstimatedValue
		out.Holdings = append(out.Holdings, h)
	}
	return out, nil
}

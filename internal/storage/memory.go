package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
)

// Memory is a process-local backend. History does not survive restarts.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]int64
	edges    []models.TransferEdge
	deals    map[string]models.Deal
	byPrint  map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]int64),
		deals:    make(map[string]models.Deal),
		byPrint:  make(map[string]string),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) ListBalances(ctx context.Context) ([]models.PortfolioEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.PortfolioEntry, 0, len(m.balances))
	for code, b := range m.balances {
		out = append(out, models.PortfolioEntry{ProgramCode: code, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramCode < out[j].ProgramCode })
	return out, nil
}

func (m *Memory) SetBalance(ctx context.Context, code string, balance int64) error {
	if balance < 0 {
		return fmt.Errorf("set balance %s: negative balance %d", code, balance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[code] = balance
	return nil
}

func (m *Memory) SeedBalance(ctx context.Context, code string, balance int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[code]; ok {
		return false, nil
	}
	m.balances[code] = balance
	return true, nil
}

func (m *Memory) ApplyTransfer(ctx context.Context, from string, debit int64, to string, credit int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[from] < debit {
		return portfolio.ErrInsufficientBalance
	}
	m.balances[from] -= debit
	m.balances[to] += credit
	return nil
}

func (m *Memory) ListEdges(ctx context.Context) ([]models.TransferEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.TransferEdge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

func (m *Memory) ReplaceEdges(ctx context.Context, edges []models.TransferEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = make([]models.TransferEdge, len(edges))
	copy(m.edges, edges)
	return nil
}

func (m *Memory) GetByFingerprint(ctx context.Context, fingerprint string) (models.Deal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPrint[fingerprint]
	if !ok {
		return models.Deal{}, false, nil
	}
	return m.deals[id], true, nil
}

func (m *Memory) Insert(ctx context.Context, d models.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPrint[d.Fingerprint]; ok {
		return fmt.Errorf("insert deal %s: duplicate fingerprint", d.Fingerprint)
	}
	m.deals[d.ID] = d
	m.byPrint[d.Fingerprint] = d.ID
	return nil
}

func (m *Memory) Update(ctx context.Context, d models.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.deals[d.ID]
	if !ok {
		return fmt.Errorf("update deal %s: %w", d.ID, ErrNotFound)
	}
	d.Fingerprint = prev.Fingerprint
	d.FirstSeenAt = prev.FirstSeenAt
	m.deals[d.ID] = d
	return nil
}

func (m *Memory) Touch(ctx context.Context, id string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return fmt.Errorf("touch deal %s: %w", id, ErrNotFound)
	}
	d.LastSeenAt = seenAt
	m.deals[id] = d
	return nil
}

func (m *Memory) List(ctx context.Context, q deals.Query) ([]models.Deal, error) {
	m.mu.RLock()
	matched := make([]models.Deal, 0, len(m.deals))
	for _, d := range m.deals {
		if q.Matches(d) {
			matched = append(matched, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].FirstSeenAt.Equal(matched[j].FirstSeenAt) {
			return matched[i].FirstSeenAt.Before(matched[j].FirstSeenAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start := 0
	if q.After != nil {
		start = sort.Search(len(matched), func(i int) bool {
			d := matched[i]
			if !d.FirstSeenAt.Equal(q.After.FirstSeenAt) {
				return d.FirstSeenAt.After(q.After.FirstSeenAt)
			}
			return d.ID > q.After.ID
		})
	}
	matched = matched[start:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (m *Memory) DeleteExpired(ctx context.Context, horizon, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.deals {
		if deals.Expired(d, horizon, models.DateOf(today)) {
			delete(m.deals, id)
			delete(m.byPrint, d.Fingerprint)
			n++
		}
	}
	return n, nil
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProgramKind string

const (
	KindTransferableCurrency ProgramKind = "transferable_currency"
	KindAirlineProgram       ProgramKind = "airline_program"
)

func (k ProgramKind) Valid() bool {
	return k == KindTransferableCurrency || k == KindAirlineProgram
}

type Program struct {
	Code string      `json:"code" yaml:"code"`
	Name string      `json:"name" yaml:"name"`
	Kind ProgramKind `json:"kind" yaml:"kind"`
}

// TransferEdge is a directed conversion from one program to another. Ratio is
// points received in To for each point spent from From.
type TransferEdge struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	Ratio           decimal.Decimal `json:"ratio"`
	MinTransferUnit int64           `json:"min_transfer_unit,omitempty"`
	ActiveFrom      *time.Time      `json:"active_from,omitempty"`
	ActiveUntil     *time.Time      `json:"active_until,omitempty"`
}

// ActiveAt reports whether the edge can be used at t. Edges with a
// non-positive ratio are never active.
func (e TransferEdge) ActiveAt(t time.Time) bool {
	if !e.Ratio.IsPositive() {
		return false
	}
	if e.ActiveFrom != nil && t.Before(*e.ActiveFrom) {
		return false
	}
	if e.ActiveUntil != nil && e.ActiveUntil.Before(t) {
		return false
	}
	return true
}

type PortfolioEntry struct {
	ProgramCode string `json:"program_code"`
	Balance     int64  `json:"balance"`
}

// Portfolio maps a program code to its held balance.
type Portfolio map[string]int64

func (p Portfolio) Balance(code string) int64 {
	return p[NormalizeCode(code)]
}

// Holds reports whether the portfolio has a spendable balance in code.
func (p Portfolio) Holds(code string) bool {
	return p.Balance(code) > 0
}

func (p Portfolio) Total() int64 {
	var total int64
	for _, b := range p {
		total += b
	}
	return total
}

func PortfolioFromEntries(entries []PortfolioEntry) Portfolio {
	p := make(Portfolio, len(entries))
	for _, e := range entries {
		p[NormalizeCode(e.ProgramCode)] = e.Balance
	}
	return p
}

func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

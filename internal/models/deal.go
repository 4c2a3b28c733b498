package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordStatus string

const (
	StatusNew       RecordStatus = "new"
	StatusUpdated   RecordStatus = "updated"
	StatusUnchanged RecordStatus = "unchanged"
)

// Alertable reports whether a record outcome may be surfaced to the caller.
func (s RecordStatus) Alertable() bool {
	return s == StatusNew || s == StatusUpdated
}

type Deal struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Cabin       Cabin     `json:"cabin"`
	Date        time.Time `json:"date"`
	ProgramCode string    `json:"program_code"`

	MilesRequired  int64  `json:"miles_required"`
	TaxesFees      Cents  `json:"taxes_fees"`
	CashPrice      *Cents `json:"cash_price,omitempty"`
	SeatsAvailable *int   `json:"seats_available,omitempty"`

	CPP       decimal.NullDecimal `json:"cpp"`
	Tier      string              `json:"tier"`
	IsUnicorn bool                `json:"is_unicorn"`

	Reachable           bool           `json:"reachable"`
	SourceProgram       string         `json:"source_program,omitempty"`
	TransferPath        []TransferEdge `json:"transfer_path"`
	EffectivePointsCost int64          `json:"effective_points_cost"`
	InsufficientBalance bool           `json:"insufficient_balance"`

	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func (d Deal) HasCPP() bool {
	return d.CPP.Valid
}

// Affordable reports whether the cheapest owned-currency path is covered by
// the held balance.
func (d Deal) Affordable() bool {
	return d.Reachable && !d.InsufficientBalance
}

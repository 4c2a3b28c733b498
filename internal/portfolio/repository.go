package portfolio

import (
	"context"
	"errors"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoTransferPartner   = errors.New("no active transfer partner")
	ErrUnknownProgram      = errors.New("unknown program")
)

type Repository interface {
	ListBalances(ctx context.Context) ([]models.PortfolioEntry, error)
	SetBalance(ctx context.Context, code string, balance int64) error
	// SeedBalance inserts a balance only when none is stored yet.
	SeedBalance(ctx context.Context, code string, balance int64) (bool, error)
	// ApplyTransfer debits from and credits to atomically. It fails with
	// ErrInsufficientBalance when from holds less than debit.
	ApplyTransfer(ctx context.Context, from string, debit int64, to string, credit int64) error
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharmasatrya/pointsmaxxer/internal/config"
	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
	"github.com/dharmasatrya/pointsmaxxer/internal/transfer"
)

var ErrNotFound = errors.New("not found")

// Backend is everything the engine persists.
type Backend interface {
	deals.Repository
	portfolio.Repository
	transfer.EdgeRepository
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*SQL)(nil)
	_ Backend = (*Memory)(nil)
)

// Open connects the backend named by cfg.Driver and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

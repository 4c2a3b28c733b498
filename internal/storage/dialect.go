package storage

import (
	"strconv"
	"strings"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind rewrites '?' placeholders to the dialect's form.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d dialect) schema() []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d == dialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS portfolio (
			program_code TEXT PRIMARY KEY,
			balance BIGINT NOT NULL CHECK (balance >= 0),
			updated_ns BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transfer_edges (
			id ` + serial + `,
			from_code TEXT NOT NULL,
			to_code TEXT NOT NULL,
			ratio TEXT NOT NULL,
			min_transfer_unit BIGINT NOT NULL DEFAULT 0,
			active_from_ns BIGINT,
			active_until_ns BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS deals (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL UNIQUE,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			cabin TEXT NOT NULL,
			travel_date TEXT NOT NULL,
			program_code TEXT NOT NULL,
			miles_required BIGINT NOT NULL,
			taxes_fees BIGINT NOT NULL,
			cash_price BIGINT,
			seats_available BIGINT,
			cpp TEXT,
			tier TEXT NOT NULL,
			is_unicorn INTEGER NOT NULL,
			reachable INTEGER NOT NULL,
			source_program TEXT NOT NULL,
			transfer_path TEXT NOT NULL,
			effective_points_cost BIGINT NOT NULL,
			insufficient_balance INTEGER NOT NULL,
			first_seen_ns BIGINT NOT NULL,
			last_seen_ns BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS deals_first_seen ON deals (first_seen_ns, id)`,
		`CREATE INDEX IF NOT EXISTS deals_award ON deals (origin, destination, program_code, cabin, travel_date)`,
	}
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharmasatrya/pointsmaxxer/internal/deals"
	"github.com/dharmasatrya/pointsmaxxer/internal/models"
	"github.com/dharmasatrya/pointsmaxxer/internal/portfolio"
)

// SQL is the relational repository shared by the SQLite and Postgres
// backends. It implements deals.Repository, portfolio.Repository and
// transfer.EdgeRepository.
type SQL struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	onClose func()
}

func newSQL(db *sql.DB, d dialect) *SQL {
	return &SQL{db: db, dialect: d, now: time.Now}
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) Close() error {
	err := s.db.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQL) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

// --- portfolio ---

func (s *SQL) ListBalances(ctx context.Context) ([]models.PortfolioEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT program_code, balance FROM portfolio ORDER BY program_code`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.PortfolioEntry
	for rows.Next() {
		var e models.PortfolioEntry
		if err := rows.Scan(&e.ProgramCode, &e.Balance); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQL) SetBalance(ctx context.Context, code string, balance int64) error {
	_, err := s.exec(ctx, `INSERT INTO portfolio (program_code, balance, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT (program_code) DO UPDATE SET balance = excluded.balance, updated_ns = excluded.updated_ns`,
		code, balance, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("set balance %s: %w", code, err)
	}
	return nil
}

func (s *SQL) SeedBalance(ctx context.Context, code string, balance int64) (bool, error) {
	res, err := s.exec(ctx, `INSERT INTO portfolio (program_code, balance, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT (program_code) DO NOTHING`,
		code, balance, s.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("seed balance %s: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed balance %s: %w", code, err)
	}
	return n == 1, nil
}

func (s *SQL) ApplyTransfer(ctx context.Context, from string, debit int64, to string, credit int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UnixNano()
	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`UPDATE portfolio SET balance = balance - ?, updated_ns = ? WHERE program_code = ? AND balance >= ?`),
		debit, now, from, debit)
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if n != 1 {
		return portfolio.ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO portfolio (program_code, balance, updated_ns) VALUES (?, ?, ?)
		ON CONFLICT (program_code) DO UPDATE SET balance = portfolio.balance + excluded.balance, updated_ns = excluded.updated_ns`),
		to, credit, now); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

// --- transfer edges ---

func (s *SQL) ListEdges(ctx context.Context) ([]models.TransferEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT from_code, to_code, ratio, min_transfer_unit, active_from_ns, active_until_ns
		FROM transfer_edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.TransferEdge
	for rows.Next() {
		var (
			e           models.TransferEdge
			ratio       string
			from, until sql.NullInt64
		)
		if err := rows.Scan(&e.From, &e.To, &ratio, &e.MinTransferUnit, &from, &until); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if e.Ratio, err = decimal.NewFromString(ratio); err != nil {
			return nil, fmt.Errorf("edge %s->%s ratio: %w", e.From, e.To, err)
		}
		e.ActiveFrom = timeFromNull(from)
		e.ActiveUntil = timeFromNull(until)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQL) ReplaceEdges(ctx context.Context, edges []models.TransferEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace edges: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transfer_edges`); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	insert := s.dialect.rebind(`INSERT INTO transfer_edges (from_code, to_code, ratio, min_transfer_unit, active_from_ns, active_until_ns)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx, insert,
			e.From, e.To, e.Ratio.String(), e.MinTransferUnit, nullFromTime(e.ActiveFrom), nullFromTime(e.ActiveUntil)); err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit edges: %w", err)
	}
	return nil
}

// --- deals ---

const dealColumns = `id, fingerprint, origin, destination, cabin, travel_date, program_code,
	miles_required, taxes_fees, cash_price, seats_available, cpp, tier, is_unicorn,
	reachable, source_program, transfer_path, effective_points_cost, insufficient_balance,
	first_seen_ns, last_seen_ns`

func (s *SQL) GetByFingerprint(ctx context.Context, fingerprint string) (models.Deal, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+dealColumns+` FROM deals WHERE fingerprint = ?`), fingerprint)
	d, err := scanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Deal{}, false, nil
	}
	if err != nil {
		return models.Deal{}, false, fmt.Errorf("get deal %s: %w", fingerprint, err)
	}
	return d, true, nil
}

func (s *SQL) Insert(ctx context.Context, d models.Deal) error {
	args, err := dealArgs(d)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO deals (`+dealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert deal %s: %w", d.Fingerprint, err)
	}
	return nil
}

func (s *SQL) Update(ctx context.Context, d models.Deal) error {
	path, err := json.Marshal(d.TransferPath)
	if err != nil {
		return fmt.Errorf("encode transfer path: %w", err)
	}
	res, err := s.exec(ctx, `UPDATE deals SET miles_required = ?, taxes_fees = ?, cash_price = ?, seats_available = ?,
		cpp = ?, tier = ?, is_unicorn = ?, reachable = ?, source_program = ?, transfer_path = ?,
		effective_points_cost = ?, insufficient_balance = ?, last_seen_ns = ?
		WHERE id = ?`,
		d.MilesRequired, int64(d.TaxesFees), nullCents(d.CashPrice), nullInt(d.SeatsAvailable),
		nullDecimal(d.CPP), d.Tier, boolInt(d.IsUnicorn), boolInt(d.Reachable), d.SourceProgram, string(path),
		d.EffectivePointsCost, boolInt(d.InsufficientBalance), d.LastSeenAt.UnixNano(),
		d.ID)
	if err != nil {
		return fmt.Errorf("update deal %s: %w", d.ID, err)
	}
	return expectOne(res, "update deal "+d.ID)
}

func (s *SQL) Touch(ctx context.Context, id string, seenAt time.Time) error {
	res, err := s.exec(ctx, `UPDATE deals SET last_seen_ns = ? WHERE id = ?`, seenAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("touch deal %s: %w", id, err)
	}
	return expectOne(res, "touch deal "+id)
}

func (s *SQL) List(ctx context.Context, q deals.Query) ([]models.Deal, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, vals ...any) {
		where = append(where, clause)
		args = append(args, vals...)
	}
	if q.DateFrom != nil {
		add("travel_date >= ?", models.DateOf(*q.DateFrom).Format(models.DateLayout))
	}
	if q.DateTo != nil {
		add("travel_date <= ?", models.DateOf(*q.DateTo).Format(models.DateLayout))
	}
	if q.Program != "" {
		add("program_code = ?", q.Program)
	}
	if q.Cabin != "" {
		add("cabin = ?", string(q.Cabin))
	}
	if q.Origin != "" {
		add("origin = ?", q.Origin)
	}
	if q.Destination != "" {
		add("destination = ?", q.Destination)
	}
	if q.UnicornOnly {
		add("is_unicorn = 1")
	}
	if q.SeenSince != nil {
		add("last_seen_ns >= ?", q.SeenSince.UnixNano())
	}
	if q.After != nil {
		ns := q.After.FirstSeenAt.UnixNano()
		add("(first_seen_ns > ? OR (first_seen_ns = ? AND id > ?))", ns, ns, q.After.ID)
	}

	query := `SELECT ` + dealColumns + ` FROM deals`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY first_seen_ns, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQL) DeleteExpired(ctx context.Context, horizon, today time.Time) (int64, error) {
	h := horizon.UnixNano()
	res, err := s.exec(ctx, `DELETE FROM deals
		WHERE travel_date < ?
		   OR (first_seen_ns < ? AND NOT (is_unicorn = 1 AND last_seen_ns >= ?))`,
		models.DateOf(today).Format(models.DateLayout), h, h)
	if err != nil {
		return 0, fmt.Errorf("delete expired deals: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (models.Deal, error) {
	var (
		d                          models.Deal
		cabin, date, path          string
		cash, seats                sql.NullInt64
		cpp                        sql.NullString
		unicorn, reachable, short  int64
		taxes, firstSeen, lastSeen int64
	)
	if err := row.Scan(&d.ID, &d.Fingerprint, &d.Origin, &d.Destination, &cabin, &date, &d.ProgramCode,
		&d.MilesRequired, &taxes, &cash, &seats, &cpp, &d.Tier, &unicorn,
		&reachable, &d.SourceProgram, &path, &d.EffectivePointsCost, &short,
		&firstSeen, &lastSeen); err != nil {
		return models.Deal{}, err
	}

	var err error
	d.Cabin = models.Cabin(cabin)
	if d.Date, err = models.ParseDate(date); err != nil {
		return models.Deal{}, fmt.Errorf("travel date %q: %w", date, err)
	}
	d.TaxesFees = models.Cents(taxes)
	if cash.Valid {
		d.CashPrice = models.CentsPtr(models.Cents(cash.Int64))
	}
	if seats.Valid {
		n := int(seats.Int64)
		d.SeatsAvailable = &n
	}
	if cpp.Valid {
		v, err := decimal.NewFromString(cpp.String)
		if err != nil {
			return models.Deal{}, fmt.Errorf("cpp %q: %w", cpp.String, err)
		}
		d.CPP = decimal.NewNullDecimal(v)
	}
	d.IsUnicorn = unicorn != 0
	d.Reachable = reachable != 0
	d.InsufficientBalance = short != 0
	if err := json.Unmarshal([]byte(path), &d.TransferPath); err != nil {
		return models.Deal{}, fmt.Errorf("transfer path: %w", err)
	}
	d.FirstSeenAt = time.Unix(0, firstSeen).UTC()
	d.LastSeenAt = time.Unix(0, lastSeen).UTC()
	return d, nil
}

func dealArgs(d models.Deal) ([]any, error) {
	path, err := json.Marshal(d.TransferPath)
	if err != nil {
		return nil, fmt.Errorf("encode transfer path: %w", err)
	}
	return []any{
		d.ID, d.Fingerprint, d.Origin, d.Destination, string(d.Cabin), d.Date.Format(models.DateLayout), d.ProgramCode,
		d.MilesRequired, int64(d.TaxesFees), nullCents(d.CashPrice), nullInt(d.SeatsAvailable), nullDecimal(d.CPP), d.Tier, boolInt(d.IsUnicorn),
		boolInt(d.Reachable), d.SourceProgram, string(path), d.EffectivePointsCost, boolInt(d.InsufficientBalance),
		d.FirstSeenAt.UnixNano(), d.LastSeenAt.UnixNano(),
	}, nil
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullCents(c *models.Cents) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func nullFromTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timeFromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64).UTC()
	return &t
}

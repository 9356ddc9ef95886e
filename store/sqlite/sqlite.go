/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  engine.ShiftStore:  Shifts, break periods and the segment replacement
  engine.GuideStore:  Pay guide resolution (guides stored as JSON config)
  period.Store:       Pay periods with their extras and totals
  tax.TableSource:    Per-year withholding coefficient rows

SEGMENT REPLACEMENT:
  ReplaceSegments is the one multi-statement write: existence check, child
  delete, child insert and aggregate update run inside a single database
  transaction. A shift deleted concurrently yields ParentGone, never a
  partial write.

KEY TABLES:
  pay_guides:       Guide config as JSON (rates, frames, holidays)
  shifts:           Worked spans with derived aggregate pay columns
  break_periods:    Unpaid spans owned by a shift
  shift_segments:   Priced slices, fully replaced on recalculation
  pay_periods:      Pay cycles with status, totals and tax year
  period_extras:    One-off amounts attached to a period
  tax_coefficients: ATO bracket rows per year and scale
  stsl_rates:       Study-loan repayment brackets per year
  tax_rate_configs: Medicare rate and shading thresholds per year

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/pay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  recalc := engine.NewRecalculator(store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions and the replacement contract
  - engine/store/memory.go: In-memory implementation for testing
  - factory/guide.go: The JSON guide schema stored in config_json
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/tax"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Pay guides (config stored as JSON, see factory.GuideJSON)
	CREATE TABLE IF NOT EXISTS pay_guides (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Shifts (aggregate pay columns are derived, rewritten on recalculation)
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		guide_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		base_pay TEXT NOT NULL DEFAULT '0',
		penalty_pay TEXT NOT NULL DEFAULT '0',
		overtime_pay TEXT NOT NULL DEFAULT '0',
		total_pay TEXT NOT NULL DEFAULT '0',
		total_hours TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Composite index for period aggregation and prior-week lookups (hot path)
	CREATE INDEX IF NOT EXISTS idx_shifts_start_at
		ON shifts(start_at);
	CREATE INDEX IF NOT EXISTS idx_shifts_guide
		ON shifts(guide_id);

	-- Break periods (owned by shift, replaced with it)
	CREATE TABLE IF NOT EXISTS break_periods (
		shift_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		PRIMARY KEY (shift_id, position)
	);

	-- Segments (fully owned by shift, swapped atomically on recalculation)
	CREATE TABLE IF NOT EXISTS shift_segments (
		shift_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		frame_id TEXT,
		label TEXT NOT NULL,
		multiplier TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		seconds INTEGER NOT NULL,
		hours TEXT NOT NULL,
		pay TEXT NOT NULL,
		PRIMARY KEY (shift_id, position)
	);

	-- Pay periods
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		period_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		tax_year TEXT NOT NULL,
		gross TEXT NOT NULL DEFAULT '0',
		income_tax TEXT NOT NULL DEFAULT '0',
		medicare TEXT NOT NULL DEFAULT '0',
		study_loan TEXT NOT NULL DEFAULT '0',
		withheld TEXT NOT NULL DEFAULT '0',
		net TEXT NOT NULL DEFAULT '0',
		tax_source TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_start
		ON pay_periods(start_at);

	-- Period extras (replaced with their period on save)
	CREATE TABLE IF NOT EXISTS period_extras (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		taxable BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_period_extras_period
		ON period_extras(period_id);

	-- Withholding coefficient rows: for annual earnings x in
	-- [earnings_from, earnings_to), tax = a*x - b. earnings_to of '' marks
	-- the unbounded last bracket.
	CREATE TABLE IF NOT EXISTS tax_coefficients (
		year TEXT NOT NULL,
		scale TEXT NOT NULL,
		earnings_from TEXT NOT NULL,
		earnings_to TEXT NOT NULL DEFAULT '',
		a TEXT NOT NULL,
		b TEXT NOT NULL,
		PRIMARY KEY (year, scale, earnings_from)
	);

	-- Study-loan repayment brackets
	CREATE TABLE IF NOT EXISTS stsl_rates (
		year TEXT NOT NULL,
		earnings_from TEXT NOT NULL,
		earnings_to TEXT NOT NULL DEFAULT '',
		rate TEXT NOT NULL,
		PRIMARY KEY (year, earnings_from)
	);

	-- Medicare levy parameters per year
	CREATE TABLE IF NOT EXISTS tax_rate_configs (
		year TEXT PRIMARY KEY,
		medicare_rate TEXT NOT NULL,
		medicare_low_threshold TEXT NOT NULL,
		medicare_high_threshold TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GUIDE STORE (engine.GuideStore interface)
// =============================================================================

// SaveGuide upserts a pay guide, serialized to its JSON config.
func (s *Store) SaveGuide(ctx context.Context, g *engine.PayGuide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := factory.MarshalGuide(g)
	if err != nil {
		return fmt.Errorf("failed to serialize guide: %w", err)
	}

	query := `
		INSERT INTO pay_guides (id, name, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, string(g.ID), g.Name, string(cfg), now, now)
	return err
}

// GetGuide retrieves a guide by ID. Returns engine.ErrGuideNotFound when absent.
func (s *Store) GetGuide(ctx context.Context, id engine.GuideID) (*engine.PayGuide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cfg string
	err := s.db.QueryRowContext(ctx,
		"SELECT config_json FROM pay_guides WHERE id = ?", string(id),
	).Scan(&cfg)

	if err == sql.ErrNoRows {
		return nil, engine.ErrGuideNotFound
	}
	if err != nil {
		return nil, err
	}

	g, err := factory.ParseGuide([]byte(cfg))
	if err != nil {
		return nil, fmt.Errorf("stored guide %s is invalid: %w", id, err)
	}
	g.ID = id
	return g, nil
}

// ListGuides returns all guides ordered by name.
func (s *Store) ListGuides(ctx context.Context) ([]*engine.PayGuide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, config_json FROM pay_guides ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []*engine.PayGuide
	for rows.Next() {
		var id, cfg string
		if err := rows.Scan(&id, &cfg); err != nil {
			return nil, err
		}
		g, err := factory.ParseGuide([]byte(cfg))
		if err != nil {
			return nil, fmt.Errorf("stored guide %s is invalid: %w", id, err)
		}
		g.ID = engine.GuideID(id)
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// DeleteGuide removes a guide.
func (s *Store) DeleteGuide(ctx context.Context, id engine.GuideID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM pay_guides WHERE id = ?", string(id))
	return err
}

// =============================================================================
// SHIFT STORE (engine.ShiftStore interface)
// =============================================================================

// SaveShift upserts a shift's identity fields and rewrites its break
// periods. Aggregate pay columns are only written by ReplaceSegments.
func (s *Store) SaveShift(ctx context.Context, sh *engine.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shifts (id, guide_id, start_at, end_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			guide_id = excluded.guide_id,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			updated_at = excluded.updated_at
	`,
		string(sh.ID), string(sh.GuideID),
		formatTime(sh.Start), formatTime(sh.End),
		now, now,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM break_periods WHERE shift_id = ?", string(sh.ID)); err != nil {
		return err
	}
	for i, b := range sh.Breaks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO break_periods (shift_id, position, start_at, end_at)
			VALUES (?, ?, ?, ?)
		`, string(sh.ID), i, formatTime(b.Start), formatTime(b.End)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetShift retrieves a shift with its break periods.
// Returns engine.ErrShiftNotFound when absent.
func (s *Store) GetShift(ctx context.Context, id engine.ShiftID) (*engine.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sh engine.Shift
	var guideID, startAt, endAt string
	var basePay, penaltyPay, overtimePay, totalPay, totalHours string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, guide_id, start_at, end_at,
		       base_pay, penalty_pay, overtime_pay, total_pay, total_hours
		FROM shifts WHERE id = ?
	`, string(id)).Scan(
		&sh.ID, &guideID, &startAt, &endAt,
		&basePay, &penaltyPay, &overtimePay, &totalPay, &totalHours,
	)
	if err == sql.ErrNoRows {
		return nil, engine.ErrShiftNotFound
	}
	if err != nil {
		return nil, err
	}

	sh.GuideID = engine.GuideID(guideID)
	sh.Start = parseTime(startAt)
	sh.End = parseTime(endAt)
	sh.BasePay = parseDec(basePay)
	sh.PenaltyPay = parseDec(penaltyPay)
	sh.OvertimePay = parseDec(overtimePay)
	sh.TotalPay = parseDec(totalPay)
	sh.TotalHours = parseDec(totalHours)

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_at, end_at FROM break_periods
		WHERE shift_id = ? ORDER BY position
	`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bs, be string
		if err := rows.Scan(&bs, &be); err != nil {
			return nil, err
		}
		sh.Breaks = append(sh.Breaks, engine.BreakPeriod{Start: parseTime(bs), End: parseTime(be)})
	}
	return &sh, rows.Err()
}

// ShiftsInRange returns shifts whose start falls in [from, to), ordered by
// start. Break periods are not loaded.
func (s *Store) ShiftsInRange(ctx context.Context, from, to time.Time) ([]engine.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guide_id, start_at, end_at,
		       base_pay, penalty_pay, overtime_pay, total_pay, total_hours
		FROM shifts
		WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at ASC
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []engine.Shift
	for rows.Next() {
		var sh engine.Shift
		var guideID, startAt, endAt string
		var basePay, penaltyPay, overtimePay, totalPay, totalHours string
		if err := rows.Scan(
			&sh.ID, &guideID, &startAt, &endAt,
			&basePay, &penaltyPay, &overtimePay, &totalPay, &totalHours,
		); err != nil {
			return nil, err
		}
		sh.GuideID = engine.GuideID(guideID)
		sh.Start = parseTime(startAt)
		sh.End = parseTime(endAt)
		sh.BasePay = parseDec(basePay)
		sh.PenaltyPay = parseDec(penaltyPay)
		sh.OvertimePay = parseDec(overtimePay)
		sh.TotalPay = parseDec(totalPay)
		sh.TotalHours = parseDec(totalHours)
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// ReplaceSegments atomically swaps a shift's segment rows and aggregate
// columns. A concurrently deleted shift yields ParentGone with nothing
// written.
func (s *Store) ReplaceSegments(ctx context.Context, id engine.ShiftID, segments []engine.Segment, totals engine.ShiftTotals) (engine.ReplaceOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.ParentGone, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM shifts WHERE id = ?", string(id),
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return engine.ParentGone, nil
	}
	if err != nil {
		return engine.ParentGone, err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM shift_segments WHERE shift_id = ?", string(id)); err != nil {
		return engine.ParentGone, err
	}

	for i, seg := range segments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shift_segments
			(shift_id, position, kind, frame_id, label, multiplier,
			 start_at, end_at, seconds, hours, pay)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			string(id), i, string(seg.Kind), seg.FrameID, seg.Label,
			seg.Multiplier.String(),
			formatTime(seg.Start), formatTime(seg.End),
			seg.Seconds, seg.Hours.String(), seg.Pay.String(),
		)
		if err != nil {
			return engine.ParentGone, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shifts SET
			base_pay = ?, penalty_pay = ?, overtime_pay = ?,
			total_pay = ?, total_hours = ?, updated_at = ?
		WHERE id = ?
	`,
		totals.BasePay.String(), totals.PenaltyPay.String(),
		totals.OvertimePay.String(), totals.TotalPay.String(),
		totals.TotalHours.String(),
		time.Now().UTC().Format(time.RFC3339),
		string(id),
	)
	if err != nil {
		return engine.ParentGone, err
	}

	if err := tx.Commit(); err != nil {
		return engine.ParentGone, err
	}
	return engine.Replaced, nil
}

// Segments returns a shift's stored segments in calculation order.
func (s *Store) Segments(ctx context.Context, id engine.ShiftID) ([]engine.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, frame_id, label, multiplier, start_at, end_at, seconds, hours, pay
		FROM shift_segments
		WHERE shift_id = ? ORDER BY position
	`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []engine.Segment
	for rows.Next() {
		var seg engine.Segment
		var kind, startAt, endAt, multiplier, hours, pay string
		var frameID sql.NullString
		if err := rows.Scan(&kind, &frameID, &seg.Label, &multiplier,
			&startAt, &endAt, &seg.Seconds, &hours, &pay); err != nil {
			return nil, err
		}
		seg.Kind = engine.SegmentKind(kind)
		seg.FrameID = frameID.String
		seg.Multiplier = parseDec(multiplier)
		seg.Start = parseTime(startAt)
		seg.End = parseTime(endAt)
		seg.Hours = parseDec(hours)
		seg.Pay = parseDec(pay)
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// DeleteShift removes a shift with its breaks and segments.
func (s *Store) DeleteShift(ctx context.Context, id engine.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM shift_segments WHERE shift_id = ?",
		"DELETE FROM break_periods WHERE shift_id = ?",
		"DELETE FROM shifts WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, string(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// PERIOD STORE (period.Store interface)
// =============================================================================

// SavePeriod upserts a period's status, totals and tax year, and rewrites
// its extras.
func (s *Store) SavePeriod(ctx context.Context, p *period.PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO pay_periods
		(id, start_at, end_at, period_type, status, tax_year,
		 gross, income_tax, medicare, study_loan, withheld, net, tax_source,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			period_type = excluded.period_type,
			status = excluded.status,
			tax_year = excluded.tax_year,
			gross = excluded.gross,
			income_tax = excluded.income_tax,
			medicare = excluded.medicare,
			study_loan = excluded.study_loan,
			withheld = excluded.withheld,
			net = excluded.net,
			tax_source = excluded.tax_source,
			updated_at = excluded.updated_at
	`,
		string(p.ID),
		formatTime(p.Start), formatTime(p.End),
		string(p.Type), string(p.Status), string(p.TaxYear),
		p.Totals.Gross.String(), p.Totals.IncomeTax.String(),
		p.Totals.Medicare.String(), p.Totals.StudyLoan.String(),
		p.Totals.Withheld.String(), p.Totals.Net.String(),
		string(p.Totals.Source),
		now, now,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM period_extras WHERE period_id = ?", string(p.ID)); err != nil {
		return err
	}
	for _, e := range p.Extras {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO period_extras (id, period_id, name, amount, taxable)
			VALUES (?, ?, ?, ?, ?)
		`, e.ID, string(p.ID), e.Name, e.Amount.String(), e.Taxable); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPeriod retrieves a period with its extras.
// Returns period.ErrPeriodNotFound when absent.
func (s *Store) GetPeriod(ctx context.Context, id period.ID) (*period.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPeriod(ctx, id)
}

// getPeriod is the lock-free query path shared by GetPeriod and ListPeriods.
func (s *Store) getPeriod(ctx context.Context, id period.ID) (*period.PayPeriod, error) {
	var p period.PayPeriod
	var startAt, endAt, ptype, status, taxYear, taxSource string
	var gross, incomeTax, medicare, studyLoan, withheld, net string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_at, end_at, period_type, status, tax_year,
		       gross, income_tax, medicare, study_loan, withheld, net, tax_source
		FROM pay_periods WHERE id = ?
	`, string(id)).Scan(
		&p.ID, &startAt, &endAt, &ptype, &status, &taxYear,
		&gross, &incomeTax, &medicare, &studyLoan, &withheld, &net, &taxSource,
	)
	if err == sql.ErrNoRows {
		return nil, period.ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Start = parseTime(startAt)
	p.End = parseTime(endAt)
	p.Type = period.Type(ptype)
	p.Status = period.Status(status)
	p.TaxYear = tax.Year(taxYear)
	p.Totals = period.Totals{
		Gross:     parseDec(gross),
		IncomeTax: parseDec(incomeTax),
		Medicare:  parseDec(medicare),
		StudyLoan: parseDec(studyLoan),
		Withheld:  parseDec(withheld),
		Net:       parseDec(net),
		Source:    tax.Source(taxSource),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, taxable FROM period_extras
		WHERE period_id = ? ORDER BY rowid
	`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e period.Extra
		var amount string
		if err := rows.Scan(&e.ID, &e.Name, &amount, &e.Taxable); err != nil {
			return nil, err
		}
		e.Amount = parseDec(amount)
		p.Extras = append(p.Extras, e)
	}
	return &p, rows.Err()
}

// ListPeriods returns all periods ordered by start date descending.
func (s *Store) ListPeriods(ctx context.Context) ([]period.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM pay_periods ORDER BY start_at DESC",
	)
	if err != nil {
		return nil, err
	}
	var ids []period.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, period.ID(id))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Re-load each to pick up extras; period counts are small (one per
	// week at most) so the N+1 here is not a concern.
	periods := make([]period.PayPeriod, 0, len(ids))
	for _, id := range ids {
		p, err := s.getPeriod(ctx, id)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, nil
}

// =============================================================================
// TAX TABLE SOURCE (tax.TableSource interface)
// =============================================================================

// LoadTables returns the full table set for a year from the database.
// Returns tax.ErrYearNotFound when the year has no coefficient rows.
func (s *Store) LoadTables(ctx context.Context, year tax.Year) (*tax.TableSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ts := &tax.TableSet{Year: year}

	rows, err := s.db.QueryContext(ctx, `
		SELECT scale, earnings_from, earnings_to, a, b
		FROM tax_coefficients
		WHERE year = ?
		ORDER BY scale, CAST(earnings_from AS REAL)
	`, string(year))
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var scale, from, to, a, b string
		if err := rows.Scan(&scale, &from, &to, &a, &b); err != nil {
			rows.Close()
			return nil, err
		}
		ts.Coefficients = append(ts.Coefficients, tax.Coefficient{
			Year:  year,
			Scale: tax.Scale(scale),
			From:  parseDec(from),
			To:    parseDec(to),
			A:     parseDec(a),
			B:     parseDec(b),
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ts.Coefficients) == 0 {
		return nil, fmt.Errorf("%w: %s", tax.ErrYearNotFound, year)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT earnings_from, earnings_to, rate
		FROM stsl_rates
		WHERE year = ?
		ORDER BY CAST(earnings_from AS REAL)
	`, string(year))
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var from, to, rate string
		if err := rows.Scan(&from, &to, &rate); err != nil {
			rows.Close()
			return nil, err
		}
		ts.Stsl = append(ts.Stsl, tax.StslRate{
			Year: year,
			From: parseDec(from),
			To:   parseDec(to),
			Rate: parseDec(rate),
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var mrate, mlow, mhigh string
	err = s.db.QueryRowContext(ctx, `
		SELECT medicare_rate, medicare_low_threshold, medicare_high_threshold
		FROM tax_rate_configs WHERE year = ?
	`, string(year)).Scan(&mrate, &mlow, &mhigh)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		ts.Config = tax.RateConfig{
			Year:                  year,
			MedicareRate:          parseDec(mrate),
			MedicareLowThreshold:  parseDec(mlow),
			MedicareHighThreshold: parseDec(mhigh),
		}
	}

	return ts, nil
}

// SaveTables replaces all of a year's tax rows with the given set
// (administrative seeding/import path).
func (s *Store) SaveTables(ctx context.Context, ts *tax.TableSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	year := string(ts.Year)
	for _, q := range []string{
		"DELETE FROM tax_coefficients WHERE year = ?",
		"DELETE FROM stsl_rates WHERE year = ?",
		"DELETE FROM tax_rate_configs WHERE year = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, year); err != nil {
			return err
		}
	}

	for _, c := range ts.Coefficients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tax_coefficients (year, scale, earnings_from, earnings_to, a, b)
			VALUES (?, ?, ?, ?, ?, ?)
		`, year, string(c.Scale), c.From.String(), decToCol(c.To), c.A.String(), c.B.String()); err != nil {
			return err
		}
	}
	for _, r := range ts.Stsl {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stsl_rates (year, earnings_from, earnings_to, rate)
			VALUES (?, ?, ?, ?)
		`, year, r.From.String(), decToCol(r.To), r.Rate.String()); err != nil {
			return err
		}
	}
	if !ts.Config.MedicareRate.IsZero() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tax_rate_configs
			(year, medicare_rate, medicare_low_threshold, medicare_high_threshold)
			VALUES (?, ?, ?, ?)
		`, year, ts.Config.MedicareRate.String(),
			ts.Config.MedicareLowThreshold.String(),
			ts.Config.MedicareHighThreshold.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// decToCol renders an unbounded (zero) upper bracket limit as the empty
// string the schema uses for it.
func decToCol(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

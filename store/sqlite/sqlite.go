/*
Package sqlite provides a SQLite-backed implementation of state.Store.

PURPOSE:
  Persists the household document as a relational mirror of the YAML
  shape: bills, price history entries, share rules, payees, and pay
  schedules, plus a single-row options table. Save replaces the whole
  document in one transaction; Load reconstructs and validates it.

DOCUMENT SEMANTICS:
  The document is small and cross-referential, so there are no
  per-record update paths: the unit of persistence is the document. A
  failed Save rolls back and leaves the previous document intact.

ORDERING:
  Listed order is meaningful (price-history entries sharing an effective
  date resolve to the later-listed one), so every child table carries a
  position column and loads ordered by it.

AMOUNTS AND DATES:
  Stored as TEXT: decimal strings for money and percentages (never
  floats), 2006-01-02 for dates.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not
  block the writer.

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - state/state.go: the Store interface and document type
  - state/file.go: the YAML file implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/schedule"
	"github.com/warp/cashflow-engine/state"
)

// Store implements state.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) a SQLite store at the given path. Use
// ":memory:" for an in-memory database.
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
	-- Household-wide schedule options (single row)
	CREATE TABLE IF NOT EXISTS schedule_options (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		cutoff_day INTEGER NOT NULL,
		weekend_adjustment TEXT NOT NULL,
		default_projection_months INTEGER NOT NULL
	);

	-- Bills; position preserves listed order
	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL,
		share_mode TEXT NOT NULL
	);

	-- Share rules: exclusions and fixed percentages per bill
	CREATE TABLE IF NOT EXISTS bill_shares (
		id TEXT PRIMARY KEY,
		bill_id TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		payee_name TEXT NOT NULL,
		percentage TEXT,
		excluded BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_bill_shares_bill
		ON bill_shares(bill_id);

	-- Price history; listed order matters on equal effective dates
	CREATE TABLE IF NOT EXISTS price_history (
		id TEXT PRIMARY KEY,
		bill_id TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		amount TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		kind TEXT NOT NULL,
		interval TEXT NOT NULL,
		every INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_price_history_bill
		ON price_history(bill_id, position);

	-- Payees
	CREATE TABLE IF NOT EXISTS payees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		position INTEGER NOT NULL,
		default_share_percentage TEXT,
		start_date TEXT
	);

	-- Income streams per payee
	CREATE TABLE IF NOT EXISTS pay_schedules (
		id TEXT PRIMARY KEY,
		payee_id TEXT NOT NULL REFERENCES payees(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		weekend_adjustment TEXT NOT NULL,
		contribution_percentage TEXT,
		kind TEXT NOT NULL,
		interval TEXT NOT NULL,
		every INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pay_schedules_payee
		ON pay_schedules(payee_id, position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE - Whole-document replacement in one transaction
// =============================================================================

func (s *Store) Save(ctx context.Context, doc *state.StateFile) error {
	if _, err := doc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bill_shares", "price_history", "bills", "pay_schedules", "payees", "schedule_options"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedule_options (id, cutoff_day, weekend_adjustment, default_projection_months)
		VALUES (1, ?, ?, ?)`,
		doc.Options.CutoffDay,
		string(doc.Options.WeekendAdjustment),
		doc.Options.DefaultProjectionMonths,
	)
	if err != nil {
		return fmt.Errorf("failed to save options: %w", err)
	}

	for pos, b := range doc.Bills {
		if err := insertBill(ctx, tx, pos, b); err != nil {
			return err
		}
	}
	for pos, p := range doc.Payees {
		if err := insertPayee(ctx, tx, pos, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertBill(ctx context.Context, tx *sql.Tx, pos int, b schedule.Bill) error {
	billID := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		"INSERT INTO bills (id, name, position, share_mode) VALUES (?, ?, ?, ?)",
		billID, b.Name, pos, string(b.Share.Mode),
	)
	if err != nil {
		return fmt.Errorf("failed to save bill %s: %w", b.Name, err)
	}

	for _, name := range b.Share.Exclude {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bill_shares (id, bill_id, payee_name, excluded) VALUES (?, ?, ?, TRUE)",
			uuid.NewString(), billID, name,
		)
		if err != nil {
			return fmt.Errorf("failed to save share for bill %s: %w", b.Name, err)
		}
	}
	for name, pct := range b.Share.Percentages {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bill_shares (id, bill_id, payee_name, percentage) VALUES (?, ?, ?, ?)",
			uuid.NewString(), billID, name, pct.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save share for bill %s: %w", b.Name, err)
		}
	}

	for i, e := range b.PriceHistory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO price_history
			(id, bill_id, position, amount, effective_date, kind, interval, every, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), billID, i,
			e.Amount.String(),
			e.EffectiveDate.String(),
			string(e.Recurrence.Kind),
			string(e.Recurrence.Interval),
			e.Recurrence.Every,
			e.Recurrence.Start.String(),
			nullDate(e.Recurrence.End),
		)
		if err != nil {
			return fmt.Errorf("failed to save price history for bill %s: %w", b.Name, err)
		}
	}
	return nil
}

func insertPayee(ctx context.Context, tx *sql.Tx, pos int, p schedule.Payee) error {
	payeeID := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		"INSERT INTO payees (id, name, position, default_share_percentage, start_date) VALUES (?, ?, ?, ?, ?)",
		payeeID, p.Name, pos, nullDecimal(p.DefaultSharePercentage), nullDate(p.StartDate),
	)
	if err != nil {
		return fmt.Errorf("failed to save payee %s: %w", p.Name, err)
	}

	for i, ps := range p.PaySchedules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pay_schedules
			(id, payee_id, position, description, amount, weekend_adjustment,
			 contribution_percentage, kind, interval, every, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), payeeID, i,
			ps.Description,
			ps.Amount.String(),
			string(ps.WeekendAdjustment),
			nullDecimal(ps.ContributionPercentage),
			string(ps.Recurrence.Kind),
			string(ps.Recurrence.Interval),
			ps.Recurrence.Every,
			ps.Recurrence.Start.String(),
			nullDate(ps.Recurrence.End),
		)
		if err != nil {
			return fmt.Errorf("failed to save pay schedule for payee %s: %w", p.Name, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD - Document reconstruction
// =============================================================================

func (s *Store) Load(ctx context.Context) (*state.StateFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := state.Default()

	var (
		cutoff, months int
		adjustment     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT cutoff_day, weekend_adjustment, default_projection_months
		FROM schedule_options WHERE id = 1`).Scan(&cutoff, &adjustment, &months)
	switch {
	case err == sql.ErrNoRows:
		// Empty database: default household.
		return doc, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load options: %w", err)
	}
	doc.Options = schedule.ScheduleOptions{
		CutoffDay:               cutoff,
		WeekendAdjustment:       schedule.WeekendAdjustment(adjustment),
		DefaultProjectionMonths: months,
	}

	if doc.Bills, err = s.loadBills(ctx); err != nil {
		return nil, err
	}
	if doc.Payees, err = s.loadPayees(ctx); err != nil {
		return nil, err
	}

	if _, err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) loadBills(ctx context.Context) ([]schedule.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, share_mode FROM bills ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	type billRow struct {
		id   string
		name string
		mode string
	}
	var billRows []billRow
	for rows.Next() {
		var r billRow
		if err := rows.Scan(&r.id, &r.name, &r.mode); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		billRows = append(billRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var bills []schedule.Bill
	for _, r := range billRows {
		share, err := s.loadShare(ctx, r.id, schedule.ShareMode(r.mode))
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", r.name, err)
		}
		history, err := s.loadPriceHistory(ctx, r.id)
		if err != nil {
			return nil, fmt.Errorf("bill %s: %w", r.name, err)
		}
		bills = append(bills, schedule.NewBill(r.name, history, share))
	}
	return bills, nil
}

func (s *Store) loadShare(ctx context.Context, billID string, mode schedule.ShareMode) (schedule.ShareConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payee_name, percentage, excluded FROM bill_shares WHERE bill_id = ? ORDER BY payee_name ASC",
		billID)
	if err != nil {
		return schedule.ShareConfig{}, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	share := schedule.ShareConfig{Mode: mode}
	for rows.Next() {
		var (
			name     string
			pct      sql.NullString
			excluded bool
		)
		if err := rows.Scan(&name, &pct, &excluded); err != nil {
			return schedule.ShareConfig{}, fmt.Errorf("failed to scan share: %w", err)
		}
		if excluded {
			share.Exclude = append(share.Exclude, name)
			continue
		}
		if !pct.Valid {
			continue
		}
		d, err := decimal.NewFromString(pct.String)
		if err != nil {
			return schedule.ShareConfig{}, fmt.Errorf("bad percentage for %s: %w", name, err)
		}
		if share.Percentages == nil {
			share.Percentages = make(map[string]decimal.Decimal)
		}
		share.Percentages[name] = d
	}
	return share, rows.Err()
}

func (s *Store) loadPriceHistory(ctx context.Context, billID string) ([]schedule.PriceHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount, effective_date, kind, interval, every, start_date, end_date
		FROM price_history WHERE bill_id = ? ORDER BY position ASC`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var history []schedule.PriceHistoryEntry
	for rows.Next() {
		var (
			amountStr, effectiveStr string
			entry                   schedule.PriceHistoryEntry
		)
		var recScan recurrenceScan
		if err := rows.Scan(&amountStr, &effectiveStr,
			&recScan.kind, &recScan.interval, &recScan.every, &recScan.start, &recScan.end); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", amountStr, err)
		}
		if entry.EffectiveDate, err = schedule.ParseDate(effectiveStr); err != nil {
			return nil, fmt.Errorf("bad effective date %q: %w", effectiveStr, err)
		}
		if entry.Recurrence, err = recScan.toRecurrence(); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (s *Store) loadPayees(ctx context.Context) ([]schedule.Payee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, default_share_percentage, start_date
		FROM payees ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payees: %w", err)
	}
	defer rows.Close()

	type payeeRow struct {
		id      string
		name    string
		pct     sql.NullString
		startAt sql.NullString
	}
	var payeeRows []payeeRow
	for rows.Next() {
		var r payeeRow
		if err := rows.Scan(&r.id, &r.name, &r.pct, &r.startAt); err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}
		payeeRows = append(payeeRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var payees []schedule.Payee
	for _, r := range payeeRows {
		p := schedule.Payee{Name: r.name}
		if r.pct.Valid {
			d, err := decimal.NewFromString(r.pct.String)
			if err != nil {
				return nil, fmt.Errorf("payee %s: bad percentage: %w", r.name, err)
			}
			p.DefaultSharePercentage = &d
		}
		if r.startAt.Valid {
			d, err := schedule.ParseDate(r.startAt.String)
			if err != nil {
				return nil, fmt.Errorf("payee %s: bad start date: %w", r.name, err)
			}
			p.StartDate = &d
		}
		if p.PaySchedules, err = s.loadPaySchedules(ctx, r.id, r.name); err != nil {
			return nil, err
		}
		payees = append(payees, p)
	}
	return payees, nil
}

func (s *Store) loadPaySchedules(ctx context.Context, payeeID, payeeName string) ([]schedule.PaySchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, amount, weekend_adjustment, contribution_percentage,
		       kind, interval, every, start_date, end_date
		FROM pay_schedules WHERE payee_id = ? ORDER BY position ASC`, payeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay schedules: %w", err)
	}
	defer rows.Close()

	var schedules []schedule.PaySchedule
	for rows.Next() {
		var (
			ps         schedule.PaySchedule
			amountStr  string
			adjustment string
			pct        sql.NullString
			recScan    recurrenceScan
		)
		if err := rows.Scan(&ps.Description, &amountStr, &adjustment, &pct,
			&recScan.kind, &recScan.interval, &recScan.every, &recScan.start, &recScan.end); err != nil {
			return nil, fmt.Errorf("failed to scan pay schedule: %w", err)
		}
		if ps.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("payee %s: bad amount %q: %w", payeeName, amountStr, err)
		}
		ps.WeekendAdjustment = schedule.WeekendAdjustment(adjustment)
		if pct.Valid {
			d, err := decimal.NewFromString(pct.String)
			if err != nil {
				return nil, fmt.Errorf("payee %s: bad contribution percentage: %w", payeeName, err)
			}
			ps.ContributionPercentage = &d
		}
		if ps.Recurrence, err = recScan.toRecurrence(); err != nil {
			return nil, fmt.Errorf("payee %s: %w", payeeName, err)
		}
		schedules = append(schedules, ps)
	}
	return schedules, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type recurrenceScan struct {
	kind     string
	interval string
	every    int
	start    string
	end      sql.NullString
}

func (rs recurrenceScan) toRecurrence() (schedule.Recurrence, error) {
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceKind(rs.kind),
		Interval: schedule.Interval(rs.interval),
		Every:    rs.every,
	}
	start, err := schedule.ParseDate(rs.start)
	if err != nil {
		return r, fmt.Errorf("bad recurrence start %q: %w", rs.start, err)
	}
	r.Start = start
	if rs.end.Valid {
		end, err := schedule.ParseDate(rs.end.String)
		if err != nil {
			return r, fmt.Errorf("bad recurrence end %q: %w", rs.end.String, err)
		}
		r.End = &end
	}
	return r, nil
}

func nullDate(d *schedule.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

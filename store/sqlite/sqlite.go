/*
Package sqlite provides a SQLite-backed implementation of groups.Store.

PURPOSE:
  Implements the persistence interface using SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  groups:          Group records (single currency each)
  members:         Member records, FK to groups
  expenses:        Expense records with the split stored as JSON
  settlement_runs: One row per settle computation
  settlements:     Recommended payments, seq preserves transfer order

AMOUNT COLUMNS:
  Amounts are stored as INTEGER minor units (cents), matching the
  engine's representation exactly. No floats anywhere near money.

MUTATION RULES:
  Expenses support DELETE (that is how a wrong entry is corrected).
  Settlements have exactly one UPDATE: pending -> paid. Everything else
  is insert-only.

CONCURRENCY:
  Uses sync.RWMutex plus a single pooled connection. SQLite is opened
  with WAL (Write-Ahead Logging): readers don't block, single writer,
  better crash recovery. The single connection also makes ":memory:"
  databases behave across the pool.

USAGE:
  store, err := sqlite.New("./data/expenses.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := groups.NewGroupLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - groups/store.go: Interface definition
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/factory"
	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// Store implements groups.Store and groups.TxStore using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	splits *factory.SplitFactory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: serialized writes, and ":memory:" stays one database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, splits: factory.NewSplitFactory()}
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

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id),
		name TEXT NOT NULL,
		joined_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_group
		ON members(group_id);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id),
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		payer_id TEXT NOT NULL,
		split_json TEXT NOT NULL,
		spent_at TEXT NOT NULL
	);

	-- Balance computation loads a whole group at once (hot path)
	CREATE INDEX IF NOT EXISTS idx_expenses_group_date
		ON expenses(group_id, spent_at);
	CREATE INDEX IF NOT EXISTS idx_expenses_category
		ON expenses(group_id, category);

	CREATE TABLE IF NOT EXISTS settlement_runs (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id),
		run_at TEXT NOT NULL,
		expense_count INTEGER NOT NULL,
		paid_count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_group_date
		ON settlement_runs(group_id, run_at DESC);

	CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES settlement_runs(id),
		group_id TEXT NOT NULL,
		from_member TEXT NOT NULL,
		to_member TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		seq INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_settlements_run_seq
		ON settlements(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_settlements_group_status
		ON settlements(group_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query helper
// works inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// GROUPS AND MEMBERS (groups.Store interface)
// =============================================================================

func (s *Store) CreateGroup(ctx context.Context, g groups.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGroup(ctx, s.db, g)
}

func (s *Store) createGroup(ctx context.Context, db dbtx, g groups.Group) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, created_at) VALUES (?, ?, ?, ?)",
		g.ID, g.Name, g.Currency, g.CreatedAt.UTC().Format(time.RFC3339),
	)
	return mapWriteError(err, "failed to insert group")
}

func (s *Store) GetGroup(ctx context.Context, id engine.GroupID) (groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGroup(ctx, s.db, id)
}

func (s *Store) getGroup(ctx context.Context, db dbtx, id engine.GroupID) (groups.Group, error) {
	var g groups.Group
	var currency, createdAt string

	err := db.QueryRowContext(ctx,
		"SELECT id, name, currency, created_at FROM groups WHERE id = ?", id,
	).Scan(&g.ID, &g.Name, &currency, &createdAt)

	if err == sql.ErrNoRows {
		return groups.Group{}, groups.ErrGroupNotFound
	}
	if err != nil {
		return groups.Group{}, fmt.Errorf("failed to query group: %w", err)
	}

	g.Currency = engine.Currency(currency)
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listGroups(ctx, s.db)
}

func (s *Store) listGroups(ctx context.Context, db dbtx) ([]groups.Group, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, currency, created_at FROM groups ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var out []groups.Group
	for rows.Next() {
		var g groups.Group
		var currency, createdAt string
		if err := rows.Scan(&g.ID, &g.Name, &currency, &createdAt); err != nil {
			return nil, err
		}
		g.Currency = engine.Currency(currency)
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) AddMember(ctx context.Context, m groups.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMember(ctx, s.db, m)
}

func (s *Store) addMember(ctx context.Context, db dbtx, m groups.Member) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO members (id, group_id, name, joined_at) VALUES (?, ?, ?, ?)",
		m.ID, m.GroupID, m.Name, m.JoinedAt.UTC().Format(time.RFC3339),
	)
	return mapWriteError(err, "failed to insert member")
}

func (s *Store) ListMembers(ctx context.Context, groupID engine.GroupID) ([]groups.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMembers(ctx, s.db, groupID)
}

func (s *Store) listMembers(ctx context.Context, db dbtx, groupID engine.GroupID) ([]groups.Member, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, group_id, name, joined_at FROM members WHERE group_id = ? ORDER BY joined_at ASC, id ASC",
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []groups.Member
	for rows.Next() {
		var m groups.Member
		var joinedAt string
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Name, &joinedAt); err != nil {
			return nil, err
		}
		m.JoinedAt, _ = time.Parse(time.RFC3339, joinedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Store) AddExpense(ctx context.Context, e engine.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addExpense(ctx, s.db, e)
}

func (s *Store) addExpense(ctx context.Context, db dbtx, e engine.Expense) error {
	split, err := s.splits.MarshalSplit(e.Split)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO expenses
		(id, group_id, description, category, amount_cents, currency, payer_id, split_json, spent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Description, e.Category,
		e.Amount.Cents, e.Amount.Currency, e.PayerID, split,
		e.At.UTC().Format(time.RFC3339),
	)
	return mapWriteError(err, "failed to insert expense")
}

func (s *Store) GetExpense(ctx context.Context, id engine.ExpenseID) (engine.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getExpense(ctx, s.db, id)
}

func (s *Store) getExpense(ctx context.Context, db dbtx, id engine.ExpenseID) (engine.Expense, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, group_id, description, category, amount_cents, currency, payer_id, split_json, spent_at
		FROM expenses WHERE id = ?`, id)

	e, err := s.scanExpense(row)
	if err == sql.ErrNoRows {
		return engine.Expense{}, groups.ErrExpenseNotFound
	}
	return e, err
}

func (s *Store) ListExpenses(ctx context.Context, groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listExpenses(ctx, s.db, groupID, f)
}

func (s *Store) listExpenses(ctx context.Context, db dbtx, groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	query := `
		SELECT id, group_id, description, category, amount_cents, currency, payer_id, split_json, spent_at
		FROM expenses WHERE group_id = ?`
	args := []any{groupID}

	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.PayerID != "" {
		query += " AND payer_id = ?"
		args = append(args, f.PayerID)
	}
	if f.From != nil {
		query += " AND spent_at >= ?"
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += " AND spent_at <= ?"
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY spent_at ASC, id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var out []engine.Expense
	for rows.Next() {
		e, err := s.scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanExpense(row scanner) (engine.Expense, error) {
	var e engine.Expense
	var cents int64
	var currency, splitJSON, spentAt string

	err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Category,
		&cents, &currency, &e.PayerID, &splitJSON, &spentAt)
	if err != nil {
		return engine.Expense{}, err
	}

	e.Amount = engine.NewAmount(cents, engine.Currency(currency))
	e.At, _ = time.Parse(time.RFC3339, spentAt)

	e.Split, err = s.splits.UnmarshalSplit(splitJSON, e.Amount.Currency)
	if err != nil {
		return engine.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id engine.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteExpense(ctx, s.db, id)
}

func (s *Store) deleteExpense(ctx context.Context, db dbtx, id engine.ExpenseID) error {
	res, err := db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return groups.ErrExpenseNotFound
	}
	return nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

// SaveRun writes the run and its records in one database transaction.
func (s *Store) SaveRun(ctx context.Context, run groups.SettlementRun, records []groups.SettlementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.saveRun(ctx, sqlTx, run, records); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) saveRun(ctx context.Context, db dbtx, run groups.SettlementRun, records []groups.SettlementRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settlement_runs (id, group_id, run_at, expense_count, paid_count)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.GroupID, run.At.UTC().Format(time.RFC3339),
		run.ExpenseCount, run.PaidCount,
	)
	if err != nil {
		return mapWriteError(err, "failed to insert settlement run")
	}

	for i, r := range records {
		_, err := db.ExecContext(ctx, `
			INSERT INTO settlements
			(id, run_id, group_id, from_member, to_member, amount_cents, currency, seq, status, paid_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			r.ID, r.RunID, r.GroupID, r.From, r.To,
			r.Amount.Cents, r.Amount.Currency, i, r.Status,
		)
		if err != nil {
			return mapWriteError(err, "failed to insert settlement")
		}
	}
	return nil
}

func (s *Store) LatestRun(ctx context.Context, groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestRun(ctx, s.db, groupID)
}

func (s *Store) latestRun(ctx context.Context, db dbtx, groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	var run groups.SettlementRun
	var runAt string

	// run_at is RFC3339 with second precision; rowid resolves same-second
	// ties toward the newest insert.
	err := db.QueryRowContext(ctx, `
		SELECT id, group_id, run_at, expense_count, paid_count
		FROM settlement_runs WHERE group_id = ?
		ORDER BY run_at DESC, rowid DESC LIMIT 1`, groupID,
	).Scan(&run.ID, &run.GroupID, &runAt, &run.ExpenseCount, &run.PaidCount)

	if err == sql.ErrNoRows {
		return groups.SettlementRun{}, nil, groups.ErrSettlementNotFound
	}
	if err != nil {
		return groups.SettlementRun{}, nil, fmt.Errorf("failed to query settlement run: %w", err)
	}
	run.At, _ = time.Parse(time.RFC3339, runAt)

	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, group_id, from_member, to_member, amount_cents, currency, status, paid_at
		FROM settlements WHERE run_id = ? ORDER BY seq ASC`, run.ID)
	if err != nil {
		return groups.SettlementRun{}, nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var records []groups.SettlementRecord
	for rows.Next() {
		r, err := scanSettlement(rows)
		if err != nil {
			return groups.SettlementRun{}, nil, err
		}
		records = append(records, r)
	}
	return run, records, rows.Err()
}

func (s *Store) ListRuns(ctx context.Context, groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRuns(ctx, s.db, groupID)
}

// listRuns loads the whole history in two queries: runs newest first,
// then every settlement row for the group bucketed by run.
func (s *Store) listRuns(ctx context.Context, db dbtx, groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, group_id, run_at, expense_count, paid_count
		FROM settlement_runs WHERE group_id = ?
		ORDER BY run_at DESC, rowid DESC`, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query settlement runs: %w", err)
	}

	var runs []groups.SettlementRun
	for rows.Next() {
		var run groups.SettlementRun
		var runAt string
		if err := rows.Scan(&run.ID, &run.GroupID, &runAt, &run.ExpenseCount, &run.PaidCount); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan settlement run: %w", err)
		}
		run.At, _ = time.Parse(time.RFC3339, runAt)
		runs = append(runs, run)
	}
	// Drain before the next query: the pool has one connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	recRows, err := db.QueryContext(ctx, `
		SELECT id, run_id, group_id, from_member, to_member, amount_cents, currency, status, paid_at
		FROM settlements WHERE group_id = ? ORDER BY run_id ASC, seq ASC`, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer recRows.Close()

	byRun := make(map[groups.SettlementRunID][]groups.SettlementRecord, len(runs))
	for recRows.Next() {
		r, err := scanSettlement(recRows)
		if err != nil {
			return nil, nil, err
		}
		byRun[r.RunID] = append(byRun[r.RunID], r)
	}
	return runs, byRun, recRows.Err()
}

func (s *Store) GetSettlement(ctx context.Context, id groups.SettlementID) (groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSettlement(ctx, s.db, id)
}

func (s *Store) getSettlement(ctx context.Context, db dbtx, id groups.SettlementID) (groups.SettlementRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, run_id, group_id, from_member, to_member, amount_cents, currency, status, paid_at
		FROM settlements WHERE id = ?`, id)

	r, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return groups.SettlementRecord{}, groups.ErrSettlementNotFound
	}
	return r, err
}

func (s *Store) ListPaidSettlements(ctx context.Context, groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPaidSettlements(ctx, s.db, groupID)
}

func (s *Store) listPaidSettlements(ctx context.Context, db dbtx, groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, run_id, group_id, from_member, to_member, amount_cents, currency, status, paid_at
		FROM settlements WHERE group_id = ? AND status = 'paid'
		ORDER BY paid_at ASC, id ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid settlements: %w", err)
	}
	defer rows.Close()

	var out []groups.SettlementRecord
	for rows.Next() {
		r, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanSettlement(row scanner) (groups.SettlementRecord, error) {
	var r groups.SettlementRecord
	var cents int64
	var currency, status string
	var paidAt sql.NullString

	err := row.Scan(&r.ID, &r.RunID, &r.GroupID, &r.From, &r.To,
		&cents, &currency, &status, &paidAt)
	if err != nil {
		return groups.SettlementRecord{}, err
	}

	r.Amount = engine.NewAmount(cents, engine.Currency(currency))
	r.Status = groups.SettlementStatus(status)
	if paidAt.Valid {
		t, _ := time.Parse(time.RFC3339, paidAt.String)
		r.PaidAt = &t
	}
	return r, nil
}

func (s *Store) MarkSettlementPaid(ctx context.Context, id groups.SettlementID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markSettlementPaid(ctx, s.db, id, at)
}

func (s *Store) markSettlementPaid(ctx context.Context, db dbtx, id groups.SettlementID, at time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE settlements SET status = 'paid', paid_at = ? WHERE id = ? AND status = 'pending'",
		at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark settlement paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Nothing updated: either missing or already paid.
	if _, err := s.getSettlement(ctx, db, id); err != nil {
		return err
	}
	return groups.ErrSettlementPaid
}

// =============================================================================
// TRANSACTIONAL STORE (groups.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The store's
// write lock is held for the duration, so the transaction sees a quiet
// database.
func (s *Store) WithTx(ctx context.Context, fn func(store groups.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	view := &txView{tx: sqlTx, parent: s}
	if err := fn(view); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView runs every call against the transaction, never the pool, so
// reads inside the transaction see its own writes.
type txView struct {
	tx     *sql.Tx
	parent *Store
}

func (v *txView) CreateGroup(ctx context.Context, g groups.Group) error {
	return v.parent.createGroup(ctx, v.tx, g)
}

func (v *txView) GetGroup(ctx context.Context, id engine.GroupID) (groups.Group, error) {
	return v.parent.getGroup(ctx, v.tx, id)
}

func (v *txView) ListGroups(ctx context.Context) ([]groups.Group, error) {
	return v.parent.listGroups(ctx, v.tx)
}

func (v *txView) AddMember(ctx context.Context, m groups.Member) error {
	return v.parent.addMember(ctx, v.tx, m)
}

func (v *txView) ListMembers(ctx context.Context, groupID engine.GroupID) ([]groups.Member, error) {
	return v.parent.listMembers(ctx, v.tx, groupID)
}

func (v *txView) AddExpense(ctx context.Context, e engine.Expense) error {
	return v.parent.addExpense(ctx, v.tx, e)
}

func (v *txView) GetExpense(ctx context.Context, id engine.ExpenseID) (engine.Expense, error) {
	return v.parent.getExpense(ctx, v.tx, id)
}

func (v *txView) ListExpenses(ctx context.Context, groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	return v.parent.listExpenses(ctx, v.tx, groupID, f)
}

func (v *txView) DeleteExpense(ctx context.Context, id engine.ExpenseID) error {
	return v.parent.deleteExpense(ctx, v.tx, id)
}

func (v *txView) SaveRun(ctx context.Context, run groups.SettlementRun, records []groups.SettlementRecord) error {
	return v.parent.saveRun(ctx, v.tx, run, records)
}

func (v *txView) LatestRun(ctx context.Context, groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	return v.parent.latestRun(ctx, v.tx, groupID)
}

func (v *txView) ListRuns(ctx context.Context, groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	return v.parent.listRuns(ctx, v.tx, groupID)
}

func (v *txView) GetSettlement(ctx context.Context, id groups.SettlementID) (groups.SettlementRecord, error) {
	return v.parent.getSettlement(ctx, v.tx, id)
}

func (v *txView) ListPaidSettlements(ctx context.Context, groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	return v.parent.listPaidSettlements(ctx, v.tx, groupID)
}

func (v *txView) MarkSettlementPaid(ctx context.Context, id groups.SettlementID, at time.Time) error {
	return v.parent.markSettlementPaid(ctx, v.tx, id, at)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo reseeds).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Children before parents; foreign keys are on.
	tables := []string{"settlements", "settlement_runs", "expenses", "members", "groups"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// mapWriteError converts SQLite constraint failures to the interface's
// sentinel errors.
func mapWriteError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return groups.ErrDuplicateID
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return groups.ErrGroupNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Interface checks.
var (
	_ groups.Store   = (*Store)(nil)
	_ groups.TxStore = (*Store)(nil)
	_ groups.Store   = (*txView)(nil)
)

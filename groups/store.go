/*
store.go - Persistence interface for groups, expenses, and settlements

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Group, member, expense, and settlement persistence
  TxStore: Transactional operations (atomic multi-table writes)

MUTATION CONTRACT:
  Groups and members are insert-only. Expenses can additionally be
  deleted, which is how a mistaken entry is corrected; balances are
  always recomputed from what remains, so deletion cannot leave debris.
  Settlement records have exactly one state transition, pending -> paid,
  and paid is terminal.

ATOMIC RUNS:
  SaveRun persists a settlement run and its records together. A run
  with half its records is worse than no run, so implementations must
  write all-or-nothing.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
  - store/sqlite/sqlite.go: Concrete implementation
*/
package groups

import (
	"context"
	"time"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// STORE - Interface for group and expense persistence
// =============================================================================

// Store handles persistence. Implementations must return the package's
// sentinel errors (ErrGroupNotFound, ErrDuplicateID, ...) so callers can
// classify failures without knowing the backend.
type Store interface {
	// CreateGroup persists a group. Returns ErrDuplicateID if the ID exists.
	CreateGroup(ctx context.Context, g Group) error

	// GetGroup returns one group. Returns ErrGroupNotFound.
	GetGroup(ctx context.Context, id engine.GroupID) (Group, error)

	// ListGroups returns all groups, ordered by creation time then ID.
	ListGroups(ctx context.Context) ([]Group, error)

	// AddMember persists a member. Returns ErrGroupNotFound if the group
	// does not exist, ErrDuplicateID if the member ID exists.
	AddMember(ctx context.Context, m Member) error

	// ListMembers returns a group's members, ordered by join time then ID.
	ListMembers(ctx context.Context, groupID engine.GroupID) ([]Member, error)

	// AddExpense persists an expense. Returns ErrGroupNotFound if the group
	// does not exist, ErrDuplicateID if the expense ID exists.
	AddExpense(ctx context.Context, e engine.Expense) error

	// GetExpense returns one expense. Returns ErrExpenseNotFound.
	GetExpense(ctx context.Context, id engine.ExpenseID) (engine.Expense, error)

	// ListExpenses returns a group's expenses matching the filter, ordered
	// by expense time then ID.
	ListExpenses(ctx context.Context, groupID engine.GroupID, f ExpenseFilter) ([]engine.Expense, error)

	// DeleteExpense removes an expense. Returns ErrExpenseNotFound.
	DeleteExpense(ctx context.Context, id engine.ExpenseID) error

	// SaveRun persists a settlement run and its records atomically.
	SaveRun(ctx context.Context, run SettlementRun, records []SettlementRecord) error

	// LatestRun returns the most recent run for a group and its records.
	// Returns ErrSettlementNotFound if the group was never settled.
	LatestRun(ctx context.Context, groupID engine.GroupID) (SettlementRun, []SettlementRecord, error)

	// ListRuns returns every run for a group, newest first, with each
	// run's records keyed by run ID in transfer order. A group never
	// settled yields an empty history.
	ListRuns(ctx context.Context, groupID engine.GroupID) ([]SettlementRun, map[SettlementRunID][]SettlementRecord, error)

	// GetSettlement returns one settlement record. Returns ErrSettlementNotFound.
	GetSettlement(ctx context.Context, id SettlementID) (SettlementRecord, error)

	// ListPaidSettlements returns every paid record for a group, across all
	// runs, ordered by paid time then ID. Paid records permanently offset
	// the group's balances.
	ListPaidSettlements(ctx context.Context, groupID engine.GroupID) ([]SettlementRecord, error)

	// MarkSettlementPaid transitions a record to paid at the given time.
	// Returns ErrSettlementPaid if it already is.
	MarkSettlementPaid(ctx context.Context, id SettlementID, at time.Time) error
}

// ExpenseFilter narrows ListExpenses. Zero-valued fields match everything.
type ExpenseFilter struct {
	Category string
	PayerID  engine.MemberID
	From     *time.Time
	To       *time.Time
}

// Matches reports whether the expense passes the filter. Store
// implementations without native filtering can apply it row by row.
func (f ExpenseFilter) Matches(e engine.Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.PayerID != "" && e.PayerID != f.PayerID {
		return false
	}
	if f.From != nil && e.At.Before(*f.From) {
		return false
	}
	if f.To != nil && e.At.After(*f.To) {
		return false
	}
	return true
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
// Use this when a flow spans multiple writes that must not interleave.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

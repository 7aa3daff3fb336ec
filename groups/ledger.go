/*
ledger.go - Group ledger with membership and currency enforcement

PURPOSE:
  Wraps the settlement engine with group-level business rules and
  persistence. The engine computes who owes whom from an expense list;
  this wrapper owns which expenses belong to which group, who is allowed
  to appear in them, and what has already been paid.

INVARIANTS:
  1. Every payer and participant of a stored expense is a group member.
  2. Every stored expense is in the group's currency. Groups are
     single-currency; there is no FX anywhere in the system.
  3. Paid settlements permanently offset balances. Pending ones do not;
     they are recommendations that the next run may supersede.

WHY A WRAPPER?
  The engine is deliberately storage-blind and group-blind. It validates
  a member set when given one, but it has no idea where members come
  from or that yesterday bob already paid alice back. This wrapper loads
  that context, feeds the engine a consistent snapshot, and records what
  the engine decided.

WHAT IT CHECKS:
  1. AddExpense: group exists, has members, currency matches, and the
     expense passes the engine's own split validation (dry run).
  2. Settle: balances replayed over paid settlements, so settling twice
     without new spending recommends nothing.
  3. MarkPaid: pending -> paid exactly once. Paying twice would
     double-apply the transfer.

ERROR HANDLING:
  Group-level failures return this package's sentinels (ErrGroupNotFound,
  ErrNoMembers, ErrCurrencyMismatch, ...). An expense naming someone who
  is not in the group comes back as *MembershipError: to the engine that
  is just an unknown ID in a split, but at this level it is a lookup
  failure and reads as not-found. All other split failures pass through
  the engine's *InvalidSplitError untouched, so callers get the expense
  ID and violated rule without re-validating.

EXAMPLE:
  ledger := groups.NewGroupLedger(store)

  g, members, _ := ledger.CreateGroup(ctx, "Goa trip", engine.CurrencyINR,
      []string{"Asha", "Bilal", "Chitra"})

  _, err := ledger.AddExpense(ctx, engine.Expense{
      GroupID: g.ID,
      Amount:  engine.MustParseAmount("4500.00", engine.CurrencyINR),
      PayerID: members[0].ID,
      Split:   engine.EqualSplit{Members: groups.MemberIDs(members)},
  })

  run, records, _ := ledger.Settle(ctx, g.ID)

SEE ALSO:
  - engine/engine.go: The arithmetic this wraps
  - store.go: Persistence interface
*/
package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// GROUP LEDGER - Wrapper with group-level invariants
// =============================================================================

// GroupLedger is the main entry point for group operations. It validates
// against group state, delegates arithmetic to the engine, and persists
// outcomes through the Store.
//
// REQUIRES: Store SHOULD implement TxStore so multi-write flows (group
// creation with initial members) are atomic. Without it they degrade to
// sequential writes.
type GroupLedger struct {
	store   Store
	txStore TxStore // nil if store doesn't support transactions
}

// NewGroupLedger creates a group ledger over the given store.
func NewGroupLedger(store Store) *GroupLedger {
	ledger := &GroupLedger{store: store}
	if ts, ok := store.(TxStore); ok {
		ledger.txStore = ts
	}
	return ledger
}

// =============================================================================
// GROUP AND MEMBER OPERATIONS
// =============================================================================

// CreateGroup creates a group with an optional initial member list. The
// group and its members are written atomically when the store supports
// transactions.
func (l *GroupLedger) CreateGroup(ctx context.Context, name string, currency engine.Currency, memberNames []string) (Group, []Member, error) {
	now := time.Now().UTC()
	g := Group{
		ID:        engine.GroupID(uuid.NewString()),
		Name:      name,
		Currency:  currency,
		CreatedAt: now,
	}

	members := make([]Member, len(memberNames))
	for i, n := range memberNames {
		members[i] = Member{
			ID:       engine.MemberID(uuid.NewString()),
			GroupID:  g.ID,
			Name:     n,
			JoinedAt: now,
		}
	}

	write := func(s Store) error {
		if err := s.CreateGroup(ctx, g); err != nil {
			return err
		}
		for _, m := range members {
			if err := s.AddMember(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if l.txStore != nil {
		err = l.txStore.WithTx(ctx, write)
	} else {
		err = write(l.store)
	}
	if err != nil {
		return Group{}, nil, err
	}
	return g, members, nil
}

// AddMember adds one member to an existing group. Joining is always safe:
// the newcomer starts at zero and prior equal splits are untouched, since
// every split freezes its participant list at entry time.
func (l *GroupLedger) AddMember(ctx context.Context, groupID engine.GroupID, name string) (Member, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return Member{}, err
	}
	m := Member{
		ID:       engine.MemberID(uuid.NewString()),
		GroupID:  groupID,
		Name:     name,
		JoinedAt: time.Now().UTC(),
	}
	if err := l.store.AddMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Group returns one group.
func (l *GroupLedger) Group(ctx context.Context, id engine.GroupID) (Group, error) {
	return l.store.GetGroup(ctx, id)
}

// Groups returns all groups.
func (l *GroupLedger) Groups(ctx context.Context) ([]Group, error) {
	return l.store.ListGroups(ctx)
}

// Members returns a group's members.
func (l *GroupLedger) Members(ctx context.Context, groupID engine.GroupID) ([]Member, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListMembers(ctx, groupID)
}

// =============================================================================
// EXPENSE OPERATIONS
// =============================================================================

// AddExpense validates and persists one expense, returning it with ID and
// timestamp stamped. The expense must reference an existing group, carry
// the group's currency, and pass the engine's split validation against the
// group's member set. Naming a payer or participant outside the group
// fails with *MembershipError.
func (l *GroupLedger) AddExpense(ctx context.Context, e engine.Expense) (engine.Expense, error) {
	g, err := l.store.GetGroup(ctx, e.GroupID)
	if err != nil {
		return engine.Expense{}, err
	}
	members, err := l.store.ListMembers(ctx, e.GroupID)
	if err != nil {
		return engine.Expense{}, err
	}
	if len(members) == 0 {
		return engine.Expense{}, fmt.Errorf("add expense to %q: %w", g.Name, ErrNoMembers)
	}

	if e.ID == "" {
		e.ID = engine.ExpenseID(uuid.NewString())
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if e.Amount.Currency != g.Currency {
		return engine.Expense{}, fmt.Errorf("expense in %s, group %q uses %s: %w",
			e.Amount.Currency, g.Name, g.Currency, ErrCurrencyMismatch)
	}

	// Dry run. Rejecting here keeps invalid splits out of the store, so
	// balance computation over stored expenses cannot fail on split rules.
	checker := engine.Ledger{Members: MemberSet(members)}
	if _, err := checker.ComputeContribution(e); err != nil {
		// An unknown ID is a membership problem, not a malformed split:
		// the caller referenced someone this group doesn't have.
		var splitErr *engine.InvalidSplitError
		if errors.As(err, &splitErr) && errors.Is(err, engine.ErrUnknownMember) {
			role := "participant"
			if splitErr.Member == e.PayerID {
				role = "payer"
			}
			return engine.Expense{}, &MembershipError{GroupID: e.GroupID, Member: splitErr.Member, Role: role}
		}
		return engine.Expense{}, err
	}

	if err := l.store.AddExpense(ctx, e); err != nil {
		return engine.Expense{}, err
	}
	return e, nil
}

// Expenses returns a group's expenses matching the filter.
func (l *GroupLedger) Expenses(ctx context.Context, groupID engine.GroupID, f ExpenseFilter) ([]engine.Expense, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return l.store.ListExpenses(ctx, groupID, f)
}

// RemoveExpense deletes one expense. Balances are always recomputed from
// the remaining list, so removal cleanly undoes the expense's effect.
// Settlements already paid stay applied; the money really moved.
func (l *GroupLedger) RemoveExpense(ctx context.Context, id engine.ExpenseID) error {
	return l.store.DeleteExpense(ctx, id)
}

// Contribution returns the signed per-member effect of one stored expense.
func (l *GroupLedger) Contribution(ctx context.Context, id engine.ExpenseID) (engine.Contribution, error) {
	e, err := l.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := l.store.ListMembers(ctx, e.GroupID)
	if err != nil {
		return nil, err
	}
	checker := engine.Ledger{Members: MemberSet(members)}
	return checker.ComputeContribution(e)
}

// =============================================================================
// BALANCES AND SETTLEMENT
// =============================================================================

// groupState is the consistent snapshot settlement math runs over.
type groupState struct {
	group    Group
	members  []Member
	expenses []engine.Expense
	paid     []SettlementRecord
}

func (l *GroupLedger) loadState(ctx context.Context, groupID engine.GroupID) (groupState, error) {
	var st groupState
	var err error

	if st.group, err = l.store.GetGroup(ctx, groupID); err != nil {
		return groupState{}, err
	}
	if st.members, err = l.store.ListMembers(ctx, groupID); err != nil {
		return groupState{}, err
	}
	if st.expenses, err = l.store.ListExpenses(ctx, groupID, ExpenseFilter{}); err != nil {
		return groupState{}, err
	}
	if st.paid, err = l.store.ListPaidSettlements(ctx, groupID); err != nil {
		return groupState{}, err
	}
	return st, nil
}

func (st groupState) balances() (engine.Balance, error) {
	eng := engine.SettlementEngine{
		Members:  MemberSet(st.members),
		Currency: st.group.Currency,
	}
	balance, err := eng.Balances(st.expenses)
	if err != nil {
		return nil, err
	}
	for _, r := range st.paid {
		balance.Apply(r.Transaction())
	}
	return balance, nil
}

// Balances returns every member's net position: expenses folded together,
// then each paid settlement replayed on top. Members with no activity
// appear with an explicit zero.
func (l *GroupLedger) Balances(ctx context.Context, groupID engine.GroupID) (engine.Balance, error) {
	st, err := l.loadState(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return st.balances()
}

// Settle computes the minimal transfer plan for the group's current
// balances and persists it as a new run with pending records. A group
// with nothing outstanding yields a run with zero records.
func (l *GroupLedger) Settle(ctx context.Context, groupID engine.GroupID) (SettlementRun, []SettlementRecord, error) {
	st, err := l.loadState(ctx, groupID)
	if err != nil {
		return SettlementRun{}, nil, err
	}
	balance, err := st.balances()
	if err != nil {
		return SettlementRun{}, nil, err
	}

	txs, err := engine.Simplifier{}.Simplify(balance)
	if err != nil {
		return SettlementRun{}, nil, err
	}

	run := SettlementRun{
		ID:           SettlementRunID(uuid.NewString()),
		GroupID:      groupID,
		At:           time.Now().UTC(),
		ExpenseCount: len(st.expenses),
		PaidCount:    len(st.paid),
	}
	records := make([]SettlementRecord, len(txs))
	for i, tx := range txs {
		records[i] = SettlementRecord{
			ID:      SettlementID(uuid.NewString()),
			RunID:   run.ID,
			GroupID: groupID,
			From:    tx.From,
			To:      tx.To,
			Amount:  tx.Amount,
			Status:  SettlementPending,
		}
	}

	if err := l.store.SaveRun(ctx, run, records); err != nil {
		return SettlementRun{}, nil, err
	}
	return run, records, nil
}

// LatestRun returns the most recent settlement run and its records.
func (l *GroupLedger) LatestRun(ctx context.Context, groupID engine.GroupID) (SettlementRun, []SettlementRecord, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return SettlementRun{}, nil, err
	}
	return l.store.LatestRun(ctx, groupID)
}

// Runs returns the group's full settlement history, newest first, with
// each run's records keyed by run ID. A group that was never settled
// gets an empty history, not an error.
func (l *GroupLedger) Runs(ctx context.Context, groupID engine.GroupID) ([]SettlementRun, map[SettlementRunID][]SettlementRecord, error) {
	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return nil, nil, err
	}
	return l.store.ListRuns(ctx, groupID)
}

// MarkPaid records that a settlement payment happened. From then on the
// transfer offsets the group's balances; paying everything a run
// recommends drives every balance to zero. Paid is terminal.
func (l *GroupLedger) MarkPaid(ctx context.Context, id SettlementID) (SettlementRecord, error) {
	rec, err := l.store.GetSettlement(ctx, id)
	if err != nil {
		return SettlementRecord{}, err
	}
	if rec.Status == SettlementPaid {
		return SettlementRecord{}, fmt.Errorf("settlement %s: %w", id, ErrSettlementPaid)
	}
	if err := l.store.MarkSettlementPaid(ctx, id, time.Now().UTC()); err != nil {
		return SettlementRecord{}, err
	}
	return l.store.GetSettlement(ctx, id)
}

// Unchanged reports whether the group's state still matches what the given
// run saw. The background scheduler uses this to skip recomputing groups
// nobody touched.
func (l *GroupLedger) Unchanged(ctx context.Context, groupID engine.GroupID, run SettlementRun) (bool, error) {
	st, err := l.loadState(ctx, groupID)
	if err != nil {
		return false, err
	}
	return run.ExpenseCount == len(st.expenses) && run.PaidCount == len(st.paid), nil
}

// MemberIDs extracts the ID list, in member order. Handy for building
// equal splits over a whole group.
func MemberIDs(members []Member) []engine.MemberID {
	ids := make([]engine.MemberID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

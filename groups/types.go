// Package groups layers group and member management on top of the
// settlement engine. It owns persistence of expenses and settlement runs;
// the pure arithmetic stays in engine.
package groups

import (
	"time"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// GROUP AND MEMBER RECORDS
// =============================================================================

// Group is a set of people who share expenses in a single currency.
type Group struct {
	ID        engine.GroupID
	Name      string
	Currency  engine.Currency
	CreatedAt time.Time
}

// Member is one person inside a group. The ID is what the engine balances
// against; Name is display-only.
type Member struct {
	ID       engine.MemberID
	GroupID  engine.GroupID
	Name     string
	JoinedAt time.Time
}

// MemberSet builds the engine-facing member set from a member list.
func MemberSet(members []Member) engine.MemberSet {
	set := make(engine.MemberSet, len(members))
	for _, m := range members {
		set[m.ID] = true
	}
	return set
}

// =============================================================================
// SETTLEMENT RECORDS
// =============================================================================

// SettlementRunID identifies one settlement computation over a group.
type SettlementRunID string

// SettlementID identifies one recommended payment within a run.
type SettlementID string

// SettlementStatus tracks whether a recommended payment has happened.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementPaid    SettlementStatus = "paid"
)

// SettlementRun records one settle computation: when it ran and the group
// state it saw. ExpenseCount and PaidCount let callers detect whether the
// group changed since, without rehashing the expense list.
type SettlementRun struct {
	ID           SettlementRunID
	GroupID      engine.GroupID
	At           time.Time
	ExpenseCount int
	PaidCount    int
}

// SettlementRecord is one recommended payment from a run. Once marked paid
// it permanently offsets the group's balances; pending records are only
// recommendations and have no balance effect.
type SettlementRecord struct {
	ID      SettlementID
	RunID   SettlementRunID
	GroupID engine.GroupID
	From    engine.MemberID
	To      engine.MemberID
	Amount  engine.Amount
	Status  SettlementStatus
	PaidAt  *time.Time
}

// Transaction converts the record into the engine's transfer form, for
// replaying paid settlements onto a balance.
func (r SettlementRecord) Transaction() engine.SettlementTransaction {
	return engine.SettlementTransaction{From: r.From, To: r.To, Amount: r.Amount}
}

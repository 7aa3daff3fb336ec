/*
Package engine provides the core group expense settlement engine.

PURPOSE:
  This package contains the pure types and algorithms for splitting shared
  expenses and settling the resulting debts. Given a batch of expenses with
  arbitrary split rules (equal, exact-amount, percentage), the engine computes
  each member's net balance and a short list of pairwise transfers that zeroes
  every balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: Money in integer minor units (paise/cents) with a currency tag
  - Expense: An immutable shared-cost record with a payer and a split rule
  - Member/Group/Expense IDs: Type-safe identifiers
  - MemberSet: Optional known-member universe for validation

DESIGN PRINCIPLES:
  1. Exactness: Integer minor units make conservation exact, not approximate.
     decimal.Decimal appears only at the parse/format boundary and inside
     percentage math; every stored quantity is an int64 of cents.
  2. Statelessness: Nothing in this package holds state between calls. Every
     operation is a pure function of its input, safe to run concurrently
     for any number of groups.
  3. Determinism: Ties and remainders always resolve by lexicographic
     member-id order, so identical input produces identical output.
  4. Immutability: Expenses are never modified; a correction is a new record.

USAGE:
  exp := engine.Expense{
      ID:      "exp-1",
      Amount:  engine.NewAmount(10000, engine.CurrencyINR), // 100.00
      PayerID: "alice",
      Split:   engine.EqualSplit{Members: []engine.MemberID{"alice", "bob"}},
  }
  var eng engine.SettlementEngine
  txs, err := eng.SettleGroup([]engine.Expense{exp})

SEE ALSO:
  - split.go: Split rule variants and share computation
  - ledger.go: Per-expense contribution maps
  - balance.go: Net balance aggregation
  - simplify.go: Greedy debt simplification
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money in integer minor units
// =============================================================================

// Amount is a signed quantity of money in minor units (paise for INR,
// cents for USD). Integer arithmetic keeps every sum exact; conversion to
// and from decimal strings happens only at the edges.
type Amount struct {
	Cents    int64
	Currency Currency
}

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// minorUnitScale is the number of decimal places in one major unit.
// Every supported currency uses two (paise, cents, pence).
const minorUnitScale = 2

func NewAmount(cents int64, currency Currency) Amount {
	return Amount{Cents: cents, Currency: currency}
}

// ParseAmount converts a decimal string such as "123.45" into minor units.
// Sub-cent precision is rejected rather than rounded: silent rounding is
// exactly the class of bug the integer representation exists to prevent.
func ParseAmount(s string, currency Currency) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return AmountFromDecimal(d, currency)
}

// AmountFromDecimal converts a decimal value into minor units.
func AmountFromDecimal(d decimal.Decimal, currency Currency) (Amount, error) {
	scaled := d.Shift(minorUnitScale)
	if !scaled.IsInteger() {
		return Amount{}, fmt.Errorf("amount %s has sub-minor-unit precision", d)
	}
	return Amount{Cents: scaled.IntPart(), Currency: currency}, nil
}

// MustParseAmount is ParseAmount for literals in tests and fixtures.
func MustParseAmount(s string, currency Currency) Amount {
	a, err := ParseAmount(s, currency)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount in major units as an exact decimal.
func (a Amount) Decimal() decimal.Decimal { return decimal.New(a.Cents, -minorUnitScale) }

// String renders "123.45 INR". Used in errors and logs, never parsed back.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Decimal().StringFixed(minorUnitScale), a.Currency)
}

func (a Amount) Zero() Amount              { return Amount{Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount       { return Amount{Cents: a.Cents + b.Cents, Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Cents: a.Cents - b.Cents, Currency: a.Currency} }
func (a Amount) Neg() Amount               { return Amount{Cents: -a.Cents, Currency: a.Currency} }
func (a Amount) IsZero() bool              { return a.Cents == 0 }
func (a Amount) IsPositive() bool          { return a.Cents > 0 }
func (a Amount) IsNegative() bool          { return a.Cents < 0 }
func (a Amount) GreaterThan(b Amount) bool { return a.Cents > b.Cents }
func (a Amount) LessThan(b Amount) bool    { return a.Cents < b.Cents }

func (a Amount) Abs() Amount {
	if a.Cents < 0 {
		return a.Neg()
	}
	return a
}

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type GroupID string
type ExpenseID string

// MemberSet is an optional universe of known members. When supplied to a
// Ledger, every payer and participant must belong to it; an empty or nil
// set disables membership validation (the aggregator edge case where the
// caller has no pre-declared member list).
type MemberSet map[MemberID]bool

func NewMemberSet(ids ...MemberID) MemberSet {
	s := make(MemberSet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s MemberSet) Has(id MemberID) bool { return s[id] }

// =============================================================================
// EXPENSE - One shared cost, immutable to the engine
// =============================================================================

// Expense is a single shared cost. The payer fronted Amount; the split rule
// decides who owes what share of it. The engine never mutates an Expense:
// corrections are new records and the stateless computation simply re-runs.
type Expense struct {
	ID          ExpenseID
	GroupID     GroupID
	Description string
	Category    string
	Amount      Amount
	PayerID     MemberID
	Split       SplitRule
	At          time.Time
}

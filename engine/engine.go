/*
engine.go - Settlement engine composition

PURPOSE:
  Chains the three stages (contribution ledger, balance aggregator, debt
  simplifier) behind one convenience type. Most callers want exactly this:
  hand over a group's expenses, get back the transfers that settle it.

DATA FLOW:
  expenses -> Ledger (per-expense contributions)
           -> Aggregator (net balance per member)
           -> Simplifier (pairwise transfers)

  One-directional, no storage, no shared state. Each call is a pure
  function of its input, so a crashed or timed-out caller can simply rerun
  the computation; there is no partial state to clean up.

SEE ALSO:
  - groups/ledger.go: Binds this engine to stored groups and persistence
*/
package engine

// SettlementEngine composes ledger, aggregator and simplifier. The zero
// value settles without membership or currency validation; fill Members
// and Currency to pin both.
type SettlementEngine struct {
	Members  MemberSet
	Currency Currency
}

func (e SettlementEngine) aggregator() Aggregator {
	return Aggregator{Ledger: Ledger{Members: e.Members}, Currency: e.Currency}
}

// Balances computes the net balance per member for one group's expenses.
func (e SettlementEngine) Balances(expenses []Expense) (Balance, error) {
	return e.aggregator().Aggregate(expenses)
}

// SettleGroup computes the settlement transactions for one group's
// expenses: aggregate, then simplify. All validation errors from the
// underlying stages propagate unchanged.
func (e SettlementEngine) SettleGroup(expenses []Expense) ([]SettlementTransaction, error) {
	balance, err := e.Balances(expenses)
	if err != nil {
		return nil, err
	}
	return Simplifier{}.Simplify(balance)
}

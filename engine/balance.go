/*
balance.go - Net balance aggregation across expenses

PURPOSE:
  Folds many per-expense contributions into one net Balance per member.
  This answers "who is up and who is down?" for a whole group.

KEY PROPERTIES:
  - Zero-sum: For any well-formed expense set, all balances sum to exactly
    zero. Money is conserved; the aggregator only moves it around.
  - Order independence: Aggregation is pure integer summation, so any
    permutation of the expense list produces the identical Balance. Callers
    may batch or stream expenses in any order.
  - All-or-nothing: A single malformed expense aborts the whole computation
    with its InvalidSplitError. Skipping a bad record and returning a
    partial result would silently break the zero-sum guarantee, so there is
    no best-effort mode.

SIGN CONVENTION:
  Positive balance: the group owes this member money (they are owed).
  Negative balance: this member owes the group money.

EXAMPLE:
  agg := engine.Aggregator{
      Ledger:   engine.Ledger{Members: engine.NewMemberSet("alice", "bob")},
      Currency: engine.CurrencyINR,
  }
  b, err := agg.Aggregate(expenses)
  // b["alice"].Cents == +3000, b["bob"].Cents == -3000

SEE ALSO:
  - ledger.go: Produces the contributions being folded
  - simplify.go: Consumes the Balance this produces
*/
package engine

// =============================================================================
// BALANCE - Net position per member
// =============================================================================

// Balance maps each member to their net signed position across all expenses
// in a group. Positive = is owed, negative = owes.
type Balance map[MemberID]Amount

// Sum returns the total of all entries; exactly zero for any Balance
// produced by the Aggregator.
func (b Balance) Sum() Amount {
	var sum Amount
	first := true
	for _, v := range b {
		if first {
			sum = v
			first = false
			continue
		}
		sum = sum.Add(v)
	}
	return sum
}

// MemberIDs returns all members in lexicographic order.
func (b Balance) MemberIDs() []MemberID {
	ids := make([]MemberID, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Clone returns an independent copy.
func (b Balance) Clone() Balance {
	out := make(Balance, len(b))
	for id, v := range b {
		out[id] = v
	}
	return out
}

// Apply replays one settlement payment onto the balance: the payer's debt
// shrinks (their balance rises toward zero) and the payee is owed that much
// less (their balance falls toward zero). Applying every transaction from
// Simplify zeroes the whole map. Members absent from the map start at zero.
func (b Balance) Apply(tx SettlementTransaction) {
	if from, ok := b[tx.From]; ok {
		b[tx.From] = from.Add(tx.Amount)
	} else {
		b[tx.From] = tx.Amount
	}
	if to, ok := b[tx.To]; ok {
		b[tx.To] = to.Sub(tx.Amount)
	} else {
		b[tx.To] = tx.Amount.Neg()
	}
}

// =============================================================================
// AGGREGATOR - Folds expenses into a Balance
// =============================================================================

// Aggregator folds expense contributions into a net Balance. The zero value
// works; Ledger carries the optional member set and Currency, when set,
// pins the expected currency (otherwise it is inferred from the first
// expense). Every member of Ledger.Members appears in the result, zero
// balances included, so callers can render complete member lists.
type Aggregator struct {
	Ledger   Ledger
	Currency Currency
}

// Aggregate computes the net balance for one group's expenses. The caller
// supplies a consistent snapshot, already filtered to the group and time
// range of interest. Any malformed expense aborts the computation.
func (a Aggregator) Aggregate(expenses []Expense) (Balance, error) {
	currency := a.Currency
	cents := make(map[MemberID]int64, len(a.Ledger.Members))
	for id := range a.Ledger.Members {
		cents[id] = 0
	}

	for _, e := range expenses {
		if currency == "" {
			currency = e.Amount.Currency
		} else if e.Amount.Currency != currency {
			return nil, &InvalidSplitError{
				ExpenseID: e.ID,
				Split:     splitTypeOf(e.Split),
				Detail:    string(e.Amount.Currency) + " expense in a " + string(currency) + " batch",
				Err:       ErrCurrencyMismatch,
			}
		}

		c, err := a.Ledger.ComputeContribution(e)
		if err != nil {
			return nil, err
		}
		for id, v := range c {
			cents[id] += v.Cents
		}
	}

	b := make(Balance, len(cents))
	for id, n := range cents {
		b[id] = Amount{Cents: n, Currency: currency}
	}
	return b, nil
}

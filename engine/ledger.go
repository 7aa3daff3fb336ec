/*
ledger.go - Per-expense contribution computation

PURPOSE:
  Converts one Expense into a Contribution: the signed, per-member monetary
  effect of that single expense. The payer fronted the money, so they are
  owed the amount minus their own share; every other participant owes their
  share.

CONSERVATION INVARIANT:
  The values of every Contribution sum to exactly zero. The payer's credit
  is the amount minus their own share, and the debits are the remaining
  shares, which the split rule guarantees sum to the amount. Integer minor
  units make this exact; there is no epsilon.

VALIDATION (fail fast, before any arithmetic):
  - amount must be positive
  - the split rule must satisfy its own invariants (split.go)
  - when the ledger carries a member set, the payer and every participant
    must belong to it

EXAMPLE:
  ledger := engine.Ledger{Members: engine.NewMemberSet("alice", "bob", "cara")}
  c, err := ledger.ComputeContribution(engine.Expense{
      ID:      "exp-1",
      Amount:  engine.NewAmount(10000, engine.CurrencyINR),
      PayerID: "alice",
      Split:   engine.EqualSplit{Members: []engine.MemberID{"alice", "bob", "cara"}},
  })
  // c["alice"] = +66.66, c["bob"] = -33.33, c["cara"] = -33.33
  // ("alice" sorts first, so she carries the remainder cent in her share)

SEE ALSO:
  - split.go: Share computation per rule
  - balance.go: Folds contributions into net balances
*/
package engine

// =============================================================================
// CONTRIBUTION - Signed per-member effect of one expense
// =============================================================================

// Contribution maps each involved member to the signed amount one expense
// changes their position by. Positive means the expense moved money toward
// them (they are owed), negative means away (they owe).
type Contribution map[MemberID]Amount

// Sum returns the total of all entries. Zero for every valid Contribution.
func (c Contribution) Sum() Amount {
	var sum Amount
	first := true
	for _, v := range c {
		if first {
			sum = v
			first = false
			continue
		}
		sum = sum.Add(v)
	}
	return sum
}

// MemberIDs returns the involved members in lexicographic order.
func (c Contribution) MemberIDs() []MemberID {
	ids := make([]MemberID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// =============================================================================
// LEDGER - Expense to contribution conversion
// =============================================================================

// Ledger converts expenses into contribution maps. The zero value is ready
// to use; Members is optional and, when non-empty, restricts payers and
// participants to that set.
type Ledger struct {
	Members MemberSet
}

// ComputeContribution validates the expense and returns its contribution
// map. The returned map sums to exactly zero. On failure it returns an
// *InvalidSplitError naming the expense and the violated invariant.
func (l Ledger) ComputeContribution(e Expense) (Contribution, error) {
	if !e.Amount.IsPositive() {
		return nil, &InvalidSplitError{
			ExpenseID: e.ID,
			Split:     splitTypeOf(e.Split),
			Detail:    e.Amount.String(),
			Err:       ErrNonPositiveAmount,
		}
	}
	if e.Split == nil {
		return nil, &InvalidSplitError{ExpenseID: e.ID, Detail: "expense has no split rule", Err: ErrNoParticipants}
	}

	if err := e.Split.Validate(e.Amount); err != nil {
		if splitErr, ok := err.(*InvalidSplitError); ok {
			splitErr.ExpenseID = e.ID
		}
		return nil, err
	}

	if len(l.Members) > 0 {
		if !l.Members.Has(e.PayerID) {
			return nil, &InvalidSplitError{
				ExpenseID: e.ID,
				Split:     e.Split.Type(),
				Member:    e.PayerID,
				Detail:    "payer",
				Err:       ErrUnknownMember,
			}
		}
		for _, id := range e.Split.Participants() {
			if !l.Members.Has(id) {
				return nil, &InvalidSplitError{
					ExpenseID: e.ID,
					Split:     e.Split.Type(),
					Member:    id,
					Err:       ErrUnknownMember,
				}
			}
		}
	}

	owed := e.Split.Owed(e.Amount)

	c := make(Contribution, len(owed)+1)
	for id, share := range owed {
		c[id] = share.Neg()
	}
	// The payer fronted the full amount. Their own share, if any, nets off
	// against it; a payer outside the participant set is owed everything.
	if share, ok := c[e.PayerID]; ok {
		c[e.PayerID] = e.Amount.Add(share)
	} else {
		c[e.PayerID] = e.Amount
	}
	return c, nil
}

func splitTypeOf(s SplitRule) SplitType {
	if s == nil {
		return ""
	}
	return s.Type()
}

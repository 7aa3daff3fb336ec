/*
spec_test.go - Executable scenarios for the settlement engine

PURPOSE:
  These tests are executable documentation of the engine's guarantees.
  Each one states a behavior in its name, walks a concrete scenario in
  GIVEN/WHEN/THEN comments, and asserts the exact outputs a caller can
  rely on.

ORGANIZATION:
  1. Conservation - every contribution sums to zero
  2. Canonical scenarios - the flows the whole product is built on
  3. Order independence - batching and streaming agree
  4. End-to-end settlement - applying the output zeroes the group

These tests are intentionally verbose; they double as worked examples.
*/
package engine_test

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// 1. CONSERVATION
// =============================================================================

func TestScenario_EveryContributionConservesMoney(t *testing.T) {
	// GIVEN: One expense of each split kind, with awkward amounts that
	//        force remainder handling
	expenses := []engine.Expense{
		equalExpense("equal-3way", "alice", 10000, "alice", "bob", "cara"),
		equalExpense("equal-7way", "bob", 1, "alice", "bob", "cara", "dana", "elle", "finn", "gita"),
		{
			ID: "exact", Amount: inr(9999), PayerID: "cara",
			Split: engine.ExactSplit{Shares: map[engine.MemberID]engine.Amount{
				"alice": inr(1), "bob": inr(4999), "cara": inr(4999),
			}},
		},
		{
			ID: "percent-thirds", Amount: inr(10000), PayerID: "dana",
			Split: engine.PercentageSplit{Shares: map[engine.MemberID]decimal.Decimal{
				"alice": pct("33.33"), "bob": pct("33.33"), "cara": pct("33.34"),
			}},
		},
	}

	var ledger engine.Ledger
	for _, e := range expenses {
		// WHEN: Computing its contribution
		c, err := ledger.ComputeContribution(e)
		if err != nil {
			t.Fatalf("%s: ComputeContribution failed: %v", e.ID, err)
		}
		// THEN: The signed entries cancel exactly, never approximately
		if sum := c.Sum(); !sum.IsZero() {
			t.Errorf("%s: contribution sums to %s, want exactly zero", e.ID, sum)
		}
	}
}

// =============================================================================
// 2. CANONICAL SCENARIOS
// =============================================================================

func TestScenario_DinnerSplitThreeWays(t *testing.T) {
	// GIVEN: alice pays 100.00 for dinner, split equally with bob and cara
	// WHEN: Computing the contribution
	// THEN: The 100.00 divides as 33.34 + 33.33 + 33.33 (alice, sorting
	//       first, carries the extra cent in her own share), so she is
	//       owed 66.66 and the debits cancel her credit exactly
	var ledger engine.Ledger
	c, err := ledger.ComputeContribution(equalExpense("dinner", "alice", 10000, "alice", "bob", "cara"))
	if err != nil {
		t.Fatalf("ComputeContribution failed: %v", err)
	}

	wantContribution(t, c, map[engine.MemberID]int64{
		"alice": 6666,
		"bob":   -3333,
		"cara":  -3333,
	})
}

func TestScenario_TwoExpensesOneTransfer(t *testing.T) {
	// GIVEN: alice paid 100 for both, bob paid 40 for both
	// WHEN: Settling the group
	// THEN: Net positions are +30 / -30 and one transfer closes them
	eng := engine.SettlementEngine{}
	txs, err := eng.SettleGroup([]engine.Expense{
		equalExpense("exp-1", "alice", 10000, "alice", "bob"),
		equalExpense("exp-2", "bob", 4000, "alice", "bob"),
	})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	wantTransactions(t, txs, []engine.SettlementTransaction{
		{From: "bob", To: "alice", Amount: inr(3000)},
	})
}

func TestScenario_ThreeMemberCycleSettlesInTwo(t *testing.T) {
	// GIVEN: Expenses that net alice +50, bob +30, cara -80
	// WHEN: Settling
	// THEN: Exactly two transfers, largest creditor served first
	eng := engine.SettlementEngine{}
	txs, err := eng.SettleGroup([]engine.Expense{
		equalExpense("exp-1", "alice", 7500, "alice", "bob", "cara"),
		{
			ID: "exp-2", Amount: inr(5500), PayerID: "bob",
			Split: engine.ExactSplit{Shares: map[engine.MemberID]engine.Amount{
				"bob": inr(0), "cara": inr(5500),
			}},
		},
	})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	wantTransactions(t, txs, []engine.SettlementTransaction{
		{From: "cara", To: "alice", Amount: inr(5000)},
		{From: "cara", To: "bob", Amount: inr(3000)},
	})
}

func TestScenario_MalformedPercentageRejectsWholeBatch(t *testing.T) {
	// GIVEN: A batch where one percentage split only covers 90%
	// WHEN: Settling
	// THEN: The whole computation aborts; no partial settlement comes back
	eng := engine.SettlementEngine{}
	txs, err := eng.SettleGroup([]engine.Expense{
		equalExpense("exp-1", "alice", 10000, "alice", "bob"),
		{
			ID: "exp-bad", Amount: inr(10000), PayerID: "alice",
			Split: engine.PercentageSplit{Shares: map[engine.MemberID]decimal.Decimal{
				"alice": pct("60"), "bob": pct("30"),
			}},
		},
	})
	if !engine.IsInvalidSplit(err) {
		t.Fatalf("got %v, want an invalid split error", err)
	}
	if txs != nil {
		t.Errorf("got partial settlement %v, want none", txs)
	}
}

func TestScenario_SettledGroupNeedsNoTransfers(t *testing.T) {
	// GIVEN: Two members who alternated paying equal amounts
	eng := engine.SettlementEngine{}
	txs, err := eng.SettleGroup([]engine.Expense{
		equalExpense("exp-1", "alice", 5000, "alice", "bob"),
		equalExpense("exp-2", "bob", 5000, "alice", "bob"),
	})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("settled group produced transfers: %v", txs)
	}
}

// =============================================================================
// 3. ORDER INDEPENDENCE
// =============================================================================

func TestScenario_SettlementIgnoresExpenseOrder(t *testing.T) {
	// GIVEN: The same three expenses in every permutation
	// THEN: The identical transaction list every time
	a := equalExpense("exp-1", "alice", 10000, "alice", "bob", "cara")
	b := equalExpense("exp-2", "bob", 4500, "bob", "cara")
	c := equalExpense("exp-3", "cara", 2001, "alice", "cara")

	permutations := [][]engine.Expense{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}

	eng := engine.SettlementEngine{}
	base, err := eng.SettleGroup(permutations[0])
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	for i, perm := range permutations[1:] {
		got, err := eng.SettleGroup(perm)
		if err != nil {
			t.Fatalf("permutation %d: SettleGroup failed: %v", i+1, err)
		}
		if !reflect.DeepEqual(base, got) {
			t.Errorf("permutation %d diverged:\n  base: %v\n  got:  %v", i+1, base, got)
		}
	}
}

// =============================================================================
// 4. END-TO-END SETTLEMENT
// =============================================================================

func TestScenario_SettlementZeroesEveryBalance(t *testing.T) {
	// GIVEN: A messy month of shared spending
	expenses := []engine.Expense{
		equalExpense("rent", "alice", 450000, "alice", "bob", "cara"),
		equalExpense("groceries", "bob", 23417, "alice", "bob", "cara"),
		equalExpense("cab", "cara", 29900, "bob", "cara"),
		{
			ID: "utilities", Amount: inr(120050), PayerID: "alice",
			Split: engine.PercentageSplit{Shares: map[engine.MemberID]decimal.Decimal{
				"alice": pct("40"), "bob": pct("35"), "cara": pct("25"),
			}},
		},
	}

	eng := engine.SettlementEngine{}
	balance, err := eng.Balances(expenses)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if sum := balance.Sum(); !sum.IsZero() {
		t.Fatalf("balances sum to %s, want zero", sum)
	}

	txs, err := eng.SettleGroup(expenses)
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	// Replaying every recommended payment leaves the group square
	replay := balance.Clone()
	for _, tx := range txs {
		replay.Apply(tx)
	}
	for id, v := range replay {
		if !v.IsZero() {
			t.Errorf("%s left at %s after settlement", id, v)
		}
	}
}

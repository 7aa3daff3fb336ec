/*
simplify.go - Debt simplification via greedy creditor/debtor matching

PURPOSE:
  Turns a net Balance into a short list of pairwise transfers that zeroes
  every member's balance. Without simplification a group of n members can
  accumulate O(n^2) pairwise debts; this produces at most n-1.

ALGORITHM (greedy largest-creditor / largest-debtor):
  1. Partition members into creditors (balance > 0) and debtors
     (balance < 0); members at zero are already settled and drop out.
  2. Keep both sides in max-heaps keyed by absolute balance.
  3. Repeatedly pop the largest creditor and the largest debtor, transfer
     min(credit, debt) between them, and emit that as a settlement
     transaction. Whichever side has a remainder goes back on its heap.
  4. Stop when the heaps drain. The zero-sum precondition guarantees they
     drain together.

DETERMINISM:
  Equal amounts tie-break on lexicographic member id, and heap seeding
  happens in sorted member order, so identical input always yields the
  identical transaction list in the identical order. Tests and callers can
  compare runs byte for byte.

TRANSACTION COUNT:
  Every round fully retires at least one member, and the final round
  retires two, so at most n-1 transactions are emitted for n unsettled
  members. Finding the true minimum number of transfers is NP-hard (it
  embeds set partitioning), so the greedy bound is the standard practical
  choice, not a defect.

COMPLEXITY: O(n log n) for n unsettled members.

PRECONDITION:
  The balance must sum to exactly zero. A nonzero sum means an upstream
  caller bypassed the aggregator or mutated the balance; that is reported
  as UnbalancedLedgerError and never corrected silently.

SEE ALSO:
  - balance.go: Produces the Balance consumed here; Apply replays output
  - engine.go: SettleGroup composes aggregation and simplification
*/
package engine

import "container/heap"

// =============================================================================
// SETTLEMENT TRANSACTION - One recommended transfer
// =============================================================================

// SettlementTransaction is a recommended payment: From pays To the Amount.
// Amount is always strictly positive. Transactions are recommendations;
// recording one as paid is the hosting layer's concern.
type SettlementTransaction struct {
	From   MemberID
	To     MemberID
	Amount Amount
}

// =============================================================================
// SIMPLIFIER
// =============================================================================

// Simplifier converts a Balance into settlement transactions. The zero
// value is ready to use; the type exists so the composition in engine.go
// reads the same as the other stages.
type Simplifier struct{}

// Simplify returns transfers that drive every balance to exactly zero.
// The input is not modified. Returns *UnbalancedLedgerError if the balance
// does not sum to zero; there are no other failure modes.
func (s Simplifier) Simplify(b Balance) ([]SettlementTransaction, error) {
	if sum := b.Sum(); !sum.IsZero() {
		return nil, &UnbalancedLedgerError{Sum: sum}
	}

	var currency Currency
	creditors := &positionHeap{}
	debtors := &positionHeap{}

	// Seed in sorted member order so the heap layout, and therefore the
	// emitted transaction order, is identical on every run.
	for _, id := range b.MemberIDs() {
		v := b[id]
		switch {
		case v.IsPositive():
			heap.Push(creditors, position{id: id, cents: v.Cents})
		case v.IsNegative():
			heap.Push(debtors, position{id: id, cents: -v.Cents})
		default:
			continue
		}
		currency = v.Currency
	}

	var txs []SettlementTransaction
	for creditors.Len() > 0 && debtors.Len() > 0 {
		cr := heap.Pop(creditors).(position)
		db := heap.Pop(debtors).(position)

		transfer := cr.cents
		if db.cents < transfer {
			transfer = db.cents
		}
		txs = append(txs, SettlementTransaction{
			From:   db.id,
			To:     cr.id,
			Amount: Amount{Cents: transfer, Currency: currency},
		})

		if cr.cents -= transfer; cr.cents > 0 {
			heap.Push(creditors, cr)
		}
		if db.cents -= transfer; db.cents > 0 {
			heap.Push(debtors, db)
		}
	}
	return txs, nil
}

// =============================================================================
// MAX-HEAP OF OPEN POSITIONS
// =============================================================================

// position is one unsettled member: cents is the absolute balance and is
// always positive inside a heap.
type position struct {
	id    MemberID
	cents int64
}

type positionHeap []position

func (h positionHeap) Len() int { return len(h) }

func (h positionHeap) Less(i, j int) bool {
	if h[i].cents != h[j].cents {
		return h[i].cents > h[j].cents
	}
	return h[i].id < h[j].id
}

func (h positionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *positionHeap) Push(x any) { *h = append(*h, x.(position)) }

func (h *positionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

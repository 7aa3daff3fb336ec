package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/groups"
	"github.com/tejaperfect/expensiver1-sub001/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func inr(cents int64) engine.Amount {
	return engine.NewAmount(cents, "INR")
}

// day returns a fixed instant at second precision, so times survive the
// RFC3339 round trip unchanged.
func day(n int) time.Time {
	return time.Date(2026, time.March, n, 10, 0, 0, 0, time.UTC)
}

func seedGroup(t *testing.T, store *sqlite.Store, name string, memberIDs ...engine.MemberID) groups.Group {
	t.Helper()
	ctx := context.Background()

	g := groups.Group{
		ID:        engine.GroupID("g-" + name),
		Name:      name,
		Currency:  "INR",
		CreatedAt: day(1),
	}
	if err := store.CreateGroup(ctx, g); err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}

	for i, id := range memberIDs {
		m := groups.Member{
			ID:       id,
			GroupID:  g.ID,
			Name:     string(id),
			JoinedAt: day(1).Add(time.Duration(i) * time.Minute),
		}
		if err := store.AddMember(ctx, m); err != nil {
			t.Fatalf("Failed to add member %s: %v", id, err)
		}
	}
	return g
}

func equalSplit(ids ...engine.MemberID) engine.SplitRule {
	return engine.EqualSplit{Members: ids}
}

// =============================================================================
// GROUPS AND MEMBERS
// =============================================================================

func TestGroupRoundTrip(t *testing.T) {
	// GIVEN: A stored group
	// WHEN: Reading it back
	// THEN: Every field survives

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "goa-trip", "asha", "bilal")

	got, err := store.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.ID != g.ID || got.Name != "goa-trip" || got.Currency != "INR" {
		t.Errorf("group mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(g.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", g.CreatedAt, got.CreatedAt)
	}

	if _, err := store.GetGroup(ctx, "nope"); !errors.Is(err, groups.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestMembersOrderedByJoinDate(t *testing.T) {
	// GIVEN: Members inserted with non-alphabetical join order
	// WHEN: Listing them
	// THEN: Join order wins, not ID order

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "flat", "zoya", "asha", "bilal")

	members, err := store.ListMembers(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}

	want := []engine.MemberID{"zoya", "asha", "bilal"}
	for i, m := range members {
		if m.ID != want[i] {
			t.Errorf("member %d: expected %s, got %s", i, want[i], m.ID)
		}
	}
}

func TestDuplicateIDsRejected(t *testing.T) {
	// GIVEN: A group and an expense already stored
	// WHEN: Inserting the same IDs again
	// THEN: ErrDuplicateID both times

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	err := store.CreateGroup(ctx, groups.Group{ID: g.ID, Name: "other", Currency: "INR", CreatedAt: day(2)})
	if !errors.Is(err, groups.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID for group, got %v", err)
	}

	e := engine.Expense{
		ID: "e-1", GroupID: g.ID, Amount: inr(1000),
		PayerID: "asha", Split: equalSplit("asha", "bilal"), At: day(2),
	}
	if err := store.AddExpense(ctx, e); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if err := store.AddExpense(ctx, e); !errors.Is(err, groups.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID for expense, got %v", err)
	}
}

func TestAddMemberToMissingGroup(t *testing.T) {
	// GIVEN: No groups
	// WHEN: Adding a member with a dangling group_id
	// THEN: The foreign key maps to ErrGroupNotFound

	store := newTestStore(t)
	ctx := context.Background()

	m := groups.Member{ID: "asha", GroupID: "ghost", Name: "Asha", JoinedAt: day(1)}
	if err := store.AddMember(ctx, m); !errors.Is(err, groups.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

// =============================================================================
// EXPENSES
// =============================================================================

func TestExpenseRoundTrip(t *testing.T) {
	// GIVEN: An expense with an exact split, description and category
	// WHEN: Reading it back
	// THEN: Amount stays in exact cents and the split deserializes to the
	//       same rule

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	exact := engine.ExactSplit{Shares: map[engine.MemberID]engine.Amount{
		"asha":  inr(2500),
		"bilal": inr(7500),
	}}
	e := engine.Expense{
		ID:          "e-kayak",
		GroupID:     g.ID,
		Description: "kayak rental",
		Category:    "fun",
		Amount:      inr(10000),
		PayerID:     "asha",
		Split:       exact,
		At:          day(2),
	}
	if err := store.AddExpense(ctx, e); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, "e-kayak")
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Amount.Cents != 10000 || got.Amount.Currency != "INR" {
		t.Errorf("amount mismatch: %+v", got.Amount)
	}
	if got.Description != "kayak rental" || got.Category != "fun" || got.PayerID != "asha" {
		t.Errorf("field mismatch: %+v", got)
	}
	if !got.At.Equal(e.At) {
		t.Errorf("expected at %v, got %v", e.At, got.At)
	}

	back, ok := got.Split.(engine.ExactSplit)
	if !ok {
		t.Fatalf("expected ExactSplit, got %T", got.Split)
	}
	if back.Shares["asha"].Cents != 2500 || back.Shares["bilal"].Cents != 7500 {
		t.Errorf("shares mismatch: %+v", back.Shares)
	}

	if _, err := store.GetExpense(ctx, "nope"); !errors.Is(err, groups.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestExpenseFilters(t *testing.T) {
	// GIVEN: Three expenses across categories, payers and days
	// WHEN: Filtering by category, payer and date window
	// THEN: Each filter narrows the list, in date order

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	add := func(id string, category string, payer engine.MemberID, at time.Time) {
		t.Helper()
		e := engine.Expense{
			ID: engine.ExpenseID(id), GroupID: g.ID, Category: category,
			Amount: inr(1000), PayerID: payer,
			Split: equalSplit("asha", "bilal"), At: at,
		}
		if err := store.AddExpense(ctx, e); err != nil {
			t.Fatalf("AddExpense %s failed: %v", id, err)
		}
	}
	add("e-1", "food", "asha", day(2))
	add("e-2", "travel", "bilal", day(3))
	add("e-3", "food", "bilal", day(4))

	foods, err := store.ListExpenses(ctx, g.ID, groups.ExpenseFilter{Category: "food"})
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(foods) != 2 || foods[0].ID != "e-1" || foods[1].ID != "e-3" {
		t.Errorf("category filter: expected [e-1 e-3], got %v", foods)
	}

	byBilal, err := store.ListExpenses(ctx, g.ID, groups.ExpenseFilter{PayerID: "bilal"})
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(byBilal) != 2 || byBilal[0].ID != "e-2" || byBilal[1].ID != "e-3" {
		t.Errorf("payer filter: expected [e-2 e-3], got %v", byBilal)
	}

	from, to := day(3), day(3)
	window, err := store.ListExpenses(ctx, g.ID, groups.ExpenseFilter{From: &from, To: &to})
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(window) != 1 || window[0].ID != "e-2" {
		t.Errorf("window filter: expected [e-2], got %v", window)
	}
}

func TestDeleteExpense(t *testing.T) {
	// GIVEN: A stored expense
	// WHEN: Deleting it
	// THEN: It is gone, and deleting again reports not found

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	e := engine.Expense{
		ID: "e-1", GroupID: g.ID, Amount: inr(1000),
		PayerID: "asha", Split: equalSplit("asha", "bilal"), At: day(2),
	}
	if err := store.AddExpense(ctx, e); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if err := store.DeleteExpense(ctx, "e-1"); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := store.GetExpense(ctx, "e-1"); !errors.Is(err, groups.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound after delete, got %v", err)
	}
	if err := store.DeleteExpense(ctx, "e-1"); !errors.Is(err, groups.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound on second delete, got %v", err)
	}
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func saveRun(t *testing.T, store *sqlite.Store, g groups.Group, runID groups.SettlementRunID, at time.Time, records ...groups.SettlementRecord) groups.SettlementRun {
	t.Helper()
	run := groups.SettlementRun{
		ID: runID, GroupID: g.ID, At: at,
		ExpenseCount: 2, PaidCount: 0,
	}
	if err := store.SaveRun(context.Background(), run, records); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	return run
}

func pendingRecord(id groups.SettlementID, runID groups.SettlementRunID, g groups.Group, from, to engine.MemberID, cents int64) groups.SettlementRecord {
	return groups.SettlementRecord{
		ID: id, RunID: runID, GroupID: g.ID,
		From: from, To: to, Amount: inr(cents),
		Status: groups.SettlementPending,
	}
}

func TestSaveRunPreservesTransferOrder(t *testing.T) {
	// GIVEN: A run whose records are not in ID order
	// WHEN: Reading the latest run
	// THEN: Records come back in the order they were computed

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal", "zoya")

	saveRun(t, store, g, "run-1", day(5),
		pendingRecord("s-z", "run-1", g, "zoya", "asha", 5000),
		pendingRecord("s-a", "run-1", g, "bilal", "asha", 3000),
	)

	run, records, err := store.LatestRun(ctx, g.ID)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if run.ID != "run-1" || run.ExpenseCount != 2 {
		t.Errorf("run mismatch: %+v", run)
	}
	if len(records) != 2 || records[0].ID != "s-z" || records[1].ID != "s-a" {
		t.Errorf("expected computed order [s-z s-a], got %v", records)
	}
	if records[0].Status != groups.SettlementPending || records[0].PaidAt != nil {
		t.Errorf("expected pending record with nil PaidAt: %+v", records[0])
	}
}

func TestLatestRunPicksNewestRun(t *testing.T) {
	// GIVEN: Two runs on different days
	// WHEN: Reading the latest
	// THEN: The newer one wins

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	saveRun(t, store, g, "run-1", day(5),
		pendingRecord("s-1", "run-1", g, "bilal", "asha", 5000))
	saveRun(t, store, g, "run-2", day(6))

	run, records, err := store.LatestRun(ctx, g.ID)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if run.ID != "run-2" {
		t.Errorf("expected run-2, got %s", run.ID)
	}
	if len(records) != 0 {
		t.Errorf("expected empty run, got %d records", len(records))
	}
}

func TestLatestRunWhenNeverSettled(t *testing.T) {
	store := newTestStore(t)
	g := seedGroup(t, store, "trip", "asha")

	_, _, err := store.LatestRun(context.Background(), g.ID)
	if !errors.Is(err, groups.ErrSettlementNotFound) {
		t.Errorf("expected ErrSettlementNotFound, got %v", err)
	}
}

func TestListRunsNewestFirstWithRecords(t *testing.T) {
	// GIVEN: Three runs, the last two sharing a timestamp
	// WHEN: Listing the history
	// THEN: Newest first, insertion order breaking the tie, each run
	//       carrying its own records

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal", "zoya")

	saveRun(t, store, g, "run-1", day(5),
		pendingRecord("s-1", "run-1", g, "zoya", "asha", 5000),
		pendingRecord("s-2", "run-1", g, "bilal", "asha", 2000),
	)
	saveRun(t, store, g, "run-2", day(6),
		pendingRecord("s-3", "run-2", g, "bilal", "asha", 3000))
	saveRun(t, store, g, "run-3", day(6))

	runs, byRun, err := store.ListRuns(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" || runs[2].ID != "run-1" {
		t.Errorf("expected [run-3 run-2 run-1], got %+v", runs)
	}
	if !runs[2].At.Equal(day(5)) {
		t.Errorf("expected run_at %v, got %v", day(5), runs[2].At)
	}

	recs := byRun["run-1"]
	if len(recs) != 2 || recs[0].ID != "s-1" || recs[1].ID != "s-2" {
		t.Errorf("expected run-1 records [s-1 s-2], got %v", recs)
	}
	if len(byRun["run-2"]) != 1 || byRun["run-2"][0].Amount.Cents != 3000 {
		t.Errorf("run-2 records mismatch: %v", byRun["run-2"])
	}
	if len(byRun["run-3"]) != 0 {
		t.Errorf("expected empty run-3, got %v", byRun["run-3"])
	}

	latest, _, err := store.LatestRun(ctx, g.ID)
	if err != nil || latest.ID != "run-3" {
		t.Errorf("expected latest run-3, got %q (err %v)", latest.ID, err)
	}
}

func TestListRunsWhenNeverSettled(t *testing.T) {
	store := newTestStore(t)
	g := seedGroup(t, store, "trip", "asha")

	runs, byRun, err := store.ListRuns(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 || len(byRun) != 0 {
		t.Errorf("expected empty history, got %d runs", len(runs))
	}
}

func TestMarkSettlementPaid(t *testing.T) {
	// GIVEN: A pending settlement
	// WHEN: Marking it paid
	// THEN: Status and paid_at update exactly once

	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")

	saveRun(t, store, g, "run-1", day(5),
		pendingRecord("s-1", "run-1", g, "bilal", "asha", 5000))

	if err := store.MarkSettlementPaid(ctx, "s-1", day(6)); err != nil {
		t.Fatalf("MarkSettlementPaid failed: %v", err)
	}

	r, err := store.GetSettlement(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetSettlement failed: %v", err)
	}
	if r.Status != groups.SettlementPaid {
		t.Errorf("expected paid status, got %s", r.Status)
	}
	if r.PaidAt == nil || !r.PaidAt.Equal(day(6)) {
		t.Errorf("expected paid_at %v, got %v", day(6), r.PaidAt)
	}

	if err := store.MarkSettlementPaid(ctx, "s-1", day(7)); !errors.Is(err, groups.ErrSettlementPaid) {
		t.Errorf("expected ErrSettlementPaid on repeat, got %v", err)
	}
	if err := store.MarkSettlementPaid(ctx, "nope", day(7)); !errors.Is(err, groups.ErrSettlementNotFound) {
		t.Errorf("expected ErrSettlementNotFound, got %v", err)
	}

	paid, err := store.ListPaidSettlements(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListPaidSettlements failed: %v", err)
	}
	if len(paid) != 1 || paid[0].ID != "s-1" {
		t.Errorf("expected [s-1], got %v", paid)
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTxRollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes a group and a member
	// WHEN: The function returns an error
	// THEN: Nothing is persisted, but reads inside saw the writes

	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx groups.Store) error {
		g := groups.Group{ID: "g-1", Name: "trip", Currency: "INR", CreatedAt: day(1)}
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		m := groups.Member{ID: "asha", GroupID: "g-1", Name: "Asha", JoinedAt: day(1)}
		if err := tx.AddMember(ctx, m); err != nil {
			return err
		}
		if _, err := tx.GetGroup(ctx, "g-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := store.GetGroup(ctx, "g-1"); !errors.Is(err, groups.ErrGroupNotFound) {
		t.Errorf("expected rollback, got %v", err)
	}
}

// =============================================================================
// END TO END
// =============================================================================

func TestLedgerFlowOnSQLite(t *testing.T) {
	// GIVEN: A three-member group with one shared expense
	// WHEN: Settling and paying every recommendation
	// THEN: Everyone's balance lands on zero

	store := newTestStore(t)
	ctx := context.Background()
	ledger := groups.NewGroupLedger(store)

	g, members, err := ledger.CreateGroup(ctx, "goa-trip", "INR", []string{"Asha", "Bilal", "Zoya"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}

	_, err = ledger.AddExpense(ctx, engine.Expense{
		GroupID:     g.ID,
		Description: "houseboat",
		Amount:      inr(9000),
		PayerID:     members[0].ID,
		Split:       engine.EqualSplit{Members: groups.MemberIDs(members)},
	})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	_, records, err := ledger.Settle(ctx, g.ID)
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(records))
	}

	for _, r := range records {
		if _, err := ledger.MarkPaid(ctx, r.ID); err != nil {
			t.Fatalf("MarkPaid %s failed: %v", r.ID, err)
		}
	}

	balances, err := ledger.Balances(ctx, g.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	for id, amt := range balances {
		if amt.Cents != 0 {
			t.Errorf("member %s: expected settled balance, got %d cents", id, amt.Cents)
		}
	}
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	g := seedGroup(t, store, "trip", "asha", "bilal")
	saveRun(t, store, g, "run-1", day(5),
		pendingRecord("s-1", "run-1", g, "bilal", "asha", 1000))

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	all, err := store.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty store, got %d groups", len(all))
	}
}

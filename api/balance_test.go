/*
balance_test.go - Balance and settlement endpoint tests

CORE DESIGN:
- Balances are COMPUTED on-demand from expenses, never stored
- A settle run snapshots the minimal transfer plan as pending records
- Paid records permanently offset future balance reads; pending ones don't
*/
package api

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTripGroup creates three members with distinct net positions:
// Asha +500, Bilal -100, Chitra -400.
func seedTripGroup(t *testing.T, router http.Handler) (GroupDetailDTO, MemberDTO, MemberDTO, MemberDTO) {
	t.Helper()
	g := createTestGroup(t, router, "Trip", "Asha", "Bilal", "Chitra")
	asha := memberNamed(t, g, "Asha")
	bilal := memberNamed(t, g, "Bilal")
	chitra := memberNamed(t, g, "Chitra")
	split := equalSplit(asha.ID, bilal.ID, chitra.ID)

	// Asha pays 900: +600 for her, -300 each for the others.
	postExpense(t, router, g.ID, CreateExpenseRequest{
		Description: "Hotel", Amount: "900.00", PayerID: asha.ID, Split: split,
	})
	// Bilal pays 300: +200 for him, -100 each for the others.
	postExpense(t, router, g.ID, CreateExpenseRequest{
		Description: "Fuel", Amount: "300.00", PayerID: bilal.ID, Split: split,
	})
	return g, asha, bilal, chitra
}

func getBalances(t *testing.T, router http.Handler, groupID string) map[string]string {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, "/api/groups/"+groupID+"/balances", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var b BalanceDTO
	decodeJSON(t, w, &b)
	byMember := make(map[string]string, len(b.Entries))
	for _, e := range b.Entries {
		byMember[e.MemberID] = e.Amount
	}
	return byMember
}

// =============================================================================
// BALANCE ENDPOINT
// =============================================================================

func TestGetBalances_NetPositions(t *testing.T) {
	_, router := setupTestServer(t)
	g, asha, bilal, chitra := seedTripGroup(t, router)

	balances := getBalances(t, router, g.ID)

	require.Len(t, balances, 3)
	assert.Equal(t, "500.00", balances[asha.ID])
	assert.Equal(t, "-100.00", balances[bilal.ID])
	assert.Equal(t, "-400.00", balances[chitra.ID])
}

func TestGetBalances_SumToZero(t *testing.T) {
	_, router := setupTestServer(t)
	g, _, _, _ := seedTripGroup(t, router)

	balances := getBalances(t, router, g.ID)

	sum := decimal.Zero
	for _, amount := range balances {
		d, err := decimal.NewFromString(amount)
		require.NoError(t, err)
		sum = sum.Add(d)
	}
	assert.True(t, sum.IsZero(), "balances must conserve money, got sum %s", sum)
}

func TestGetBalances_NewcomerStartsAtZero(t *testing.T) {
	_, router := setupTestServer(t)
	g, _, _, _ := seedTripGroup(t, router)

	// Dev joins after the spending happened
	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/members",
		AddMemberRequest{Name: "Dev"})
	require.Equal(t, http.StatusCreated, w.Code)
	var dev MemberDTO
	decodeJSON(t, w, &dev)

	balances := getBalances(t, router, g.ID)

	require.Len(t, balances, 4)
	assert.Equal(t, "0.00", balances[dev.ID])
}

func TestGetBalances_UnknownGroup(t *testing.T) {
	_, router := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/groups/no-such-group/balances", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// SETTLE ENDPOINT
// =============================================================================

func TestSettleGroup_PersistsMinimalPlan(t *testing.T) {
	// GIVEN: Asha +500, Bilal -100, Chitra -400
	_, router := setupTestServer(t)
	g, asha, bilal, chitra := seedTripGroup(t, router)

	// WHEN: Settling the group
	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)

	// THEN: Two transfers clear everything, biggest debt first
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run SettlementRunDTO
	decodeJSON(t, w, &run)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, g.ID, run.GroupID)
	assert.Equal(t, 2, run.ExpenseCount)
	assert.Equal(t, 0, run.PaidCount)

	require.Len(t, run.Transfers, 2)
	assert.Equal(t, chitra.ID, run.Transfers[0].From)
	assert.Equal(t, asha.ID, run.Transfers[0].To)
	assert.Equal(t, "400.00", run.Transfers[0].Amount)
	assert.Equal(t, bilal.ID, run.Transfers[1].From)
	assert.Equal(t, asha.ID, run.Transfers[1].To)
	assert.Equal(t, "100.00", run.Transfers[1].Amount)

	for _, tr := range run.Transfers {
		assert.Equal(t, "pending", tr.Status)
		assert.Nil(t, tr.PaidAt)
	}
}

func TestSettleGroup_PendingRunsDoNotMoveBalances(t *testing.T) {
	_, router := setupTestServer(t)
	g, asha, _, _ := seedTripGroup(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// A plan is a recommendation, not a payment
	balances := getBalances(t, router, g.ID)
	assert.Equal(t, "500.00", balances[asha.ID])
}

func TestSettleGroup_UnknownGroup(t *testing.T) {
	_, router := setupTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/groups/no-such-group/settle", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSettlements_RunHistoryNewestFirst(t *testing.T) {
	_, router := setupTestServer(t)
	g, _, _, _ := seedTripGroup(t, router)

	// Never settled: an empty history, not an error.
	w := doJSON(t, router, http.MethodGet, "/api/groups/"+g.ID+"/settlements", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history []SettlementRunDTO
	decodeJSON(t, w, &history)
	assert.Empty(t, history)

	// First run recommends two transfers; pay them all.
	w = doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var first SettlementRunDTO
	decodeJSON(t, w, &first)
	for _, tr := range first.Transfers {
		w = doJSON(t, router, http.MethodPost, "/api/settlements/"+tr.ID+"/pay", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Second run sees a settled group and recommends nothing.
	w = doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var second SettlementRunDTO
	decodeJSON(t, w, &second)

	w = doJSON(t, router, http.MethodGet, "/api/groups/"+g.ID+"/settlements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &history)

	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest run first")
	assert.Equal(t, first.ID, history[1].ID)
	assert.Empty(t, history[0].Transfers)
	assert.Equal(t, 2, history[0].PaidCount)
	require.Len(t, history[1].Transfers, 2)
	assert.Equal(t, "400.00", history[1].Transfers[0].Amount)
	assert.Equal(t, "paid", history[1].Transfers[0].Status)
}

func TestGetSettlements_UnknownGroup(t *testing.T) {
	_, router := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/groups/no-such-group/settlements", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// PAY ENDPOINT
// =============================================================================

func TestPaySettlement_OffsetsBalances(t *testing.T) {
	// GIVEN: A settled plan with Chitra owing Asha 400
	_, router := setupTestServer(t)
	g, asha, bilal, chitra := seedTripGroup(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var run SettlementRunDTO
	decodeJSON(t, w, &run)

	// WHEN: Chitra's transfer is marked paid
	w = doJSON(t, router, http.MethodPost, "/api/settlements/"+run.Transfers[0].ID+"/pay", nil)

	// THEN: The record is terminal and balances shrink by the payment
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid SettlementDTO
	decodeJSON(t, w, &paid)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaidAt)

	balances := getBalances(t, router, g.ID)
	assert.Equal(t, "100.00", balances[asha.ID])
	assert.Equal(t, "-100.00", balances[bilal.ID])
	assert.Equal(t, "0.00", balances[chitra.ID])
}

func TestPaySettlement_TwiceConflicts(t *testing.T) {
	_, router := setupTestServer(t)
	g, _, _, _ := seedTripGroup(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var run SettlementRunDTO
	decodeJSON(t, w, &run)

	w = doJSON(t, router, http.MethodPost, "/api/settlements/"+run.Transfers[0].ID+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Paid is terminal
	w = doJSON(t, router, http.MethodPost, "/api/settlements/"+run.Transfers[0].ID+"/pay", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaySettlement_Unknown(t *testing.T) {
	_, router := setupTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/settlements/no-such-settlement/pay", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayAll_ThenResettleRecommendsNothing(t *testing.T) {
	// GIVEN: Every recommended transfer has been paid
	_, router := setupTestServer(t)
	g, _, _, _ := seedTripGroup(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var run SettlementRunDTO
	decodeJSON(t, w, &run)

	for _, tr := range run.Transfers {
		w = doJSON(t, router, http.MethodPost, "/api/settlements/"+tr.ID+"/pay", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// THEN: Balances are flat and a fresh settle has nothing to recommend
	balances := getBalances(t, router, g.ID)
	for memberID, amount := range balances {
		assert.Equal(t, "0.00", amount, "member %s should be settled", memberID)
	}

	w = doJSON(t, router, http.MethodPost, "/api/groups/"+g.ID+"/settle", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var next SettlementRunDTO
	decodeJSON(t, w, &next)
	assert.Empty(t, next.Transfers)
	assert.Equal(t, 2, next.ExpenseCount)
	assert.Equal(t, 2, next.PaidCount)
}

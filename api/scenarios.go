/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a group, members, and
	expenses that demonstrate specific split types and settlement states.

AVAILABLE SCENARIOS:

	weekend-trip: Four friends, mixed split types, one settlement run
	flat-share:   Percentage rent split, settled with one transfer paid
	office-lunch: Equal lunch splits, never settled

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create group with members
 3. Record expenses with their split rules
 4. Optionally settle and mark transfers paid

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "weekend-trip"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: shared writeJSON/writeError helpers
  - groups/ledger.go: the operations the loaders drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tejaperfect/expensiver1-sub001/analytics"
	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "weekend-trip",
		Name:        "Weekend Trip",
		Description: "Four friends split a Goa weekend with equal, exact and percentage splits",
		Category:    "trip",
	},
	{
		ID:          "flat-share",
		Name:        "Flat Share",
		Description: "Three flatmates split rent by room share and settle up monthly",
		Category:    "household",
	},
	{
		ID:          "office-lunch",
		Name:        "Office Lunch",
		Description: "A rotating lunch crew with equal splits and no settlement yet",
		Category:    "office",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = "" // Clear current scenario on reset

	var err error
	switch req.ScenarioID {
	case "weekend-trip":
		err = h.loadWeekendTripScenario(ctx)
	case "flat-share":
		err = h.loadFlatShareScenario(ctx)
	case "office-lunch":
		err = h.loadOfficeLunchScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	// Track the loaded scenario
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase wipes all data. Development and demo use only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seedExpense records one expense through the ledger, parsing the split
// from its wire form, so every scenario goes through the same validation
// as a real API call.
func (h *Handler) seedExpense(ctx context.Context, g groups.Group, payer engine.MemberID,
	description, category, amount, splitJSON string, at time.Time) error {

	a, err := engine.ParseAmount(amount, g.Currency)
	if err != nil {
		return err
	}
	split, err := h.Splits.ParseSplit(splitJSON, g.Currency)
	if err != nil {
		return err
	}
	_, err = h.Ledger.AddExpense(ctx, engine.Expense{
		GroupID:     g.ID,
		Description: description,
		Category:    category,
		Amount:      a,
		PayerID:     payer,
		Split:       split,
		At:          at,
	})
	return err
}

func (h *Handler) loadWeekendTripScenario(ctx context.Context) error {
	g, members, err := h.Ledger.CreateGroup(ctx, "Goa Weekend", engine.CurrencyINR,
		[]string{"Asha", "Bilal", "Chitra", "Dev"})
	if err != nil {
		return err
	}
	ids := groups.MemberIDs(members)
	asha, bilal, chitra, dev := ids[0], ids[1], ids[2], ids[3]

	day := func(n int) time.Time {
		return time.Now().UTC().AddDate(0, 0, n-10)
	}
	all := groups.EqualSplitJSON(ids...)

	if err := h.seedExpense(ctx, g, asha, "Train tickets", analytics.CategoryTravel,
		"4840.00", all, day(1)); err != nil {
		return err
	}

	// The couple takes the bigger cabin, so the houseboat splits 30/30/20/20.
	houseboat := groups.PercentageSplitJSON(map[engine.MemberID]string{
		asha:   "30",
		bilal:  "30",
		chitra: "20",
		dev:    "20",
	})
	if err := h.seedExpense(ctx, g, bilal, "Houseboat night", analytics.CategoryStay,
		"18000.00", houseboat, day(1)); err != nil {
		return err
	}

	if err := h.seedExpense(ctx, g, chitra, "Seafood dinner", analytics.CategoryFood,
		"6275.50", all, day(2)); err != nil {
		return err
	}

	// Scooter time varied wildly, so the renters agreed on exact shares.
	scooters := groups.ExactSplitJSON(map[engine.MemberID]string{
		asha:   "1000.00",
		bilal:  "800.00",
		chitra: "400.00",
		dev:    "200.00",
	})
	if err := h.seedExpense(ctx, g, asha, "Scooter rentals", analytics.CategoryTravel,
		"2400.00", scooters, day(2)); err != nil {
		return err
	}

	// Asha skipped the club night.
	club := groups.EqualSplitJSON(bilal, chitra, dev)
	if err := h.seedExpense(ctx, g, dev, "Club night", analytics.CategoryFun,
		"5000.00", club, day(3)); err != nil {
		return err
	}

	_, _, err = h.Ledger.Settle(ctx, g.ID)
	return err
}

func (h *Handler) loadFlatShareScenario(ctx context.Context) error {
	g, members, err := h.Ledger.CreateGroup(ctx, "Indiranagar Flat", engine.CurrencyINR,
		[]string{"Meera", "Rohan", "Tara"})
	if err != nil {
		return err
	}
	ids := groups.MemberIDs(members)
	meera, rohan, tara := ids[0], ids[1], ids[2]

	day := func(n int) time.Time {
		return time.Now().UTC().AddDate(0, 0, n-30)
	}
	all := groups.EqualSplitJSON(ids...)

	// Rent follows room size, not headcount.
	rent := groups.PercentageSplitJSON(map[engine.MemberID]string{
		meera: "40",
		rohan: "35",
		tara:  "25",
	})
	if err := h.seedExpense(ctx, g, meera, "Monthly rent", analytics.CategoryStay,
		"45000.00", rent, day(1)); err != nil {
		return err
	}
	if err := h.seedExpense(ctx, g, rohan, "Electricity bill", analytics.CategoryUtilities,
		"3120.00", all, day(5)); err != nil {
		return err
	}
	if err := h.seedExpense(ctx, g, tara, "Broadband", analytics.CategoryUtilities,
		"1499.00", all, day(7)); err != nil {
		return err
	}
	if err := h.seedExpense(ctx, g, meera, "Groceries run", analytics.CategoryFood,
		"8437.50", all, day(12)); err != nil {
		return err
	}

	// Settle the month and record the first transfer as already paid.
	_, records, err := h.Ledger.Settle(ctx, g.ID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		if _, err := h.Ledger.MarkPaid(ctx, records[0].ID); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOfficeLunchScenario(ctx context.Context) error {
	g, members, err := h.Ledger.CreateGroup(ctx, "Lunch Club", engine.CurrencyINR,
		[]string{"Farhan", "Gita", "Harsh", "Imran", "Jaya"})
	if err != nil {
		return err
	}
	ids := groups.MemberIDs(members)

	day := func(n int) time.Time {
		return time.Now().UTC().AddDate(0, 0, n-14)
	}
	all := groups.EqualSplitJSON(ids...)

	lunches := []struct {
		payer  engine.MemberID
		desc   string
		amount string
		on     int
	}{
		{ids[0], "Biryani Friday", "1840.00", 1},
		{ids[1], "Thali place", "1215.00", 4},
		{ids[2], "Momo cart", "760.00", 6},
		{ids[3], "Pizza day", "2350.00", 8},
	}
	for _, l := range lunches {
		if err := h.seedExpense(ctx, g, l.payer, l.desc, analytics.CategoryFood,
			l.amount, all, day(l.on)); err != nil {
			return err
		}
	}

	// Coffee for the two who stayed late.
	coffee := groups.EqualSplitJSON(ids[3], ids[4])
	return h.seedExpense(ctx, g, ids[4], "Filter coffee run", analytics.CategoryFood,
		"180.00", coffee, day(9))
}

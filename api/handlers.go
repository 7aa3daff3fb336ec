/*
handlers.go - HTTP API handlers for the expense sharing service

PURPOSE:
	Exposes the settlement engine via REST API. Handles HTTP
	request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
	Health:
		GET    /api/health                      Service and database health

	Groups:
		GET    /api/groups                      List all groups
		POST   /api/groups                      Create group with members
		GET    /api/groups/{id}                 Get group with members
		GET    /api/groups/{id}/members         List members
		POST   /api/groups/{id}/members         Add a member
		GET    /api/groups/{id}/balances        Current net balances
		GET    /api/groups/{id}/analytics       Spending report
		POST   /api/groups/{id}/settle          Compute and persist a settlement run
		GET    /api/groups/{id}/settlements     Settlement run history, newest first

	Expenses:
		GET    /api/groups/{id}/expenses        List expenses (filterable)
		POST   /api/groups/{id}/expenses        Record an expense
		GET    /api/expenses/{id}               Get one expense
		DELETE /api/expenses/{id}               Delete an expense
		GET    /api/expenses/{id}/contribution  Signed per-member effect

	Settlements:
		POST   /api/settlements/{id}/pay        Mark a recommended payment paid

	Scenarios:
		GET    /api/scenarios                   List demo scenarios
		GET    /api/scenarios/current           Currently loaded scenario
		POST   /api/scenarios/load              Load a demo scenario
		POST   /api/scenarios/reset             Wipe the database

REQUEST FLOW:
	1. Parse HTTP request
	2. Validate input
	3. Call domain logic (ledger, analyzer)
	4. Convert to DTO and write JSON

ERROR MAPPING:
	Domain errors map onto status codes in domainStatus: not-found
	sentinels become 404, conflicts 409, invalid splits and other bad
	input 400, everything else 500.

SEE ALSO:
	server.go - route registration
	dto.go - request/response shapes
	groups/ledger.go - the domain logic behind every endpoint
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tejaperfect/expensiver1-sub001/analytics"
	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/factory"
	"github.com/tejaperfect/expensiver1-sub001/groups"
	"github.com/tejaperfect/expensiver1-sub001/store/sqlite"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for API handlers.
type Handler struct {
	Store   *sqlite.Store
	Ledger  *groups.GroupLedger
	Splits  *factory.SplitFactory
	Reports *analytics.Analyzer

	// Track current loaded scenario for the demo UI.
	currentScenario string
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Ledger:  groups.NewGroupLedger(store),
		Splits:  factory.NewSplitFactory(),
		Reports: analytics.NewAnalyzer(),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthCheck reports service liveness and database reachability.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unreachable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns all groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Ledger.Groups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list groups", err)
		return
	}

	dtos := make([]GroupDTO, len(gs))
	for i, g := range gs {
		dtos[i] = toGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGroup creates a group together with its founding members.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Group name is required", nil)
		return
	}
	if len(req.Members) == 0 {
		writeError(w, http.StatusBadRequest, "At least one member is required", nil)
		return
	}
	currency := engine.Currency(req.Currency)
	if currency == "" {
		currency = engine.CurrencyINR
	}

	g, members, err := h.Ledger.CreateGroup(r.Context(), req.Name, currency, req.Members)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDetailDTO(g, members))
}

// GetGroup returns one group with its members.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	g, err := h.Ledger.Group(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get group", err)
		return
	}
	members, err := h.Ledger.Members(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list members", err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDetailDTO(g, members))
}

// ListMembers returns a group's members ordered by join date.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	members, err := h.Ledger.Members(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list members", err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTOs(members))
}

// AddMember adds one member to an existing group.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Member name is required", nil)
		return
	}

	m, err := h.Ledger.AddMember(r.Context(), groupID, req.Name)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to add member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// CreateExpense records an expense against a group. The split arrives in
// wire form and is validated before anything is stored.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount == "" {
		writeError(w, http.StatusBadRequest, "Amount is required", nil)
		return
	}
	if req.PayerID == "" {
		writeError(w, http.StatusBadRequest, "Payer is required", nil)
		return
	}

	// The group's currency decides how the amount and split parse.
	g, err := h.Ledger.Group(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get group", err)
		return
	}
	amount, err := engine.ParseAmount(req.Amount, g.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	rule, err := h.Splits.FromJSON(req.Split, g.Currency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid split", err)
		return
	}

	var spentAt time.Time
	if req.SpentAt != "" {
		spentAt, err = parseTime(req.SpentAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid spent_at, want RFC3339 or YYYY-MM-DD", err)
			return
		}
	}

	e, err := h.Ledger.AddExpense(r.Context(), engine.Expense{
		GroupID:     groupID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      amount,
		PayerID:     engine.MemberID(req.PayerID),
		Split:       rule,
		At:          spentAt,
	})
	if err != nil {
		writeError(w, domainStatus(err), "Failed to record expense", err)
		return
	}

	dto, err := toExpenseDTO(h.Splits, e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListExpenses returns a group's expenses, optionally filtered by
// category, payer_id, from, and to query parameters.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	filter, err := expenseFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	expenses, err := h.Ledger.Expenses(r.Context(), groupID, filter)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i], err = toExpenseDTO(h.Splits, e)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode expense", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetExpense returns one expense by ID.
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))

	e, err := h.Store.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get expense", err)
		return
	}
	dto, err := toExpenseDTO(h.Splits, e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode expense", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// DeleteExpense removes an expense. Balances recompute without it on the
// next read; settlement runs already persisted are unaffected.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))

	if err := h.Ledger.RemoveExpense(r.Context(), id); err != nil {
		writeError(w, domainStatus(err), "Failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetContribution returns the signed per-member effect of one expense:
// positive for the payer's credit, negative for each share owed.
func (h *Handler) GetContribution(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))

	e, err := h.Store.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get expense", err)
		return
	}
	contribution, err := h.Ledger.Contribution(r.Context(), id)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to compute contribution", err)
		return
	}
	members, err := h.Ledger.Members(r.Context(), e.GroupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list members", err)
		return
	}

	writeJSON(w, http.StatusOK, ContributionDTO{
		ExpenseID: string(e.ID),
		Currency:  string(e.Amount.Currency),
		Entries:   memberAmountEntries(contribution, memberNames(members)),
	})
}

// =============================================================================
// BALANCE AND SETTLEMENT HANDLERS
// =============================================================================

// GetBalances returns every member's net position after paid settlements.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	g, err := h.Ledger.Group(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get group", err)
		return
	}
	members, err := h.Ledger.Members(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list members", err)
		return
	}
	balances, err := h.Ledger.Balances(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to compute balances", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(g, members, balances))
}

// SettleGroup computes the minimal transfer plan for the group's current
// balances and persists it as a new settlement run.
func (h *Handler) SettleGroup(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	run, records, err := h.Ledger.Settle(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to settle group", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementRunDTO(run, records))
}

// GetSettlements returns the group's settlement run history, newest
// first, each run with its recommended transfers. A group never settled
// gets an empty list.
func (h *Handler) GetSettlements(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	runs, recordsByRun, err := h.Ledger.Runs(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get settlements", err)
		return
	}

	dtos := make([]SettlementRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toSettlementRunDTO(run, recordsByRun[run.ID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PaySettlement marks one recommended payment as paid. Paid is terminal;
// paying twice returns 409.
func (h *Handler) PaySettlement(w http.ResponseWriter, r *http.Request) {
	id := groups.SettlementID(chi.URLParam(r, "id"))

	record, err := h.Ledger.MarkPaid(r.Context(), id)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to mark settlement paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(record))
}

// =============================================================================
// REPORT HANDLER
// =============================================================================

// GetReport returns the spending breakdown for a group: totals, per-member
// paid/share/net, and category weights.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	groupID := engine.GroupID(chi.URLParam(r, "id"))

	g, err := h.Ledger.Group(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to get group", err)
		return
	}
	members, err := h.Ledger.Members(r.Context(), groupID)
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list members", err)
		return
	}
	expenses, err := h.Ledger.Expenses(r.Context(), groupID, groups.ExpenseFilter{})
	if err != nil {
		writeError(w, domainStatus(err), "Failed to list expenses", err)
		return
	}

	report, err := h.Reports.GroupReport(g, members, expenses)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

// domainStatus maps domain errors onto HTTP status codes.
func domainStatus(err error) int {
	switch {
	case groups.IsNotFound(err):
		return http.StatusNotFound
	case groups.IsConflict(err):
		return http.StatusConflict
	case engine.IsClientError(err),
		errors.Is(err, groups.ErrNoMembers),
		errors.Is(err, groups.ErrCurrencyMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// expenseFilterFromQuery builds an ExpenseFilter from query parameters.
func expenseFilterFromQuery(r *http.Request) (groups.ExpenseFilter, error) {
	q := r.URL.Query()
	filter := groups.ExpenseFilter{
		Category: q.Get("category"),
		PayerID:  engine.MemberID(q.Get("payer_id")),
	}
	if s := q.Get("from"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			return groups.ExpenseFilter{}, err
		}
		filter.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			return groups.ExpenseFilter{}, err
		}
		filter.To = &t
	}
	return filter, nil
}

// parseTime accepts RFC3339 or a bare date.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

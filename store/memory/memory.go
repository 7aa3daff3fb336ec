// Package memory provides an in-memory groups.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps everything in maps. Listings are sorted on the way out so
// callers see the same deterministic order the SQLite store produces.
type Store struct {
	mu       sync.RWMutex
	groups   map[engine.GroupID]groups.Group
	members  map[engine.GroupID][]groups.Member
	expenses map[engine.ExpenseID]engine.Expense
	runs     map[engine.GroupID][]groups.SettlementRun
	records  map[groups.SettlementID]groups.SettlementRecord
	byRun    map[groups.SettlementRunID][]groups.SettlementID
}

func New() *Store {
	return &Store{
		groups:   make(map[engine.GroupID]groups.Group),
		members:  make(map[engine.GroupID][]groups.Member),
		expenses: make(map[engine.ExpenseID]engine.Expense),
		runs:     make(map[engine.GroupID][]groups.SettlementRun),
		records:  make(map[groups.SettlementID]groups.SettlementRecord),
		byRun:    make(map[groups.SettlementRunID][]groups.SettlementID),
	}
}

// =============================================================================
// GROUPS AND MEMBERS
// =============================================================================

func (s *Store) CreateGroup(_ context.Context, g groups.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createGroupLocked(g)
}

func (s *Store) createGroupLocked(g groups.Group) error {
	if _, exists := s.groups[g.ID]; exists {
		return groups.ErrDuplicateID
	}
	s.groups[g.ID] = g
	return nil
}

func (s *Store) GetGroup(_ context.Context, id engine.GroupID) (groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGroupLocked(id)
}

func (s *Store) getGroupLocked(id engine.GroupID) (groups.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return groups.Group{}, groups.ErrGroupNotFound
	}
	return g, nil
}

func (s *Store) ListGroups(_ context.Context) ([]groups.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listGroupsLocked()
}

func (s *Store) listGroupsLocked() ([]groups.Group, error) {
	out := make([]groups.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) AddMember(_ context.Context, m groups.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMemberLocked(m)
}

func (s *Store) addMemberLocked(m groups.Member) error {
	if _, ok := s.groups[m.GroupID]; !ok {
		return groups.ErrGroupNotFound
	}
	for _, existing := range s.members[m.GroupID] {
		if existing.ID == m.ID {
			return groups.ErrDuplicateID
		}
	}
	s.members[m.GroupID] = append(s.members[m.GroupID], m)
	return nil
}

func (s *Store) ListMembers(_ context.Context, groupID engine.GroupID) ([]groups.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listMembersLocked(groupID)
}

func (s *Store) listMembersLocked(groupID engine.GroupID) ([]groups.Member, error) {
	out := append([]groups.Member(nil), s.members[groupID]...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Store) AddExpense(_ context.Context, e engine.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addExpenseLocked(e)
}

func (s *Store) addExpenseLocked(e engine.Expense) error {
	if _, ok := s.groups[e.GroupID]; !ok {
		return groups.ErrGroupNotFound
	}
	if _, exists := s.expenses[e.ID]; exists {
		return groups.ErrDuplicateID
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) GetExpense(_ context.Context, id engine.ExpenseID) (engine.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getExpenseLocked(id)
}

func (s *Store) getExpenseLocked(id engine.ExpenseID) (engine.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return engine.Expense{}, groups.ErrExpenseNotFound
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listExpensesLocked(groupID, f)
}

func (s *Store) listExpensesLocked(groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	var out []engine.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID && f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, id engine.ExpenseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteExpenseLocked(id)
}

func (s *Store) deleteExpenseLocked(id engine.ExpenseID) error {
	if _, ok := s.expenses[id]; !ok {
		return groups.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func (s *Store) SaveRun(_ context.Context, run groups.SettlementRun, records []groups.SettlementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveRunLocked(run, records)
}

func (s *Store) saveRunLocked(run groups.SettlementRun, records []groups.SettlementRecord) error {
	if _, exists := s.byRun[run.ID]; exists {
		return groups.ErrDuplicateID
	}
	for _, r := range records {
		if _, exists := s.records[r.ID]; exists {
			return groups.ErrDuplicateID
		}
	}

	s.runs[run.GroupID] = append(s.runs[run.GroupID], run)
	ids := make([]groups.SettlementID, len(records))
	for i, r := range records {
		s.records[r.ID] = r
		ids[i] = r.ID
	}
	s.byRun[run.ID] = ids
	return nil
}

func (s *Store) LatestRun(_ context.Context, groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestRunLocked(groupID)
}

func (s *Store) latestRunLocked(groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	runs := s.runs[groupID]
	if len(runs) == 0 {
		return groups.SettlementRun{}, nil, groups.ErrSettlementNotFound
	}
	run := runs[len(runs)-1]

	// Records keep the run's transfer order (largest first), not ID order.
	ids := s.byRun[run.ID]
	records := make([]groups.SettlementRecord, len(ids))
	for i, id := range ids {
		records[i] = s.records[id]
	}
	return run, records, nil
}

func (s *Store) ListRuns(_ context.Context, groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRunsLocked(groupID)
}

func (s *Store) listRunsLocked(groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	stored := s.runs[groupID]
	runs := make([]groups.SettlementRun, 0, len(stored))
	byRun := make(map[groups.SettlementRunID][]groups.SettlementRecord, len(stored))

	// Runs append in settle order; history reads newest first.
	for i := len(stored) - 1; i >= 0; i-- {
		run := stored[i]
		runs = append(runs, run)

		ids := s.byRun[run.ID]
		records := make([]groups.SettlementRecord, len(ids))
		for j, id := range ids {
			records[j] = s.records[id]
		}
		byRun[run.ID] = records
	}
	return runs, byRun, nil
}

func (s *Store) GetSettlement(_ context.Context, id groups.SettlementID) (groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSettlementLocked(id)
}

func (s *Store) getSettlementLocked(id groups.SettlementID) (groups.SettlementRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return groups.SettlementRecord{}, groups.ErrSettlementNotFound
	}
	return r, nil
}

func (s *Store) ListPaidSettlements(_ context.Context, groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPaidSettlementsLocked(groupID)
}

func (s *Store) listPaidSettlementsLocked(groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	var out []groups.SettlementRecord
	for _, r := range s.records {
		if r.GroupID == groupID && r.Status == groups.SettlementPaid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].PaidAt, out[j].PaidAt
		if pi != nil && pj != nil && !pi.Equal(*pj) {
			return pi.Before(*pj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) MarkSettlementPaid(_ context.Context, id groups.SettlementID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markSettlementPaidLocked(id, at)
}

func (s *Store) markSettlementPaidLocked(id groups.SettlementID, at time.Time) error {
	r, ok := s.records[id]
	if !ok {
		return groups.ErrSettlementNotFound
	}
	if r.Status == groups.SettlementPaid {
		return groups.ErrSettlementPaid
	}
	r.Status = groups.SettlementPaid
	r.PaidAt = &at
	s.records[id] = r
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore struct {
	*Store
}

func NewTx() *TxStore {
	return &TxStore{Store: New()}
}

// WithTx executes fn within a transaction.
// For the memory store this is simulated with a snapshot + rollback on error.
func (ts *TxStore) WithTx(_ context.Context, fn func(groups.Store) error) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	snap := ts.snapshot()
	view := &txView{parent: ts.Store}

	if err := fn(view); err != nil {
		ts.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	groups   map[engine.GroupID]groups.Group
	members  map[engine.GroupID][]groups.Member
	expenses map[engine.ExpenseID]engine.Expense
	runs     map[engine.GroupID][]groups.SettlementRun
	records  map[groups.SettlementID]groups.SettlementRecord
	byRun    map[groups.SettlementRunID][]groups.SettlementID
}

func (ts *TxStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		groups:   make(map[engine.GroupID]groups.Group, len(ts.groups)),
		members:  make(map[engine.GroupID][]groups.Member, len(ts.members)),
		expenses: make(map[engine.ExpenseID]engine.Expense, len(ts.expenses)),
		runs:     make(map[engine.GroupID][]groups.SettlementRun, len(ts.runs)),
		records:  make(map[groups.SettlementID]groups.SettlementRecord, len(ts.records)),
		byRun:    make(map[groups.SettlementRunID][]groups.SettlementID, len(ts.byRun)),
	}
	for k, v := range ts.groups {
		snap.groups[k] = v
	}
	for k, v := range ts.members {
		snap.members[k] = append([]groups.Member(nil), v...)
	}
	for k, v := range ts.expenses {
		snap.expenses[k] = v
	}
	for k, v := range ts.runs {
		snap.runs[k] = append([]groups.SettlementRun(nil), v...)
	}
	for k, v := range ts.records {
		snap.records[k] = v
	}
	for k, v := range ts.byRun {
		snap.byRun[k] = append([]groups.SettlementID(nil), v...)
	}
	return snap
}

func (ts *TxStore) restore(snap storeSnapshot) {
	ts.groups = snap.groups
	ts.members = snap.members
	ts.expenses = snap.expenses
	ts.runs = snap.runs
	ts.records = snap.records
	ts.byRun = snap.byRun
}

// txView routes calls to the locked variants; the parent's mutex is held
// for the whole transaction.
type txView struct {
	parent *Store
}

func (v *txView) CreateGroup(_ context.Context, g groups.Group) error {
	return v.parent.createGroupLocked(g)
}

func (v *txView) GetGroup(_ context.Context, id engine.GroupID) (groups.Group, error) {
	return v.parent.getGroupLocked(id)
}

func (v *txView) ListGroups(_ context.Context) ([]groups.Group, error) {
	return v.parent.listGroupsLocked()
}

func (v *txView) AddMember(_ context.Context, m groups.Member) error {
	return v.parent.addMemberLocked(m)
}

func (v *txView) ListMembers(_ context.Context, groupID engine.GroupID) ([]groups.Member, error) {
	return v.parent.listMembersLocked(groupID)
}

func (v *txView) AddExpense(_ context.Context, e engine.Expense) error {
	return v.parent.addExpenseLocked(e)
}

func (v *txView) GetExpense(_ context.Context, id engine.ExpenseID) (engine.Expense, error) {
	return v.parent.getExpenseLocked(id)
}

func (v *txView) ListExpenses(_ context.Context, groupID engine.GroupID, f groups.ExpenseFilter) ([]engine.Expense, error) {
	return v.parent.listExpensesLocked(groupID, f)
}

func (v *txView) DeleteExpense(_ context.Context, id engine.ExpenseID) error {
	return v.parent.deleteExpenseLocked(id)
}

func (v *txView) SaveRun(_ context.Context, run groups.SettlementRun, records []groups.SettlementRecord) error {
	return v.parent.saveRunLocked(run, records)
}

func (v *txView) LatestRun(_ context.Context, groupID engine.GroupID) (groups.SettlementRun, []groups.SettlementRecord, error) {
	return v.parent.latestRunLocked(groupID)
}

func (v *txView) ListRuns(_ context.Context, groupID engine.GroupID) ([]groups.SettlementRun, map[groups.SettlementRunID][]groups.SettlementRecord, error) {
	return v.parent.listRunsLocked(groupID)
}

func (v *txView) GetSettlement(_ context.Context, id groups.SettlementID) (groups.SettlementRecord, error) {
	return v.parent.getSettlementLocked(id)
}

func (v *txView) ListPaidSettlements(_ context.Context, groupID engine.GroupID) ([]groups.SettlementRecord, error) {
	return v.parent.listPaidSettlementsLocked(groupID)
}

func (v *txView) MarkSettlementPaid(_ context.Context, id groups.SettlementID, at time.Time) error {
	return v.parent.markSettlementPaidLocked(id, at)
}

// Interface checks.
var (
	_ groups.Store   = (*Store)(nil)
	_ groups.TxStore = (*TxStore)(nil)
	_ groups.Store   = (*txView)(nil)
)

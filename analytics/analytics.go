/*
Package analytics provides spending reports over a group's expense history.

PURPOSE:
  Demonstrates the second consumer of the settlement engine: the same
  expense records that drive settlement also answer "where did the money
  go?". Everything here is derived; analytics never writes.

KEY DIFFERENCES FROM SETTLEMENT:
  1. Settlement cares about net positions; reports keep paid and owed
     separate, so a member who paid 5000 and consumed 5000 shows both,
     not a meaningless zero.
  2. Settlement must be exact to the cent; category percentages are
     display values and may round.
  3. Settlement folds paid transfers in; reports deliberately ignore
     them. "Total spent on food" should not change because bob paid
     alice back.

REPORT CONTENTS:
  TotalSpent:  Sum of all expense amounts
  PerMember:   Paid (fronted), Share (consumed), Net (Paid - Share)
  ByCategory:  Totals and percentage weight per category

EXAMPLE:
  report, err := analytics.NewAnalyzer().GroupReport(g, members, expenses)
  // report.ByCategory[0] is the biggest category

SEE ALSO:
  - engine/split.go: Owed shares this aggregates
  - groups/ledger.go: Owns the records this reads
*/
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tejaperfect/expensiver1-sub001/engine"
	"github.com/tejaperfect/expensiver1-sub001/groups"
)

// =============================================================================
// EXPENSE CATEGORIES
// =============================================================================

// Categories are free-form strings on expenses; these are the well-known
// ones the built-in scenarios and clients use.
const (
	CategoryFood      = "food"
	CategoryTravel    = "travel"
	CategoryStay      = "stay"
	CategoryUtilities = "utilities"
	CategoryFun       = "fun"

	// Uncategorized buckets expenses with no category set.
	Uncategorized = "uncategorized"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// GroupReport is a full spending breakdown for one group.
type GroupReport struct {
	GroupID      engine.GroupID
	GroupName    string
	Currency     engine.Currency
	ExpenseCount int
	TotalSpent   engine.Amount
	PerMember    []MemberSummary
	ByCategory   []CategorySummary
}

// MemberSummary is one member's row in the report. Net is Paid minus
// Share and matches the settlement balance before any payments.
type MemberSummary struct {
	MemberID engine.MemberID
	Name     string
	Paid     engine.Amount
	Share    engine.Amount
	Net      engine.Amount
}

// CategorySummary is one category's row. Percent is the category's weight
// of total spending, rounded to two decimals for display.
type CategorySummary struct {
	Category string
	Count    int
	Total    engine.Amount
	Percent  decimal.Decimal
}

// =============================================================================
// ANALYZER
// =============================================================================

// Analyzer builds reports. Stateless; the zero value works.
type Analyzer struct{}

// NewAnalyzer creates an analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// GroupReport computes the spending breakdown for one group. Member rows
// follow the given member order, members with no activity included.
// A malformed expense aborts the whole report, same as settlement.
func (a *Analyzer) GroupReport(g groups.Group, members []groups.Member, expenses []engine.Expense) (*GroupReport, error) {
	paid := make(map[engine.MemberID]int64, len(members))
	share := make(map[engine.MemberID]int64, len(members))
	catCents := make(map[string]int64)
	catCount := make(map[string]int)

	checker := engine.Ledger{Members: groups.MemberSet(members)}

	var totalCents int64
	for _, e := range expenses {
		if _, err := checker.ComputeContribution(e); err != nil {
			return nil, err
		}

		paid[e.PayerID] += e.Amount.Cents
		for id, owed := range e.Split.Owed(e.Amount) {
			share[id] += owed.Cents
		}

		cat := e.Category
		if cat == "" {
			cat = Uncategorized
		}
		catCents[cat] += e.Amount.Cents
		catCount[cat]++
		totalCents += e.Amount.Cents
	}

	report := &GroupReport{
		GroupID:      g.ID,
		GroupName:    g.Name,
		Currency:     g.Currency,
		ExpenseCount: len(expenses),
		TotalSpent:   engine.NewAmount(totalCents, g.Currency),
	}

	report.PerMember = make([]MemberSummary, len(members))
	for i, m := range members {
		report.PerMember[i] = MemberSummary{
			MemberID: m.ID,
			Name:     m.Name,
			Paid:     engine.NewAmount(paid[m.ID], g.Currency),
			Share:    engine.NewAmount(share[m.ID], g.Currency),
			Net:      engine.NewAmount(paid[m.ID]-share[m.ID], g.Currency),
		}
	}

	report.ByCategory = make([]CategorySummary, 0, len(catCents))
	total := decimal.NewFromInt(totalCents)
	for cat, cents := range catCents {
		percent := decimal.Zero
		if totalCents > 0 {
			percent = decimal.NewFromInt(cents).Mul(hundred).Div(total).Round(2)
		}
		report.ByCategory = append(report.ByCategory, CategorySummary{
			Category: cat,
			Count:    catCount[cat],
			Total:    engine.NewAmount(cents, g.Currency),
			Percent:  percent,
		})
	}
	// Biggest categories first; name breaks ties so output is stable.
	sort.Slice(report.ByCategory, func(i, j int) bool {
		ci, cj := report.ByCategory[i], report.ByCategory[j]
		if ci.Total.Cents != cj.Total.Cents {
			return ci.Total.Cents > cj.Total.Cents
		}
		return ci.Category < cj.Category
	})

	return report, nil
}

var hundred = decimal.NewFromInt(100)

/*
split.go - Split rules: how one expense divides among participants

PURPOSE:
  Defines the SplitRule interface and its three variants. A split rule
  answers one question: who owes what share of this expense's amount?

VARIANTS:
  EqualSplit:      Amount divided evenly across participants
  ExactSplit:      Caller states each member's share outright
  PercentageSplit: Shares expressed as percentages of the amount

REMAINDER POLICY:
  Integer division cannot always divide evenly: 100.00 across three people
  is 33.33 + 33.33 + 33.34. The leftover minor units are handed out one
  each to the FIRST participants in lexicographic member-id order. The rule
  is arbitrary but fixed: every run of the engine on the same input
  produces the same shares, and the shares always sum to the amount
  exactly. Percentage splits floor each share first and distribute the
  leftover the same way.

VALIDATION:
  Validate checks the rule's internal invariants (non-empty, distinct
  participants, shares summing to the amount or to 100). Member-set
  validation lives in the Ledger, which knows the group. Owed is defined
  only for rules that passed Validate.

EXAMPLE:
  split := engine.PercentageSplit{Shares: map[engine.MemberID]decimal.Decimal{
      "alice": decimal.NewFromInt(60),
      "bob":   decimal.NewFromInt(40),
  }}
  owed := split.Owed(engine.NewAmount(10000, engine.CurrencyINR))
  // owed["alice"].Cents == 6000, owed["bob"].Cents == 4000

SEE ALSO:
  - ledger.go: Turns owed shares into signed contributions
  - factory/split.go: JSON representation of split rules
*/
package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SPLIT RULE - Interface over the three variants
// =============================================================================

type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitExact      SplitType = "exact"
	SplitPercentage SplitType = "percentage"
)

// SplitRule divides an expense amount among participants.
// Implementations are value types; a rule carries configuration only and
// holds no state.
type SplitRule interface {
	// Type identifies the variant for serialization and errors.
	Type() SplitType

	// Participants returns the declared participants, sorted and
	// deduplicated. The payer may or may not be among them.
	Participants() []MemberID

	// Validate checks the rule's internal invariants against the expense
	// amount. Returns an *InvalidSplitError (without the expense id, which
	// the ledger fills in) or nil.
	Validate(total Amount) error

	// Owed returns each participant's exact share in minor units. The map
	// values always sum to total. Defined only after Validate passes.
	Owed(total Amount) map[MemberID]Amount
}

// =============================================================================
// EQUAL SPLIT
// =============================================================================

// EqualSplit divides the amount evenly across Members. Remainder minor
// units go one each to the lexicographically first members.
type EqualSplit struct {
	Members []MemberID
}

func (s EqualSplit) Type() SplitType { return SplitEqual }

func (s EqualSplit) Participants() []MemberID {
	return sortedUniqueIDs(s.Members)
}

func (s EqualSplit) Validate(total Amount) error {
	if len(s.Members) == 0 {
		return &InvalidSplitError{Split: SplitEqual, Err: ErrNoParticipants}
	}
	seen := make(map[MemberID]bool, len(s.Members))
	for _, id := range s.Members {
		if seen[id] {
			return &InvalidSplitError{Split: SplitEqual, Member: id, Err: ErrDuplicateParticipant}
		}
		seen[id] = true
	}
	return nil
}

func (s EqualSplit) Owed(total Amount) map[MemberID]Amount {
	ids := s.Participants()
	n := int64(len(ids))
	base := total.Cents / n
	remainder := total.Cents - base*n

	owed := make(map[MemberID]Amount, len(ids))
	for i, id := range ids {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		owed[id] = Amount{Cents: cents, Currency: total.Currency}
	}
	return owed
}

// =============================================================================
// EXACT SPLIT
// =============================================================================

// ExactSplit states each participant's share outright. Shares must sum to
// the expense amount exactly, in minor units.
type ExactSplit struct {
	Shares map[MemberID]Amount
}

func (s ExactSplit) Type() SplitType { return SplitExact }

func (s ExactSplit) Participants() []MemberID {
	return sortedShareIDs(s.Shares)
}

func (s ExactSplit) Validate(total Amount) error {
	if len(s.Shares) == 0 {
		return &InvalidSplitError{Split: SplitExact, Err: ErrEmptyShares}
	}
	var sum int64
	for _, id := range s.Participants() {
		share := s.Shares[id]
		if share.Currency != total.Currency {
			return &InvalidSplitError{
				Split:  SplitExact,
				Member: id,
				Detail: fmt.Sprintf("share in %s, expense in %s", share.Currency, total.Currency),
				Err:    ErrCurrencyMismatch,
			}
		}
		if share.IsNegative() {
			return &InvalidSplitError{Split: SplitExact, Member: id, Detail: share.String(), Err: ErrNegativeShare}
		}
		sum += share.Cents
	}
	if sum != total.Cents {
		return &InvalidSplitError{
			Split:  SplitExact,
			Detail: fmt.Sprintf("shares sum to %s, amount is %s", Amount{Cents: sum, Currency: total.Currency}, total),
			Err:    ErrShareSumMismatch,
		}
	}
	return nil
}

func (s ExactSplit) Owed(total Amount) map[MemberID]Amount {
	owed := make(map[MemberID]Amount, len(s.Shares))
	for id, share := range s.Shares {
		owed[id] = Amount{Cents: share.Cents, Currency: total.Currency}
	}
	return owed
}

// =============================================================================
// PERCENTAGE SPLIT
// =============================================================================

// PercentageSplit expresses shares as percentages of the amount. Percentages
// must sum to exactly 100. Each share is floored to whole minor units and
// the leftover is distributed like EqualSplit's remainder.
type PercentageSplit struct {
	Shares map[MemberID]decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func (s PercentageSplit) Type() SplitType { return SplitPercentage }

func (s PercentageSplit) Participants() []MemberID {
	ids := make([]MemberID, 0, len(s.Shares))
	for id := range s.Shares {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func (s PercentageSplit) Validate(total Amount) error {
	if len(s.Shares) == 0 {
		return &InvalidSplitError{Split: SplitPercentage, Err: ErrEmptyShares}
	}
	sum := decimal.Zero
	for _, id := range s.Participants() {
		pct := s.Shares[id]
		if pct.IsNegative() {
			return &InvalidSplitError{Split: SplitPercentage, Member: id, Detail: pct.String() + "%", Err: ErrNegativeShare}
		}
		sum = sum.Add(pct)
	}
	if !sum.Equal(hundred) {
		return &InvalidSplitError{
			Split:  SplitPercentage,
			Detail: fmt.Sprintf("percentages sum to %s", sum),
			Err:    ErrPercentSumMismatch,
		}
	}
	return nil
}

func (s PercentageSplit) Owed(total Amount) map[MemberID]Amount {
	ids := s.Participants()
	owed := make(map[MemberID]Amount, len(ids))

	// Floor each share; dividing by 100 is an exact exponent shift, so the
	// only rounding in this function is the explicit Floor.
	var floored int64
	totalCents := decimal.NewFromInt(total.Cents)
	for _, id := range ids {
		cents := totalCents.Mul(s.Shares[id]).Shift(-2).Floor().IntPart()
		owed[id] = Amount{Cents: cents, Currency: total.Currency}
		floored += cents
	}

	// Flooring under-counts by less than one cent per participant.
	remainder := total.Cents - floored
	for _, id := range ids {
		if remainder == 0 {
			break
		}
		owed[id] = owed[id].Add(Amount{Cents: 1, Currency: total.Currency})
		remainder--
	}
	return owed
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func sortIDs(ids []MemberID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortedUniqueIDs(ids []MemberID) []MemberID {
	seen := make(map[MemberID]bool, len(ids))
	out := make([]MemberID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

func sortedShareIDs(shares map[MemberID]Amount) []MemberID {
	ids := make([]MemberID, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

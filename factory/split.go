/*
Package factory provides JSON to Go split rule conversion.

PURPOSE:
  Converts JSON split definitions into engine.SplitRule values. This is
  the one place the wire and storage formats meet the engine's types:
  the HTTP API parses request bodies through it, and the SQLite store
  round-trips the split column through it.

WHY JSON?
  - One schema shared by the API and the database
  - Easy integration with client UIs
  - Splits stay inspectable in the database

JSON SCHEMA:
  {"type": "equal", "members": ["m-1", "m-2", "m-3"]}

  {"type": "exact", "shares": {"m-1": "40.00", "m-2": "60.00"}}

  {"type": "percentage", "shares": {"m-1": "60", "m-2": "40"}}

  Amounts and percentages are decimal strings, never floats. "33.33"
  means exactly 33.33; a float would mean almost that.

VALIDATION:
  The factory validates structure: known type, parseable decimals, whole
  cents. Semantic rules (shares summing to the total, percentages
  summing to 100) belong to the engine and are checked when the split
  meets its expense.

USAGE:
  f := factory.NewSplitFactory()

  // From a request body
  rule, err := f.ParseSplit(body, engine.CurrencyINR)

  // Back out for storage
  stored, err := f.MarshalSplit(rule)

SEE ALSO:
  - engine/split.go: SplitRule definitions and semantic validation
  - store/sqlite/sqlite.go: Persists the marshaled form
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SplitJSON is the JSON representation of a split rule.
type SplitJSON struct {
	Type    string            `json:"type"`
	Members []string          `json:"members,omitempty"` // equal splits
	Shares  map[string]string `json:"shares,omitempty"`  // exact and percentage splits
}

// =============================================================================
// SPLIT FACTORY
// =============================================================================

// SplitFactory converts JSON splits to engine rules and back.
type SplitFactory struct{}

// NewSplitFactory creates a new split factory.
func NewSplitFactory() *SplitFactory {
	return &SplitFactory{}
}

// ParseSplit parses a JSON string into a SplitRule. Exact shares are
// interpreted in the given currency.
func (f *SplitFactory) ParseSplit(jsonStr string, currency engine.Currency) (engine.SplitRule, error) {
	var sj SplitJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse split JSON: %w", err)
	}
	return f.FromJSON(sj, currency)
}

// FromJSON converts SplitJSON to an engine.SplitRule.
func (f *SplitFactory) FromJSON(sj SplitJSON, currency engine.Currency) (engine.SplitRule, error) {
	switch sj.Type {
	case string(engine.SplitEqual):
		members := make([]engine.MemberID, len(sj.Members))
		for i, m := range sj.Members {
			members[i] = engine.MemberID(m)
		}
		return engine.EqualSplit{Members: members}, nil

	case string(engine.SplitExact):
		shares := make(map[engine.MemberID]engine.Amount, len(sj.Shares))
		for m, v := range sj.Shares {
			a, err := engine.ParseAmount(v, currency)
			if err != nil {
				return nil, fmt.Errorf("exact share for %s: %w", m, err)
			}
			shares[engine.MemberID(m)] = a
		}
		return engine.ExactSplit{Shares: shares}, nil

	case string(engine.SplitPercentage):
		shares := make(map[engine.MemberID]decimal.Decimal, len(sj.Shares))
		for m, v := range sj.Shares {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("percentage share for %s: %w", m, err)
			}
			shares[engine.MemberID(m)] = d
		}
		return engine.PercentageSplit{Shares: shares}, nil

	default:
		return nil, fmt.Errorf("unknown split type: %q", sj.Type)
	}
}

// ToJSON converts a SplitRule to SplitJSON.
func (f *SplitFactory) ToJSON(rule engine.SplitRule) (SplitJSON, error) {
	switch s := rule.(type) {
	case engine.EqualSplit:
		members := make([]string, len(s.Members))
		for i, m := range s.Members {
			members[i] = string(m)
		}
		return SplitJSON{Type: string(engine.SplitEqual), Members: members}, nil

	case engine.ExactSplit:
		shares := make(map[string]string, len(s.Shares))
		for m, a := range s.Shares {
			shares[string(m)] = a.Decimal().StringFixed(2)
		}
		return SplitJSON{Type: string(engine.SplitExact), Shares: shares}, nil

	case engine.PercentageSplit:
		shares := make(map[string]string, len(s.Shares))
		for m, d := range s.Shares {
			shares[string(m)] = d.String()
		}
		return SplitJSON{Type: string(engine.SplitPercentage), Shares: shares}, nil

	default:
		return SplitJSON{}, fmt.Errorf("unknown split rule %T", rule)
	}
}

// MarshalSplit serializes a rule for storage.
func (f *SplitFactory) MarshalSplit(rule engine.SplitRule) (string, error) {
	sj, err := f.ToJSON(rule)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(sj)
	if err != nil {
		return "", fmt.Errorf("failed to marshal split: %w", err)
	}
	return string(raw), nil
}

// UnmarshalSplit is ParseSplit under its storage-facing name.
func (f *SplitFactory) UnmarshalSplit(stored string, currency engine.Currency) (engine.SplitRule, error) {
	return f.ParseSplit(stored, currency)
}

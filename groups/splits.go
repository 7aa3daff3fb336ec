/*
splits.go - Canonical split JSON builders

PURPOSE:
  Builds wire-format split definitions for the common split shapes.
  These are the JSON objects clients POST with expenses and the demo
  scenarios seed data through. They construct JSON directly so this
  package stays independent of the factory package that parses it.

USAGE:
  jsonStr := groups.EqualSplitJSON(ids...)
  rule, err := splits.ParseSplit(jsonStr, g.Currency)

SEE ALSO:
  - factory/split.go: Parses these definitions into engine rules
*/
package groups

import (
	"encoding/json"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// EqualSplitJSON returns JSON for an even split between members.
// Remainder cents go to the first members in ID order.
func EqualSplitJSON(members ...engine.MemberID) string {
	ms := make([]string, len(members))
	for i, m := range members {
		ms[i] = string(m)
	}
	sj := map[string]interface{}{
		"type":    string(engine.SplitEqual),
		"members": ms,
	}
	b, _ := json.Marshal(sj)
	return string(b)
}

// ExactSplitJSON returns JSON for fixed per-member shares. Values are
// decimal strings ("40.00") in the group's currency and must sum to
// the expense amount.
func ExactSplitJSON(shares map[engine.MemberID]string) string {
	ss := make(map[string]string, len(shares))
	for m, v := range shares {
		ss[string(m)] = v
	}
	sj := map[string]interface{}{
		"type":   string(engine.SplitExact),
		"shares": ss,
	}
	b, _ := json.Marshal(sj)
	return string(b)
}

// PercentageSplitJSON returns JSON for percentage shares. Values are
// decimal strings ("33.34") and must sum to exactly 100.
func PercentageSplitJSON(shares map[engine.MemberID]string) string {
	ss := make(map[string]string, len(shares))
	for m, v := range shares {
		ss[string(m)] = v
	}
	sj := map[string]interface{}{
		"type":   string(engine.SplitPercentage),
		"shares": ss,
	}
	b, _ := json.Marshal(sj)
	return string(b)
}

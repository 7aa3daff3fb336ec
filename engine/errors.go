/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  The engine performs no I/O, so every error here is a pure validation or
  invariant failure: nothing is transient, nothing is retryable.

ERROR CATEGORIES:
  1. Split errors - One expense's split rule violates its invariant
  2. Ledger errors - The balance handed to the simplifier is inconsistent

PROPAGATION POLICY:
  Both kinds abort the whole computation for the batch they occur in. There
  are no partial results and no best-effort skipping of bad records; a
  silently dropped expense would break the zero-sum guarantee the engine
  exists to provide.

USAGE:
  Callers branch on the structured types or the sentinels:

    var splitErr *engine.InvalidSplitError
    if errors.As(err, &splitErr) {
        // reject the offending expense, point the user at splitErr.ExpenseID
    }

SEE ALSO:
  - split.go: Raises the split sentinels
  - ledger.go: Wraps them into InvalidSplitError
  - simplify.go: Raises UnbalancedLedgerError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNonPositiveAmount is returned when an expense amount is zero or
	// negative. Refunds are modeled as expenses paid in the other direction,
	// never as negative amounts.
	ErrNonPositiveAmount = errors.New("expense amount must be positive")

	// ErrNoParticipants is returned when an equal split names nobody.
	ErrNoParticipants = errors.New("split has no participants")

	// ErrDuplicateParticipant is returned when an equal split lists the same
	// member twice.
	ErrDuplicateParticipant = errors.New("duplicate participant in split")

	// ErrEmptyShares is returned when an exact or percentage split carries an
	// empty share map.
	ErrEmptyShares = errors.New("split has no shares")

	// ErrNegativeShare is returned when a share is negative. Zero shares are
	// allowed (a member explicitly owing nothing), negative ones are not.
	ErrNegativeShare = errors.New("share must not be negative")

	// ErrShareSumMismatch is returned when exact shares do not sum to the
	// expense amount. The comparison is integer-exact in minor units.
	ErrShareSumMismatch = errors.New("shares do not sum to amount")

	// ErrPercentSumMismatch is returned when percentage shares do not sum to
	// exactly 100.
	ErrPercentSumMismatch = errors.New("percentages do not sum to 100")

	// ErrUnknownMember is returned when a payer or participant is not in the
	// supplied member set.
	ErrUnknownMember = errors.New("member not in group")

	// ErrCurrencyMismatch is returned when an exact share or a sibling
	// expense uses a different currency than the expense amount.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrUnbalancedLedger is returned when a balance handed to the simplifier
	// does not sum to zero. This can only happen when a caller bypassed the
	// aggregator or mutated a balance; it is an upstream bug, never corrected
	// silently.
	ErrUnbalancedLedger = errors.New("balances do not sum to zero")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidSplitError reports that a single expense's split rule violated its
// invariant. It names the expense and the specific violation so the caller
// can point the user at the exact malformed entry.
type InvalidSplitError struct {
	ExpenseID ExpenseID
	Split     SplitType
	Member    MemberID // offending member, when one is identifiable
	Detail    string   // human-readable specifics (sums, counts)
	Err       error    // one of the split sentinels above
}

func (e *InvalidSplitError) Error() string {
	msg := fmt.Sprintf("invalid %s split", e.Split)
	if e.ExpenseID != "" {
		msg = fmt.Sprintf("expense %s: %s", e.ExpenseID, msg)
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Err)
	if e.Member != "" {
		msg = fmt.Sprintf("%s (member %s)", msg, e.Member)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *InvalidSplitError) Unwrap() error {
	return e.Err
}

// UnbalancedLedgerError reports the nonzero residual of a balance that was
// expected to sum to zero.
type UnbalancedLedgerError struct {
	Sum Amount
}

func (e *UnbalancedLedgerError) Error() string {
	return fmt.Sprintf("unbalanced ledger: balances sum to %s, want zero", e.Sum)
}

func (e *UnbalancedLedgerError) Unwrap() error {
	return ErrUnbalancedLedger
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvalidSplit returns true if the error stems from a malformed expense.
func IsInvalidSplit(err error) bool {
	var splitErr *InvalidSplitError
	return errors.As(err, &splitErr)
}

// IsUnbalancedLedger returns true if the error indicates an upstream bug
// that produced a non-zero-sum balance.
func IsUnbalancedLedger(err error) bool {
	return errors.Is(err, ErrUnbalancedLedger)
}

// IsClientError returns true if the error is due to invalid caller input
// (as opposed to an internal invariant failure).
func IsClientError(err error) bool {
	return IsInvalidSplit(err)
}

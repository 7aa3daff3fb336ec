package groups

import (
	"errors"
	"fmt"

	"github.com/tejaperfect/expensiver1-sub001/engine"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrGroupNotFound means the group ID does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrMemberNotFound means the member ID does not exist in the group.
	ErrMemberNotFound = errors.New("member not found")

	// ErrExpenseNotFound means the expense ID does not exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrSettlementNotFound means the settlement (or run) does not exist.
	ErrSettlementNotFound = errors.New("settlement not found")

	// ErrDuplicateID means a record with that ID already exists.
	ErrDuplicateID = errors.New("id already exists")

	// ErrNoMembers means the operation needs at least one member.
	ErrNoMembers = errors.New("group has no members")

	// ErrCurrencyMismatch means the expense currency differs from the
	// group's currency. Groups are single-currency.
	ErrCurrencyMismatch = errors.New("currency differs from group currency")

	// ErrSettlementPaid means the settlement was already marked paid.
	// Paid is terminal; marking twice would double-apply the payment.
	ErrSettlementPaid = errors.New("settlement already paid")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// MembershipError reports a member reference that does not belong to the
// group: an unknown payer, participant, or lookup target.
type MembershipError struct {
	GroupID engine.GroupID
	Member  engine.MemberID
	Role    string // "payer", "participant", ...
}

func (e *MembershipError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("%s %q is not a member of group %q", e.Role, e.Member, e.GroupID)
	}
	return fmt.Sprintf("%q is not a member of group %q", e.Member, e.GroupID)
}

func (e *MembershipError) Unwrap() error { return ErrMemberNotFound }

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrExpenseNotFound) ||
		errors.Is(err, ErrSettlementNotFound)
}

// IsConflict reports whether err is a state conflict the caller caused:
// duplicate IDs or double-paying a settlement.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateID) || errors.Is(err, ErrSettlementPaid)
}

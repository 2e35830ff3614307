// Package models defines the core domain entities of the ledger.
//
// Entities reference each other by ID strings rather than pointers to avoid
// circular references. Users are external identities resolved upstream; the
// ledger only ever stores their IDs.
package models

import (
	"time"

	"github.com/splitledger/splitledger/internal/money"
)

// SplitMode selects the allocation strategy for a shared expense.
type SplitMode string

const (
	// SplitEqual divides the total evenly across participants.
	SplitEqual SplitMode = "equal"
	// SplitExact uses caller-supplied per-participant amounts.
	SplitExact SplitMode = "exact"
	// SplitPercentage derives amounts from caller-supplied percentages.
	SplitPercentage SplitMode = "percentage"
)

// Valid reports whether m is a known split mode.
func (m SplitMode) Valid() bool {
	switch m {
	case SplitEqual, SplitExact, SplitPercentage:
		return true
	}
	return false
}

// Expense is a single recorded expense together with its obligations.
// Expenses are immutable once persisted.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label for the expense.
	Description string

	// Amount is the total expense amount.
	Amount money.Money

	// Date is when the expense occurred. Defaults to creation time.
	Date time.Time

	// PayerID is the user who paid the expense.
	PayerID string

	// GroupID is the group this expense belongs to; empty for a
	// personal expense.
	GroupID string

	// CategoryID is an optional per-user category tag.
	CategoryID string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Obligations are the per-participant shares. For any persisted
	// expense their amounts sum to Amount exactly.
	Obligations []Obligation
}

// IsPersonal reports whether the expense has no group attached.
// A personal expense always carries exactly one obligation, owed by the
// payer for the full amount.
func (e *Expense) IsPersonal() bool {
	return e.GroupID == ""
}

// ObligationTotal sums the obligation amounts.
func (e *Expense) ObligationTotal() money.Money {
	total := money.Zero
	for _, o := range e.Obligations {
		total = total.Add(o.Amount)
	}
	return total
}

// Obligation is one participant's owed share of an expense.
type Obligation struct {
	// ID is the unique identifier for the obligation (UUID format).
	ID string

	// ExpenseID is the owning expense.
	ExpenseID string

	// OwedBy is the user who owes this share.
	OwedBy string

	// Mode is the split strategy the share was derived from.
	Mode SplitMode

	// Amount is the owed share, exact to the cent.
	Amount money.Money
}

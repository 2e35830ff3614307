// Package allocator turns an expense total and a split specification into
// per-participant shares. Allocation is a pure computation: it never touches
// storage and is deterministic for a given input order.
//
// Every successful allocation conserves the total exactly: the returned
// share amounts always sum to the input amount to the cent.
package allocator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
)

var (
	// ErrEmptyGroup is returned when a split names no participants.
	ErrEmptyGroup = errors.New("split requires at least one participant")

	// ErrUnknownMode is returned for an unrecognized split mode.
	ErrUnknownMode = errors.New("unknown split mode")

	// ErrNegativeShare is returned when a participant carries a negative
	// amount or percentage. Obligations are never negative.
	ErrNegativeShare = errors.New("split values must not be negative")
)

// SplitMismatchError reports split inputs that do not reconcile with the
// expense total: exact amounts that do not sum to it, or percentages that
// do not sum to 100.
type SplitMismatchError struct {
	Mode models.SplitMode

	// Delta is the shortfall (positive) or excess (negative): for EXACT
	// splits the amount difference, for PERCENTAGE splits the percentage
	// difference.
	Delta decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	if e.Mode == models.SplitPercentage {
		return fmt.Sprintf("percentages must sum to 100, off by %s", e.Delta.String())
	}
	return fmt.Sprintf("split amounts must sum to the expense total, off by %s", e.Delta.StringFixed(2))
}

// Participant is one entry of a split request, in caller order.
// Value carries the exact amount for EXACT splits and the percentage for
// PERCENTAGE splits; it is ignored for EQUAL splits.
type Participant struct {
	UserID string
	Value  decimal.Decimal
}

// Share is one participant's allocated amount.
type Share struct {
	UserID string
	Amount money.Money
}

// percentEpsilon is the tolerance on the percentage sum.
var percentEpsilon = decimal.New(1, -2) // 0.01

// Allocate partitions total across participants according to mode.
// The returned shares preserve participant order.
func Allocate(total money.Money, mode models.SplitMode, participants []Participant) ([]Share, error) {
	if len(participants) == 0 {
		return nil, ErrEmptyGroup
	}
	if !total.IsPositive() {
		return nil, money.ErrInvalidAmount
	}

	switch mode {
	case models.SplitEqual:
		return allocateEqual(total, participants), nil
	case models.SplitExact:
		return allocateExact(total, participants)
	case models.SplitPercentage:
		return allocatePercentage(total, participants)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}

// allocateEqual gives everyone the floor-to-cent share and hands the
// leftover cents, one each, to the leading participants. Input order is
// the tie-break.
func allocateEqual(total money.Money, participants []Participant) []Share {
	parts := total.SplitEven(len(participants))
	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{UserID: p.UserID, Amount: parts[i]}
	}
	return shares
}

func allocateExact(total money.Money, participants []Participant) ([]Share, error) {
	shares := make([]Share, len(participants))
	sum := money.Zero
	for i, p := range participants {
		if p.Value.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeShare, p.UserID)
		}
		amount := money.FromDecimal(p.Value)
		shares[i] = Share{UserID: p.UserID, Amount: amount}
		sum = sum.Add(amount)
	}
	if !sum.Equal(total) {
		return nil, &SplitMismatchError{
			Mode:  models.SplitExact,
			Delta: total.Sub(sum).Decimal(),
		}
	}
	return shares, nil
}

// allocatePercentage floors every derived amount to the cent, then
// distributes the leftover cents by descending fractional remainder,
// breaking ties by input order (largest-remainder method).
func allocatePercentage(total money.Money, participants []Participant) ([]Share, error) {
	sumPct := decimal.Zero
	for _, p := range participants {
		if p.Value.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeShare, p.UserID)
		}
		sumPct = sumPct.Add(p.Value)
	}
	delta := decimal.NewFromInt(100).Sub(sumPct)
	if delta.Abs().GreaterThan(percentEpsilon) {
		return nil, &SplitMismatchError{Mode: models.SplitPercentage, Delta: delta}
	}

	n := len(participants)
	cents := make([]int64, n)
	fracs := make([]decimal.Decimal, n)
	var assigned int64
	for i, p := range participants {
		exact := total.Percent(p.Value).Shift(2)
		floor := exact.Floor()
		cents[i] = floor.IntPart()
		fracs[i] = exact.Sub(floor)
		assigned += cents[i]
	}

	// Indices ordered by descending fractional remainder; the stable sort
	// keeps input order on ties.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]].GreaterThan(fracs[order[b]])
	})

	// Reconcile whatever the flooring (and the allowed percentage epsilon)
	// left over, so the shares conserve the total exactly.
	leftover := total.Cents() - assigned
	for k := int64(0); k < leftover; k++ {
		cents[order[k%int64(n)]]++
	}
	for k := int64(0); k < -leftover; k++ {
		cents[order[int64(n)-1-k%int64(n)]]--
	}

	shares := make([]Share, n)
	for i, p := range participants {
		shares[i] = Share{UserID: p.UserID, Amount: money.FromCents(cents[i])}
	}
	return shares, nil
}

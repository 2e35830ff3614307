package models

import "github.com/splitledger/splitledger/internal/money"

// Summary aggregates a user's personal expenses by category.
// Total always equals the sum of all category totals plus Uncategorized,
// independent of how categories partition the expenses.
type Summary struct {
	// ByCategory maps category name to the summed expense amount.
	ByCategory map[string]money.Money

	// Uncategorized is the sum of expenses with no category.
	Uncategorized money.Money

	// Total is the sum of all matching expense amounts.
	Total money.Money
}

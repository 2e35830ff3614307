package models

// Category is a per-user tag for personal expenses.
type Category struct {
	// ID is the unique identifier for the category (UUID format).
	ID string

	// Name is the display name (e.g. "Groceries").
	Name string

	// Description is an optional longer label.
	Description string

	// OwnerID is the user the category belongs to. Categories are
	// scoped per user and never shared.
	OwnerID string
}

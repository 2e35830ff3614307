// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/splitledger/splitledger/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an insert collides with an existing
// row, such as a duplicate group membership.
var ErrAlreadyExists = errors.New("already exists")

// StorageError wraps any persistence failure. A StorageError raised inside
// a write always means the transaction was rolled back; partial ledger
// state is never left behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExpenseFilter narrows personal-expense queries. Zero values mean
// unfiltered; date bounds are inclusive.
type ExpenseFilter struct {
	CategoryID string
	From       time.Time
	To         time.Time
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateExpense persists an expense together with all its obligations
	// in one atomic transaction. Missing IDs and timestamps are filled in.
	// Either everything is written or nothing is.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its obligations.
	// Returns ErrNotFound if it does not exist.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// ListPersonalExpenses returns the user's group-less expenses,
	// newest first, obligations attached.
	ListPersonalExpenses(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error)

	// ListGroupExpenses returns a group's expenses, newest first,
	// obligations attached.
	ListGroupExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// Summarize aggregates the user's personal expenses by category name
	// within the optional inclusive date range.
	Summarize(ctx context.Context, userID string, from, to time.Time) (*models.Summary, error)

	// CreateCategory persists a new category.
	CreateCategory(ctx context.Context, category *models.Category) error

	// GetCategory retrieves a category by ID. Returns ErrNotFound if it
	// does not exist.
	GetCategory(ctx context.Context, id string) (*models.Category, error)

	// ListCategories returns all categories owned by the user.
	ListCategories(ctx context.Context, ownerID string) ([]models.Category, error)

	// CreateGroup persists a group and its initial memberships atomically.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members. Returns ErrNotFound if
	// it does not exist.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// ListGroups returns every group the user belongs to, members
	// attached, newest first.
	ListGroups(ctx context.Context, userID string) ([]models.Group, error)

	// AddGroupMember adds one membership to an existing group. Returns
	// ErrAlreadyExists if the user is already a member.
	AddGroupMember(ctx context.Context, groupID string, member models.Member) error

	// Close releases any resources held by the store.
	Close() error
}

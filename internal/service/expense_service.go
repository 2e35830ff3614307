// Package service orchestrates the split allocator and the ledger store.
// It owns the validation rules that sit between already-authenticated
// callers and persisted ledger state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/splitledger/splitledger/internal/allocator"
	"github.com/splitledger/splitledger/internal/metrics"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// ExpenseService records expenses and serves ledger reads.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates an ExpenseService with the given storage
// backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// ExpenseDraft is a validated-caller request to record an expense.
// GroupID empty means a personal expense; Splits and Mode are ignored for
// those. Date zero defaults to the creation time.
type ExpenseDraft struct {
	PayerID     string
	GroupID     string
	CategoryID  string
	Description string
	Amount      money.Money
	Date        time.Time
	Mode        models.SplitMode
	Splits      []allocator.Participant
}

// CreateExpense validates the draft, allocates obligations, and persists
// everything atomically. A personal expense always gets exactly one
// obligation for the full amount, owed by the payer, so every expense can
// be queried through its splits.
func (s *ExpenseService) CreateExpense(ctx context.Context, draft ExpenseDraft) (*models.Expense, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return nil, ErrMissingDescription
	}
	if !draft.Amount.IsPositive() {
		return nil, money.ErrInvalidAmount
	}

	if draft.CategoryID != "" {
		category, err := s.store.GetCategory(ctx, draft.CategoryID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCategory
		}
		if err != nil {
			return nil, err
		}
		if category.OwnerID != draft.PayerID {
			return nil, ErrInvalidCategory
		}
	}

	mode := draft.Mode
	var obligations []models.Obligation
	if draft.GroupID == "" {
		mode = models.SplitExact
		obligations = []models.Obligation{{
			OwedBy: draft.PayerID,
			Mode:   models.SplitExact,
			Amount: draft.Amount,
		}}
	} else {
		group, err := s.store.GetGroup(ctx, draft.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(draft.PayerID) {
			return nil, ErrNotAMember
		}
		for _, p := range draft.Splits {
			if !group.HasMember(p.UserID) {
				return nil, &InvalidParticipantError{UserID: p.UserID}
			}
		}
		if mode == "" {
			mode = models.SplitEqual
		}

		shares, err := allocator.Allocate(draft.Amount, mode, draft.Splits)
		if err != nil {
			metrics.AllocationFailures.Inc()
			return nil, err
		}
		obligations = make([]models.Obligation, len(shares))
		for i, share := range shares {
			obligations[i] = models.Obligation{
				OwedBy: share.UserID,
				Mode:   mode,
				Amount: share.Amount,
			}
		}
	}

	expense := &models.Expense{
		Description: draft.Description,
		Amount:      draft.Amount,
		Date:        draft.Date,
		PayerID:     draft.PayerID,
		GroupID:     draft.GroupID,
		CategoryID:  draft.CategoryID,
		Obligations: obligations,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "payer_id", draft.PayerID, "error", err)
		return nil, err
	}

	metrics.ExpensesRecorded.WithLabelValues(string(mode)).Inc()
	slog.Info("expense recorded",
		"expense_id", expense.ID,
		"payer_id", expense.PayerID,
		"amount", expense.Amount,
		"mode", mode,
		"obligations", len(expense.Obligations),
	)
	return expense, nil
}

// GetExpense retrieves an expense for a caller who is allowed to see it:
// the payer, any obligation holder, or any member of the expense's group.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if expense.PayerID == userID {
		return expense, nil
	}
	for _, o := range expense.Obligations {
		if o.OwedBy == userID {
			return expense, nil
		}
	}
	if !expense.IsPersonal() {
		group, err := s.store.GetGroup(ctx, expense.GroupID)
		if err != nil {
			return nil, err
		}
		if group.HasMember(userID) {
			return expense, nil
		}
	}
	return nil, ErrNotAMember
}

// ListPersonalExpenses returns the caller's group-less expenses, newest
// first.
func (s *ExpenseService) ListPersonalExpenses(ctx context.Context, userID string, filter storage.ExpenseFilter) ([]models.Expense, error) {
	return s.store.ListPersonalExpenses(ctx, userID, filter)
}

// ListGroupExpenses returns a group's expenses for a member of the group.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, userID, groupID string) ([]models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotAMember
	}
	return s.store.ListGroupExpenses(ctx, groupID)
}

// Summarize aggregates the caller's personal expenses by category over the
// optional inclusive date range.
func (s *ExpenseService) Summarize(ctx context.Context, userID string, from, to time.Time) (*models.Summary, error) {
	summary, err := s.store.Summarize(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	metrics.SummaryQueries.Inc()
	return summary, nil
}

// CreateCategory creates a category owned by the caller.
func (s *ExpenseService) CreateCategory(ctx context.Context, ownerID, name, description string) (*models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	category := &models.Category{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		slog.Error("CreateCategory failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	return category, nil
}

// ListCategories returns the caller's categories.
func (s *ExpenseService) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

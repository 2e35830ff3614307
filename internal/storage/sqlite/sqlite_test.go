package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func personalObligation(userID string, cents int64) models.Obligation {
	return models.Obligation{
		OwedBy: userID,
		Mode:   models.SplitExact,
		Amount: money.FromCents(cents),
	}
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateExpense generates ID and timestamps", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Groceries",
			Amount:      money.FromCents(4250),
			PayerID:     "alice",
			Obligations: []models.Obligation{personalObligation("alice", 4250)},
		}

		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if expense.Date.IsZero() {
			t.Error("Expected Date to default to creation time")
		}
		if expense.Obligations[0].ExpenseID != expense.ID {
			t.Error("Expected obligation to reference the expense")
		}
	})

	t.Run("GetExpense reads back obligations as stored", func(t *testing.T) {
		original := &models.Expense{
			Description: "Dinner",
			Amount:      money.FromCents(10000),
			PayerID:     "alice",
			Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Obligations: []models.Obligation{personalObligation("alice", 10000)},
		}
		if err := store.CreateExpense(ctx, original); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		first, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		second, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}

		if !first.Amount.Equal(original.Amount) {
			t.Errorf("Amount = %s, want %s", first.Amount, original.Amount)
		}
		if !first.Date.Equal(original.Date) {
			t.Errorf("Date = %v, want %v", first.Date, original.Date)
		}
		if len(first.Obligations) != 1 {
			t.Fatalf("expected 1 obligation, got %d", len(first.Obligations))
		}
		if !first.ObligationTotal().Equal(first.Amount) {
			t.Errorf("obligations sum to %s, want %s", first.ObligationTotal(), first.Amount)
		}

		// Idempotent reads: the second fetch is identical, nothing is
		// recomputed.
		if len(second.Obligations) != len(first.Obligations) {
			t.Fatalf("re-read returned %d obligations, want %d", len(second.Obligations), len(first.Obligations))
		}
		for i := range first.Obligations {
			if !second.Obligations[i].Amount.Equal(first.Obligations[i].Amount) {
				t.Errorf("re-read obligation %d = %s, want %s",
					i, second.Obligations[i].Amount, first.Obligations[i].Amount)
			}
		}
	})

	t.Run("GetExpense returns ErrNotFound for missing id", func(t *testing.T) {
		_, err := store.GetExpense(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateExpense rolls back on invalid category reference", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Phantom",
			Amount:      money.FromCents(500),
			PayerID:     "ghost",
			CategoryID:  "no-such-category",
			Obligations: []models.Obligation{personalObligation("ghost", 500)},
		}

		if err := store.CreateExpense(ctx, expense); err == nil {
			t.Fatal("expected foreign key error, got nil")
		}

		// No partial state: neither the expense nor its obligations exist.
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after rollback, got %v", err)
		}
		listed, err := store.ListPersonalExpenses(ctx, "ghost", storage.ExpenseFilter{})
		if err != nil {
			t.Fatalf("ListPersonalExpenses failed: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("expected no expenses after rollback, got %d", len(listed))
		}
	})

	t.Run("CreateExpense rolls back on invalid group reference", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Phantom group expense",
			Amount:      money.FromCents(500),
			PayerID:     "ghost",
			GroupID:     "no-such-group",
			Obligations: []models.Obligation{personalObligation("ghost", 500)},
		}
		if err := store.CreateExpense(ctx, expense); err == nil {
			t.Fatal("expected foreign key error, got nil")
		}

		var storageErr *storage.StorageError
		err := store.CreateExpense(ctx, expense)
		if !errors.As(err, &storageErr) {
			t.Errorf("expected StorageError, got %v", err)
		}
	})
}

func TestSQLiteStoreListingAndSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	food := &models.Category{Name: "Food", OwnerID: "alice"}
	if err := store.CreateCategory(ctx, food); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	travel := &models.Category{Name: "Travel", OwnerID: "alice"}
	if err := store.CreateCategory(ctx, travel); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	day := func(d int) time.Time {
		return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	}
	add := func(desc string, cents int64, categoryID string, date time.Time) {
		t.Helper()
		expense := &models.Expense{
			Description: desc,
			Amount:      money.FromCents(cents),
			PayerID:     "alice",
			CategoryID:  categoryID,
			Date:        date,
			Obligations: []models.Obligation{personalObligation("alice", cents)},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense(%s) failed: %v", desc, err)
		}
	}

	add("lunch", 1250, food.ID, day(1))
	add("train", 3000, travel.ID, day(5))
	add("dinner", 4500, food.ID, day(10))
	add("misc", 999, "", day(15))

	t.Run("ListPersonalExpenses orders by date descending", func(t *testing.T) {
		expenses, err := store.ListPersonalExpenses(ctx, "alice", storage.ExpenseFilter{})
		if err != nil {
			t.Fatalf("ListPersonalExpenses failed: %v", err)
		}
		if len(expenses) != 4 {
			t.Fatalf("expected 4 expenses, got %d", len(expenses))
		}
		for i := 1; i < len(expenses); i++ {
			if expenses[i].Date.After(expenses[i-1].Date) {
				t.Errorf("expenses out of order at %d: %v after %v", i, expenses[i].Date, expenses[i-1].Date)
			}
		}
		for _, e := range expenses {
			if !e.ObligationTotal().Equal(e.Amount) {
				t.Errorf("%s: obligations sum to %s, want %s", e.Description, e.ObligationTotal(), e.Amount)
			}
		}
	})

	t.Run("ListPersonalExpenses filters by category", func(t *testing.T) {
		expenses, err := store.ListPersonalExpenses(ctx, "alice", storage.ExpenseFilter{CategoryID: food.ID})
		if err != nil {
			t.Fatalf("ListPersonalExpenses failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("expected 2 food expenses, got %d", len(expenses))
		}
	})

	t.Run("ListPersonalExpenses filters by inclusive date range", func(t *testing.T) {
		expenses, err := store.ListPersonalExpenses(ctx, "alice", storage.ExpenseFilter{
			From: day(5),
			To:   day(10),
		})
		if err != nil {
			t.Fatalf("ListPersonalExpenses failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("expected 2 expenses in range, got %d", len(expenses))
		}
	})

	t.Run("Summarize groups by category name", func(t *testing.T) {
		summary, err := store.Summarize(ctx, "alice", time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}

		if got := summary.ByCategory["Food"]; !got.Equal(money.FromCents(5750)) {
			t.Errorf("Food total = %s, want 57.50", got)
		}
		if got := summary.ByCategory["Travel"]; !got.Equal(money.FromCents(3000)) {
			t.Errorf("Travel total = %s, want 30.00", got)
		}
		if !summary.Uncategorized.Equal(money.FromCents(999)) {
			t.Errorf("Uncategorized = %s, want 9.99", summary.Uncategorized)
		}
		if !summary.Total.Equal(money.FromCents(9749)) {
			t.Errorf("Total = %s, want 97.49", summary.Total)
		}
	})

	t.Run("Summarize respects date range", func(t *testing.T) {
		summary, err := store.Summarize(ctx, "alice", day(5), day(15))
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		if !summary.Total.Equal(money.FromCents(8499)) {
			t.Errorf("Total = %s, want 84.99", summary.Total)
		}
	})

	t.Run("Summarize for unknown user is empty", func(t *testing.T) {
		summary, err := store.Summarize(ctx, "nobody", time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("Summarize failed: %v", err)
		}
		if len(summary.ByCategory) != 0 || !summary.Total.IsZero() {
			t.Errorf("expected empty summary, got %+v", summary)
		}
	})
}

func TestSQLiteStoreGroupsAndCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup persists members atomically", func(t *testing.T) {
		group := &models.Group{
			Name:        "Roommates",
			Description: "Apartment 4B",
			Members: []models.Member{
				{UserID: "alice", Role: models.RoleAdmin},
				{UserID: "bob", Role: models.RoleMember},
			},
		}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Roommates" {
			t.Errorf("Name = %s, want Roommates", got.Name)
		}
		if len(got.Members) != 2 {
			t.Fatalf("expected 2 members, got %d", len(got.Members))
		}
		if !got.IsAdmin("alice") {
			t.Error("expected alice to be admin")
		}
		if !got.HasMember("bob") || got.IsAdmin("bob") {
			t.Error("expected bob to be a plain member")
		}
	})

	t.Run("AddGroupMember extends membership", func(t *testing.T) {
		group := &models.Group{
			Name:    "Trip",
			Members: []models.Member{{UserID: "carol", Role: models.RoleAdmin}},
		}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if err := store.AddGroupMember(ctx, group.ID, models.Member{UserID: "dave", Role: models.RoleMember}); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if !got.HasMember("dave") {
			t.Error("expected dave to be a member")
		}

		// A second insert of the same membership, as two racing adds would
		// produce, reports the collision instead of a driver error.
		err = store.AddGroupMember(ctx, group.ID, models.Member{UserID: "dave", Role: models.RoleMember})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists on duplicate insert, got %v", err)
		}
	})

	t.Run("ListGroups returns only the user's groups", func(t *testing.T) {
		flat := &models.Group{
			Name: "Flat",
			Members: []models.Member{
				{UserID: "erin", Role: models.RoleAdmin},
				{UserID: "frank", Role: models.RoleMember},
			},
		}
		if err := store.CreateGroup(ctx, flat); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		band := &models.Group{
			Name:    "Band",
			Members: []models.Member{{UserID: "frank", Role: models.RoleAdmin}},
		}
		if err := store.CreateGroup(ctx, band); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		groups, err := store.ListGroups(ctx, "erin")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 1 || groups[0].Name != "Flat" {
			t.Fatalf("expected only Flat for erin, got %+v", groups)
		}
		if len(groups[0].Members) != 2 {
			t.Errorf("expected members attached, got %d", len(groups[0].Members))
		}

		groups, err = store.ListGroups(ctx, "frank")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("expected 2 groups for frank, got %d", len(groups))
		}

		groups, err = store.ListGroups(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("expected no groups, got %d", len(groups))
		}
	})

	t.Run("GetGroup returns ErrNotFound for missing id", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Categories are scoped per owner", func(t *testing.T) {
		if err := store.CreateCategory(ctx, &models.Category{Name: "Books", OwnerID: "alice"}); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
		if err := store.CreateCategory(ctx, &models.Category{Name: "Games", OwnerID: "bob"}); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}

		cats, err := store.ListCategories(ctx, "alice")
		if err != nil {
			t.Fatalf("ListCategories failed: %v", err)
		}
		if len(cats) != 1 || cats[0].Name != "Books" {
			t.Errorf("expected only alice's Books category, got %+v", cats)
		}

		_, err = store.GetCategory(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

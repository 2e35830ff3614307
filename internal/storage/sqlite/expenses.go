package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/money"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateExpense persists the expense row and all obligation rows in a
// single transaction. If any insert fails (a broken group or category
// reference included) the whole write rolls back, so a reader can never
// observe an expense without its full obligation set.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Unix(expense.CreatedAt, 0).UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin create expense", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount_cents, date, payer_id, group_id, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.Description,
		expense.Amount.Cents(),
		expense.Date.Unix(),
		expense.PayerID,
		nullable(expense.GroupID),
		nullable(expense.CategoryID),
		expense.CreatedAt,
	)
	if err != nil {
		return storeErr("insert expense", err)
	}

	for i := range expense.Obligations {
		o := &expense.Obligations[i]
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		o.ExpenseID = expense.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO obligations (id, expense_id, owed_by, split_mode, amount_cents)
			 VALUES (?, ?, ?, ?, ?)`,
			o.ID, o.ExpenseID, o.OwedBy, string(o.Mode), o.Amount.Cents(),
		)
		if err != nil {
			return storeErr("insert obligation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit create expense", err)
	}

	return nil
}

// GetExpense retrieves an expense with its obligations.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount_cents, date, payer_id, group_id, category_id, created_at
		 FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get expense", err)
	}

	if err := s.attachObligations(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListPersonalExpenses returns expenses paid by the user with no group
// attached, filtered and ordered by date descending.
func (s *SQLiteStore) ListPersonalExpenses(ctx context.Context, userID string, filter storage.ExpenseFilter) ([]models.Expense, error) {
	query := `SELECT id, description, amount_cents, date, payer_id, group_id, category_id, created_at
		 FROM expenses WHERE payer_id = ? AND group_id IS NULL`
	args := []any{userID}

	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.To.Unix())
	}
	query += " ORDER BY date DESC, created_at DESC"

	return s.listExpenses(ctx, "list personal expenses", query, args...)
}

// ListGroupExpenses returns a group's expenses ordered by date descending.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	query := `SELECT id, description, amount_cents, date, payer_id, group_id, category_id, created_at
		 FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC`
	return s.listExpenses(ctx, "list group expenses", query, groupID)
}

// Summarize aggregates the user's personal expenses by category name.
// Cents are summed as integers in SQL, so every total is exact; the grand
// total is rebuilt from the parts, which keeps the cross-check invariant
// (total == sum of matching expense amounts) by construction.
func (s *SQLiteStore) Summarize(ctx context.Context, userID string, from, to time.Time) (*models.Summary, error) {
	dateClause := ""
	dateArgs := []any{}
	if !from.IsZero() {
		dateClause += " AND e.date >= ?"
		dateArgs = append(dateArgs, from.Unix())
	}
	if !to.IsZero() {
		dateClause += " AND e.date <= ?"
		dateArgs = append(dateArgs, to.Unix())
	}

	query := `SELECT c.name, SUM(e.amount_cents)
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id
		 WHERE e.payer_id = ? AND e.group_id IS NULL` + dateClause + `
		 GROUP BY c.name`
	args := append([]any{userID}, dateArgs...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("summarize by category", err)
	}
	defer rows.Close()

	summary := &models.Summary{ByCategory: make(map[string]money.Money)}
	total := int64(0)
	for rows.Next() {
		var name string
		var cents int64
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, storeErr("scan category total", err)
		}
		summary.ByCategory[name] = money.FromCents(cents)
		total += cents
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate category totals", err)
	}

	uncatQuery := `SELECT COALESCE(SUM(e.amount_cents), 0)
		 FROM expenses e
		 WHERE e.payer_id = ? AND e.group_id IS NULL AND e.category_id IS NULL` + dateClause
	var uncat int64
	if err := s.db.QueryRowContext(ctx, uncatQuery, args...).Scan(&uncat); err != nil {
		return nil, storeErr("summarize uncategorized", err)
	}

	summary.Uncategorized = money.FromCents(uncat)
	summary.Total = money.FromCents(total + uncat)
	return summary, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		expense    models.Expense
		cents      int64
		date       int64
		groupID    sql.NullString
		categoryID sql.NullString
	)
	err := row.Scan(
		&expense.ID,
		&expense.Description,
		&cents,
		&date,
		&expense.PayerID,
		&groupID,
		&categoryID,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	expense.Amount = money.FromCents(cents)
	expense.Date = time.Unix(date, 0).UTC()
	expense.GroupID = groupID.String
	expense.CategoryID = categoryID.String
	return &expense, nil
}

func (s *SQLiteStore) listExpenses(ctx context.Context, op, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}

	for i := range expenses {
		if err := s.attachObligations(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// attachObligations loads the persisted obligation rows for an expense.
// Obligations are read back as stored, never recomputed.
func (s *SQLiteStore) attachObligations(ctx context.Context, expense *models.Expense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, owed_by, split_mode, amount_cents
		 FROM obligations WHERE expense_id = ? ORDER BY rowid`,
		expense.ID,
	)
	if err != nil {
		return storeErr("get obligations", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o     models.Obligation
			mode  string
			cents int64
		)
		if err := rows.Scan(&o.ID, &o.ExpenseID, &o.OwedBy, &mode, &cents); err != nil {
			return storeErr("scan obligation", err)
		}
		o.Mode = models.SplitMode(mode)
		o.Amount = money.FromCents(cents)
		expense.Obligations = append(expense.Obligations, o)
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate obligations", err)
	}
	return nil
}

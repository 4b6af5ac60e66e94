package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kipesa/kipesa-api/internal/db"
)

// ErrNotFound is returned when a record does not exist for the user.
var ErrNotFound = errors.New("record not found")

// Store persists a user's financial records. Every query is scoped to a
// user id; records of other users are invisible.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateIncomeSource inserts an income source for the user.
func (s *Store) CreateIncomeSource(ctx context.Context, userID string, src IncomeSource) (*IncomeSource, error) {
	src.ID = uuid.New().String()
	src.UserID = userID
	src.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income_sources (id, user_id, name, amount, frequency, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.UserID, src.Name, src.Amount, nullable(src.Frequency),
		nullable(src.Description), src.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting income source: %w", err)
	}
	return &src, nil
}

// ListIncomeSources returns the user's income sources, newest last.
func (s *Store) ListIncomeSources(ctx context.Context, userID string) ([]IncomeSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, amount, frequency, description, created_at
		FROM income_sources WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying income sources: %w", err)
	}
	defer rows.Close()

	var sources []IncomeSource
	for rows.Next() {
		var (
			src        IncomeSource
			freq, desc sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&src.ID, &src.UserID, &src.Name, &src.Amount, &freq, &desc, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning income source: %w", err)
		}
		src.Frequency = freq.String
		src.Description = desc.String
		src.CreatedAt = parseTime(createdAt)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// UpdateIncomeSource rewrites one of the user's income sources.
func (s *Store) UpdateIncomeSource(ctx context.Context, userID, id string, src IncomeSource) (*IncomeSource, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE income_sources SET name = ?, amount = ?, frequency = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		src.Name, src.Amount, nullable(src.Frequency), nullable(src.Description), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating income source: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	src.ID = id
	src.UserID = userID
	return &src, nil
}

// DeleteIncomeSource removes one of the user's income sources.
func (s *Store) DeleteIncomeSource(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "income_sources", userID, id)
}

// CreateExpense inserts an expense for the user.
func (s *Store) CreateExpense(ctx context.Context, userID string, exp Expense) (*Expense, error) {
	exp.ID = uuid.New().String()
	exp.UserID = userID
	exp.CreatedAt = time.Now().UTC()
	if exp.Date.IsZero() {
		exp.Date = exp.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.UserID, exp.Amount, exp.Category, nullable(exp.Description),
		exp.Date.UTC().Format(time.DateTime), exp.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting expense: %w", err)
	}
	return &exp, nil
}

// ListExpenses returns the user's expenses, oldest first.
func (s *Store) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, category, description, date, created_at
		FROM expenses WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var (
			exp             Expense
			desc            sql.NullString
			date, createdAt string
		)
		if err := rows.Scan(&exp.ID, &exp.UserID, &exp.Amount, &exp.Category, &desc, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		exp.Description = desc.String
		exp.Date = parseTime(date)
		exp.CreatedAt = parseTime(createdAt)
		expenses = append(expenses, exp)
	}
	return expenses, rows.Err()
}

// UpdateExpense rewrites one of the user's expenses.
func (s *Store) UpdateExpense(ctx context.Context, userID, id string, exp Expense) (*Expense, error) {
	if exp.Date.IsZero() {
		exp.Date = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses SET amount = ?, category = ?, description = ?, date = ?
		WHERE id = ? AND user_id = ?`,
		exp.Amount, exp.Category, nullable(exp.Description),
		exp.Date.UTC().Format(time.DateTime), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	exp.ID = id
	exp.UserID = userID
	return &exp, nil
}

// DeleteExpense removes one of the user's expenses.
func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "expenses", userID, id)
}

// CreateBudget inserts a budget for the user.
func (s *Store) CreateBudget(ctx context.Context, userID string, b Budget) (*Budget, error) {
	b.ID = uuid.New().String()
	b.UserID = userID
	b.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, amount, category, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Amount, b.Category, b.Period, b.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting budget: %w", err)
	}
	return &b, nil
}

// ListBudgets returns the user's budgets.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, category, period, created_at
		FROM budgets WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var (
			b         Budget
			createdAt string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Amount, &b.Category, &b.Period, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}
		b.CreatedAt = parseTime(createdAt)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpdateBudget rewrites one of the user's budgets.
func (s *Store) UpdateBudget(ctx context.Context, userID, id string, b Budget) (*Budget, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET amount = ?, category = ?, period = ?
		WHERE id = ? AND user_id = ?`,
		b.Amount, b.Category, b.Period, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating budget: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	b.ID = id
	b.UserID = userID
	return &b, nil
}

// DeleteBudget removes one of the user's budgets.
func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "budgets", userID, id)
}

// CreateSavingsGoal inserts a savings goal for the user.
func (s *Store) CreateSavingsGoal(ctx context.Context, userID string, g SavingsGoal) (*SavingsGoal, error) {
	g.ID = uuid.New().String()
	g.UserID = userID
	g.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, user_id, target_amount, description, target_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.TargetAmount, nullable(g.Description),
		g.TargetDate.UTC().Format(time.DateTime), g.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting savings goal: %w", err)
	}
	return &g, nil
}

// ListSavingsGoals returns the user's savings goals.
func (s *Store) ListSavingsGoals(ctx context.Context, userID string) ([]SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, target_amount, description, target_date, created_at
		FROM savings_goals WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying savings goals: %w", err)
	}
	defer rows.Close()

	var goals []SavingsGoal
	for rows.Next() {
		var (
			g                     SavingsGoal
			desc                  sql.NullString
			targetDate, createdAt string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.TargetAmount, &desc, &targetDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning savings goal: %w", err)
		}
		g.Description = desc.String
		g.TargetDate = parseTime(targetDate)
		g.CreatedAt = parseTime(createdAt)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateSavingsGoal rewrites one of the user's savings goals.
func (s *Store) UpdateSavingsGoal(ctx context.Context, userID, id string, g SavingsGoal) (*SavingsGoal, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE savings_goals SET target_amount = ?, description = ?, target_date = ?
		WHERE id = ? AND user_id = ?`,
		g.TargetAmount, nullable(g.Description),
		g.TargetDate.UTC().Format(time.DateTime), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating savings goal: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	g.ID = id
	g.UserID = userID
	return &g, nil
}

// DeleteSavingsGoal removes one of the user's savings goals.
func (s *Store) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "savings_goals", userID, id)
}

// Summarize aggregates the user's records.
func (s *Store) Summarize(ctx context.Context, userID string) (*Summary, error) {
	summary := &Summary{ExpensesByCategory: make(map[string]int64)}

	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM income_sources WHERE user_id = ?",
		userID).Scan(&summary.TotalIncome)
	if err != nil {
		return nil, fmt.Errorf("summing income: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) FROM expenses
		WHERE user_id = ? GROUP BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("summing expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			total    int64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("scanning expense total: %w", err)
		}
		summary.ExpensesByCategory[category] = total
		summary.TotalExpenses += total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM budgets WHERE user_id = ?", userID).Scan(&summary.BudgetCount)
	if err != nil {
		return nil, fmt.Errorf("counting budgets: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM savings_goals WHERE user_id = ?", userID).Scan(&summary.SavingsGoalCount)
	if err != nil {
		return nil, fmt.Errorf("counting savings goals: %w", err)
	}
	return summary, nil
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteOwned removes one row from table if it belongs to the user.
func (s *Store) deleteOwned(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// Package finance stores the financial records a user tracks: income
// sources, expenses, budgets and savings goals. Amounts are whole
// Tanzanian Shillings.
package finance

import "time"

// IncomeSource is a recurring or one-off source of income.
type IncomeSource struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Amount      int64     `json:"amount"`
	Frequency   string    `json:"frequency,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expense is a single spend event.
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int64     `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Budget caps spending for a category over a period.
type Budget struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Category  string    `json:"category"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// SavingsGoal is a target amount to reach by a date.
type SavingsGoal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TargetAmount int64     `json:"target_amount"`
	Description  string    `json:"description,omitempty"`
	TargetDate   time.Time `json:"target_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary aggregates a user's records for a quick overview.
type Summary struct {
	TotalIncome        int64            `json:"total_income"`
	TotalExpenses      int64            `json:"total_expenses"`
	ExpensesByCategory map[string]int64 `json:"expenses_by_category"`
	BudgetCount        int              `json:"budget_count"`
	SavingsGoalCount   int              `json:"savings_goal_count"`
}

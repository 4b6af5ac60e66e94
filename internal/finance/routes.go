package finance

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kipesa/kipesa-api/internal/auth"
)

func internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("finance: %s: %v", op, err)
	http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
}

// RegisterRoutes mounts the finance API routes. Every route requires an
// authenticated user; records are scoped to that user.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/finance", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/income-sources", handleCreateIncomeSource(store))
		r.Get("/income-sources", handleListIncomeSources(store))
		r.Put("/income-sources/{id}", handleUpdateIncomeSource(store))
		r.Delete("/income-sources/{id}", handleDelete(store.DeleteIncomeSource))

		r.Post("/expenses", handleCreateExpense(store))
		r.Get("/expenses", handleListExpenses(store))
		r.Put("/expenses/{id}", handleUpdateExpense(store))
		r.Delete("/expenses/{id}", handleDelete(store.DeleteExpense))

		r.Post("/budgets", handleCreateBudget(store))
		r.Get("/budgets", handleListBudgets(store))
		r.Put("/budgets/{id}", handleUpdateBudget(store))
		r.Delete("/budgets/{id}", handleDelete(store.DeleteBudget))

		r.Post("/savings-goals", handleCreateSavingsGoal(store))
		r.Get("/savings-goals", handleListSavingsGoals(store))
		r.Put("/savings-goals/{id}", handleUpdateSavingsGoal(store))
		r.Delete("/savings-goals/{id}", handleDelete(store.DeleteSavingsGoal))

		r.Get("/summary", handleSummary(store))
	})
}

func handleCreateIncomeSource(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var src IncomeSource
		if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if src.Name == "" {
			http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
			return
		}
		if src.Amount <= 0 {
			http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
			return
		}

		created, err := store.CreateIncomeSource(r.Context(), auth.UserID(r.Context()), src)
		if err != nil {
			internalError(w, "creating income source", err)
			return
		}
		writeCreated(w, created)
	}
}

func handleListIncomeSources(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := store.ListIncomeSources(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			internalError(w, "listing income sources", err)
			return
		}
		if sources == nil {
			sources = []IncomeSource{}
		}
		writeOK(w, sources)
	}
}

func handleCreateExpense(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var exp Expense
		if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if exp.Amount <= 0 {
			http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
			return
		}
		if exp.Category == "" {
			http.Error(w, `{"error":"category is required"}`, http.StatusBadRequest)
			return
		}

		created, err := store.CreateExpense(r.Context(), auth.UserID(r.Context()), exp)
		if err != nil {
			internalError(w, "creating expense", err)
			return
		}
		writeCreated(w, created)
	}
}

func handleListExpenses(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expenses, err := store.ListExpenses(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			internalError(w, "listing expenses", err)
			return
		}
		if expenses == nil {
			expenses = []Expense{}
		}
		writeOK(w, expenses)
	}
}

func handleCreateBudget(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if b.Amount <= 0 {
			http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
			return
		}
		if b.Category == "" || b.Period == "" {
			http.Error(w, `{"error":"category and period are required"}`, http.StatusBadRequest)
			return
		}

		created, err := store.CreateBudget(r.Context(), auth.UserID(r.Context()), b)
		if err != nil {
			internalError(w, "creating budget", err)
			return
		}
		writeCreated(w, created)
	}
}

func handleListBudgets(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budgets, err := store.ListBudgets(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			internalError(w, "listing budgets", err)
			return
		}
		if budgets == nil {
			budgets = []Budget{}
		}
		writeOK(w, budgets)
	}
}

func handleCreateSavingsGoal(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g SavingsGoal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if g.TargetAmount <= 0 {
			http.Error(w, `{"error":"target_amount must be positive"}`, http.StatusBadRequest)
			return
		}
		if g.TargetDate.IsZero() {
			http.Error(w, `{"error":"target_date is required"}`, http.StatusBadRequest)
			return
		}

		created, err := store.CreateSavingsGoal(r.Context(), auth.UserID(r.Context()), g)
		if err != nil {
			internalError(w, "creating savings goal", err)
			return
		}
		writeCreated(w, created)
	}
}

func handleListSavingsGoals(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		goals, err := store.ListSavingsGoals(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			internalError(w, "listing savings goals", err)
			return
		}
		if goals == nil {
			goals = []SavingsGoal{}
		}
		writeOK(w, goals)
	}
}

func handleUpdateIncomeSource(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var src IncomeSource
		if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if src.Name == "" || src.Amount <= 0 {
			http.Error(w, `{"error":"name and a positive amount are required"}`, http.StatusBadRequest)
			return
		}

		updated, err := store.UpdateIncomeSource(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), src)
		writeUpdateResult(w, updated, err)
	}
}

func handleUpdateExpense(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var exp Expense
		if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if exp.Amount <= 0 || exp.Category == "" {
			http.Error(w, `{"error":"category and a positive amount are required"}`, http.StatusBadRequest)
			return
		}

		updated, err := store.UpdateExpense(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), exp)
		writeUpdateResult(w, updated, err)
	}
}

func handleUpdateBudget(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if b.Amount <= 0 || b.Category == "" || b.Period == "" {
			http.Error(w, `{"error":"category, period and a positive amount are required"}`, http.StatusBadRequest)
			return
		}

		updated, err := store.UpdateBudget(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), b)
		writeUpdateResult(w, updated, err)
	}
}

func handleUpdateSavingsGoal(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var g SavingsGoal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if g.TargetAmount <= 0 || g.TargetDate.IsZero() {
			http.Error(w, `{"error":"target_amount and target_date are required"}`, http.StatusBadRequest)
			return
		}

		updated, err := store.UpdateSavingsGoal(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), g)
		writeUpdateResult(w, updated, err)
	}
}

func writeUpdateResult(w http.ResponseWriter, v any, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, "updating record", err)
		return
	}
	writeOK(w, v)
}

func handleDelete(del func(ctx context.Context, userID, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := del(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			internalError(w, "deleting record", err)
			return
		}
		writeOK(w, map[string]string{"status": "deleted"})
	}
}

func handleSummary(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := store.Summarize(r.Context(), auth.UserID(r.Context()))
		if err != nil {
			internalError(w, "building summary", err)
			return
		}
		writeOK(w, summary)
	}
}

func writeOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(v)
}

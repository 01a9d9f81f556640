package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend-server/src/ai"
	"smartspend-server/src/automation"
	"smartspend-server/src/config"
	"smartspend-server/src/handlers"
	"smartspend-server/src/middleware"
)

type Deps struct {
	Pool      *pgxpool.Pool
	Config    config.Config
	Scheduler *automation.Scheduler
	Clock     automation.Clock
	AI        *ai.Service
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(d.Config.AllowedOrigins))
	r.Use(middleware.DemoModeMiddleware(d.Config.DemoMode))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	secret := []byte(d.Config.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(d.Pool, d.Config, d.Scheduler))
		r.Post("/register", handlers.Register(d.Pool, d.Config, d.Scheduler))
		r.Post("/logout", handlers.Logout(d.Config, d.Scheduler))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(secret), middleware.AutomationSessionMiddleware(d.Scheduler)).Group(func(r chi.Router) {
			// User
			r.Get("/me", handlers.GetMe(d.Pool))
			r.Post("/me/change-password", handlers.ChangePassword(d.Pool))
			r.Delete("/me", handlers.DeleteMe(d.Pool, d.Scheduler))

			// Transactions
			r.Post("/transactions", handlers.CreateTransaction(d.Pool))
			r.Get("/transactions", handlers.GetTransactions(d.Pool, d.Clock))
			r.Delete("/transactions/{transaction_id}", handlers.DeleteTransaction(d.Pool))

			// Recurring rules
			r.Post("/recurring-rules", handlers.CreateRecurringRule(d.Pool, d.Scheduler))
			r.Post("/recurring-rules/run", handlers.RunRecurringRules(d.Scheduler))
			r.Get("/recurring-rules", handlers.GetAllRecurringRules(d.Pool))
			r.Get("/recurring-rules/{rule_id}", handlers.GetRecurringRuleByID(d.Pool))
			r.Delete("/recurring-rules/{rule_id}", handlers.DeleteRecurringRule(d.Pool, d.Scheduler))

			// Budgets
			r.Get("/budgets", handlers.GetAllBudgetsForUser(d.Pool))
			r.Get("/budgets/status", handlers.GetBudgetStatus(d.Pool, d.Clock))
			r.Put("/budgets/{category}", handlers.UpsertBudget(d.Pool))
			r.Delete("/budgets/{category}", handlers.DeleteBudget(d.Pool))

			// Summary
			r.Get("/summary", handlers.GetSummary(d.Pool))
			r.Get("/summary/monthly", handlers.GetMonthlySummary(d.Pool, d.Clock))
			r.Get("/summary/categories", handlers.GetCategorySummary(d.Pool))
			r.Get("/summary/daily", handlers.GetDailySummary(d.Pool))

			// AI
			r.Post("/ai/receipt", handlers.AnalyzeReceipt(d.AI))
			r.Get("/ai/insights", handlers.GetInsights(d.Pool, d.AI))
			r.Post("/ai/categorize", handlers.SuggestCategory(d.AI))
		})
	})

	return r
}

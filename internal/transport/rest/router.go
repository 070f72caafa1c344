package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/category"
	"github.com/frahmantamala/finance-ops/internal/expense"
	"github.com/frahmantamala/finance-ops/internal/forecast"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	"github.com/frahmantamala/finance-ops/internal/paymentrun"
	"github.com/frahmantamala/finance-ops/internal/report"
	"github.com/frahmantamala/finance-ops/internal/transport/middleware"
	"github.com/frahmantamala/finance-ops/internal/transport/swagger"
	"github.com/frahmantamala/finance-ops/internal/variance"
)

// Handlers groups every HTTP handler mounted under /api/v1. A nil handler
// leaves its routes unregistered.
type Handlers struct {
	Health     *HealthHandler
	Category   *category.Handler
	Expense    *expense.Handler
	Invoice    *invoice.Handler
	PaymentRun *paymentrun.Handler
	Budget     *budget.Handler
	Aging      *aging.Handler
	Variance   *variance.Handler
	Forecast   *forecast.Handler
	Report     *report.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg *internal.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	router.Get(swagger.SpecPath, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	requireActor := middleware.Authenticate(cfg.Security.JWTSecret, cfg.Security.Issuer, logger)
	require := func(perms ...string) func(http.Handler) http.Handler {
		return middleware.RequirePermissions(logger, perms...)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(cfg.Server.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}

		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Category != nil {
			r.Get("/categories", h.Category.GetCategories)
			r.Get("/categories/{id}", h.Category.GetCategory)
		}

		r.Group(func(pr chi.Router) {
			pr.Use(requireActor)

			if h.Expense != nil {
				pr.Route("/expense-requests", func(er chi.Router) {
					er.Post("/", h.Expense.CreateExpenseRequest)
					er.Get("/", h.Expense.ListExpenseRequests)
					er.Get("/{id}", h.Expense.GetExpenseRequest)
					er.Get("/{id}/history", h.Expense.GetHistory)
					er.Post("/{id}/submit", h.Expense.SubmitExpenseRequest)

					er.Group(func(mr chi.Router) {
						mr.Use(require(internal.PermissionApproveExpenses))
						mr.Post("/{id}/approve", h.Expense.ApproveExpenseRequest)
						mr.Post("/{id}/reject", h.Expense.RejectExpenseRequest)
						mr.Post("/{id}/pay", h.Expense.PayExpenseRequest)
					})
				})
			}

			if h.Invoice != nil {
				pr.Route("/invoices", func(ir chi.Router) {
					ir.Post("/", h.Invoice.CreateInvoice)
					ir.Get("/", h.Invoice.ListInvoices)
					ir.Get("/{id}", h.Invoice.GetInvoice)
					ir.Get("/{id}/history", h.Invoice.GetHistory)

					ir.Group(func(mr chi.Router) {
						mr.Use(require(internal.PermissionApproveInvoices))
						mr.Post("/{id}/approve", h.Invoice.ApproveInvoice)
						mr.Post("/{id}/dispute", h.Invoice.DisputeInvoice)
						mr.Post("/{id}/cancel", h.Invoice.CancelInvoice)
						if h.PaymentRun != nil {
							mr.Post("/approve-pending", h.PaymentRun.ApprovePendingInvoices)
						}
					})

					ir.Group(func(mr chi.Router) {
						mr.Use(require(internal.PermissionProcessPaymentRuns))
						mr.Post("/{id}/pay", h.Invoice.PayInvoice)
					})
				})
			}

			if h.PaymentRun != nil {
				pr.Route("/payment-runs", func(rr chi.Router) {
					rr.Get("/", h.PaymentRun.ListPaymentRuns)
					rr.Get("/{id}", h.PaymentRun.GetPaymentRun)
					rr.Get("/{id}/history", h.PaymentRun.GetHistory)

					rr.Group(func(mr chi.Router) {
						mr.Use(require(internal.PermissionProcessPaymentRuns))
						mr.Post("/", h.PaymentRun.CreatePaymentRun)
						mr.Post("/{id}/invoices", h.PaymentRun.LinkInvoices)
						mr.Post("/{id}/process", h.PaymentRun.ProcessPaymentRun)
					})
				})
			}

			if h.Budget != nil {
				pr.Route("/budgets", func(br chi.Router) {
					br.Get("/", h.Budget.ListBudgets)
					br.Get("/summary", h.Budget.GetSummary)
					br.Get("/{id}", h.Budget.GetBudget)

					br.Group(func(mr chi.Router) {
						mr.Use(require(internal.PermissionManageBudgets))
						mr.Post("/", h.Budget.CreateBudget)
						mr.Put("/{id}/amounts", h.Budget.UpdateAmounts)
						mr.Post("/{id}/activate", h.Budget.ActivateBudget)
						mr.Post("/{id}/close", h.Budget.CloseBudget)
					})
				})
			}

			if h.Aging != nil {
				pr.Get("/aging/payables", h.Aging.GetPayables)
				pr.Get("/aging/receivables", h.Aging.GetReceivables)
				pr.Get("/aging/trend", h.Aging.GetTrend)
			}
			if h.Variance != nil {
				pr.Get("/variance", h.Variance.GetVariance)
			}
			if h.Forecast != nil {
				pr.Get("/forecast", h.Forecast.GetForecast)
			}
			if h.Report != nil {
				pr.Get("/reports/summary", h.Report.GetSummary)
			}
		})
	})
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/aging"
	approvallogPostgres "github.com/frahmantamala/finance-ops/internal/approvallog/postgres"
	"github.com/frahmantamala/finance-ops/internal/budget"
	budgetPostgres "github.com/frahmantamala/finance-ops/internal/budget/postgres"
	"github.com/frahmantamala/finance-ops/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-ops/internal/category/postgres"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	"github.com/frahmantamala/finance-ops/internal/core/events"
	"github.com/frahmantamala/finance-ops/internal/expense"
	expensePostgres "github.com/frahmantamala/finance-ops/internal/expense/postgres"
	"github.com/frahmantamala/finance-ops/internal/forecast"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	invoicePostgres "github.com/frahmantamala/finance-ops/internal/invoice/postgres"
	"github.com/frahmantamala/finance-ops/internal/notification"
	"github.com/frahmantamala/finance-ops/internal/paymentrun"
	paymentrunPostgres "github.com/frahmantamala/finance-ops/internal/paymentrun/postgres"
	receivablePostgres "github.com/frahmantamala/finance-ops/internal/receivable/postgres"
	"github.com/frahmantamala/finance-ops/internal/report"
	"github.com/frahmantamala/finance-ops/internal/revenue"
	revenuePostgres "github.com/frahmantamala/finance-ops/internal/revenue/postgres"
	"github.com/frahmantamala/finance-ops/internal/transport"
	"github.com/frahmantamala/finance-ops/internal/transport/rest"
	"github.com/frahmantamala/finance-ops/internal/variance"
	"github.com/frahmantamala/finance-ops/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	EventBus   *events.EventBus
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		deps.close()
		os.Exit(1)
	}
	deps.Dispatcher.Start()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("server stopped")
}

// close waits for in-flight event handlers, then abandons queued webhooks and
// releases the pool.
func (d *Dependencies) close() {
	d.EventBus.Drain()
	d.Dispatcher.Shutdown()
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func setupRoutes(deps *Dependencies) error {
	handlers, err := buildHandlers(deps)
	if err != nil {
		return err
	}
	rest.RegisterAllRoutes(deps.Router, handlers, deps.Config, deps.Logger)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Observability.Logging.Level == "debug")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	dispatcher := notification.NewDispatcher(notification.Config{
		WebhookURL: config.Notification.WebhookURL,
		Timeout:    config.Notification.Timeout,
		MaxWorkers: config.Notification.MaxWorkers,
		QueueSize:  config.Notification.QueueSize,
	}, lg)
	notification.NewSubscriber(dispatcher, lg).Register(bus)

	return &Dependencies{
		Config:     config,
		DB:         db,
		Gorm:       gdb,
		Router:     chi.NewRouter(),
		EventBus:   bus,
		Dispatcher: dispatcher,
		Logger:     lg,
	}, nil
}

func buildHandlers(deps *Dependencies) (rest.Handlers, error) {
	cfg, gdb, lg := deps.Config, deps.Gorm, deps.Logger
	tx := database.NewTransactor(gdb)
	base := transport.NewBaseHandler(lg)

	approvalLogs := approvallogPostgres.NewApprovalLogRepository(gdb)
	invoiceRepo := invoicePostgres.NewInvoiceRepository(gdb)

	categoryService := category.NewService(categoryPostgres.NewCategoryRepository(gdb), lg)
	expenseService := expense.NewService(
		expensePostgres.NewExpenseRepository(gdb),
		categoryService,
		approvalLogs,
		tx,
		deps.EventBus,
		cfg.Approval.DefaultThreshold,
		lg,
	)
	invoiceService := invoice.NewService(invoiceRepo, approvalLogs, tx, deps.EventBus, lg)
	paymentRunService := paymentrun.NewService(
		paymentrunPostgres.NewPaymentRunRepository(gdb),
		invoiceRepo,
		approvalLogs,
		tx,
		deps.EventBus,
		cfg.Aging,
		lg,
	)
	budgetService := budget.NewService(budgetPostgres.NewBudgetRepository(gdb), tx, lg)
	agingService := aging.NewService(invoiceRepo, receivablePostgres.NewReceivableRepository(gdb), cfg.Aging, lg)

	revenueService := revenue.NewService(revenuePostgres.NewRevenueRepository(deps.DB), lg)
	source, err := variance.NewActualsSource(cfg.Variance.ActualsSource, revenueService)
	if err != nil {
		return rest.Handlers{}, err
	}
	varianceService := variance.NewService(budgetService, source, lg)
	forecastService := forecast.NewService(revenueService, cfg.Forecast, lg)
	reportService := report.NewService(
		agingService,
		budgetService,
		varianceService,
		forecastService,
		revenueService,
		cfg.Forecast.ExpenseRatio,
		lg,
	)

	return rest.Handlers{
		Health:     rest.NewHealthHandler(map[string]rest.Pinger{"postgres": deps.DB}),
		Category:   category.NewHandler(base, categoryService),
		Expense:    expense.NewHandler(base, expenseService),
		Invoice:    invoice.NewHandler(base, invoiceService),
		PaymentRun: paymentrun.NewHandler(base, paymentRunService),
		Budget:     budget.NewHandler(base, budgetService),
		Aging:      aging.NewHandler(base, agingService),
		Variance:   variance.NewHandler(base, varianceService),
		Forecast:   forecast.NewHandler(base, forecastService),
		Report:     report.NewHandler(base, reportService),
	}, nil
}

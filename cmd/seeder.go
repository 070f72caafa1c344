package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/budget"
	"github.com/frahmantamala/finance-ops/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-ops/internal/category/postgres"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	budgetDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/budget"
	invoiceDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/invoice"
	orderDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/order"
	receivableDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/receivable"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	"github.com/frahmantamala/finance-ops/internal/receivable"
	"github.com/frahmantamala/finance-ops/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		gdb, err := initGorm(db, false)
		if err != nil {
			return err
		}

		return newSeeder(gdb, lg, time.Now().UTC()).run(cmd.Context(), clearData)
	},
}

// seedTables is ordered so that deleting front to back never trips a
// foreign key.
var seedTables = []string{
	"approval_logs",
	"invoices",
	"payment_runs",
	"expense_requests",
	"budgets",
	"receivables",
	"orders",
	"expense_categories",
}

type seeder struct {
	db     *gorm.DB
	logger *slog.Logger
	now    time.Time
}

func newSeeder(db *gorm.DB, logger *slog.Logger, now time.Time) *seeder {
	return &seeder{db: db, logger: logger, now: now}
}

func (s *seeder) run(ctx context.Context, clear bool) error {
	return database.NewTransactor(s.db).WithinTransaction(ctx, func(ctx context.Context) error {
		tx := database.Conn(ctx, s.db)
		if clear {
			for _, table := range seedTables {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
				s.logger.Info("cleared table", "table", table)
			}
		}

		if err := s.categories(ctx); err != nil {
			return fmt.Errorf("failed to seed expense_categories: %w", err)
		}

		steps := []struct {
			name string
			fn   func(*gorm.DB) error
		}{
			{"budgets", s.budgets},
			{"invoices", s.invoices},
			{"receivables", s.receivables},
			{"orders", s.orders},
		}
		for _, step := range steps {
			if err := step.fn(tx); err != nil {
				return fmt.Errorf("failed to seed %s: %w", step.name, err)
			}
		}
		return nil
	})
}

// categories goes through the category service so seeded rows obey the same
// rules as any other category. Names already present are skipped.
func (s *seeder) categories(ctx context.Context) error {
	svc := category.NewService(categoryPostgres.NewCategoryRepository(s.db), s.logger)

	yes := true
	categories := []category.Category{
		{Name: "travel", Description: "business travel and transport", RequiresApproval: &yes, ApprovalThreshold: 5_000_000},
		{Name: "meals", Description: "meals and entertainment", ApprovalThreshold: 1_000_000},
		{Name: "office", Description: "office supplies and equipment", ApprovalThreshold: 2_500_000},
		{Name: "software", Description: "software subscriptions", RequiresApproval: &yes},
		{Name: "other", Description: "miscellaneous expenses", ApprovalThreshold: 1_000_000},
	}

	for i := range categories {
		c := categories[i]
		c.IsActive = true
		if _, err := svc.Create(ctx, &c); err != nil {
			if internal.IsType(err, internal.ErrorTypeConflict) {
				continue
			}
			return err
		}
	}
	return nil
}

// budgets creates active budgets for the current month and the five before
// it, one per department.
func (s *seeder) budgets(tx *gorm.DB) error {
	if empty, err := isEmpty(tx, &budgetDatamodel.Budget{}); err != nil || !empty {
		return err
	}

	current := period.MonthOf(s.now)
	allocations := map[int64]int64{1: 40_000_000, 2: 25_000_000, 3: 15_000_000}

	var rows []budgetDatamodel.Budget
	for back := 5; back >= 0; back-- {
		m := current.AddMonths(-back)
		quarter := m.Quarter()
		for dept, allocated := range allocations {
			rows = append(rows, budgetDatamodel.Budget{
				DepartmentID:    dept,
				Period:          m.String(),
				FiscalYear:      m.Year,
				Quarter:         &quarter,
				AllocatedAmount: allocated,
				SpentAmount:     allocated * int64(60+5*back) / 100,
				CommittedAmount: allocated / 10,
				Status:          budget.StatusActive,
				CreatedBy:       "seed",
			})
		}
	}

	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	s.logger.Info("seeded budgets", "count", len(rows))
	return nil
}

// invoices spreads due dates across every aging bucket.
func (s *seeder) invoices(tx *gorm.DB) error {
	if empty, err := isEmpty(tx, &invoiceDatamodel.Invoice{}); err != nil || !empty {
		return err
	}

	samples := []struct {
		vendor  string
		amount  int64
		dueDays int
		status  string
	}{
		{"Acme Supplies", 3_200_000, 10, invoice.StatusPending},
		{"Northwind Logistics", 7_500_000, -5, invoice.StatusApproved},
		{"Globex Hosting", 12_000_000, -20, invoice.StatusApproved},
		{"Initech Consulting", 4_800_000, -45, invoice.StatusPending},
		{"Umbrella Facilities", 9_900_000, -75, invoice.StatusApproved},
		{"Stark Hardware", 15_250_000, -120, invoice.StatusDisputed},
	}

	year := s.now.Year()
	for i, sample := range samples {
		due := s.now.AddDate(0, 0, sample.dueDays)
		tax := sample.amount * 11 / 100
		row := invoiceDatamodel.Invoice{
			InvoiceNumber: invoice.FormatNumber(year, int64(i+1)),
			VendorName:    sample.vendor,
			Amount:        sample.amount,
			TaxAmount:     tax,
			TotalAmount:   sample.amount + tax,
			IssueDate:     due.AddDate(0, 0, -30),
			DueDate:       due,
			Status:        sample.status,
			CreatedBy:     "seed",
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	s.logger.Info("seeded invoices", "count", len(samples))
	return nil
}

func (s *seeder) receivables(tx *gorm.DB) error {
	if empty, err := isEmpty(tx, &receivableDatamodel.Receivable{}); err != nil || !empty {
		return err
	}

	samples := []struct {
		customer string
		amount   int64
		dueDays  int
	}{
		{"Contoso Retail", 18_000_000, 15},
		{"Fabrikam", 6_400_000, -12},
		{"Tailspin Toys", 11_300_000, -50},
		{"Wingtip Traders", 2_750_000, -95},
	}

	for i, sample := range samples {
		due := s.now.AddDate(0, 0, sample.dueDays)
		row := receivableDatamodel.Receivable{
			CustomerName: sample.customer,
			Reference:    fmt.Sprintf("SO-%d-%04d", s.now.Year(), i+1),
			Amount:       sample.amount,
			IssueDate:    due.AddDate(0, 0, -30),
			DueDate:      due,
			Status:       receivable.StatusOpen,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	s.logger.Info("seeded receivables", "count", len(samples))
	return nil
}

// orders gives the forecast and variance views a year of revenue history.
func (s *seeder) orders(tx *gorm.DB) error {
	if empty, err := isEmpty(tx, &orderDatamodel.Order{}); err != nil || !empty {
		return err
	}

	current := period.MonthOf(s.now)
	var rows []orderDatamodel.Order
	for back := 11; back >= 0; back-- {
		start := current.AddMonths(-back).Start()
		for day := 0; day < 4; day++ {
			status := orderDatamodel.StatusCompleted
			if day == 3 {
				status = orderDatamodel.StatusCancelled
			}
			rows = append(rows, orderDatamodel.Order{
				CustomerName: fmt.Sprintf("customer-%02d", day+1),
				TotalAmount:  int64(9_000_000 + 750_000*(11-back) + 250_000*day),
				Status:       status,
				CreatedAt:    start.AddDate(0, 0, 3+day*7),
			})
		}
	}

	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	s.logger.Info("seeded orders", "count", len(rows))
	return nil
}

func isEmpty(tx *gorm.DB, model any) (bool, error) {
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

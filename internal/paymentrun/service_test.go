package paymentrun_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	approvallogPostgres "github.com/frahmantamala/finance-ops/internal/approvallog/postgres"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	approvallogDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/approvallog"
	invoiceDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/invoice"
	paymentrunDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/paymentrun"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	invoicePostgres "github.com/frahmantamala/finance-ops/internal/invoice/postgres"
	"github.com/frahmantamala/finance-ops/internal/paymentrun"
	paymentrunPostgres "github.com/frahmantamala/finance-ops/internal/paymentrun/postgres"
)

func TestPaymentRun(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Run Suite")
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Payment Run Orchestrator", func() {
	var (
		db       *gorm.DB
		service  *paymentrun.Service
		invoices *invoicePostgres.InvoiceRepository
		auditLog *approvallogPostgres.ApprovalLogRepository
		ctx      context.Context
		treasury internal.Actor
		seq      int
	)

	seedInvoice := func(due time.Time, status string, amount int64) int64 {
		seq++
		row := &invoiceDatamodel.Invoice{
			InvoiceNumber: invoice.FormatNumber(2025, int64(seq)),
			VendorName:    "Acme",
			Amount:        amount,
			TaxAmount:     amount / 10,
			TotalAmount:   amount + amount/10,
			IssueDate:     due.AddDate(0, 0, -30),
			DueDate:       due,
			Status:        status,
		}
		Expect(db.Create(row).Error).To(Succeed())
		return row.ID
	}

	loadInvoice := func(id int64) *invoiceDatamodel.Invoice {
		var row invoiceDatamodel.Invoice
		Expect(db.First(&row, id).Error).To(Succeed())
		return &row
	}

	loadRun := func(id int64) *paymentrunDatamodel.PaymentRun {
		var row paymentrunDatamodel.PaymentRun
		Expect(db.First(&row, id).Error).To(Succeed())
		return &row
	}

	newDraftRun := func() int64 {
		result, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{CutoffDate: day(2025, 1, 1)})
		Expect(err).NotTo(HaveOccurred())
		return result.Run.ID
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&invoiceDatamodel.Invoice{},
			&paymentrunDatamodel.PaymentRun{},
			&approvallogDatamodel.ApprovalLog{},
		)).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		invoices = invoicePostgres.NewInvoiceRepository(db)
		auditLog = approvallogPostgres.NewApprovalLogRepository(db)
		service = paymentrun.NewService(
			paymentrunPostgres.NewPaymentRunRepository(db),
			invoices,
			auditLog,
			database.NewTransactor(db),
			nil,
			internal.AgingConfig{AmountBasis: internal.AmountBasisAmount},
			slogger,
		).WithClock(func() time.Time { return day(2025, 3, 1) })

		ctx = context.Background()
		treasury = internal.Actor{ID: "u-7", Name: "Treasury"}
		seq = 0
	})

	Describe("CreateRun", func() {
		It("selects exactly the open invoices due on or before the cutoff", func() {
			// Given
			first := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			seedInvoice(day(2025, 3, 15), invoice.StatusApproved, 300)
			seedInvoice(day(2025, 1, 15), invoice.StatusPaid, 900)
			seedInvoice(day(2025, 1, 20), invoice.StatusDisputed, 700)

			// When
			result, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{CutoffDate: day(2025, 3, 1)})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(500)))
			Expect(result.Invoices).To(HaveLen(1))
			Expect(result.Invoices[0].ID).To(Equal(first))
			Expect(result.Invoices[0].Bucket).To(Equal("0-30"))
			Expect(result.Run.Status).To(Equal(paymentrun.StatusDraft))
			Expect(result.Run.InvoiceCount).To(Equal(1))
			Expect(result.Run.ScheduledDate).To(Equal(day(2025, 3, 1)))

			Expect(loadInvoice(first).PaymentRunID).To(BeNil())
			Expect(loadInvoice(first).Status).To(Equal(invoice.StatusPending))
		})

		It("includes an invoice due exactly on the cutoff", func() {
			seedInvoice(day(2025, 3, 1), invoice.StatusApproved, 250)

			result, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{CutoffDate: day(2025, 3, 1)})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(250)))
		})

		It("treats the cutoff as a whole calendar day", func() {
			afternoon := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
			sameDay := seedInvoice(afternoon, invoice.StatusPending, 400)
			seedInvoice(day(2025, 3, 2), invoice.StatusPending, 900)

			result, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{CutoffDate: day(2025, 3, 1)})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Invoices).To(HaveLen(1))
			Expect(result.Invoices[0].ID).To(Equal(sameDay))
			Expect(result.Total).To(Equal(int64(400)))
		})

		It("stores the cutoff without its time of day", func() {
			result, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{
				CutoffDate: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Run.CutoffDate).To(Equal(day(2025, 3, 1)))
			Expect(result.Run.ScheduledDate).To(Equal(day(2025, 3, 1)))
		})

		It("requires a cutoff date", func() {
			_, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{})
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})
	})

	Describe("LinkInvoices", func() {
		It("links open invoices and reports the linked sum beside the run total", func() {
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			b := seedInvoice(day(2025, 2, 2), invoice.StatusApproved, 300)

			detail, err := service.LinkInvoices(ctx, runID, []int64{a, b}, treasury)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Invoices).To(HaveLen(2))
			Expect(detail.LinkedCount).To(Equal(2))
			Expect(detail.LinkedAmount).To(Equal(int64(800)))
			Expect(detail.Run.TotalAmount).To(BeZero())
			Expect(loadRun(runID).InvoiceCount).To(BeZero())
			Expect(*loadInvoice(a).PaymentRunID).To(Equal(runID))
		})

		It("keeps the total confirmed at creation", func() {
			// Given
			seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			later := seedInvoice(day(2025, 3, 15), invoice.StatusApproved, 300)
			created, err := service.CreateRun(ctx, treasury, paymentrun.CreateRunDTO{CutoffDate: day(2025, 3, 1)})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Run.TotalAmount).To(Equal(int64(500)))

			// When
			detail, err := service.LinkInvoices(ctx, created.Run.ID, []int64{later}, treasury)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Run.TotalAmount).To(Equal(int64(500)))
			Expect(detail.Run.InvoiceCount).To(Equal(1))
			Expect(detail.LinkedAmount).To(Equal(int64(300)))
			run := loadRun(created.Run.ID)
			Expect(run.TotalAmount).To(Equal(int64(500)))
			Expect(run.InvoiceCount).To(Equal(1))
		})

		It("treats linking to the same run again as a no-op", func() {
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())

			detail, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.LinkedCount).To(Equal(1))
			entries, _ := auditLog.ListByEntity(ctx, approvallog.EntityPaymentRun, runID)
			Expect(entries).To(HaveLen(2))
		})

		It("rejects an invoice already on another draft run", func() {
			first := newDraftRun()
			second := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, first, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.LinkInvoices(ctx, second, []int64{a}, treasury)

			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			Expect(*loadInvoice(a).PaymentRunID).To(Equal(first))
		})

		It("rejects paid invoices without linking anything", func() {
			runID := newDraftRun()
			open := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			paid := seedInvoice(day(2025, 2, 1), invoice.StatusPaid, 500)

			_, err := service.LinkInvoices(ctx, runID, []int64{open, paid}, treasury)

			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
			Expect(loadInvoice(open).PaymentRunID).To(BeNil())
		})

		It("reports unknown invoices and runs as not found", func() {
			runID := newDraftRun()

			_, err := service.LinkInvoices(ctx, runID, []int64{999}, treasury)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())

			_, err = service.LinkInvoices(ctx, 999, []int64{1}, treasury)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})

		It("refuses to link to a processed run", func() {
			runID := newDraftRun()
			_, err := service.ProcessRun(ctx, runID, treasury)
			Expect(err).NotTo(HaveOccurred())
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)

			_, err = service.LinkInvoices(ctx, runID, []int64{a}, treasury)

			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
		})
	})

	Describe("ProcessRun", func() {
		It("marks the run processed and pays every linked invoice", func() {
			// Given
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			b := seedInvoice(day(2025, 2, 2), invoice.StatusApproved, 300)
			untouched := seedInvoice(day(2025, 2, 3), invoice.StatusApproved, 100)
			_, err := service.LinkInvoices(ctx, runID, []int64{a, b}, treasury)
			Expect(err).NotTo(HaveOccurred())

			// When
			result, err := service.ProcessRun(ctx, runID, treasury)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PaidCount).To(Equal(int64(2)))
			Expect(result.ForcePaid).To(BeEmpty())

			run := loadRun(runID)
			Expect(run.Status).To(Equal(paymentrun.StatusProcessed))
			Expect(*run.ProcessedBy).To(Equal("u-7"))
			Expect(run.ProcessedAt).NotTo(BeNil())

			for _, id := range []int64{a, b} {
				inv := loadInvoice(id)
				Expect(inv.Status).To(Equal(invoice.StatusPaid))
				Expect(*inv.PaidBy).To(Equal("u-7"))
				Expect(inv.PaidAt).NotTo(BeNil())
			}
			Expect(loadInvoice(untouched).Status).To(Equal(invoice.StatusApproved))

			entries, _ := auditLog.ListByEntity(ctx, approvallog.EntityPaymentRun, runID)
			Expect(entries[len(entries)-1].Action).To(Equal(approvallog.ActionProcessed))
			Expect(entries[len(entries)-1].NewStatus).To(Equal(paymentrun.StatusProcessed))
		})

		It("force-pays a disputed invoice that sits on the run", func() {
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&invoiceDatamodel.Invoice{}).Where("id = ?", a).Update("status", invoice.StatusDisputed).Error).To(Succeed())

			result, err := service.ProcessRun(ctx, runID, treasury)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ForcePaid).To(ConsistOf(a))
			Expect(loadInvoice(a).Status).To(Equal(invoice.StatusPaid))
		})

		It("raises a transition error on a processed run and changes nothing", func() {
			// Given
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ProcessRun(ctx, runID, treasury)
			Expect(err).NotTo(HaveOccurred())
			before := loadInvoice(a)

			// When
			_, err = service.WithClock(func() time.Time { return day(2025, 4, 1) }).ProcessRun(ctx, runID, treasury)

			// Then
			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
			after := loadInvoice(a)
			Expect(after.Status).To(Equal(invoice.StatusPaid))
			Expect(after.PaidAt.Equal(*before.PaidAt)).To(BeTrue())
		})

		It("rolls back both effects when the invoice update fails", func() {
			// Given
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())

			Expect(db.Callback().Update().Before("gorm:update").Register("test:fail_invoice_updates", func(tx *gorm.DB) {
				if tx.Statement.Table == "invoices" {
					_ = tx.AddError(errors.New("disk I/O error"))
				}
			})).To(Succeed())

			// When
			_, err = service.ProcessRun(ctx, runID, treasury)

			// Then
			Expect(internal.IsType(err, internal.ErrorTypeConsistency)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Retryable()).To(BeTrue())

			Expect(loadRun(runID).Status).To(Equal(paymentrun.StatusDraft))
			Expect(loadRun(runID).ProcessedAt).To(BeNil())
			Expect(loadInvoice(a).Status).To(Equal(invoice.StatusPending))
		})

		It("returns not found for an unknown run", func() {
			_, err := service.ProcessRun(ctx, 404, treasury)
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("ApprovePendingInvoices", func() {
		It("approves every pending invoice and logs each one", func() {
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			b := seedInvoice(day(2025, 2, 2), invoice.StatusPending, 300)
			c := seedInvoice(day(2025, 2, 3), invoice.StatusDisputed, 100)

			count, err := service.ApprovePendingInvoices(ctx, treasury)

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
			Expect(loadInvoice(a).Status).To(Equal(invoice.StatusApproved))
			Expect(*loadInvoice(b).ApprovedBy).To(Equal("u-7"))
			Expect(loadInvoice(c).Status).To(Equal(invoice.StatusDisputed))

			entries, _ := auditLog.ListByEntity(ctx, approvallog.EntityInvoice, a)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].PreviousStatus).To(Equal(invoice.StatusPending))
		})

		It("succeeds with zero when nothing is pending", func() {
			count, err := service.ApprovePendingInvoices(ctx, treasury)

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("Get", func() {
		It("returns the run with its linked invoices", func() {
			runID := newDraftRun()
			a := seedInvoice(day(2025, 2, 1), invoice.StatusPending, 500)
			_, err := service.LinkInvoices(ctx, runID, []int64{a}, treasury)
			Expect(err).NotTo(HaveOccurred())

			detail, err := service.Get(ctx, runID)

			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Invoices).To(HaveLen(1))
			Expect(detail.Invoices[0].ID).To(Equal(a))
			Expect(detail.LinkedCount).To(Equal(1))
			Expect(detail.LinkedAmount).To(Equal(int64(500)))
		})
	})
})

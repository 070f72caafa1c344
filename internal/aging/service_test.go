package aging_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/aging"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	"github.com/frahmantamala/finance-ops/internal/receivable"
)

type mockInvoiceSource struct {
	invoices []*invoice.Invoice
	err      error
}

func (m *mockInvoiceSource) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	return m.invoices, m.err
}

type mockReceivableSource struct {
	receivables []*receivable.Receivable
	err         error
}

func (m *mockReceivableSource) List(ctx context.Context) ([]*receivable.Receivable, error) {
	return m.receivables, m.err
}

var _ = Describe("Aging Service", func() {
	var (
		invoices    *mockInvoiceSource
		receivables *mockReceivableSource
		logger      *slog.Logger
		now         time.Time
	)

	newService := func(basis string) *aging.Service {
		return aging.NewService(invoices, receivables, internal.AgingConfig{AmountBasis: basis, TrendMonths: 3}, logger).
			WithClock(func() time.Time { return now })
	}

	BeforeEach(func() {
		now = day(2025, 2, 15)
		paid := day(2025, 2, 10)
		invoices = &mockInvoiceSource{invoices: []*invoice.Invoice{
			{ID: 1, Amount: 1_000, TaxAmount: 100, TotalAmount: 1_100, DueDate: day(2025, 1, 1), Status: invoice.StatusPending},
			{ID: 2, Amount: 2_000, TaxAmount: 200, TotalAmount: 2_200, DueDate: day(2025, 3, 1), Status: invoice.StatusApproved},
			{ID: 3, Amount: 500, TotalAmount: 500, DueDate: day(2025, 1, 20), Status: invoice.StatusPaid, PaidAt: &paid},
		}}
		receivables = &mockReceivableSource{receivables: []*receivable.Receivable{
			{ID: 1, CustomerName: "Initech", Amount: 700, DueDate: day(2024, 10, 1), Status: receivable.StatusOpen},
		}}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("aggregates payables on amount by default", func() {
		snap, err := newService("").PayablesSnapshot(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Total).To(Equal(int64(3_500)))
		Expect(snap.Amount(aging.Bucket31To60)).To(Equal(int64(1_000)))
		Expect(snap.Outstanding).To(Equal(int64(3_000)))
	})

	It("aggregates on total_amount when configured", func() {
		snap, err := newService(internal.AmountBasisTotal).PayablesSnapshot(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Total).To(Equal(int64(3_800)))
	})

	It("details only open invoices", func() {
		lines, err := newService("").PayablesDetail(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(lines).To(HaveLen(2))
		Expect(lines[0].Days).To(Equal(45))
		Expect(lines[1].Days).To(BeNumerically("<", 0))
	})

	It("buckets receivables", func() {
		snap, err := newService("").ReceivablesSnapshot(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Amount(aging.BucketOver90)).To(Equal(int64(700)))
	})

	It("builds a trend ending in the current month", func() {
		points, err := newService("").Trend(context.Background(), aging.KindPayables, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))
		Expect(points[0].Month).To(Equal("2024-12"))
		Expect(points[2].Month).To(Equal("2025-02"))
		Expect(points[2].Settled).To(Equal(int64(500)))
		Expect(points[1].Outstanding).To(Equal(int64(1_000)))
	})

	It("rejects an unknown trend kind", func() {
		_, err := newService("").Trend(context.Background(), "ledger", 2)

		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})

	It("wraps source failures", func() {
		invoices.err = errors.New("timeout")

		_, err := newService("").PayablesSnapshot(context.Background())

		Expect(internal.IsType(err, internal.ErrorTypeExternal)).To(BeTrue())
	})
})

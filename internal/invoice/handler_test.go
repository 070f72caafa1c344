package invoice_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/finance-ops/internal"
	approvallogPostgres "github.com/frahmantamala/finance-ops/internal/approvallog/postgres"
	"github.com/frahmantamala/finance-ops/internal/core/database"
	approvallogDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/approvallog"
	invoiceDatamodel "github.com/frahmantamala/finance-ops/internal/core/datamodel/invoice"
	"github.com/frahmantamala/finance-ops/internal/invoice"
	invoicePostgres "github.com/frahmantamala/finance-ops/internal/invoice/postgres"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

var _ = Describe("Invoice Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
		actor  internal.Actor
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(internal.ContextWithActor(req.Context(), actor))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) *invoice.Invoice {
		var inv invoice.Invoice
		Expect(json.Unmarshal(w.Body.Bytes(), &inv)).To(Succeed())
		return &inv
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&invoiceDatamodel.Invoice{}, &approvallogDatamodel.ApprovalLog{})).To(Succeed())

		service := invoice.NewService(
			invoicePostgres.NewInvoiceRepository(db),
			approvallogPostgres.NewApprovalLogRepository(db),
			database.NewTransactor(db),
			nil,
			slogger,
		)
		handler := invoice.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Post("/invoices", handler.CreateInvoice)
		router.Get("/invoices", handler.ListInvoices)
		router.Get("/invoices/{id}", handler.GetInvoice)
		router.Get("/invoices/{id}/history", handler.GetHistory)
		router.Post("/invoices/{id}/approve", handler.ApproveInvoice)
		router.Post("/invoices/{id}/dispute", handler.DisputeInvoice)

		actor = internal.Actor{ID: "u-3", Name: "AP Clerk"}
	})

	It("creates sequentially numbered invoices", func() {
		// Given
		body := map[string]interface{}{"vendor_name": "Acme", "amount": 2000, "tax_amount": 200, "issue_date": "2025-05-01T00:00:00Z"}

		// When
		first := do(http.MethodPost, "/invoices", body)
		second := do(http.MethodPost, "/invoices", body)

		// Then
		Expect(first.Code).To(Equal(http.StatusCreated))
		Expect(second.Code).To(Equal(http.StatusCreated))
		Expect(decode(first).InvoiceNumber).To(Equal("INV-2025-000001"))
		Expect(decode(second).InvoiceNumber).To(Equal("INV-2025-000002"))
		Expect(decode(second).TotalAmount).To(Equal(int64(2200)))
	})

	It("approves once and answers 409 on the second attempt", func() {
		created := decode(do(http.MethodPost, "/invoices", map[string]interface{}{"vendor_name": "Acme", "amount": 500}))
		path := "/invoices/" + jsonID(created.ID)

		first := do(http.MethodPost, path+"/approve", nil)
		second := do(http.MethodPost, path+"/approve", nil)

		Expect(first.Code).To(Equal(http.StatusOK))
		Expect(decode(first).Status).To(Equal(invoice.StatusApproved))
		Expect(second.Code).To(Equal(http.StatusConflict))
		Expect(second.Body.String()).To(ContainSubstring("TRANSITION_ERROR"))

		history := do(http.MethodGet, path+"/history", nil)
		var payload struct {
			Entries []map[string]interface{} `json:"entries"`
		}
		Expect(json.Unmarshal(history.Body.Bytes(), &payload)).To(Succeed())
		Expect(payload.Entries).To(HaveLen(2))
	})

	It("refuses a dispute without a reason", func() {
		created := decode(do(http.MethodPost, "/invoices", map[string]interface{}{"vendor_name": "Acme", "amount": 500}))

		w := do(http.MethodPost, "/invoices/"+jsonID(created.ID)+"/dispute", map[string]string{"reason": ""})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("REASON_REQUIRED"))
	})

	It("returns 404 for unknown invoices", func() {
		w := do(http.MethodGet, "/invoices/4242", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("filters the list by status", func() {
		created := decode(do(http.MethodPost, "/invoices", map[string]interface{}{"vendor_name": "Acme", "amount": 500}))
		do(http.MethodPost, "/invoices", map[string]interface{}{"vendor_name": "Globex", "amount": 700})
		do(http.MethodPost, "/invoices/"+jsonID(created.ID)+"/approve", nil)

		w := do(http.MethodGet, "/invoices?status=pending", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var list invoice.ListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Invoices).To(HaveLen(1))
		Expect(list.Invoices[0].VendorName).To(Equal("Globex"))
	})

	It("answers 401 without an actor", func() {
		req := httptest.NewRequest(http.MethodPost, "/invoices", bytes.NewBufferString(`{"vendor_name":"Acme","amount":1}`))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}

package expense_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/category"
	"github.com/frahmantamala/finance-ops/internal/core/events"
	"github.com/frahmantamala/finance-ops/internal/expense"
)

func TestExpense(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Suite")
}

type mockExpenseRepository struct {
	requests    map[int64]*expense.ExpenseRequest
	nextID      int64
	createError error
	getError    error
	updateError error
	updates     int
}

func newMockExpenseRepository() *mockExpenseRepository {
	return &mockExpenseRepository{requests: make(map[int64]*expense.ExpenseRequest), nextID: 1}
}

func (m *mockExpenseRepository) Create(ctx context.Context, e *expense.ExpenseRequest) error {
	if m.createError != nil {
		return m.createError
	}
	e.ID = m.nextID
	m.nextID++
	stored := *e
	m.requests[e.ID] = &stored
	return nil
}

func (m *mockExpenseRepository) GetByID(ctx context.Context, id int64) (*expense.ExpenseRequest, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	e, ok := m.requests[id]
	if !ok {
		return nil, expense.ErrExpenseNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockExpenseRepository) List(ctx context.Context, filter expense.ListFilter) ([]*expense.ExpenseRequest, error) {
	var result []*expense.ExpenseRequest
	for _, e := range m.requests {
		if filter.Status == "" || e.Status == filter.Status {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockExpenseRepository) Update(ctx context.Context, e *expense.ExpenseRequest, expectedStatus string) error {
	if m.updateError != nil {
		return m.updateError
	}
	current, ok := m.requests[e.ID]
	if !ok || current.Status != expectedStatus {
		return expense.ErrStatusChanged
	}
	m.updates++
	stored := *e
	m.requests[e.ID] = &stored
	return nil
}

type mockAuditLog struct {
	entries     []*approvallog.Entry
	appendError error
}

func (m *mockAuditLog) Append(ctx context.Context, entry *approvallog.Entry) error {
	if m.appendError != nil {
		return m.appendError
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditLog) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*approvallog.Entry, error) {
	var result []*approvallog.Entry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			result = append(result, e)
		}
	}
	return result, nil
}

type mockCategories struct {
	categories map[int64]*category.Category
}

func (m *mockCategories) GetByID(ctx context.Context, id int64) (*category.Category, error) {
	cat, ok := m.categories[id]
	if !ok {
		return nil, internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
	}
	return cat, nil
}

type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

var _ = Describe("Expense Service", func() {
	var (
		repo       *mockExpenseRepository
		auditLog   *mockAuditLog
		categories *mockCategories
		publisher  *recordingPublisher
		service    *expense.Service
		ctx        context.Context
		requester  internal.Actor
		approver   internal.Actor
	)

	optOut := false
	travelID := int64(1)
	suppliesID := int64(2)

	seed := func(status string, amount int64) *expense.ExpenseRequest {
		e := &expense.ExpenseRequest{
			RequesterID:  requester.ID,
			DepartmentID: 10,
			Amount:       amount,
			Description:  "Conference travel",
			Status:       status,
			Priority:     expense.PriorityNormal,
		}
		Expect(repo.Create(ctx, e)).To(Succeed())
		return e
	}

	BeforeEach(func() {
		repo = newMockExpenseRepository()
		auditLog = &mockAuditLog{}
		categories = &mockCategories{categories: map[int64]*category.Category{
			travelID:   {ID: travelID, Name: "travel", ApprovalThreshold: 50_000, IsActive: true},
			suppliesID: {ID: suppliesID, Name: "supplies", RequiresApproval: &optOut, IsActive: true},
		}}
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expense.NewService(repo, categories, auditLog, inlineTx{}, publisher, 0, logger)
		ctx = context.Background()
		requester = internal.Actor{ID: "u-1", Name: "Rina Requester"}
		approver = internal.Actor{ID: "u-9", Name: "Adi Approver"}
	})

	Describe("Create", func() {
		It("submits requests at or above the category threshold and logs the submission", func() {
			// Given
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, CategoryID: &travelID, Amount: 50_000, Description: "Flights"}

			// When
			req, err := service.Create(ctx, requester, dto)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusSubmitted))
			Expect(req.Priority).To(Equal(expense.PriorityNormal))
			Expect(auditLog.entries).To(HaveLen(1))
			Expect(auditLog.entries[0].PreviousStatus).To(Equal(expense.StatusDraft))
			Expect(auditLog.entries[0].NewStatus).To(Equal(expense.StatusSubmitted))
			Expect(auditLog.entries[0].ActorName).To(Equal("Rina Requester"))
			Expect(publisher.types()).To(ConsistOf(events.EventTypeExpenseSubmitted))
		})

		It("creates a draft below the threshold without a log entry", func() {
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, CategoryID: &travelID, Amount: 49_999, Description: "Taxi"}

			req, err := service.Create(ctx, requester, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusDraft))
			Expect(auditLog.entries).To(BeEmpty())
		})

		It("creates a draft when the category does not require approval", func() {
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, CategoryID: &suppliesID, Amount: 9_000_000, Description: "Paper"}

			req, err := service.Create(ctx, requester, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusDraft))
		})

		It("submits uncategorised requests with the default threshold of zero", func() {
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, Amount: 1, Description: "Misc"}

			req, err := service.Create(ctx, requester, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusSubmitted))
		})

		It("rejects non-positive amounts before touching the store", func() {
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, Amount: 0, Description: "Nothing"}

			_, err := service.Create(ctx, requester, dto)

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(repo.requests).To(BeEmpty())
		})

		It("reports an unknown category as a validation error", func() {
			unknown := int64(99)
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, CategoryID: &unknown, Amount: 100, Description: "Lunch"}

			_, err := service.Create(ctx, requester, dto)

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("wraps persistence failures with the operation", func() {
			repo.createError = errors.New("disk full")
			dto := expense.CreateExpenseRequestDTO{DepartmentID: 10, Amount: 100, Description: "Lunch"}

			_, err := service.Create(ctx, requester, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeExternal))
			Expect(appErr.Message).To(Equal("failed to create expense request"))
			Expect(errors.Unwrap(err)).To(MatchError("disk full"))
		})
	})

	Describe("Submit", func() {
		It("moves a draft to submitted with previous status draft", func() {
			e := seed(expense.StatusDraft, 1_000)

			req, err := service.Submit(ctx, e.ID, requester)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusSubmitted))
			Expect(auditLog.entries).To(HaveLen(1))
			Expect(auditLog.entries[0].Action).To(Equal(approvallog.ActionSubmitted))
			Expect(auditLog.entries[0].PreviousStatus).To(Equal(expense.StatusDraft))
		})

		It("refuses a draft with a blank description", func() {
			e := seed(expense.StatusDraft, 1_000)
			repo.requests[e.ID].Description = "   "

			_, err := service.Submit(ctx, e.ID, requester)

			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(repo.requests[e.ID].Status).To(Equal(expense.StatusDraft))
		})

		It("refuses anything that is not a draft", func() {
			e := seed(expense.StatusApproved, 1_000)

			_, err := service.Submit(ctx, e.ID, requester)

			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
		})
	})

	Describe("Approve", func() {
		DescribeTable("accepts requests awaiting a decision",
			func(status string) {
				e := seed(status, 75_000)

				req, err := service.Approve(ctx, e.ID, approver, "within budget")

				Expect(err).NotTo(HaveOccurred())
				Expect(req.Status).To(Equal(expense.StatusApproved))
				Expect(*req.ApprovedBy).To(Equal(approver.ID))
				Expect(req.ApprovedAt).NotTo(BeNil())

				entry := auditLog.entries[len(auditLog.entries)-1]
				Expect(entry.PreviousStatus).To(Equal(status))
				Expect(entry.NewStatus).To(Equal(expense.StatusApproved))
				Expect(entry.Comments).To(Equal("within budget"))
				Expect(publisher.types()).To(ContainElement(events.EventTypeExpenseApproved))
			},
			Entry("submitted", expense.StatusSubmitted),
			Entry("pending_approval", expense.StatusPendingApproval),
		)

		DescribeTable("raises a transition error from every other status",
			func(status string) {
				e := seed(status, 75_000)

				_, err := service.Approve(ctx, e.ID, approver, "")

				Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
				Expect(repo.requests[e.ID].Status).To(Equal(status))
				Expect(auditLog.entries).To(BeEmpty())
			},
			Entry("draft", expense.StatusDraft),
			Entry("approved", expense.StatusApproved),
			Entry("rejected", expense.StatusRejected),
			Entry("paid", expense.StatusPaid),
		)

		It("returns not found for an unknown id", func() {
			_, err := service.Approve(ctx, 404, approver, "")
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})

		It("reports a concurrent change as a transition error", func() {
			e := seed(expense.StatusSubmitted, 75_000)
			repo.updateError = expense.ErrStatusChanged

			_, err := service.Approve(ctx, e.ID, approver, "")

			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
		})

		It("does not fail the transition when publishing fails", func() {
			e := seed(expense.StatusSubmitted, 75_000)
			publisher.err = errors.New("bus closed")

			req, err := service.Approve(ctx, e.ID, approver, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusApproved))
		})
	})

	Describe("Reject", func() {
		DescribeTable("rejects blank reasons without mutation",
			func(reason string) {
				e := seed(expense.StatusSubmitted, 75_000)

				_, err := service.Reject(ctx, e.ID, approver, reason)

				Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
				Expect(repo.requests[e.ID].Status).To(Equal(expense.StatusSubmitted))
				Expect(repo.updates).To(Equal(0))
				Expect(auditLog.entries).To(BeEmpty())
			},
			Entry("empty", ""),
			Entry("whitespace", "  \t\n"),
		)

		It("stores the reason and logs the rejection", func() {
			e := seed(expense.StatusSubmitted, 75_000)

			req, err := service.Reject(ctx, e.ID, approver, "missing receipt")

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusRejected))
			Expect(*req.RejectionReason).To(Equal("missing receipt"))
			Expect(req.RejectedAt).NotTo(BeNil())
			Expect(auditLog.entries).To(HaveLen(1))
			Expect(auditLog.entries[0].Action).To(Equal(approvallog.ActionRejected))
			Expect(auditLog.entries[0].Comments).To(Equal("missing receipt"))
		})

		DescribeTable("raises a transition error outside the approval queue",
			func(status string) {
				e := seed(status, 75_000)

				_, err := service.Reject(ctx, e.ID, approver, "too late")

				Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
				Expect(repo.requests[e.ID].Status).To(Equal(status))
				Expect(repo.requests[e.ID].RejectionReason).To(BeNil())
				Expect(auditLog.entries).To(BeEmpty())
			},
			Entry("draft", expense.StatusDraft),
			Entry("approved", expense.StatusApproved),
			Entry("rejected", expense.StatusRejected),
			Entry("paid", expense.StatusPaid),
		)

		It("rejects from pending_approval", func() {
			e := seed(expense.StatusPendingApproval, 75_000)

			req, err := service.Reject(ctx, e.ID, approver, "over budget")

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusRejected))
		})
	})

	Describe("MarkPaid", func() {
		It("pays approved requests", func() {
			e := seed(expense.StatusApproved, 75_000)

			req, err := service.MarkPaid(ctx, e.ID, approver)

			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(expense.StatusPaid))
			Expect(*req.PaidBy).To(Equal(approver.ID))
		})

		It("refuses requests that were never approved", func() {
			e := seed(expense.StatusSubmitted, 75_000)

			_, err := service.MarkPaid(ctx, e.ID, approver)

			Expect(internal.IsType(err, internal.ErrorTypeTransition)).To(BeTrue())
		})
	})

	Describe("full lifecycle", func() {
		It("appends exactly one log entry per transition", func() {
			e := seed(expense.StatusDraft, 75_000)

			_, err := service.Submit(ctx, e.ID, requester)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Approve(ctx, e.ID, approver, "")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.MarkPaid(ctx, e.ID, approver)
			Expect(err).NotTo(HaveOccurred())

			history, err := service.History(ctx, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(3))
			Expect(history[0].NewStatus).To(Equal(expense.StatusSubmitted))
			Expect(history[1].NewStatus).To(Equal(expense.StatusApproved))
			Expect(history[2].NewStatus).To(Equal(expense.StatusPaid))
		})
	})
})

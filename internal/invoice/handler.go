package invoice

import (
	"context"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateInvoiceDTO) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	History(ctx context.Context, id int64) ([]*approvallog.Entry, error)
	Approve(ctx context.Context, id int64, actor internal.Actor, comments string) (*Invoice, error)
	Dispute(ctx context.Context, id int64, actor internal.Actor, reason string) (*Invoice, error)
	Cancel(ctx context.Context, id int64, actor internal.Actor, reason string) (*Invoice, error)
	MarkPaid(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateInvoiceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	inv, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreateInvoice: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	inv, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.Pagination(r)

	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	runID, err := h.QueryInt64(r, "payment_run_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	dueBefore, err := h.QueryDate(r, "due_before")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filter := ListFilter{
		Status:       r.URL.Query().Get("status"),
		VendorName:   r.URL.Query().Get("vendor_name"),
		DepartmentID: departmentID,
		PaymentRunID: runID,
		DueBefore:    dueBefore,
		Limit:        limit,
		Offset:       offset,
	}

	invoices, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Invoices: invoices, Limit: limit, Offset: offset})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.History(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *Handler) ApproveInvoice(w http.ResponseWriter, r *http.Request) {
	var dto DecisionDTO
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error) {
		return h.Service.Approve(ctx, id, actor, dto.Comments)
	})
}

func (h *Handler) DisputeInvoice(w http.ResponseWriter, r *http.Request) {
	var dto ReasonDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error) {
		return h.Service.Dispute(ctx, id, actor, dto.Reason)
	})
}

func (h *Handler) CancelInvoice(w http.ResponseWriter, r *http.Request) {
	var dto ReasonDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error) {
		return h.Service.Cancel(ctx, id, actor, dto.Reason)
	})
}

func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*Invoice, error) {
		return h.Service.MarkPaid(ctx, id, actor)
	})
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, internal.Actor) (*Invoice, error)) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	inv, err := fn(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, inv)
}

package paymentrun

import (
	"context"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	CreateRun(ctx context.Context, actor internal.Actor, dto CreateRunDTO) (*CreateRunResult, error)
	LinkInvoices(ctx context.Context, runID int64, invoiceIDs []int64, actor internal.Actor) (*RunDetail, error)
	ProcessRun(ctx context.Context, runID int64, actor internal.Actor) (*ProcessResult, error)
	ApprovePendingInvoices(ctx context.Context, actor internal.Actor) (int, error)
	Get(ctx context.Context, id int64) (*RunDetail, error)
	List(ctx context.Context, filter ListFilter) ([]*PaymentRun, error)
	History(ctx context.Context, id int64) ([]*approvallog.Entry, error)
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

func (h *Handler) CreatePaymentRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateRunDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.CreateRun(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreatePaymentRun: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetPaymentRun(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	detail, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) ListPaymentRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.Pagination(r)
	runs, err := h.Service.List(r.Context(), ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{PaymentRuns: runs, Limit: limit, Offset: offset})
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

func (h *Handler) LinkInvoices(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto LinkInvoicesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	detail, err := h.Service.LinkInvoices(r.Context(), id, dto.InvoiceIDs, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) ProcessPaymentRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.ProcessRun(r.Context(), id, actor)
	if err != nil {
		h.Logger.Warn("ProcessPaymentRun: service error", "error", err, "payment_run_id", id, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ApprovePendingInvoices(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	count, err := h.Service.ApprovePendingInvoices(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]int{"approved": count})
}

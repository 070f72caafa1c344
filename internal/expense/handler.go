package expense

import (
	"context"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/approvallog"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateExpenseRequestDTO) (*ExpenseRequest, error)
	Get(ctx context.Context, id int64) (*ExpenseRequest, error)
	List(ctx context.Context, filter ListFilter) ([]*ExpenseRequest, error)
	History(ctx context.Context, id int64) ([]*approvallog.Entry, error)
	Submit(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error)
	Approve(ctx context.Context, id int64, actor internal.Actor, comments string) (*ExpenseRequest, error)
	Reject(ctx context.Context, id int64, actor internal.Actor, reason string) (*ExpenseRequest, error)
	MarkPaid(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error)
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

func (h *Handler) CreateExpenseRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateExpenseRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreateExpenseRequest: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetExpenseRequest(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListExpenseRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.Pagination(r)
	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filter := ListFilter{
		Status:       r.URL.Query().Get("status"),
		DepartmentID: departmentID,
		RequesterID:  r.URL.Query().Get("requester_id"),
		Limit:        limit,
		Offset:       offset,
	}

	reqs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{ExpenseRequests: reqs, Limit: limit, Offset: offset})
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

func (h *Handler) SubmitExpenseRequest(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
		return h.Service.Submit(ctx, id, actor)
	})
}

func (h *Handler) ApproveExpenseRequest(w http.ResponseWriter, r *http.Request) {
	var dto DecisionDTO
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
		return h.Service.Approve(ctx, id, actor, dto.Comments)
	})
}

func (h *Handler) RejectExpenseRequest(w http.ResponseWriter, r *http.Request) {
	var dto RejectDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
		return h.Service.Reject(ctx, id, actor, dto.Reason)
	})
}

func (h *Handler) PayExpenseRequest(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*ExpenseRequest, error) {
		return h.Service.MarkPaid(ctx, id, actor)
	})
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, internal.Actor) (*ExpenseRequest, error)) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := fn(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

package budget

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateBudgetDTO) (*Budget, error)
	Get(ctx context.Context, id int64) (*Budget, error)
	List(ctx context.Context, filter ListFilter) ([]*Budget, error)
	UpdateAmounts(ctx context.Context, id int64, actor internal.Actor, dto UpdateAmountsDTO) (*Budget, error)
	Activate(ctx context.Context, id int64, actor internal.Actor) (*Budget, error)
	Close(ctx context.Context, id int64, actor internal.Actor) (*Budget, error)
	Summary(ctx context.Context, filter ListFilter) (Summary, error)
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

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateBudgetDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreateBudget: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, b.ToResponse())
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b.ToResponse())
}

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.Pagination(r)

	filter, err := h.listFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	budgets, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := ListResponse{Budgets: make([]BudgetResponse, len(budgets)), Limit: limit, Offset: offset}
	for i, b := range budgets {
		resp.Budgets[i] = b.ToResponse()
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := h.listFilter(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.Summary(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) UpdateAmounts(w http.ResponseWriter, r *http.Request) {
	var dto UpdateAmountsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.act(w, r, func(ctx context.Context, id int64, actor internal.Actor) (*Budget, error) {
		return h.Service.UpdateAmounts(ctx, id, actor, dto)
	})
}

func (h *Handler) ActivateBudget(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.Activate)
}

func (h *Handler) CloseBudget(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Service.Close)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, internal.Actor) (*Budget, error)) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := fn(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, b.ToResponse())
}

func (h *Handler) listFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		return ListFilter{}, err
	}

	filter := ListFilter{
		DepartmentID: departmentID,
		Period:       q.Get("period"),
		Status:       q.Get("status"),
	}
	if raw := q.Get("fiscal_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return ListFilter{}, internal.NewValidationFieldError("fiscal_year", "fiscal_year must be a number", internal.ErrCodeInvalidPeriod)
		}
		filter.FiscalYear = year
	}
	return filter, nil
}

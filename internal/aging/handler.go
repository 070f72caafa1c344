package aging

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	PayablesSnapshot(ctx context.Context) (Snapshot, error)
	ReceivablesSnapshot(ctx context.Context) (Snapshot, error)
	PayablesDetail(ctx context.Context) ([]DetailLine, error)
	Trend(ctx context.Context, kind string, months int) ([]TrendPoint, error)
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

type PayablesResponse struct {
	Snapshot Snapshot     `json:"snapshot"`
	Invoices []DetailLine `json:"invoices"`
}

func (h *Handler) GetPayables(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.PayablesSnapshot(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	detail, err := h.Service.PayablesDetail(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PayablesResponse{Snapshot: snap, Invoices: detail})
}

func (h *Handler) GetReceivables(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.ReceivablesSnapshot(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = KindPayables
	}
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))

	points, err := h.Service.Trend(r.Context(), kind, months)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"kind": kind, "points": points})
}

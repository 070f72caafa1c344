package variance

import (
	"context"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/core/common/period"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	DefaultRange() (period.Month, period.Month)
	Report(ctx context.Context, from, to period.Month, departmentID *int64) (*Report, error)
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

// GetVariance serves ?from=YYYY-MM&to=YYYY-MM&department_id=N.
func (h *Handler) GetVariance(w http.ResponseWriter, r *http.Request) {
	from, to := h.Service.DefaultRange()
	q := r.URL.Query()

	for name, dst := range map[string]*period.Month{"from": &from, "to": &to} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		m, err := period.ParseMonth(raw)
		if err != nil {
			h.HandleServiceError(w, internal.NewValidationFieldError(name, name+" must be YYYY-MM", internal.ErrCodeInvalidPeriod))
			return
		}
		*dst = m
	}

	departmentID, err := h.QueryInt64(r, "department_id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	report, err := h.Service.Report(r.Context(), from, to, departmentID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

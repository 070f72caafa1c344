package forecast

import (
	"context"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal/transport"
)

type ServiceAPI interface {
	Forecast(ctx context.Context) (*Forecast, error)
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

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.Service.Forecast(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, f)
}

package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/forecast"
	"github.com/frahmantamala/finance-ops/internal/transport"
	"github.com/frahmantamala/finance-ops/internal/transport/middleware"
	"github.com/frahmantamala/finance-ops/internal/transport/rest"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

const secret = "router-test-secret-with-32-bytes-min"

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubForecaster struct{}

func (stubForecaster) Forecast(context.Context) (*forecast.Forecast, error) {
	return &forecast.Forecast{From: "2026-07", To: "2027-03", ExpenseRatio: 0.65}, nil
}

func bearer(perms ...string) string {
	claims := middleware.ActorClaims{
		Name:        "Rin",
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	Expect(err).NotTo(HaveOccurred())
	return "Bearer " + token
}

var _ = Describe("Router", func() {
	var (
		slogger *slog.Logger
		cfg     *internal.Config
		pinger  stubPinger
	)

	newRouter := func() *chi.Mux {
		base := transport.NewBaseHandler(slogger)
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health:   rest.NewHealthHandler(map[string]rest.Pinger{"postgres": pinger}),
			Forecast: forecast.NewHandler(base, stubForecaster{}),
		}, cfg, slogger)
		return router
	}

	serve := func(router http.Handler, method, path, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		cfg = &internal.Config{
			Security: internal.SecurityConfig{JWTSecret: secret},
		}
		pinger = stubPinger{}
	})

	Describe("health", func() {
		It("is healthy when the database answers", func() {
			w := serve(newRouter(), http.MethodGet, "/api/v1/health", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var body rest.HealthResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Status).To(Equal(rest.HealthHealthy))
			Expect(body.Components).To(HaveKey("postgres"))
		})

		It("reports 503 when the database is down", func() {
			pinger = stubPinger{err: errors.New("connection refused")}

			w := serve(newRouter(), http.MethodGet, "/api/v1/health", "")

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			var body rest.HealthResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Components["postgres"].Message).To(Equal("connection refused"))
		})

		It("answers ping without authentication and echoes a trace id", func() {
			w := serve(newRouter(), http.MethodGet, "/api/v1/ping", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
		})
	})

	Describe("protected routes", func() {
		It("rejects requests without a bearer token", func() {
			Expect(serve(newRouter(), http.MethodGet, "/api/v1/forecast", "").Code).To(Equal(http.StatusUnauthorized))
		})

		It("serves an authenticated actor", func() {
			w := serve(newRouter(), http.MethodGet, "/api/v1/forecast", bearer())

			Expect(w.Code).To(Equal(http.StatusOK))
			var f forecast.Forecast
			Expect(json.Unmarshal(w.Body.Bytes(), &f)).To(Succeed())
			Expect(f.From).To(Equal("2026-07"))
		})
	})

	It("throttles a client past the per-minute limit", func() {
		cfg.Server.RateLimitPerMinute = 2
		router := newRouter()

		Expect(serve(router, http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusOK))
		Expect(serve(router, http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusOK))
		Expect(serve(router, http.MethodGet, "/api/v1/ping", "").Code).To(Equal(http.StatusTooManyRequests))
	})
})

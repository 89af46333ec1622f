package routes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"servimarket/api/handler"
	"servimarket/api/middleware"
	"servimarket/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type pingFunc func() error

func (f pingFunc) Ping() error {
	return f()
}

func newTestRouter(health HealthChecker, registry *prometheus.Registry) *echo.Echo {
	logger, _ := test.NewNullLogger()
	app := echo.New()
	router := NewRouter(app, handler.NewVerificationHandler(nil, nil, logger), middleware.AuthMiddleware{}, logger)
	router.Health = health
	if registry != nil {
		router.Gatherer = registry
	}
	router.RegisterRoutes()
	return app
}

func serve(app *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	healthy := newTestRouter(pingFunc(func() error { return nil }), nil)
	rec := serve(healthy, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	down := newTestRouter(pingFunc(func() error { return errors.New("connection refused") }), nil)
	rec = serve(down, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	meter := metrics.New(registry)
	meter.IncSubmission("provider")

	rec := serve(newTestRouter(nil, registry), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `identity_verification_submissions_total{profile_kind="provider"} 1`)
}

func TestMetricsEndpointIsOptional(t *testing.T) {
	rec := serve(newTestRouter(nil, nil), "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

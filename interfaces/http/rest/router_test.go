package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"datapoint-service/application/commands/bus"
	querybus "datapoint-service/application/queries/bus"
	"datapoint-service/interfaces/http/rest/handlers"
	apperrors "datapoint-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter(checks map[string]handlers.ReadinessCheck) http.Handler {
	logger := zap.NewNop()
	errorHandler := apperrors.NewErrorHandler(logger, false)
	dataPoints := handlers.NewDataPointHandler(bus.NewCommandBus(), querybus.NewQueryBus(nil), errorHandler, logger)
	health := handlers.NewHealthHandler(checks, logger)

	return NewRouter(dataPoints, health, errorHandler, Options{}, logger).Setup()
}

func serve(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ReadyReportsFailedChecks(t *testing.T) {
	router := newTestRouter(map[string]handlers.ReadinessCheck{
		"store": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := serve(router, http.MethodGet, "/ready", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"store":"connection refused"}}`, rec.Body.String())
}

func TestRouter_NoMetricsWithoutCollector(t *testing.T) {
	router := newTestRouter(nil)

	rec := serve(router, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GeneratesTraceIDWhenMissing(t *testing.T) {
	router := newTestRouter(nil)

	rec := serve(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(nil)

	rec := serve(router, http.MethodOptions, "/data-points", http.Header{
		"Origin":                        {"https://example.com"},
		"Access-Control-Request-Method": {"POST"},
	})

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_UnregisteredCommandIsInternalError(t *testing.T) {
	router := newTestRouter(nil)

	rec := serve(router, http.MethodPost, "/data-points/import", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.MessageInternalServerError)
}

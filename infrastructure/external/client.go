// Package external talks to the upstream data point service.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datapoint-service/application/ports"
	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/trace"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ServiceName identifies the upstream in errors and breaker state logs
const ServiceName = "data-point-service"

const (
	dataPointsPath          = "/data-points"
	defaultRetryWaitMinimum = 100 * time.Millisecond
	defaultRetryWaitMaximum = 2 * time.Second
	maxErrorBodyBytes       = 512
)

// Config configures the upstream client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryMax    int
	TraceHeader string
}

// Client fetches data points from the upstream service
type Client struct {
	client      *retryablehttp.Client
	breaker     *gobreaker.CircuitBreaker
	baseURL     string
	traceHeader string
	logger      *zap.Logger
}

// NewClient builds a client. httpClient may be nil; pass an instrumented
// one to trace outbound calls.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.RetryWaitMin = defaultRetryWaitMinimum
	c.RetryWaitMax = defaultRetryWaitMaximum
	c.Logger = nil
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if httpClient != nil {
		copied := *httpClient
		c.HTTPClient = &copied
	}
	c.HTTPClient.Timeout = cfg.Timeout

	traceHeader := cfg.TraceHeader
	if traceHeader == "" {
		traceHeader = trace.DefaultHeaderName
	}

	return &Client{
		client:      c,
		breaker:     newBreaker(logger),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		traceHeader: traceHeader,
		logger:      logger,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        ServiceName,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// GetAll performs one GET {base}/data-points and decodes the JSON array.
// Every failure is reported as an external service error.
func (c *Client) GetAll(ctx context.Context) ([]ports.ExternalDataPoint, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if apperrors.IsExternal(err) {
			return nil, err
		}
		return nil, apperrors.NewExternalError(ServiceName, err)
	}
	return result.([]ports.ExternalDataPoint), nil
}

func (c *Client) fetch(ctx context.Context) ([]ports.ExternalDataPoint, error) {
	url := c.baseURL + dataPointsPath
	logger := trace.Logger(ctx, c.logger)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewExternalError(ServiceName, err)
	}
	req.Header.Set("Accept", "application/json")
	if id := trace.ID(ctx); id != "" {
		req.Header.Set(c.traceHeader, id)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Error("Upstream request failed", zap.String("url", url), zap.Error(err))
		return nil, apperrors.NewExternalError(ServiceName, err)
	}
	defer resp.Body.Close()

	logger.Debug("Upstream responded",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, apperrors.NewExternalError(ServiceName,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var points []ports.ExternalDataPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, apperrors.NewExternalError(ServiceName, fmt.Errorf("decode response: %w", err))
	}
	if points == nil {
		points = []ports.ExternalDataPoint{}
	}

	return points, nil
}

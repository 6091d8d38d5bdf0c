package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string, retryMax int) *Client {
	return NewClient(Config{BaseURL: url, Timeout: 2 * time.Second, RetryMax: retryMax, TraceHeader: "X-Trace-ID"}, nil, zap.NewNop())
}

func TestClient_GetAll(t *testing.T) {
	var gotTrace, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get("X-Trace-ID")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"externalId":"e1","value":"v1","comment":null,"significance":1},
			{"externalId":"e2","value":"v2","comment":"c2","significance":2}
		]`))
	}))
	defer server.Close()

	ctx := trace.NewContext(context.Background(), trace.NewTraceContext("trace-abc"))
	points, err := newTestClient(server.URL+"/", 0).GetAll(ctx)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "e1", points[0].ExternalID)
	assert.Nil(t, points[0].Comment)
	assert.Equal(t, "c2", *points[1].Comment)
	assert.Equal(t, 2, points[1].Significance)
	assert.Equal(t, "trace-abc", gotTrace)
	assert.Equal(t, "/data-points", gotPath)
}

func TestClient_EmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	points, err := newTestClient(server.URL, 0).GetAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestClient_LeavesCallerHTTPClientUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	shared := &http.Client{}
	client := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, shared, zap.NewNop())

	_, err := client.GetAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, shared.Timeout)
	assert.NotSame(t, shared, client.client.HTTPClient)
	assert.Equal(t, 2*time.Second, client.client.HTTPClient.Timeout)
}

func TestClient_ServerErrorIsSingleCallByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).GetAll(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetriesWhenConfigured(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"externalId":"e1","value":"v","significance":1}]`))
	}))
	defer server.Close()

	points, err := newTestClient(server.URL, 1).GetAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).GetAll(context.Background())

	assert.True(t, apperrors.IsExternal(err))
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url, 0).GetAll(context.Background())

	assert.True(t, apperrors.IsExternal(err))
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	for i := 0; i < 6; i++ {
		_, err := client.GetAll(context.Background())
		assert.True(t, apperrors.IsExternal(err))
	}

	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

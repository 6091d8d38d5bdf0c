package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector_RecordImport(t *testing.T) {
	c := NewCollector("datapoints")

	c.RecordImport(context.Background(), 2, 3)
	c.RecordImport(context.Background(), 1, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.ImportRuns))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.ImportRecords.WithLabelValues("created")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.ImportRecords.WithLabelValues("updated")))
}

func TestCollector_HandlerExposesHTTPMetrics(t *testing.T) {
	c := NewCollector("datapoints")
	c.ObserveHTTP(http.MethodGet, "/data-points/{id}", http.StatusNotFound, 5*time.Millisecond)
	c.IncrementQuery("query_count", "GetDataPointByIDQuery")
	c.StartQueryTimer("GetDataPointByIDQuery")()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `datapoints_http_requests_total{method="GET",route="/data-points/{id}",status="404"} 1`)
	assert.Contains(t, body, `datapoints_queries_total{metric="query_count",query="GetDataPointByIDQuery"} 1`)
	assert.Contains(t, body, "datapoints_query_duration_seconds_count")
}

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	return &cloudwatch.PutMetricDataOutput{}, args.Error(0)
}

func TestCloudWatchRecorder_RecordImport(t *testing.T) {
	client := new(mockCloudWatch)
	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return aws.ToString(in.Namespace) == "DataPoints" &&
			len(in.MetricData) == 2 &&
			aws.ToFloat64(in.MetricData[0].Value) == 4 &&
			aws.ToFloat64(in.MetricData[1].Value) == 1
	})).Return(nil)

	NewCloudWatchRecorder("DataPoints", client, zap.NewNop()).RecordImport(context.Background(), 4, 1)

	client.AssertExpectations(t)
}

func TestCloudWatchRecorder_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := new(mockCloudWatch)
	client.On("PutMetricData", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	NewCloudWatchRecorder("DataPoints", client, zap.New(core)).RecordImport(context.Background(), 0, 0)

	assert.Equal(t, 1, logs.Len())
}

func TestTracer_DisabledPassesThrough(t *testing.T) {
	tracer := NewTracer("datapoint-service", false)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	tracer.Middleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	client := &http.Client{}
	assert.Same(t, client, tracer.Client(client))

	called := false
	err := tracer.TraceFunction(context.Background(), "import", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
}

package config

import (
	"testing"
	"time"

	"datapoint-service/pkg/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key; viper ignores empty env vars
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_ADDRESS", "ENVIRONMENT", "LOG_LEVEL", "TRACE_ID_HEADER", "TRACE_ADDITIONAL_HEADERS",
		"TRACE_SENSITIVE_HEADERS", "STORE_BACKEND", "DATABASE_URL", "DYNAMODB_TABLE", "AWS_REGION",
		"EVENT_BUS_NAME", "EXTERNAL_SERVICE_BASE_URL", "EXTERNAL_SERVICE_TIMEOUT", "EXTERNAL_SERVICE_RETRY_MAX",
		"METRICS_BACKEND", "ENABLE_TRACING", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "data-points", cfg.DynamoDBTable)
	assert.Equal(t, "eu-north-1", cfg.AWSRegion)
	assert.Equal(t, "http://localhost:8081", cfg.ExternalServiceBaseURL)
	assert.Equal(t, 10*time.Second, cfg.ExternalServiceTimeout)
	assert.Equal(t, 0, cfg.ExternalServiceRetryMax)
	assert.Equal(t, MetricsPrometheus, cfg.MetricsBackend)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins())

	settings := cfg.TraceSettings()
	assert.Equal(t, trace.DefaultHeaderName, settings.HeaderName)
	assert.Equal(t, []string{"authorization"}, settings.SensitiveHeaders)
	assert.Empty(t, settings.AdditionalHeaders)
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("TRACE_ID_HEADER", "X-Correlation-ID")
	t.Setenv("TRACE_ADDITIONAL_HEADERS", "X-Tenant=tenant, X-Client-Version")
	t.Setenv("TRACE_SENSITIVE_HEADERS", "Authorization,Cookie")
	t.Setenv("EXTERNAL_SERVICE_TIMEOUT", "3s")
	t.Setenv("EXTERNAL_SERVICE_RETRY_MAX", "2")
	t.Setenv("ENABLE_TRACING", "true")
	t.Setenv("STORE_BACKEND", "dynamodb")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, 3*time.Second, cfg.ExternalServiceTimeout)
	assert.Equal(t, 2, cfg.ExternalServiceRetryMax)
	assert.True(t, cfg.EnableTracing)
	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)

	settings := cfg.TraceSettings()
	assert.Equal(t, "X-Correlation-ID", settings.HeaderName)
	assert.Equal(t, []trace.AdditionalHeader{
		{Header: "X-Tenant", Attribute: "tenant"},
		{Header: "X-Client-Version", Attribute: "x_client_version"},
	}, settings.AdditionalHeaders)
	assert.Equal(t, []string{"authorization", "cookie"}, settings.SensitiveHeaders)
}

func TestTraceSettings_ExtendsSensitiveHeaders(t *testing.T) {
	cfg := &Config{TraceSensitiveHeaders: "X-Api-Key"}

	settings := cfg.TraceSettings()

	assert.Equal(t, []string{"authorization", "x-api-key"}, settings.SensitiveHeaders)
	assert.True(t, settings.IsSensitive("authorization"))
	assert.True(t, settings.IsSensitive("x-api-key"))
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE_BACKEND": "mongo"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}},
		{"unknown metrics backend", map[string]string{"METRICS_BACKEND": "statsd"}},
		{"bad base url", map[string]string{"EXTERNAL_SERVICE_BASE_URL": "not a url"}},
		{"negative retries", map[string]string{"EXTERNAL_SERVICE_RETRY_MAX": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_PostgresWithURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/datapoints?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
}

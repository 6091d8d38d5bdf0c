package middleware

import (
	"net/http"
	"sort"
	"strings"

	"datapoint-service/pkg/forwarded"
	"datapoint-service/pkg/trace"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Trace attribute names
const (
	AttrPath                = "path"
	AttrURL                 = "url"
	AttrMethod              = "method"
	AttrQueryString         = "query_string"
	AttrUserAgent           = "user_agent"
	AttrXForwardedFor       = "x_forwarded_for"
	AttrForwarded           = "forwarded"
	AttrForwardedBy         = "forwarded_by"
	AttrForwardedFor        = "forwarded_for"
	AttrForwardedHost       = "forwarded_host"
	AttrForwardedProto      = "forwarded_proto"
	AttrForwardedExtensions = "forwarded_extensions"
)

const (
	userAgentMissing    = "MISSING"
	headerForwarded     = "Forwarded"
	headerXForwardedFor = "X-Forwarded-For"
	redacted            = "***"
	valueSeparator      = "|"
)

// Trace attaches a trace context to every request. The id comes from
// generator; request metadata is recorded as log attributes and the id is
// echoed back in settings.HeaderName. The context is cleared when the
// handler returns or panics.
func Trace(settings trace.Settings, generator trace.IDGenerator, logger *zap.Logger) func(next http.Handler) http.Handler {
	if settings.HeaderName == "" {
		settings.HeaderName = trace.DefaultHeaderName
	}
	if generator == nil {
		generator = trace.NewHeaderIDGenerator(settings.HeaderName)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := trace.NewTraceContext(generator.Generate(r))
			defer tc.Clear()

			r = r.WithContext(trace.NewContext(r.Context(), tc))

			recordRequest(tc, r)
			recordForwarding(tc, r)
			recordAdditionalHeaders(tc, r, settings.AdditionalHeaders, logger)

			w.Header().Set(settings.HeaderName, tc.ID())

			logHeaders(r, settings, logger)

			next.ServeHTTP(w, r)
		})
	}
}

func recordRequest(tc *trace.Context, r *http.Request) {
	tc.Set(AttrPath, r.URL.Path)
	tc.Set(AttrURL, requestURL(r))
	tc.Set(AttrMethod, r.Method)
	if r.URL.RawQuery != "" {
		tc.Set(AttrQueryString, r.URL.RawQuery)
	}
	if ua, ok := headerValues(r.Header, "User-Agent"); ok {
		tc.Set(AttrUserAgent, ua)
	} else {
		tc.Set(AttrUserAgent, userAgentMissing)
	}
}

// requestURL rebuilds scheme://host/path with the query appended only when
// one was sent
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + r.Host + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	return url
}

func recordForwarding(tc *trace.Context, r *http.Request) {
	if xff, ok := headerValues(r.Header, headerXForwardedFor); ok {
		tc.Set(AttrXForwardedFor, xff)
	}

	raw, ok := headerValues(r.Header, headerForwarded)
	if !ok {
		return
	}

	result := forwarded.Parse(r.Header.Values(headerForwarded))
	tc.Set(AttrForwarded, raw)
	tc.Set(AttrForwardedBy, strings.Join(result.By, valueSeparator))
	tc.Set(AttrForwardedFor, strings.Join(result.For, valueSeparator))
	tc.Set(AttrForwardedHost, strings.Join(result.Host, valueSeparator))
	tc.Set(AttrForwardedProto, strings.Join(result.Proto, valueSeparator))
	tc.Set(AttrForwardedExtensions, strings.Join(result.ExtensionStrings(), valueSeparator))
}

func recordAdditionalHeaders(tc *trace.Context, r *http.Request, headers []trace.AdditionalHeader, logger *zap.Logger) {
	for _, h := range headers {
		if value, ok := headerValues(r.Header, h.Header); ok {
			tc.Set(h.Attribute, value)
			continue
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			logger.Debug("Header not present in request", zap.String("header", h.Header))
		}
	}
}

// logHeaders writes one debug line listing every request header, masking
// sensitive values. net/http moves Host out of r.Header so it is added back.
func logHeaders(r *http.Request, settings trace.Settings, logger *zap.Logger) {
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	entries := make([]string, 0, len(r.Header)+1)
	add := func(key, value string) {
		if settings.IsSensitive(key) {
			value = redacted
		}
		entries = append(entries, key+"=["+value+"]")
	}
	for name := range r.Header {
		value, _ := headerValues(r.Header, name)
		add(strings.ToLower(name), value)
	}
	if r.Host != "" && r.Header.Get("Host") == "" {
		add("host", r.Host)
	}
	sort.Strings(entries)

	trace.Logger(r.Context(), logger).Debug("Request headers", zap.String("headers", strings.Join(entries, ",")))
}

// headerValues joins every occurrence of a header with '|'
func headerValues(h http.Header, name string) (string, bool) {
	values := h.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, valueSeparator), true
}

package trace

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultHeaderName is the header carrying the correlation id in and out
const DefaultHeaderName = "X-Trace-ID"

// alwaysSensitive headers are masked whatever else is configured
var alwaysSensitive = []string{"authorization"}

// AdditionalHeader maps a request header onto a log attribute
type AdditionalHeader struct {
	Header    string
	Attribute string
}

// Settings controls which headers the trace middleware reads and writes
type Settings struct {
	HeaderName        string
	AdditionalHeaders []AdditionalHeader
	SensitiveHeaders  []string
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		HeaderName:       DefaultHeaderName,
		SensitiveHeaders: append([]string(nil), alwaysSensitive...),
	}
}

// IsSensitive reports whether a header must be masked. Authorization is
// always sensitive; SensitiveHeaders adds to it.
func (s Settings) IsSensitive(name string) bool {
	for _, list := range [][]string{alwaysSensitive, s.SensitiveHeaders} {
		for _, h := range list {
			if strings.EqualFold(h, name) {
				return true
			}
		}
	}
	return false
}

// ParseAdditionalHeaders parses "Header=attribute,Other=other_attr".
// Entries without an attribute name use the lower-cased header name with
// dashes replaced by underscores.
func ParseAdditionalHeaders(raw string) []AdditionalHeader {
	var out []AdditionalHeader
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		header, attribute, found := strings.Cut(entry, "=")
		header = strings.TrimSpace(header)
		attribute = strings.TrimSpace(attribute)
		if header == "" {
			continue
		}
		if !found || attribute == "" {
			attribute = strings.ReplaceAll(strings.ToLower(header), "-", "_")
		}
		out = append(out, AdditionalHeader{Header: header, Attribute: attribute})
	}
	return out
}

// IDGenerator derives the correlation id for an inbound request
type IDGenerator interface {
	Generate(r *http.Request) string
}

// IDGeneratorFunc is an adapter to allow functions to be used as generators
type IDGeneratorFunc func(r *http.Request) string

// Generate implements IDGenerator
func (f IDGeneratorFunc) Generate(r *http.Request) string {
	return f(r)
}

// HeaderIDGenerator reuses the id sent by the caller and otherwise
// generates a random UUID.
type HeaderIDGenerator struct {
	HeaderName string
}

// NewHeaderIDGenerator creates a generator reading the given header
func NewHeaderIDGenerator(headerName string) *HeaderIDGenerator {
	if headerName == "" {
		headerName = DefaultHeaderName
	}
	return &HeaderIDGenerator{HeaderName: headerName}
}

// Generate implements IDGenerator
func (g *HeaderIDGenerator) Generate(r *http.Request) string {
	if id := r.Header.Get(g.HeaderName); id != "" {
		return id
	}
	return uuid.NewString()
}

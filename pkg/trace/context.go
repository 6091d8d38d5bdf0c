// Package trace carries the per-request correlation id and the structured
// log attributes collected for a request.
package trace

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ContextKey represents a context key type
type ContextKey string

// ContextKeyTrace is the context key holding the request's *Context
const ContextKeyTrace ContextKey = "trace"

// FieldTraceID is the log field name of the correlation id
const FieldTraceID = "trace_id"

// Attribute is a single structured-log attribute recorded for a request
type Attribute struct {
	Name  string
	Value string
}

// Context is the request-scoped trace state: one correlation id plus the
// attributes added to every log line written while serving the request.
type Context struct {
	mu         sync.RWMutex
	id         string
	attributes []Attribute
}

// NewTraceContext creates trace state for the given correlation id
func NewTraceContext(id string) *Context {
	return &Context{id: id}
}

// ID returns the correlation id, empty once cleared
func (c *Context) ID() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Set records an attribute, replacing an earlier value with the same name
func (c *Context) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.attributes {
		if c.attributes[i].Name == name {
			c.attributes[i].Value = value
			return
		}
	}
	c.attributes = append(c.attributes, Attribute{Name: name, Value: value})
}

// Get returns the attribute value and whether it was recorded
func (c *Context) Get(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attributes returns a copy of the recorded attributes in insertion order
func (c *Context) Attributes() []Attribute {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Attribute, len(c.attributes))
	copy(out, c.attributes)
	return out
}

// Fields renders the trace id and attributes as zap fields
func (c *Context) Fields() []zap.Field {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.id == "" && len(c.attributes) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(c.attributes)+1)
	fields = append(fields, zap.String(FieldTraceID, c.id))
	for _, a := range c.attributes {
		fields = append(fields, zap.String(a.Name, a.Value))
	}
	return fields
}

// Clear drops the id and every attribute
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
	c.attributes = nil
}

// NewContext attaches trace state to ctx
func NewContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ContextKeyTrace, tc)
}

// FromContext extracts trace state from ctx
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	tc, ok := ctx.Value(ContextKeyTrace).(*Context)
	return tc, ok && tc != nil
}

// ID extracts the correlation id from ctx, empty when none is set
func ID(ctx context.Context) string {
	tc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return tc.ID()
}

// Logger returns base enriched with the request's trace fields
func Logger(ctx context.Context, base *zap.Logger) *zap.Logger {
	tc, ok := FromContext(ctx)
	if !ok {
		return base
	}
	fields := tc.Fields()
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

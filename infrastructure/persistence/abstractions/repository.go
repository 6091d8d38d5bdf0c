package abstractions

import (
	"fmt"
	"strings"
)

// Criteria represents database-agnostic query parameters. Stores translate
// it into their own query language; the in-memory store evaluates it
// directly with Matches.
type Criteria struct {
	// Filters are combined with AND
	Filters []Filter

	// Sorting options
	Sort []SortOption

	// Limit caps the number of results, zero means unlimited
	Limit int
}

// Filter represents a query filter condition
type Filter struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

// FilterOperator defines the type of comparison
type FilterOperator string

const (
	OpEqual              FilterOperator = "eq"
	OpNotEqual           FilterOperator = "ne"
	OpGreaterThan        FilterOperator = "gt"
	OpGreaterThanOrEqual FilterOperator = "gte"
	OpLessThan           FilterOperator = "lt"
	OpLessThanOrEqual    FilterOperator = "lte"
	OpStartsWith         FilterOperator = "starts_with"
)

// SortOption defines sorting parameters
type SortOption struct {
	Field string
	Order SortOrder
}

// SortOrder defines the sorting direction
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Builder builds Criteria one condition at a time:
//
//	abstractions.Where("externalId").Eq("e1").Build()
type Builder struct {
	criteria Criteria
	field    string
}

// Where starts a criteria on the given field
func Where(field string) *Builder {
	return &Builder{field: field}
}

// All starts an unfiltered criteria
func All() *Builder {
	return &Builder{}
}

// And selects the field for the next condition
func (b *Builder) And(field string) *Builder {
	b.field = field
	return b
}

func (b *Builder) add(op FilterOperator, value interface{}) *Builder {
	b.criteria.Filters = append(b.criteria.Filters, Filter{Field: b.field, Operator: op, Value: value})
	return b
}

// Eq adds an equality condition on the current field
func (b *Builder) Eq(value interface{}) *Builder { return b.add(OpEqual, value) }

// Ne adds an inequality condition on the current field
func (b *Builder) Ne(value interface{}) *Builder { return b.add(OpNotEqual, value) }

// Gt adds a greater-than condition on the current field
func (b *Builder) Gt(value interface{}) *Builder { return b.add(OpGreaterThan, value) }

// Gte adds a greater-or-equal condition on the current field
func (b *Builder) Gte(value interface{}) *Builder { return b.add(OpGreaterThanOrEqual, value) }

// Lt adds a less-than condition on the current field
func (b *Builder) Lt(value interface{}) *Builder { return b.add(OpLessThan, value) }

// Lte adds a less-or-equal condition on the current field
func (b *Builder) Lte(value interface{}) *Builder { return b.add(OpLessThanOrEqual, value) }

// StartsWith adds a string prefix condition on the current field
func (b *Builder) StartsWith(prefix string) *Builder { return b.add(OpStartsWith, prefix) }

// OrderBy appends a sort option
func (b *Builder) OrderBy(field string, order SortOrder) *Builder {
	b.criteria.Sort = append(b.criteria.Sort, SortOption{Field: field, Order: order})
	return b
}

// Limit caps the result size
func (b *Builder) Limit(n int) *Builder {
	b.criteria.Limit = n
	return b
}

// Build returns the assembled criteria
func (b *Builder) Build() Criteria {
	return b.criteria
}

// String renders the criteria for logging
func (c Criteria) String() string {
	parts := make([]string, 0, len(c.Filters))
	for _, f := range c.Filters {
		parts = append(parts, fmt.Sprintf("%s %s %v", f.Field, f.Operator, f.Value))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, " and ")
}

// Matches evaluates every filter against values returned by get
func (c Criteria) Matches(get func(field string) (interface{}, bool)) bool {
	for _, f := range c.Filters {
		actual, ok := get(f.Field)
		if !ok || !f.matches(actual) {
			return false
		}
	}
	return true
}

// Order compares two records by the sort options, returning a negative
// number when a sorts first and zero when the options do not separate them
func (c Criteria) Order(a, b func(field string) (interface{}, bool)) int {
	for _, opt := range c.Sort {
		av, _ := a(opt.Field)
		bv, _ := b(opt.Field)
		cmp, ok := Compare(av, bv)
		if !ok || cmp == 0 {
			continue
		}
		if opt.Order == SortDescending {
			return -cmp
		}
		return cmp
	}
	return 0
}

func (f Filter) matches(actual interface{}) bool {
	if f.Operator == OpStartsWith {
		s, ok := actual.(string)
		prefix, pok := f.Value.(string)
		return ok && pok && strings.HasPrefix(s, prefix)
	}

	cmp, ok := Compare(actual, f.Value)
	if !ok {
		return f.Operator == OpNotEqual
	}

	switch f.Operator {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanOrEqual:
		return cmp >= 0
	case OpLessThan:
		return cmp < 0
	case OpLessThanOrEqual:
		return cmp <= 0
	default:
		return false
	}
}

// Compare orders two values of the same family (integers or strings).
// The second result is false when the values are not comparable.
func Compare(a, b interface{}) (int, bool) {
	if ai, ok := toInt64(a); ok {
		bi, ok := toInt64(b)
		if !ok {
			return 0, false
		}
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		default:
			return 0, true
		}
	}

	as, ok := a.(string)
	if !ok {
		return 0, false
	}
	bs, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

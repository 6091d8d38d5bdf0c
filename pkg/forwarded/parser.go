// Package forwarded parses RFC 7239 Forwarded headers.
package forwarded

import "strings"

// Extension is a forwarded parameter other than by, for, host and proto
type Extension struct {
	Key   string
	Value string
}

// String renders the extension as key=value
func (e Extension) String() string {
	return e.Key + "=" + e.Value
}

// Result holds the parameters of every Forwarded header occurrence,
// concatenated in header order.
type Result struct {
	By         []string
	For        []string
	Host       []string
	Proto      []string
	Extensions []Extension
}

// ExtensionStrings renders every extension as key=value
func (r Result) ExtensionStrings() []string {
	out := make([]string, 0, len(r.Extensions))
	for _, e := range r.Extensions {
		out = append(out, e.String())
	}
	return out
}

// Parse parses raw Forwarded header values. Pairs are separated by ';'
// within an element and by ',' between elements. Malformed pairs are
// skipped; Parse never fails.
func Parse(values []string) Result {
	var result Result
	for _, line := range values {
		parseLine(line, &result)
	}
	return result
}

func parseLine(line string, result *Result) {
	i := 0
	for i < len(line) {
		for i < len(line) && isSeparator(line[i]) {
			i++
		}
		if i >= len(line) {
			return
		}

		keyStart := i
		for i < len(line) && line[i] != '=' && line[i] != ';' && line[i] != ',' {
			i++
		}
		if i >= len(line) || line[i] != '=' {
			// no '=' before the next separator
			continue
		}
		key := strings.TrimSpace(line[keyStart:i])
		i++ // '='

		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}

		var value string
		if i < len(line) && line[i] == '"' {
			v, next, ok := readQuoted(line, i+1)
			if !ok {
				// an unterminated quote swallows the rest of the line
				return
			}
			value = v
			i = next
			for i < len(line) && line[i] != ';' && line[i] != ',' {
				i++
			}
		} else {
			valueStart := i
			for i < len(line) && line[i] != ';' && line[i] != ',' {
				i++
			}
			value = strings.TrimSpace(line[valueStart:i])
		}

		if key == "" {
			continue
		}
		result.add(key, value)
	}
}

// readQuoted reads a quoted-string body starting after the opening quote and
// returns the unescaped value and the index after the closing quote.
func readQuoted(line string, i int) (string, int, bool) {
	var b strings.Builder
	for i < len(line) {
		switch c := line[i]; c {
		case '\\':
			if i+1 >= len(line) {
				return "", i, false
			}
			b.WriteByte(line[i+1])
			i += 2
		case '"':
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", i, false
}

func (r *Result) add(key, value string) {
	switch strings.ToLower(key) {
	case "by":
		r.By = append(r.By, value)
	case "for":
		r.For = append(r.For, value)
	case "host":
		r.Host = append(r.Host, value)
	case "proto":
		r.Proto = append(r.Proto, value)
	default:
		r.Extensions = append(r.Extensions, Extension{Key: key, Value: value})
	}
}

func isSeparator(c byte) bool {
	return c == ';' || c == ',' || c == ' ' || c == '\t'
}

// Package normalize extracts typed gate entities from loosely shaped API
// payloads. Every function is total: malformed input yields empty results,
// never an error or a panic.
package normalize

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// lookup returns the first non-nil value found under any of the dotted paths.
func lookup(obj any, paths ...string) (any, bool) {
	for _, path := range paths {
		current := obj
		found := true
		for _, key := range strings.Split(path, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				found = false
				break
			}
			current, ok = m[key]
			if !ok {
				found = false
				break
			}
		}
		if found && current != nil {
			return current, true
		}
	}
	return nil, false
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

// text returns the first non-empty string value among keys.
func text(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// identifier is like text but also accepts whole numbers, which upstream
// systems commonly use for ids.
func identifier(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		case json.Number:
			if _, err := v.Int64(); err == nil {
				return v.String()
			}
		}
	}
	return ""
}

// number returns the first numeric value among keys.
func number(obj map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		if f, ok := toFloat(obj[key]); ok {
			return &f
		}
	}
	return nil
}

func integer(obj map[string]any, keys ...string) *int {
	f := number(obj, keys...)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	n := int(*f)
	return &n
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// truthy accepts booleans, the strings true/yes/1 and non-zero numbers.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

func stringList(v any) []string {
	list, ok := asList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// IsHTTPURL reports whether s is an absolute http(s) URL with a host.
func IsHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

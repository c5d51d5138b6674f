package schemas

import (
	"encoding/json"
	"fmt"

	"validation-enricher/internal/enrich"
)

// ValidationResultFrom reads a loosely typed validation result. Anything
// that is not an object, and any field of the wrong type, falls back to the
// zero value.
func ValidationResultFrom(v any) enrich.ValidationResult {
	m, ok := asMap(v)
	if !ok {
		return enrich.ValidationResult{}
	}
	var out enrich.ValidationResult
	if b, ok := m["valid"].(bool); ok {
		out.Valid = b
	}
	if f, ok := toFloat(m["score"]); ok {
		out.Score = f
	}
	if issues, ok := m["issues"].([]any); ok {
		out.Issues = make([]string, 0, len(issues))
		for _, is := range issues {
			if s, ok := is.(string); ok {
				out.Issues = append(out.Issues, s)
			} else {
				out.Issues = append(out.Issues, fmt.Sprint(is))
			}
		}
	} else if issues, ok := m["issues"].([]string); ok {
		out.Issues = append([]string{}, issues...)
	}
	return out
}

// normalizeMap rewrites nested YAML mappings with non-string keys into
// map[string]any so the question can be encoded as JSON.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// asMap accepts decoded JSON and YAML objects.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case enrich.Question:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

package adapter

import "reflect"

// Sanitize returns a copy of body with every nil-valued key removed,
// recursing through nested objects. Array elements pass through at the
// element level, except elements that are themselves objects, which are
// sanitized in place. Sanitize is idempotent.
func Sanitize(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		if isNil(v) {
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Sanitize(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			if obj, ok := e.(map[string]any); ok {
				out[i] = Sanitize(obj)
			} else {
				out[i] = e
			}
		}
		return out
	default:
		return v
	}
}

// isNil catches both untyped nil and typed nil values (a nil *float64 stored
// in an any is not == nil), since the request builder places pointer-typed
// option fields directly into the body.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// PruneEmptyResponseFormat is the secondary sanitization pass for providers
// whose APIs reject literal nulls even inside nested objects. It re-runs the
// generic pass and then drops response_format entirely when stripping left it
// empty. Install it as Config.PostSanitize.
func PruneEmptyResponseFormat(body map[string]any) map[string]any {
	out := Sanitize(body)
	if rf, ok := out["response_format"].(map[string]any); ok && len(rf) == 0 {
		delete(out, "response_format")
	}
	return out
}

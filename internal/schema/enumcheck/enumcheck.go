// Package enumcheck is a schema plugin that enforces the Enum declared on a
// path. Scalars must be members of the enum; lists must contain members only.
package enumcheck

import (
	"reflect"

	"github.com/sasset/core/internal/schema"
)

const defaultMessage = "`{VALUE}` is not a valid enum value for path `{PATH}`."

// Plugin installs a membership validator on every path, nested ones
// included, that declares an Enum.
func Plugin(s *schema.Schema) {
	for _, name := range enumPaths(s, "") {
		p := s.Path(name)
		if p == nil || p.Enum == nil {
			continue
		}
		msg := p.Enum.Message
		if msg == "" {
			msg = defaultMessage
		}
		values := p.Enum.Values
		p.AddValidator(func(v any) bool { return Check(values, v) }, msg)
	}
}

func enumPaths(s *schema.Schema, prefix string) []string {
	var out []string
	for _, p := range s.Paths() {
		if p.Enum != nil {
			out = append(out, prefix+p.Name)
		}
		if p.Sub != nil {
			out = append(out, enumPaths(p.Sub, prefix+p.Name+".")...)
		}
	}
	return out
}

// Check reports whether v satisfies the enum: nil passes, strings and numbers
// must be members, lists must contain only members, anything else fails.
func Check(values []any, v any) bool {
	if v == nil {
		return true
	}
	if isScalar(v) {
		return contains(values, v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			el := rv.Index(i).Interface()
			if !isScalar(el) || !contains(values, el) {
				return false
			}
		}
		return true
	case reflect.Pointer:
		if rv.IsNil() {
			return true
		}
	}
	return false
}

func isScalar(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	_, ok := toFloat(v)
	return ok
}

func contains(values []any, v any) bool {
	for _, allowed := range values {
		if equal(allowed, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

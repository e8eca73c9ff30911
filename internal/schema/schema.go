// Package schema validates JSON-shaped documents (map[string]any) against a
// declared set of paths. Extensions hook in through Schema.Plugin and attach
// extra validators to paths.
package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/sasset/core/internal/common"
)

// Validator checks a single non-nil value. Message may contain the
// placeholders {PATH} and {VALUE}.
type Validator struct {
	Fn      func(v any) bool
	Message string
}

// Enum declares the allowed values of a path. Enforcement is left to a
// plugin (see enumcheck).
type Enum struct {
	Values  []any
	Message string
}

// Values is shorthand for an Enum without a custom message.
func Values(vs ...any) *Enum {
	return &Enum{Values: vs}
}

// Path describes one key of a document.
type Path struct {
	Name      string
	Required  bool
	Default   any
	Setters   []func(any) any
	MinLength int
	MaxLength int
	Match     *regexp.Regexp
	Enum      *Enum
	Sub       *Schema

	validators []Validator
}

// AddValidator appends a validator run after the built-in checks.
func (p *Path) AddValidator(fn func(v any) bool, message string) *Path {
	p.validators = append(p.validators, Validator{Fn: fn, Message: message})
	return p
}

type Schema struct {
	paths []*Path
}

func New(paths ...*Path) *Schema {
	return &Schema{paths: paths}
}

// Paths returns the top-level paths in declaration order.
func (s *Schema) Paths() []*Path { return s.paths }

// Path resolves a dotted name, descending into sub-schemas.
func (s *Schema) Path(name string) *Path {
	head, rest, nested := strings.Cut(name, ".")
	for _, p := range s.paths {
		if p.Name != head {
			continue
		}
		if !nested {
			return p
		}
		if p.Sub == nil {
			return nil
		}
		return p.Sub.Path(rest)
	}
	return nil
}

// Plugin runs fn against the schema and returns the schema for chaining.
func (s *Schema) Plugin(fn func(*Schema)) *Schema {
	fn(s)
	return s
}

// Apply fills defaults and runs setters in place.
func (s *Schema) Apply(doc map[string]any) {
	for _, p := range s.paths {
		v, ok := doc[p.Name]
		if (!ok || v == nil) && p.Default != nil {
			doc[p.Name] = p.Default
			v, ok = p.Default, true
		}
		if !ok {
			continue
		}
		if p.Sub != nil {
			if sub, isMap := v.(map[string]any); isMap {
				p.Sub.Apply(sub)
			}
			continue
		}
		for _, set := range p.Setters {
			v = set(v)
		}
		doc[p.Name] = v
	}
}

// Validate applies defaults and setters, then checks every path and
// returns all failures as common.ValidationErrors.
func (s *Schema) Validate(doc map[string]any) error {
	if doc == nil {
		return common.NewValidationError("", nil, "Data provided is invalid or undefined")
	}
	s.Apply(doc)
	return s.validate(doc, "").ErrOrNil()
}

func (s *Schema) validate(doc map[string]any, prefix string) common.ValidationErrors {
	var errs common.ValidationErrors
	for _, p := range s.paths {
		full := prefix + p.Name
		v := doc[p.Name]

		if p.Required && isMissing(v) {
			errs = append(errs, newError(full, v, "Path `{PATH}` is required."))
			continue
		}
		if v == nil {
			continue
		}

		if p.Sub != nil {
			sub, ok := v.(map[string]any)
			if !ok {
				errs = append(errs, newError(full, v, "Path `{PATH}` must be an object."))
				continue
			}
			errs = append(errs, p.Sub.validate(sub, full+".")...)
			continue
		}

		if str, ok := v.(string); ok {
			if p.MinLength > 0 && len(str) < p.MinLength {
				errs = append(errs, newError(full, v, fmt.Sprintf(
					"Path `{PATH}` (`{VALUE}`) is shorter than the minimum allowed length (%d).", p.MinLength)))
			}
			if p.MaxLength > 0 && len(str) > p.MaxLength {
				errs = append(errs, newError(full, v, fmt.Sprintf(
					"Path `{PATH}` (`{VALUE}`) is longer than the maximum allowed length (%d).", p.MaxLength)))
			}
			if p.Match != nil && !p.Match.MatchString(str) {
				errs = append(errs, newError(full, v, "Path `{PATH}` is invalid ({VALUE})."))
			}
		}

		for _, val := range p.validators {
			if val.Fn(v) {
				continue
			}
			msg := val.Message
			if msg == "" {
				msg = "Validator failed for path `{PATH}` with value `{VALUE}`"
			}
			errs = append(errs, newError(full, v, msg))
		}
	}
	return errs
}

func newError(path string, value any, tmpl string) *common.ValidationError {
	msg := strings.NewReplacer("{PATH}", path, "{VALUE}", FormatValue(value)).Replace(tmpl)
	return &common.ValidationError{Path: path, Value: value, Message: msg}
}

func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// FormatValue renders v for error messages; lists are joined with ",".
func FormatValue(v any) string {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// Trim is a setter that trims surrounding whitespace from strings.
func Trim(v any) any {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

// Lowercase is a setter that lower-cases strings.
func Lowercase(v any) any {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

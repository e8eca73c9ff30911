package schema

import (
	"errors"
	"regexp"
	"testing"

	"github.com/sasset/core/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Path(t *testing.T) {
	inner := New(&Path{Name: "age"}, &Path{Name: "website"})
	s := New(&Path{Name: "name"}, &Path{Name: "meta", Sub: inner})

	require.NotNil(t, s.Path("name"))
	require.NotNil(t, s.Path("meta"))
	assert.Same(t, inner.Paths()[0], s.Path("meta.age"))
	assert.Nil(t, s.Path("meta.missing"))
	assert.Nil(t, s.Path("name.nested"))
	assert.Nil(t, s.Path("nope"))
}

func TestSchema_ApplyDefaultsAndSetters(t *testing.T) {
	s := New(
		&Path{Name: "name", Setters: []func(any) any{Trim, Lowercase}},
		&Path{Name: "type", Default: "string"},
	)

	doc := map[string]any{"name": "  MyName "}
	s.Apply(doc)

	assert.Equal(t, "myname", doc["name"])
	assert.Equal(t, "string", doc["type"])
}

func TestSchema_ValidateBuiltins(t *testing.T) {
	s := New(&Path{
		Name:      "name",
		Required:  true,
		MinLength: 3,
		MaxLength: 5,
		Match:     regexp.MustCompile(`^[a-z]+$`),
	})

	tests := []struct {
		name    string
		doc     map[string]any
		wantErr bool
		msg     string
	}{
		{name: "ok", doc: map[string]any{"name": "abc"}},
		{name: "missing", doc: map[string]any{}, wantErr: true, msg: "Path `name` is required."},
		{name: "empty string", doc: map[string]any{"name": ""}, wantErr: true, msg: "Path `name` is required."},
		{name: "short", doc: map[string]any{"name": "ab"}, wantErr: true, msg: "shorter than the minimum allowed length (3)"},
		{name: "long", doc: map[string]any{"name": "abcdef"}, wantErr: true, msg: "longer than the maximum allowed length (5)"},
		{name: "pattern", doc: map[string]any{"name": "ab1"}, wantErr: true, msg: "Path `name` is invalid (ab1)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.doc)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSchema_ValidateNilDoc(t *testing.T) {
	err := New().Validate(nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSchema_CustomValidatorAndPlugin(t *testing.T) {
	s := New(&Path{Name: "count"})
	s.Plugin(func(s *Schema) {
		s.Path("count").AddValidator(func(v any) bool {
			n, ok := v.(float64)
			return ok && n > 0
		}, "`{VALUE}` must be positive for {PATH}")
	})

	require.NoError(t, s.Validate(map[string]any{"count": 2.0}))
	require.NoError(t, s.Validate(map[string]any{}), "nil values skip validators")

	err := s.Validate(map[string]any{"count": -1.0})
	require.Error(t, err)

	var verrs common.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "count", verrs[0].Path)
	assert.Equal(t, "`-1` must be positive for count", verrs[0].Message)
}

func TestSchema_NestedValidation(t *testing.T) {
	s := New(&Path{Name: "meta", Sub: New(&Path{Name: "website", MaxLength: 4})})

	require.NoError(t, s.Validate(map[string]any{"meta": map[string]any{"website": "a.io"}}))

	err := s.Validate(map[string]any{"meta": map[string]any{"website": "example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta.website")

	err = s.Validate(map[string]any{"meta": "flat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an object")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "Cat,Fish", FormatValue([]any{"Cat", "Fish"}))
	assert.Equal(t, "Cat", FormatValue("Cat"))
	assert.Equal(t, "3", FormatValue(3))
}

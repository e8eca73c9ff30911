package enumcheck

import (
	"testing"

	"github.com/sasset/core/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	pets := []any{"Cat", "Dog"}

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{name: "nil", v: nil, want: true},
		{name: "member", v: "Cat", want: true},
		{name: "non member", v: "Fish", want: false},
		{name: "list of members", v: []any{"Cat", "Dog"}, want: true},
		{name: "typed list of members", v: []string{"Dog"}, want: true},
		{name: "list with stranger", v: []any{"Cat", "Fish"}, want: false},
		{name: "empty list", v: []any{}, want: true},
		{name: "bool", v: true, want: false},
		{name: "map", v: map[string]any{"a": "Cat"}, want: false},
		{name: "nested list", v: []any{[]any{"Cat"}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(pets, tt.v))
		})
	}
}

func TestCheck_Numbers(t *testing.T) {
	sizes := []any{1, 2, 3}

	assert.True(t, Check(sizes, 2))
	assert.True(t, Check(sizes, 2.0), "JSON numbers decode as float64")
	assert.False(t, Check(sizes, 4))
	assert.False(t, Check(sizes, "2"))
	assert.True(t, Check(sizes, []any{1.0, 3}))
}

func TestPlugin_EnforcesEnumPaths(t *testing.T) {
	s := schema.New(
		&schema.Path{Name: "pets", Enum: schema.Values("Cat", "Dog")},
		&schema.Path{Name: "type", Enum: &schema.Enum{
			Values:  []any{"string", "boolean"},
			Message: "Illegal setting type `{VALUE}` for setting (`{PATH}`)",
		}},
		&schema.Path{Name: "plain"},
		&schema.Path{Name: "meta", Sub: schema.New(
			&schema.Path{Name: "color", Enum: schema.Values("red")},
		)},
	).Plugin(Plugin)

	require.NoError(t, s.Validate(map[string]any{"plain": "anything"}), "paths without enum are untouched")

	err := s.Validate(map[string]any{"meta": map[string]any{"color": "blue"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta.color")

	require.NoError(t, s.Validate(map[string]any{
		"pets": []any{"Cat", "Dog"},
		"type": "string",
		"meta": map[string]any{"color": "red"},
	}))
	require.NoError(t, s.Validate(map[string]any{}), "absent values pass")

	err = s.Validate(map[string]any{"pets": "Fish"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`Fish` is not a valid enum value for path `pets`.")

	err = s.Validate(map[string]any{"pets": []any{"Cat", "Fish"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`Cat,Fish` is not a valid enum value")

	err = s.Validate(map[string]any{"type": "float"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Illegal setting type `float` for setting (`type`)")

	err = s.Validate(map[string]any{"meta": map[string]any{"color": "blue"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta.color")
}

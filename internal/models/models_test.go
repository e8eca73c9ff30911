package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/sasset/core/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_FullName(t *testing.T) {
	tests := []struct {
		name   string
		in     Name
		want   string
		wantOK bool
	}{
		{name: "both", in: Name{First: "Jane", Last: "Doe"}, want: "Jane Doe", wantOK: true},
		{name: "first only", in: Name{First: "Jane"}, want: "Jane", wantOK: true},
		{name: "last only", in: Name{Last: "Doe"}, want: "Doe", wantOK: true},
		{name: "none", in: Name{}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Name: tt.in}
			got, ok := a.FullName()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameShapes(t *testing.T) {
	assert.Equal(t, Name{First: "Jane", Last: "Doe"}, NameFromParts(" Jane ", "Doe"))
	assert.Equal(t, Name{First: "Jane", Last: "Doe"}, NameFromSlice([]string{"Jane", "Doe", "Jr"}))
	assert.Equal(t, Name{Last: "Doe"}, NameFromSlice([]string{"Doe"}))
	assert.Equal(t, Name{}, NameFromSlice(nil))
	assert.Equal(t, Name{First: "Jane", Last: "Doe"}, NameFromString("  Jane   Doe  Smith"))
	assert.Equal(t, Name{Last: "Doe"}, NameFromString("Doe"))
	assert.True(t, NameFromString("   ").IsZero())
}

func primaryPartition() *Partition {
	return &Partition{
		Record: Record{ID: "p1"},
		Fields: []*Field{
			{ID: "f1", Name: "Hostname", Type: "string", Primary: true},
			{ID: "f2", Name: "Tags", Type: "multi-select"},
		},
	}
}

func TestAsset_Identifier(t *testing.T) {
	a := &Asset{Record: Record{ID: "a1"}, Attributes: []Attribute{{FieldID: "f1", Value: "x"}}}

	assert.Equal(t, "a1", a.Identifier(), "partition not loaded")

	a.Partition = &Partition{}
	assert.Equal(t, "a1", a.Identifier(), "fields not loaded")

	a.Populate(primaryPartition())
	assert.Equal(t, "x", a.Identifier())
	assert.Equal(t, "x", a.String())

	a.Attributes[0].Value = ""
	assert.Equal(t, "a1", a.Identifier(), "empty value falls back")

	a.Attributes[0].Value = []any{}
	assert.Equal(t, "a1", a.Identifier(), "empty list falls back")

	a.Attributes[0].Value = float64(42)
	assert.Equal(t, "42", a.Identifier(), "numbers are identifiers")

	a.Attributes = []Attribute{{FieldID: "f2", Value: "y"}}
	assert.Equal(t, "a1", a.Identifier(), "no primary attribute")

	p := primaryPartition()
	p.Fields[0].Primary = false
	a.Populate(p)
	assert.Equal(t, "a1", a.Identifier(), "no primary field")
}

func TestValidateStatus(t *testing.T) {
	assert.NoError(t, ValidateStatus(StatusUnlocked))
	assert.NoError(t, ValidateStatus(StatusLocked))
	assert.NoError(t, ValidateStatus(strings.Repeat("a", SecuredStatusLength)))

	err := ValidateStatus("open")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "open is not a valid status")
}

func TestAsset_Validate(t *testing.T) {
	a := NewAsset("6f1c1c4e-8f7b-4a55-9a0f-2a5d1b0b1c11")
	require.NoError(t, a.Validate())

	a.PartitionID = "bad"
	a.Status = "weird"
	a.Attributes = []Attribute{{Value: 1}}
	err := a.Validate()
	require.Error(t, err)

	var verrs common.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
}

func TestAsset_DumpAttrs(t *testing.T) {
	a := &Asset{Attributes: []Attribute{
		{FieldID: "f1", Value: "web01"},
		{FieldID: "f2", Value: []any{"a", "b"}},
	}}
	a.Populate(primaryPartition())

	got := a.DumpAttrs()
	require.Len(t, got, 2)
	assert.Equal(t, AttrDump{Attribute: "Hostname", Type: "string", Value: "web01"}, got[0])
	assert.Equal(t, AttrDump{Attribute: "Tags", Type: "multi-select", Value: "a, b"}, got[1])
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue(""))
	assert.True(t, IsEmptyValue([]any{}))
	assert.True(t, IsEmptyValue(map[string]any{}))
	assert.False(t, IsEmptyValue(0))
	assert.False(t, IsEmptyValue(false))
	assert.False(t, IsEmptyValue("x"))
}

func TestRevision_RoundTrip(t *testing.T) {
	a := &Asset{Record: Record{ID: "a1"}, Status: StatusLocked, PartitionID: "p1", Version: 3,
		Attributes: []Attribute{{FieldID: "f1", Value: "x"}}}

	r, err := NewRevision(a, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a1", r.AssetID)
	assert.Equal(t, 3, r.Revision)
	assert.Equal(t, "u1", r.CreatedBy)

	got, err := r.Asset()
	require.NoError(t, err)
	assert.Equal(t, StatusLocked, got.Status)
	assert.Equal(t, "x", got.Attributes[0].Value)
}

func TestSettingSchema_Name(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid", in: "abc"},
		{name: "leading underscore", in: "_abc", wantErr: true},
		{name: "too short", in: "ab", wantErr: true},
		{name: "trailing dot", in: "abc.", wantErr: true},
		{name: "inner punctuation", in: "a.b-c_d"},
		{name: "too long", in: "a" + strings.Repeat("b", 35), wantErr: true},
		{name: "trimmed and lowered", in: "  MySetting  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{"name": tt.in}
			err := SettingSchema.Validate(doc)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSettingSchema_TypeAndPets(t *testing.T) {
	doc := map[string]any{"name": "abc", "type": " Email ", "pets": []any{"Cat", "Dog"}}
	require.NoError(t, SettingSchema.Validate(doc))
	assert.Equal(t, "email", doc["type"])

	doc = map[string]any{"name": "abc"}
	require.NoError(t, SettingSchema.Validate(doc))
	assert.Equal(t, "string", doc["type"], "type defaults to string")

	err := SettingSchema.Validate(map[string]any{"name": "abc", "type": "float"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Illegal setting type `float` for setting (`type`)")

	err = SettingSchema.Validate(map[string]any{"name": "abc", "pets": []any{"Cat", "Fish"}})
	require.Error(t, err)

	err = SettingSchema.Validate(map[string]any{"name": "abc", "description": strings.Repeat("d", 256)})
	require.Error(t, err)
}

func TestSettingFromDoc(t *testing.T) {
	doc := map[string]any{"name": "theme", "type": "string", "value": "dark", "pets": []any{"Cat"}}
	s, err := SettingFromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, "theme", s.Name)
	assert.Equal(t, "dark", s.Value)
	assert.Equal(t, []string{"Cat"}, s.Pets)
}

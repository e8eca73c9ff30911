package models

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sasset/core/internal/schema"
	"github.com/sasset/core/internal/schema/enumcheck"
)

// SettingTypes lists the value types a setting may declare.
var SettingTypes = []any{
	"string", "boolean", "single-select", "multi-select",
	"decimal", "integer", "number", "date", "email", "ip-address",
	"phone-number",
}

// SettingPets is the demonstration enum of the pets field.
var SettingPets = []any{"Cat", "Dog", "Bird", "Snake"}

var settingNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*[a-zA-Z0-9]$`)

// SettingSchema validates setting documents.
var SettingSchema = schema.New(
	&schema.Path{
		Name:      "name",
		Required:  true,
		MinLength: 3,
		MaxLength: 35,
		Match:     settingNamePattern,
		Setters:   []func(any) any{schema.Trim, schema.Lowercase},
	},
	&schema.Path{Name: "value"},
	&schema.Path{
		Name:    "type",
		Default: "string",
		Setters: []func(any) any{schema.Trim, schema.Lowercase},
		Enum: &schema.Enum{
			Values:  SettingTypes,
			Message: "Illegal setting type `{VALUE}` for setting (`{PATH}`)",
		},
	},
	&schema.Path{Name: "description", MaxLength: 255, Setters: []func(any) any{schema.Trim}},
	&schema.Path{Name: "pets", Enum: schema.Values(SettingPets...)},
).Plugin(enumcheck.Plugin)

type Setting struct {
	Record
	Name        string   `json:"name"`
	Value       any      `json:"value"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Pets        []string `json:"pets,omitempty"`
}

// SettingFromDoc builds a Setting from a document that passed SettingSchema.
func SettingFromDoc(doc map[string]any) (*Setting, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode setting: %w", err)
	}
	s := &Setting{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("decode setting: %w", err)
	}
	return s, nil
}

package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sasset/core/internal/common"
)

const (
	StatusUnlocked = "unlocked"
	StatusLocked   = "locked"

	// SecuredStatusLength is the length of a password-protected lock status.
	SecuredStatusLength = 108
)

// ValidateStatus checks that s is "unlocked", "locked" or a password hash.
func ValidateStatus(s string) error {
	if e := statusError(s); e != nil {
		return e
	}
	return nil
}

func statusError(s string) *common.ValidationError {
	if s == StatusUnlocked || s == StatusLocked || len(s) == SecuredStatusLength {
		return nil
	}
	return common.NewValidationError("status", s,
		`%s is not a valid status - Must be "locked", "unlocked" or a %d character password hash`, s, SecuredStatusLength)
}

// Attribute is a value attached to an asset for one partition field.
type Attribute struct {
	FieldID   string `json:"field"`
	Field     *Field `json:"-"`
	Value     any    `json:"value"`
	Immutable bool   `json:"immutable"`
}

// Name returns the populated field name, or "" when the field is not loaded.
func (a Attribute) Name() string {
	if a.Field == nil {
		return ""
	}
	return a.Field.Name
}

type Asset struct {
	Record
	Status      string         `json:"status"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	UpdatedBy   string         `json:"updatedBy,omitempty"`
	AttrCache   map[string]any `json:"attrCache,omitempty"`
	Attributes  []Attribute    `json:"attributes"`
	PartitionID string         `json:"partition"`
	Partition   *Partition     `json:"-"`
	Immutable   bool           `json:"immutable"`
	Version     int            `json:"version"`

	modified map[string]struct{}
}

// NewAsset returns an unlocked asset in the given partition.
func NewAsset(partitionID string) *Asset {
	return &Asset{Status: StatusUnlocked, PartitionID: partitionID}
}

// Validate checks the fields that must hold before the asset is written.
func (a *Asset) Validate() error {
	var errs common.ValidationErrors
	if !common.IsValidID(a.PartitionID) {
		errs = append(errs, common.NewValidationError("partition", a.PartitionID, "The partition needs to be a valid Partition ID"))
	}
	if e := statusError(a.Status); e != nil {
		errs = append(errs, e)
	}
	for i, attr := range a.Attributes {
		if attr.FieldID == "" {
			errs = append(errs, common.NewValidationError(fmt.Sprintf("attributes.%d.field", i), nil, "attribute field is required"))
		}
	}
	return errs.ErrOrNil()
}

func (a *Asset) IsLocked() bool { return a.Status != StatusUnlocked }

// IsSecured reports whether the asset is locked with a password.
func (a *Asset) IsSecured() bool { return len(a.Status) == SecuredStatusLength }

// Populate attaches p to the asset and resolves every attribute's field.
func (a *Asset) Populate(p *Partition) {
	a.Partition = p
	for i := range a.Attributes {
		a.Attributes[i].Field = p.FieldByID(a.Attributes[i].FieldID)
	}
}

// IsPopulated reports whether the attributes carry their field data.
func (a *Asset) IsPopulated() bool {
	if len(a.Attributes) == 0 {
		return false
	}
	for _, attr := range a.Attributes {
		if attr.Field == nil {
			return false
		}
	}
	return true
}

// Identifier derives the asset's human readable key: the value of the
// partition's primary field, or the asset ID when that is not available.
func (a *Asset) Identifier() string {
	if a.Partition == nil || len(a.Partition.Fields) == 0 {
		return a.ID
	}
	primary := a.Partition.PrimaryField()
	if primary == nil {
		return a.ID
	}
	for _, attr := range a.Attributes {
		if attr.FieldID != primary.ID {
			continue
		}
		if IsEmptyValue(attr.Value) {
			return a.ID
		}
		return FormatValue(attr.Value)
	}
	return a.ID
}

func (a *Asset) String() string { return a.Identifier() }

// MarkModified flags a document path as changed in memory.
func (a *Asset) MarkModified(path string) {
	if a.modified == nil {
		a.modified = make(map[string]struct{})
	}
	a.modified[path] = struct{}{}
}

// Modified lists the paths flagged since the last save, sorted.
func (a *Asset) Modified() []string {
	paths := make([]string, 0, len(a.modified))
	for p := range a.modified {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ClearModified is called once the document has been persisted.
func (a *Asset) ClearModified() { a.modified = nil }

// AttrDump is one row of DumpAttrs.
type AttrDump struct {
	Attribute string `json:"attribute"`
	Type      string `json:"type"`
	Value     any    `json:"value"`
}

// DumpAttrs lists the populated attributes with list values joined by ", ".
func (a *Asset) DumpAttrs() []AttrDump {
	out := make([]AttrDump, 0, len(a.Attributes))
	for _, attr := range a.Attributes {
		d := AttrDump{Attribute: attr.Name(), Value: attr.Value}
		if attr.Field != nil {
			d.Type = attr.Field.Type
		}
		if s, ok := joinList(attr.Value); ok {
			d.Value = s
		}
		out = append(out, d)
	}
	return out
}

// IsEmptyValue reports whether v counts as absent: nil, "", or an empty
// list or map. Numbers and booleans are never empty.
func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// FormatValue renders an attribute value as a key. Whole floats print without
// a fractional part since JSON decoding yields float64 for every number.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
	}
	return fmt.Sprint(v)
}

func joinList(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return "", false
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = FormatValue(rv.Index(i).Interface())
	}
	return strings.Join(parts, ", "), true
}

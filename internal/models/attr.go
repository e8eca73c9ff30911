package models

import (
	"fmt"
	"strings"

	"github.com/sasset/core/internal/common"
)

// AttrHandle operates on one attribute of an asset in memory. Changes are
// persisted only when the asset is saved. The attribute is looked up by name
// on every call, so a handle stays safe after other handles delete entries.
type AttrHandle struct {
	asset *Asset
	name  string
	total int
}

// Attr returns a handle on the attribute whose field name (any case) or field
// id equals name. It returns (nil, nil) when nothing matches, and an error
// when the asset has no attributes or they are not populated.
func (a *Asset) Attr(name string) (*AttrHandle, error) {
	if len(a.Attributes) == 0 {
		return nil, fmt.Errorf("%w: unable to retrieve the attribute %s for asset ID %s - no attributes were found",
			common.ErrPrecondition, name, a.ID)
	}
	if !a.IsPopulated() {
		return nil, fmt.Errorf("%w: unable to retrieve the attribute %s for asset ID %s - attribute fields are not populated",
			common.ErrPrecondition, name, a.ID)
	}

	h := &AttrHandle{asset: a, name: name}
	for _, attr := range a.Attributes {
		if matchAttr(attr, name) {
			h.total++
		}
	}
	if h.total == 0 {
		return nil, nil
	}
	return h, nil
}

func matchAttr(attr Attribute, name string) bool {
	return strings.EqualFold(attr.Name(), name) || attr.FieldID == name
}

// index is the position of the first attribute matching the handle, or -1.
func (h *AttrHandle) index() int {
	for i, attr := range h.asset.Attributes {
		if matchAttr(attr, h.name) {
			return i
		}
	}
	return -1
}

// Duplicates returns how many attributes matched the name when the handle
// was taken. Anything above one is a data anomaly; only the first match is
// operated on.
func (h *AttrHandle) Duplicates() int { return h.total }

// Value returns the attribute's value, or nil once it has been deleted.
func (h *AttrHandle) Value() any {
	i := h.index()
	if i < 0 {
		return nil
	}
	return h.asset.Attributes[i].Value
}

// Full returns the whole attribute entry.
func (h *AttrHandle) Full() Attribute {
	i := h.index()
	if i < 0 {
		return Attribute{}
	}
	return h.asset.Attributes[i]
}

// Set changes the value in memory. It reports false when the attribute is
// gone.
func (h *AttrHandle) Set(v any) bool {
	i := h.index()
	if i < 0 {
		return false
	}
	h.asset.Attributes[i].Value = v
	h.asset.MarkModified("attributes")
	return true
}

// Delete removes every attribute matching the handle's name and returns the
// first one removed. It reports false when nothing was removed.
func (h *AttrHandle) Delete() (Attribute, bool) {
	var removed []Attribute
	kept := make([]Attribute, 0, len(h.asset.Attributes))
	for _, attr := range h.asset.Attributes {
		if matchAttr(attr, h.name) {
			removed = append(removed, attr)
			continue
		}
		kept = append(kept, attr)
	}
	if len(removed) == 0 {
		return Attribute{}, false
	}

	h.asset.Attributes = kept
	h.asset.MarkModified("attributes")
	return removed[0], true
}

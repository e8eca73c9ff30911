package models

import "strings"

// Field describes one attribute slot of a partition.
type Field struct {
	ID          string `json:"id"`
	PartitionID string `json:"partitionId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Primary     bool   `json:"primary"`
}

// Partition groups assets and declares the fields they carry.
type Partition struct {
	Record
	Name   string   `json:"name"`
	Fields []*Field `json:"fields,omitempty"`
}

// PrimaryField returns the field used to derive asset identifiers, if any.
func (p *Partition) PrimaryField() *Field {
	if p == nil {
		return nil
	}
	for _, f := range p.Fields {
		if f.Primary {
			return f
		}
	}
	return nil
}

// FieldByID returns the field with the given id.
func (p *Partition) FieldByID(id string) *Field {
	if p == nil {
		return nil
	}
	for _, f := range p.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FieldByName looks a field up by name, ignoring case.
func (p *Partition) FieldByName(name string) *Field {
	if p == nil {
		return nil
	}
	for _, f := range p.Fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

package models

import "strings"

type Name struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// NameFromParts builds a Name from explicit parts.
func NameFromParts(first, last string) Name {
	return Name{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
}

// NameFromSlice uses the first two elements as first and last name.
// A single element is taken as the last name.
func NameFromSlice(parts []string) Name {
	switch len(parts) {
	case 0:
		return Name{}
	case 1:
		return NameFromParts("", parts[0])
	default:
		return NameFromParts(parts[0], parts[1])
	}
}

// NameFromString splits s on whitespace and applies NameFromSlice to the tokens.
func NameFromString(s string) Name {
	return NameFromSlice(strings.Fields(s))
}

// IsZero reports whether neither part is set.
func (n Name) IsZero() bool { return n.First == "" && n.Last == "" }

type Meta struct {
	Age     int    `json:"age,omitempty"`
	Website string `json:"website,omitempty"`
}

type Account struct {
	Record
	Name     Name   `json:"name"`
	Username string `json:"username"`
	Password string `json:"-"`
	Admin    bool   `json:"admin"`
	Location string `json:"location,omitempty"`
	Meta     Meta   `json:"meta"`
}

// FullName joins the present name parts with a space. ok is false when
// both parts are absent.
func (a *Account) FullName() (string, bool) {
	parts := make([]string, 0, 2)
	if a.Name.First != "" {
		parts = append(parts, a.Name.First)
	}
	if a.Name.Last != "" {
		parts = append(parts, a.Name.Last)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

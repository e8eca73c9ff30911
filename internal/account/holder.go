// Package account carries the authenticated account of a request. A Holder is
// created per request or session and travels in a context.Context, so two
// requests never see each other's account.
package account

import (
	"context"
	"sync"

	"github.com/sasset/core/internal/common"
)

// Data identifies the account an operation is attributed to.
type Data struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether d is the empty record.
func (d Data) IsZero() bool { return d.ID == "" && d.Username == "" }

// Holder stores the account of one request. The zero value is empty and ready
// to use.
type Holder struct {
	mu   sync.RWMutex
	data Data
	set  bool
}

// NewHolder returns a Holder preset with d. An invalid d leaves it empty.
func NewHolder(d Data) *Holder {
	h := &Holder{}
	_, _ = h.Set(d)
	return h
}

// Set replaces the stored account. Both fields must be non-empty.
func (h *Holder) Set(d Data) (Data, error) {
	if d.ID == "" {
		return Data{}, common.NewValidationError("id", d.ID, "account id must be a non-empty string")
	}
	if d.Username == "" {
		return Data{}, common.NewValidationError("username", d.Username, "account username must be a non-empty string")
	}

	h.mu.Lock()
	h.data = d
	h.set = true
	h.mu.Unlock()
	return d, nil
}

// Clear empties the holder and returns the empty record.
func (h *Holder) Clear() Data {
	h.mu.Lock()
	h.data = Data{}
	h.set = false
	h.mu.Unlock()
	return Data{}
}

// Get returns the stored account and whether one is set.
func (h *Holder) Get() (Data, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.data, h.set
}

// Require returns the stored account or ErrNoAccount.
func (h *Holder) Require() (Data, error) {
	d, ok := h.Get()
	if !ok {
		return Data{}, common.ErrNoAccount
	}
	return d, nil
}

// Attr returns a single field of the stored account ("id" or "username").
func (h *Holder) Attr(name string) (string, bool) {
	d, ok := h.Get()
	if !ok {
		return "", false
	}
	switch name {
	case "id":
		return d.ID, true
	case "username":
		return d.Username, true
	}
	return "", false
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying h.
func NewContext(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, ctxKey{}, h)
}

// FromContext returns the holder carried by ctx, if any.
func FromContext(ctx context.Context) (*Holder, bool) {
	h, ok := ctx.Value(ctxKey{}).(*Holder)
	return h, ok && h != nil
}

// Current returns the account set in ctx. ok is false when ctx carries no
// holder or the holder is empty.
func Current(ctx context.Context) (Data, bool) {
	h, ok := FromContext(ctx)
	if !ok {
		return Data{}, false
	}
	return h.Get()
}

// Must is the strict form of Current.
func Must(ctx context.Context) (Data, error) {
	h, ok := FromContext(ctx)
	if !ok {
		return Data{}, common.ErrNoAccount
	}
	return h.Require()
}

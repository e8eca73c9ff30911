// Package models holds the persisted documents of the asset data layer and
// the pure, in-memory behaviour attached to them (derived identifiers, full
// names, attribute access). Persistence lives in internal/repositories.
package models

import "time"

// Record is embedded in every persisted entity.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package models

import (
	"encoding/json"
	"time"
)

// Revision is a snapshot of an asset logged on every save.
type Revision struct {
	ID        string          `json:"id"`
	AssetID   string          `json:"asset"`
	Revision  int             `json:"revision"`
	Snapshot  json.RawMessage `json:"snapshot"`
	CreatedBy string          `json:"createdBy,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewRevision snapshots a at its current version.
func NewRevision(a *Asset, createdBy string) (*Revision, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return &Revision{
		AssetID:   a.ID,
		Revision:  a.Version,
		Snapshot:  b,
		CreatedBy: createdBy,
	}, nil
}

// Asset decodes the snapshot. Partition data is not part of a snapshot.
func (r *Revision) Asset() (*Asset, error) {
	a := &Asset{}
	if err := json.Unmarshal(r.Snapshot, a); err != nil {
		return nil, err
	}
	return a, nil
}

package revisions

import (
	"context"
	"time"

	"github.com/sasset/core/internal/models"
)

// Query narrows Find. Nil times and zero values are ignored.
type Query struct {
	After  *time.Time
	Before *time.Time
	// Date selects the 24 hour window starting at Date.
	Date *time.Time
	// Except drops the 24 hour window starting at Except.
	Except *time.Time
	// Match is compared against the snapshot with jsonb containment.
	Match map[string]any
	Limit int
	Sort  Sort
}

// Sort orders results. Field is "revision" (default) or "created_at".
type Sort struct {
	Field string
	Desc  bool
}

type Repository interface {
	Append(ctx context.Context, r *models.Revision) (*models.Revision, error)
	Find(ctx context.Context, assetID string, q Query) ([]*models.Revision, error)
	// Last returns the newest revision whose number is not current.
	Last(ctx context.Context, assetID string, current int) (*models.Revision, error)
	Get(ctx context.Context, assetID string, revision int) (*models.Revision, error)
}

package assets

import (
	"context"

	"github.com/sasset/core/internal/models"
)

// AttrMatch selects assets carrying an attribute of FieldID equal to Value.
type AttrMatch struct {
	FieldID string
	Value   any
}

// Filter narrows FindByPartition. Zero fields are ignored.
type Filter struct {
	Status     string
	CreatedBy  string
	Immutable  *bool
	Attributes []AttrMatch
}

type Repository interface {
	Create(ctx context.Context, a *models.Asset) (*models.Asset, error)
	Get(ctx context.Context, id string) (*models.Asset, error)
	GetMany(ctx context.Context, ids []string) ([]*models.Asset, error)
	// FindByAttrValues returns assets of the partition whose attribute for
	// fieldID equals one of values.
	FindByAttrValues(ctx context.Context, partitionID, fieldID string, values []any) ([]*models.Asset, error)
	// FindByField returns assets of the partition that carry an attribute for
	// fieldID, skipping the ids in ignore.
	FindByField(ctx context.Context, partitionID, fieldID string, ignore []string) ([]*models.Asset, error)
	FindByPartition(ctx context.Context, partitionID string, f *Filter) ([]*models.Asset, error)
	// Update writes the mutable columns and bumps the version.
	Update(ctx context.Context, a *models.Asset) error
	// Delete removes the asset and returns the deleted document.
	Delete(ctx context.Context, id string) (*models.Asset, error)
}

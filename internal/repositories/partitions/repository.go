package partitions

import (
	"context"

	"github.com/sasset/core/internal/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Partition) (*models.Partition, error)
	AddField(ctx context.Context, f *models.Field) (*models.Field, error)
	// Get returns the partition with its fields loaded.
	Get(ctx context.Context, id string) (*models.Partition, error)
	// FieldIDsByName maps each name that matches a field of the partition
	// (exact case) to the field id. Unmatched names are absent.
	FieldIDsByName(ctx context.Context, partitionID string, names []string) (map[string]string, error)
}
